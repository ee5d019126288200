package httpserver

import (
	"reflect"
	"testing"
)

func TestParseArgs(t *testing.T) {
	args := ParseArgs("title: Test Post", "author.firstName: Jane", "author.lastName:Doe", "content: a: b")

	want := map[string]any{
		"title": "Test Post",
		"author": map[string]any{
			"firstName": "Jane",
			"lastName":  "Doe",
		},
		"content": "a: b",
	}
	if got := args.Nest(); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if got := args.Get("title", "missing"); len(got) != 1 || got["title"] != "Test Post" {
		t.Errorf("got %v", got)
	}
}

func TestParseArgsPanicsOnBadPattern(t *testing.T) {
	defer func() {
		r := recover()
		str, ok := r.(string)
		if !ok || str != "argument must be `name: value` pattern" {
			t.Errorf("didn't panic on bad pattern, got %v", r)
		}
	}()
	ParseArgs("no separator")
}
