package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("defaults to json at info", func(t *testing.T) {
		l, cleanup, err := New(Config{})
		require.NoError(t, err)
		defer cleanup()

		assert.Equal(t, logrus.InfoLevel, l.GetLevel())
		assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
	})

	t.Run("text formatter and debug level", func(t *testing.T) {
		l, cleanup, err := New(Config{Level: "debug", Format: "text", Output: "stderr"})
		require.NoError(t, err)
		defer cleanup()

		assert.Equal(t, logrus.DebugLevel, l.GetLevel())
		assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
	})

	t.Run("file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "blog.log")
		l, cleanup, err := New(Config{Output: "file", OutputFile: path})
		require.NoError(t, err)
		l.Info("hello")
		cleanup()

		assert.FileExists(t, path)
	})

	cases := map[string]Config{
		"bad level":           {Level: "loud"},
		"bad format":          {Format: "xml"},
		"bad output":          {Output: "printer"},
		"file without a path": {Output: "file"},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := New(c)
			assert.Error(t, err)
		})
	}
}

func TestEntryContext(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.JSONFormatter{})

	ctx := WithEntry(context.Background(), l.WithField("request_id", "abc"))
	FromContext(ctx).Info("handled")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc", line["request_id"])
	assert.Equal(t, "handled", line["msg"])

	assert.NotNil(t, FromContext(context.Background()))
}
