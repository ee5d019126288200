package main

import (
	"context"
	"testing"

	"blogapi/config"
	"blogapi/domain/services/memory"
	"blogapi/logging"
)

func TestOpenStorageMemory(t *testing.T) {
	storage, closeStorage, err := openStorage(context.Background(), config.Store{Driver: config.DriverMemory}, logging.Discard())
	if err != nil {
		t.Fatalf("cannot open storage, %v", err)
	}
	defer closeStorage()

	if _, ok := storage.(*memory.Storage); !ok {
		t.Errorf("got storage %T, want *memory.Storage", storage)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	t.Setenv("BLOG_STORE_DRIVER", "cassandra")

	if err := run(""); err == nil {
		t.Error("expected run to fail on an unknown store driver")
	}
}
