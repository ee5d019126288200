package main_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"blogapi/adapters/httpserver"
	"blogapi/specifications"

	xtesting "github.com/xandalm/go-testing"
)

func TestServer(t *testing.T) {
	if testing.Short() {
		t.Skip()
	}

	t.Setenv("BLOG_SERVER_PORT", "5000")
	t.Setenv("BLOG_STORE_DRIVER", "memory")
	t.Setenv("BLOG_LOGGER_OUTPUT", "stderr")

	var (
		baseURL = "http://localhost:5000"
		client  = &http.Client{
			Timeout: 2 * time.Second,
		}
		driver = &httpserver.Driver{
			BaseURL: baseURL,
			Client:  client,
		}
	)

	launcher := xtesting.NewServerLauncher(context.Background(), "", "main.go", &xtesting.HTTPServerChecker{
		BaseURL: baseURL,
		Cli:     client,
	})

	if err := launcher.StartAndWait(10 * time.Second); err != nil {
		t.Fatalf("cannot launch server, %v", err)
	}
	t.Cleanup(func() {
		if err := launcher.EndAndClean(); err != nil {
			t.Errorf("cannot graceful end server, %v", err)
		}
	})

	specifications.CreatingAPostSpecification(t, driver)
	specifications.CreatingAPostWithMissingFieldsSpecification(t, driver)
	specifications.ListingPostsSpecification(t, driver)
	specifications.UpdatingAPostSpecification(t, driver)
	specifications.UpdatingAPostWithBadRequestsSpecification(t, driver)
	specifications.DeletingAPostSpecification(t, driver)
	specifications.MissingPostsSpecification(t, driver)
	specifications.MalformedPostSpecification(t, driver)
}
