package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"partvault/internal/config"
)

func TestRunRequiresSessionSecret(t *testing.T) {
	err := Run(context.Background(), config.Config{
		Addr:    "127.0.0.1:0",
		DataDir: t.TempDir(),
	})
	if err == nil || !strings.Contains(err.Error(), "SESSION_SECRET") {
		t.Fatalf("err = %v, want session secret error", err)
	}
}

func TestRunRejectsUnknownStorageBackend(t *testing.T) {
	err := Run(context.Background(), config.Config{
		Addr:           "127.0.0.1:0",
		DataDir:        t.TempDir(),
		DBBackend:      "sqlite",
		SessionSecret:  "test-secret",
		StorageBackend: "ftp",
	})
	if err == nil || !strings.Contains(err.Error(), "storage backend") {
		t.Fatalf("err = %v, want storage backend error", err)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	dataDir := t.TempDir()

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, config.Config{
			Addr:          "127.0.0.1:0",
			DataDir:       dataDir,
			DBBackend:     "sqlite",
			SessionSecret: "test-secret",
		})
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}
