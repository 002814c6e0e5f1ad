package host

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grain.yaml")
	require.NoError(t, os.WriteFile(path, []byte("idle_timeout: 1m\n"), 0o600))

	changes := make(chan Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(t.Context(), path, nil, func(cfg Config) { changes <- cfg })
	}()

	// give the watcher time to register
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("idle_timeout: 2m\n"), 0o600))

	select {
	case cfg := <-changes:
		require.Equal(t, 2*time.Minute, cfg.IdleTimeout)
	case err := <-done:
		t.Fatalf("watcher exited: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload")
	}
}
