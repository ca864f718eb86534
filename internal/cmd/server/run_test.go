package serverrun

import (
	"context"
	"os"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/batchq/internal/config"
	pebblestore "github.com/rzbill/batchq/internal/storage/pebble"
)

func TestGetenvDefault(t *testing.T) {
	os.Setenv("BATCHQ_TEST_VAR", "env_value")
	t.Cleanup(func() { os.Unsetenv("BATCHQ_TEST_VAR") })
	if got := getenvDefault("BATCHQ_TEST_VAR", "default"); got != "env_value" {
		t.Fatalf("set var = %q", got)
	}
	if got := getenvDefault("BATCHQ_TEST_VAR_UNSET", "default"); got != "default" {
		t.Fatalf("unset var = %q", got)
	}
}

// TestRunIntegration starts a real server on an ephemeral port and relies on
// the context timeout to shut it down.
func TestRunIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping server startup in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := Run(ctx, Options{
		DataDir:  t.TempDir(),
		HTTPAddr: ":0",
		Fsync:    pebblestore.FsyncModeNever,
		Config:   cfgpkg.Default(),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
}
