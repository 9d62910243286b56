package testing

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/imamik/fleetstack/internal/config"
)

// TestContext returns a context with a reasonable timeout for tests.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// WriteConfig saves cfg as fleetstack.yaml in a temporary directory and
// returns its path.
func WriteConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	if err := config.Save(cfg, path); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}
