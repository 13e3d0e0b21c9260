package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yourusername/signal-backtest/internal/config"
)

// TestConfigEnv names the config file used by database integration tests
const TestConfigEnv = "SIGNAL_BACKTEST_TEST_CONFIG"

// SetupTestDB connects to the database described by SIGNAL_BACKTEST_TEST_CONFIG,
// skipping the test when it is unset.
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	path := os.Getenv(TestConfigEnv)
	if path == "" {
		t.Skipf("%s not set, skipping integration test", TestConfigEnv)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := Initialize(ctx, cfg)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}

	return db
}

// TeardownTestDB closes the database connection cleanly
func TeardownTestDB(t *testing.T, db *DB) {
	t.Helper()
	if db != nil {
		db.Close()
	}
}
