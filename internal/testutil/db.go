package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"mtgstone/config"
	"mtgstone/db"
)

var dbSeq atomic.Int64

// NewStore opens a fresh in-memory store that lives for the duration of t.
func NewStore(t *testing.T) *db.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	store, err := db.Open(config.DatabaseConfig{DSN: dsn}, db.Options{
		GormLogLevel: "silent",
		Timeout:      5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("failed to close store: %v", err)
		}
	})
	return store
}
