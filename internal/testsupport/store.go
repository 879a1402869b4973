package testsupport

import (
	"context"
	"testing"

	"photoflow/internal/catalog"
	"photoflow/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewSession creates an import session for tests using the provided store.
func NewSession(t testing.TB, store *catalog.Store, label string) *catalog.ImportSession {
	t.Helper()

	session, err := store.CreateSession(context.Background(), label, "")
	if err != nil {
		t.Fatalf("store.CreateSession: %v", err)
	}
	return session
}
