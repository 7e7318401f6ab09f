package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	contractx "github.com/northfiber/concierge/agent/contract"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.sqlite"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestSQLiteStore(t)
	ctx := context.Background()

	sess := NewSession("thread-1", time.Now())
	mustAppend(t, sess, contractx.UserTurn("12345"))
	mustAppend(t, sess, contractx.ToolCallTurn(contractx.ToolCall{
		ID: "call-1", Name: contractx.ToolCustomerLookup, Argument: "12345",
	}))
	sess.SetVerifiedCustomer(&contractx.CustomerRecord{
		AccountID:   "12345",
		Name:        "Alice Wonderland",
		ServicePlan: "FiberOptic 500Mbps",
		Outage:      true,
	})
	sess.PendingRoute = contractx.RouteTechSupport

	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load(ctx, "thread-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("loaded messages = %d, want 2", len(loaded.Messages))
	}
	if !loaded.Messages[1].IsToolCall() || loaded.Messages[1].ToolCall.Argument != "12345" {
		t.Fatalf("loaded tool call = %+v, want customer_lookup(12345)", loaded.Messages[1].ToolCall)
	}
	if loaded.VerifiedCustomer == nil || !loaded.VerifiedCustomer.Outage {
		t.Fatalf("loaded VerifiedCustomer = %+v, want outage flag preserved", loaded.VerifiedCustomer)
	}
	if loaded.PendingRoute != contractx.RouteTechSupport {
		t.Fatalf("loaded PendingRoute = %q, want tech_support", loaded.PendingRoute)
	}
}

func TestSQLiteStoreOverwritesOnSave(t *testing.T) {
	t.Parallel()

	store := newTestSQLiteStore(t)
	ctx := context.Background()

	sess := NewSession("thread-1", time.Now())
	mustAppend(t, sess, contractx.UserTurn("hello"))
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	mustAppend(t, sess, contractx.AssistantTurn("hi there"))
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() second error = %v", err)
	}

	loaded, err := store.Load(ctx, "thread-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("loaded messages = %d, want 2", len(loaded.Messages))
	}
}

func TestSQLiteStoreMissingSession(t *testing.T) {
	t.Parallel()

	store := newTestSQLiteStore(t)
	if _, err := store.Load(context.Background(), "nope"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Load() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSQLiteStoreDelete(t *testing.T) {
	t.Parallel()

	store := newTestSQLiteStore(t)
	ctx := context.Background()

	sess := NewSession("thread-1", time.Now())
	mustAppend(t, sess, contractx.UserTurn("hello"))
	if err := store.Save(ctx, sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(ctx, "thread-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, "thread-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("Load() after Delete() error = %v, want ErrSessionNotFound", err)
	}
}

func TestSQLiteStoreRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	if _, err := NewSQLiteStore("  "); err == nil {
		t.Fatal("NewSQLiteStore(blank) = nil error, want error")
	}
}
