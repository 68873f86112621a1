package session

import (
	"context"
	"testing"
	"time"

	"github.com/entl/botdeck/internal/storage"
)

func testStore(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.NewDB(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGetOrCreateGeneratesID(t *testing.T) {
	m := NewManager(testStore(t), 0)

	sess, err := m.GetOrCreate(context.Background(), "")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if sess.ID == "" {
		t.Error("expected a generated session id")
	}
	if sess.Queue == nil {
		t.Error("session must own a queue")
	}
}

func TestGetOrCreateReturnsSameSession(t *testing.T) {
	m := NewManager(testStore(t), 0)
	ctx := context.Background()

	first, err := m.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	second, err := m.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatalf("second GetOrCreate failed: %v", err)
	}
	if first != second {
		t.Error("same id must map to the same resident session")
	}
}

func TestGetOrCreateRehydratesFromStore(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	store.SaveQueue(ctx, "s1", []storage.QueueItem{
		{SessionID: "s1", Seq: 1, Text: "robot.battery()", EnqueuedAt: time.Now()},
		{SessionID: "s1", Seq: 2, Text: "robot.say_text('hi')", EnqueuedAt: time.Now()},
	})

	// A fresh manager simulates a server restart.
	m := NewManager(store, 0)
	sess, err := m.GetOrCreate(ctx, "s1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	snap := sess.Queue.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 rehydrated commands, got %d", len(snap))
	}
	if snap[0].Text != "robot.battery()" || snap[1].Text != "robot.say_text('hi')" {
		t.Errorf("rehydrated queue out of order: %+v", snap)
	}

	// The sequence counter continues past the restored values.
	cmd, err := sess.Queue.Append("robot.battery()")
	if err != nil {
		t.Fatalf("append after rehydration failed: %v", err)
	}
	if cmd.Seq != 3 {
		t.Errorf("seq = %d, want 3", cmd.Seq)
	}
}

func TestCloseSessionPersistsAndEvicts(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	m := NewManager(store, 0)
	sess, _ := m.GetOrCreate(ctx, "s1")
	sess.Queue.Append("robot.battery()")

	if err := m.CloseSession(ctx, "s1"); err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}
	if _, err := m.Get("s1"); err == nil {
		t.Error("closed session must be evicted")
	}

	items, err := store.LoadQueue(ctx, "s1")
	if err != nil {
		t.Fatalf("LoadQueue failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("queue not persisted on close: %d items", len(items))
	}
}

func TestCloseSessionUnknownID(t *testing.T) {
	m := NewManager(testStore(t), 0)
	if err := m.CloseSession(context.Background(), "nope"); err == nil {
		t.Error("closing an unknown session should fail")
	}
}

func TestManagerClose(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	m := NewManager(store, 0)
	a, _ := m.GetOrCreate(ctx, "a")
	a.Queue.Append("robot.battery()")
	m.GetOrCreate(ctx, "b")

	if err := m.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if len(m.List()) != 0 {
		t.Errorf("expected no resident sessions, got %d", len(m.List()))
	}

	items, _ := store.LoadQueue(ctx, "a")
	if len(items) != 1 {
		t.Errorf("session a's queue not persisted: %d items", len(items))
	}
}

func TestManagerEnforcesQueueCap(t *testing.T) {
	m := NewManager(testStore(t), 1)
	sess, _ := m.GetOrCreate(context.Background(), "s1")

	if _, err := sess.Queue.Append("robot.battery()"); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if _, err := sess.Queue.Append("robot.battery()"); err == nil {
		t.Error("cap of 1 should reject the second append")
	}
}
