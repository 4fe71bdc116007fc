package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"fixmarket_backend/platform/apperr"
	"fixmarket_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewStore(rdb, time.Hour), mr
}

func TestStoreAppendAndRead(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, "s1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Append(ctx, "s1", msg(RoleUser, KindText, "faucet drips all night")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(ctx, "s1", msg(RoleAssistant, KindText, "hot or cold side?")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	msgs, err := store.Messages(ctx, "s1")
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[0].Content != "faucet drips all night" {
		t.Fatalf("unexpected first message: %+v", msgs[0])
	}
	if msgs[1].Role != RoleAssistant {
		t.Fatalf("unexpected second message: %+v", msgs[1])
	}
}

func TestStoreAppendToMissingSession(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.Append(context.Background(), "missing", msg(RoleUser, KindText, "hello"))
	if err == nil {
		t.Fatal("expected error appending to missing session")
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestStoreSessionExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, "s1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	mr.FastForward(2 * time.Hour)

	if err := store.Append(ctx, "s1", msg(RoleUser, KindText, "still there?")); err == nil {
		t.Fatal("expected expired session to reject appends")
	}
}

func TestStoreDeleteIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Create(ctx, "s1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, "s1"); err != nil {
		t.Fatalf("second Delete() error = %v", err)
	}
}

func TestServiceSessionLifecycle(t *testing.T) {
	store, _ := newTestStore(t)
	svc := NewService(store, logger.New("test"))
	ctx := context.Background()

	id, err := svc.Create(ctx)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	state, err := svc.Append(ctx, id, Message{Role: RoleUser, Kind: KindText, Content: "outlet is sparking"})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if state.Ready {
		t.Fatal("expected single-turn session to not be ready")
	}

	state, err = svc.Append(ctx, id, Message{Role: RoleAssistant, Kind: KindText, Content: "Likely a worn outlet. Confidence: 85"})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if !state.Ready {
		t.Fatal("expected confident diagnosis to mark session ready")
	}
	if state.Transcript == "" {
		t.Fatal("expected non-empty transcript")
	}

	svc.Terminate(ctx, id)
	if _, err := svc.Get(ctx, id); err == nil {
		t.Fatal("expected terminated session to be gone")
	}
}
