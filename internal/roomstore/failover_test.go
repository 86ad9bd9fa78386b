package roomstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kelesetlogelo-tech/if-i-were-game/internal/game"
)

// faulty wraps a store and, when tripped, fails every call the way a dead
// backend would.
type faulty struct {
	inner Store
	down  bool
}

func (f *faulty) err() error { return fmt.Errorf("%w: connection refused", ErrUnavailable) }

func (f *faulty) Create(ctx context.Context, code string, room game.Room) error {
	if f.down {
		return f.err()
	}
	return f.inner.Create(ctx, code, room)
}

func (f *faulty) Get(ctx context.Context, code string) (game.Room, error) {
	if f.down {
		return game.Room{}, f.err()
	}
	return f.inner.Get(ctx, code)
}

func (f *faulty) Update(ctx context.Context, code string, fn UpdateFunc) (game.Room, error) {
	if f.down {
		return game.Room{}, f.err()
	}
	return f.inner.Update(ctx, code, fn)
}

func (f *faulty) Delete(ctx context.Context, code string) error {
	if f.down {
		return f.err()
	}
	return f.inner.Delete(ctx, code)
}

func (f *faulty) Watch(ctx context.Context, code string) (<-chan game.Room, error) {
	if f.down {
		return nil, f.err()
	}
	return f.inner.Watch(ctx, code)
}

func newFailover(t *testing.T) (*Failover, *faulty, *SQLiteStore) {
	t.Helper()
	primary := &faulty{inner: newSQLiteStore(t)}
	secondary := newSQLiteStore(t)
	return NewFailover(primary, secondary, slog.New(slog.NewTextHandler(io.Discard, nil))), primary, secondary
}

func TestFailoverMirrorsWrites(t *testing.T) {
	f, _, secondary := newFailover(t)
	ctx := context.Background()

	if err := f.Create(ctx, "123456", game.NewRoom("123456", "ana", 4)); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := secondary.Get(ctx, "123456")
	if err != nil {
		t.Fatalf("mirror after create: %v", err)
	}
	if got.Version != 1 {
		t.Errorf("mirror version: expected 1, got %d", got.Version)
	}

	if _, err := f.Update(ctx, "123456", func(r *game.Room) error {
		return game.Join(r, "ben")
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err = secondary.Get(ctx, "123456")
	if err != nil {
		t.Fatalf("mirror after update: %v", err)
	}
	if got.Version != 2 || len(got.Players) != 2 {
		t.Errorf("mirror stale: v%d players %v", got.Version, got.Players)
	}

	if err := f.Delete(ctx, "123456"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := secondary.Get(ctx, "123456"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("mirror survived delete: %v", err)
	}
}

func TestFailoverDegradesPerCall(t *testing.T) {
	f, primary, secondary := newFailover(t)
	ctx := context.Background()

	// Room created while the primary was healthy is mirrored, so the
	// fallback picks up mid-game.
	if err := f.Create(ctx, "123456", game.NewRoom("123456", "ana", 4)); err != nil {
		t.Fatalf("create: %v", err)
	}

	primary.down = true

	got, err := f.Get(ctx, "123456")
	if err != nil {
		t.Fatalf("degraded get: %v", err)
	}
	if got.Code != "123456" {
		t.Errorf("degraded get returned %q", got.Code)
	}

	if _, err := f.Update(ctx, "123456", func(r *game.Room) error {
		return game.Join(r, "ben")
	}); err != nil {
		t.Fatalf("degraded update: %v", err)
	}
	got, _ = secondary.Get(ctx, "123456")
	if len(got.Players) != 2 {
		t.Errorf("degraded update lost: %v", got.Players)
	}

	// Domain errors pass through untouched, no fallback involved.
	primary.down = false
	if err := f.Create(ctx, "123456", game.NewRoom("123456", "zoe", 4)); !errors.Is(err, ErrRoomExists) {
		t.Fatalf("duplicate create: expected ErrRoomExists, got %v", err)
	}
}

func TestFailoverCreateWhileDown(t *testing.T) {
	f, primary, secondary := newFailover(t)
	ctx := context.Background()

	primary.down = true
	if err := f.Create(ctx, "654321", game.NewRoom("654321", "ana", 4)); err != nil {
		t.Fatalf("degraded create: %v", err)
	}
	if _, err := secondary.Get(ctx, "654321"); err != nil {
		t.Fatalf("room missing from fallback: %v", err)
	}
}

func TestFailoverWatchFallsBack(t *testing.T) {
	f, primary, _ := newFailover(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := f.Create(ctx, "123456", game.NewRoom("123456", "ana", 4)); err != nil {
		t.Fatalf("create: %v", err)
	}

	primary.down = true
	ch, err := f.Watch(ctx, "123456")
	if err != nil {
		t.Fatalf("degraded watch: %v", err)
	}
	room, ok := recv(t, ch)
	if !ok || room.Code != "123456" {
		t.Fatalf("expected initial snapshot from fallback, got %v ok=%v", room, ok)
	}

	// Changes written while degraded reach the fallback watcher.
	if _, err := f.Update(ctx, "123456", func(r *game.Room) error {
		return game.Join(r, "ben")
	}); err != nil {
		t.Fatalf("degraded update: %v", err)
	}
	deadline := time.After(2 * time.Second)
	for {
		select {
		case room = <-ch:
			if len(room.Players) == 2 {
				return
			}
		case <-deadline:
			t.Fatal("fallback watch never saw the update")
		}
	}
}
