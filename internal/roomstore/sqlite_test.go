package roomstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kelesetlogelo-tech/if-i-were-game/internal/database"
	"github.com/kelesetlogelo-tech/if-i-were-game/internal/game"
	"github.com/kelesetlogelo-tech/if-i-were-game/internal/migrations"
)

func newSQLiteStore(t *testing.T) *SQLiteStore {
	return newSQLiteStoreAt(t, ":memory:")
}

// newFileSQLiteStore backs the store with a real database file, the way
// fallback-only deployments run it.
func newFileSQLiteStore(t *testing.T) *SQLiteStore {
	return newSQLiteStoreAt(t, filepath.Join(t.TempDir(), "rooms.db"))
}

func newSQLiteStoreAt(t *testing.T, path string) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := NewSQLiteStore(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.SetPollInterval(10 * time.Millisecond)
	return s
}

// recv waits for the next watch delivery.
func recv(t *testing.T, ch <-chan game.Room) (game.Room, bool) {
	t.Helper()
	select {
	case room, ok := <-ch:
		return room, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watch delivery")
		return game.Room{}, false
	}
}

func TestSQLiteCreateGetDelete(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	room := game.NewRoom("123456", "ana", 4)
	if err := s.Create(ctx, "123456", room); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(ctx, "123456", room); !errors.Is(err, ErrRoomExists) {
		t.Fatalf("duplicate create: expected ErrRoomExists, got %v", err)
	}

	got, err := s.Get(ctx, "123456")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Code != "123456" || got.Version != 1 {
		t.Errorf("expected code 123456 version 1, got %q v%d", got.Code, got.Version)
	}
	if len(got.Players) != 1 || got.Players[0].Name != "ana" || !got.Players[0].IsHost {
		t.Errorf("host not round-tripped: %v", got.Players)
	}

	if _, err := s.Get(ctx, "999999"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("missing get: expected ErrRoomNotFound, got %v", err)
	}

	if err := s.Delete(ctx, "123456"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "123456"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("double delete: expected ErrRoomNotFound, got %v", err)
	}
	if _, err := s.Get(ctx, "123456"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("get after delete: expected ErrRoomNotFound, got %v", err)
	}
}

func TestSQLiteUpdate(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, "123456", game.NewRoom("123456", "ana", 4)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Update(ctx, "123456", func(r *game.Room) error {
		return game.Join(r, "ben")
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("expected version 2, got %d", got.Version)
	}
	if len(got.Players) != 2 {
		t.Errorf("expected 2 players, got %v", got.Players)
	}

	// A failing mutation leaves the document untouched.
	boom := errors.New("boom")
	if _, err := s.Update(ctx, "123456", func(r *game.Room) error {
		r.Players = nil
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("aborted update: expected boom, got %v", err)
	}
	got, _ = s.Get(ctx, "123456")
	if got.Version != 2 || len(got.Players) != 2 {
		t.Errorf("aborted update leaked: v%d players %v", got.Version, got.Players)
	}

	if _, err := s.Update(ctx, "999999", func(r *game.Room) error { return nil }); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("missing update: expected ErrRoomNotFound, got %v", err)
	}
}

// TestSQLiteConcurrentJoins drives concurrent updates against a file-backed
// database: every writer must serialize and land, never bounce off SQLite's
// file lock as unavailable.
func TestSQLiteConcurrentJoins(t *testing.T) {
	s := newFileSQLiteStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, "123456", game.NewRoom("123456", "ana", 8)); err != nil {
		t.Fatalf("create: %v", err)
	}

	const joiners = 6
	var wg sync.WaitGroup
	errs := make([]error, joiners)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Update(ctx, "123456", func(r *game.Room) error {
				return game.Join(r, fmt.Sprintf("player%d", i))
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}
	got, err := s.Get(ctx, "123456")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Players) != joiners+1 {
		t.Errorf("expected %d players, got %d", joiners+1, len(got.Players))
	}
	if got.Version != joiners+1 {
		t.Errorf("expected version %d, got %d", joiners+1, got.Version)
	}
}

// TestSQLiteConcurrentGuessesSingleReveal submits the round's last two
// guesses concurrently. Whichever update lands second must see the first
// guess already stored, so exactly one reveal is published and each score
// delta is applied exactly once.
func TestSQLiteConcurrentGuessesSingleReveal(t *testing.T) {
	s := newFileSQLiteStore(t)
	ctx := context.Background()
	qs := game.Questions()

	answers := func(pick int) game.Answers {
		a := game.Answers{}
		for _, q := range qs {
			a[q.ID] = q.Options[pick%len(q.Options)]
		}
		return a
	}

	if err := s.Create(ctx, "123456", game.NewRoom("123456", "ana", 4)); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, name := range []string{"ben", "cara"} {
		if _, err := s.Update(ctx, "123456", func(r *game.Room) error {
			return game.Join(r, name)
		}); err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
	}
	if _, err := s.Update(ctx, "123456", func(r *game.Room) error {
		return game.Start(r, "ana")
	}); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, name := range []string{"ana", "ben", "cara"} {
		if _, err := s.Update(ctx, "123456", func(r *game.Room) error {
			return game.SubmitAnswers(r, name, answers(0), qs)
		}); err != nil {
			t.Fatalf("answers %s: %v", name, err)
		}
	}

	// Target is ana; ben guesses all correct, cara all wrong, at once.
	guessers := map[string]int{"ben": 0, "cara": 1}
	var wg sync.WaitGroup
	errs := map[string]error{}
	var mu sync.Mutex
	for name, pick := range guessers {
		wg.Add(1)
		go func(name string, pick int) {
			defer wg.Done()
			_, err := s.Update(ctx, "123456", func(r *game.Room) error {
				return game.SubmitGuesses(r, name, answers(pick), qs, time.Now())
			})
			mu.Lock()
			errs[name] = err
			mu.Unlock()
		}(name, pick)
	}
	wg.Wait()

	for name, err := range errs {
		if err != nil {
			t.Fatalf("guess %s: %v", name, err)
		}
	}

	got, err := s.Get(ctx, "123456")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Reveal == nil || got.Reveal.Target != "ana" {
		t.Fatalf("expected one reveal for ana, got %+v", got.Reveal)
	}
	if n := len(got.Guesses["ana"]); n != 2 {
		t.Fatalf("expected 2 stored guesses, got %d", n)
	}
	nQ := len(qs)
	if got.Scores["ben"] != nQ || got.Reveal.Scores["ben"] != nQ {
		t.Errorf("ben delta applied wrong: total %d round %d", got.Scores["ben"], got.Reveal.Scores["ben"])
	}
	if got.Scores["cara"] != -nQ || got.Reveal.Scores["cara"] != -nQ {
		t.Errorf("cara delta applied wrong: total %d round %d", got.Scores["cara"], got.Reveal.Scores["cara"])
	}
	// Every update, guesses included, landed exactly once: create (1),
	// two joins, start, three answer sets, two guesses.
	if got.Version != 9 {
		t.Errorf("expected version 9, got %d", got.Version)
	}
}

func TestSQLiteWatch(t *testing.T) {
	s := newSQLiteStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Create(ctx, "123456", game.NewRoom("123456", "ana", 4)); err != nil {
		t.Fatalf("create: %v", err)
	}

	ch, err := s.Watch(ctx, "123456")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	room, ok := recv(t, ch)
	if !ok || room.Version != 1 {
		t.Fatalf("expected initial snapshot v1, got %v ok=%v", room.Version, ok)
	}

	if _, err := s.Update(ctx, "123456", func(r *game.Room) error {
		return game.Join(r, "ben")
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	room, ok = recv(t, ch)
	if !ok || room.Version != 2 || len(room.Players) != 2 {
		t.Fatalf("expected v2 with 2 players, got v%d %v ok=%v", room.Version, room.Players, ok)
	}

	if err := s.Delete(ctx, "123456"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := recv(t, ch); ok {
		t.Fatal("expected channel to close after delete")
	}
}

func TestSQLiteWatchUnknownRoom(t *testing.T) {
	s := newSQLiteStore(t)
	if _, err := s.Watch(context.Background(), "999999"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestSQLitePutOverwrites(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	room := game.NewRoom("123456", "ana", 4)
	room.Version = 7
	if err := s.Put(ctx, room); err != nil {
		t.Fatalf("put: %v", err)
	}

	room.Version = 9
	room.Phase = game.PhaseAnswering
	if err := s.Put(ctx, room); err != nil {
		t.Fatalf("second put: %v", err)
	}

	got, err := s.Get(ctx, "123456")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Version != 9 || got.Phase != game.PhaseAnswering {
		t.Errorf("expected v9 answering, got v%d %s", got.Version, got.Phase)
	}
}
