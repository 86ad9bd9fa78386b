package roomstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kelesetlogelo-tech/if-i-were-game/internal/game"
)

// DefaultPollInterval paces the polling watch used when no push channel is
// available.
const DefaultPollInterval = 2 * time.Second

// SQLiteStore is the degraded fallback: rooms as JSONB rows in a local
// database. Update runs inside a DB transaction; Watch is emulated by polling
// the row version, so only actual changes cost a full document read.
type SQLiteStore struct {
	db           *sql.DB
	logger       *slog.Logger
	pollInterval time.Duration

	// writeMu serializes read-modify-write transactions. SQLite allows one
	// writer at a time; letting concurrent Updates race the file lock gets
	// the losers SQLITE_BUSY instead of the retry semantics Update promises.
	writeMu sync.Mutex
}

func NewSQLiteStore(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	return &SQLiteStore{db: db, logger: logger, pollInterval: DefaultPollInterval}
}

// SetPollInterval overrides the watch polling cadence. Mainly for tests.
func (s *SQLiteStore) SetPollInterval(d time.Duration) { s.pollInterval = d }

func (s *SQLiteStore) Create(ctx context.Context, code string, room game.Room) error {
	room.Code = code
	room.Version = 1
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO rooms (code, version, data) VALUES (?, ?, jsonb(?))
		 ON CONFLICT(code) DO NOTHING`,
		code, room.Version, string(data),
	)
	if err != nil {
		return fmt.Errorf("%w: inserting room: %v", ErrUnavailable, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrRoomExists
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, code string) (game.Room, error) {
	var room game.Room
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data) FROM rooms WHERE code = ?`, code,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return room, ErrRoomNotFound
	}
	if err != nil {
		return room, fmt.Errorf("%w: reading room: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		return room, err
	}
	return room, nil
}

// Update loads the room, applies fn, and saves it in one transaction.
// Writers queue on an in-process lock rather than fighting over SQLite's
// file lock; this store is process-local so that covers all of them.
func (s *SQLiteStore) Update(ctx context.Context, code string, fn UpdateFunc) (game.Room, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return game.Room{}, fmt.Errorf("%w: begin: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT json(data) FROM rooms WHERE code = ?`, code,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return game.Room{}, ErrRoomNotFound
	}
	if err != nil {
		return game.Room{}, fmt.Errorf("%w: reading room: %v", ErrUnavailable, err)
	}

	var room game.Room
	if err := json.Unmarshal([]byte(data), &room); err != nil {
		return game.Room{}, err
	}
	if err := fn(&room); err != nil {
		return game.Room{}, err
	}
	room.Version++

	out, err := json.Marshal(room)
	if err != nil {
		return game.Room{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE rooms SET version = ?, data = jsonb(?) WHERE code = ?`,
		room.Version, string(out), code,
	); err != nil {
		return game.Room{}, fmt.Errorf("%w: writing room: %v", ErrUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return game.Room{}, fmt.Errorf("%w: commit: %v", ErrUnavailable, err)
	}
	return room, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE code = ?`, code)
	if err != nil {
		return fmt.Errorf("%w: deleting room: %v", ErrUnavailable, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// Put overwrites the stored document wholesale, version included. Used by the
// failover store to mirror primary writes.
func (s *SQLiteStore) Put(ctx context.Context, room game.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO rooms (code, version, data) VALUES (?, ?, jsonb(?))`,
		room.Code, room.Version, string(data),
	)
	if err != nil {
		return fmt.Errorf("%w: mirroring room: %v", ErrUnavailable, err)
	}
	return nil
}

// Watch polls the row's version counter and emits the full document whenever
// it moved. The cheap version probe keeps the steady-state cost of polling
// to a single integer read.
func (s *SQLiteStore) Watch(ctx context.Context, code string) (<-chan game.Room, error) {
	initial, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	ch := make(chan game.Room, 8)
	go func() {
		defer close(ch)

		send(ch, initial)
		last := initial.Version

		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				v, err := s.version(ctx, code)
				if errors.Is(err, ErrRoomNotFound) {
					return
				}
				if err != nil {
					s.logger.Warn("room poll failed", "room", code, "error", err)
					continue
				}
				if v <= last {
					continue
				}
				room, err := s.Get(ctx, code)
				if errors.Is(err, ErrRoomNotFound) {
					return
				}
				if err != nil {
					s.logger.Warn("room poll read failed", "room", code, "error", err)
					continue
				}
				last = room.Version
				send(ch, room)
			}
		}
	}()
	return ch, nil
}

func (s *SQLiteStore) version(ctx context.Context, code string) (int64, error) {
	var v int64
	err := s.db.QueryRowContext(ctx,
		`SELECT version FROM rooms WHERE code = ?`, code,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrRoomNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading version: %v", ErrUnavailable, err)
	}
	return v, nil
}
