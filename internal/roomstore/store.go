// Package roomstore persists the shared Room document, keyed by room code.
// The primary backend is Redis (pushes changes over pub/sub); a local SQLite
// database acts as a degraded fallback with a polling watch. Any read-decide-
// write against a room must go through Update; it is the only defense against
// concurrent clients clobbering each other.
package roomstore

import (
	"context"
	"errors"

	"github.com/kelesetlogelo-tech/if-i-were-game/internal/game"
)

var (
	// ErrRoomNotFound is returned when no document exists for a room code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrRoomExists is returned by Create on a room-code collision.
	ErrRoomExists = errors.New("room already exists")
	// ErrUnavailable wraps infrastructure failures. The failover store treats
	// it as the signal to degrade to the secondary backend.
	ErrUnavailable = errors.New("store unavailable")
	// ErrTransient is returned when an atomic update keeps losing against
	// concurrent writers after internal retries are exhausted.
	ErrTransient = errors.New("transient store conflict")
)

// UpdateFunc mutates a room inside an atomic read-modify-write. Returning an
// error aborts the update and leaves the document untouched.
type UpdateFunc func(*game.Room) error

type Store interface {
	// Create stores the initial document, failing with ErrRoomExists if a
	// document for that code is already present.
	Create(ctx context.Context, code string, room game.Room) error

	Get(ctx context.Context, code string) (game.Room, error)

	// Update applies fn as an atomic read-modify-write and returns the stored
	// result. Backends that support compare-and-swap retry internally when a
	// concurrent writer wins the race. The document version is bumped on
	// every successful write.
	Update(ctx context.Context, code string, fn UpdateFunc) (game.Room, error)

	Delete(ctx context.Context, code string) error

	// Watch delivers the current document immediately, then again on every
	// change, until ctx is cancelled or the room is deleted (the channel is
	// closed in both cases). Intermediate revisions may be skipped under
	// load; the latest one is always delivered.
	Watch(ctx context.Context, code string) (<-chan game.Room, error)
}

// Putter is implemented by backends that can overwrite a document wholesale,
// version included. The failover store uses it to mirror primary writes into
// the fallback so a later degrade starts from a warm copy.
type Putter interface {
	Put(ctx context.Context, room game.Room) error
}

// send delivers room without blocking a slow receiver: if the buffer is full
// the oldest buffered revision is dropped in favor of the newest. Callers
// must be the channel's only producer.
func send(ch chan game.Room, room game.Room) {
	select {
	case ch <- room:
	default:
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- room:
		default:
		}
	}
}
