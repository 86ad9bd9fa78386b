package roomstore

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kelesetlogelo-tech/if-i-were-game/internal/game"
)

// Failover serves every operation from the primary store and degrades to the
// secondary when the primary's infrastructure is down. Successful primary
// writes are mirrored into the secondary so a later degrade starts from the
// freshest copy. Degradation is per call; the primary is retried on the next
// operation.
type Failover struct {
	primary   Store
	secondary Store
	logger    *slog.Logger
}

func NewFailover(primary, secondary Store, logger *slog.Logger) *Failover {
	return &Failover{primary: primary, secondary: secondary, logger: logger}
}

func (f *Failover) Create(ctx context.Context, code string, room game.Room) error {
	err := f.primary.Create(ctx, code, room)
	if errors.Is(err, ErrUnavailable) {
		f.degraded("create", code, err)
		return f.secondary.Create(ctx, code, room)
	}
	if err != nil {
		return err
	}
	room.Code = code
	room.Version = 1
	f.mirror(ctx, room)
	return nil
}

func (f *Failover) Get(ctx context.Context, code string) (game.Room, error) {
	room, err := f.primary.Get(ctx, code)
	if errors.Is(err, ErrUnavailable) {
		f.degraded("get", code, err)
		return f.secondary.Get(ctx, code)
	}
	return room, err
}

func (f *Failover) Update(ctx context.Context, code string, fn UpdateFunc) (game.Room, error) {
	room, err := f.primary.Update(ctx, code, fn)
	if errors.Is(err, ErrUnavailable) {
		f.degraded("update", code, err)
		return f.secondary.Update(ctx, code, fn)
	}
	if err != nil {
		return room, err
	}
	f.mirror(ctx, room)
	return room, nil
}

func (f *Failover) Delete(ctx context.Context, code string) error {
	err := f.primary.Delete(ctx, code)
	if errors.Is(err, ErrUnavailable) {
		f.degraded("delete", code, err)
		return f.secondary.Delete(ctx, code)
	}
	if err != nil {
		return err
	}
	if derr := f.secondary.Delete(ctx, code); derr != nil && !errors.Is(derr, ErrRoomNotFound) {
		f.logger.Warn("deleting mirrored room failed", "room", code, "error", derr)
	}
	return nil
}

// Watch prefers the primary's push channel and falls back to the secondary's
// polling loop without surfacing an error to the caller.
func (f *Failover) Watch(ctx context.Context, code string) (<-chan game.Room, error) {
	ch, err := f.primary.Watch(ctx, code)
	if errors.Is(err, ErrUnavailable) {
		f.degraded("watch", code, err)
		return f.secondary.Watch(ctx, code)
	}
	return ch, err
}

func (f *Failover) mirror(ctx context.Context, room game.Room) {
	p, ok := f.secondary.(Putter)
	if !ok {
		return
	}
	if err := p.Put(ctx, room); err != nil {
		f.logger.Warn("mirroring room failed", "room", room.Code, "error", err)
	}
}

func (f *Failover) degraded(op, code string, err error) {
	f.logger.Warn("primary store unavailable, using fallback",
		"op", op, "room", code, "error", err)
}
