// Package session owns one player's view of a room: it joins or creates the
// room, watches the store for changes, and exposes a render snapshot plus the
// operation set the presentation layer may call. All cross-client state lives
// in the store; a controller holds only local identity and delivery plumbing.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kelesetlogelo-tech/if-i-were-game/internal/game"
	"github.com/kelesetlogelo-tech/if-i-were-game/internal/roomstore"
)

const opTimeout = 5 * time.Second

// Controller is a per-client session. Its methods may be called from any
// goroutine; the watch loop and the auto-advance timer funnel through the
// same mutex as user-triggered operations.
type Controller struct {
	store  roomstore.Store
	logger *slog.Logger
	qs     []game.Question

	token      string
	playerName string
	isHost     bool
	roomCode   string

	cancelWatch context.CancelFunc
	onClose     func(token string)

	mu           sync.Mutex
	snap         Snapshot
	lastVersion  int64
	subs         map[chan Snapshot]struct{}
	advanceKey   string
	advanceTimer *time.Timer
	closed       bool
}

// Token identifies this session to the transport layer.
func (c *Controller) Token() string { return c.token }

func (c *Controller) PlayerName() string { return c.playerName }

func (c *Controller) RoomCode() string { return c.roomCode }

// Snapshot returns the current render snapshot.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Subscribe registers for snapshot updates. The current snapshot is delivered
// immediately; the channel is closed when the session ends. The returned stop
// function unregisters the subscriber.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 16)
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	c.subs[ch] = struct{}{}
	ch <- c.snap
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
	}
}

// StartGame moves the room into the answering phase. Host only.
func (c *Controller) StartGame(ctx context.Context) (Snapshot, error) {
	return c.update(ctx, func(r *game.Room) error {
		return game.Start(r, c.playerName)
	})
}

// SubmitAnswers records this player's own answers.
func (c *Controller) SubmitAnswers(ctx context.Context, answers game.Answers) (Snapshot, error) {
	return c.update(ctx, func(r *game.Room) error {
		return game.SubmitAnswers(r, c.playerName, answers, c.qs)
	})
}

// SubmitGuesses records this player's guesses for the current target. The
// reveal, when this is the last outstanding guess, is computed inside the
// same atomic update.
func (c *Controller) SubmitGuesses(ctx context.Context, guesses game.Answers) (Snapshot, error) {
	return c.update(ctx, func(r *game.Room) error {
		return game.SubmitGuesses(r, c.playerName, guesses, c.qs, time.Now())
	})
}

// AdvanceRound ends the currently revealed round. Host only; safe to call
// concurrently with the auto-advance timer, whichever lands second no-ops.
func (c *Controller) AdvanceRound(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	target := c.snap.CurrentTarget
	c.mu.Unlock()
	return c.advance(ctx, target)
}

// PlayAgain resets the room for another game with the same roster. Host only.
func (c *Controller) PlayAgain(ctx context.Context) (Snapshot, error) {
	return c.update(ctx, func(r *game.Room) error {
		return game.Reset(r, c.playerName)
	})
}

// EndGame moves the room from results to game-over. Host only.
func (c *Controller) EndGame(ctx context.Context) (Snapshot, error) {
	return c.update(ctx, func(r *game.Room) error {
		return game.Finish(r, c.playerName)
	})
}

// Leave tears the session down. The host deletes the room on the way out,
// which closes every other player's watch as well.
func (c *Controller) Leave(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if c.isHost {
		if err := c.store.Delete(ctx, c.roomCode); err != nil {
			c.logger.Warn("deleting room on leave failed",
				"room", c.roomCode, "error", err)
		}
	}
	c.cancelWatch()
	return nil
}

func (c *Controller) update(ctx context.Context, fn roomstore.UpdateFunc) (Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Snapshot{}, ErrSessionClosed
	}
	c.mu.Unlock()

	room, err := c.store.Update(ctx, c.roomCode, fn)
	if err != nil {
		return c.Snapshot(), err
	}
	c.apply(room)
	return c.Snapshot(), nil
}

func (c *Controller) advance(ctx context.Context, target int) (Snapshot, error) {
	return c.update(ctx, func(r *game.Room) error {
		return game.Advance(r, c.playerName, target)
	})
}

// run consumes the store watch until it closes (context cancelled or room
// deleted), then tears the session down.
func (c *Controller) run(ch <-chan game.Room) {
	for room := range ch {
		c.apply(room)
	}
	c.teardown()
}

// apply folds a store notification into the local snapshot. Stale or foreign
// notifications (an old revision arriving late, or one for a room we already
// left) are discarded rather than applied.
func (c *Controller) apply(room game.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || room.Code != c.roomCode || room.Version <= c.lastVersion {
		return
	}
	c.lastVersion = room.Version
	c.snap = project(room, c.playerName, c.isHost)

	for sub := range c.subs {
		select {
		case sub <- c.snap:
		default:
			// Slow subscriber: drop the oldest buffered snapshot in favor of
			// the newest.
			select {
			case <-sub:
			default:
			}
			select {
			case sub <- c.snap:
			default:
			}
		}
	}

	if c.isHost && room.Phase == game.PhaseGuessing && room.Reveal != nil {
		c.scheduleAdvanceLocked(room)
	}
}

// scheduleAdvanceLocked arms the one-shot auto-advance timer for an active
// reveal. Only the host schedules (so N clients never race each other), and
// the (room, target, until) key makes re-entrant notifications for the same
// round a no-op.
func (c *Controller) scheduleAdvanceLocked(room game.Room) {
	key := fmt.Sprintf("%s:%d:%d", room.Code, room.CurrentTarget, room.Reveal.Until)
	if key == c.advanceKey {
		return
	}
	c.advanceKey = key
	if c.advanceTimer != nil {
		c.advanceTimer.Stop()
	}

	target := room.CurrentTarget
	delay := time.Until(time.UnixMilli(room.Reveal.Until))
	if delay < 0 {
		delay = 0
	}
	c.advanceTimer = time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		if _, err := c.advance(ctx, target); err != nil {
			c.logger.Warn("auto-advance failed",
				"room", c.roomCode, "target", target, "error", err)
		}
	})
}

func (c *Controller) teardown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.advanceTimer != nil {
		c.advanceTimer.Stop()
		c.advanceTimer = nil
	}
	for sub := range c.subs {
		close(sub)
	}
	clear(c.subs)
	c.mu.Unlock()

	c.cancelWatch()
	c.onClose(c.token)
	c.logger.Debug("session closed", "room", c.roomCode, "player", c.playerName)
}
