package roomstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/kelesetlogelo-tech/if-i-were-game/internal/game"
)

// maxUpdateRetries bounds how often an optimistic transaction is retried
// before the conflict is reported as transient.
const maxUpdateRetries = 5

// RedisStore keeps each room as a JSON document under room:<code> and pushes
// the full document to room:<code>:changes after every write, so watchers get
// the same "value changed" semantics a realtime database would give them.
type RedisStore struct {
	rdb    *redis.Client
	logger *slog.Logger
}

func NewRedisStore(rdb *redis.Client, logger *slog.Logger) *RedisStore {
	return &RedisStore{rdb: rdb, logger: logger}
}

func roomKey(code string) string     { return "room:" + code }
func roomChannel(code string) string { return "room:" + code + ":changes" }

func (s *RedisStore) Create(ctx context.Context, code string, room game.Room) error {
	room.Code = code
	room.Version = 1
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, roomKey(code), data, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: redis setnx: %v", ErrUnavailable, err)
	}
	if !ok {
		return ErrRoomExists
	}
	s.publish(ctx, code, data)
	return nil
}

func (s *RedisStore) Get(ctx context.Context, code string) (game.Room, error) {
	var room game.Room
	data, err := s.rdb.Get(ctx, roomKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return room, ErrRoomNotFound
	}
	if err != nil {
		return room, fmt.Errorf("%w: redis get: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(data, &room); err != nil {
		return room, err
	}
	return room, nil
}

// Update runs fn inside a WATCH/MULTI optimistic transaction. When another
// client writes the same key between our read and our EXEC, redis fails the
// transaction and we retry against the fresh value.
func (s *RedisStore) Update(ctx context.Context, code string, fn UpdateFunc) (game.Room, error) {
	key := roomKey(code)
	var room game.Room
	var payload []byte

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrRoomNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: redis get: %v", ErrUnavailable, err)
		}
		room = game.Room{}
		if err := json.Unmarshal(data, &room); err != nil {
			return err
		}
		if err := fn(&room); err != nil {
			return err
		}
		room.Version++
		payload, err = json.Marshal(room)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := s.rdb.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug("room update lost optimistic race, retrying",
				"room", code, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return game.Room{}, err
		}
		s.publish(ctx, code, payload)
		return room, nil
	}
	return game.Room{}, fmt.Errorf("%w: room %s", ErrTransient, code)
}

func (s *RedisStore) Delete(ctx context.Context, code string) error {
	n, err := s.rdb.Del(ctx, roomKey(code)).Result()
	if err != nil {
		return fmt.Errorf("%w: redis del: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return ErrRoomNotFound
	}
	// Tombstone so watchers can close out.
	s.publish(ctx, code, []byte("null"))
	return nil
}

func (s *RedisStore) Watch(ctx context.Context, code string) (<-chan game.Room, error) {
	// Subscribe before the initial read so no revision between the two is lost.
	pubsub := s.rdb.Subscribe(ctx, roomChannel(code))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("%w: redis subscribe: %v", ErrUnavailable, err)
	}

	initial, err := s.Get(ctx, code)
	if err != nil {
		pubsub.Close()
		return nil, err
	}

	ch := make(chan game.Room, 8)
	go func() {
		defer close(ch)
		defer pubsub.Close()

		send(ch, initial)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var room game.Room
				if err := json.Unmarshal([]byte(msg.Payload), &room); err != nil {
					s.logger.Warn("dropping malformed room notification", "room", code, "error", err)
					continue
				}
				if room.Code == "" {
					// Tombstone: the room was deleted.
					return
				}
				send(ch, room)
			}
		}
	}()
	return ch, nil
}

func (s *RedisStore) publish(ctx context.Context, code string, payload []byte) {
	if err := s.rdb.Publish(ctx, roomChannel(code), payload).Err(); err != nil {
		s.logger.Warn("publishing room change failed", "room", code, "error", err)
	}
}
