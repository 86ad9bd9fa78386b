package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kelesetlogelo-tech/if-i-were-game/internal/game"
	"github.com/kelesetlogelo-tech/if-i-were-game/internal/roomstore"
)

// createAttempts bounds room-code regeneration on a collision. At ~1e-6
// collision probability per six-digit code this effectively never exhausts.
const createAttempts = 5

// Manager resolves session tokens to live controllers and owns the
// create/join entry points.
type Manager struct {
	ctx    context.Context
	store  roomstore.Store
	logger *slog.Logger
	qs     []game.Question

	mu       sync.RWMutex
	sessions map[string]*Controller
}

func NewManager(ctx context.Context, store roomstore.Store, logger *slog.Logger) *Manager {
	return &Manager{
		ctx:      ctx,
		store:    store,
		logger:   logger,
		qs:       game.Questions(),
		sessions: make(map[string]*Controller),
	}
}

// CreateRoom generates a fresh room code, persists the initial document with
// the creator as sole player and host, and returns the host's controller.
// Code collisions are detected by the store and retried with a new code.
func (m *Manager) CreateRoom(ctx context.Context, hostName string, maxPlayers int) (*Controller, error) {
	hostName = strings.TrimSpace(hostName)
	if hostName == "" {
		return nil, ErrNameRequired
	}
	if maxPlayers < game.MinPlayers || maxPlayers > game.MaxPlayersLimit {
		return nil, ErrInvalidMaxPlayers
	}

	var room game.Room
	for attempt := 0; ; attempt++ {
		code, err := newRoomCode()
		if err != nil {
			return nil, err
		}
		room = game.NewRoom(code, hostName, maxPlayers)
		err = m.store.Create(ctx, code, room)
		if err == nil {
			break
		}
		if errors.Is(err, roomstore.ErrRoomExists) && attempt < createAttempts-1 {
			m.logger.Info("room code collision, regenerating", "code", code)
			continue
		}
		return nil, err
	}
	room.Version = 1

	ctrl, err := m.newController(room, hostName, true)
	if err != nil {
		return nil, err
	}
	m.logger.Info("room created",
		"room", room.Code, "host", hostName, "max_players", maxPlayers)
	return ctrl, nil
}

// JoinRoom appends the player to the room inside one atomic update, so two
// simultaneous joiners can never both take the last slot.
func (m *Manager) JoinRoom(ctx context.Context, code, playerName string) (*Controller, error) {
	playerName = strings.TrimSpace(playerName)
	if playerName == "" {
		return nil, ErrNameRequired
	}
	if !validRoomCode(code) {
		return nil, ErrInvalidRoomCode
	}

	room, err := m.store.Update(ctx, code, func(r *game.Room) error {
		return game.Join(r, playerName)
	})
	if err != nil {
		return nil, err
	}

	ctrl, err := m.newController(room, playerName, false)
	if err != nil {
		return nil, err
	}
	m.logger.Info("player joined",
		"room", code, "player", playerName, "players", len(room.Players))
	return ctrl, nil
}

// Get resolves a session token.
func (m *Manager) Get(token string) (*Controller, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ctrl, ok := m.sessions[token]
	if !ok {
		return nil, ErrUnknownSession
	}
	return ctrl, nil
}

// Close cancels every live session's watch. Rooms are left in the store.
func (m *Manager) Close() {
	m.mu.RLock()
	ctrls := make([]*Controller, 0, len(m.sessions))
	for _, c := range m.sessions {
		ctrls = append(ctrls, c)
	}
	m.mu.RUnlock()

	for _, c := range ctrls {
		c.cancelWatch()
	}
}

func (m *Manager) newController(room game.Room, playerName string, isHost bool) (*Controller, error) {
	watchCtx, cancel := context.WithCancel(m.ctx)
	c := &Controller{
		store:       m.store,
		logger:      m.logger,
		qs:          m.qs,
		token:       uuid.NewString(),
		playerName:  playerName,
		isHost:      isHost,
		roomCode:    room.Code,
		cancelWatch: cancel,
		onClose:     m.remove,
		snap:        project(room, playerName, isHost),
		lastVersion: room.Version,
		subs:        make(map[chan Snapshot]struct{}),
	}

	ch, err := m.store.Watch(watchCtx, room.Code)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("watching room %s: %w", room.Code, err)
	}

	m.mu.Lock()
	m.sessions[c.token] = c
	m.mu.Unlock()

	go c.run(ch)
	return c, nil
}

func (m *Manager) remove(token string) {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
}

// newRoomCode draws six random decimal digits (no leading zero).
func newRoomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generating room code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}

func validRoomCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
