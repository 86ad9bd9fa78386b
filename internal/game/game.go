// Package game defines the shared Room document and the pure state machine
// that operates on it. All functions mutate a Room in place and are meant to
// run inside a roomstore.Update so that cross-client writes stay atomic.
package game

import "time"

// Phase is the coarse-grained stage of a room's lifecycle. It is the single
// source of truth for every client's view; transitions are monotonic except
// for the explicit play-again reset.
type Phase string

const (
	PhaseWaitingRoom Phase = "waiting-room"
	PhaseAnswering   Phase = "answering"
	PhaseGuessing    Phase = "guessing"
	PhaseResults     Phase = "results"
	PhaseGameOver    Phase = "game-over"
)

// RevealDuration is how long a round's reveal overlay stays on screen before
// the host auto-advances to the next target.
const RevealDuration = 5 * time.Second

// MinPlayers is the floor for starting a game; MaxPlayersLimit caps room size.
const (
	MinPlayers      = 2
	MaxPlayersLimit = 8
)

type Player struct {
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
}

// Reveal is the transient, timed display of one round's correct answers and
// score deltas. Present only between "everyone guessed" and the next advance.
type Reveal struct {
	Target  string            `json:"target"`
	Answers map[string]string `json:"answers"`
	Scores  map[string]int    `json:"scores"`
	Until   int64             `json:"until"` // unix milliseconds
}

// Answers maps question ID to the selected option text.
type Answers map[string]string

// Room is the sole shared document for one game session, keyed by its
// six-digit code. Every joined client reads and writes it through the store.
type Room struct {
	Code          string             `json:"roomCode"`
	MaxPlayers    int                `json:"maxPlayers"`
	Players       []Player           `json:"players"`
	Phase         Phase              `json:"phase"`
	PlayerAnswers map[string]Answers `json:"playerAnswers"`
	// Guesses is target name -> guesser name -> answers. It grows
	// monotonically during the guessing phase and resets when guessing starts.
	Guesses       map[string]map[string]Answers `json:"guesses"`
	CurrentTarget int                           `json:"currentTarget"`
	Scores        map[string]int                `json:"scores"`
	Reveal        *Reveal                       `json:"reveal"`
	GameStarted   bool                          `json:"gameStarted"`
	// Version counts successful store writes. The store bumps it; clients use
	// it to detect changes when polling and to discard stale notifications.
	Version int64 `json:"version"`
}

// NewRoom builds the initial document with the creator as sole player and host.
func NewRoom(code, hostName string, maxPlayers int) Room {
	return Room{
		Code:          code,
		MaxPlayers:    maxPlayers,
		Players:       []Player{{Name: hostName, IsHost: true}},
		Phase:         PhaseWaitingRoom,
		PlayerAnswers: map[string]Answers{},
		Guesses:       map[string]map[string]Answers{},
		Scores:        map[string]int{hostName: 0},
	}
}

// Player returns the named player, if present.
func (r *Room) Player(name string) (Player, bool) {
	for _, p := range r.Players {
		if p.Name == name {
			return p, true
		}
	}
	return Player{}, false
}

// Host returns the room's host. Exactly one player is the host by invariant.
func (r *Room) Host() (Player, bool) {
	for _, p := range r.Players {
		if p.IsHost {
			return p, true
		}
	}
	return Player{}, false
}

// TargetName returns the name of the player whose answers are currently being
// guessed.
func (r *Room) TargetName() string {
	if r.CurrentTarget < 0 || r.CurrentTarget >= len(r.Players) {
		return ""
	}
	return r.Players[r.CurrentTarget].Name
}

func (r *Room) isHost(name string) bool {
	p, ok := r.Player(name)
	return ok && p.IsHost
}
