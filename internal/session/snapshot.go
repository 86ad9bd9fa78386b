package session

import "github.com/kelesetlogelo-tech/if-i-were-game/internal/game"

// Snapshot is the render-ready view handed to the presentation layer: the
// shared Room document plus this client's local-only identity. The local
// fields are merged in at this projection boundary only and never written
// back into the shared document.
type Snapshot struct {
	game.Room
	PlayerName string `json:"playerName"`
	IsHost     bool   `json:"isHost"`
	// Winners is populated once the room reaches results; every player tied
	// at the maximum score is a winner.
	Winners []string `json:"winners,omitempty"`
}

func project(room game.Room, playerName string, isHost bool) Snapshot {
	snap := Snapshot{Room: room, PlayerName: playerName, IsHost: isHost}
	if room.Phase == game.PhaseResults || room.Phase == game.PhaseGameOver {
		snap.Winners = game.Winners(&room)
	}
	return snap
}
