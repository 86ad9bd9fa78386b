package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kelesetlogelo-tech/if-i-were-game/internal/session"
)

type CreateRoomRequest struct {
	HostName   string `json:"hostName"`
	MaxPlayers int    `json:"maxPlayers"`
}

type JoinRoomRequest struct {
	PlayerName string `json:"playerName"`
}

// SessionResponse is returned by create and join: the session token plus the
// first render snapshot.
type SessionResponse struct {
	Token    string           `json:"token"`
	Snapshot session.Snapshot `json:"snapshot"`
}

func handleCreateRoom(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRoomRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ctrl, err := sessions.CreateRoom(r.Context(), req.HostName, req.MaxPlayers)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, SessionResponse{
			Token:    ctrl.Token(),
			Snapshot: ctrl.Snapshot(),
		})
	}
}

func handleJoinRoom(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req JoinRoomRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ctrl, err := sessions.JoinRoom(r.Context(), chi.URLParam(r, "code"), req.PlayerName)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, SessionResponse{
			Token:    ctrl.Token(),
			Snapshot: ctrl.Snapshot(),
		})
	}
}
