package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kelesetlogelo-tech/if-i-were-game/internal/game"
	"github.com/kelesetlogelo-tech/if-i-were-game/internal/roomstore"
	"github.com/kelesetlogelo-tech/if-i-were-game/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps game/store/session errors onto HTTP statuses so the
// presentation layer can show them as user-facing messages.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, roomstore.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, "room not found")
	case errors.Is(err, roomstore.ErrRoomExists):
		writeError(w, http.StatusConflict, "room already exists")
	case errors.Is(err, roomstore.ErrTransient):
		writeError(w, http.StatusServiceUnavailable, "temporary conflict, try again")
	case errors.Is(err, game.ErrRoomFull),
		errors.Is(err, game.ErrNameTaken),
		errors.Is(err, game.ErrGameStarted),
		errors.Is(err, game.ErrWrongPhase),
		errors.Is(err, game.ErrAlreadyAnswered),
		errors.Is(err, game.ErrAlreadyGuessed),
		errors.Is(err, game.ErrTargetCannotGuess),
		errors.Is(err, game.ErrNotEnoughPlayers):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrNotHost):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, game.ErrIncompleteAnswers),
		errors.Is(err, game.ErrNotInRoom),
		errors.Is(err, session.ErrNameRequired),
		errors.Is(err, session.ErrInvalidRoomCode),
		errors.Is(err, session.ErrInvalidMaxPlayers):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrUnknownSession),
		errors.Is(err, session.ErrSessionClosed):
		writeError(w, http.StatusUnauthorized, "invalid or expired session")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
