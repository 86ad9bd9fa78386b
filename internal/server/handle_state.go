package server

import (
	"net/http"

	"github.com/kelesetlogelo-tech/if-i-were-game/internal/game"
)

func handleState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, SnapshotResponse{
			Snapshot: sessionFrom(r).Snapshot(),
		})
	}
}

type QuestionsResponse struct {
	Questions []game.Question `json:"questions"`
}

func handleQuestions() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, QuestionsResponse{Questions: game.Questions()})
	}
}
