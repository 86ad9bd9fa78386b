package server

import (
	"context"
	"net/http"

	"github.com/kelesetlogelo-tech/if-i-were-game/internal/game"
	"github.com/kelesetlogelo-tech/if-i-were-game/internal/session"
)

type AnswersRequest struct {
	// Answers maps question ID to the selected option text.
	Answers game.Answers `json:"answers"`
}

type SnapshotResponse struct {
	Snapshot session.Snapshot `json:"snapshot"`
}

func handleStart() http.HandlerFunc {
	return snapshotOp(func(ctx context.Context, c *session.Controller, _ *http.Request) (session.Snapshot, error) {
		return c.StartGame(ctx)
	})
}

func handleAnswers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnswersRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		snap, err := sessionFrom(r).SubmitAnswers(r.Context(), req.Answers)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, SnapshotResponse{Snapshot: snap})
	}
}

func handleGuesses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnswersRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		snap, err := sessionFrom(r).SubmitGuesses(r.Context(), req.Answers)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, SnapshotResponse{Snapshot: snap})
	}
}

func handleAdvance() http.HandlerFunc {
	return snapshotOp(func(ctx context.Context, c *session.Controller, _ *http.Request) (session.Snapshot, error) {
		return c.AdvanceRound(ctx)
	})
}

func handlePlayAgain() http.HandlerFunc {
	return snapshotOp(func(ctx context.Context, c *session.Controller, _ *http.Request) (session.Snapshot, error) {
		return c.PlayAgain(ctx)
	})
}

func handleFinish() http.HandlerFunc {
	return snapshotOp(func(ctx context.Context, c *session.Controller, _ *http.Request) (session.Snapshot, error) {
		return c.EndGame(ctx)
	})
}

func handleLeave() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessionFrom(r).Leave(r.Context()); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func snapshotOp(op func(context.Context, *session.Controller, *http.Request) (session.Snapshot, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := op(r.Context(), sessionFrom(r), r)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, SnapshotResponse{Snapshot: snap})
	}
}
