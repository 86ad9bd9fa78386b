package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "If I Were... API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Room synchronization backend for the If I Were... party game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/questions
	getQuestions, _ := r.NewOperationContext(http.MethodGet, "/api/questions")
	getQuestions.SetSummary("Question catalog")
	getQuestions.SetDescription("Returns the static question catalog shared by all rooms.")
	getQuestions.AddRespStructure(QuestionsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getQuestions)

	// POST /api/rooms
	postRooms, _ := r.NewOperationContext(http.MethodPost, "/api/rooms")
	postRooms.SetSummary("Create room")
	postRooms.SetDescription("Creates a room with the caller as host and returns a session token.")
	postRooms.AddReqStructure(CreateRoomRequest{})
	postRooms.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postRooms.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postRooms)

	// POST /api/rooms/{code}/join
	postJoin, _ := r.NewOperationContext(http.MethodPost, "/api/rooms/{code}/join")
	postJoin.SetSummary("Join room")
	postJoin.SetDescription("Joins an existing room by its six-digit code. Returns a session token.")
	postJoin.AddReqStructure(JoinRoomRequest{})
	postJoin.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postJoin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postJoin)

	// GET /api/room/state
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/room/state")
	getState.SetSummary("Get room snapshot")
	getState.SetDescription("Returns the render snapshot for this session. Requires Bearer token.")
	getState.AddRespStructure(SnapshotResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getState)

	// POST /api/room/start
	postStart, _ := r.NewOperationContext(http.MethodPost, "/api/room/start")
	postStart.SetSummary("Start game")
	postStart.SetDescription("Host only. Moves the room into the answering phase.")
	postStart.AddRespStructure(SnapshotResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postStart.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postStart)

	// POST /api/room/answers
	postAnswers, _ := r.NewOperationContext(http.MethodPost, "/api/room/answers")
	postAnswers.SetSummary("Submit answers")
	postAnswers.SetDescription("Submits this player's own answers. All questions must be answered.")
	postAnswers.AddReqStructure(AnswersRequest{})
	postAnswers.AddRespStructure(SnapshotResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAnswers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postAnswers.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postAnswers)

	// POST /api/room/guesses
	postGuesses, _ := r.NewOperationContext(http.MethodPost, "/api/room/guesses")
	postGuesses.SetSummary("Submit guesses")
	postGuesses.SetDescription("Submits guesses for the current target. The last guess of a round publishes the reveal.")
	postGuesses.AddReqStructure(AnswersRequest{})
	postGuesses.AddRespStructure(SnapshotResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postGuesses.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postGuesses.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postGuesses)

	// POST /api/room/advance
	postAdvance, _ := r.NewOperationContext(http.MethodPost, "/api/room/advance")
	postAdvance.SetSummary("Advance round")
	postAdvance.SetDescription("Host only. Ends the revealed round; idempotent per round.")
	postAdvance.AddRespStructure(SnapshotResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAdvance.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postAdvance)

	// POST /api/room/again
	postAgain, _ := r.NewOperationContext(http.MethodPost, "/api/room/again")
	postAgain.SetSummary("Play again")
	postAgain.SetDescription("Host only. Resets the room for another game with the same players.")
	postAgain.AddRespStructure(SnapshotResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAgain.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postAgain)

	// POST /api/room/finish
	postFinish, _ := r.NewOperationContext(http.MethodPost, "/api/room/finish")
	postFinish.SetSummary("End game")
	postFinish.SetDescription("Host only. Moves the room from results to the terminal game-over state.")
	postFinish.AddRespStructure(SnapshotResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postFinish.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	_ = r.AddOperation(postFinish)

	// POST /api/room/leave
	postLeave, _ := r.NewOperationContext(http.MethodPost, "/api/room/leave")
	postLeave.SetSummary("Leave room")
	postLeave.SetDescription("Tears the session down. The host deletes the room for everyone.")
	postLeave.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	_ = r.AddOperation(postLeave)

	// GET /api/room/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/room/events")
	getEvents.SetSummary("SSE snapshot stream")
	getEvents.SetDescription("Server-Sent Events stream of render snapshots. Pass token as query parameter.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/room/ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/api/room/ws")
	getWS.SetSummary("WebSocket snapshot stream")
	getWS.SetDescription("Upgrades to a WebSocket that streams render snapshots. Pass token as query parameter.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
