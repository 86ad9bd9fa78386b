package game

import "errors"

var (
	ErrRoomFull          = errors.New("room is full")
	ErrNameTaken         = errors.New("name already taken")
	ErrGameStarted       = errors.New("game already started")
	ErrNotHost           = errors.New("only the host may do this")
	ErrNotInRoom         = errors.New("player is not in this room")
	ErrNotEnoughPlayers  = errors.New("not enough players")
	ErrWrongPhase        = errors.New("operation not valid in current phase")
	ErrAlreadyAnswered   = errors.New("answers already submitted")
	ErrAlreadyGuessed    = errors.New("guesses already submitted")
	ErrTargetCannotGuess = errors.New("target cannot guess own answers")
	ErrIncompleteAnswers = errors.New("all questions must be answered")
)
