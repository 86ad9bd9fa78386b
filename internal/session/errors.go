package session

import "errors"

var (
	ErrNameRequired      = errors.New("player name is required")
	ErrInvalidRoomCode   = errors.New("room code must be six digits")
	ErrInvalidMaxPlayers = errors.New("max players out of range")
	ErrSessionClosed     = errors.New("session is closed")
	ErrUnknownSession    = errors.New("unknown session token")
)
