package rooms

import "errors"

// Precondition failures surfaced to the command surface. None of these is
// retried; each maps to a specific user-facing message.
var (
	ErrRoomNotFound  = errors.New("room not found or closed")
	ErrRoomExpired   = errors.New("room has expired")
	ErrRoomFull      = errors.New("room is full")
	ErrAlreadyMember = errors.New("already a member of this room")
	ErrNotCreator    = errors.New("only the room creator can close the room")
	ErrNotInRoom     = errors.New("not in any room")
)
