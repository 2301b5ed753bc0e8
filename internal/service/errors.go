package service

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrTrackNotFound  = errors.New("track not found in queue")
	ErrForbidden      = errors.New("only the room host may perform this action")
	ErrValidation     = errors.New("invalid input")
	ErrRoomEnded      = errors.New("room has ended")
	ErrConflict       = errors.New("concurrent update conflict, please retry")
	ErrInternalServer = errors.New("internal server error")
)
