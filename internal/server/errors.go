package server

import "errors"

var (
	ErrBoardNotFound    = errors.New("board not found")
	ErrBoardInactive    = errors.New("board is no longer active")
	ErrBoardFull        = errors.New("board is full")
	ErrUserBanned       = errors.New("user is banned from this board")
	ErrUserTimedOut     = errors.New("user is timed out")
	ErrCapacityExceeded = errors.New("object limit reached")
	ErrServerBusy       = errors.New("server busy")
)
