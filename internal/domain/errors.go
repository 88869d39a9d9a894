package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrNoDisplay    = errors.New("object has no display metadata")
	ErrWSDisconnect = errors.New("websocket disconnected")
)
