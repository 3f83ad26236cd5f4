package rooms

import "errors"

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrNotAllowed         = errors.New("forbidden: insufficient role for this room")
	ErrIDGenerationFailed = errors.New("failed to generate unique room ID after multiple attempts")
)
