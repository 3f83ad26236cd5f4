package idgen

import "crypto/rand"

const (
	roomIDChars  = "abcdefghijklmnopqrstuvwxyz0123456789"
	roomIDLength = 8
)

// NewRoomID returns a short lower-case room code suitable for sharing in a
// link or QR code. Collisions are possible and handled by the caller.
func NewRoomID() (string, error) {
	b := make([]byte, roomIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = roomIDChars[b[i]%byte(len(roomIDChars))]
	}
	return string(b), nil
}
