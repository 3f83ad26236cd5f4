package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	redisc "github.com/valkgeo/EventQ/internal/redis"
)

func TestPingPeriodRefreshesViewersBeforeTTL(t *testing.T) {
	// Viewer marks are re-armed from the ping ticker. If the ticker fires
	// slower than the mark expires, live watchers drop out of the audience
	// count while still connected.
	assert.Less(t, pingPeriod, redisc.ViewerTTL)
}

func TestWatchedRooms(t *testing.T) {
	c := &Client{watched: map[string]string{
		"room1abc": FilterAll,
		"room2def": FilterPending,
	}}

	rooms := c.watchedRooms()
	assert.ElementsMatch(t, []string{"room1abc", "room2def"}, rooms)

	c.mu.Lock()
	delete(c.watched, "room1abc")
	c.mu.Unlock()
	assert.Equal(t, []string{"room2def"}, c.watchedRooms())
}
