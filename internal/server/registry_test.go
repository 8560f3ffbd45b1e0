package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_connectionRegistry(t *testing.T) {
	cr := newConnectionRegistry()
	assert.Zero(t, cr.len(), "expected a new registry to be empty")

	c1 := &Client{connId: "conn-1"}
	c2 := &Client{connId: "conn-2"}

	cr.register(c1, "alice")
	cr.register(c2, "bob")
	assert.Equal(t, 2, cr.len(), "expected two entries after two registrations")

	active := cr.activeUsers()
	assert.Len(t, active, 2, "expected two active users")
	usernames := map[string]string{}
	for _, u := range active {
		usernames[u.ConnectionId] = u.Username
	}
	assert.Equal(t, "alice", usernames["conn-1"], "expected conn-1 to be bound to alice")
	assert.Equal(t, "bob", usernames["conn-2"], "expected conn-2 to be bound to bob")

	username, ok := cr.unregister("conn-1")
	assert.True(t, ok, "expected unregister of a known connection to succeed")
	assert.Equal(t, "alice", username, "expected the removed username to be returned")
	assert.Equal(t, 1, cr.len(), "expected one entry after unregistering")

	username, ok = cr.unregister("conn-1")
	assert.False(t, ok, "expected unregister of an unknown connection to be a no-op")
	assert.Empty(t, username, "expected no username for an unknown connection")
}

func Test_connectionRegistry_replacesOnRejoin(t *testing.T) {
	cr := newConnectionRegistry()
	c := &Client{connId: "conn-1"}

	cr.register(c, "alice")
	cr.register(c, "alice_42")

	assert.Equal(t, 1, cr.len(), "expected a re-registration to replace, not duplicate")
	assert.Equal(t, "alice_42", cr.activeUsers()[0].Username, "expected the latest username to win")
}
