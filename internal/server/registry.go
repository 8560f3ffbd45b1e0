package server

import (
	"github.com/codecollab/backend/internal/types"
)

// connectionRegistry tracks the live connections of one room, keyed by
// connection id. It is owned by the room's event loop, rebuilt purely from
// live connections, and never persisted.
type connectionRegistry struct {
	entries map[string]*connEntry
}

type connEntry struct {
	client   *Client
	username string
}

func newConnectionRegistry() *connectionRegistry {
	return &connectionRegistry{entries: make(map[string]*connEntry)}
}

// register binds c to username, replacing any prior entry for the same
// connection id.
func (cr *connectionRegistry) register(c *Client, username string) {
	cr.entries[c.connId] = &connEntry{client: c, username: username}
}

// unregister removes the entry for connId, returning the username it was
// bound to. Unknown connection ids are a no-op.
func (cr *connectionRegistry) unregister(connId string) (string, bool) {
	entry, ok := cr.entries[connId]
	if !ok {
		return "", false
	}

	delete(cr.entries, connId)
	return entry.username, true
}

func (cr *connectionRegistry) activeUsers() []types.ActiveUser {
	users := make([]types.ActiveUser, 0, len(cr.entries))
	for id, entry := range cr.entries {
		users = append(users, types.ActiveUser{ConnectionId: id, Username: entry.username})
	}
	return users
}

func (cr *connectionRegistry) len() int {
	return len(cr.entries)
}
