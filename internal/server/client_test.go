package server

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codecollab/backend/internal/database"
	"github.com/codecollab/backend/internal/stats"
)

func Test_dispatch(t *testing.T) {
	t.Run("create-room without an id is rejected before any side effect", func(t *testing.T) {
		cs := newTestCollabServer(t, &database.MockCollabRepository{}, &stats.MockStatsUpdater{})
		c := newTestClient(t, "conn-1")
		c.server = cs

		c.dispatch(&ClientMessage{BaseMessage: BaseMessage{Id: 1}, CreateRoom: &CreateRoom{}})

		msg := receiveMessage(t, c)
		assert.Equal(t, 400, msg.Response.ResponseCode, "expected an invalid message response")
		assert.Empty(t, cs.createRoomChan, "expected nothing forwarded to the server")
	})

	t.Run("join with missing fields is rejected", func(t *testing.T) {
		cs := newTestCollabServer(t, &database.MockCollabRepository{}, &stats.MockStatsUpdater{})
		c := newTestClient(t, "conn-1")
		c.server = cs

		c.dispatch(&ClientMessage{Join: &Join{RoomId: "test-room"}})

		msg := receiveMessage(t, c)
		assert.Equal(t, 400, msg.Response.ResponseCode, "expected an invalid message response")
		assert.Empty(t, cs.joinChan, "expected nothing forwarded to the server")
	})

	t.Run("valid join is forwarded to the server", func(t *testing.T) {
		cs := newTestCollabServer(t, &database.MockCollabRepository{}, &stats.MockStatsUpdater{})
		c := newTestClient(t, "conn-1")
		c.server = cs

		msg := &ClientMessage{Join: &Join{RoomId: "test-room", Username: "alice"}}
		c.dispatch(msg)

		select {
		case forwarded := <-cs.joinChan:
			assert.Equal(t, msg, forwarded, "expected the join to be forwarded")
		default:
			t.Error("join was not forwarded to the server")
		}
	})

	t.Run("code change for a room the connection never joined", func(t *testing.T) {
		cs := newTestCollabServer(t, &database.MockCollabRepository{}, &stats.MockStatsUpdater{})
		c := newTestClient(t, "conn-1")
		c.server = cs

		c.dispatch(&ClientMessage{Code: &CodeChange{RoomId: "elsewhere", Language: "python", Code: "print(1)"}})

		msg := receiveMessage(t, c)
		assert.Equal(t, 404, msg.Response.ResponseCode, "expected room not found")
	})

	t.Run("code change is routed to the joined room", func(t *testing.T) {
		cs := newTestCollabServer(t, &database.MockCollabRepository{}, &stats.MockStatsUpdater{})
		c := newTestClient(t, "conn-1")
		c.server = cs

		room := newTestRoom(t, cs)
		c.addRoom(room)

		msg := &ClientMessage{Code: &CodeChange{RoomId: "test-room", Language: "python", Code: "print(1)"}}
		c.dispatch(msg)

		select {
		case forwarded := <-room.codeChan:
			assert.Equal(t, msg, forwarded, "expected the edit to be routed to the room")
		default:
			t.Error("edit was not routed to the room")
		}
	})

	t.Run("message with no sections is invalid", func(t *testing.T) {
		cs := newTestCollabServer(t, &database.MockCollabRepository{}, &stats.MockStatsUpdater{})
		c := newTestClient(t, "conn-1")
		c.server = cs

		c.dispatch(&ClientMessage{BaseMessage: BaseMessage{Id: 9}})

		msg := receiveMessage(t, c)
		assert.Equal(t, 400, msg.Response.ResponseCode, "expected an invalid message response")
	})
}

func Test_queueMessage(t *testing.T) {
	c := newTestClient(t, "conn-1")
	c.send = make(chan *ServerMessage, 1)

	assert.True(t, c.queueMessage(&ServerMessage{}), "expected queueing to succeed with capacity")
	assert.False(t, c.queueMessage(&ServerMessage{}), "expected queueing to fail when the channel is full")
}

func Test_addRoom_getRoom_delRoom(t *testing.T) {
	c := newTestClient(t, "conn-1")
	r := &Room{roomId: "test-room"}

	c.addRoom(r)
	assert.Equal(t, r, c.getRoom("test-room"), "expected the room to be retrievable")

	c.delRoom("test-room")
	assert.Nil(t, c.getRoom("test-room"), "expected the room to be removed")
}
