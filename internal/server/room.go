package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/codecollab/backend/internal/database"
	"github.com/codecollab/backend/internal/types"
)

const idleRoomTimeout = time.Second * 30

type exitReq struct {
	done chan string
}

type leaveReq struct {
	client *Client
}

// Room is the in-memory half of a persisted room: one goroutine serializes
// every mutating operation (join, edit, leave) so that the collision-check
// then upsert sequence of a join cannot interleave with another join's.
type Room struct {
	roomId   string
	cs       *CollabServer
	registry *connectionRegistry
	cache    *codeCache
	// users is the last observed persisted roster
	users     []database.RoomUser
	joinChan  chan *ClientMessage
	codeChan  chan *ClientMessage
	leaveChan chan *leaveReq
	log       *log.Logger
	// killTimer unloads the room once it has had no connections for a while
	killTimer *time.Timer
	// exit is used to signal the room to exit
	exit chan exitReq
}

func (r *Room) start() {
	r.log.Printf("starting room %q", r.roomId)
	r.killTimer = time.NewTimer(idleRoomTimeout)
	r.killTimer.Stop()

	for {
		select {
		case msg := <-r.joinChan:
			r.handleJoin(msg)
		case msg := <-r.codeChan:
			r.handleCodeChange(msg)
		case req := <-r.leaveChan:
			r.handleLeave(req)
		case <-r.killTimer.C:
			r.handleRoomTimeout()
		case req := <-r.exit:
			r.handleRoomExit(req)
			return
		}
	}
}

// resolveUsername picks the name a joining connection is registered under.
// An exact roster match is a returning user and keeps its name. Otherwise
// any roster name starting with the requested one forces a random numeric
// suffix. The prefix check is deliberately kept as-is, not widened to
// substring matching.
func resolveUsername(users []database.RoomUser, requested string) string {
	for _, u := range users {
		if u.Username == requested {
			return requested
		}
	}

	for _, u := range users {
		if strings.HasPrefix(u.Username, requested) {
			return fmt.Sprintf("%s_%d", requested, rand.IntN(1000))
		}
	}

	return requested
}

func (r *Room) handleJoin(msg *ClientMessage) {
	// stop the kill timer since we have a new connection
	r.killTimer.Stop()
	c := msg.client
	ctx := context.Background()

	dbRoom, err := r.cs.db.GetRoom(ctx, r.roomId)
	if err != nil {
		r.log.Printf("GetRoom %q: %v", r.roomId, err)
		if errors.Is(err, database.ErrRoomNotFound) {
			c.queueMessage(ErrRoomNotFound(msg.Id))
		} else {
			c.queueMessage(ErrInternalError(msg.Id))
		}
		r.resetKillTimerIfIdle()
		return
	}

	finalUsername := resolveUsername(dbRoom.Users, msg.Join.Username)

	updated, err := r.cs.db.UpsertUser(ctx, r.roomId, finalUsername)
	if err != nil {
		r.log.Printf("UpsertUser %q in %q: %v", finalUsername, r.roomId, err)
		c.queueMessage(ErrInternalError(msg.Id))
		r.resetKillTimerIfIdle()
		return
	}
	r.users = updated.Users

	r.registry.register(c, finalUsername)
	c.addRoom(r)

	// replay the room's current code to the joining connection only
	r.cache.seed(dbRoom.Code)
	for language, text := range r.cache.entries() {
		c.queueMessage(&ServerMessage{
			BaseMessage: BaseMessage{Timestamp: Now()},
			CodeUpdate:  &CodeUpdate{RoomId: r.roomId, Language: language, Code: text},
		})
	}

	r.broadcastUserList()

	c.queueMessage(RoomJoined(msg.Id, r.roomId, finalUsername))
	r.log.Printf("%q joined room %q", finalUsername, r.roomId)
}

func (r *Room) handleCodeChange(msg *ClientMessage) {
	language, text := msg.Code.Language, msg.Code.Code

	r.cache.set(language, text)

	// live edits favor availability: a failed write is logged, not surfaced
	if err := r.cs.db.SetCode(context.Background(), r.roomId, language, text); err != nil {
		r.log.Printf("SetCode %q in %q: %v", language, r.roomId, err)
	}

	r.broadcast(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		CodeUpdate:  &CodeUpdate{RoomId: r.roomId, Language: language, Code: text},
		SkipClient:  msg.client,
	})
}

func (r *Room) handleLeave(req *leaveReq) {
	c := req.client
	username, ok := r.registry.unregister(c.connId)
	c.delRoom(r.roomId)

	if ok {
		r.log.Printf("%q left room %q", username, r.roomId)

		// the roster entry stays; only its lastSeen moves
		if err := r.cs.db.TouchUser(context.Background(), r.roomId, username); err != nil {
			r.log.Printf("TouchUser %q in %q: %v", username, r.roomId, err)
		}

		if dbRoom, err := r.cs.db.GetRoom(context.Background(), r.roomId); err != nil {
			r.log.Printf("GetRoom %q: %v", r.roomId, err)
		} else {
			r.users = dbRoom.Users
		}

		r.broadcastUserList()
	}

	r.resetKillTimerIfIdle()
}

func (r *Room) handleRoomTimeout() {
	r.log.Printf("room %q idle, unloading", r.roomId)
	select {
	case r.cs.unloadRoomChan <- r.roomId:
	default:
		// server busy, try again after the next idle period
		r.killTimer.Reset(idleRoomTimeout)
	}
}

func (r *Room) handleRoomExit(req exitReq) {
	r.log.Printf("room %q is exiting", r.roomId)

	// joins that raced with the unload get a retryable error
	for drained := false; !drained; {
		select {
		case msg := <-r.joinChan:
			msg.client.queueMessage(ErrServiceUnavailable(msg.Id))
		default:
			drained = true
		}
	}

	for _, entry := range r.registry.entries {
		entry.client.delRoom(r.roomId)
	}

	if req.done != nil {
		req.done <- r.roomId
	}
}

func (r *Room) resetKillTimerIfIdle() {
	if r.registry.len() == 0 {
		r.log.Printf("no connections in %q, starting kill timer", r.roomId)
		r.killTimer.Reset(idleRoomTimeout)
	}
}

// broadcastUserList sends the presence view, active connections plus the
// full persisted roster, to every connection in the room.
func (r *Room) broadcastUserList() {
	allUsers := make([]types.RoomUser, len(r.users))
	for i, u := range r.users {
		allUsers[i] = types.RoomUser{Username: u.Username, LastSeen: u.LastSeen}
	}

	r.broadcast(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		UserList: &UserList{
			RoomId:      r.roomId,
			ActiveUsers: r.registry.activeUsers(),
			AllUsers:    allUsers,
		},
	})
}

func (r *Room) broadcast(msg *ServerMessage) {
	for _, entry := range r.registry.entries {
		if entry.client == msg.SkipClient {
			continue
		}

		entry.client.queueMessage(msg)
	}
}
