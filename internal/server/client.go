package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = (pongWait * 9) / 10
	// source files are sent whole on every edit
	maxMessageSize = 64 * 1024
)

// Client is one live websocket connection. It exists only while the
// transport session is open; the connection id identifies its registry
// entries across rooms.
type Client struct {
	connId    string
	conn      *websocket.Conn
	server    *CollabServer
	log       *log.Logger
	send      chan *ServerMessage
	rooms     map[string]*Room
	roomsLock sync.RWMutex
	stop      chan struct{}
	stopOnce  sync.Once
}

func NewClient(connId string, conn *websocket.Conn, cs *CollabServer, l *log.Logger) *Client {
	return &Client{
		connId: connId,
		conn:   conn,
		server: cs,
		log:    l,
		send:   make(chan *ServerMessage, 256),
		rooms:  make(map[string]*Room),
		stop:   make(chan struct{}),
	}
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.log.Printf("write exiting for %q", c.connId)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(msg)
			if err != nil {
				c.log.Println("failed to serialize message:", err)
				continue
			}

			if !c.sendMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.sendMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.cleanup()
		c.log.Printf("read exiting for %q", c.connId)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(appData string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.log.Println("error parsing message:", err)
			c.queueMessage(ErrInvalidMessage(-1))
			continue
		}

		msg.client = c
		msg.Timestamp = Now()
		c.dispatch(&msg)
	}
}

// dispatch validates a decoded message and routes it to the server loop or
// the owning room. Invalid input is rejected before any side effect.
func (c *Client) dispatch(msg *ClientMessage) {
	switch {
	case msg.CreateRoom != nil:
		if msg.CreateRoom.RoomId == "" {
			c.queueMessage(ErrInvalidMessage(msg.Id))
			return
		}
		select {
		case c.server.createRoomChan <- msg:
		default:
			c.log.Println("createRoomChan full")
			c.queueMessage(ErrServiceUnavailable(msg.Id))
		}
	case msg.Join != nil:
		if msg.Join.RoomId == "" || msg.Join.Username == "" {
			c.queueMessage(ErrInvalidMessage(msg.Id))
			return
		}
		select {
		case c.server.joinChan <- msg:
		default:
			c.log.Println("joinChan full")
			c.queueMessage(ErrServiceUnavailable(msg.Id))
		}
	case msg.Code != nil:
		r := c.getRoom(msg.Code.RoomId)
		if r == nil {
			c.queueMessage(ErrRoomNotFound(msg.Id))
			return
		}
		select {
		case r.codeChan <- msg:
		default:
			c.log.Printf("codeChan full for room %q", r.roomId)
			c.queueMessage(ErrServiceUnavailable(msg.Id))
		}
	default:
		c.queueMessage(ErrInvalidMessage(msg.Id))
	}
}

func (c *Client) queueMessage(msg *ServerMessage) bool {
	select {
	case c.send <- msg:
	default:
		c.log.Printf("failed to send message to %q, channel is full", c.connId)
		return false
	}

	return true
}

func (c *Client) sendMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Client) cleanup() {
	c.server.DeregisterChan <- c
	c.leaveAllRooms()
	c.stopClient()
}

func (c *Client) leaveAllRooms() {
	c.roomsLock.RLock()
	defer c.roomsLock.RUnlock()

	for _, room := range c.rooms {
		room.leaveChan <- &leaveReq{client: c}
	}
}

func (c *Client) addRoom(r *Room) {
	c.roomsLock.Lock()
	defer c.roomsLock.Unlock()

	c.rooms[r.roomId] = r
}

func (c *Client) delRoom(id string) {
	c.roomsLock.Lock()
	defer c.roomsLock.Unlock()

	delete(c.rooms, id)
}

func (c *Client) getRoom(id string) *Room {
	c.roomsLock.RLock()
	defer c.roomsLock.RUnlock()

	if room, ok := c.rooms[id]; ok {
		return room
	}

	return nil
}
