package server

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/codecollab/backend/internal/database"
	"github.com/codecollab/backend/internal/stats"
)

type CollabServer struct {
	log            *log.Logger
	db             database.CollabRepository
	stats          stats.StatsProvider
	clients        map[*Client]struct{}
	clientsLock    sync.Mutex
	joinChan       chan *ClientMessage
	createRoomChan chan *ClientMessage
	RegisterChan   chan *Client
	DeregisterChan chan *Client
	unloadRoomChan chan string
	rooms          map[string]*Room
	stop           chan struct{}
	done           chan struct{}
}

func NewCollabServer(logger *log.Logger, db database.CollabRepository, sp stats.StatsProvider) (*CollabServer, error) {
	cs := &CollabServer{
		log:            logger,
		db:             db,
		stats:          sp,
		clients:        make(map[*Client]struct{}),
		joinChan:       make(chan *ClientMessage, 256),
		createRoomChan: make(chan *ClientMessage, 256),
		RegisterChan:   make(chan *Client),
		DeregisterChan: make(chan *Client),
		unloadRoomChan: make(chan string, 32),
		rooms:          make(map[string]*Room),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}

	sp.RegisterMetric(stats.ActiveConnections)
	sp.RegisterMetric(stats.LoadedRooms)

	return cs, nil
}

func (cs *CollabServer) Run() {
	for {
		select {
		case msg := <-cs.createRoomChan:
			cs.handleCreateRoom(msg)
		case msg := <-cs.joinChan:
			cs.handleJoin(msg)
		case client := <-cs.RegisterChan:
			cs.log.Printf("adding connection %q", client.connId)
			cs.addClient(client)
			cs.stats.Incr(stats.ActiveConnections)
		case client := <-cs.DeregisterChan:
			cs.log.Printf("removing connection %q", client.connId)
			cs.removeClient(client)
			cs.stats.Decr(stats.ActiveConnections)
		case roomId := <-cs.unloadRoomChan:
			cs.unloadRoom(roomId)
		case <-cs.stop:
			cs.log.Println("shutting down rooms")
			for _, r := range cs.rooms {
				cs.log.Printf("shutting down room %q", r.roomId)
				done := make(chan string)
				r.exit <- exitReq{done: done}
				<-done
			}

			close(cs.done)
			return
		}
	}
}

func (cs *CollabServer) handleCreateRoom(msg *ClientMessage) {
	if _, err := cs.db.CreateRoom(context.Background(), msg.CreateRoom.RoomId); err != nil {
		cs.log.Printf("CreateRoom %q: %v", msg.CreateRoom.RoomId, err)
		if errors.Is(err, database.ErrDuplicateRoom) {
			msg.client.queueMessage(ErrRoomExists(msg.Id))
		} else {
			msg.client.queueMessage(ErrInternalError(msg.Id))
		}
		return
	}

	cs.log.Printf("room %q created", msg.CreateRoom.RoomId)
	msg.client.queueMessage(NoErrOK(msg.Id, map[string]any{"room_id": msg.CreateRoom.RoomId}))
}

func (cs *CollabServer) handleJoin(msg *ClientMessage) {
	if room, ok := cs.rooms[msg.Join.RoomId]; ok {
		select {
		case room.joinChan <- msg:
		default:
			cs.log.Printf("join channel full on room %q", room.roomId)
			msg.client.queueMessage(ErrServiceUnavailable(msg.Id))
		}
		return
	}

	// a join never creates a room implicitly
	dbRoom, err := cs.db.GetRoom(context.Background(), msg.Join.RoomId)
	if err != nil {
		if errors.Is(err, database.ErrRoomNotFound) {
			msg.client.queueMessage(ErrRoomNotFound(msg.Id))
		} else {
			cs.log.Printf("GetRoom %q: %v", msg.Join.RoomId, err)
			msg.client.queueMessage(ErrInternalError(msg.Id))
		}
		return
	}

	room := cs.loadRoom(dbRoom)
	room.joinChan <- msg
	go room.start()
}

func (cs *CollabServer) loadRoom(dbRoom database.Room) *Room {
	room := &Room{
		roomId:    dbRoom.RoomId,
		users:     dbRoom.Users,
		cs:        cs,
		registry:  newConnectionRegistry(),
		cache:     newCodeCache(),
		joinChan:  make(chan *ClientMessage, 256),
		codeChan:  make(chan *ClientMessage, 256),
		leaveChan: make(chan *leaveReq, 256),
		exit:      make(chan exitReq),
		log:       cs.log,
	}

	cs.rooms[room.roomId] = room
	cs.stats.Incr(stats.LoadedRooms)
	return room
}

func (cs *CollabServer) unloadRoom(roomId string) {
	r, ok := cs.rooms[roomId]
	if !ok {
		return
	}

	delete(cs.rooms, roomId)
	cs.stats.Decr(stats.LoadedRooms)

	done := make(chan string)
	r.exit <- exitReq{done: done}
	<-done
	cs.log.Printf("unloaded room %q", roomId)
}

func (cs *CollabServer) addClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	cs.clients[c] = struct{}{}
}

func (cs *CollabServer) removeClient(c *Client) {
	cs.clientsLock.Lock()
	defer cs.clientsLock.Unlock()
	delete(cs.clients, c)
}

func (cs *CollabServer) Shutdown(ctx context.Context) error {
	cs.log.Println("received shutdown signal")

	cs.clientsLock.Lock()
	for c := range cs.clients {
		c.stopClient()
	}
	cs.clientsLock.Unlock()

	close(cs.stop)

	select {
	case <-cs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
