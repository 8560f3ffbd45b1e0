package server

import (
	"net/http"
	"time"

	"github.com/codecollab/backend/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is the closed set of events a connection may send. Exactly
// one section is non-nil.
type ClientMessage struct {
	BaseMessage
	CreateRoom *CreateRoom `json:"create_room,omitempty"`
	Join       *Join       `json:"join,omitempty"`
	Code       *CodeChange `json:"code_change,omitempty"`
	client     *Client     `json:"-"`
}

type CreateRoom struct {
	RoomId string `json:"room_id"`
}

type Join struct {
	RoomId   string `json:"room_id"`
	Username string `json:"username"`
}

type CodeChange struct {
	RoomId   string `json:"room_id"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

type ServerMessage struct {
	BaseMessage
	Response   *Response   `json:"response,omitempty"`
	CodeUpdate *CodeUpdate `json:"code_update,omitempty"`
	UserList   *UserList   `json:"user_list,omitempty"`
	SkipClient *Client     `json:"-"`
}

type Response struct {
	ResponseCode int            `json:"response_code"`
	Error        string         `json:"error,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

type CodeUpdate struct {
	RoomId   string `json:"room_id,omitempty"`
	Language string `json:"language"`
	Code     string `json:"code"`
}

// UserList is the presence view: the connections online right now plus the
// full persisted roster.
type UserList struct {
	RoomId      string             `json:"room_id"`
	ActiveUsers []types.ActiveUser `json:"active_users"`
	AllUsers    []types.RoomUser   `json:"all_users"`
}

func NoErrOK(id int, data map[string]any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

// RoomJoined acknowledges a successful join to the joining connection alone.
func RoomJoined(id int, roomId, username string) *ServerMessage {
	return NoErrOK(id, map[string]any{
		"room_id":  roomId,
		"username": username,
	})
}

func ErrRoomNotFound(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusNotFound,
			Error:        "room not found",
		},
	}
}

func ErrRoomExists(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusConflict,
			Error:        "room already exists",
		},
	}
}

func ErrInternalError(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusInternalServerError,
			Error:        "internal server error",
		},
	}
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusServiceUnavailable,
			Error:        "service unavailable",
		},
	}
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusBadRequest,
			Error:        "invalid message format",
		},
	}

	if id > 0 {
		msg.Id = id
	}
	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
