package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/teris-io/shortid"

	"github.com/codecollab/backend/internal/database"
	"github.com/codecollab/backend/internal/executor"
	"github.com/codecollab/backend/internal/server"
	"github.com/codecollab/backend/internal/stats"
	"github.com/codecollab/backend/internal/types"
)

type CreateRoomRequest struct {
	RoomId string `json:"room_id"`
}

type ExecuteRequest struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

type ExecuteResponse struct {
	Output string `json:"output"`
}

func (s *CollabApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

func (s *CollabApp) createRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	roomId := req.RoomId
	if roomId == "" {
		var err error
		roomId, err = shortid.Generate()
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	room, err := s.db.CreateRoom(r.Context(), roomId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, database.ErrDuplicateRoom) {
			errResp = NewConflictError("room already exists")
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.Room{
		RoomId:     room.RoomId,
		Users:      []types.RoomUser{},
		CreatedAt:  room.CreatedAt,
		LastActive: room.LastActive,
	})
}

func (s *CollabApp) getRoom(w http.ResponseWriter, r *http.Request) {
	roomId := r.URL.Query().Get("room_id")
	if roomId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.db.GetRoom(r.Context(), roomId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, database.ErrRoomNotFound) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	users := make([]types.RoomUser, len(room.Users))
	for i, u := range room.Users {
		users[i] = types.RoomUser{Username: u.Username, LastSeen: u.LastSeen}
	}

	s.writeJson(w, http.StatusOK, types.Room{
		RoomId:     room.RoomId,
		Users:      users,
		Code:       room.Code,
		CreatedAt:  room.CreatedAt,
		LastActive: room.LastActive,
	})
}

// executeCode proxies a (language, source) pair to the remote execution
// service and responds with a single output string.
func (s *CollabApp) executeCode(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.Language == "" || req.Code == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.stats.Incr(stats.Executions)

	output, err := s.executor.Execute(r.Context(), req.Language, req.Code)
	if err != nil {
		s.log.Printf("execute %q: %v", req.Language, err)
		var errResp *ApiError
		switch {
		case errors.Is(err, executor.ErrUnsupportedLanguage):
			errResp = NewUnsupportedLanguageError(req.Language)
		case errors.Is(err, executor.ErrExecutionTimeout):
			errResp = NewExecutionTimeoutError(err)
		default:
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, ExecuteResponse{Output: output})
}

func (s *CollabApp) serveWs(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("upgrade:", err)
		return
	}

	client := server.NewClient(uuid.NewString(), conn, s.cs, s.log)
	s.cs.RegisterChan <- client

	go client.Write()
	go client.Read()
}

func (s *CollabApp) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.allowedOrigins) == 0 {
		return true
	}

	for _, allowed := range s.allowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
