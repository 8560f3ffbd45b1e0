package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/codecollab/backend/internal/database"
	"github.com/codecollab/backend/internal/executor"
	"github.com/codecollab/backend/internal/stats"
	"github.com/codecollab/backend/internal/testutil"
)

func newTestApp(t *testing.T, db database.CollabRepository, exec executor.Executor, sp stats.StatsProvider) *CollabApp {
	return &CollabApp{
		log:        testutil.TestLogger(t),
		db:         db,
		executor:   exec,
		stats:      sp,
		signingKey: []byte("test-signing-key"),
	}
}

func Test_createRoom(t *testing.T) {
	t.Run("creates a room with the requested id", func(t *testing.T) {
		db := &database.MockCollabRepository{}
		db.On("CreateRoom", mock.Anything, "my-room").
			Return(database.Room{RoomId: "my-room", CreatedAt: time.Now(), LastActive: time.Now()}, nil)

		app := newTestApp(t, db, nil, nil)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/rooms", strings.NewReader(`{"room_id":"my-room"}`))

		app.createRoom(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code, "expected the room to be created")
		assert.Contains(t, rr.Body.String(), `"room_id":"my-room"`, "expected the room id in the body")
		db.AssertExpectations(t)
	})

	t.Run("generates an id when none is given", func(t *testing.T) {
		db := &database.MockCollabRepository{}
		db.On("CreateRoom", mock.Anything, mock.MatchedBy(func(id string) bool { return id != "" })).
			Return(database.Room{RoomId: "generated"}, nil)

		app := newTestApp(t, db, nil, nil)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/rooms", strings.NewReader(`{}`))

		app.createRoom(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code, "expected the room to be created")
		db.AssertExpectations(t)
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		db := &database.MockCollabRepository{}
		db.On("CreateRoom", mock.Anything, "taken").Return(database.Room{}, database.ErrDuplicateRoom)

		app := newTestApp(t, db, nil, nil)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/rooms", strings.NewReader(`{"room_id":"taken"}`))

		app.createRoom(rr, req)

		assert.Equal(t, http.StatusConflict, rr.Code, "expected a conflict")
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		app := newTestApp(t, &database.MockCollabRepository{}, nil, nil)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/rooms", strings.NewReader(`{`))

		app.createRoom(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code, "expected a bad request")
	})
}

func Test_getRoom(t *testing.T) {
	t.Run("returns the room", func(t *testing.T) {
		db := &database.MockCollabRepository{}
		db.On("GetRoom", mock.Anything, "my-room").Return(database.Room{
			RoomId: "my-room",
			Users:  []database.RoomUser{{Username: "alice", LastSeen: time.Now()}},
			Code:   map[string]string{"python": "print(1)"},
		}, nil)

		app := newTestApp(t, db, nil, nil)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/rooms?room_id=my-room", nil)

		app.getRoom(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "expected the room to be returned")
		assert.Contains(t, rr.Body.String(), `"alice"`, "expected the roster in the body")
		assert.Contains(t, rr.Body.String(), `"print(1)"`, "expected the code map in the body")
	})

	t.Run("missing id is a bad request", func(t *testing.T) {
		app := newTestApp(t, &database.MockCollabRepository{}, nil, nil)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/rooms", nil)

		app.getRoom(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code, "expected a bad request")
	})

	t.Run("unknown room is not found", func(t *testing.T) {
		db := &database.MockCollabRepository{}
		db.On("GetRoom", mock.Anything, "missing").Return(database.Room{}, database.ErrRoomNotFound)

		app := newTestApp(t, db, nil, nil)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/rooms?room_id=missing", nil)

		app.getRoom(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code, "expected not found")
	})
}

func Test_executeCode(t *testing.T) {
	body := `{"language":"python","code":"print(1)"}`

	t.Run("returns the program output", func(t *testing.T) {
		exec := &executor.MockExecutor{}
		exec.On("Execute", mock.Anything, "python", "print(1)").Return("1\n", nil)
		sp := &stats.MockStatsUpdater{}
		sp.On("Incr", stats.Executions).Return()

		app := newTestApp(t, nil, exec, sp)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/execute", strings.NewReader(body))

		app.executeCode(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code, "expected a success")
		assert.Contains(t, rr.Body.String(), `"output":"1\n"`, "expected the output in the body")
		sp.AssertCalled(t, "Incr", stats.Executions)
	})

	t.Run("unsupported language is a bad request", func(t *testing.T) {
		exec := &executor.MockExecutor{}
		exec.On("Execute", mock.Anything, "cobol", "print(1)").Return("", executor.ErrUnsupportedLanguage)
		sp := &stats.MockStatsUpdater{}
		sp.On("Incr", stats.Executions).Return()

		app := newTestApp(t, nil, exec, sp)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/execute",
			strings.NewReader(`{"language":"cobol","code":"print(1)"}`))

		app.executeCode(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code, "expected a bad request")
		assert.Contains(t, rr.Body.String(), "cobol", "expected the language to be named")
	})

	t.Run("polling exhaustion is a gateway timeout", func(t *testing.T) {
		exec := &executor.MockExecutor{}
		exec.On("Execute", mock.Anything, "python", "print(1)").Return("", executor.ErrExecutionTimeout)
		sp := &stats.MockStatsUpdater{}
		sp.On("Incr", stats.Executions).Return()

		app := newTestApp(t, nil, exec, sp)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/execute", strings.NewReader(body))

		app.executeCode(rr, req)

		assert.Equal(t, http.StatusGatewayTimeout, rr.Code, "expected a gateway timeout")
	})

	t.Run("remote failure is an internal error", func(t *testing.T) {
		exec := &executor.MockExecutor{}
		exec.On("Execute", mock.Anything, "python", "print(1)").Return("", assert.AnError)
		sp := &stats.MockStatsUpdater{}
		sp.On("Incr", stats.Executions).Return()

		app := newTestApp(t, nil, exec, sp)
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/execute", strings.NewReader(body))

		app.executeCode(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code, "expected an internal error")
	})

	t.Run("empty fields never reach the executor", func(t *testing.T) {
		exec := &executor.MockExecutor{}

		app := newTestApp(t, nil, exec, &stats.MockStatsUpdater{})
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/execute", strings.NewReader(`{"language":"python"}`))

		app.executeCode(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code, "expected a bad request")
		exec.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything, mock.Anything)
	})
}

func Test_checkOrigin(t *testing.T) {
	tcases := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{name: "no allow list accepts anything", origin: "http://evil.example", want: true},
		{name: "listed origin is accepted", allowed: []string{"http://localhost:3000"}, origin: "http://localhost:3000", want: true},
		{name: "unlisted origin is rejected", allowed: []string{"http://localhost:3000"}, origin: "http://evil.example", want: false},
		{name: "absent origin header is accepted", allowed: []string{"http://localhost:3000"}, want: true},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, nil, nil, nil)
			app.allowedOrigins = tc.allowed

			req := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}

			assert.Equal(t, tc.want, app.checkOrigin(req), "expected the origin check to match")
		})
	}
}
