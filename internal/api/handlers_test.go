package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drawboard/drawboard/internal/auth"
	"github.com/go-drawboard/drawboard/internal/config"
	"github.com/go-drawboard/drawboard/internal/database"
	"github.com/go-drawboard/drawboard/internal/server"
	"github.com/go-drawboard/drawboard/internal/stats"
	"github.com/go-drawboard/drawboard/internal/testutil"
)

func newTestApp(t *testing.T) (*DrawboardApp, *httptest.Server) {
	t.Helper()

	cfg, err := config.NewConfig("localhost:0", "", "", "dGVzdC1zaWduaW5nLWtleS10ZXN0LXNpZ25pbmcta2V5", nil)
	require.NoError(t, err)

	mux := http.NewServeMux()
	statsUpdater := stats.NewStatsUpdater(mux)
	statsUpdater.Run()
	t.Cleanup(statsUpdater.Stop)

	tokens := auth.NewTokenManager(cfg.SigningKey)
	bs := server.NewBoardServer(testutil.TestLogger(t), database.NewNopRepository(), tokens, statsUpdater)
	go bs.Run()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		bs.Shutdown(ctx)
	})

	app := NewDrawboardApp(testutil.TestLogger(t), bs, database.NewNopRepository(), cfg, mux)
	ts := httptest.NewServer(app.mux.Handler)
	t.Cleanup(ts.Close)

	return app, ts
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err, "expected a websocket message")

	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHealthEndpoints(t *testing.T) {
	_, ts := newTestApp(t)

	for _, path := range []string{"/", "/api/health"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var body StatusResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.NotEmpty(t, body.Status)
	}
}

func TestUnknownRouteReturnsJsonNotFound(t *testing.T) {
	_, ts := newTestApp(t)

	resp, err := http.Get(ts.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body ApiError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusNotFound, body.StatusCode)
}

func TestHealthRepositoryPing(t *testing.T) {
	tcases := []struct {
		name     string
		mockErr  error
		wantCode int
	}{
		{
			name:     "healthy repository",
			mockErr:  nil,
			wantCode: http.StatusOK,
		},
		{
			name:     "unreachable repository",
			mockErr:  errors.New("db error"),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &database.MockRepository{}
			repo.On("Ping").Return(tc.mockErr).Once()

			app := &DrawboardApp{log: testutil.TestLogger(t), db: repo}
			rr := httptest.NewRecorder()
			app.health(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assert.Equal(t, tc.wantCode, rr.Code)
			repo.AssertExpectations(t)
		})
	}
}

func TestCreateAndJoinBoard(t *testing.T) {
	_, ts := newTestApp(t)

	adminConn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/create"), nil)
	require.NoError(t, err)
	defer adminConn.Close()

	welcome := readMessage(t, adminConn)
	assert.Equal(t, "welcome", welcome["type"])
	assert.Equal(t, "admin", welcome["role"])
	boardId, _ := welcome["board_id"].(string)
	require.Len(t, boardId, 6)

	userConn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/join/"+boardId), nil)
	require.NoError(t, err)
	defer userConn.Close()

	userWelcome := readMessage(t, userConn)
	assert.Equal(t, "welcome", userWelcome["type"])
	assert.Equal(t, "user", userWelcome["role"])
	assert.Equal(t, boardId, userWelcome["board_id"])
	assert.NotEmpty(t, userWelcome["token"])

	joined := readMessage(t, adminConn)
	assert.Equal(t, "user_joined", joined["type"])
	assert.Equal(t, userWelcome["user_id"], joined["user_id"])

	// A drawing event from one peer reaches the other.
	require.NoError(t, userConn.WriteJSON(map[string]any{
		"type":      "stroke_start",
		"stroke_id": "s1",
		"stroke":    map[string]any{"color": "#000000", "width": 2},
	}))

	stroke := readMessage(t, adminConn)
	assert.Equal(t, "stroke_start", stroke["type"])
	assert.Equal(t, "s1", stroke["stroke_id"])
}

func TestJoinUnknownBoard(t *testing.T) {
	_, ts := newTestApp(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/join/NOSUCH"), nil)
	require.NoError(t, err)
	defer conn.Close()

	msg := readMessage(t, conn)
	assert.Equal(t, "error", msg["type"])
	assert.Contains(t, msg["message"], "Board not found")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.ClosePolicyViolation, closeErr.Code)
}

func TestTokenRejoin(t *testing.T) {
	_, ts := newTestApp(t)

	adminConn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/create"), nil)
	require.NoError(t, err)
	defer adminConn.Close()

	welcome := readMessage(t, adminConn)
	boardId, _ := welcome["board_id"].(string)

	userConn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/join/"+boardId), nil)
	require.NoError(t, err)
	userWelcome := readMessage(t, userConn)
	token, _ := userWelcome["token"].(string)
	require.NotEmpty(t, token)
	userConn.Close()

	rejoinConn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, "/ws/join/"+boardId+"?token="+token), nil)
	require.NoError(t, err)
	defer rejoinConn.Close()

	rejoinWelcome := readMessage(t, rejoinConn)
	assert.Equal(t, "welcome", rejoinWelcome["type"])
	assert.Equal(t, userWelcome["user_id"], rejoinWelcome["user_id"],
		"token must resume the same identity")
	assert.Equal(t, userWelcome["nickname"], rejoinWelcome["nickname"])
}
