package websocket_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adwski/matchroom/backend/model"
	"github.com/adwski/matchroom/backend/router"
	wsServer "github.com/adwski/matchroom/backend/server/websocket"
	"github.com/adwski/matchroom/backend/service"
	"github.com/adwski/matchroom/backend/storage/memory"
	sw "github.com/adwski/matchroom/backend/switch"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readTimeout = 2 * time.Second

func newTestServer(t *testing.T) (*httptest.Server, *memory.MemStore) {
	t.Helper()

	logger := zerolog.Nop()
	store := memory.NewMemStore()
	switchboard := sw.NewSwitch(&logger)
	svc := service.NewService(service.Config{
		RoomStore: store,
		Groups:    switchboard,
		Events:    router.NewRouter(router.Config{Transport: switchboard, Logger: &logger}),
		Logger:    &logger,
	})
	srv := wsServer.NewServer(wsServer.Config{
		Logger:         &logger,
		SessionHandler: svc,
	})

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts, store
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/socket"
	conn, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://elsewhere.example"}})
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, ack uint64, data any) {
	t.Helper()

	msg := map[string]any{"event": event}
	if ack != 0 {
		msg["ack"] = ack
	}
	if data != nil {
		msg["data"] = data
	}
	require.NoError(t, conn.WriteJSON(msg))
}

func read(t *testing.T, conn *websocket.Conn) model.Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(readTimeout)))
	var msg model.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServer_MatchAndRelay(t *testing.T) {
	ts, store := newTestServer(t)
	alice := dial(t, ts)
	bob := dial(t, ts)

	send(t, alice, model.CommandSetUsername, 0, "alice")
	send(t, alice, model.CommandCreateRoom, 1, nil)
	msg := read(t, alice)
	require.Equal(t, model.EventAck, msg.Event)
	require.NotNil(t, msg.Ack)
	assert.Equal(t, uint64(1), *msg.Ack)
	var roomID string
	require.NoError(t, json.Unmarshal(msg.Data, &roomID))
	require.NotEmpty(t, roomID)

	send(t, bob, model.CommandUsername, 0, "bob")
	send(t, bob, model.CommandJoinRoom, 2, map[string]string{"roomId": roomID})
	msg = read(t, bob)
	require.Equal(t, model.EventAck, msg.Event)
	var room model.Room
	require.NoError(t, json.Unmarshal(msg.Data, &room))
	assert.Equal(t, roomID, room.ID)
	require.Len(t, room.Participants, 2)
	assert.Equal(t, "alice", room.Participants[0].DisplayName)
	assert.Equal(t, "bob", room.Participants[1].DisplayName)

	msg = read(t, alice)
	assert.Equal(t, model.EventOpponentJoined, msg.Event)
	require.NoError(t, json.Unmarshal(msg.Data, &room))
	assert.Len(t, room.Participants, 2)

	send(t, alice, model.CommandMove, 0, map[string]any{
		"room": roomID,
		"move": map[string]string{"from": "e2", "to": "e4"},
	})
	msg = read(t, bob)
	assert.Equal(t, model.EventMove, msg.Event)
	assert.JSONEq(t, `{"from":"e2","to":"e4"}`, string(msg.Data))

	require.NoError(t, bob.Close())
	msg = read(t, alice)
	assert.Equal(t, model.EventPlayerDisconnected, msg.Event)
	var gone model.Participant
	require.NoError(t, json.Unmarshal(msg.Data, &gone))
	assert.Equal(t, "bob", gone.DisplayName)
	assert.Equal(t, 1, store.Len())
}

func TestServer_JoinErrorsAreReplies(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, model.CommandJoinRoom, 5, map[string]string{"roomId": "nope"})
	msg := read(t, conn)
	require.Equal(t, model.EventAck, msg.Event)
	assert.Equal(t, uint64(5), *msg.Ack)
	assert.JSONEq(t, `{"error":true,"message":"room does not exist"}`, string(msg.Data))
}

func TestServer_MalformedFramesKeepConnection(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	send(t, conn, "unknown", 1, nil)
	send(t, conn, model.CommandCreateRoom, 2, nil)

	msg := read(t, conn)
	require.NotNil(t, msg.Ack)
	assert.Equal(t, uint64(2), *msg.Ack)
}

func TestServer_CloseRoom(t *testing.T) {
	ts, store := newTestServer(t)
	host := dial(t, ts)
	guest := dial(t, ts)

	send(t, host, model.CommandCreateRoom, 1, nil)
	var roomID string
	require.NoError(t, json.Unmarshal(read(t, host).Data, &roomID))

	send(t, guest, model.CommandJoinRoom, 1, map[string]string{"roomId": roomID})
	read(t, guest)
	read(t, host)

	send(t, guest, model.CommandCloseRoom, 0, map[string]string{"roomId": roomID})
	msg := read(t, host)
	assert.Equal(t, model.EventCloseRoom, msg.Event)
	assert.JSONEq(t, `{"roomId":"`+roomID+`"}`, string(msg.Data))

	send(t, guest, model.CommandJoinRoom, 2, map[string]string{"roomId": roomID})
	msg = read(t, guest)
	assert.JSONEq(t, `{"error":true,"message":"room does not exist"}`, string(msg.Data))
	assert.Equal(t, 0, store.Len())
}

func TestServer_SoleMemberDisconnectRemovesRoom(t *testing.T) {
	ts, store := newTestServer(t)
	conn := dial(t, ts)

	send(t, conn, model.CommandCreateRoom, 1, nil)
	read(t, conn)
	require.Equal(t, 1, store.Len())

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return store.Len() == 0
	}, readTimeout, 10*time.Millisecond)
}

func TestServer_PlainHTTPIsRejected(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/socket")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
