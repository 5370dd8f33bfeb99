package server

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traybill/traybill/internal/testutil"
)

func dialWS(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/analyze"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func wsImagePayload(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testutil.TrayImage(16, 16)))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func readMessages(t *testing.T, conn *websocket.Conn, n int) []wsMessage {
	t.Helper()
	msgs := make([]wsMessage, 0, n)
	for i := 0; i < n; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		msgs = append(msgs, msg)
	}
	return msgs
}

func TestWebSocketAnalyzeSuccess(t *testing.T) {
	s := newTestServer(doneResult(), nil)
	conn := dialWS(t, s)

	require.NoError(t, conn.WriteJSON(wsAnalyzeRequest{ImageData: wsImagePayload(t)}))

	msgs := readMessages(t, conn, 4)

	assert.Equal(t, "progress", msgs[0].Type)
	assert.Equal(t, "decoded", msgs[0].Stage)
	assert.Equal(t, "progress", msgs[1].Type)
	assert.Equal(t, "progress", msgs[2].Type)

	final := msgs[3]
	require.Equal(t, "result", final.Type)
	require.NotNil(t, final.Result)
	assert.True(t, final.Result.Success)
	assert.Equal(t, 2, final.Result.ItemsCount)
	assert.Equal(t, int64(32000), final.Result.TotalCost)
}

func TestWebSocketAnalyzeDataURLPrefix(t *testing.T) {
	s := newTestServer(doneResult(), nil)
	conn := dialWS(t, s)

	payload := "data:image/png;base64," + wsImagePayload(t)
	require.NoError(t, conn.WriteJSON(wsAnalyzeRequest{ImageData: payload}))

	msgs := readMessages(t, conn, 4)
	assert.Equal(t, "result", msgs[3].Type)
}

func TestWebSocketInvalidPayload(t *testing.T) {
	s := newTestServer(doneResult(), nil)
	conn := dialWS(t, s)

	require.NoError(t, conn.WriteJSON(wsAnalyzeRequest{ImageData: "!!!garbage!!!"}))

	msgs := readMessages(t, conn, 1)
	assert.Equal(t, "error", msgs[0].Type)
	assert.Contains(t, msgs[0].Error, "base64")
}

func TestWebSocketMultipleRequests(t *testing.T) {
	s := newTestServer(doneResult(), nil)
	conn := dialWS(t, s)

	payload := wsImagePayload(t)
	for i := 0; i < 2; i++ {
		require.NoError(t, conn.WriteJSON(wsAnalyzeRequest{ImageData: payload}))
		msgs := readMessages(t, conn, 4)
		assert.Equal(t, "result", msgs[3].Type, "request %d", i+1)
	}
}
