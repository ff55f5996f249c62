package server_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type feedResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func dialFeed(t *testing.T, ts *testServer) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestFeedSingleMessages(t *testing.T) {
	ts := newTestServer(t)
	conn := dialFeed(t, ts)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"action": "getAlbums",
		"data":   map[string]interface{}{"genre": "Jazz"},
	}))
	var resp feedResponse
	require.NoError(t, conn.ReadJSON(&resp))
	require.True(t, resp.Success)
	var albums []albumResponse
	require.NoError(t, json.Unmarshal(resp.Data, &albums))
	require.Len(t, albums, 1)
	assert.Equal(t, "Jazz", albums[0].Genre)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"action": "getAlbumByID", "data": 3}))
	require.NoError(t, conn.ReadJSON(&resp))
	require.True(t, resp.Success)
	var album albumResponse
	require.NoError(t, json.Unmarshal(resp.Data, &album))
	assert.Equal(t, "Solar Drift", album.Title)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"action": "getAlbumByID", "data": 999}))
	resp = feedResponse{}
	require.NoError(t, conn.ReadJSON(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "not found", resp.Error)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"action": "getAlbumByID", "data": "three"}))
	resp = feedResponse{}
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "invalid album ID", resp.Error)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{"action": "addAlbum"}))
	resp = feedResponse{}
	require.NoError(t, conn.ReadJSON(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "unknown action", resp.Error)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	resp = feedResponse{}
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "invalid message format", resp.Error)
}

func TestFeedBatch(t *testing.T) {
	ts := newTestServer(t)
	conn := dialFeed(t, ts)

	require.NoError(t, conn.WriteJSON([]map[string]interface{}{
		{"action": "getGenres"},
		{"action": "getAlbums"},
		{"action": "nope"},
	}))

	var batch []feedResponse
	require.NoError(t, conn.ReadJSON(&batch))
	require.Len(t, batch, 3)

	var genres []string
	require.True(t, batch[0].Success)
	require.NoError(t, json.Unmarshal(batch[0].Data, &genres))
	assert.Len(t, genres, 16)

	var albums []albumResponse
	require.True(t, batch[1].Success)
	require.NoError(t, json.Unmarshal(batch[1].Data, &albums))
	assert.Len(t, albums, 16)

	assert.False(t, batch[2].Success)
	assert.Equal(t, "unknown action", batch[2].Error)
}
