/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/ransomnotes/internal/game"
	"github.com/Seednode/ransomnotes/internal/hub"
)

type pushed struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dial(t *testing.T, base, gameID, playerID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(base, "http") + "/api/games/" + gameID + "/ws?player_id=" + playerID
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })

	return conn
}

// next reads pushes until one of type typ arrives.
func next(t *testing.T, conn *websocket.Conn, typ string) pushed {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg pushed
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == typ {
			return msg
		}
	}
}

func TestSocketReceivesUpdates(t *testing.T) {
	srv := newTestServer(t, testConfig())

	var created joinResponse
	require.Equal(t, http.StatusCreated, call(t, http.MethodPost, srv.URL+"/api/games", map[string]any{"host_nickname": "Host"}, &created))

	conn := dial(t, srv.URL, created.GameID, created.PlayerID)
	next(t, conn, hub.TypeGameUpdate)

	var joined joinResponse
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, srv.URL+"/api/join/"+created.InviteCode, map[string]any{"nickname": "Guest"}, &joined))

	msg := next(t, conn, hub.TypeGameUpdate)
	var update struct {
		GameID string     `json:"game_id"`
		Phase  game.Phase `json:"phase"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &update))
	assert.Equal(t, created.GameID, update.GameID)
	assert.Equal(t, game.PhaseLobby, update.Phase)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "start_game"}))
	msg = next(t, conn, hub.TypeGameUpdate)
	require.NoError(t, json.Unmarshal(msg.Data, &update))
	assert.Equal(t, game.PhaseSubmission, update.Phase)
}

func TestSocketErrorsGoToSenderOnly(t *testing.T) {
	srv := newTestServer(t, testConfig())

	var created, joined joinResponse
	require.Equal(t, http.StatusCreated, call(t, http.MethodPost, srv.URL+"/api/games", map[string]any{"host_nickname": "Host"}, &created))
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, srv.URL+"/api/join/"+created.InviteCode, map[string]any{"nickname": "Guest"}, &joined))

	guest := dial(t, srv.URL, created.GameID, joined.PlayerID)
	next(t, guest, hub.TypeGameUpdate)

	require.NoError(t, guest.WriteJSON(map[string]any{"type": "start_game"}))
	msg := next(t, guest, hub.TypeError)

	var body hub.ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	assert.Equal(t, "NOT_HOST", body.Code)

	require.NoError(t, guest.WriteJSON(map[string]any{"type": "dance"}))
	msg = next(t, guest, hub.TypeError)
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	assert.Equal(t, "UNKNOWN_TYPE", body.Code)

	require.NoError(t, guest.WriteJSON(map[string]any{"type": "ping"}))
	next(t, guest, hub.TypePong)
}

func TestSocketChat(t *testing.T) {
	srv := newTestServer(t, testConfig())

	var created, joined joinResponse
	require.Equal(t, http.StatusCreated, call(t, http.MethodPost, srv.URL+"/api/games", map[string]any{"host_nickname": "Host"}, &created))
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, srv.URL+"/api/join/"+created.InviteCode, map[string]any{"nickname": "Guest"}, &joined))

	host := dial(t, srv.URL, created.GameID, created.PlayerID)
	next(t, host, hub.TypeGameUpdate)
	guest := dial(t, srv.URL, created.GameID, joined.PlayerID)

	require.NoError(t, guest.WriteJSON(map[string]any{"type": "chat", "text": "  hello there "}))

	msg := next(t, host, hub.TypeChatMessage)
	var chat struct {
		Nickname string `json:"nickname"`
		Text     string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(msg.Data, &chat))
	assert.Equal(t, "Guest", chat.Nickname)
	assert.Equal(t, "hello there", chat.Text)
}

func TestSocketRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.rateLimit = 1
	srv := newTestServer(t, cfg)

	var created joinResponse
	require.Equal(t, http.StatusCreated, call(t, http.MethodPost, srv.URL+"/api/games", map[string]any{"host_nickname": "Host"}, &created))

	conn := dial(t, srv.URL, created.GameID, created.PlayerID)
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "ping"}))

	next(t, conn, hub.TypePong)
	msg := next(t, conn, hub.TypeError)

	var body hub.ErrorData
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	assert.Equal(t, "RATE_LIMITED", body.Code)
}

func TestSocketRefusesUnknownPlayer(t *testing.T) {
	srv := newTestServer(t, testConfig())

	var created joinResponse
	require.Equal(t, http.StatusCreated, call(t, http.MethodPost, srv.URL+"/api/games", map[string]any{"host_nickname": "Host"}, &created))

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/games/" + created.GameID + "/ws?player_id=nobody"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDisconnectMarksPlayerOffline(t *testing.T) {
	srv := newTestServer(t, testConfig())

	var created, joined joinResponse
	require.Equal(t, http.StatusCreated, call(t, http.MethodPost, srv.URL+"/api/games", map[string]any{"host_nickname": "Host"}, &created))
	require.Equal(t, http.StatusOK, call(t, http.MethodPost, srv.URL+"/api/join/"+created.InviteCode, map[string]any{"nickname": "Guest"}, &joined))

	host := dial(t, srv.URL, created.GameID, created.PlayerID)
	guest := dial(t, srv.URL, created.GameID, joined.PlayerID)
	next(t, host, hub.TypeGameUpdate)

	require.NoError(t, guest.Close())

	assert.Eventually(t, func() bool {
		var view game.View
		call(t, http.MethodGet, srv.URL+"/api/games/"+created.GameID+"?player_id="+created.PlayerID, nil, &view)
		for _, p := range view.Players {
			if p.ID == joined.PlayerID {
				return !p.IsConnected
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
}
