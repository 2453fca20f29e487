/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Seednode/ransomnotes/internal/game"
	"github.com/Seednode/ransomnotes/internal/hub"
	"github.com/Seednode/ransomnotes/internal/registry"
)

const (
	sendBuffer     = 16
	writeWait      = 10 * time.Second
	maxMessageSize = 8 << 10
)

var (
	errClientClosed = errors.New("client closed")
	errClientSlow   = errors.New("client send buffer full")

	errUnknownType = &game.Error{Kind: game.KindPreconditionFailed, Code: "UNKNOWN_TYPE", Message: "unknown message type"}
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// inbound is any message a client may send. Fields are read per type.
type inbound struct {
	Type           string   `json:"type"`
	Text           string   `json:"text"`
	TilesUsed      []string `json:"tiles_used"`
	WinnerPlayerID string   `json:"winner_player_id"`
	Vote           *bool    `json:"vote"`
	Tiles          []string `json:"tiles"`
	TargetPlayerID string   `json:"target_player_id"`
}

// client is one websocket. Sends are queued and written by writePump; a full
// queue fails the send, and the hub then drops the client.
type client struct {
	conn    *websocket.Conn
	send    chan hub.Message
	done    chan struct{}
	once    sync.Once
	limiter *rate.Limiter

	gameID   string
	playerID string
	log      zerolog.Logger
}

func (c *client) Send(msg hub.Message) error {
	select {
	case <-c.done:
		return errClientClosed
	default:
	}

	select {
	case c.send <- msg:
		return nil
	default:
		return errClientSlow
	}
}

// Close asks writePump to flush what is queued and hang up.
func (c *client) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *client) writePump(heartbeat time.Duration) {
	ticker := time.NewTicker(heartbeat)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			for {
				select {
				case msg := <-c.send:
					if err := c.write(msg); err != nil {
						return
					}
				default:
					_ = c.conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
						time.Now().Add(writeWait))
					return
				}
			}
		}
	}
}

func (c *client) write(msg hub.Message) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *client) readPump(reg *registry.Registry, heartbeat time.Duration) {
	pongWait := 2 * heartbeat

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Err(err).Msg("socket closed")
			}
			return
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		if !c.limiter.Allow() {
			_ = c.Send(hub.ErrorMessage("RATE_LIMITED", "too many messages, slow down"))
			continue
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = c.Send(hub.ErrorMessage(ErrBadRequest.Code, ErrBadRequest.Message))
			continue
		}

		if err := c.handle(reg, msg); err != nil {
			c.log.Debug().Err(err).Str("type", msg.Type).Msg("action rejected")
			_ = c.Send(hub.ErrorMessage(game.CodeOf(err), err.Error()))
		}
	}
}

func (c *client) handle(reg *registry.Registry, msg inbound) error {
	g, p := c.gameID, c.playerID

	switch msg.Type {
	case "ping":
		return c.Send(hub.Message{Type: hub.TypePong})
	case "chat":
		return reg.Chat(g, p, msg.Text)
	case "start_game":
		return reg.Start(g, p)
	case "submit_response":
		return reg.Submit(g, p, msg.TilesUsed)
	case "select_winner":
		return reg.SelectWinner(g, p, msg.WinnerPlayerID)
	case "cast_overrule_vote":
		if msg.Vote == nil {
			return ErrBadRequest
		}
		return reg.CastOverruleVote(g, p, *msg.Vote)
	case "cast_winner_vote":
		return reg.CastWinnerVote(g, p, msg.WinnerPlayerID)
	case "advance_round":
		return reg.Advance(g, p)
	case "restart_game":
		return reg.Restart(g, p)
	case "add_bot":
		_, err := reg.AddBot(g, p)
		return err
	case "reorder_tiles":
		return reg.ReorderTiles(g, p, msg.Tiles)
	case "kick":
		return reg.Kick(g, p, msg.TargetPlayerID)
	default:
		return errUnknownType
	}
}

func serveSocket(cfg *Config, reg *registry.Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		gameID := p.ByName("gameid")
		playerID := r.URL.Query().Get("player_id")
		if playerID == "" {
			writeError(cfg, w, ErrMissingParam)
			return
		}

		// Refuse before upgrading so the caller gets a proper status.
		if _, err := reg.View(gameID, playerID); err != nil {
			writeError(cfg, w, err)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			cfg.log.Debug().Err(err).Msg("upgrade failed")
			return
		}

		c := &client{
			conn:     conn,
			send:     make(chan hub.Message, sendBuffer),
			done:     make(chan struct{}),
			limiter:  rate.NewLimiter(rate.Limit(cfg.rateLimit), max(1, int(cfg.rateLimit))),
			gameID:   gameID,
			playerID: playerID,
			log:      cfg.log.With().Str("game", gameID).Str("player", playerID).Logger(),
		}

		sub, err := reg.Subscribe(gameID, playerID, c)
		if err != nil {
			_ = conn.WriteJSON(hub.ErrorMessage(game.CodeOf(err), err.Error()))
			_ = conn.Close()
			return
		}

		cfg.log.Info().Msgf("SERVE: Socket for game %s to %s", gameID, realIP(r))

		go c.writePump(cfg.heartbeat)

		c.readPump(reg, cfg.heartbeat)

		reg.Disconnect(sub)
		_ = c.Close()
	}
}
