/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package hub fans messages out to the live connections of each game.
package hub

import (
	"sync"

	"github.com/rs/zerolog"
)

const (
	TypeGameUpdate  = "game_update"
	TypeChatMessage = "chat_message"
	TypeError       = "error"
	TypePong        = "pong"
)

// Message is the envelope every server push is wrapped in.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// ErrorData is the payload of an error push.
type ErrorData struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func ErrorMessage(code, text string) Message {
	return Message{Type: TypeError, Data: ErrorData{Code: code, Error: text}}
}

// Conn is one client connection. Send must not block for long; Close must be
// safe to call more than once.
type Conn interface {
	Send(Message) error
	Close() error
}

// Subscription ties a connection to a player in a game.
type Subscription struct {
	GameID   string
	PlayerID string
	Conn     Conn
}

type Hub struct {
	mu    sync.RWMutex
	games map[string]map[Conn]*Subscription
	log   zerolog.Logger
}

func New(log zerolog.Logger) *Hub {
	return &Hub{
		games: make(map[string]map[Conn]*Subscription),
		log:   log,
	}
}

// Register adds conn to a game. Registering the same conn again replaces
// its subscription.
func (h *Hub) Register(gameID, playerID string, conn Conn) *Subscription {
	sub := &Subscription{GameID: gameID, PlayerID: playerID, Conn: conn}

	h.mu.Lock()
	conns, ok := h.games[gameID]
	if !ok {
		conns = make(map[Conn]*Subscription)
		h.games[gameID] = conns
	}
	conns[conn] = sub
	n := len(conns)
	h.mu.Unlock()

	h.log.Debug().Str("game", gameID).Str("player", playerID).Int("connections", n).Msg("connection registered")

	return sub
}

// Unregister removes conn from a game and reports whether it was there.
func (h *Hub) Unregister(gameID string, conn Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.removeLocked(gameID, conn)
}

func (h *Hub) removeLocked(gameID string, conn Conn) bool {
	conns, ok := h.games[gameID]
	if !ok {
		return false
	}

	if _, ok := conns[conn]; !ok {
		return false
	}

	delete(conns, conn)
	if len(conns) == 0 {
		delete(h.games, gameID)
	}

	return true
}

// Broadcast sends msg to every connection of a game and returns how many
// sends succeeded. A connection whose send fails is removed and closed.
func (h *Hub) Broadcast(gameID string, msg Message) int {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.games[gameID]))
	for _, sub := range h.games[gameID] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		if err := sub.Conn.Send(msg); err != nil {
			h.log.Debug().Err(err).Str("game", gameID).Str("player", sub.PlayerID).Msg("dropping connection")
			h.drop(sub)
			continue
		}
		delivered++
	}

	return delivered
}

// SendTo sends msg to every connection one player has open in a game.
func (h *Hub) SendTo(gameID, playerID string, msg Message) int {
	h.mu.RLock()
	var subs []*Subscription
	for _, sub := range h.games[gameID] {
		if sub.PlayerID == playerID {
			subs = append(subs, sub)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, sub := range subs {
		if err := sub.Conn.Send(msg); err != nil {
			h.drop(sub)
			continue
		}
		delivered++
	}

	return delivered
}

func (h *Hub) drop(sub *Subscription) {
	h.mu.Lock()
	removed := h.removeLocked(sub.GameID, sub.Conn)
	h.mu.Unlock()

	if removed {
		_ = sub.Conn.Close()
	}
}

// Connections counts the connections a player has open in a game.
func (h *Hub) Connections(gameID, playerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, sub := range h.games[gameID] {
		if sub.PlayerID == playerID {
			n++
		}
	}
	return n
}

// Count is the number of connections open in a game.
func (h *Hub) Count(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.games[gameID])
}

// ClosePlayer closes and forgets every connection one player has in a game.
func (h *Hub) ClosePlayer(gameID, playerID string) int {
	h.mu.Lock()
	var closing []Conn
	for conn, sub := range h.games[gameID] {
		if sub.PlayerID == playerID {
			closing = append(closing, conn)
		}
	}
	for _, conn := range closing {
		h.removeLocked(gameID, conn)
	}
	h.mu.Unlock()

	for _, conn := range closing {
		_ = conn.Close()
	}

	return len(closing)
}

// CloseGame closes and forgets every connection of a game.
func (h *Hub) CloseGame(gameID string) int {
	h.mu.Lock()
	conns := h.games[gameID]
	delete(h.games, gameID)
	h.mu.Unlock()

	for conn := range conns {
		_ = conn.Close()
	}

	return len(conns)
}
