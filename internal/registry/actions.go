/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package registry

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Seednode/ransomnotes/internal/game"
	"github.com/Seednode/ransomnotes/internal/hub"
)

const maxChatRunes = 500

var ErrEmptyChat = &game.Error{
	Kind:    game.KindPreconditionFailed,
	Code:    "EMPTY_MESSAGE",
	Message: "chat message must not be empty",
}

// ChatMessage is the payload of a chat_message push.
type ChatMessage struct {
	PlayerID string    `json:"player_id"`
	Nickname string    `json:"nickname"`
	Text     string    `json:"text"`
	SentAt   time.Time `json:"sent_at"`
}

// View returns the game as playerID sees it.
func (r *Registry) View(gameID, playerID string) (game.View, error) {
	var v game.View
	err := r.Read(gameID, func(s *game.Session) error {
		var err error
		v, err = s.View(playerID)
		return err
	})
	return v, err
}

func (r *Registry) Start(gameID, by string) error {
	return r.Do(gameID, func(s *game.Session) error { return s.Start(by) })
}

func (r *Registry) Submit(gameID, playerID string, used []string) error {
	return r.Do(gameID, func(s *game.Session) error { return s.Submit(playerID, used) })
}

func (r *Registry) SelectWinner(gameID, by, winnerID string) error {
	return r.Do(gameID, func(s *game.Session) error { return s.SelectWinner(by, winnerID) })
}

func (r *Registry) CastOverruleVote(gameID, playerID string, overrule bool) error {
	return r.Do(gameID, func(s *game.Session) error { return s.CastOverruleVote(playerID, overrule) })
}

func (r *Registry) CastWinnerVote(gameID, playerID, winnerID string) error {
	return r.Do(gameID, func(s *game.Session) error { return s.CastWinnerVote(playerID, winnerID) })
}

func (r *Registry) Advance(gameID, by string) error {
	return r.Do(gameID, func(s *game.Session) error { return s.Advance(by) })
}

func (r *Registry) Restart(gameID, by string) error {
	return r.Do(gameID, func(s *game.Session) error { return s.Restart(by) })
}

func (r *Registry) AddBot(gameID, by string) (game.Player, error) {
	var p game.Player
	err := r.Do(gameID, func(s *game.Session) error {
		var err error
		p, err = s.AddBot(by)
		return err
	})
	return p, err
}

func (r *Registry) ReorderTiles(gameID, playerID string, order []string) error {
	return r.Do(gameID, func(s *game.Session) error { return s.ReorderTiles(playerID, order) })
}

func (r *Registry) Kick(gameID, by, targetID string) error {
	if err := r.Do(gameID, func(s *game.Session) error { return s.Kick(by, targetID) }); err != nil {
		return err
	}

	r.hub.SendTo(gameID, targetID, hub.ErrorMessage(game.ErrPlayerKicked.Code, game.ErrPlayerKicked.Message))
	r.hub.ClosePlayer(gameID, targetID)

	return nil
}

// Subscribe registers a live connection for a player and marks them as
// connected. The registration happens under the game's lock, so the update it
// triggers already reaches the new connection.
func (r *Registry) Subscribe(gameID, playerID string, conn hub.Conn) (*hub.Subscription, error) {
	var sub *hub.Subscription

	err := r.Do(gameID, func(s *game.Session) error {
		if _, err := s.Rejoin(playerID); err != nil {
			return err
		}
		sub = r.hub.Register(gameID, playerID, conn)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// Disconnect drops a connection. When it was the player's last one they are
// marked as disconnected, which may let a waiting round move on.
func (r *Registry) Disconnect(sub *hub.Subscription) {
	r.hub.Unregister(sub.GameID, sub.Conn)

	err := r.Do(sub.GameID, func(s *game.Session) error {
		if r.hub.Connections(sub.GameID, sub.PlayerID) > 0 {
			return nil
		}
		return s.SetConnected(sub.PlayerID, false)
	})
	if err != nil {
		r.log.Debug().Err(err).Str("game", sub.GameID).Str("player", sub.PlayerID).Msg("disconnect")
	}
}

// Chat passes a player's message to everyone in the game.
func (r *Registry) Chat(gameID, playerID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyChat
	}

	if utf8.RuneCountInString(text) > maxChatRunes {
		text = string([]rune(text)[:maxChatRunes])
	}

	msg := ChatMessage{PlayerID: playerID, Text: text, SentAt: r.opts.Now()}

	e, err := r.entry(gameID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	p, ok := e.session.Player(playerID)
	if ok {
		e.lastActive = r.opts.Now()
	}
	e.mu.Unlock()

	switch {
	case !ok:
		return game.ErrPlayerNotFound
	case p.Kicked:
		return game.ErrPlayerKicked
	}

	msg.Nickname = p.Nickname
	r.hub.Broadcast(gameID, hub.Message{Type: hub.TypeChatMessage, Data: msg})

	return nil
}
