/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package registry owns every live game. It serializes calls into each game
// session, tells the hub about every change and evicts idle games.
package registry

import (
	"context"
	"crypto/rand"
	mrand "math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Seednode/ransomnotes/internal/game"
	"github.com/Seednode/ransomnotes/internal/hub"
	"github.com/Seednode/ransomnotes/internal/prompts"
)

const (
	inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	inviteLength   = 6
	inviteRetries  = 32
)

// Options configures a Registry. Zero values get defaults.
type Options struct {
	// Defaults applies to games created without their own config.
	Defaults game.Config
	Words    []string
	Prompts  func(rng *mrand.Rand) prompts.Source
	NewRand  func() *mrand.Rand
	NewCode  func() string
	Now      func() time.Time
	Log      zerolog.Logger

	// Brain, when set, makes bot answers and judgments.
	Brain      Brain
	BotTimeout time.Duration
}

type entry struct {
	mu         sync.Mutex
	session    *game.Session
	lastActive time.Time
	botsBusy   bool
}

type Registry struct {
	mu    sync.RWMutex
	games map[string]*entry
	codes map[string]string

	hub  *hub.Hub
	opts Options
	log  zerolog.Logger
}

// Update is the payload of a game_update push. Clients refetch their own
// view when they see one.
type Update struct {
	GameID string     `json:"game_id"`
	Phase  game.Phase `json:"phase"`
}

// Joined is returned to whoever creates or joins a game.
type Joined struct {
	GameID     string      `json:"game_id"`
	InviteCode string      `json:"invite_code"`
	Player     game.Player `json:"player"`
	View       game.View   `json:"state"`
}

func New(h *hub.Hub, opts Options) *Registry {
	if opts.Defaults == (game.Config{}) {
		opts.Defaults = game.DefaultConfig()
	}
	if opts.NewRand == nil {
		opts.NewRand = func() *mrand.Rand {
			return mrand.New(mrand.NewPCG(mrand.Uint64(), mrand.Uint64()))
		}
	}
	if opts.NewCode == nil {
		opts.NewCode = newInviteCode
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BotTimeout <= 0 {
		opts.BotTimeout = 30 * time.Second
	}

	return &Registry{
		games: make(map[string]*entry),
		codes: make(map[string]string),
		hub:   h,
		opts:  opts,
		log:   opts.Log,
	}
}

// newInviteCode draws from an alphabet of 32 symbols, so every byte maps
// without bias.
func newInviteCode() string {
	buf := make([]byte, inviteLength)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	out := make([]byte, inviteLength)
	for i := range out {
		out[i] = inviteAlphabet[int(buf[i])%len(inviteAlphabet)]
	}
	return string(out)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Create starts a new game in the lobby with its host seated. A nil cfg uses
// the registry defaults.
func (r *Registry) Create(hostNickname string, cfg *game.Config) (Joined, error) {
	c := r.opts.Defaults
	if cfg != nil {
		c = *cfg
	}

	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()

	code := ""
	for range inviteRetries {
		candidate := normalizeCode(r.opts.NewCode())
		if _, taken := r.codes[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		r.log.Warn().Msg("invite codes exhausted")
		return Joined{}, game.ErrInviteCodeExhausted
	}

	session, host, err := game.NewSession(id, code, c, hostNickname, game.Options{
		Words:    r.opts.Words,
		Prompts:  r.opts.Prompts,
		Rand:     r.opts.NewRand(),
		Now:      r.opts.Now,
		Log:      r.log.With().Str("game", id).Logger(),
		HoldBots: r.opts.Brain != nil,
	})
	if err != nil {
		return Joined{}, err
	}

	r.games[id] = &entry{session: session, lastActive: r.opts.Now()}
	r.codes[code] = id

	view, _ := session.View(host.ID)

	r.log.Info().Str("game", id).Str("code", code).Str("host", host.Nickname).Msg("game created")

	return Joined{GameID: id, InviteCode: code, Player: host, View: view}, nil
}

// Join seats a player in the game behind an invite code. A playerID already
// known to that game reconnects instead, in any phase.
func (r *Registry) Join(code, nickname, playerID string) (Joined, error) {
	gameID, err := r.ByInviteCode(code)
	if err != nil {
		return Joined{}, err
	}

	var out Joined
	err = r.Do(gameID, func(s *game.Session) error {
		var (
			p   game.Player
			err error
		)

		if _, known := s.Player(playerID); playerID != "" && known {
			p, err = s.Rejoin(playerID)
		} else {
			p, err = s.Join(nickname)
		}
		if err != nil {
			return err
		}

		view, err := s.View(p.ID)
		if err != nil {
			return err
		}

		out = Joined{GameID: s.ID(), InviteCode: s.InviteCode(), Player: p, View: view}
		return nil
	})

	return out, err
}

// ByInviteCode resolves an invite code, ignoring case, to a game id.
func (r *Registry) ByInviteCode(code string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.codes[normalizeCode(code)]
	if !ok {
		return "", game.ErrInviteCodeNotFound
	}
	return id, nil
}

// Lookup reports whether a game exists.
func (r *Registry) Lookup(gameID string) error {
	_, err := r.entry(gameID)
	return err
}

// Len is the number of live games.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.games)
}

func (r *Registry) entry(gameID string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.games[gameID]
	r.mu.RUnlock()

	if !ok {
		return nil, game.ErrGameNotFound
	}
	return e, nil
}

// Do runs one mutation against a game while holding that game's lock. When
// fn succeeds, every connection of the game is sent a game_update before Do
// returns. The lock is released before anything is sent. Bots driven by a
// Brain are woken afterwards.
func (r *Registry) Do(gameID string, fn func(*game.Session) error) error {
	e, err := r.entry(gameID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	err = fn(e.session)
	e.lastActive = r.opts.Now()
	phase := e.session.Phase()
	e.mu.Unlock()

	if err != nil {
		return err
	}

	r.hub.Broadcast(gameID, hub.Message{
		Type: hub.TypeGameUpdate,
		Data: Update{GameID: gameID, Phase: phase},
	})

	r.wakeBots(gameID, e)

	return nil
}

// Read runs fn against a game under its lock without notifying anyone.
func (r *Registry) Read(gameID string, fn func(*game.Session) error) error {
	e, err := r.entry(gameID)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return fn(e.session)
}

// Reap evicts games idle since before cutoff that have no live connections,
// and returns their ids.
func (r *Registry) Reap(cutoff time.Time) []string {
	var reaped []string

	r.mu.Lock()
	for id, e := range r.games {
		e.mu.Lock()
		idle := e.lastActive.Before(cutoff)
		code := e.session.InviteCode()
		e.mu.Unlock()

		if !idle || r.hub.Count(id) > 0 {
			continue
		}

		delete(r.games, id)
		delete(r.codes, code)
		reaped = append(reaped, id)
	}
	r.mu.Unlock()

	for _, id := range reaped {
		r.hub.CloseGame(id)
		r.log.Info().Str("game", id).Msg("idle game removed")
	}

	return reaped
}

// RunReaper evicts games idle for longer than timeout until ctx is done.
// A timeout of zero or less disables eviction.
func (r *Registry) RunReaper(ctx context.Context, timeout time.Duration) {
	if timeout <= 0 {
		return
	}

	ticker := time.NewTicker(timeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reap(r.opts.Now().Add(-timeout))
		}
	}
}
