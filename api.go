/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/ransomnotes/internal/game"
	"github.com/Seednode/ransomnotes/internal/registry"
)

const maxBodyBytes = 64 << 10

type createRequest struct {
	HostNickname string          `json:"host_nickname"`
	Config       json.RawMessage `json:"config"`
}

type joinRequest struct {
	Nickname string `json:"nickname"`
	PlayerID string `json:"player_id"`
}

type joinResponse struct {
	GameID     string      `json:"game_id"`
	InviteCode string      `json:"invite_code"`
	PlayerID   string      `json:"player_id"`
	Player     game.Player `json:"player"`
	State      game.View   `json:"state"`
}

func newJoinResponse(j registry.Joined) joinResponse {
	return joinResponse{
		GameID:     j.GameID,
		InviteCode: j.InviteCode,
		PlayerID:   j.Player.ID,
		Player:     j.Player,
		State:      j.View,
	}
}

// actionRequest carries the fields of every per-game action; each action
// reads the ones it needs.
type actionRequest struct {
	PlayerID       string   `json:"player_id"`
	TilesUsed      []string `json:"tiles_used"`
	WinnerPlayerID string   `json:"winner_player_id"`
	Vote           *bool    `json:"vote"`
	Tiles          []string `json:"tiles"`
	TargetPlayerID string   `json:"target_player_id"`
}

type action func(reg *registry.Registry, gameID string, req actionRequest) error

// decodeBody decodes an optional JSON body into v. An empty body is fine.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrBadRequest, err)
}

func serveCreateGame(cfg *Config, reg *registry.Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		var req createRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(cfg, w, err)
			return
		}

		var gc *game.Config
		if len(req.Config) > 0 && string(req.Config) != "null" {
			c := cfg.gameDefaults()
			if err := json.Unmarshal(req.Config, &c); err != nil {
				writeError(cfg, w, fmt.Errorf("%w: %v", ErrBadRequest, err))
				return
			}
			gc = &c
		}

		joined, err := reg.Create(req.HostNickname, gc)
		if err != nil {
			writeError(cfg, w, err)
			return
		}

		written := writeJSON(cfg, w, http.StatusCreated, newJoinResponse(joined))

		logServe(cfg, "Create game "+joined.GameID, written, r, startTime)
	}
}

func serveJoinGame(cfg *Config, reg *registry.Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		var req joinRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(cfg, w, err)
			return
		}

		joined, err := reg.Join(p.ByName("code"), req.Nickname, req.PlayerID)
		if err != nil {
			writeError(cfg, w, err)
			return
		}

		written := writeJSON(cfg, w, http.StatusOK, newJoinResponse(joined))

		logServe(cfg, "Join game "+joined.GameID, written, r, startTime)
	}
}

func serveGameState(cfg *Config, reg *registry.Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		playerID := r.URL.Query().Get("player_id")
		if playerID == "" {
			writeError(cfg, w, ErrMissingParam)
			return
		}

		view, err := reg.View(p.ByName("gameid"), playerID)
		if err != nil {
			writeError(cfg, w, err)
			return
		}

		written := writeJSON(cfg, w, http.StatusOK, view)

		logServe(cfg, "Game state", written, r, startTime)
	}
}

// serveAction runs one game action and answers with the caller's view of the
// game afterwards.
func serveAction(cfg *Config, reg *registry.Registry, name string, act action) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()
		gameID := p.ByName("gameid")

		var req actionRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(cfg, w, err)
			return
		}

		if req.PlayerID == "" {
			req.PlayerID = r.URL.Query().Get("player_id")
		}
		if req.PlayerID == "" {
			writeError(cfg, w, ErrMissingParam)
			return
		}

		if err := act(reg, gameID, req); err != nil {
			cfg.log.Debug().Err(err).Str("game", gameID).Str("action", name).Msg("action rejected")
			writeError(cfg, w, err)
			return
		}

		view, err := reg.View(gameID, req.PlayerID)
		if err != nil {
			writeError(cfg, w, err)
			return
		}

		written := writeJSON(cfg, w, http.StatusOK, view)

		logServe(cfg, name, written, r, startTime)
	}
}

func registerAPI(cfg *Config, reg *registry.Registry, mux *httprouter.Router) {
	api := cfg.prefix + "/api"

	mux.GET(api+"/health", serveAPIHealth(cfg, reg))

	mux.POST(api+"/games", serveCreateGame(cfg, reg))

	mux.POST(api+"/join/:code", serveJoinGame(cfg, reg))

	mux.GET(api+"/join/:code/qr", serveInviteQR(cfg, reg))

	mux.GET(api+"/games/:gameid", serveGameState(cfg, reg))

	mux.GET(api+"/games/:gameid/ws", serveSocket(cfg, reg))

	mux.POST(api+"/games/:gameid/start", serveAction(cfg, reg, "Start game",
		func(reg *registry.Registry, gameID string, req actionRequest) error {
			return reg.Start(gameID, req.PlayerID)
		}))

	mux.POST(api+"/games/:gameid/advance", serveAction(cfg, reg, "Advance round",
		func(reg *registry.Registry, gameID string, req actionRequest) error {
			return reg.Advance(gameID, req.PlayerID)
		}))

	mux.POST(api+"/games/:gameid/restart", serveAction(cfg, reg, "Restart game",
		func(reg *registry.Registry, gameID string, req actionRequest) error {
			return reg.Restart(gameID, req.PlayerID)
		}))

	mux.POST(api+"/games/:gameid/bots", serveAction(cfg, reg, "Add bot",
		func(reg *registry.Registry, gameID string, req actionRequest) error {
			_, err := reg.AddBot(gameID, req.PlayerID)
			return err
		}))

	mux.POST(api+"/games/:gameid/submit", serveAction(cfg, reg, "Submit response",
		func(reg *registry.Registry, gameID string, req actionRequest) error {
			return reg.Submit(gameID, req.PlayerID, req.TilesUsed)
		}))

	mux.POST(api+"/games/:gameid/judge", serveAction(cfg, reg, "Select winner",
		func(reg *registry.Registry, gameID string, req actionRequest) error {
			return reg.SelectWinner(gameID, req.PlayerID, req.WinnerPlayerID)
		}))

	mux.POST(api+"/games/:gameid/overrule", serveAction(cfg, reg, "Overrule vote",
		func(reg *registry.Registry, gameID string, req actionRequest) error {
			if req.Vote == nil {
				return fmt.Errorf("%w: vote is required", ErrBadRequest)
			}
			return reg.CastOverruleVote(gameID, req.PlayerID, *req.Vote)
		}))

	mux.POST(api+"/games/:gameid/vote", serveAction(cfg, reg, "Winner vote",
		func(reg *registry.Registry, gameID string, req actionRequest) error {
			return reg.CastWinnerVote(gameID, req.PlayerID, req.WinnerPlayerID)
		}))

	mux.POST(api+"/games/:gameid/tiles", serveAction(cfg, reg, "Reorder tiles",
		func(reg *registry.Registry, gameID string, req actionRequest) error {
			return reg.ReorderTiles(gameID, req.PlayerID, req.Tiles)
		}))

	mux.POST(api+"/games/:gameid/kick", serveAction(cfg, reg, "Kick player",
		func(reg *registry.Registry, gameID string, req actionRequest) error {
			return reg.Kick(gameID, req.PlayerID, req.TargetPlayerID)
		}))
}
