/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Seednode/ransomnotes/internal/game"
)

var (
	ErrBadRequest   = &game.Error{Kind: game.KindPreconditionFailed, Code: "BAD_REQUEST", Message: "malformed request body"}
	ErrMissingParam = &game.Error{Kind: game.KindPreconditionFailed, Code: "MISSING_PARAMETER", Message: "player_id is required"}
)

func newLogger(cfg *Config) zerolog.Logger {
	level := zerolog.WarnLevel
	if cfg.verbose {
		level = zerolog.InfoLevel
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: logDate,
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func statusOf(err error) int {
	switch game.KindOf(err) {
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindCapacity:
		return http.StatusConflict
	case game.KindPreconditionFailed:
		if errors.Is(err, game.ErrNotHost) || errors.Is(err, game.ErrNotJudge) {
			return http.StatusForbidden
		}
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(cfg *Config, w http.ResponseWriter, status int, v any) int {
	body, err := json.Marshal(v)
	if err != nil {
		cfg.log.Error().Err(err).Msg("encoding response")
		status = http.StatusInternalServerError
		body = []byte(`{"error":"internal error","code":"INTERNAL"}`)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	securityHeaders(cfg, w)
	w.WriteHeader(status)

	written, err := w.Write(append(body, '\n'))
	if err != nil {
		cfg.log.Debug().Err(err).Msg("writing response")
	}

	return written
}

func writeError(cfg *Config, w http.ResponseWriter, err error) int {
	status := statusOf(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		cfg.log.Error().Err(err).Msg("request failed")
		msg = "internal error"
	}

	return writeJSON(cfg, w, status, errorBody{Error: msg, Code: game.CodeOf(err)})
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
