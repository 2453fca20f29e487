/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"net/url"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/Seednode/ransomnotes/internal/registry"
)

const qrSize = 320

// joinURL is the address players scan to join a game, derived from the
// request so it works behind a proxy.
func joinURL(cfg *Config, r *http.Request, code string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     cfg.prefix + "/",
		RawQuery: url.Values{"join": {code}}.Encode(),
	}
	return u.String()
}

func serveInviteQR(cfg *Config, reg *registry.Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		code := p.ByName("code")
		if _, err := reg.ByInviteCode(code); err != nil {
			writeError(cfg, w, err)
			return
		}

		png, err := qrcode.Encode(joinURL(cfg, r, code), qrcode.Medium, qrSize)
		if err != nil {
			cfg.log.Error().Err(err).Msg("qr generation failed")
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		securityHeaders(cfg, w)

		written, err := w.Write(png)
		if err != nil {
			return
		}

		logServe(cfg, "Invite QR code", written, r, startTime)
	}
}
