/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/ransomnotes/internal/content"
	"github.com/Seednode/ransomnotes/internal/hub"
	"github.com/Seednode/ransomnotes/internal/llm"
	"github.com/Seednode/ransomnotes/internal/registry"
)

const (
	logDate string        = `2006-01-02T15:04:05.000-07:00`
	timeout time.Duration = 10 * time.Second
)

func securityHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Embedder-Policy", "require-corp")
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), fullscreen=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'")

	if cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

func logServe(cfg *Config, what string, written int, r *http.Request, startTime time.Time) {
	cfg.log.Info().Msgf("SERVE: %s (%s) to %s in %s",
		what,
		humanReadableSize(written),
		realIP(r),
		time.Since(startTime).Round(time.Microsecond),
	)
}

func serveVersion(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusOK)

		written, err := w.Write([]byte("ransomnotes v" + releaseVersion + "\n"))
		if err != nil {
			errs <- err

			return
		}

		logServe(cfg, "Version page", written, r, startTime)
	}
}

func newRouter(cfg *Config, reg *registry.Registry, errs chan<- error) *httprouter.Router {
	mux := httprouter.New()

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		cfg.log.Error().Interface("panic", i).Str("path", r.URL.Path).Msg("handler panicked")

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusInternalServerError)

		io.WriteString(w, newPage("Server Error", "An error has occurred. Please try again."))
	}

	mux.GET(cfg.prefix+"/", serveHomePage(cfg))

	mux.GET(cfg.prefix+"/healthz", serveHealthCheck(cfg, errs))

	mux.GET(cfg.prefix+"/robots.txt", serveRobots(cfg, errs))

	mux.GET(cfg.prefix+"/version", serveVersion(cfg, errs))

	if cfg.profile {
		registerProfileHandlers(cfg, mux)
	}

	registerAPI(cfg, reg, mux)

	return mux
}

func ServePage(ctx context.Context, cfg *Config, args []string) error {
	var err error

	timeZone := os.Getenv("TZ")
	if timeZone != "" {
		time.Local, err = time.LoadLocation(timeZone)
		if err != nil {
			return err
		}
	}

	cfg.log.Info().Msgf("START: ransomnotes v%s", releaseVersion)

	pack, err := content.Load(cfg.content)
	if err != nil {
		return err
	}

	cfg.log.Info().Int("prompts", len(pack.Prompts)).Int("words", len(pack.Words)).Msg("content loaded")

	h := hub.New(cfg.log.With().Str("component", "hub").Logger())

	opts := registry.Options{
		Defaults:   cfg.gameDefaults(),
		Words:      pack.Words,
		Prompts:    pack.Deck,
		Log:        cfg.log.With().Str("component", "registry").Logger(),
		BotTimeout: cfg.ollamaTimeout,
	}

	if cfg.ollamaURL != "" {
		brain := llm.New(cfg.ollamaURL, cfg.ollamaModel, cfg.ollamaTimeout, cfg.log.With().Str("component", "llm").Logger())

		checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if !brain.Healthy(checkCtx) {
			cfg.log.Warn().Str("url", cfg.ollamaURL).Msg("ollama not reachable yet, bots play at random until it is")
		}
		cancel()

		opts.Brain = brain
		cfg.log.Info().Str("url", cfg.ollamaURL).Str("model", cfg.ollamaModel).Msg("bots use ollama")
	}

	reg := registry.New(h, opts)

	go reg.RunReaper(ctx, cfg.sessionTimeout)

	errs := make(chan error, 64)
	go func() {
		for err := range errs {
			cfg.log.Debug().Err(err).Msg("write failed")
		}
	}()

	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           newRouter(cfg, reg, errs),
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}

	go func() {
		var err error
		cfg.log.Info().Msgf("SERVE: Listening on %s://%s%s/", cfg.scheme(), srv.Addr, cfg.prefix)
		if cfg.tlsKey != "" && cfg.tlsCert != "" {
			err = srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			cfg.log.Error().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	return nil
}
