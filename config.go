/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/ransomnotes/internal/game"
	"github.com/Seednode/ransomnotes/internal/llm"
)

type Config struct {
	bind           string
	content        string
	heartbeat      time.Duration
	ollamaModel    string
	ollamaTimeout  time.Duration
	ollamaURL      string
	port           int
	prefix         string
	profile        bool
	rateLimit      float64
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	// defaults for new games
	tilesPerPlayer int
	pointsToWin    int
	submissionTime int
	judgingTime    int
	minPlayers     int
	maxPlayers     int

	log zerolog.Logger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.heartbeat < time.Second {
		return fmt.Errorf("invalid heartbeat (must be at least 1s): %s", c.heartbeat)
	}
	if c.ollamaURL != "" {
		u, err := url.Parse(c.ollamaURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("invalid ollama url (must be http or https): %s", c.ollamaURL)
		}
	}
	if c.ollamaTimeout <= 0 {
		return fmt.Errorf("invalid ollama timeout (must be above 0): %s", c.ollamaTimeout)
	}
	if c.rateLimit <= 0 {
		return fmt.Errorf("invalid rate limit (must be above 0): %v", c.rateLimit)
	}
	if err := c.gameDefaults().Validate(); err != nil {
		return fmt.Errorf("invalid game defaults: %w", err)
	}
	return nil
}

func (c *Config) gameDefaults() game.Config {
	return game.Config{
		TilesPerPlayer:        c.tilesPerPlayer,
		PointsToWin:           c.pointsToWin,
		SubmissionTimeSeconds: c.submissionTime,
		JudgingTimeSeconds:    c.judgingTime,
		MinPlayers:            c.minPlayers,
		MaxPlayers:            c.maxPlayers,
	}
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("RANSOMNOTES")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "ransomnotes",
		Short:         "A party game of answering prompts with cut-out word tiles.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			cfg.log = newLogger(cfg)
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	d := game.DefaultConfig()

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: RANSOMNOTES_BIND)")
	fs.StringVar(&cfg.content, "content", "", "path to a yaml file of prompts and words (env: RANSOMNOTES_CONTENT)")
	fs.DurationVar(&cfg.heartbeat, "heartbeat", 30*time.Second, "interval between websocket pings (env: RANSOMNOTES_HEARTBEAT)")
	fs.StringVar(&cfg.ollamaModel, "ollama-model", llm.DefaultModel, "model bots ask for answers and judgments (env: RANSOMNOTES_OLLAMA_MODEL)")
	fs.DurationVar(&cfg.ollamaTimeout, "ollama-timeout", llm.DefaultTimeout, "time allowed for each bot decision before playing at random (env: RANSOMNOTES_OLLAMA_TIMEOUT)")
	fs.StringVar(&cfg.ollamaURL, "ollama-url", "", "ollama server for bot play, random bots when unset (env: RANSOMNOTES_OLLAMA_URL)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: RANSOMNOTES_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: RANSOMNOTES_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: RANSOMNOTES_PROFILE)")
	fs.Float64Var(&cfg.rateLimit, "rate-limit", 10, "websocket messages per second allowed from each client (env: RANSOMNOTES_RATE_LIMIT)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle game sessions are ended (env: RANSOMNOTES_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: RANSOMNOTES_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: RANSOMNOTES_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: RANSOMNOTES_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: RANSOMNOTES_VERSION)")

	fs.IntVar(&cfg.tilesPerPlayer, "tiles-per-player", d.TilesPerPlayer, "tiles in each hand (env: RANSOMNOTES_TILES_PER_PLAYER)")
	fs.IntVar(&cfg.pointsToWin, "points-to-win", d.PointsToWin, "round wins needed to win a game (env: RANSOMNOTES_POINTS_TO_WIN)")
	fs.IntVar(&cfg.submissionTime, "submission-time", d.SubmissionTimeSeconds, "seconds shown for answering a prompt (env: RANSOMNOTES_SUBMISSION_TIME)")
	fs.IntVar(&cfg.judgingTime, "judging-time", d.JudgingTimeSeconds, "seconds shown for judging (env: RANSOMNOTES_JUDGING_TIME)")
	fs.IntVar(&cfg.minPlayers, "min-players", d.MinPlayers, "players needed to start a game (env: RANSOMNOTES_MIN_PLAYERS)")
	fs.IntVar(&cfg.maxPlayers, "max-players", d.MaxPlayers, "players allowed in a game (env: RANSOMNOTES_MAX_PLAYERS)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("ransomnotes v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
