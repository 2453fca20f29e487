/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import "fmt"

// Hard upper bound on table size.
const MaxTableSize = 8

// Config is fixed when a game is created.
type Config struct {
	TilesPerPlayer        int `json:"tiles_per_player"`
	PointsToWin           int `json:"points_to_win"`
	SubmissionTimeSeconds int `json:"submission_time_seconds"`
	JudgingTimeSeconds    int `json:"judging_time_seconds"`
	MinPlayers            int `json:"min_players"`
	MaxPlayers            int `json:"max_players"`
}

func DefaultConfig() Config {
	return Config{
		TilesPerPlayer:        45,
		PointsToWin:           5,
		SubmissionTimeSeconds: 90,
		JudgingTimeSeconds:    60,
		MinPlayers:            2,
		MaxPlayers:            MaxTableSize,
	}
}

func (c Config) Validate() error {
	switch {
	case c.TilesPerPlayer < 1:
		return fmt.Errorf("%w: tiles_per_player must be at least 1", ErrInvalidConfig)
	case c.PointsToWin < 1:
		return fmt.Errorf("%w: points_to_win must be at least 1", ErrInvalidConfig)
	case c.SubmissionTimeSeconds < 0 || c.JudgingTimeSeconds < 0:
		return fmt.Errorf("%w: phase times must not be negative", ErrInvalidConfig)
	case c.MinPlayers < 2:
		return fmt.Errorf("%w: min_players must be at least 2", ErrInvalidConfig)
	case c.MaxPlayers < c.MinPlayers:
		return fmt.Errorf("%w: max_players must not be below min_players", ErrInvalidConfig)
	case c.MaxPlayers > MaxTableSize:
		return fmt.Errorf("%w: max_players must be at most %d", ErrInvalidConfig, MaxTableSize)
	}
	return nil
}
