/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package registry

import (
	"context"

	"github.com/Seednode/ransomnotes/internal/game"
)

// Give up on a game's bots after this many turns in a row fail to apply.
const maxBotFailures = 3

// Brain makes the choices for bots: which tiles to answer with, with an
// optional chat reaction, and which answer wins when a bot judges. It is
// called without any game lock held.
type Brain interface {
	Answer(ctx context.Context, prompt string, hand []string) (tiles []string, reaction string, err error)
	Judge(ctx context.Context, prompt string, answers []string) (int, error)
}

// wakeBots starts a game's bot player unless one is already running or there
// is nothing for the bots to do.
func (r *Registry) wakeBots(gameID string, e *entry) {
	if r.opts.Brain == nil {
		return
	}

	e.mu.Lock()
	if e.botsBusy || len(e.session.BotTurns()) == 0 {
		e.mu.Unlock()
		return
	}
	e.botsBusy = true
	e.mu.Unlock()

	go r.playBots(gameID, e)
}

func (r *Registry) playBots(gameID string, e *entry) {
	failures := 0

	for {
		e.mu.Lock()
		turns := e.session.BotTurns()
		if len(turns) == 0 || failures >= maxBotFailures {
			e.botsBusy = false
			e.mu.Unlock()
			return
		}
		e.mu.Unlock()

		turn := turns[0]
		answer, winner, reaction := r.think(turn)

		err := r.Do(gameID, func(s *game.Session) error {
			return s.PlayBot(turn, answer, winner)
		})
		if err != nil {
			failures++
			r.log.Debug().Err(err).Str("game", gameID).Str("bot", turn.Nickname).Msg("bot turn dropped")
			continue
		}
		failures = 0

		if reaction != "" {
			if err := r.Chat(gameID, turn.BotID, reaction); err != nil {
				r.log.Debug().Err(err).Str("game", gameID).Str("bot", turn.Nickname).Msg("bot reaction dropped")
			}
		}
	}
}

// think asks the brain for a turn. Empty results leave the choice to the
// game's random fallback.
func (r *Registry) think(turn game.BotTurn) (answer []string, winner, reaction string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.opts.BotTimeout)
	defer cancel()

	log := r.log.With().Str("bot", turn.Nickname).Int("round", turn.Round).Logger()

	switch turn.Phase {
	case game.PhaseSubmission:
		tiles, reaction, err := r.opts.Brain.Answer(ctx, turn.Prompt, turn.Hand)
		if err != nil {
			log.Warn().Err(err).Msg("bot answer failed, picking at random")
			return nil, "", ""
		}
		return tiles, "", reaction

	case game.PhaseJudging:
		if len(turn.Candidates) == 0 {
			return nil, "", ""
		}

		answers := make([]string, len(turn.Candidates))
		for i, c := range turn.Candidates {
			answers[i] = c.Text()
		}

		i, err := r.opts.Brain.Judge(ctx, turn.Prompt, answers)
		if err != nil || i < 0 || i >= len(answers) {
			log.Warn().Err(err).Int("choice", i).Msg("bot judgment failed, picking at random")
			return nil, "", ""
		}
		return nil, turn.Candidates[i].PlayerID, ""
	}

	return nil, "", ""
}
