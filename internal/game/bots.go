/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Seednode/ransomnotes/internal/tiles"
)

const (
	botPrefix     = "Bot "
	botMaxTiles   = 5
	maxBotActions = 4 * MaxTableSize
)

// AddBot seats a computer player. Bots act through the same operations as
// people, straight after whatever mutation gives them something to do.
func (s *Session) AddBot(by string) (Player, error) {
	if err := s.requireHost(by); err != nil {
		return Player{}, err
	}

	if s.phase != PhaseLobby {
		return Player{}, ErrWrongPhase
	}

	if s.seated() >= s.config.MaxPlayers {
		return Player{}, ErrGameFull
	}

	n := s.nextBotNumber()
	name, err := s.checkNickname(fmt.Sprintf("%s%d", botPrefix, n))
	for err != nil {
		n++
		name, err = s.checkNickname(fmt.Sprintf("%s%d", botPrefix, n))
	}

	p := &Player{ID: s.newID(), Nickname: name, IsConnected: true, IsBot: true}
	s.seat(p)

	s.log.Info().Str("player", p.Nickname).Msg("bot added")

	return p.clone(), nil
}

func (s *Session) nextBotNumber() int {
	highest := 0
	for _, p := range s.players {
		if !p.IsBot {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(p.Nickname, botPrefix))
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// driveBots lets bots take every action currently open to them.
func (s *Session) driveBots() {
	for range maxBotActions {
		if !s.botStep() {
			return
		}
	}
}

// botStep performs one bot action and reports whether it did anything.
func (s *Session) botStep() bool {
	switch s.phase {
	case PhaseSubmission:
		if s.holdBots {
			return false
		}
		for _, p := range s.players {
			if !p.IsBot || p.Kicked || len(p.Tiles) == 0 || s.round.HasSubmitted(p.ID) {
				continue
			}
			return s.botAct(p, s.submit(p.ID, s.botTiles(p)))
		}

	case PhaseJudging:
		judge := s.byID[s.round.JudgeID]
		if judge != nil && judge.IsBot && !s.holdBots {
			return s.botAct(judge, s.selectWinner(judge.ID, s.botPick(judge.ID)))
		}

	case PhaseResults:
		for _, id := range s.voters() {
			p := s.byID[id]
			if !p.IsBot {
				continue
			}

			if s.round.OverrulePending() {
				if _, voted := s.round.OverruleVote(id); !voted {
					return s.botAct(p, s.castOverruleVote(id, true))
				}
			}

			if s.round.WinnerVotePending() {
				if _, voted := s.round.WinnerVote(id); !voted {
					c := s.round.Candidates()
					return s.botAct(p, s.castWinnerVote(id, c[s.rng.IntN(len(c))].PlayerID))
				}
			}
		}
	}

	return false
}

func (s *Session) botAct(p *Player, err error) bool {
	if err != nil {
		s.log.Warn().Err(err).Str("player", p.Nickname).Msg("bot action failed")
		return false
	}
	return true
}

// botTiles picks between one and five tiles from the bot's hand.
func (s *Session) botTiles(p *Player) []string {
	k := 1 + s.rng.IntN(min(botMaxTiles, len(p.Tiles)))

	out := make([]string, 0, k)
	for _, i := range s.rng.Perm(len(p.Tiles))[:k] {
		out = append(out, p.Tiles[i])
	}
	return out
}

// botPick chooses a winner for a bot judge: someone else's answer, a
// person's if there is one, and its own only when nothing else was sent.
func (s *Session) botPick(judgeID string) string {
	var people, others []string
	for _, sub := range s.round.Submissions() {
		if sub.PlayerID == judgeID {
			continue
		}
		others = append(others, sub.PlayerID)
		if !s.byID[sub.PlayerID].IsBot {
			people = append(people, sub.PlayerID)
		}
	}

	switch {
	case len(people) > 0:
		return people[s.rng.IntN(len(people))]
	case len(others) > 0:
		return others[s.rng.IntN(len(others))]
	default:
		return judgeID
	}
}

// BotTurn is an answer or a judgment a held bot still owes the current round.
type BotTurn struct {
	BotID    string
	Nickname string
	Round    int
	Phase    Phase
	Prompt   string

	// Hand is set for answers, Candidates for judgments.
	Hand       []string
	Candidates []Submission
}

// BotTurns lists what held bots have yet to do, in seating order.
func (s *Session) BotTurns() []BotTurn {
	if s.round == nil {
		return nil
	}

	var turns []BotTurn
	switch s.phase {
	case PhaseSubmission:
		for _, p := range s.players {
			if !p.IsBot || p.Kicked || len(p.Tiles) == 0 || s.round.HasSubmitted(p.ID) {
				continue
			}
			t := s.botTurn(p)
			t.Hand = append([]string(nil), p.Tiles...)
			turns = append(turns, t)
		}

	case PhaseJudging:
		if p := s.byID[s.round.JudgeID]; p != nil && p.IsBot {
			t := s.botTurn(p)
			t.Candidates = s.round.Candidates()
			turns = append(turns, t)
		}
	}

	return turns
}

func (s *Session) botTurn(p *Player) BotTurn {
	return BotTurn{
		BotID:    p.ID,
		Nickname: p.Nickname,
		Round:    s.round.Number,
		Phase:    s.phase,
		Prompt:   s.round.Prompt.Text,
	}
}

// PlayBot takes a turn listed by BotTurns. An answer that is not in the bot's
// hand, or a winner that is not a candidate, is replaced with a random choice.
// A turn the game has moved past fails with ErrWrongPhase.
func (s *Session) PlayBot(turn BotTurn, answer []string, winnerID string) error {
	p, err := s.lookup(turn.BotID)
	if err != nil {
		return err
	}

	if s.round == nil || s.round.Number != turn.Round || s.phase != turn.Phase || !p.IsBot {
		return ErrWrongPhase
	}

	switch turn.Phase {
	case PhaseSubmission:
		if _, ok := tiles.Remove(p.Tiles, answer); !ok || len(answer) == 0 {
			answer = s.botTiles(p)
		}
		return s.Submit(p.ID, answer)

	case PhaseJudging:
		if winnerID == p.ID || !s.round.HasSubmitted(winnerID) {
			winnerID = s.botPick(p.ID)
		}
		return s.SelectWinner(p.ID, winnerID)
	}

	return ErrWrongPhase
}
