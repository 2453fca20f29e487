/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"strings"
	"time"

	"github.com/Seednode/ransomnotes/internal/prompts"
)

// Submission is one player's answer for a round. Immutable once recorded.
type Submission struct {
	PlayerID    string    `json:"player_id"`
	TilesUsed   []string  `json:"tiles_used"`
	Order       int       `json:"order"` // 1-based
	SubmittedAt time.Time `json:"submitted_at"`
}

// Text is the answer as shown to players.
func (s Submission) Text() string {
	return strings.Join(s.TilesUsed, " ")
}

// Round holds one round's data. It is replaced wholesale when the next round
// starts.
type Round struct {
	Number           int
	Prompt           prompts.Prompt
	JudgeID          string
	WinnerID         string
	StartedAt        time.Time
	JudgingStartedAt time.Time
	Overruled        bool

	// set once the round's point has been given out
	awarded bool

	submissions   ordered[string, Submission]
	overruleVotes ordered[string, bool]
	winnerVotes   ordered[string, string]
}

func newRound(number int, prompt prompts.Prompt, now time.Time) *Round {
	return &Round{
		Number:        number,
		Prompt:        prompt,
		StartedAt:     now,
		submissions:   newOrdered[string, Submission](),
		overruleVotes: newOrdered[string, bool](),
		winnerVotes:   newOrdered[string, string](),
	}
}

func (r *Round) Submission(playerID string) (Submission, bool) {
	return r.submissions.Get(playerID)
}

func (r *Round) HasSubmitted(playerID string) bool {
	return r.submissions.Has(playerID)
}

// Submissions returns every submission in the order it was recorded.
func (r *Round) Submissions() []Submission {
	out := make([]Submission, 0, r.submissions.Len())
	for _, id := range r.submissions.Keys() {
		s, _ := r.submissions.Get(id)
		out = append(out, s)
	}
	return out
}

// Candidates are the submissions eligible in a winner vote: everyone's but
// the judge's, in submission order.
func (r *Round) Candidates() []Submission {
	var out []Submission
	for _, s := range r.Submissions() {
		if s.PlayerID != r.JudgeID {
			out = append(out, s)
		}
	}
	return out
}

func (r *Round) JudgePickedSelf() bool {
	return r.WinnerID != "" && r.WinnerID == r.JudgeID
}

// Final reports whether the round winner is settled and scored.
func (r *Round) Final() bool {
	return r.awarded
}

func (r *Round) OverrulePending() bool {
	return r.JudgePickedSelf() && !r.awarded
}

func (r *Round) WinnerVotePending() bool {
	return r.Overruled && r.WinnerID == "" && !r.awarded
}

func (r *Round) OverruleVote(playerID string) (bool, bool) {
	return r.overruleVotes.Get(playerID)
}

func (r *Round) WinnerVote(playerID string) (string, bool) {
	return r.winnerVotes.Get(playerID)
}

func (r *Round) record(s Submission) {
	s.Order = r.submissions.Len() + 1
	r.submissions.Set(s.PlayerID, s)
}

// overruleOutcome reports whether every voter has voted and, if so, whether
// all of them voted to overrule.
func (r *Round) overruleOutcome(voters []string) (done, overrule bool) {
	overrule = true
	for _, id := range voters {
		v, ok := r.overruleVotes.Get(id)
		if !ok {
			return false, false
		}
		overrule = overrule && v
	}
	return true, overrule
}

func (r *Round) winnerVotesIn(voters []string) bool {
	for _, id := range voters {
		if !r.winnerVotes.Has(id) {
			return false
		}
	}
	return true
}

// tally returns the plurality choice among the voters' winner votes. Ties go
// to the candidate whose submission was recorded first, whatever order the
// votes arrived in. With no voters left, every recorded vote counts.
func (r *Round) tally(voters []string) string {
	if len(voters) == 0 {
		voters = r.winnerVotes.Keys()
	}

	count := make(map[string]int)
	for _, id := range voters {
		if choice, ok := r.winnerVotes.Get(id); ok {
			count[choice]++
		}
	}

	winner, best := "", -1
	for _, s := range r.Candidates() {
		if count[s.PlayerID] > best {
			winner, best = s.PlayerID, count[s.PlayerID]
		}
	}

	return winner
}
