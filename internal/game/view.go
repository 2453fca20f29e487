/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"time"

	"github.com/Seednode/ransomnotes/internal/prompts"
)

// PlayerView is what everyone may know about a player. Hands are private.
type PlayerView struct {
	ID          string `json:"id"`
	Nickname    string `json:"nickname"`
	Score       int    `json:"score"`
	IsHost      bool   `json:"is_host"`
	IsConnected bool   `json:"is_connected"`
	IsBot       bool   `json:"is_bot"`
	Kicked      bool   `json:"kicked"`
	TileCount   int    `json:"tile_count"`
}

type SubmissionView struct {
	PlayerID  string   `json:"player_id"`
	Order     int      `json:"order"`
	Text      string   `json:"response_text"`
	TilesUsed []string `json:"tiles_used"`
	Votes     int      `json:"votes"`
}

// RoundView is the current round as seen by one player.
type RoundView struct {
	RoundNumber int            `json:"round_number"`
	Prompt      prompts.Prompt `json:"prompt"`
	JudgeID     *string        `json:"judge_id"`
	WinnerID    *string        `json:"winner_id"`
	StartedAt   time.Time      `json:"started_at"`
	Deadline    *time.Time     `json:"deadline,omitempty"`

	// Answers stay hidden until submissions close.
	Submissions         []SubmissionView `json:"submissions"`
	SubmissionCount     int              `json:"submission_count"`
	ExpectedSubmissions int              `json:"expected_submissions"`

	HasSubmitted    bool `json:"has_submitted"`
	IsJudge         bool `json:"is_judge"`
	JudgePickedSelf bool `json:"judge_picked_self"`
	IsFinal         bool `json:"is_final"`
	Overruled       bool `json:"overruled"`

	CanOverruleVote bool    `json:"can_overrule_vote"`
	CanWinnerVote   bool    `json:"can_winner_vote"`
	MyOverruleVote  *bool   `json:"my_overrule_vote,omitempty"`
	MyWinnerVote    *string `json:"my_winner_vote,omitempty"`
	OverruleVotes   int     `json:"overrule_votes"`
	WinnerVotes     int     `json:"winner_votes"`
	EligibleVoters  int     `json:"eligible_voters"`
}

// View is the full game state projected for one player.
type View struct {
	GameID       string       `json:"game_id"`
	InviteCode   string       `json:"invite_code"`
	Phase        Phase        `json:"phase"`
	Config       Config       `json:"config"`
	Players      []PlayerView `json:"players"`
	CurrentRound *RoundView   `json:"current_round"`
	PlayerID     string       `json:"player_id"`
	IsHost       bool         `json:"is_host"`
	MyTiles      []string     `json:"my_tiles"`
	Winner       *PlayerView  `json:"winner,omitempty"`
}

// View projects the game for viewerID.
func (s *Session) View(viewerID string) (View, error) {
	me, err := s.lookup(viewerID)
	if err != nil {
		return View{}, err
	}

	v := View{
		GameID:     s.id,
		InviteCode: s.inviteCode,
		Phase:      s.phase,
		Config:     s.config,
		Players:    make([]PlayerView, 0, len(s.players)),
		PlayerID:   me.ID,
		IsHost:     me.IsHost,
		MyTiles:    append([]string{}, me.Tiles...),
	}

	for _, p := range s.players {
		v.Players = append(v.Players, playerView(p))
	}

	if s.round != nil {
		v.CurrentRound = s.roundView(me)
	}

	if s.phase == PhaseGameOver {
		if w := s.leader(); w != nil {
			pv := playerView(w)
			v.Winner = &pv
		}
	}

	return v, nil
}

func playerView(p *Player) PlayerView {
	return PlayerView{
		ID:          p.ID,
		Nickname:    p.Nickname,
		Score:       p.Score,
		IsHost:      p.IsHost,
		IsConnected: p.IsConnected,
		IsBot:       p.IsBot,
		Kicked:      p.Kicked,
		TileCount:   len(p.Tiles),
	}
}

func (s *Session) roundView(me *Player) *RoundView {
	r := s.round

	rv := &RoundView{
		RoundNumber:     r.Number,
		Prompt:          r.Prompt,
		StartedAt:       r.StartedAt,
		Submissions:     []SubmissionView{},
		SubmissionCount: r.submissions.Len(),
		HasSubmitted:    r.HasSubmitted(me.ID),
		IsJudge:         r.JudgeID != "" && r.JudgeID == me.ID,
		JudgePickedSelf: r.JudgePickedSelf(),
		IsFinal:         r.Final(),
		Overruled:       r.Overruled,
	}

	if judge := r.JudgeID; judge != "" {
		rv.JudgeID = &judge
	}
	if winner := r.WinnerID; winner != "" {
		rv.WinnerID = &winner
	}

	switch s.phase {
	case PhaseSubmission:
		rv.ExpectedSubmissions = len(s.expected())
		rv.Deadline = deadline(r.StartedAt, s.config.SubmissionTimeSeconds)
	case PhaseJudging:
		rv.Deadline = deadline(r.JudgingStartedAt, s.config.JudgingTimeSeconds)
	}

	if s.phase != PhaseSubmission {
		tally := make(map[string]int)
		for _, id := range r.winnerVotes.Keys() {
			choice, _ := r.winnerVotes.Get(id)
			tally[choice]++
		}

		for _, sub := range r.Submissions() {
			rv.Submissions = append(rv.Submissions, SubmissionView{
				PlayerID:  sub.PlayerID,
				Order:     sub.Order,
				Text:      sub.Text(),
				TilesUsed: append([]string(nil), sub.TilesUsed...),
				Votes:     tally[sub.PlayerID],
			})
		}
	}

	if s.phase == PhaseResults {
		eligible := me.ID != r.JudgeID && me.participating()
		rv.CanOverruleVote = eligible && r.OverrulePending()
		rv.CanWinnerVote = eligible && r.WinnerVotePending()
		rv.OverruleVotes = r.overruleVotes.Len()
		rv.WinnerVotes = r.winnerVotes.Len()
		rv.EligibleVoters = len(s.voters())
	}

	if v, ok := r.OverruleVote(me.ID); ok {
		rv.MyOverruleVote = &v
	}
	if v, ok := r.WinnerVote(me.ID); ok {
		rv.MyWinnerVote = &v
	}

	return rv
}

func deadline(from time.Time, seconds int) *time.Time {
	if seconds <= 0 || from.IsZero() {
		return nil
	}
	d := from.Add(time.Duration(seconds) * time.Second)
	return &d
}
