/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package game implements the rules of a single game: the roster, the phase
// state machine, submissions, judging and the overrule and winner votes.
//
// A Session is not safe for concurrent use. The registry serializes every
// call against one session; different sessions share nothing.
package game

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Seednode/ransomnotes/internal/prompts"
	"github.com/Seednode/ransomnotes/internal/tiles"
)

type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseSubmission Phase = "round_submission"
	PhaseJudging    Phase = "round_judging"
	PhaseResults    Phase = "round_results"
	PhaseGameOver   Phase = "game_over"
)

// Player is one seat at the table. Players are never removed from a game;
// kicked and disconnected players are marked instead so the judge rotation
// and scores stay intact.
type Player struct {
	ID          string   `json:"id"`
	Nickname    string   `json:"nickname"`
	Score       int      `json:"score"`
	IsHost      bool     `json:"is_host"`
	IsConnected bool     `json:"is_connected"`
	IsBot       bool     `json:"is_bot"`
	Kicked      bool     `json:"kicked"`
	Tiles       []string `json:"tiles"`
}

// participating players are the ones a round waits for.
func (p *Player) participating() bool {
	return !p.Kicked && (p.IsConnected || p.IsBot)
}

func (p *Player) clone() Player {
	c := *p
	c.Tiles = append([]string(nil), p.Tiles...)
	return c
}

// Options carries a session's collaborators. Zero values get defaults.
type Options struct {
	// Words is the tile vocabulary.
	Words []string
	// Prompts builds the prompt source for a new game; it is called again on
	// every start, so a restarted game gets a fresh deck.
	Prompts func(rng *rand.Rand) prompts.Source
	Rand    *rand.Rand
	Now     func() time.Time
	NewID   func() string
	Log     zerolog.Logger

	// HoldBots leaves bot answers and bot judging to PlayBot. Bots still
	// vote on their own.
	HoldBots bool
}

type Session struct {
	id         string
	inviteCode string
	phase      Phase
	config     Config

	players []*Player
	byID    map[string]*Player

	round     *Round
	lastJudge int

	words      []string
	newPrompts func(rng *rand.Rand) prompts.Source
	prompts    prompts.Source

	rng      *rand.Rand
	now      func() time.Time
	newID    func() string
	log      zerolog.Logger
	holdBots bool
}

// NewSession creates a game in the lobby with its host seated.
func NewSession(id, inviteCode string, cfg Config, hostNickname string, opts Options) (*Session, Player, error) {
	if err := cfg.Validate(); err != nil {
		return nil, Player{}, err
	}

	s := &Session{
		id:         id,
		inviteCode: inviteCode,
		phase:      PhaseLobby,
		config:     cfg,
		byID:       make(map[string]*Player),
		lastJudge:  -1,
		words:      opts.Words,
		newPrompts: opts.Prompts,
		rng:        opts.Rand,
		now:        opts.Now,
		newID:      opts.NewID,
		log:        opts.Log,
		holdBots:   opts.HoldBots,
	}

	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.newPrompts == nil {
		s.newPrompts = func(*rand.Rand) prompts.Source { return &prompts.Sequence{} }
	}

	name, err := s.checkNickname(hostNickname)
	if err != nil {
		return nil, Player{}, err
	}

	host := &Player{ID: s.newID(), Nickname: name, IsHost: true, IsConnected: true}
	s.seat(host)

	return s, host.clone(), nil
}

func (s *Session) ID() string         { return s.id }
func (s *Session) InviteCode() string { return s.inviteCode }
func (s *Session) Phase() Phase       { return s.phase }
func (s *Session) Config() Config     { return s.config }

// Round returns the current round, nil in the lobby. Callers must not keep
// it past the current locked call.
func (s *Session) Round() *Round { return s.round }

// Player returns a copy of the player.
func (s *Session) Player(id string) (Player, bool) {
	p, ok := s.byID[id]
	if !ok {
		return Player{}, false
	}
	return p.clone(), true
}

// Players returns copies of all players in seating order.
func (s *Session) Players() []Player {
	out := make([]Player, 0, len(s.players))
	for _, p := range s.players {
		out = append(out, p.clone())
	}
	return out
}

func (s *Session) seat(p *Player) {
	s.players = append(s.players, p)
	s.byID[p.ID] = p
}

func (s *Session) seated() int {
	n := 0
	for _, p := range s.players {
		if !p.Kicked {
			n++
		}
	}
	return n
}

func (s *Session) checkNickname(nickname string) (string, error) {
	name := strings.TrimSpace(nickname)
	if name == "" {
		return "", ErrInvalidNickname
	}

	for _, p := range s.players {
		if strings.EqualFold(p.Nickname, name) {
			return "", ErrNicknameTaken
		}
	}

	return name, nil
}

func (s *Session) lookup(id string) (*Player, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return p, nil
}

func (s *Session) requireHost(id string) error {
	p, err := s.lookup(id)
	if err != nil {
		return err
	}
	if !p.IsHost {
		return ErrNotHost
	}
	return nil
}

// then runs the bots after a successful mutation.
func (s *Session) then(err error) error {
	if err == nil {
		s.driveBots()
	}
	return err
}

// Join seats a new player. Only possible in the lobby.
func (s *Session) Join(nickname string) (Player, error) {
	if s.phase != PhaseLobby {
		return Player{}, ErrWrongPhase
	}

	if s.seated() >= s.config.MaxPlayers {
		return Player{}, ErrGameFull
	}

	name, err := s.checkNickname(nickname)
	if err != nil {
		return Player{}, err
	}

	p := &Player{ID: s.newID(), Nickname: name, IsConnected: true}
	s.seat(p)

	s.log.Info().Str("player", p.Nickname).Msg("player joined")

	return p.clone(), nil
}

// Rejoin marks an existing player as back at the table. Allowed in any phase.
func (s *Session) Rejoin(playerID string) (Player, error) {
	p, err := s.lookup(playerID)
	if err != nil {
		return Player{}, err
	}

	if p.Kicked {
		return Player{}, ErrPlayerKicked
	}

	if !p.IsConnected {
		p.IsConnected = true
		s.log.Info().Str("player", p.Nickname).Msg("player rejoined")
	}

	return p.clone(), nil
}

// Start deals tiles and opens round one.
func (s *Session) Start(by string) error {
	return s.then(s.start(by))
}

func (s *Session) start(by string) error {
	if err := s.requireHost(by); err != nil {
		return err
	}

	if s.phase != PhaseLobby {
		return ErrWrongPhase
	}

	if s.seated() < s.config.MinPlayers {
		return ErrNotEnoughPlayers
	}

	src := s.newPrompts(s.rng)
	prompt, ok := src.Next()
	if !ok {
		return ErrNoPrompts
	}
	s.prompts = src

	for _, p := range s.players {
		p.Tiles = nil
		if !p.Kicked {
			p.Tiles = tiles.Deal(s.words, s.config.TilesPerPlayer, s.rng)
		}
	}

	s.lastJudge = -1
	s.openRound(1, prompt)

	s.log.Info().Int("players", s.seated()).Msg("game started")

	return nil
}

func (s *Session) openRound(number int, prompt prompts.Prompt) {
	s.round = newRound(number, prompt, s.now())
	s.phase = PhaseSubmission
}

// Submit records a player's answer and consumes the tiles it used. Once every
// participating player has answered, the judge is chosen and judging opens.
func (s *Session) Submit(playerID string, used []string) error {
	return s.then(s.submit(playerID, used))
}

func (s *Session) submit(playerID string, used []string) error {
	p, err := s.lookup(playerID)
	if err != nil {
		return err
	}

	if s.phase != PhaseSubmission {
		return ErrWrongPhase
	}

	if p.Kicked {
		return ErrPlayerKicked
	}

	if s.round.HasSubmitted(playerID) {
		return ErrAlreadySubmitted
	}

	if len(used) == 0 {
		return ErrInvalidTiles
	}

	rest, ok := tiles.Remove(p.Tiles, used)
	if !ok {
		return ErrInvalidTiles
	}
	p.Tiles = rest

	s.round.record(Submission{
		PlayerID:    playerID,
		TilesUsed:   append([]string(nil), used...),
		SubmittedAt: s.now(),
	})

	s.log.Debug().Str("player", p.Nickname).Int("round", s.round.Number).Msg("submission received")

	s.closeSubmissions()

	return nil
}

// expected lists the ids of the players the current round waits for.
func (s *Session) expected() []string {
	var ids []string
	for _, p := range s.players {
		if p.participating() {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (s *Session) closeSubmissions() {
	if s.phase != PhaseSubmission || s.round.submissions.Len() == 0 {
		return
	}

	waiting := s.expected()
	if len(waiting) == 0 {
		return
	}

	for _, id := range waiting {
		if !s.round.HasSubmitted(id) {
			return
		}
	}

	s.round.JudgeID = s.nextJudge()
	s.round.JudgingStartedAt = s.now()
	s.phase = PhaseJudging

	s.log.Debug().Str("judge", s.byID[s.round.JudgeID].Nickname).Int("round", s.round.Number).Msg("judging opened")
}

// nextJudge walks the seating order from the seat after the previous judge,
// skipping players who are not participating.
func (s *Session) nextJudge() string {
	n := len(s.players)
	for i := 1; i <= n; i++ {
		idx := (s.lastJudge + i) % n
		if s.players[idx].participating() {
			s.lastJudge = idx
			return s.players[idx].ID
		}
	}
	return ""
}

// SelectWinner is the judge's pick. A pick of anyone else scores at once; a
// pick of the judge's own answer stays provisional until the other players
// have had their overrule vote.
func (s *Session) SelectWinner(by, winnerID string) error {
	return s.then(s.selectWinner(by, winnerID))
}

func (s *Session) selectWinner(by, winnerID string) error {
	if s.phase != PhaseJudging {
		return ErrWrongPhase
	}

	if by != s.round.JudgeID {
		return ErrNotJudge
	}

	if !s.round.HasSubmitted(winnerID) {
		return ErrInvalidWinner
	}

	s.round.WinnerID = winnerID
	s.phase = PhaseResults

	switch {
	case winnerID != s.round.JudgeID:
		s.award(winnerID)
	case len(s.voters()) == 0 || len(s.round.Candidates()) == 0:
		s.award(winnerID)
	default:
		s.log.Debug().Int("round", s.round.Number).Msg("judge picked self, overrule vote open")
	}

	return nil
}

// voters are the participating players other than the judge.
func (s *Session) voters() []string {
	var ids []string
	for _, p := range s.players {
		if p.ID != s.round.JudgeID && p.participating() {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

func (s *Session) award(playerID string) {
	p := s.byID[playerID]
	p.Score++
	s.round.awarded = true

	s.log.Info().Str("player", p.Nickname).Int("round", s.round.Number).Int("score", p.Score).Msg("round won")
}

// CastOverruleVote records a vote on the judge's self pick. Players may change
// their vote until everyone has voted. Only a unanimous overrule succeeds.
func (s *Session) CastOverruleVote(playerID string, overrule bool) error {
	return s.then(s.castOverruleVote(playerID, overrule))
}

func (s *Session) castOverruleVote(playerID string, overrule bool) error {
	p, err := s.lookup(playerID)
	if err != nil {
		return err
	}

	if s.phase != PhaseResults {
		return ErrWrongPhase
	}

	if !s.round.OverrulePending() || playerID == s.round.JudgeID || !p.participating() {
		return ErrNotEligible
	}

	s.round.overruleVotes.Set(playerID, overrule)
	s.resolveOverrule()

	return nil
}

func (s *Session) resolveOverrule() {
	if s.phase != PhaseResults || !s.round.OverrulePending() {
		return
	}

	voters := s.voters()
	if len(voters) == 0 {
		s.award(s.round.JudgeID)
		return
	}

	done, overrule := s.round.overruleOutcome(voters)
	if !done {
		return
	}

	if !overrule {
		s.award(s.round.JudgeID)
		return
	}

	s.round.Overruled = true
	s.round.WinnerID = ""

	s.log.Info().Int("round", s.round.Number).Msg("judge overruled, winner vote open")
}

// CastWinnerVote records a vote for a new winner after an overrule. Votes go
// to submissions other than the judge's; the plurality wins.
func (s *Session) CastWinnerVote(playerID, winnerID string) error {
	return s.then(s.castWinnerVote(playerID, winnerID))
}

func (s *Session) castWinnerVote(playerID, winnerID string) error {
	p, err := s.lookup(playerID)
	if err != nil {
		return err
	}

	if s.phase != PhaseResults {
		return ErrWrongPhase
	}

	if !s.round.WinnerVotePending() || playerID == s.round.JudgeID || !p.participating() {
		return ErrNotEligible
	}

	if winnerID == s.round.JudgeID || !s.round.HasSubmitted(winnerID) {
		return ErrInvalidWinner
	}

	s.round.winnerVotes.Set(playerID, winnerID)
	s.resolveWinnerVote()

	return nil
}

func (s *Session) resolveWinnerVote() {
	if s.phase != PhaseResults || !s.round.WinnerVotePending() {
		return
	}

	voters := s.voters()
	if len(voters) > 0 && !s.round.winnerVotesIn(voters) {
		return
	}

	winner := s.round.tally(voters)
	if winner == "" {
		return
	}

	s.round.WinnerID = winner
	s.award(winner)
}

// Advance moves on from a settled round: to game over when someone has
// reached the target score or the prompts have run out, otherwise to the next
// round with hands topped up.
func (s *Session) Advance(by string) error {
	return s.then(s.advance(by))
}

func (s *Session) advance(by string) error {
	if err := s.requireHost(by); err != nil {
		return err
	}

	if s.phase != PhaseResults {
		return ErrWrongPhase
	}

	if !s.round.Final() {
		return ErrRoundNotFinal
	}

	if s.leader() != nil {
		s.finish()
		return nil
	}

	prompt, ok := s.prompts.Next()
	if !ok {
		s.finish()
		return nil
	}

	for _, p := range s.players {
		if !p.Kicked {
			p.Tiles = tiles.Replenish(s.words, p.Tiles, s.config.TilesPerPlayer, s.rng)
		}
	}

	s.openRound(s.round.Number+1, prompt)

	return nil
}

func (s *Session) finish() {
	s.phase = PhaseGameOver

	if w := s.leader(); w != nil {
		s.log.Info().Str("winner", w.Nickname).Int("score", w.Score).Msg("game over")
		return
	}
	s.log.Info().Msg("game over, out of prompts")
}

// leader returns the first seated player at or over the target score with
// the highest score, or nil.
func (s *Session) leader() *Player {
	var best *Player
	for _, p := range s.players {
		if p.Score < s.config.PointsToWin {
			continue
		}
		if best == nil || p.Score > best.Score {
			best = p
		}
	}
	return best
}

// Restart takes a finished game back to the lobby with the same roster.
func (s *Session) Restart(by string) error {
	if err := s.requireHost(by); err != nil {
		return err
	}

	if s.phase != PhaseGameOver {
		return ErrWrongPhase
	}

	for _, p := range s.players {
		p.Score = 0
		p.Tiles = nil
	}

	s.round = nil
	s.prompts = nil
	s.lastJudge = -1
	s.phase = PhaseLobby

	s.log.Info().Msg("game restarted")

	return nil
}

// ReorderTiles replaces a hand with a permutation of itself.
func (s *Session) ReorderTiles(playerID string, order []string) error {
	p, err := s.lookup(playerID)
	if err != nil {
		return err
	}

	if !tiles.SameTiles(p.Tiles, order) {
		return ErrInvalidTiles
	}

	p.Tiles = append([]string(nil), order...)

	return nil
}

// Kick marks a player as removed by the host. They keep their seat and score
// but no longer take part.
func (s *Session) Kick(by, targetID string) error {
	if err := s.requireHost(by); err != nil {
		return err
	}

	p, err := s.lookup(targetID)
	if err != nil {
		return err
	}

	if p.IsHost {
		return ErrCannotKickHost
	}

	if p.Kicked {
		return nil
	}

	p.Kicked = true
	p.IsConnected = false

	s.log.Info().Str("player", p.Nickname).Msg("player kicked")

	return s.then(s.settle())
}

// SetConnected records a player's connection state. A departure can complete
// a round that was only waiting on that player.
func (s *Session) SetConnected(playerID string, connected bool) error {
	p, err := s.lookup(playerID)
	if err != nil {
		return err
	}

	if p.Kicked {
		if connected {
			return ErrPlayerKicked
		}
		return nil
	}

	if p.IsBot || p.IsConnected == connected {
		return nil
	}

	p.IsConnected = connected

	return s.then(s.settle())
}

func (s *Session) settle() error {
	switch s.phase {
	case PhaseSubmission:
		s.closeSubmissions()
	case PhaseJudging:
		s.replaceJudge()
	case PhaseResults:
		s.resolveOverrule()
		s.resolveWinnerVote()
	}
	return nil
}

// replaceJudge passes judging to the next participating player once the
// judge has left the table. The turn is not handed back if they return.
func (s *Session) replaceJudge() {
	judge, ok := s.byID[s.round.JudgeID]
	if ok && judge.participating() {
		return
	}

	next := s.nextJudge()
	if next == "" {
		return
	}

	s.round.JudgeID = next
	s.round.JudgingStartedAt = s.now()

	s.log.Info().Str("judge", s.byID[next].Nickname).Int("round", s.round.Number).Msg("judge left, judging passed on")
}
