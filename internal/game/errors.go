/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import "errors"

// Kind groups errors by what the caller did wrong.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindPreconditionFailed
	KindCapacity
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPreconditionFailed:
		return "precondition_failed"
	case KindCapacity:
		return "capacity"
	default:
		return "unknown"
	}
}

// Error is a caller error reported back to the request that caused it.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

var (
	ErrGameNotFound        = newError(KindNotFound, "GAME_NOT_FOUND", "game not found")
	ErrInviteCodeNotFound  = newError(KindNotFound, "INVITE_CODE_NOT_FOUND", "no game with that invite code")
	ErrPlayerNotFound      = newError(KindNotFound, "PLAYER_NOT_FOUND", "player not found in this game")
	ErrWrongPhase          = newError(KindPreconditionFailed, "WRONG_PHASE", "that action is not allowed in the current phase")
	ErrNotHost             = newError(KindPreconditionFailed, "NOT_HOST", "only the host can do that")
	ErrNotJudge            = newError(KindPreconditionFailed, "NOT_JUDGE", "only the judge can select a winner")
	ErrAlreadySubmitted    = newError(KindPreconditionFailed, "ALREADY_SUBMITTED", "player has already submitted this round")
	ErrInvalidTiles        = newError(KindPreconditionFailed, "INVALID_TILES", "tiles must be non-empty and held by the player")
	ErrInvalidWinner       = newError(KindPreconditionFailed, "INVALID_WINNER", "winner must be a player who submitted")
	ErrNotEligible         = newError(KindPreconditionFailed, "NOT_ELIGIBLE", "player is not eligible to vote right now")
	ErrRoundNotFinal       = newError(KindPreconditionFailed, "ROUND_NOT_FINAL", "the round winner has not been settled yet")
	ErrNicknameTaken       = newError(KindPreconditionFailed, "NICKNAME_TAKEN", "that nickname is already taken")
	ErrInvalidNickname     = newError(KindPreconditionFailed, "INVALID_NICKNAME", "nickname must not be empty")
	ErrPlayerKicked        = newError(KindPreconditionFailed, "PLAYER_KICKED", "player has been removed from this game")
	ErrInvalidConfig       = newError(KindPreconditionFailed, "INVALID_CONFIG", "invalid game configuration")
	ErrCannotKickHost      = newError(KindPreconditionFailed, "CANNOT_KICK_HOST", "the host cannot be kicked")
	ErrNoPrompts           = newError(KindPreconditionFailed, "NO_PROMPTS", "there are no prompts to play with")
	ErrGameFull            = newError(KindCapacity, "GAME_FULL", "game is full")
	ErrNotEnoughPlayers    = newError(KindCapacity, "NOT_ENOUGH_PLAYERS", "not enough players to start")
	ErrInviteCodeExhausted = newError(KindCapacity, "INVITE_CODE_EXHAUSTED", "could not allocate a unique invite code")
)

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// CodeOf returns the machine-readable code of err, or "INTERNAL".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}
