package models

import "errors"

// VoteDirection is the side of a vote on an issue.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// Valid reports whether d is a known direction.
func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// Opposite returns the other direction.
func (d VoteDirection) Opposite() VoteDirection {
	if d == VoteUp {
		return VoteDown
	}
	return VoteUp
}

// ErrDuplicateVote is returned when a user re-votes the same direction on
// an issue they already voted on.
var ErrDuplicateVote = errors.New("already voted this direction")

// VoteOutcome describes what applying a vote must do to the stored state.
type VoteOutcome int

const (
	// VoteNew adds a fresh vote: insert the membership row and increment
	// the requested counter.
	VoteNew VoteOutcome = iota
	// VoteFlip switches sides: repoint the membership row, decrement the
	// opposite counter and increment the requested one.
	VoteFlip
)

// ResolveVote applies the voting rules given the user's prior vote on the
// issue (empty string if none) and the requested direction. A user holds at
// most one vote per issue, so a flip always retracts the prior vote before
// the new one counts.
func ResolveVote(prior, requested VoteDirection) (VoteOutcome, error) {
	if prior == requested {
		return 0, ErrDuplicateVote
	}
	if prior == requested.Opposite() {
		return VoteFlip, nil
	}
	return VoteNew, nil
}
