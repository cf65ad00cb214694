package tournament

import "errors"

// Every error below reflects a precondition violation on caller input or on
// current state. Validation runs before any balance or record mutation, and
// the executor reverts the snapshot on failure, so a failed call leaves all
// state untouched.
var (
	// ErrInsufficientEntryAmount: a stake or minimum entry price below the
	// applicable floor.
	ErrInsufficientEntryAmount = errors.New("entry amount below minimum")

	// ErrInsufficientPoolContribution: creator's contribution below the
	// global floor.
	ErrInsufficientPoolContribution = errors.New("pool contribution below minimum")

	// ErrInvalidTargetPool: target below the global floor or below the
	// creator's contribution.
	ErrInvalidTargetPool = errors.New("invalid target pool")

	// ErrInvalidDuration: duration outside the allowed block range.
	ErrInvalidDuration = errors.New("duration out of allowed range")

	// ErrAlreadyParticipated: the address already holds a participant record
	// for this tournament.
	ErrAlreadyParticipated = errors.New("address already entered this tournament")

	// ErrUnauthorized: the caller lacks the required role (non-participant
	// submitting a score, non-authority distributing prizes).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTournamentNotEnded: a window-dependent action invoked outside its
	// valid lifecycle state.
	ErrTournamentNotEnded = errors.New("tournament not in required state")

	// ErrPrizesAlreadyDistributed: settlement attempted twice.
	ErrPrizesAlreadyDistributed = errors.New("prizes already distributed")

	// ErrInvalidScore: a zero score submission.
	ErrInvalidScore = errors.New("score must be positive")

	// ErrPoolTargetReached: the entry would push the pool past its target.
	// Overshooting entries are rejected outright, never clamped.
	ErrPoolTargetReached = errors.New("entry would exceed target pool")
)
