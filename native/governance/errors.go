package governance

import "errors"

// Errors specific to the governance core (spec §4.5).
var (
	ErrInsufficientStakeToPropose = errors.New("insufficient stake to propose")
	ErrAlreadyVoted                = errors.New("already voted")
	ErrVotingClosed                = errors.New("voting closed")
	ErrVotingOpen                  = errors.New("voting still open")
	ErrQuorumNotMet                = errors.New("quorum not met")
	ErrAlreadyExecuted             = errors.New("already executed")
	ErrProposalNotFound            = errors.New("proposal not found")
)
