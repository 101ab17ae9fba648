package staking

import "errors"

// Errors specific to the staking core (spec §4.2).
var (
	ErrPaused            = errors.New("staking paused")
	ErrInsufficientSxlm  = errors.New("insufficient sxlm")
	ErrWithdrawalLocked  = errors.New("withdrawal locked")
	ErrNotOwner          = errors.New("not withdrawal owner")
	ErrAlreadyClaimed    = errors.New("withdrawal already claimed")
	ErrBelowMinStake     = errors.New("deposit below minimum stake")
)
