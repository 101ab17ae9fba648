package amm

import "errors"

// Errors specific to the AMM core (spec §4.4).
var (
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrSlippageExceeded      = errors.New("slippage exceeded")
	ErrInvariantViolated     = errors.New("invariant k violated")
	ErrBelowMinLiquidity     = errors.New("below minimum liquidity")
)
