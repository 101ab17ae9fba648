package lending

import "errors"

// Errors specific to the lending core (spec §4.3).
var (
	ErrPositionEmpty          = errors.New("position empty")
	ErrUnhealthyAfter         = errors.New("position unhealthy after operation")
	ErrInsufficientPoolLiquidity = errors.New("insufficient pool liquidity")
	ErrHealthyBorrower        = errors.New("borrower is healthy")
	ErrNothingToRepay         = errors.New("nothing to repay")
)
