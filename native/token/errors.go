package token

import "errors"

// Errors specific to the receipt-token ledger (spec §4.1).
var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrAllowanceExpired      = errors.New("allowance expired")
)
