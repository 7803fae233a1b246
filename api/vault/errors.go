package vault

import "errors"

// Error taxonomy for vault operations. Authorization errors mean the caller
// is not the required identity. Validation errors mean the input is malformed
// or violates policy and must be corrected before resubmitting. State errors
// mean the operation conflicts with the current ledger state and may succeed
// later. Every failure aborts the whole transaction; no partial mutation is
// observable afterwards.
var (
	// Authorization errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidAdmin = errors.New("invalid admin address")

	// Validation errors.
	ErrIdeaIDEmpty           = errors.New("idea id cannot be empty")
	ErrIdeaIDTooLong         = errors.New("idea id must be 64 characters or less")
	ErrInvalidVaultSeed      = errors.New("vault seed must be sha256(idea id)")
	ErrUnauthorizedMint      = errors.New("unauthorized mint: only USDC is allowed")
	ErrInvalidMint           = errors.New("invalid mint")
	ErrInvalidCustodyAccount = errors.New("invalid vault custody account")
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrAmountTooSmall        = errors.New("amount below the minimum deposit")

	// State errors.
	ErrAlreadyInitialized  = errors.New("admin config already initialized")
	ErrNotInitialized      = errors.New("admin config not initialized")
	ErrProtocolPaused      = errors.New("protocol is paused")
	ErrVaultExists         = errors.New("vault already exists for this idea id")
	ErrVaultNotFound       = errors.New("vault not found")
	ErrDepositNotFound     = errors.New("deposit record not found")
	ErrInsufficientDeposit = errors.New("insufficient deposit to withdraw")
	ErrOverflow            = errors.New("arithmetic overflow")
)
