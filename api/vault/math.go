package vault

import "math"

// maxLedgerAmount caps balances at what a postgres BIGINT column can hold.
// Hitting the cap surfaces as the same overflow error as a u64 wraparound
// would, never as silent truncation.
const maxLedgerAmount = math.MaxInt64

// CheckedAdd adds two balances, failing with ErrOverflow instead of wrapping
// or exceeding the ledger range.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a || sum > maxLedgerAmount {
		return 0, ErrOverflow
	}
	return sum, nil
}

// CheckedSub subtracts b from a, failing with ErrOverflow on underflow.
func CheckedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}
