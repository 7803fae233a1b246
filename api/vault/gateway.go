package vault

import "context"

// Authorization is what a caller presents to the transfer gateway to move
// funds out of an account. Exactly one of the two fields is set: Owner when
// the account owner themselves authorized the transfer (deposits, where the
// API layer has already verified the owner's signature), or Proof when a
// vault's derived authority signs on the depositor's behalf (withdrawals and
// admin sweeps).
type Authorization struct {
	Owner Identity
	Proof *AuthorityProof
}

// OwnerAuth authorizes a transfer as the account owner.
func OwnerAuth(owner Identity) Authorization {
	return Authorization{Owner: owner}
}

// DerivedAuth authorizes a transfer with a vault's derivation proof.
func DerivedAuth(seed Seed, bump uint8) Authorization {
	return Authorization{Proof: &AuthorityProof{Seed: seed, Bump: bump}}
}

// TransferGateway is the external collaborator that actually moves token
// balance between custody accounts. The engine treats any gateway failure as
// an opaque abort: the surrounding store transaction rolls back and no local
// mutation survives.
type TransferGateway interface {
	// EnsureAccount creates (or finds) the token account held by owner for
	// mint and returns its address. Account addresses derive
	// deterministically from (owner, mint), so EnsureAccount is idempotent.
	EnsureAccount(ctx context.Context, mint, owner Identity) (Identity, error)

	// Balance returns the current balance of a token account.
	Balance(ctx context.Context, mint, account Identity) (uint64, error)

	// Transfer moves amount from one token account to another. The gateway
	// rejects the transfer unless auth proves control of the source
	// account's owner.
	Transfer(ctx context.Context, mint, from, to Identity, amount uint64, auth Authorization) error
}
