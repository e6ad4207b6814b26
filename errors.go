// errors.go - Error kinds surfaced by the transaction builder and its collaborators.

package wallet

import "errors"

var (
	// ErrStoreUnavailable is returned when the seed store cannot be read.
	// Fatal to any operation requiring key derivation.
	ErrStoreUnavailable = errors.New("wallet: seed store unavailable")

	// ErrStateUnavailable is returned when a chain-state query fails.
	ErrStateUnavailable = errors.New("wallet: chain state unavailable")

	// ErrNoteNotFound is returned when a note commitment is absent from the
	// accumulator.
	ErrNoteNotFound = errors.New("wallet: note not found in the accumulator")

	// ErrInsufficientFunds is returned when the spendable set cannot cover
	// the requested value. It is reported before any nullifier is derived.
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")

	// ErrNoteAlreadySpent is returned when the pre-finalization nullifier
	// re-check finds that a selected note was spent by a concurrent build.
	ErrNoteAlreadySpent = errors.New("wallet: note already spent")

	// ErrNoStake is returned by stake-mutating operations when the staking
	// key has no stake on chain.
	ErrNoStake = errors.New("wallet: no stake found for key")

	// ErrNoStakeValue is returned by Stake when the requested value is
	// zero; a stake always crosses a positive value over.
	ErrNoStakeValue = errors.New("wallet: stake value must be positive")

	// ErrNoReward is returned by WithdrawReward when the stake account has
	// no accumulated reward.
	ErrNoReward = errors.New("wallet: no reward to withdraw")

	// ErrValueOverflow is returned when the requested values, fee and
	// crossover together exceed the 64-bit value range.
	ErrValueOverflow = errors.New("wallet: value overflow")

	// ErrProofGeneration is returned when the prover collaborator fails.
	// The assembled transaction is discarded; none of its nullifiers are
	// considered published.
	ErrProofGeneration = errors.New("wallet: proof generation failed")

	// ErrSerializationMismatch is returned when a decoded transaction
	// differs from the encoded original. It is never silently tolerated.
	ErrSerializationMismatch = errors.New("wallet: serialization mismatch")
)
