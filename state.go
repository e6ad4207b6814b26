// state.go - Chain-state oracle boundary.
//
// Every StateClient operation may block on external I/O and is fallible.
// None of them mutate chain state; inputs and results are owned copies.

package wallet

import (
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// StakeAmount is the staked value and the height at which it becomes
// eligible.
type StakeAmount struct {
	Value       uint64
	Eligibility uint64
}

// StakeInfo is the state of a stake account. A key with no stake has a nil
// Amount and zero Reward and Counter; that is not an error. Counter is the
// replay-protection counter: it must be read before, and is logically
// incremented by, every stake-mutating call.
type StakeInfo struct {
	Amount  *StakeAmount
	Reward  uint64
	Counter uint64
}

// StateClient exposes the chain state the builder needs. Implementations
// report query failures with ErrStateUnavailable and absent commitments with
// ErrNoteNotFound.
type StateClient interface {
	// FetchNotes returns all notes the view key can decrypt ownership of.
	// Order is insignificant; the result may include already-spent notes.
	FetchNotes(vk ViewKey) ([]EnrichedNote, error)

	// FetchAnchor returns the current accumulator root. It changes over
	// time and must be fetched fresh per transaction build.
	FetchAnchor() (fr.Element, error)

	// FetchExistingNullifiers returns the subset of the candidates already
	// published on chain.
	FetchExistingNullifiers(nullifiers []fr.Element) ([]fr.Element, error)

	// FetchOpening returns the inclusion proof of the note against the
	// current accumulator state.
	FetchOpening(note Note) (Opening, error)

	// FetchStake returns the stake account state for the public key.
	FetchStake(pk PublicKey) (StakeInfo, error)
}
