// prover.go - Proof service boundary.

package wallet

import (
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// Proof is an opaque proof payload. The core only checks shape; verification
// is the chain's responsibility.
type Proof []byte

// ProverClient turns assembled transactions into proven ones and issues the
// auxiliary proofs for contract-call value transfers. Implementations report
// failures with ErrProofGeneration.
type ProverClient interface {
	// ComputeProofAndPropagate attaches a proof to the transaction. The
	// returned Transaction's non-proof fields must be field-for-field
	// identical to the input's.
	ComputeProofAndPropagate(utx *UnprovenTransaction) (*Transaction, error)

	// RequestStctProof returns a proof authorizing movement of a crossover
	// value into a staking contract call ("send to contract transparent").
	RequestStctProof(fee Fee, crossover Crossover, value uint64, blinder fr.Element, address fr.Element, signature []byte) (Proof, error)

	// RequestWfctProof returns a proof authorizing withdrawal of a
	// commitment's value out of a contract call ("withdraw from contract
	// transparent").
	RequestWfctProof(commitment fr.Element, value uint64, blinder fr.Element) (Proof, error)
}
