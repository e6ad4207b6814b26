// Package wallet implements the transaction-construction core of a
// confidential wallet.
//
// Overview:
//   - Derives spend/view key pairs deterministically from a 64-byte master seed
//   - Maintains a per-build view of the spendable note set against live chain state
//   - Selects input notes, derives nullifiers and blinding factors, and assembles
//     value-conserving transactions with change and optional contract crossovers
//   - Hands assembled transactions to an external prover and returns them fully proven
//
// Security Model:
//   - Uses MiMC over the BLS12-377 scalar field for commitments and PRFs
//   - Uses the BLS12-377 embedded twisted Edwards curve for note encryption
//     (Diffie-Hellman) and EdDSA ownership signatures
//   - Nullifiers prevent double-spending; commitments ensure confidentiality
//   - All randomness is generated using crypto/rand
//
// The chain-state oracle (StateClient), seed store (Store), and proof service
// (ProverClient) are collaborator interfaces with swappable implementations:
// in-memory doubles live in this package, networked clients in package remote,
// and a Groth16-backed prover in package prover.
//
// The core is synchronous and performs no locking of its own; callers must
// serialize concurrent builds against the same key index or accept the risk of
// a double-spend rejection surfacing later from the chain.
package wallet
