// transaction.go - Transaction data model: inputs, outputs, fee, crossover,
// contract call, and the unproven-to-proven transition.

package wallet

import (
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// Fee is the gas budget of a transaction. Its value is GasLimit*GasPrice;
// unspent gas is refunded to the Refund address.
type Fee struct {
	GasLimit uint64
	GasPrice uint64
	Refund   PublicKey
}

// Value returns the fee value in atomic units.
func (f *Fee) Value() uint64 {
	return f.GasLimit * f.GasPrice
}

// Crossover is a value earmarked for a contract call within the same
// transaction, represented by its value commitment.
type Crossover struct {
	Commitment fr.Element
}

// ContractCall is an invocation of a chain contract carried by a
// transaction.
type ContractCall struct {
	Contract [32]byte
	Data     []byte
}

// TransactionInput is a spent note with everything the prover and chain need
// to accept the spend.
type TransactionInput struct {
	Note      Note
	Value     uint64
	Blinder   fr.Element
	Opening   Opening
	Nullifier fr.Element
	// Signature is the ownership signature over SigningMessage.
	Signature []byte
}

// TransactionOutput is a created note together with the plaintext value and
// blinder the prover needs to open its commitment.
type TransactionOutput struct {
	Note    Note
	Value   uint64
	Blinder fr.Element
}

// UnprovenTransaction is a fully assembled transaction with no proof
// attached. The crossover value and blinder accompany the commitment only in
// this form; the proven Transaction keeps the commitment alone.
type UnprovenTransaction struct {
	Inputs  []TransactionInput
	Outputs []TransactionOutput
	Anchor  fr.Element
	Fee     Fee

	Crossover        *Crossover
	CrossoverValue   uint64
	CrossoverBlinder fr.Element

	Call *ContractCall
}

// Transaction is the proven form accepted downstream.
type Transaction struct {
	Nullifiers []fr.Element
	Outputs    []Note
	Anchor     fr.Element
	Fee        Fee
	Crossover  *Crossover
	Call       *ContractCall
	Proof      Proof
}

// SigningMessage returns the digest every input signature binds: the anchor,
// all nullifiers, all output commitments, the fee, and the crossover
// commitment when present.
func (utx *UnprovenTransaction) SigningMessage() fr.Element {
	elems := make([]fr.Element, 0, 3+len(utx.Inputs)+len(utx.Outputs))
	elems = append(elems, utx.Anchor)
	for i := range utx.Inputs {
		elems = append(elems, utx.Inputs[i].Nullifier)
	}
	for i := range utx.Outputs {
		elems = append(elems, utx.Outputs[i].Note.Commitment)
	}
	var gas fr.Element
	gas.SetUint64(utx.Fee.Value())
	elems = append(elems, gas)
	if utx.Crossover != nil {
		elems = append(elems, utx.Crossover.Commitment)
	}
	return hashToScalar(elems...)
}

// Prove attaches a proof, producing the downstream Transaction. All
// non-proof fields carry over unchanged.
func (utx *UnprovenTransaction) Prove(proof Proof) *Transaction {
	tx := &Transaction{
		Nullifiers: make([]fr.Element, len(utx.Inputs)),
		Outputs:    make([]Note, len(utx.Outputs)),
		Anchor:     utx.Anchor,
		Fee:        utx.Fee,
		Proof:      proof,
	}
	for i := range utx.Inputs {
		tx.Nullifiers[i] = utx.Inputs[i].Nullifier
	}
	for i := range utx.Outputs {
		tx.Outputs[i] = utx.Outputs[i].Note
	}
	if utx.Crossover != nil {
		c := *utx.Crossover
		tx.Crossover = &c
	}
	if utx.Call != nil {
		call := ContractCall{Contract: utx.Call.Contract, Data: append([]byte(nil), utx.Call.Data...)}
		tx.Call = &call
	}
	return tx
}
