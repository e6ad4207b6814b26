// note.go - Note type and construction for the confidential wallet core.
//
// A Note is a value commitment owned by the holder of a view/spend key pair.
// Transparent notes carry their value in the clear; Obfuscated notes hide it
// behind a blinding factor and an encryption only the view key can undo.
// Notes are immutable once created.

package wallet

import (
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/twistededwards"
)

// NoteType distinguishes value-visible from value-hidden notes.
type NoteType uint8

const (
	// Transparent notes expose their value on chain.
	Transparent NoteType = iota
	// Obfuscated notes hide their value behind a blinding factor.
	Obfuscated
)

// Note is a confidential value commitment bound to a recipient.
type Note struct {
	Type NoteType
	// R is the sender's ephemeral Diffie-Hellman point; combined with the
	// recipient's view scalar it yields the shared point used for the
	// ownership tag and value encryption.
	R twistededwards.PointAffine
	// Owner is the one-time ownership tag H(shared.X, shared.Y, rho).
	Owner fr.Element
	// Rho is the per-note uniqueness scalar the nullifier is derived from.
	Rho fr.Element
	// Commitment is H(type, value, blinder, owner, rho).
	Commitment fr.Element
	// Pos is the note's position in the accumulator, assigned by the chain.
	// Zero until the note is included.
	Pos uint64

	// Value is the plaintext value; meaningful for Transparent notes only.
	Value uint64
	// EncValue and EncBlinder are the masked value and blinding factor;
	// meaningful for Obfuscated notes only.
	EncValue   fr.Element
	EncBlinder fr.Element
}

// EnrichedNote pairs a note with its block marker, disambiguating notes with
// identical commitments.
type EnrichedNote struct {
	Note   Note
	Height uint64
}

// NewTransparentNote creates a value-visible note for the receiver. The
// blinding factor is fixed to zero.
func NewTransparentNote(receiver PublicKey, value uint64) Note {
	var zero fr.Element
	return newNote(Transparent, receiver, value, zero)
}

// NewObfuscatedNote creates a value-hidden note for the receiver using the
// given blinding factor.
func NewObfuscatedNote(receiver PublicKey, value uint64, blinder fr.Element) Note {
	return newNote(Obfuscated, receiver, value, blinder)
}

func newNote(t NoteType, receiver PublicKey, value uint64, blinder fr.Element) Note {
	r := randomEdwardsScalar()
	shared := sharedPoint(r, &receiver.View)
	rho := randomScalar()
	owner := hashToScalar(shared.X, shared.Y, rho)

	n := Note{
		Type:  t,
		R:     scalarMulBase(r),
		Owner: owner,
		Rho:   rho,
	}
	if t == Transparent {
		n.Value = value
	} else {
		masks := maskChain(shared, 2)
		var vElt fr.Element
		vElt.SetUint64(value)
		n.EncValue.Add(&vElt, &masks[0])
		n.EncBlinder.Add(&blinder, &masks[1])
	}
	n.Commitment = noteCommitment(t, value, blinder, owner, rho)
	return n
}
