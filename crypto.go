// crypto.go - Cryptographic primitives and utilities for the wallet core.
//
// Implements MiMC-based PRFs and commitments over the BLS12-377 scalar field,
// Diffie-Hellman on the embedded twisted Edwards curve, and secure randomness.

package wallet

import (
	"crypto/rand"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr/mimc"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/twistededwards"
)

// hashToScalar MiMC-hashes whole field elements into a single scalar.
// Every input is written as its 32-byte canonical form, so the digest is
// reproducible inside a BLS12-377 circuit.
func hashToScalar(elems ...fr.Element) fr.Element {
	h := mimc.NewMiMC()
	for i := range elems {
		b := elems[i].Bytes()
		h.Write(b[:])
	}
	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}

// nullifierPRF derives the nullifier of a note from the holder's nullifier
// key and the note's rho. Deterministic per (note, key) pair.
func nullifierPRF(key, rho fr.Element) fr.Element {
	return hashToScalar(key, rho)
}

// noteCommitment commits to all note fields: cm = H(type, value, blinder, owner, rho).
func noteCommitment(t NoteType, value uint64, blinder, owner, rho fr.Element) fr.Element {
	var tElt, vElt fr.Element
	tElt.SetUint64(uint64(t))
	vElt.SetUint64(value)
	return hashToScalar(tElt, vElt, blinder, owner, rho)
}

// ValueCommitment commits to a bare (value, blinder) pair. Used for the
// crossover value and for contract withdrawal proofs, where no note fields
// are bound.
func ValueCommitment(value uint64, blinder fr.Element) fr.Element {
	var vElt fr.Element
	vElt.SetUint64(value)
	return hashToScalar(vElt, blinder)
}

// randomScalar returns a uniformly random BLS12-377 scalar.
func randomScalar() fr.Element {
	var e fr.Element
	if _, err := e.SetRandom(); err != nil {
		panic(err)
	}
	return e
}

// randomEdwardsScalar returns a uniformly random scalar modulo the order of
// the embedded Edwards subgroup.
func randomEdwardsScalar() *big.Int {
	curve := twistededwards.GetEdwardsCurve()
	s, err := rand.Int(rand.Reader, &curve.Order)
	if err != nil {
		panic(err)
	}
	return s
}

// scalarMulBase computes s*G on the embedded Edwards curve.
func scalarMulBase(s *big.Int) twistededwards.PointAffine {
	curve := twistededwards.GetEdwardsCurve()
	var p twistededwards.PointAffine
	p.ScalarMultiplication(&curve.Base, s)
	return p
}

// sharedPoint computes the Diffie-Hellman shared point s*P.
func sharedPoint(s *big.Int, p *twistededwards.PointAffine) twistededwards.PointAffine {
	var shared twistededwards.PointAffine
	shared.ScalarMultiplication(p, s)
	return shared
}

// maskChain derives n masking scalars from a shared point by chaining MiMC.
// Mask i+1 is the hash of mask i, so sender and receiver agree on the whole
// chain from the shared point alone.
func maskChain(shared twistededwards.PointAffine, n int) []fr.Element {
	masks := make([]fr.Element, n)
	cur := hashToScalar(shared.X, shared.Y)
	for i := 0; i < n; i++ {
		masks[i] = cur
		cur = hashToScalar(cur)
	}
	return masks
}
