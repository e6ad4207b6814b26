// keys.go - Deterministic key derivation and the spend/view key split.
//
// A SecretKey is derived as a pure function of (seed, index): the same pair
// always yields the same key material, so keys never need to be persisted.

package wallet

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr/mimc"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/twistededwards"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/twistededwards/eddsa"
	"golang.org/x/crypto/blake2b"
)

// keyDerivationTag domain-separates the wallet key stream from any other use
// of the seed.
const keyDerivationTag = "wallet-core-keys"

// SecretKey is the full key material for one wallet index: an EdDSA spend
// key, a nullifier-derivation scalar, and a view scalar for note detection
// and decryption.
type SecretKey struct {
	spend     *eddsa.PrivateKey
	nullifier fr.Element
	view      *big.Int
}

// ViewKey can detect note ownership and decrypt obfuscated values, but
// cannot spend.
type ViewKey struct {
	view  *big.Int
	Spend eddsa.PublicKey
}

// PublicKey is a receiving address: the view point and the spend public key.
type PublicKey struct {
	View  twistededwards.PointAffine
	Spend eddsa.PublicKey
}

// DeriveSecretKey derives the key material for the given index from the
// master seed. Pure function of its inputs.
func DeriveSecretKey(seed [SeedSize]byte, index uint64) (*SecretKey, error) {
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, seed[:])
	if err != nil {
		return nil, fmt.Errorf("initializing key stream: %w", err)
	}
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], index)
	xof.Write([]byte(keyDerivationTag))
	xof.Write(idx[:])

	spend, err := eddsa.GenerateKey(xof)
	if err != nil {
		return nil, fmt.Errorf("deriving spend key: %w", err)
	}

	var wide [64]byte
	if _, err := xof.Read(wide[:]); err != nil {
		return nil, fmt.Errorf("deriving nullifier key: %w", err)
	}
	var nullifier fr.Element
	nullifier.SetBigInt(new(big.Int).SetBytes(wide[:]))

	if _, err := xof.Read(wide[:]); err != nil {
		return nil, fmt.Errorf("deriving view key: %w", err)
	}
	curve := twistededwards.GetEdwardsCurve()
	view := new(big.Int).SetBytes(wide[:])
	view.Mod(view, &curve.Order)

	return &SecretKey{spend: spend, nullifier: nullifier, view: view}, nil
}

// PublicKey returns the receiving address for this key.
func (sk *SecretKey) PublicKey() PublicKey {
	return PublicKey{
		View:  scalarMulBase(sk.view),
		Spend: sk.spend.PublicKey,
	}
}

// ViewKey returns the detection/decryption capability for this key.
func (sk *SecretKey) ViewKey() ViewKey {
	return ViewKey{view: new(big.Int).Set(sk.view), Spend: sk.spend.PublicKey}
}

// Nullifier derives the nullifier this key produces when spending the note.
func (sk *SecretKey) Nullifier(note *Note) fr.Element {
	return nullifierPRF(sk.nullifier, note.Rho)
}

// sign produces an EdDSA signature over a single-scalar digest.
func (sk *SecretKey) sign(digest fr.Element) ([]byte, error) {
	b := digest.Bytes()
	return sk.spend.Sign(b[:], mimc.NewMiMC())
}

// Owns reports whether the note was created for this view key.
func (vk *ViewKey) Owns(note *Note) bool {
	shared := sharedPoint(vk.view, &note.R)
	tag := hashToScalar(shared.X, shared.Y, note.Rho)
	return tag.Equal(&note.Owner)
}

// DecryptValue recovers the plaintext value and blinding factor of a note
// owned by this view key. Transparent notes carry their value in the clear
// with a zero blinder.
func (vk *ViewKey) DecryptValue(note *Note) (uint64, fr.Element, error) {
	if note.Type == Transparent {
		var zero fr.Element
		return note.Value, zero, nil
	}
	shared := sharedPoint(vk.view, &note.R)
	masks := maskChain(shared, 2)
	var vElt, blinder fr.Element
	vElt.Sub(&note.EncValue, &masks[0])
	blinder.Sub(&note.EncBlinder, &masks[1])
	v := vElt.BigInt(new(big.Int))
	if !v.IsUint64() {
		return 0, fr.Element{}, fmt.Errorf("decrypting note value: not a 64-bit value")
	}
	return v.Uint64(), blinder, nil
}

// Bytes encodes the view key as view scalar || spend public key.
func (vk *ViewKey) Bytes() []byte {
	out := make([]byte, elementSize)
	vk.view.FillBytes(out)
	return append(out, vk.Spend.Bytes()...)
}

// SetBytes decodes a view key produced by Bytes.
func (vk *ViewKey) SetBytes(data []byte) error {
	if len(data) != 2*elementSize {
		return fmt.Errorf("decoding view key: expected %d bytes, got %d", 2*elementSize, len(data))
	}
	vk.view = new(big.Int).SetBytes(data[:elementSize])
	if _, err := vk.Spend.SetBytes(data[elementSize:]); err != nil {
		return fmt.Errorf("decoding view key: %w", err)
	}
	return nil
}

// Bytes encodes the address as view point || spend public key.
func (pk *PublicKey) Bytes() []byte {
	return append(pk.View.Marshal(), pk.Spend.Bytes()...)
}

// SetBytes decodes an address produced by Bytes.
func (pk *PublicKey) SetBytes(data []byte) error {
	if len(data) != 2*elementSize {
		return fmt.Errorf("decoding public key: expected %d bytes, got %d", 2*elementSize, len(data))
	}
	if err := pk.View.Unmarshal(data[:elementSize]); err != nil {
		return fmt.Errorf("decoding public key: %w", err)
	}
	if _, err := pk.Spend.SetBytes(data[elementSize:]); err != nil {
		return fmt.Errorf("decoding public key: %w", err)
	}
	return nil
}

// Equal reports whether two addresses are the same.
func (pk *PublicKey) Equal(other *PublicKey) bool {
	return pk.View.Equal(&other.View) && pk.Spend.A.Equal(&other.Spend.A)
}
