// stake.go - Stake-mutating flows: stake, unstake, reward withdrawal.
//
// The value-moving parts follow the same selection-and-assembly path as a
// transfer. Every stake-mutating call embeds the replay-protection counter
// read at build time; a verifier rejects a second call carrying the same
// counter.

package wallet

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"golang.org/x/crypto/blake2b"
)

// StakeContract identifies the staking contract targeted by the stake flows.
var StakeContract = contractID("stake")

func contractID(name string) [32]byte {
	return blake2b.Sum256([]byte(name))
}

// contractAddress maps a contract id into the scalar field for proof
// requests.
func contractAddress(id [32]byte) fr.Element {
	var a fr.Element
	a.SetBytes(id[:])
	return a
}

// stakeCallData is the canonical payload of a stake call.
type stakeCallData struct {
	PublicKey []byte `cbor:"public_key"`
	Signature []byte `cbor:"signature"`
	Value     uint64 `cbor:"value"`
	Proof     []byte `cbor:"proof"`
	Counter   uint64 `cbor:"counter"`
}

// unstakeCallData is the canonical payload of an unstake call. Note is the
// withdrawal note the contract releases the stake into.
type unstakeCallData struct {
	PublicKey []byte `cbor:"public_key"`
	Signature []byte `cbor:"signature"`
	Note      []byte `cbor:"note"`
	Proof     []byte `cbor:"proof"`
	Counter   uint64 `cbor:"counter"`
}

// withdrawCallData is the canonical payload of a reward withdrawal call.
type withdrawCallData struct {
	PublicKey []byte `cbor:"public_key"`
	Signature []byte `cbor:"signature"`
	Note      []byte `cbor:"note"`
	Counter   uint64 `cbor:"counter"`
}

// Stake locks value into the staking contract. The value crosses over to
// the contract call, authorized by an STCT proof.
func (w *Wallet) Stake(senderIndex uint64, value uint64, fee Fee) (*Transaction, error) {
	if value == 0 {
		return nil, ErrNoStakeValue
	}
	sk, err := w.secretKey(senderIndex)
	if err != nil {
		return nil, err
	}
	pk := sk.PublicKey()

	info, err := w.state.FetchStake(pk)
	if err != nil {
		return nil, fmt.Errorf("fetching stake: %w", err)
	}

	utx, err := w.buildUnproven(sk, nil, fee, value)
	if err != nil {
		return nil, err
	}

	var counterElt, valueElt fr.Element
	counterElt.SetUint64(info.Counter)
	valueElt.SetUint64(value)
	sig, err := sk.sign(hashToScalar(counterElt, valueElt, utx.Crossover.Commitment))
	if err != nil {
		return nil, fmt.Errorf("signing stake: %w", err)
	}

	proof, err := w.prover.RequestStctProof(
		utx.Fee, *utx.Crossover, value, utx.CrossoverBlinder, contractAddress(StakeContract), sig)
	if err != nil {
		return nil, fmt.Errorf("requesting stct proof: %w", err)
	}

	data, err := encodeCanonical(stakeCallData{
		PublicKey: pk.Bytes(),
		Signature: sig,
		Value:     value,
		Proof:     proof,
		Counter:   info.Counter,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding stake payload: %w", err)
	}
	utx.Call = &ContractCall{Contract: StakeContract, Data: data}

	return w.finalize(utx)
}

// Unstake withdraws the staked amount back into a fresh note owned by the
// sender, authorized by a WFCT proof over the released value.
func (w *Wallet) Unstake(senderIndex uint64, fee Fee) (*Transaction, error) {
	sk, err := w.secretKey(senderIndex)
	if err != nil {
		return nil, err
	}
	pk := sk.PublicKey()

	info, err := w.state.FetchStake(pk)
	if err != nil {
		return nil, fmt.Errorf("fetching stake: %w", err)
	}
	if info.Amount == nil {
		return nil, ErrNoStake
	}
	value := info.Amount.Value

	utx, err := w.buildUnproven(sk, nil, fee, 0)
	if err != nil {
		return nil, err
	}

	blinder := randomScalar()
	note := NewObfuscatedNote(pk, value, blinder)
	proof, err := w.prover.RequestWfctProof(ValueCommitment(value, blinder), value, blinder)
	if err != nil {
		return nil, fmt.Errorf("requesting wfct proof: %w", err)
	}

	var counterElt fr.Element
	counterElt.SetUint64(info.Counter)
	sig, err := sk.sign(hashToScalar(counterElt, note.Commitment))
	if err != nil {
		return nil, fmt.Errorf("signing unstake: %w", err)
	}

	noteBytes, err := note.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encoding withdrawal note: %w", err)
	}
	data, err := encodeCanonical(unstakeCallData{
		PublicKey: pk.Bytes(),
		Signature: sig,
		Note:      noteBytes,
		Proof:     proof,
		Counter:   info.Counter,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding unstake payload: %w", err)
	}
	utx.Call = &ContractCall{Contract: StakeContract, Data: data}

	return w.finalize(utx)
}

// WithdrawReward moves the accumulated staking reward into a fresh note
// owned by the sender.
func (w *Wallet) WithdrawReward(senderIndex uint64, fee Fee) (*Transaction, error) {
	sk, err := w.secretKey(senderIndex)
	if err != nil {
		return nil, err
	}
	pk := sk.PublicKey()

	info, err := w.state.FetchStake(pk)
	if err != nil {
		return nil, fmt.Errorf("fetching stake: %w", err)
	}
	if info.Reward == 0 {
		return nil, ErrNoReward
	}

	utx, err := w.buildUnproven(sk, nil, fee, 0)
	if err != nil {
		return nil, err
	}

	blinder := randomScalar()
	note := NewObfuscatedNote(pk, info.Reward, blinder)

	var counterElt fr.Element
	counterElt.SetUint64(info.Counter)
	sig, err := sk.sign(hashToScalar(counterElt, note.Commitment))
	if err != nil {
		return nil, fmt.Errorf("signing withdrawal: %w", err)
	}

	noteBytes, err := note.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encoding reward note: %w", err)
	}
	data, err := encodeCanonical(withdrawCallData{
		PublicKey: pk.Bytes(),
		Signature: sig,
		Note:      noteBytes,
		Counter:   info.Counter,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding withdrawal payload: %w", err)
	}
	utx.Call = &ContractCall{Contract: StakeContract, Data: data}

	return w.finalize(utx)
}
