package wallet

import (
	"math"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr/mimc"
	"github.com/stretchr/testify/require"
)

// stubProver is a ProverClient that attaches a fixed proof and records every
// call for inspection.
type stubProver struct {
	calls     int
	stctCalls int
	wfctCalls int
	lastUtx   *UnprovenTransaction
	lastWfct  fr.Element
}

func (p *stubProver) ComputeProofAndPropagate(utx *UnprovenTransaction) (*Transaction, error) {
	p.calls++
	p.lastUtx = utx
	return utx.Prove(Proof("stub-proof")), nil
}

func (p *stubProver) RequestStctProof(fee Fee, crossover Crossover, value uint64, blinder fr.Element, address fr.Element, signature []byte) (Proof, error) {
	p.stctCalls++
	return Proof("stub-stct"), nil
}

func (p *stubProver) RequestWfctProof(commitment fr.Element, value uint64, blinder fr.Element) (Proof, error) {
	p.wfctCalls++
	p.lastWfct = commitment
	return Proof("stub-wfct"), nil
}

// countingState wraps a StateClient and counts queries. The optional
// afterNullifiers hook runs after each FetchExistingNullifiers call.
type countingState struct {
	StateClient
	anchorCalls     int
	nullifierCalls  int
	afterNullifiers func(calls int)
}

func (s *countingState) FetchAnchor() (fr.Element, error) {
	s.anchorCalls++
	return s.StateClient.FetchAnchor()
}

func (s *countingState) FetchExistingNullifiers(nullifiers []fr.Element) ([]fr.Element, error) {
	existing, err := s.StateClient.FetchExistingNullifiers(nullifiers)
	s.nullifierCalls++
	if s.afterNullifiers != nil {
		s.afterNullifiers(s.nullifierCalls)
	}
	return existing, err
}

func testSeed(fill byte) [SeedSize]byte {
	var seed [SeedSize]byte
	for i := range seed {
		seed[i] = fill
	}
	return seed
}

// newTestWallet wires a wallet over in-memory collaborators and funds key
// index 0 with one obfuscated note per value.
func newTestWallet(t *testing.T, values ...uint64) (*Wallet, *MemoryState, *countingState, *stubProver) {
	t.Helper()
	store := NewMemoryStore(testSeed(0xA5))
	state := NewMemoryState()
	counting := &countingState{StateClient: state}
	prover := &stubProver{}
	w := New(store, counting, prover)

	pk, err := w.PublicKey(0)
	require.NoError(t, err)
	for _, v := range values {
		_, err := state.AddNote(NewObfuscatedNote(pk, v, randomScalar()), 1)
		require.NoError(t, err)
	}
	return w, state, counting, prover
}

func TestBalance(t *testing.T) {
	w, state, _, _ := newTestWallet(t, 100, 250, 50)

	balance, err := w.Balance(0)
	require.NoError(t, err)
	require.Equal(t, uint64(400), balance)

	// Publishing a note's nullifier removes it from the spendable set.
	seed := testSeed(0xA5)
	sk, err := DeriveSecretKey(seed, 0)
	require.NoError(t, err)
	notes, err := state.FetchNotes(sk.ViewKey())
	require.NoError(t, err)
	var spent *Note
	for i := range notes {
		if vk := sk.ViewKey(); vk.Owns(&notes[i].Note) {
			v, _, err := vk.DecryptValue(&notes[i].Note)
			require.NoError(t, err)
			if v == 250 {
				spent = &notes[i].Note
			}
		}
	}
	require.NotNil(t, spent)
	state.PublishNullifier(sk.Nullifier(spent))

	balance, err = w.Balance(0)
	require.NoError(t, err)
	require.Equal(t, uint64(150), balance)
}

func TestTransferConservation(t *testing.T) {
	w, _, _, prover := newTestWallet(t, 100, 250, 50)

	receiverStore := NewMemoryStore(testSeed(0x3C))
	receiverWallet := New(receiverStore, NewMemoryState(), &stubProver{})
	receiver, err := receiverWallet.PublicKey(0)
	require.NoError(t, err)

	fee := Fee{GasLimit: 10, GasPrice: 2}
	tx, err := w.Transfer(0, receiver, 80, fee)
	require.NoError(t, err)
	require.NotNil(t, tx)
	require.Equal(t, Proof("stub-proof"), tx.Proof)

	utx := prover.lastUtx
	require.NotNil(t, utx)

	var inSum, outSum uint64
	for i := range utx.Inputs {
		inSum += utx.Inputs[i].Value
	}
	for i := range utx.Outputs {
		outSum += utx.Outputs[i].Value
	}
	require.Equal(t, inSum, outSum+fee.Value(), "input value must equal outputs plus fee")

	// The receiver's view key decrypts exactly one output worth 80.
	rvk, err := receiverWallet.ViewKey(0)
	require.NoError(t, err)
	received := 0
	for i := range utx.Outputs {
		if rvk.Owns(&utx.Outputs[i].Note) {
			v, _, err := rvk.DecryptValue(&utx.Outputs[i].Note)
			require.NoError(t, err)
			require.Equal(t, uint64(80), v)
			received++
		}
	}
	require.Equal(t, 1, received)
}

func TestTransferSelectsFewestNotes(t *testing.T) {
	w, _, _, prover := newTestWallet(t, 50, 25, 100)

	receiver := otherPublicKey(t, 0x3C)
	// Target is 60: the single 100 note must win over any pair.
	_, err := w.Transfer(0, receiver, 50, Fee{GasLimit: 10, GasPrice: 1})
	require.NoError(t, err)

	utx := prover.lastUtx
	require.Len(t, utx.Inputs, 1)
	require.Equal(t, uint64(100), utx.Inputs[0].Value)
}

func TestTransferChangeNote(t *testing.T) {
	w, _, _, prover := newTestWallet(t, 100)

	receiver := otherPublicKey(t, 0x3C)
	_, err := w.Transfer(0, receiver, 70, Fee{GasLimit: 10, GasPrice: 1})
	require.NoError(t, err)

	// 100 in, 70 out, 10 fee: a 20-value change note back to the sender.
	utx := prover.lastUtx
	require.Len(t, utx.Outputs, 2)
	vk, err := w.ViewKey(0)
	require.NoError(t, err)
	var change uint64
	for i := range utx.Outputs {
		if vk.Owns(&utx.Outputs[i].Note) {
			v, _, err := vk.DecryptValue(&utx.Outputs[i].Note)
			require.NoError(t, err)
			change = v
		}
	}
	require.Equal(t, uint64(20), change)
}

func TestTransferNoChangeOnExactMatch(t *testing.T) {
	w, _, _, prover := newTestWallet(t, 80)

	receiver := otherPublicKey(t, 0x3C)
	_, err := w.Transfer(0, receiver, 70, Fee{GasLimit: 10, GasPrice: 1})
	require.NoError(t, err)

	require.Len(t, prover.lastUtx.Outputs, 1)
}

func TestTransferInsufficientFunds(t *testing.T) {
	w, _, counting, prover := newTestWallet(t, 10, 10)

	receiver := otherPublicKey(t, 0x3C)
	_, err := w.Transfer(0, receiver, 25, Fee{})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	// The shortfall is detected before any nullifier leaves the wallet and
	// before the prover is contacted.
	require.Equal(t, 0, counting.nullifierCalls)
	require.Equal(t, 0, prover.calls)
}

func TestTransferValueOverflow(t *testing.T) {
	w, _, counting, prover := newTestWallet(t, 100)
	receiver := otherPublicKey(t, 0x3C)

	// GasLimit*GasPrice wraps uint64.
	_, err := w.Transfer(0, receiver, 10, Fee{GasLimit: math.MaxUint64, GasPrice: 2})
	require.ErrorIs(t, err, ErrValueOverflow)

	// value + fee wraps uint64.
	_, err = w.Transfer(0, receiver, math.MaxUint64, Fee{GasLimit: 1, GasPrice: 1})
	require.ErrorIs(t, err, ErrValueOverflow)

	require.Equal(t, 0, counting.nullifierCalls)
	require.Equal(t, 0, prover.calls)
}

func TestTransferSingleAnchor(t *testing.T) {
	w, _, counting, prover := newTestWallet(t, 100, 200)

	receiver := otherPublicKey(t, 0x3C)
	_, err := w.Transfer(0, receiver, 150, Fee{GasLimit: 1, GasPrice: 1})
	require.NoError(t, err)
	require.Equal(t, 1, counting.anchorCalls)

	// Every input opening verifies against the one anchor.
	utx := prover.lastUtx
	for i := range utx.Inputs {
		in := &utx.Inputs[i]
		require.True(t, in.Opening.Verify(in.Note.Commitment, utx.Anchor))
	}
}

func TestTransferSignatures(t *testing.T) {
	w, _, _, prover := newTestWallet(t, 100, 200)

	receiver := otherPublicKey(t, 0x3C)
	_, err := w.Transfer(0, receiver, 150, Fee{GasLimit: 1, GasPrice: 1})
	require.NoError(t, err)

	sk, err := DeriveSecretKey(testSeed(0xA5), 0)
	require.NoError(t, err)
	pub := sk.PublicKey().Spend

	utx := prover.lastUtx
	msg := utx.SigningMessage()
	digest := msg.Bytes()
	for i := range utx.Inputs {
		ok, err := pub.Verify(utx.Inputs[i].Signature, digest[:], mimc.NewMiMC())
		require.NoError(t, err)
		require.True(t, ok)
	}
}

func TestTransferRefusesDoubleSpend(t *testing.T) {
	w, state, counting, prover := newTestWallet(t, 100)

	sk, err := DeriveSecretKey(testSeed(0xA5), 0)
	require.NoError(t, err)
	notes, err := state.FetchNotes(sk.ViewKey())
	require.NoError(t, err)
	require.Len(t, notes, 1)
	nullifier := sk.Nullifier(&notes[0].Note)

	// Publish the note's nullifier between selection and finalization,
	// simulating a concurrent build landing first.
	counting.afterNullifiers = func(calls int) {
		if calls == 1 {
			state.PublishNullifier(nullifier)
		}
	}

	receiver := otherPublicKey(t, 0x3C)
	_, err = w.Transfer(0, receiver, 50, Fee{GasLimit: 1, GasPrice: 1})
	require.ErrorIs(t, err, ErrNoteAlreadySpent)
	require.Equal(t, 0, prover.calls)
}

func TestTransferDeduplicatesNotes(t *testing.T) {
	store := NewMemoryStore(testSeed(0xA5))
	state := NewMemoryState()
	prover := &stubProver{}
	w := New(store, state, prover)

	pk, err := w.PublicKey(0)
	require.NoError(t, err)

	// The same note reported twice by the state must count once.
	note := NewObfuscatedNote(pk, 100, randomScalar())
	positioned, err := state.AddNote(note, 1)
	require.NoError(t, err)
	state.mu.Lock()
	state.notes = append(state.notes, EnrichedNote{Note: positioned, Height: 2})
	state.mu.Unlock()

	balance, err := w.Balance(0)
	require.NoError(t, err)
	require.Equal(t, uint64(100), balance)
}

// otherPublicKey derives a receiving address from an unrelated seed.
func otherPublicKey(t *testing.T, fill byte) PublicKey {
	t.Helper()
	sk, err := DeriveSecretKey(testSeed(fill), 0)
	require.NoError(t, err)
	return sk.PublicKey()
}
