package prover

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark/test"
	"github.com/stretchr/testify/require"

	wallet "github.com/artifex11/wallet-core"
)

func testSeed(fill byte) [wallet.SeedSize]byte {
	var seed [wallet.SeedSize]byte
	for i := range seed {
		seed[i] = fill
	}
	return seed
}

func randomTestScalar(t *testing.T) fr.Element {
	t.Helper()
	var e fr.Element
	_, err := e.SetRandom()
	require.NoError(t, err)
	return e
}

func TestValueCommitmentCircuit(t *testing.T) {
	blinder := randomTestScalar(t)
	commitment := wallet.ValueCommitment(42, blinder)

	assert := test.NewAssert(t)
	assert.CheckCircuit(&valueCommitmentCircuit{},
		test.WithCurves(ecc.BLS12_377),
		test.WithValidAssignment(&valueCommitmentCircuit{
			Commitment: toVar(commitment),
			Value:      42,
			Blinder:    toVar(blinder),
		}),
		test.WithInvalidAssignment(&valueCommitmentCircuit{
			Commitment: toVar(commitment),
			Value:      43,
			Blinder:    toVar(blinder),
		}),
	)
}

func TestTransferCircuitSolves(t *testing.T) {
	utx := buildTransfer(t)

	err := test.IsSolved(
		newTransferCircuit(len(utx.Inputs), len(utx.Outputs)),
		assignTransfer(utx),
		ecc.BLS12_377.ScalarField(),
	)
	require.NoError(t, err)
}

func TestTransferCircuitRejectsInflation(t *testing.T) {
	utx := buildTransfer(t)

	// Claiming a larger input value breaks the commitment opening.
	bad := assignTransfer(utx)
	bad.InputValues[0] = utx.Inputs[0].Value + 1

	err := test.IsSolved(
		newTransferCircuit(len(utx.Inputs), len(utx.Outputs)),
		bad,
		ecc.BLS12_377.ScalarField(),
	)
	require.Error(t, err)
}

func TestTransferCircuitRejectsWrongAnchor(t *testing.T) {
	utx := buildTransfer(t)

	bad := assignTransfer(utx)
	bad.Anchor = toVar(randomTestScalar(t))

	err := test.IsSolved(
		newTransferCircuit(len(utx.Inputs), len(utx.Outputs)),
		bad,
		ecc.BLS12_377.ScalarField(),
	)
	require.Error(t, err)
}

func TestLocalProverTransfer(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup and proving")
	}

	store := wallet.NewMemoryStore(testSeed(0xA5))
	state := wallet.NewMemoryState()
	w := wallet.New(store, state, NewLocalProver(t.TempDir()))

	pk, err := w.PublicKey(0)
	require.NoError(t, err)
	_, err = state.AddNote(wallet.NewObfuscatedNote(pk, 100, randomTestScalar(t)), 1)
	require.NoError(t, err)

	receiver, err := wallet.DeriveSecretKey(testSeed(0x3C), 0)
	require.NoError(t, err)

	tx, err := w.Transfer(0, receiver.PublicKey(), 60, wallet.Fee{GasLimit: 10, GasPrice: 1})
	require.NoError(t, err)
	require.NotEmpty(t, tx.Proof)
	require.Len(t, tx.Nullifiers, 1)
}

func TestLocalProverValueProofs(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup and proving")
	}

	p := NewLocalProver("")
	blinder := randomTestScalar(t)
	commitment := wallet.ValueCommitment(500, blinder)

	proof, err := p.RequestWfctProof(commitment, 500, blinder)
	require.NoError(t, err)
	require.NotEmpty(t, proof)

	// A claim that does not open the commitment must not prove.
	_, err = p.RequestWfctProof(commitment, 501, blinder)
	require.ErrorIs(t, err, wallet.ErrProofGeneration)

	stct, err := p.RequestStctProof(wallet.Fee{GasLimit: 1, GasPrice: 1}, wallet.Crossover{Commitment: commitment}, 500, blinder, randomTestScalar(t), []byte("sig"))
	require.NoError(t, err)
	require.NotEmpty(t, stct)
}

// buildTransfer assembles a one-input, two-output transaction over an
// in-memory state without contacting any prover.
func buildTransfer(t *testing.T) *wallet.UnprovenTransaction {
	t.Helper()

	store := wallet.NewMemoryStore(testSeed(0xA5))
	state := wallet.NewMemoryState()
	capture := &capturingProver{}
	w := wallet.New(store, state, capture)

	pk, err := w.PublicKey(0)
	require.NoError(t, err)
	_, err = state.AddNote(wallet.NewObfuscatedNote(pk, 100, randomTestScalar(t)), 1)
	require.NoError(t, err)

	receiver, err := wallet.DeriveSecretKey(testSeed(0x3C), 0)
	require.NoError(t, err)
	_, err = w.Transfer(0, receiver.PublicKey(), 60, wallet.Fee{GasLimit: 10, GasPrice: 1})
	require.NoError(t, err)
	require.NotNil(t, capture.utx)
	return capture.utx
}

type capturingProver struct {
	utx *wallet.UnprovenTransaction
}

func (p *capturingProver) ComputeProofAndPropagate(utx *wallet.UnprovenTransaction) (*wallet.Transaction, error) {
	p.utx = utx
	return utx.Prove(wallet.Proof("captured")), nil
}

func (p *capturingProver) RequestStctProof(fee wallet.Fee, crossover wallet.Crossover, value uint64, blinder fr.Element, address fr.Element, signature []byte) (wallet.Proof, error) {
	return wallet.Proof("stct"), nil
}

func (p *capturingProver) RequestWfctProof(commitment fr.Element, value uint64, blinder fr.Element) (wallet.Proof, error) {
	return wallet.Proof("wfct"), nil
}
