// prover.go - Local Groth16 prover.
//
// LocalProver compiles, sets up and caches one circuit per transaction shape
// (input count x output count) plus the shared value-commitment circuit.
// Setup artifacts persist in a key directory so a process restart reuses
// them instead of re-running the trusted setup.

package prover

import (
	"bytes"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	wallet "github.com/artifex11/wallet-core"
)

// LocalProver is an in-process wallet.ProverClient.
type LocalProver struct {
	mu     sync.Mutex
	keyDir string

	transfers map[shape]*setup
	valueCom  *setup
}

type shape struct {
	inputs  int
	outputs int
}

type setup struct {
	cs constraint.ConstraintSystem
	pk groth16.ProvingKey
	vk groth16.VerifyingKey
}

// NewLocalProver creates a prover persisting setup artifacts under keyDir.
// An empty keyDir keeps all artifacts in memory only.
func NewLocalProver(keyDir string) *LocalProver {
	return &LocalProver{keyDir: keyDir, transfers: make(map[shape]*setup)}
}

// ComputeProofAndPropagate proves the transaction's execution circuit and
// attaches the proof. The encoding of the transaction is round-trip checked
// first; a transaction that does not survive its own serialization is never
// proven.
func (p *LocalProver) ComputeProofAndPropagate(utx *wallet.UnprovenTransaction) (*wallet.Transaction, error) {
	if err := wallet.CheckUnprovenRoundTrip(utx); err != nil {
		return nil, err
	}

	s, err := p.transferSetup(len(utx.Inputs), len(utx.Outputs))
	if err != nil {
		return nil, err
	}

	assignment := assignTransfer(utx)
	proof, err := p.prove(s, assignment)
	if err != nil {
		return nil, err
	}

	tx := utx.Prove(proof)
	if err := wallet.CheckTransactionRoundTrip(tx); err != nil {
		return nil, err
	}

	logger.Debug().
		Int("inputs", len(utx.Inputs)).
		Int("outputs", len(utx.Outputs)).
		Int("proof_bytes", len(proof)).
		Msg("transfer proven")

	return tx, nil
}

// RequestStctProof proves the crossover commitment opens to the staked
// value. The signature and address bind the proof to the contract call in
// the call payload, not in the circuit.
func (p *LocalProver) RequestStctProof(fee wallet.Fee, crossover wallet.Crossover, value uint64, blinder fr.Element, address fr.Element, signature []byte) (wallet.Proof, error) {
	return p.proveValueCommitment(crossover.Commitment, value, blinder)
}

// RequestWfctProof proves the withdrawal commitment opens to the released
// value.
func (p *LocalProver) RequestWfctProof(commitment fr.Element, value uint64, blinder fr.Element) (wallet.Proof, error) {
	return p.proveValueCommitment(commitment, value, blinder)
}

func (p *LocalProver) proveValueCommitment(commitment fr.Element, value uint64, blinder fr.Element) (wallet.Proof, error) {
	s, err := p.valueCommitmentSetup()
	if err != nil {
		return nil, err
	}
	assignment := &valueCommitmentCircuit{
		Commitment: toVar(commitment),
		Value:      value,
		Blinder:    toVar(blinder),
	}
	return p.prove(s, assignment)
}

// prove generates a proof, self-verifies it, and serializes it.
func (p *LocalProver) prove(s *setup, assignment frontend.Circuit) (wallet.Proof, error) {
	witness, err := frontend.NewWitness(assignment, ecc.BLS12_377.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("%w: building witness: %v", wallet.ErrProofGeneration, err)
	}
	proof, err := groth16.Prove(s.cs, s.pk, witness)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", wallet.ErrProofGeneration, err)
	}

	public, err := witness.Public()
	if err != nil {
		return nil, fmt.Errorf("%w: extracting public witness: %v", wallet.ErrProofGeneration, err)
	}
	if err := groth16.Verify(proof, s.vk, public); err != nil {
		return nil, fmt.Errorf("%w: self-verification: %v", wallet.ErrProofGeneration, err)
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("%w: serializing proof: %v", wallet.ErrProofGeneration, err)
	}
	return buf.Bytes(), nil
}

func (p *LocalProver) transferSetup(nin, nout int) (*setup, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := shape{inputs: nin, outputs: nout}
	if s, ok := p.transfers[key]; ok {
		return s, nil
	}
	name := fmt.Sprintf("transfer_%dx%d", nin, nout)
	s, err := p.setupOrLoad(newTransferCircuit(nin, nout), name)
	if err != nil {
		return nil, err
	}
	p.transfers[key] = s
	return s, nil
}

func (p *LocalProver) valueCommitmentSetup() (*setup, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.valueCom != nil {
		return p.valueCom, nil
	}
	s, err := p.setupOrLoad(&valueCommitmentCircuit{}, "value_commitment")
	if err != nil {
		return nil, err
	}
	p.valueCom = s
	return s, nil
}

// setupOrLoad compiles the circuit and either loads cached keys from the key
// directory or runs the setup and caches them.
func (p *LocalProver) setupOrLoad(circuit frontend.Circuit, name string) (*setup, error) {
	cs, err := frontend.Compile(ecc.BLS12_377.ScalarField(), r1cs.NewBuilder, circuit)
	if err != nil {
		return nil, fmt.Errorf("%w: compiling %s: %v", wallet.ErrProofGeneration, name, err)
	}

	if p.keyDir != "" {
		pkPath := filepath.Join(p.keyDir, name+".pk")
		vkPath := filepath.Join(p.keyDir, name+".vk")
		if pk, vk, err := loadKeys(pkPath, vkPath); err == nil {
			logger.Debug().Str("circuit", name).Msg("loaded cached keys")
			return &setup{cs: cs, pk: pk, vk: vk}, nil
		}
	}

	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, fmt.Errorf("%w: setup for %s: %v", wallet.ErrProofGeneration, name, err)
	}
	if p.keyDir != "" {
		if err := saveKeys(p.keyDir, name, pk, vk); err != nil {
			logger.Warn().Err(err).Str("circuit", name).Msg("could not cache keys")
		}
	}
	return &setup{cs: cs, pk: pk, vk: vk}, nil
}

func loadKeys(pkPath, vkPath string) (groth16.ProvingKey, groth16.VerifyingKey, error) {
	pkFile, err := os.Open(pkPath)
	if err != nil {
		return nil, nil, err
	}
	defer pkFile.Close()
	pk := groth16.NewProvingKey(ecc.BLS12_377)
	if _, err := pk.ReadFrom(pkFile); err != nil {
		return nil, nil, err
	}

	vkFile, err := os.Open(vkPath)
	if err != nil {
		return nil, nil, err
	}
	defer vkFile.Close()
	vk := groth16.NewVerifyingKey(ecc.BLS12_377)
	if _, err := vk.ReadFrom(vkFile); err != nil {
		return nil, nil, err
	}
	return pk, vk, nil
}

func saveKeys(dir, name string, pk groth16.ProvingKey, vk groth16.VerifyingKey) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	pkFile, err := os.Create(filepath.Join(dir, name+".pk"))
	if err != nil {
		return err
	}
	defer pkFile.Close()
	if _, err := pk.WriteTo(pkFile); err != nil {
		return err
	}

	vkFile, err := os.Create(filepath.Join(dir, name+".vk"))
	if err != nil {
		return err
	}
	defer vkFile.Close()
	_, err = vk.WriteTo(vkFile)
	return err
}

// assignTransfer builds the witness assignment for a transaction.
func assignTransfer(utx *wallet.UnprovenTransaction) *transferCircuit {
	nin, nout := len(utx.Inputs), len(utx.Outputs)
	c := newTransferCircuit(nin, nout)

	c.Anchor = toVar(utx.Anchor)
	c.FeeValue = utx.Fee.Value()
	c.CrossoverValue = utx.CrossoverValue

	for i := 0; i < nin; i++ {
		in := &utx.Inputs[i]
		c.InputTypes[i] = uint64(in.Note.Type)
		c.InputValues[i] = in.Value
		c.InputBlinders[i] = toVar(in.Blinder)
		c.InputOwners[i] = toVar(in.Note.Owner)
		c.InputRhos[i] = toVar(in.Note.Rho)
		for j := 0; j < wallet.TreeDepth; j++ {
			c.PathBits[i][j] = (in.Opening.Position >> uint(j)) & 1
			c.PathSiblings[i][j] = toVar(in.Opening.Path[j])
		}
	}
	for i := 0; i < nout; i++ {
		out := &utx.Outputs[i]
		c.OutputCommitments[i] = toVar(out.Note.Commitment)
		c.OutputTypes[i] = uint64(out.Note.Type)
		c.OutputValues[i] = out.Value
		c.OutputBlinders[i] = toVar(out.Blinder)
		c.OutputOwners[i] = toVar(out.Note.Owner)
		c.OutputRhos[i] = toVar(out.Note.Rho)
	}
	return c
}

func toVar(e fr.Element) *big.Int {
	return e.BigInt(new(big.Int))
}
