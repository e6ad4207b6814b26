// circuit.go - Groth16 circuits for transaction execution and contract value
// transfers.
//
// The transfer circuit proves, without revealing input notes, that every
// spent note opens to a commitment included under the public anchor and that
// value is conserved across inputs, outputs, fee and crossover. Nullifier
// correctness is enforced by the per-input ownership signatures outside the
// circuit. The value-commitment circuit backs both contract value-transfer
// proofs: it shows a public commitment opens to a public value under a
// hidden blinder.

package prover

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"

	wallet "github.com/artifex11/wallet-core"
)

type transferCircuit struct {
	Anchor            frontend.Variable   `gnark:",public"`
	FeeValue          frontend.Variable   `gnark:",public"`
	CrossoverValue    frontend.Variable   `gnark:",public"`
	OutputCommitments []frontend.Variable `gnark:",public"`

	InputTypes    []frontend.Variable
	InputValues   []frontend.Variable
	InputBlinders []frontend.Variable
	InputOwners   []frontend.Variable
	InputRhos     []frontend.Variable
	// PathBits[i][j] is bit j of input i's leaf position; PathSiblings[i][j]
	// the sibling hash at level j.
	PathBits     [][]frontend.Variable
	PathSiblings [][]frontend.Variable

	OutputTypes    []frontend.Variable
	OutputValues   []frontend.Variable
	OutputBlinders []frontend.Variable
	OutputOwners   []frontend.Variable
	OutputRhos     []frontend.Variable
}

// newTransferCircuit allocates the slice fields for a fixed transaction
// shape. Required before compiling.
func newTransferCircuit(nin, nout int) *transferCircuit {
	c := &transferCircuit{
		OutputCommitments: make([]frontend.Variable, nout),
		InputTypes:        make([]frontend.Variable, nin),
		InputValues:       make([]frontend.Variable, nin),
		InputBlinders:     make([]frontend.Variable, nin),
		InputOwners:       make([]frontend.Variable, nin),
		InputRhos:         make([]frontend.Variable, nin),
		PathBits:          make([][]frontend.Variable, nin),
		PathSiblings:      make([][]frontend.Variable, nin),
		OutputTypes:       make([]frontend.Variable, nout),
		OutputValues:      make([]frontend.Variable, nout),
		OutputBlinders:    make([]frontend.Variable, nout),
		OutputOwners:      make([]frontend.Variable, nout),
		OutputRhos:        make([]frontend.Variable, nout),
	}
	for i := 0; i < nin; i++ {
		c.PathBits[i] = make([]frontend.Variable, wallet.TreeDepth)
		c.PathSiblings[i] = make([]frontend.Variable, wallet.TreeDepth)
	}
	return c
}

func (c *transferCircuit) Define(api frontend.API) error {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}

	commitment := func(t, v, b, owner, rho frontend.Variable) frontend.Variable {
		h.Reset()
		h.Write(t, v, b, owner, rho)
		return h.Sum()
	}
	node := func(left, right frontend.Variable) frontend.Variable {
		h.Reset()
		h.Write(left, right)
		return h.Sum()
	}

	inSum := frontend.Variable(0)
	for i := range c.InputValues {
		api.ToBinary(c.InputValues[i], 64)
		inSum = api.Add(inSum, c.InputValues[i])

		// Recompute the leaf and walk it up to the anchor.
		cur := commitment(c.InputTypes[i], c.InputValues[i], c.InputBlinders[i], c.InputOwners[i], c.InputRhos[i])
		for j := 0; j < wallet.TreeDepth; j++ {
			bit := c.PathBits[i][j]
			api.AssertIsBoolean(bit)
			left := api.Select(bit, c.PathSiblings[i][j], cur)
			right := api.Select(bit, cur, c.PathSiblings[i][j])
			cur = node(left, right)
		}
		api.AssertIsEqual(cur, c.Anchor)
	}

	outSum := frontend.Variable(0)
	for i := range c.OutputValues {
		api.ToBinary(c.OutputValues[i], 64)
		outSum = api.Add(outSum, c.OutputValues[i])

		cm := commitment(c.OutputTypes[i], c.OutputValues[i], c.OutputBlinders[i], c.OutputOwners[i], c.OutputRhos[i])
		api.AssertIsEqual(cm, c.OutputCommitments[i])
	}

	api.AssertIsEqual(inSum, api.Add(outSum, c.FeeValue, c.CrossoverValue))
	return nil
}

type valueCommitmentCircuit struct {
	Commitment frontend.Variable `gnark:",public"`
	Value      frontend.Variable `gnark:",public"`
	Blinder    frontend.Variable
}

func (c *valueCommitmentCircuit) Define(api frontend.API) error {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	api.ToBinary(c.Value, 64)
	h.Write(c.Value, c.Blinder)
	api.AssertIsEqual(h.Sum(), c.Commitment)
	return nil
}
