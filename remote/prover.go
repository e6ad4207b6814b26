// prover.go - HTTP client for a remote proving service.

package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"

	wallet "github.com/artifex11/wallet-core"
)

// ProverClient is a wallet.ProverClient over HTTP.
type ProverClient struct {
	baseURL string
	http    *http.Client
}

// NewProverClient creates a client for the proving service named in the
// config.
func NewProverClient(cfg *Config) *ProverClient {
	return &ProverClient{
		baseURL: cfg.ProverURL,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

type proveRequest struct {
	Transaction []byte `json:"transaction"`
}

type proveResponse struct {
	Transaction []byte `json:"transaction"`
}

type stctRequest struct {
	Fee       []byte `json:"fee"`
	Crossover []byte `json:"crossover"`
	Value     uint64 `json:"value"`
	Blinder   []byte `json:"blinder"`
	Address   []byte `json:"address"`
	Signature []byte `json:"signature"`
}

type wfctRequest struct {
	Commitment []byte `json:"commitment"`
	Value      uint64 `json:"value"`
	Blinder    []byte `json:"blinder"`
}

type proofResponse struct {
	Proof []byte `json:"proof"`
}

// ComputeProofAndPropagate ships the transaction to the proving service and
// validates what comes back: the returned transaction must be the input with
// only a proof attached, and both directions of the wire encoding must
// round-trip.
func (c *ProverClient) ComputeProofAndPropagate(utx *wallet.UnprovenTransaction) (*wallet.Transaction, error) {
	if err := wallet.CheckUnprovenRoundTrip(utx); err != nil {
		return nil, err
	}
	utxBytes, err := utx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: encoding transaction: %v", wallet.ErrSerializationMismatch, err)
	}

	var resp proveResponse
	if err := c.post("/prove", proveRequest{Transaction: utxBytes}, &resp); err != nil {
		return nil, err
	}

	var tx wallet.Transaction
	if err := tx.UnmarshalBinary(resp.Transaction); err != nil {
		return nil, fmt.Errorf("%w: decoding proven transaction: %v", wallet.ErrProofGeneration, err)
	}
	// The service must not have altered anything besides attaching a proof.
	if !tx.Equal(utx.Prove(tx.Proof)) {
		return nil, fmt.Errorf("%w: proving service altered the transaction", wallet.ErrSerializationMismatch)
	}
	if err := wallet.CheckTransactionRoundTrip(&tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// RequestStctProof requests a send-to-contract value proof.
func (c *ProverClient) RequestStctProof(fee wallet.Fee, crossover wallet.Crossover, value uint64, blinder fr.Element, address fr.Element, signature []byte) (wallet.Proof, error) {
	feeBytes, err := fee.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("%w: encoding fee: %v", wallet.ErrProofGeneration, err)
	}
	cm := crossover.Commitment.Bytes()
	bl := blinder.Bytes()
	addr := address.Bytes()
	var resp proofResponse
	err = c.post("/prove/stct", stctRequest{
		Fee:       feeBytes,
		Crossover: cm[:],
		Value:     value,
		Blinder:   bl[:],
		Address:   addr[:],
		Signature: signature,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Proof, nil
}

// RequestWfctProof requests a withdraw-from-contract value proof.
func (c *ProverClient) RequestWfctProof(commitment fr.Element, value uint64, blinder fr.Element) (wallet.Proof, error) {
	cm := commitment.Bytes()
	bl := blinder.Bytes()
	var resp proofResponse
	err := c.post("/prove/wfct", wfctRequest{Commitment: cm[:], Value: value, Blinder: bl[:]}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Proof, nil
}

func (c *ProverClient) post(path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %v", wallet.ErrProofGeneration, err)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", wallet.ErrProofGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", wallet.ErrProofGeneration, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", wallet.ErrProofGeneration, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", wallet.ErrProofGeneration, err)
	}
	return nil
}
