// state.go - HTTP client for a remote chain-state service.
//
// All endpoints exchange JSON; byte fields travel base64-encoded, notes and
// openings in their fixed binary layout. Query failures surface as
// wallet.ErrStateUnavailable so callers can distinguish transport trouble
// from domain errors.

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

// StateClient is a wallet.StateClient over HTTP.
type StateClient struct {
	baseURL string
	http    *http.Client
}

// NewStateClient creates a client for the state service named in the config.
func NewStateClient(cfg *Config) *StateClient {
	return &StateClient{
		baseURL: cfg.StateURL,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
	}
}

type notesRequest struct {
	ViewKey []byte `json:"view_key"`
}

type enrichedNoteJSON struct {
	Note   []byte `json:"note"`
	Height uint64 `json:"height"`
}

type notesResponse struct {
	Notes []enrichedNoteJSON `json:"notes"`
}

type anchorResponse struct {
	Anchor []byte `json:"anchor"`
}

type nullifiersRequest struct {
	Nullifiers [][]byte `json:"nullifiers"`
}

type nullifiersResponse struct {
	Existing [][]byte `json:"existing"`
}

type openingRequest struct {
	Note []byte `json:"note"`
}

type openingResponse struct {
	Opening []byte `json:"opening"`
}

type stakeRequest struct {
	PublicKey []byte `json:"public_key"`
}

type stakeAmountJSON struct {
	Value       uint64 `json:"value"`
	Eligibility uint64 `json:"eligibility"`
}

type stakeResponse struct {
	Amount  *stakeAmountJSON `json:"amount,omitempty"`
	Reward  uint64           `json:"reward"`
	Counter uint64           `json:"counter"`
}

// FetchNotes returns the notes owned by the view key.
func (c *StateClient) FetchNotes(vk wallet.ViewKey) ([]wallet.EnrichedNote, error) {
	var resp notesResponse
	if err := c.post("/notes", notesRequest{ViewKey: vk.Bytes()}, &resp); err != nil {
		return nil, err
	}
	notes := make([]wallet.EnrichedNote, len(resp.Notes))
	for i, en := range resp.Notes {
		if err := notes[i].Note.UnmarshalBinary(en.Note); err != nil {
			return nil, fmt.Errorf("%w: decoding note: %v", wallet.ErrStateUnavailable, err)
		}
		notes[i].Height = en.Height
	}
	return notes, nil
}

// FetchAnchor returns the current accumulator root.
func (c *StateClient) FetchAnchor() (fr.Element, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/anchor", nil)
	if err != nil {
		return fr.Element{}, fmt.Errorf("%w: %v", wallet.ErrStateUnavailable, err)
	}
	var resp anchorResponse
	if err := c.do(req, &resp); err != nil {
		return fr.Element{}, err
	}
	var anchor fr.Element
	anchor.SetBytes(resp.Anchor)
	return anchor, nil
}

// FetchExistingNullifiers returns the candidates already published.
func (c *StateClient) FetchExistingNullifiers(nullifiers []fr.Element) ([]fr.Element, error) {
	req := nullifiersRequest{Nullifiers: make([][]byte, len(nullifiers))}
	for i := range nullifiers {
		b := nullifiers[i].Bytes()
		req.Nullifiers[i] = b[:]
	}
	var resp nullifiersResponse
	if err := c.post("/nullifiers/existing", req, &resp); err != nil {
		return nil, err
	}
	existing := make([]fr.Element, len(resp.Existing))
	for i := range resp.Existing {
		existing[i].SetBytes(resp.Existing[i])
	}
	return existing, nil
}

// FetchOpening returns the inclusion proof for the note. An absent note is
// wallet.ErrNoteNotFound, not a transport failure.
func (c *StateClient) FetchOpening(note wallet.Note) (wallet.Opening, error) {
	noteBytes, err := note.MarshalBinary()
	if err != nil {
		return wallet.Opening{}, fmt.Errorf("encoding note: %w", err)
	}
	var resp openingResponse
	if err := c.post("/opening", openingRequest{Note: noteBytes}, &resp); err != nil {
		return wallet.Opening{}, err
	}
	var opening wallet.Opening
	if err := opening.UnmarshalBinary(resp.Opening); err != nil {
		return wallet.Opening{}, fmt.Errorf("%w: decoding opening: %v", wallet.ErrStateUnavailable, err)
	}
	return opening, nil
}

// FetchStake returns the stake account state for the public key.
func (c *StateClient) FetchStake(pk wallet.PublicKey) (wallet.StakeInfo, error) {
	var resp stakeResponse
	if err := c.post("/stake", stakeRequest{PublicKey: pk.Bytes()}, &resp); err != nil {
		return wallet.StakeInfo{}, err
	}
	info := wallet.StakeInfo{Reward: resp.Reward, Counter: resp.Counter}
	if resp.Amount != nil {
		info.Amount = &wallet.StakeAmount{Value: resp.Amount.Value, Eligibility: resp.Amount.Eligibility}
	}
	return info, nil
}

func (c *StateClient) post(path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %v", wallet.ErrStateUnavailable, err)
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", wallet.ErrStateUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *StateClient) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", wallet.ErrStateUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return wallet.ErrNoteNotFound
	default:
		return fmt.Errorf("%w: %s returned %d", wallet.ErrStateUnavailable, req.URL.Path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", wallet.ErrStateUnavailable, err)
	}
	return nil
}
