package remote

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
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

func randomScalar(t *testing.T) fr.Element {
	t.Helper()
	var e fr.Element
	_, err := e.SetRandom()
	require.NoError(t, err)
	return e
}

// newStateServer serves the state endpoints backed by an in-memory chain
// state.
func newStateServer(t *testing.T, state *wallet.MemoryState) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/notes", func(w http.ResponseWriter, r *http.Request) {
		var req notesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		var vk wallet.ViewKey
		require.NoError(t, vk.SetBytes(req.ViewKey))
		notes, err := state.FetchNotes(vk)
		require.NoError(t, err)
		resp := notesResponse{Notes: make([]enrichedNoteJSON, len(notes))}
		for i := range notes {
			b, err := notes[i].Note.MarshalBinary()
			require.NoError(t, err)
			resp.Notes[i] = enrichedNoteJSON{Note: b, Height: notes[i].Height}
		}
		json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/anchor", func(w http.ResponseWriter, r *http.Request) {
		anchor, err := state.FetchAnchor()
		require.NoError(t, err)
		b := anchor.Bytes()
		json.NewEncoder(w).Encode(anchorResponse{Anchor: b[:]})
	})

	mux.HandleFunc("/nullifiers/existing", func(w http.ResponseWriter, r *http.Request) {
		var req nullifiersRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		candidates := make([]fr.Element, len(req.Nullifiers))
		for i := range req.Nullifiers {
			candidates[i].SetBytes(req.Nullifiers[i])
		}
		existing, err := state.FetchExistingNullifiers(candidates)
		require.NoError(t, err)
		resp := nullifiersResponse{Existing: make([][]byte, len(existing))}
		for i := range existing {
			b := existing[i].Bytes()
			resp.Existing[i] = b[:]
		}
		json.NewEncoder(w).Encode(resp)
	})

	mux.HandleFunc("/opening", func(w http.ResponseWriter, r *http.Request) {
		var req openingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		var note wallet.Note
		require.NoError(t, note.UnmarshalBinary(req.Note))
		opening, err := state.FetchOpening(note)
		if errors.Is(err, wallet.ErrNoteNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		require.NoError(t, err)
		b, err := opening.MarshalBinary()
		require.NoError(t, err)
		json.NewEncoder(w).Encode(openingResponse{Opening: b})
	})

	mux.HandleFunc("/stake", func(w http.ResponseWriter, r *http.Request) {
		var req stakeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		var pk wallet.PublicKey
		require.NoError(t, pk.SetBytes(req.PublicKey))
		info, err := state.FetchStake(pk)
		require.NoError(t, err)
		resp := stakeResponse{Reward: info.Reward, Counter: info.Counter}
		if info.Amount != nil {
			resp.Amount = &stakeAmountJSON{Value: info.Amount.Value, Eligibility: info.Amount.Eligibility}
		}
		json.NewEncoder(w).Encode(resp)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newProverServer serves the proving endpoints, attaching fixed proofs.
func newProverServer(t *testing.T, tamper bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/prove", func(w http.ResponseWriter, r *http.Request) {
		var req proveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		var utx wallet.UnprovenTransaction
		require.NoError(t, utx.UnmarshalBinary(req.Transaction))
		tx := utx.Prove(wallet.Proof("remote-proof"))
		if tamper {
			tx.Fee.GasLimit++
		}
		b, err := tx.MarshalBinary()
		require.NoError(t, err)
		json.NewEncoder(w).Encode(proveResponse{Transaction: b})
	})

	proof := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(proofResponse{Proof: []byte(name)})
		}
	}
	mux.HandleFunc("/prove/stct", proof("stct-proof"))
	mux.HandleFunc("/prove/wfct", proof("wfct-proof"))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(stateURL, proverURL string) *Config {
	return &Config{StateURL: stateURL, ProverURL: proverURL, TimeoutSeconds: 5}
}

func TestRemoteTransfer(t *testing.T) {
	state := wallet.NewMemoryState()
	stateSrv := newStateServer(t, state)
	proverSrv := newProverServer(t, false)
	cfg := testConfig(stateSrv.URL, proverSrv.URL)

	w := wallet.New(wallet.NewMemoryStore(testSeed(0xA5)), NewStateClient(cfg), NewProverClient(cfg))

	pk, err := w.PublicKey(0)
	require.NoError(t, err)
	_, err = state.AddNote(wallet.NewObfuscatedNote(pk, 100, randomScalar(t)), 1)
	require.NoError(t, err)

	balance, err := w.Balance(0)
	require.NoError(t, err)
	require.Equal(t, uint64(100), balance)

	receiver, err := wallet.DeriveSecretKey(testSeed(0x3C), 0)
	require.NoError(t, err)
	tx, err := w.Transfer(0, receiver.PublicKey(), 60, wallet.Fee{GasLimit: 10, GasPrice: 1})
	require.NoError(t, err)
	require.Equal(t, wallet.Proof("remote-proof"), tx.Proof)
	require.Len(t, tx.Nullifiers, 1)
}

func TestRemoteStake(t *testing.T) {
	state := wallet.NewMemoryState()
	stateSrv := newStateServer(t, state)
	proverSrv := newProverServer(t, false)
	cfg := testConfig(stateSrv.URL, proverSrv.URL)

	w := wallet.New(wallet.NewMemoryStore(testSeed(0xA5)), NewStateClient(cfg), NewProverClient(cfg))

	pk, err := w.PublicKey(0)
	require.NoError(t, err)
	_, err = state.AddNote(wallet.NewObfuscatedNote(pk, 500, randomScalar(t)), 1)
	require.NoError(t, err)
	state.SetStake(pk, wallet.StakeInfo{Counter: 3})

	tx, err := w.Stake(0, 200, wallet.Fee{GasLimit: 10, GasPrice: 1})
	require.NoError(t, err)
	require.NotNil(t, tx.Call)

	info, err := w.GetStake(0)
	require.NoError(t, err)
	require.Equal(t, uint64(3), info.Counter)
}

func TestProverClientRejectsTampering(t *testing.T) {
	state := wallet.NewMemoryState()
	stateSrv := newStateServer(t, state)
	proverSrv := newProverServer(t, true)
	cfg := testConfig(stateSrv.URL, proverSrv.URL)

	w := wallet.New(wallet.NewMemoryStore(testSeed(0xA5)), NewStateClient(cfg), NewProverClient(cfg))

	pk, err := w.PublicKey(0)
	require.NoError(t, err)
	_, err = state.AddNote(wallet.NewObfuscatedNote(pk, 100, randomScalar(t)), 1)
	require.NoError(t, err)

	receiver, err := wallet.DeriveSecretKey(testSeed(0x3C), 0)
	require.NoError(t, err)
	_, err = w.Transfer(0, receiver.PublicKey(), 60, wallet.Fee{GasLimit: 10, GasPrice: 1})
	require.ErrorIs(t, err, wallet.ErrSerializationMismatch)
}

func TestStateClientErrors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(failing.Close)
	cfg := testConfig(failing.URL, failing.URL)

	state := NewStateClient(cfg)
	_, err := state.FetchAnchor()
	require.ErrorIs(t, err, wallet.ErrStateUnavailable)

	sk, err := wallet.DeriveSecretKey(testSeed(0x01), 0)
	require.NoError(t, err)
	_, err = state.FetchNotes(sk.ViewKey())
	require.ErrorIs(t, err, wallet.ErrStateUnavailable)

	prover := NewProverClient(cfg)
	_, err = prover.RequestWfctProof(fr.Element{}, 1, fr.Element{})
	require.ErrorIs(t, err, wallet.ErrProofGeneration)
}

func TestStateClientOpeningNotFound(t *testing.T) {
	state := wallet.NewMemoryState()
	stateSrv := newStateServer(t, state)
	cfg := testConfig(stateSrv.URL, stateSrv.URL)

	sk, err := wallet.DeriveSecretKey(testSeed(0x01), 0)
	require.NoError(t, err)
	note := wallet.NewObfuscatedNote(sk.PublicKey(), 5, randomScalar(t))
	note.Pos = 99

	_, err = NewStateClient(cfg).FetchOpening(note)
	require.ErrorIs(t, err, wallet.ErrNoteNotFound)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "remote.json")

	// Missing file: defaults are written and returned.
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	require.NoError(t, cfg.Validate())

	// Present file: contents win over defaults.
	cfg.StateURL = "http://state.example:1234"
	require.NoError(t, SaveConfig(cfg, path))
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "http://state.example:1234", loaded.StateURL)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.StateURL = ""
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.TimeoutSeconds = 0
	require.Error(t, cfg.Validate())
}
