// memory.go - In-memory chain state backing the StateClient boundary.
//
// MemoryState keeps the note accumulator, the published-nullifier set, and
// stake accounts in memory. It backs deterministic tests and single-process
// deployments; networked deployments use package remote instead.
//
// NOTE: MemoryState serializes its own access with a mutex, but the builder
// itself provides no cross-build locking (see package doc).

package wallet

import (
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
)

// MemoryState is an in-memory StateClient.
type MemoryState struct {
	mu        sync.Mutex
	tree      *Tree
	notes     []EnrichedNote
	next      uint64
	published map[fr.Element]struct{}
	stakes    map[string]StakeInfo
}

// NewMemoryState creates an empty in-memory chain state.
func NewMemoryState() *MemoryState {
	return &MemoryState{
		tree:      NewTree(),
		published: make(map[fr.Element]struct{}),
		stakes:    make(map[string]StakeInfo),
	}
}

// AddNote includes a note in the accumulator at the next free position and
// returns the positioned copy.
func (s *MemoryState) AddNote(note Note, height uint64) (Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	note.Pos = s.next
	if err := s.tree.Insert(note.Pos, note.Commitment); err != nil {
		return Note{}, err
	}
	s.next++
	s.notes = append(s.notes, EnrichedNote{Note: note, Height: height})
	return note, nil
}

// PublishNullifier marks a nullifier as spent on chain.
func (s *MemoryState) PublishNullifier(n fr.Element) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.published[n] = struct{}{}
}

// SetStake sets the stake account state for the public key.
func (s *MemoryState) SetStake(pk PublicKey, info StakeInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stakes[string(pk.Bytes())] = info
}

// FetchNotes returns the notes owned by the view key.
func (s *MemoryState) FetchNotes(vk ViewKey) ([]EnrichedNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var owned []EnrichedNote
	for _, en := range s.notes {
		if vk.Owns(&en.Note) {
			owned = append(owned, en)
		}
	}
	return owned, nil
}

// FetchAnchor returns the current accumulator root.
func (s *MemoryState) FetchAnchor() (fr.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Root(), nil
}

// FetchExistingNullifiers returns the candidates already published.
func (s *MemoryState) FetchExistingNullifiers(nullifiers []fr.Element) ([]fr.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var existing []fr.Element
	for _, n := range nullifiers {
		if _, ok := s.published[n]; ok {
			existing = append(existing, n)
		}
	}
	return existing, nil
}

// FetchOpening returns the inclusion proof for the note's commitment.
func (s *MemoryState) FetchOpening(note Note) (Opening, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, err := s.tree.Opening(note.Pos)
	if err != nil {
		return Opening{}, err
	}
	leaf := s.tree.node(0, note.Pos)
	if !leaf.Equal(&note.Commitment) {
		return Opening{}, ErrNoteNotFound
	}
	return o, nil
}

// FetchStake returns the stake account state; absent stake yields the zero
// StakeInfo.
func (s *MemoryState) FetchStake(pk PublicKey) (StakeInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stakes[string(pk.Bytes())], nil
}
