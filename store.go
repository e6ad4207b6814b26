// store.go - Seed store boundary.

package wallet

// SeedSize is the exact length of the master seed in bytes.
const SeedSize = 64

// Store supplies the master seed all key material is derived from. The seed
// is immutable for the process lifetime; GetSeed has no side effects beyond
// the read. Implementations report read failures with ErrStoreUnavailable.
type Store interface {
	GetSeed() ([SeedSize]byte, error)
}

// MemoryStore is an in-memory Store backed by a fixed seed.
type MemoryStore struct {
	seed [SeedSize]byte
}

// NewMemoryStore creates a store holding the given seed.
func NewMemoryStore(seed [SeedSize]byte) *MemoryStore {
	return &MemoryStore{seed: seed}
}

// GetSeed returns the stored seed. It never fails.
func (s *MemoryStore) GetSeed() ([SeedSize]byte, error) {
	return s.seed, nil
}
