package geocode

import (
	"errors"
	"math/rand"
	"sync"
)

// CredentialPool hands out geocoding access keys round-robin. The rotation
// index is shared mutable state: concurrent dispatches must each see a
// distinct step, so Next serialises on a mutex rather than exposing the
// raw index.
type CredentialPool struct {
	mu   sync.Mutex
	keys []string
	idx  int
}

// NewCredentialPool seeds the rotation at a random position so restarts do
// not hammer the first key in the pool.
func NewCredentialPool(keys []string) (*CredentialPool, error) {
	if len(keys) == 0 {
		return nil, errors.New("credential pool must not be empty")
	}
	return &CredentialPool{
		keys: keys,
		idx:  rand.Intn(len(keys)),
	}, nil
}

// Next advances the rotation exactly one step and returns the key there.
func (p *CredentialPool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.idx = (p.idx + 1) % len(p.keys)
	return p.keys[p.idx]
}

// Size reports how many credentials are in the pool.
func (p *CredentialPool) Size() int {
	return len(p.keys)
}
