package blockstore

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"
)

// MemBlockstore is an in-memory Blockstore, used by tests and by callers
// that don't need durability. Guarded by a mutex even though the core
// itself is single-threaded cooperative (spec §5): callers may legitimately
// hold multiple independent roots backed by the same store concurrently.
type MemBlockstore struct {
	mu     sync.Mutex
	blocks map[cid.Cid][]byte
}

// NewMemBlockstore returns an empty in-memory block store.
func NewMemBlockstore() *MemBlockstore {
	return &MemBlockstore{blocks: map[cid.Cid][]byte{}}
}

func (m *MemBlockstore) Put(ctx context.Context, data []byte, codec uint64) (cid.Cid, error) {
	id, err := CIDFromBytes(data, codec)
	if err != nil {
		return cid.Undef, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blocks[id]; !ok {
		buf := make([]byte, len(data))
		copy(buf, data)
		m.blocks[id] = buf
	}
	return id, nil
}

func (m *MemBlockstore) Get(ctx context.Context, id cid.Cid) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blocks[id]
	if !ok {
		return nil, ErrBlockNotFound
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemBlockstore) Has(ctx context.Context, id cid.Cid) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blocks[id]
	return ok, nil
}
