package state

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps journals in process.
type MemoryStore struct {
	mu        sync.Mutex
	snapshots map[string][]byte
	locks     map[string]LockInfo
	saves     int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string][]byte),
		locks:     make(map[string]LockInfo),
	}
}

// Lock implements Store.
func (s *MemoryStore) Lock(_ context.Context, topology, owner string) (Lease, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if holder, held := s.locks[topology]; held {
		return nil, lockedError(topology, holder)
	}
	s.locks[topology] = LockInfo{Topology: topology, Owner: owner, AcquiredAt: time.Now().UTC()}
	return &memoryLease{store: s, topology: topology}, nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, topology string) (*Snapshot, error) {
	s.mu.Lock()
	data, ok := s.snapshots[topology]
	s.mu.Unlock()
	if !ok {
		return NewSnapshot(topology), nil
	}
	return DecodeSnapshot(data)
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, snap *Snapshot) error {
	data, err := stamp(snap).Encode()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.Topology] = data
	s.saves++
	return nil
}

// Unlock implements Store.
func (s *MemoryStore) Unlock(_ context.Context, topology string) (LockInfo, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	holder, held := s.locks[topology]
	delete(s.locks, topology)
	return holder, held, nil
}

// Saves returns how many times a journal was saved.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Locked reports whether a topology's lease is held.
func (s *MemoryStore) Locked(topology string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, held := s.locks[topology]
	return held
}

type memoryLease struct {
	store    *MemoryStore
	topology string
	once     sync.Once
}

func (l *memoryLease) Release(context.Context) error {
	l.once.Do(func() {
		l.store.mu.Lock()
		defer l.store.mu.Unlock()
		delete(l.store.locks, l.topology)
	})
	return nil
}
