package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/imamik/fleetstack/internal/util/naming"
)

// FileStore keeps journals as YAML files in a directory.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store rooted at dir. The directory is created on
// first write.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the store directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Lock implements Store. The lease is a lock file created exclusively.
func (s *FileStore) Lock(_ context.Context, topology, owner string) (Lease, error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, naming.LockObject(topology))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			data, _ := os.ReadFile(path)
			return nil, lockedError(topology, decodeLockInfo(data))
		}
		return nil, fmt.Errorf("failed to create lock %s: %w", path, err)
	}
	defer f.Close()

	data, err := LockInfo{Topology: topology, Owner: owner, AcquiredAt: time.Now().UTC()}.encode()
	if err == nil {
		_, err = f.Write(data)
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("failed to write lock %s: %w", path, err)
	}
	return &fileLease{path: path}, nil
}

// Unlock implements Store.
func (s *FileStore) Unlock(_ context.Context, topology string) (LockInfo, bool, error) {
	path := filepath.Join(s.dir, naming.LockObject(topology))
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return LockInfo{}, false, nil
	}
	if err != nil {
		return LockInfo{}, false, fmt.Errorf("failed to read lock %s: %w", path, err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return LockInfo{}, false, fmt.Errorf("failed to remove lock %s: %w", path, err)
	}
	return decodeLockInfo(data), true, nil
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, topology string) (*Snapshot, error) {
	path := filepath.Join(s.dir, naming.StateObject(topology))
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewSnapshot(topology), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state %s: %w", path, err)
	}
	return DecodeSnapshot(data)
}

// Save implements Store. The file is replaced atomically.
func (s *FileStore) Save(_ context.Context, snap *Snapshot) error {
	data, err := stamp(snap).Encode()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("failed to create state directory %s: %w", s.dir, err)
	}

	path := filepath.Join(s.dir, naming.StateObject(snap.Topology))
	tmp, err := os.CreateTemp(s.dir, naming.StateObject(snap.Topology)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write state %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace state %s: %w", path, err)
	}
	return nil
}

type fileLease struct {
	path string
}

func (l *fileLease) Release(context.Context) error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to release lock %s: %w", l.path, err)
	}
	return nil
}
