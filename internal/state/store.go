package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imamik/fleetstack/internal/config"
)

// ErrTopologyLocked is wrapped by the error returned when another run owns
// the topology.
var ErrTopologyLocked = errors.New("topology is locked by another run")

// Store persists journals and hands out run leases.
type Store interface {
	// Lock takes the exclusive lease of a topology. It fails with an error
	// wrapping ErrTopologyLocked when the lease is held.
	Lock(ctx context.Context, topology, owner string) (Lease, error)

	// Load returns the journal of a topology, or an empty one.
	Load(ctx context.Context, topology string) (*Snapshot, error)

	// Save replaces the journal of snap.Topology.
	Save(ctx context.Context, snap *Snapshot) error

	// Unlock removes the lease of a topology regardless of its holder and
	// returns the holder it removed. held is false when no lease existed.
	// It recovers a lease left behind by a run that was killed.
	Unlock(ctx context.Context, topology string) (holder LockInfo, held bool, err error)
}

// Lease is a held run lease.
type Lease interface {
	Release(ctx context.Context) error
}

// LockInfo is the content of a lease.
type LockInfo struct {
	Topology   string    `yaml:"topology"`
	Owner      string    `yaml:"owner"`
	AcquiredAt time.Time `yaml:"acquired_at"`
}

func (l LockInfo) encode() ([]byte, error) {
	return yaml.Marshal(l)
}

func decodeLockInfo(data []byte) LockInfo {
	var l LockInfo
	// A corrupt lock still blocks; only the description is lost.
	_ = yaml.Unmarshal(data, &l)
	return l
}

// lockedError reports a held lease as a configuration error: two runs over
// the same topology are never resolved silently.
func lockedError(topology string, holder LockInfo) error {
	msg := fmt.Sprintf("topology %q is already being materialized", topology)
	if holder.Owner != "" {
		msg = fmt.Sprintf("%s by %s since %s", msg, holder.Owner, holder.AcquiredAt.Format(time.RFC3339))
	}
	return &config.ConfigurationError{Field: "state", Message: msg, Err: ErrTopologyLocked}
}

// IsLocked reports whether err is a held-lease error.
func IsLocked(err error) bool {
	return errors.Is(err, ErrTopologyLocked)
}

// Open returns the store selected by cfg.
func Open(ctx context.Context, cfg config.StateConfig) (Store, error) {
	switch cfg.Backend {
	case config.StateBackendMemory:
		return NewMemoryStore(), nil
	case config.StateBackendFile, "":
		return NewFileStore(cfg.Path), nil
	case config.StateBackendS3:
		return NewS3Store(ctx, cfg.S3)
	default:
		return nil, config.Errorf("state.backend", "unknown state backend %q", cfg.Backend)
	}
}

func stamp(snap *Snapshot) *Snapshot {
	out := snap.Clone()
	out.Version = SnapshotVersion
	out.UpdatedAt = time.Now().UTC()
	return out
}
