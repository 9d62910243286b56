package state

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/imamik/fleetstack/internal/materializer"
	"github.com/imamik/fleetstack/internal/topology"
)

// SnapshotVersion is the journal format version.
const SnapshotVersion = 1

// Entry is the journal record of one entity.
type Entry struct {
	Key        topology.Key        `yaml:"key"`
	Identity   string              `yaml:"identity,omitempty"`
	Hash       string              `yaml:"hash,omitempty"`
	Status     materializer.Status `yaml:"status"`
	Reason     string              `yaml:"reason,omitempty"`
	Attributes map[string]string   `yaml:"attributes,omitempty"`

	// DependsOn lists the entities this one was realized against, so that
	// teardown can order entries no longer in the topology.
	DependsOn []topology.Key `yaml:"depends_on,omitempty"`

	UpdatedAt time.Time `yaml:"updated_at"`
}

// Complete reports whether the entry is complete for the given hash.
func (e Entry) Complete(hash string) bool {
	return e.Status == materializer.StatusComplete && e.Identity != "" && e.Hash == hash
}

// Snapshot is the journal of one topology.
type Snapshot struct {
	Version   int               `yaml:"version"`
	Topology  string            `yaml:"topology"`
	Entries   map[string]*Entry `yaml:"entries"`
	UpdatedAt time.Time         `yaml:"updated_at"`
}

// NewSnapshot returns an empty journal for a topology.
func NewSnapshot(topologyName string) *Snapshot {
	return &Snapshot{
		Version:  SnapshotVersion,
		Topology: topologyName,
		Entries:  make(map[string]*Entry),
	}
}

// Get returns a copy of the entry for key.
func (s *Snapshot) Get(key topology.Key) (Entry, bool) {
	e, ok := s.Entries[key.String()]
	if !ok {
		return Entry{}, false
	}
	out := *e
	out.Attributes = maps.Clone(e.Attributes)
	out.DependsOn = slices.Clone(e.DependsOn)
	return out, true
}

// Put records e under its key.
func (s *Snapshot) Put(e Entry) {
	if s.Entries == nil {
		s.Entries = make(map[string]*Entry)
	}
	e.Attributes = maps.Clone(e.Attributes)
	e.DependsOn = slices.Clone(e.DependsOn)
	s.Entries[e.Key.String()] = &e
}

// Remove drops the entry for key.
func (s *Snapshot) Remove(key topology.Key) {
	delete(s.Entries, key.String())
}

// Keys returns the keys of every entry, sorted by their string form.
func (s *Snapshot) Keys() []topology.Key {
	names := make([]string, 0, len(s.Entries))
	for name := range s.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	keys := make([]topology.Key, 0, len(names))
	for _, name := range names {
		keys = append(keys, s.Entries[name].Key)
	}
	return keys
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	return len(s.Entries)
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{Version: s.Version, Topology: s.Topology, UpdatedAt: s.UpdatedAt, Entries: make(map[string]*Entry, len(s.Entries))}
	for k, e := range s.Entries {
		c := *e
		c.Attributes = maps.Clone(e.Attributes)
		c.DependsOn = slices.Clone(e.DependsOn)
		out.Entries[k] = &c
	}
	return out
}

// Encode renders the snapshot as YAML.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state of %s: %w", s.Topology, err)
	}
	return data, nil
}

// DecodeSnapshot parses a YAML snapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	if s.Version > SnapshotVersion {
		return nil, fmt.Errorf("state version %d is newer than supported version %d", s.Version, SnapshotVersion)
	}
	if s.Entries == nil {
		s.Entries = make(map[string]*Entry)
	}
	for name, e := range s.Entries {
		if e == nil || e.Key.String() != name {
			return nil, fmt.Errorf("state entry %q does not match its key", name)
		}
	}
	return &s, nil
}
