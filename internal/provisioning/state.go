package provisioning

import (
	"sync"

	"github.com/imamik/fleetstack/internal/materializer"
	"github.com/imamik/fleetstack/internal/topology"
)

// State holds the shared results of provisioning phases.
// It is progressively populated as each phase completes.
type State struct {
	mu sync.Mutex

	// Results holds the last materializer result per entity of this run.
	Results map[topology.Key]materializer.Result

	// Outputs is set by the Assembler once the graph has been walked,
	// whether or not every entity completed.
	Outputs *Outputs

	// Pruned lists superseded templates removed after a complete run.
	Pruned []topology.Key

	// Retained lists recorded entities the declaration no longer contains.
	// They stay materialized until an explicit teardown.
	Retained []topology.Key
}

// NewState creates an empty provisioning state.
func NewState() *State {
	return &State{
		Results: make(map[topology.Key]materializer.Result),
	}
}

func (s *State) recordResult(key topology.Key, res materializer.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Results[key] = res.Clone()
}

// Result returns the last result recorded for key.
func (s *State) Result(key topology.Key) (materializer.Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.Results[key]
	return r, ok
}
