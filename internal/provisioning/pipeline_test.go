package provisioning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fstest "github.com/imamik/fleetstack/internal/testing"
)

// mockPhase implements the Phase interface for testing.
type mockPhase struct {
	name  string
	err   error
	calls *[]string
}

func (m *mockPhase) Name() string { return m.name }
func (m *mockPhase) Provision(_ *Context) error {
	if m.calls != nil {
		*m.calls = append(*m.calls, m.name)
	}
	return m.err
}

func TestNewPipeline(t *testing.T) {
	t.Parallel()
	p1 := &mockPhase{name: "phase-1"}
	p2 := &mockPhase{name: "phase-2"}

	pipeline := NewPipeline(p1, p2)

	require.NotNil(t, pipeline)
	assert.Len(t, pipeline.Phases, 2)
	assert.Equal(t, "phase-1", pipeline.Phases[0].Name())
	assert.Equal(t, "phase-2", pipeline.Phases[1].Name())
}

func TestNewPipeline_Empty(t *testing.T) {
	t.Parallel()
	pipeline := NewPipeline()

	require.NotNil(t, pipeline)
	assert.Empty(t, pipeline.Phases)
}

func TestPipeline_Run(t *testing.T) {
	t.Parallel()
	var calls []string
	obs := NewMockObserver()
	ctx := NewContext(context.Background(), fstest.MinimalConfig(), nil, nil, obs)

	err := NewPipeline(
		&mockPhase{name: "one", calls: &calls},
		&mockPhase{name: "two", calls: &calls},
	).Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, calls)
	assert.Len(t, obs.EventsOf(EventPhaseStarted), 2)
	assert.Len(t, obs.EventsOf(EventPhaseCompleted), 2)
}

func TestRunPhases_StopsOnFailure(t *testing.T) {
	t.Parallel()
	var calls []string
	obs := NewMockObserver()
	ctx := NewContext(context.Background(), fstest.MinimalConfig(), nil, nil, obs)
	boom := errors.New("boom")

	err := RunPhases(ctx, []Phase{
		&mockPhase{name: "one", calls: &calls, err: boom},
		&mockPhase{name: "two", calls: &calls},
	})

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "one phase failed")
	assert.Equal(t, []string{"one"}, calls)
	assert.Len(t, obs.EventsOf(EventPhaseFailed), 1)
}
