package provisioning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imamik/fleetstack/internal/topology"
)

func TestMaterializationFailure_Error(t *testing.T) {
	t.Parallel()
	key := topology.Key{Kind: topology.KindFleet, Region: "us-west-2", Name: "app"}

	tests := []struct {
		name string
		err  *MaterializationFailure
		want string
	}{
		{
			name: "reason only",
			err:  &MaterializationFailure{Key: key, Attempts: 1, Reason: "no capacity"},
			want: "fleet/us-west-2/app failed after 1 attempts: no capacity",
		},
		{
			name: "cause repeats reason",
			err:  &MaterializationFailure{Key: key, Attempts: 2, Reason: "no capacity", Err: errors.New("wrapped: no capacity")},
			want: "fleet/us-west-2/app failed after 2 attempts: no capacity",
		},
		{
			name: "cause only",
			err:  &MaterializationFailure{Key: key, Attempts: 3, Err: context.DeadlineExceeded},
			want: "fleet/us-west-2/app failed after 3 attempts: context deadline exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestPartialFailureError(t *testing.T) {
	t.Parallel()
	fleet := topology.Key{Kind: topology.KindFleet, Region: "us-west-2", Name: "app"}
	edge := topology.Key{Kind: topology.KindEdge, Region: "us-west-2", Name: "alb"}
	cause := &MaterializationFailure{Key: fleet, Attempts: 4, Reason: "no capacity"}

	err := error(&PartialFailureError{
		Topology: "tictactoe",
		Failed:   []topology.Key{fleet},
		Blocked:  []topology.Key{edge},
		Errors:   map[topology.Key]error{fleet: cause, edge: errors.New("skipped")},
	})

	assert.True(t, IsPartialFailure(err))
	assert.False(t, IsPartialTeardown(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "1 failed, 1 blocked, 0 pending")
	assert.Contains(t, err.Error(), "blocked: edge/us-west-2/alb")
}

func TestPartialTeardownError(t *testing.T) {
	t.Parallel()
	fleet := topology.Key{Kind: topology.KindFleet, Region: "us-west-2", Name: "app"}
	cause := errors.New("in use")

	err := error(&PartialTeardownError{
		Topology: "tictactoe",
		Failed:   []topology.Key{fleet},
		Errors:   map[topology.Key]error{fleet: cause},
	})

	assert.True(t, IsPartialTeardown(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "teardown of tictactoe is incomplete: 1 failed, 0 blocked")
}
