package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyString(t *testing.T) {
	t.Parallel()
	k := Key{Kind: KindFleet, Region: "us-east-1", Name: "tictactoe-us-east-1-app"}
	assert.Equal(t, "fleet/us-east-1/tictactoe-us-east-1-app", k.String())
}

func TestParseKey(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		k := Key{Kind: KindSecurityGroup, Region: "eu-west-1", Name: "app/sg"}
		parsed, err := ParseKey(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	})

	for _, in := range []string{"", "fleet", "fleet/us-east-1", "fleet//name", "/us-east-1/name"} {
		t.Run("invalid "+in, func(t *testing.T) {
			t.Parallel()
			_, err := ParseKey(in)
			assert.Error(t, err)
		})
	}
}

func TestKeyIsZero(t *testing.T) {
	t.Parallel()
	assert.True(t, Key{}.IsZero())
	assert.False(t, Key{Kind: KindTable}.IsZero())
}
