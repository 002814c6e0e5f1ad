package host

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/grain-go/core/actor"
)

// CreateTestSilo starts a Silo with kinds registered and stops it when
// the test ends.
func CreateTestSilo(t *testing.T, cfg Config, kinds ...actor.Kind) *Silo {
	t.Helper()

	s := New(Options{Config: cfg})
	for _, k := range kinds {
		require.NoError(t, s.Register(k))
	}
	s.Start(t.Context())
	t.Cleanup(func() {
		require.NoError(t, s.Stop(context.Background()))
	})
	return s
}
