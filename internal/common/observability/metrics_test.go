package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservability_ZeroValueIsSafe(t *testing.T) {
	var o Observability
	ctx := context.Background()

	assert.NotPanics(t, func() {
		o.RecordJobProcessed(ctx, "find-neighborhood-matches", "completed")
		o.RecordJobDuration(ctx, "find-neighborhood-matches", time.Second, "completed")
		o.RecordMatchBatch(ctx, 6, 3)
	})
	assert.NoError(t, o.Shutdown(ctx))
}

func TestObservability_New(t *testing.T) {
	o, err := New("matcher-test")
	require.NoError(t, err)
	ctx := context.Background()

	o.RecordJobProcessed(ctx, "calculate-neighborhood-match", "failed")
	o.RecordMatchBatch(ctx, 6, 2)

	require.NoError(t, o.Shutdown(ctx))
}
