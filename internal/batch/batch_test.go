package batch

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"cilopt/internal/ir"

	"github.com/stretchr/testify/require"
)

func TestRunConcurrentVisitsEveryBody(t *testing.T) {
	bodies := make([]*ir.MethodBody, 8)
	for i := range bodies {
		bodies[i] = ir.NewMethodBody("M", nil)
	}

	var visited int64
	err := RunConcurrent(context.Background(), bodies, 4, func(_ context.Context, mb *ir.MethodBody) error {
		atomic.AddInt64(&visited, 1)
		return nil
	})
	require.NoError(t, err)
	require.EqualValues(t, len(bodies), visited)
}

func TestRunConcurrentPropagatesFirstErrorButFinishesEveryBody(t *testing.T) {
	bodies := make([]*ir.MethodBody, 5)
	for i := range bodies {
		bodies[i] = ir.NewMethodBody("M", nil)
	}

	boom := errors.New("boom")
	var completed int64
	err := RunConcurrent(context.Background(), bodies, 2, func(_ context.Context, mb *ir.MethodBody) error {
		defer atomic.AddInt64(&completed, 1)
		if mb == bodies[0] {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	require.EqualValues(t, len(bodies), completed)
}
