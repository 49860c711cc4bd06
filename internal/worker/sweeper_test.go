package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingMarker struct {
	calls int64
}

func (m *countingMarker) MarkOverdueBooks(context.Context) (int64, error) {
	atomic.AddInt64(&m.calls, 1)
	return 1, nil
}

func TestSweeper_Run(t *testing.T) {
	marker := &countingMarker{}
	s := NewSweeper(marker, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop with its context")
	}

	// one immediate sweep plus at least one tick
	require.GreaterOrEqual(t, atomic.LoadInt64(&marker.calls), int64(2))
}
