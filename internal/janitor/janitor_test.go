package janitor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeSweeper struct {
	refreshCalls   atomic.Int32
	blacklistCalls atomic.Int32
	refreshErr     error
}

func (f *fakeSweeper) SweepExpiredRefreshTokens(context.Context) (int64, error) {
	f.refreshCalls.Add(1)
	return 1, f.refreshErr
}

func (f *fakeSweeper) SweepExpiredBlacklist(context.Context) (int64, error) {
	f.blacklistCalls.Add(1)
	return 2, nil
}

func TestRun_SweepsOnEveryTick_UntilCancel(t *testing.T) {
	t.Parallel()

	sw := &fakeSweeper{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		New(sw, 5*time.Millisecond).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return sw.refreshCalls.Load() >= 2 && sw.blacklistCalls.Load() >= 2
	}, time.Second, 5*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop after cancel")
	}
}

func TestRun_ErrorDoesNotStopBlacklistSweep(t *testing.T) {
	t.Parallel()

	sw := &fakeSweeper{refreshErr: errors.New("db down")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go New(sw, 5*time.Millisecond).Run(ctx)

	require.Eventually(t, func() bool {
		return sw.blacklistCalls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
}

func TestRun_DisabledReturnsImmediately(t *testing.T) {
	t.Parallel()

	sw := &fakeSweeper{}

	done := make(chan struct{})
	go func() {
		New(sw, 0).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled janitor must return")
	}

	require.Zero(t, sw.refreshCalls.Load())
}
