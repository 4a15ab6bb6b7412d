package framework

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRunnerStopsOthers(t *testing.T) {
	errFailed := errors.New("failed")
	err := NewRunner().Go(
		NamedRun("pump", RunFunc(func(ctx context.Context) error {
			return errFailed
		})),
		NamedRun("server", RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		})),
	).Wait()
	require.Error(t, err)
	require.True(t, errors.Is(err, errFailed))
	require.Equal(t, "pump: failed", err.Error())
}

func TestRunnerClean(t *testing.T) {
	var stopped bool
	r := NewRunner()
	r.Go(
		RunFunc(func(ctx context.Context) error { return nil }),
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			stopped = true
			return nil
		}),
	)
	require.NoError(t, r.Wait())
	require.True(t, stopped)
	require.Error(t, r.Context().Err())
}

type testCloser struct {
	closed int
	ch     chan struct{}
}

func (c *testCloser) Close() error {
	c.closed++
	close(c.ch)
	return nil
}

func TestRunWithContextCloser(t *testing.T) {
	c := &testCloser{ch: make(chan struct{})}
	err := RunWithContextCloser(context.Background(), c, func() error { return io.EOF })
	require.Equal(t, io.EOF, err)
	require.Equal(t, 1, c.closed)

	c = &testCloser{ch: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = RunWithContextCloser(ctx, c, func() error {
		<-c.ch
		return io.ErrClosedPipe
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 1, c.closed)
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil).Aggregate())
	errs.Add(errors.New("a"), nil, io.EOF)
	err := errs.Aggregate()
	require.Equal(t, "multiple errors:\n  a\n  EOF", err.Error())
	require.True(t, errors.Is(err, io.EOF))
}

func TestRunnerForcedExit(t *testing.T) {
	r := NewRunner()
	release := make(chan struct{})
	r.Go(RunFunc(func(ctx context.Context) error {
		<-release
		return errors.New("late")
	}))
	close(r.exitCh)
	require.Equal(t, ErrForcedExit, r.Wait())

	close(release)
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runnable blocked after forced exit")
	}
}
