package hosting

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifetime(t *testing.T) {
	l := NewLifetime()
	assert.False(t, l.IsStopping())
	assert.False(t, l.IsStopped())

	l.StopApplication()
	l.StopApplication()
	assert.True(t, l.IsStopping())
	assert.False(t, l.IsStopped())

	select {
	case <-l.Stopping():
	default:
		t.Fatal("Stopping channel should be closed")
	}

	l.NotifyStopped()
	l.NotifyStopped()
	assert.True(t, l.IsStopped())
	<-l.Stopped()
}

func TestLifetimeNotifyStoppedImpliesStopping(t *testing.T) {
	l := NewLifetime()
	l.NotifyStopped()
	assert.True(t, l.IsStopping())
	assert.True(t, l.IsStopped())
}

type blockingService struct {
	started atomic.Bool
	stopped atomic.Bool
	exited  chan struct{}
}

func (s *blockingService) Start(ctx context.Context) error {
	s.started.Store(true)
	<-ctx.Done()
	close(s.exited)
	return ctx.Err()
}

func (s *blockingService) Stop(ctx context.Context) error {
	s.stopped.Store(true)
	return nil
}

func TestHostedServiceManagerStartStop(t *testing.T) {
	m := NewHostedServiceManager(nil, nil)
	svc := &blockingService{exited: make(chan struct{})}

	require.NoError(t, m.Start(context.Background(), "blocking", svc))
	assert.Error(t, m.Start(context.Background(), "blocking", svc))
	assert.Equal(t, 1, m.Running())

	require.NoError(t, m.Stop(context.Background(), "blocking"))
	assert.True(t, svc.stopped.Load())

	select {
	case <-svc.exited:
	case <-time.After(time.Second):
		t.Fatal("service context was not cancelled")
	}
	m.Wait()
	assert.Equal(t, 0, m.Running())

	// 重复停止是 no-op
	assert.NoError(t, m.Stop(context.Background(), "blocking"))
}

type failingService struct{ err error }

func (s failingService) Start(context.Context) error { return s.err }
func (s failingService) Stop(context.Context) error  { return s.err }

func TestHostedServiceManagerReportsErrors(t *testing.T) {
	boom := errors.New("boom")
	reported := make(chan string, 1)
	m := NewHostedServiceManager(nil, func(name string, err error) {
		assert.ErrorIs(t, err, boom)
		reported <- name
	})

	require.NoError(t, m.Start(context.Background(), "failing", failingService{err: boom}))
	select {
	case name := <-reported:
		assert.Equal(t, "failing", name)
	case <-time.After(time.Second):
		t.Fatal("start error was not reported")
	}

	err := m.Stop(context.Background(), "failing")
	assert.ErrorIs(t, err, boom)
}

func TestHostedServiceManagerSkipsCancelledStart(t *testing.T) {
	m := NewHostedServiceManager(nil, nil)
	svc := &blockingService{exited: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, m.Start(ctx, "blocking", svc))
	assert.Equal(t, 0, m.Running())
	assert.False(t, svc.started.Load())
	assert.NoError(t, m.Stop(context.Background(), "blocking"))
	assert.False(t, svc.stopped.Load())
}
