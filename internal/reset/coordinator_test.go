package reset

import (
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"medtrack/internal/clock"
)

type fakeService struct {
	mu         sync.Mutex
	applied    []time.Time
	caughtUp   []time.Time
	applyErr   error
	catchUpErr error
}

func (f *fakeService) ApplyRollover(now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, now)
	return f.applyErr
}

func (f *fakeService) CatchUpRollover(now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.caughtUp = append(f.caughtUp, now)
	return f.catchUpErr
}

func (f *fakeService) applyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.applied)
}

func TestStart_RunsCatchUp(t *testing.T) {
	now := time.Date(2024, time.April, 10, 9, 0, 0, 0, time.Local)
	svc := &fakeService{}
	c := New(svc, clock.Fixed{T: now}, zap.NewNop())

	require.NoError(t, c.Start())
	defer c.Stop()

	require.Len(t, svc.caughtUp, 1)
	assert.True(t, now.Equal(svc.caughtUp[0]))
	assert.True(t, c.IsRunning())
}

func TestStart_Idempotent(t *testing.T) {
	now := time.Date(2024, time.April, 10, 9, 0, 0, 0, time.Local)
	svc := &fakeService{}
	c := New(svc, clock.Fixed{T: now}, zap.NewNop())

	require.NoError(t, c.Start())
	require.NoError(t, c.Start())
	defer c.Stop()

	assert.Len(t, svc.caughtUp, 1)
}

func TestStart_CatchUpFailureStillArms(t *testing.T) {
	now := time.Date(2024, time.April, 10, 9, 0, 0, 0, time.Local)
	svc := &fakeService{catchUpErr: stderrors.New("store down")}
	c := New(svc, clock.Fixed{T: now}, zap.NewNop())

	require.NoError(t, c.Start())
	defer c.Stop()

	c.mu.Lock()
	armed := c.timer != nil
	c.mu.Unlock()
	assert.True(t, armed)
}

func TestFire_AppliesAndRearms(t *testing.T) {
	now := time.Date(2024, time.April, 11, 0, 0, 0, 500000000, time.Local)
	svc := &fakeService{}
	c := New(svc, clock.Fixed{T: now}, zap.NewNop())

	require.NoError(t, c.Start())
	defer c.Stop()

	c.fire()

	assert.Equal(t, 1, svc.applyCount())
	c.mu.Lock()
	armed := c.timer != nil
	c.mu.Unlock()
	assert.True(t, armed, "timer re-armed after firing")
}

func TestFire_FailureStillRearms(t *testing.T) {
	now := time.Date(2024, time.April, 11, 0, 0, 0, 500000000, time.Local)
	svc := &fakeService{applyErr: stderrors.New("store down")}
	c := New(svc, clock.Fixed{T: now}, zap.NewNop())

	require.NoError(t, c.Start())
	defer c.Stop()

	c.fire()

	assert.Equal(t, 1, svc.applyCount())
	c.mu.Lock()
	armed := c.timer != nil
	c.mu.Unlock()
	assert.True(t, armed, "failure must not break the midnight chain")
}

func TestStop_CancelsTimer(t *testing.T) {
	now := time.Date(2024, time.April, 10, 9, 0, 0, 0, time.Local)
	svc := &fakeService{}
	c := New(svc, clock.Fixed{T: now}, zap.NewNop())

	require.NoError(t, c.Start())
	c.Stop()

	assert.False(t, c.IsRunning())
	c.mu.Lock()
	assert.Nil(t, c.timer)
	c.mu.Unlock()

	// Arming after Stop is a no-op.
	c.arm()
	c.mu.Lock()
	assert.Nil(t, c.timer)
	c.mu.Unlock()
}
