package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestEveryFiresRepeatedly(t *testing.T) {

	s := NewPollScheduler(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	var count atomic.Int32
	err := s.Every("kettle_mode", 100*time.Millisecond, func() {
		count.Add(1)
	})
	assert.NoError(t, err)

	assert.Eventually(t, func() bool { return count.Load() >= 3 }, 3*time.Second, 20*time.Millisecond)
}

func TestCancelStopsFiring(t *testing.T) {

	s := NewPollScheduler(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)
	defer s.Stop()

	var count atomic.Int32
	assert.NoError(t, s.Every("kettle_action", 100*time.Millisecond, func() { count.Add(1) }))
	assert.Eventually(t, func() bool { return count.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	s.Cancel("kettle_action")
	// let an in-flight execution settle
	time.Sleep(150 * time.Millisecond)
	after := count.Load()
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, after, count.Load())
}

func TestEveryRejectsInvalidInterval(t *testing.T) {
	s := NewPollScheduler(zap.NewNop())
	assert.Error(t, s.Every("bad", 0, func() {}))
}
