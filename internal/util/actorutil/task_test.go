package actorutil

import (
	"errors"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type runTask struct {
	fn      func() (*int, error)
	timeout time.Duration
}

type taskResult struct {
	value int
	err   error
}

func TestBackgroundTaskPipeTo(t *testing.T) {
	assert := assert.New(t)

	as := NewActorSystemWithZapLogger(zap.NewNop())
	defer as.Shutdown()

	results := make(chan taskResult, 1)
	pid := as.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case runTask:
			MapBackgroundTask(NewBackgroundTask(ctx, msg.fn), func(v *int) *taskResult {
				return &taskResult{value: *v}
			}).Recover(func(err error) taskResult {
				return taskResult{err: err}
			}).WithTimeout(msg.timeout).PipeTo(ctx.Self())
		case taskResult:
			results <- msg
		}
	}))
	defer as.Root.Stop(pid)

	await := func() taskResult {
		select {
		case r := <-results:
			return r
		case <-time.After(2 * time.Second):
			t.Fatal("no task result")
			return taskResult{}
		}
	}

	as.Root.Send(pid, runTask{fn: func() (*int, error) {
		v := 42
		return &v, nil
	}})
	r := await()
	assert.NoError(r.err)
	assert.Equal(42, r.value)

	errBoom := errors.New("boom")
	as.Root.Send(pid, runTask{fn: func() (*int, error) {
		return nil, errBoom
	}})
	assert.Error(await().err)

	as.Root.Send(pid, runTask{fn: func() (*int, error) {
		panic(errors.New("driver panic"))
	}})
	assert.Error(await().err)

	as.Root.Send(pid, runTask{timeout: 50 * time.Millisecond, fn: func() (*int, error) {
		time.Sleep(500 * time.Millisecond)
		v := 1
		return &v, nil
	}})
	assert.Error(await().err)
}
