package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/mikettle2mqtt/internal/core/domain"
	"github.com/berfenger/mikettle2mqtt/internal/core/service"
	"github.com/berfenger/mikettle2mqtt/internal/util/actorutil"
	"github.com/berfenger/mikettle2mqtt/pkg/mikettle"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// KettleActor owns the driver handle shared by every sensor of one kettle.
// Requests are served one at a time; the ones arriving while the driver is
// busy are stashed, keeping only the latest request per parameter. A call
// abandoned on timeout still holds the driver until it returns.
type KettleActor struct {
	behavior    actor.Behavior
	stash       *actorutil.Stash
	kettle      mikettle.Kettle
	pollTimeout time.Duration
	replied     bool
	released    bool
	logger      *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

// driverReleased is sent once the driver call of the current request returned.
type driverReleased struct {
}

func NewKettleActor(kettle mikettle.Kettle, pollTimeout time.Duration, logger *zap.Logger) *KettleActor {
	act := &KettleActor{
		kettle:      kettle,
		pollTimeout: pollTimeout,
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		logger:      actorutil.ActorLogger(domain.ACTOR_ID_KETTLE, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *KettleActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *KettleActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("kettle@default started")
	case domain.ActorHealthRequest:
		state.logger.Debug("kettle@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_KETTLE,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetParameterValueRequest:
		state.logger.Debug("kettle@default: GetParameterValueRequest", zap.Stringer("parameter", msg.Parameter))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		parameter := msg.Parameter
		root := ctx.ActorSystem().Root
		self := ctx.Self()

		state.replied = false
		state.released = false
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.GetParameterValueResponse, error) {
			defer root.Send(self, driverReleased{})
			return state.getParameterValue(parameter), nil
		}), mapTaskResult[domain.GetParameterValueResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetParameterValueResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: fmt.Errorf("kettle poll %q: %w", parameter, err),
					},
					Parameter: parameter,
				},
				replyTo: sender,
			}
		}).WithTimeout(state.pollTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingKettle)
	case driverReleased:
		// late release of a call that was already answered
	default:
		state.logger.Debug("kettle@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *KettleActor) WaitingKettle(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("kettle@WaitingKettle backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		if msg.replyTo != nil {
			ctx.Send(msg.replyTo, msg.message)
		}
		state.replied = true
		state.nextRequest(ctx)
	case driverReleased:
		state.released = true
		state.nextRequest(ctx)
	case domain.ActorHealthRequest:
		status := "polling"
		if state.replied {
			status = "draining"
		}
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_KETTLE,
			Healthy: true,
			State:   status,
		})
	case domain.GetParameterValueRequest:
		// a retry replaces the older request for the same parameter
		replaced := state.stash.StashReplacing(ctx, msg, func(old any) bool {
			req, ok := old.(domain.GetParameterValueRequest)
			return ok && req.Parameter == msg.Parameter
		})
		state.logger.Debug("kettle@WaitingKettle stash", zap.Stringer("parameter", msg.Parameter),
			zap.Bool("replaced", replaced), zap.Int("queued", state.stash.Len()))
	default:
		state.logger.Debug("kettle@WaitingKettle stash", zap.String("type", fmt.Sprintf("%T", msg)), zap.Int("queued", state.stash.Len()+1))
		state.stash.Stash(ctx, msg)
	}
}

// nextRequest leaves the waiting state once the caller got its answer and
// the driver is free again.
func (state *KettleActor) nextRequest(ctx actor.Context) {
	if !state.replied || !state.released {
		return
	}
	state.behavior.UnbecomeStacked()
	state.stash.UnstashAll(ctx)
}

func (state *KettleActor) getParameterValue(p mikettle.Parameter) *domain.GetParameterValueResponse {
	value, err := service.QueryParameter(state.kettle, p)
	if err != nil {
		state.logger.Debug("kettle: driver error", zap.Stringer("parameter", p), zap.Error(err))
	}
	return &domain.GetParameterValueResponse{
		ActorResponseMixIn: domain.ActorResponseMixIn{
			ResponseError: err,
		},
		Parameter: p,
		Value:     value,
	}
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
