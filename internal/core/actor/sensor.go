package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/mikettle2mqtt/internal/core/domain"
	"github.com/berfenger/mikettle2mqtt/internal/core/port"
	"github.com/berfenger/mikettle2mqtt/internal/scheduler"
	. "github.com/berfenger/mikettle2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

// MIN_SENSOR_REQUEST_TIMEOUT bounds how long a sensor waits for the kettle
// actor when the scan interval is shorter.
const MIN_SENSOR_REQUEST_TIMEOUT = 30 * time.Second

// SensorActor polls one kettle parameter. Polls are triggered by the
// scheduler, by the first HostStartedEvent forwarded by the master and by
// PollNowRequest. A trigger arriving while a poll is in flight is dropped.
// Later HostStartedEvents republish the last state without polling.
type SensorActor struct {
	entity         port.PollingEntity
	kettleActor    *actor.PID
	eventStream    *eventstream.EventStream
	scheduler      *scheduler.PollScheduler
	interval       time.Duration
	requestTimeout time.Duration

	polling     bool
	hostStarted bool

	logger *zap.Logger
}

type pollTick struct {
}

func NewSensorActor(entity port.PollingEntity, kettleActor *actor.PID, eventStream *eventstream.EventStream,
	pollScheduler *scheduler.PollScheduler, interval time.Duration, logger *zap.Logger) *SensorActor {
	return &SensorActor{
		entity:         entity,
		kettleActor:    kettleActor,
		eventStream:    eventStream,
		scheduler:      pollScheduler,
		interval:       interval,
		requestTimeout: max(interval, MIN_SENSOR_REQUEST_TIMEOUT),
		logger:         ActorLogger(fmt.Sprintf("%s:%s", domain.ACTOR_ID_SENSOR, entity.Parameter().Key()), logger),
	}
}

func (state *SensorActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("sensor@default started")
		state.start(ctx)
	case *actor.Stopping:
		state.stop()
	case *actor.Restarting:
		state.stop()
	case domain.HostStartedEvent:
		if state.hostStarted {
			// the host may have missed updates while it was away
			state.logger.Debug("sensor@default host restarted, republishing", zap.String("reason", msg.Reason))
			state.publish()
			return
		}
		state.hostStarted = true
		state.logger.Debug("sensor@default host started", zap.String("reason", msg.Reason))
		state.poll(ctx)
	case pollTick:
		state.poll(ctx)
	case domain.PollNowRequest:
		state.poll(ctx)
	case domain.GetParameterValueResponse:
		state.polling = false
		result := state.entity.Apply(msg.Value, msg.ResponseError)
		state.logger.Debug("sensor@default poll done",
			zap.Stringer("outcome", result.Outcome),
			zap.Bool("changed", result.Changed),
			zap.Bool("publish", result.Publish))
		if result.Publish {
			state.publish()
		}
	case domain.GetSensorStateRequest:
		ForRequest(msg).Respond(ctx, domain.GetSensorStateResponse{
			State: state.entity.Properties(),
		})
	case domain.ActorHealthRequest:
		actorState := "idle"
		if state.polling {
			actorState = "polling"
		}
		ctx.Respond(domain.ActorHealthResponse{
			Id:      state.entity.Properties().Id,
			Healthy: true,
			State:   actorState,
		})
	default:
		state.logger.Debug("sensor@default ignored", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *SensorActor) start(ctx actor.Context) {
	root := ctx.ActorSystem().Root
	self := ctx.Self()

	if state.scheduler != nil {
		err := state.scheduler.Every(state.jobKey(), state.interval, func() {
			root.Send(self, pollTick{})
		})
		if err != nil {
			panic(err)
		}
	}
}

func (state *SensorActor) poll(ctx actor.Context) {
	if state.polling {
		state.logger.Debug("sensor@default poll skipped, previous poll in flight")
		return
	}
	state.polling = true
	parameter := state.entity.Parameter()
	state.logger.Debug("sensor@default poll", zap.Stringer("parameter", parameter))
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.kettleActor, domain.GetParameterValueRequest{Parameter: parameter}, state.requestTimeout), func(err error) any {
		return domain.GetParameterValueResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
			Parameter: parameter,
		}
	})
}

func (state *SensorActor) publish() {
	if state.eventStream != nil {
		state.eventStream.Publish(state.entity.UpdateEvent())
	}
}

func (state *SensorActor) jobKey() string {
	return state.entity.Properties().Id
}

func (state *SensorActor) stop() {
	if state.scheduler != nil {
		state.scheduler.Cancel(state.jobKey())
	}
}
