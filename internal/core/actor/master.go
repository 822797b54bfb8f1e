package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	adactor "github.com/berfenger/mikettle2mqtt/internal/adapter/actor"
	"github.com/berfenger/mikettle2mqtt/internal/config"
	"github.com/berfenger/mikettle2mqtt/internal/core/domain"
	"github.com/berfenger/mikettle2mqtt/internal/core/service"
	"github.com/berfenger/mikettle2mqtt/internal/scheduler"
	. "github.com/berfenger/mikettle2mqtt/internal/util/actorutil"
	"github.com/berfenger/mikettle2mqtt/pkg/mikettle"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type KettleActorProvider func() *adactor.KettleActor

type MasterOfPuppetsActor struct {
	config    config.Config
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.PollScheduler

	currentHealthCheck  healthCheckResult
	currentStates       sensorStatesResult
	eventStream         *eventstream.EventStream
	kettleActor         *actor.PID
	mqttActor           *actor.PID
	sensors             []domain.GenericSensor
	sensorActors        []*actor.PID
	subscription        *eventstream.Subscription
	kettleActorProvider KettleActorProvider
	mqttActorProvider   MQTTActorProvider
	logger              *zap.Logger
}

type healthCheckResult struct {
	healthy        map[string]bool
	expected       int
	checksReceived int
	respondTo      *actor.PID
}

type sensorStatesResult struct {
	states    map[string]domain.SensorState
	expected  int
	respondTo *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, pollScheduler *scheduler.PollScheduler, kettleActorProvider KettleActorProvider,
	mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:              config,
		scheduler:           pollScheduler,
		behavior:            actor.NewBehavior(),
		stash:               &Stash{},
		logger:              ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:         &eventstream.EventStream{},
		kettleActorProvider: kettleActorProvider,
		mqttActorProvider:   mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

// EventStream exposes the bus shared by the master's children.
func (state *MasterOfPuppetsActor) EventStream() *eventstream.EventStream {
	return state.eventStream
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		params, err := state.config.Kettle.Parameters()
		if err != nil {
			panic(err)
		}
		kettleDevice := domain.KettleDevice(state.config.Kettle.Mac, state.config.Kettle.ProductId, state.config.Kettle.Name)
		state.sensors = domain.KettleSensors(kettleDevice, state.config.Kettle.Name, params, state.config.Kettle.ForceUpdate)

		// listen for host start before any child can raise it
		root := ctx.ActorSystem().Root
		self := ctx.Self()
		state.subscription = state.eventStream.Subscribe(func(evt interface{}) {
			if ev, ok := evt.(domain.HostStartedEvent); ok {
				root.Send(self, ev)
			}
		})

		// start Kettle child
		kettleActorPID, err := state.startKettleActor(ctx)
		if err != nil {
			panic(err)
		}
		state.kettleActor = kettleActorPID

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start one Sensor child per monitored parameter
		for i := range state.sensors {
			sensorPID, err := state.startSensorActor(ctx, state.sensors[i], params[i])
			if err != nil {
				panic(err)
			}
			state.sensorActors = append(state.sensorActors, sensorPID)
		}

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset(2 + len(state.sensorActors))
		state.currentHealthCheck.respondTo = ctx.Sender()
		// Kettle Actor Request
		state.requestHealth(ctx, state.kettleActor, domain.ACTOR_ID_KETTLE)
		// MQTT Actor Request
		state.requestHealth(ctx, state.mqttActor, domain.ACTOR_ID_MQTT)
		// Sensor Actor Requests
		for i, pid := range state.sensorActors {
			state.requestHealth(ctx, pid, state.sensors[i].Id)
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.GetSensorStatesRequest:
		state.logger.Debug("master@default GetSensorStatesRequest")
		state.currentStates.reset(len(state.sensorActors))
		state.currentStates.respondTo = ForRequest(msg).ReplyTo(ctx)
		if len(state.sensorActors) == 0 {
			state.currentStates.respond(ctx, state.sensors)
			return
		}
		for i, pid := range state.sensorActors {
			id := state.sensors[i].Id
			PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.GetSensorStateRequest{}, 500*time.Millisecond), func(err error) any {
				return domain.GetSensorStateResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
					State: domain.SensorState{Id: id},
				}
			})
		}

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.SensorStatesReceive)
	case domain.HostStartedEvent:
		state.logger.Info("master@default host started", zap.String("reason", msg.Reason))
		for _, pid := range state.sensorActors {
			ctx.Send(pid, msg)
		}
	case *actor.Stopping:
		if state.subscription != nil {
			state.eventStream.Unsubscribe(state.subscription)
			state.subscription = nil
		}
	case domain.PollNowRequest:
		// fan out to every sensor
		for _, pid := range state.sensorActors {
			ctx.Send(pid, domain.PollNowRequest{})
		}
	case *actor.ReceiveTimeout:
		ctx.CancelReceiveTimeout()
	case *actor.Terminated:
		// if the kettle actor gives up, terminate
		if state.kettleActor != nil && msg.Who.Id == state.kettleActor.Id {
			state.logger.Error("master@default kettle error")
			panic(errors.New("kettle terminated"))
		}
	default:
		state.logger.Debug("master@default ignored", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		ctx.CancelReceiveTimeout()
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			state.currentHealthCheck.healthy[msg.Id] = true
		}
		if state.currentHealthCheck.allReceived() {
			ctx.CancelReceiveTimeout()

			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) SensorStatesReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		ctx.CancelReceiveTimeout()
		state.currentStates.respond(ctx, state.sensors)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.GetSensorStateResponse:
		if msg.HasResponseError() {
			state.logger.Warn("master@states sensor did not answer", zap.String("sensor", msg.State.Id), zap.Error(msg.GetResponseError()))
		} else {
			state.currentStates.states[msg.State.Id] = msg.State
		}
		state.currentStates.expected--
		if state.currentStates.expected <= 0 {
			ctx.CancelReceiveTimeout()
			state.currentStates.respond(ctx, state.sensors)
			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		}
	default:
		state.logger.Debug("master@states stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) requestHealth(ctx actor.Context, pid *actor.PID, id string) {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
		return domain.ActorHealthResponse{
			Id:      id,
			Healthy: false,
		}
	})
}

func (state *MasterOfPuppetsActor) startKettleActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	kettleProps := actor.PropsFromProducer(func() actor.Actor {
		return state.kettleActorProvider()
	}, actor.WithSupervisor(supervisor))
	kettleActorPID, err := ctx.SpawnNamed(kettleProps, domain.ACTOR_ID_KETTLE)
	if err != nil {
		return nil, err
	}

	return kettleActorPID, nil
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *MasterOfPuppetsActor) startSensorActor(ctx actor.Context, sensor domain.GenericSensor, parameter mikettle.Parameter) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	interval := state.config.Kettle.ScanInterval()
	sensorProps := actor.PropsFromProducer(func() actor.Actor {
		entity := service.NewSensorEntity(sensor, parameter, ActorLogger(sensor.Id, state.logger))
		return NewSensorActor(entity, state.kettleActor, state.eventStream, state.scheduler, interval, state.logger)
	}, actor.WithSupervisor(supervisor))
	sensorPID, err := ctx.SpawnNamed(sensorProps, fmt.Sprintf("%s_%s", domain.ACTOR_ID_SENSOR, parameter.Key()))
	if err != nil {
		return nil, err
	}

	return sensorPID, nil
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.mqttActor, state.sensors, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *healthCheckResult) reset(expected int) {
	state.healthy = make(map[string]bool, expected)
	state.expected = expected
	state.checksReceived = 0
	state.respondTo = nil
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived >= state.expected
}

func (state *healthCheckResult) allHealthy() bool {
	return len(state.healthy) == state.expected
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}

func (state *sensorStatesResult) reset(expected int) {
	state.states = make(map[string]domain.SensorState, expected)
	state.expected = expected
	state.respondTo = nil
}

// respond answers with the collected states in monitored order. Sensors that
// did not answer are reported with an unknown state.
func (state *sensorStatesResult) respond(ctx actor.Context, sensors []domain.GenericSensor) {
	states := make([]domain.SensorState, 0, len(sensors))
	for _, sensor := range sensors {
		if st, ok := state.states[sensor.Id]; ok {
			states = append(states, st)
		} else {
			states = append(states, domain.SensorState{
				Id:          sensor.Id,
				Name:        sensor.Name,
				Unit:        sensor.UnitOfMeasurement,
				Icon:        sensor.Icon,
				ForceUpdate: sensor.ForceUpdate,
			})
		}
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, domain.GetSensorStatesResponse{States: states})
	}
}
