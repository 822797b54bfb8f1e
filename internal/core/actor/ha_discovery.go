package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/mikettle2mqtt/internal/config"
	"github.com/berfenger/mikettle2mqtt/internal/core/domain"
	"github.com/berfenger/mikettle2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// HADiscoveryActor registers the bridge and kettle sensors in Home Assistant
// once the MQTT actor is up.
type HADiscoveryActor struct {
	config        *config.Config
	behavior      actor.Behavior
	stash         *actorutil.Stash
	mqttActor     *actor.PID
	kettleSensors []domain.GenericSensor

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, mqttActor *actor.PID, kettleSensors []domain.GenericSensor, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:        config,
		mqttActor:     mqttActor,
		kettleSensors: kettleSensors,
		behavior:      actor.NewBehavior(),
		stash:         &actorutil.Stash{},
		logger:        actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")

		// MQTT Actor Request
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 5*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		if !msg.Healthy {
			panic(errors.New("MQTT Actor is not healthy"))
		}
		sensors := DiscoverySensors(state.config, state.kettleSensors)
		state.logger.Info("hadiscovery@healthcheck publishing discovery", zap.Int("sensors", len(sensors)))
		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors: sensors,
		})
		state.behavior.Become(state.Done)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {

}

// DiscoverySensors lists the bridge sensors followed by the kettle sensors.
// The full device descriptor is sent once per device, the rest of its sensors
// only carry the device id.
func DiscoverySensors(cfg *config.Config, kettleSensors []domain.GenericSensor) []domain.GenericSensor {
	bridgeDevice := domain.BridgeDevice(cfg.MQTT.BaseTopic)
	sensors := domain.BridgeSensors(bridgeDevice)

	for i := range kettleSensors {
		sensor := kettleSensors[i]
		if i == 0 {
			sensor.Device.ViaDevice = bridgeDevice.Id
		} else {
			sensor.Device = domain.IdDevice(sensor.Device)
		}
		sensors = append(sensors, sensor)
	}
	return sensors
}
