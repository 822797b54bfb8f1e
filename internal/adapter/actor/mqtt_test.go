package actor

import (
	"testing"
	"time"

	"github.com/berfenger/mikettle2mqtt/internal/core/domain"
	"github.com/berfenger/mikettle2mqtt/internal/mqtt"
	"github.com/berfenger/mikettle2mqtt/internal/util"
	"github.com/berfenger/mikettle2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMQTTActor(t *testing.T) {
	assert := assert.New(t)

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	context := as.Root

	es := eventstream.EventStream{}
	started := make(chan domain.HostStartedEvent, 4)
	sub := es.Subscribe(func(evt interface{}) {
		if ev, ok := evt.(domain.HostStartedEvent); ok {
			started <- ev
		}
	})
	defer es.Unsubscribe(sub)

	recorder := NewMQTTRecorder()
	props := actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, &es, recorder, logger) })
	pid := context.Spawn(props)
	defer context.Stop(pid)

	select {
	case ev := <-started:
		assert.Equal(domain.HOST_STARTED_REASON_CONNECTED, ev.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("host started event not received")
	}

	result, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	assert.NoError(err)
	resp, ok := result.(domain.ActorHealthResponse)
	assert.True(ok)
	assert.True(resp.Healthy)
	assert.Equal(domain.ACTOR_ID_MQTT, resp.Id)

	es.Publish(domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: "mikettle_aabbccddeeff_current_temperature",
		},
		Value:    96,
		Decimals: 0,
	})
	es.Publish(domain.TextSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: "mikettle_aabbccddeeff_mode",
		},
		Value: "boil",
	})
	es.Publish(domain.UnknownSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: "mikettle_aabbccddeeff_keep_warm_time",
		},
	})

	assert.Eventually(func() bool {
		_, ok := recorder.Last("mikettle/sensor/mikettle_aabbccddeeff_keep_warm_time/state")
		return ok
	}, 2*time.Second, 20*time.Millisecond)

	last, _ := recorder.Last("mikettle/sensor/mikettle_aabbccddeeff_current_temperature/state")
	assert.Equal(`{"state":96}`, last)
	last, _ = recorder.Last("mikettle/sensor/mikettle_aabbccddeeff_mode/state")
	assert.Equal(`{"state":"boil"}`, last)
	last, _ = recorder.Last("mikettle/sensor/mikettle_aabbccddeeff_keep_warm_time/state")
	assert.Equal(`{"state":null}`, last)

	last, _ = recorder.Last("mikettle/bridge/state")
	assert.Equal("online", last)

	context.Send(pid, HAOnline{})
	select {
	case ev := <-started:
		assert.Equal(domain.HOST_STARTED_REASON_HA_ONLINE, ev.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("host started event not received after homeassistant online")
	}
}

func TestMQTTActorDiscovery(t *testing.T) {
	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	recorder := NewMQTTRecorder()
	es := eventstream.EventStream{}
	pid := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, &es, recorder, logger) }))
	defer as.Root.Stop(pid)

	bridge := domain.BridgeDevice(cfg.MQTT.BaseTopic)
	sensors := domain.BridgeSensors(bridge)
	res, err := as.Root.RequestFuture(pid, domain.PublishDiscoveryRequest{Sensors: sensors}, 2*time.Second).Result()
	assert.NoError(err)
	_, ok := res.(domain.PublishDiscoveryResponse)
	assert.True(ok)
	assert.Len(recorder.Discovery(), len(sensors))

	res, err = as.Root.RequestFuture(pid, domain.PublishMessageRequest{Topic: "mikettle/test", Payload: "hello", Retain: true}, 2*time.Second).Result()
	assert.NoError(err)
	_, ok = res.(domain.PublishMessageResponse)
	assert.True(ok)
	assert.Equal([]string{"hello"}, recorder.Messages("mikettle/test"))
}

func TestFloatPayloadUsesDecimals(t *testing.T) {
	assert := assert.New(t)

	cfg := util.LoadTestConfig()
	act := &MQTTActor{
		client: mqtt.CreateMQTTClient(&cfg, mqtt.OptsFromConfig(&cfg), nil, nil),
	}

	msg := act.event2MQTTMessage(domain.FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: "x"},
		Value:                  21.456,
		Decimals:               1,
	})
	assert.NotNil(msg)
	assert.Equal(`{"state":21.5}`, msg.message)
	assert.Equal("mikettle/sensor/x/state", msg.topic)

	// a driver text equal to "unknown" stays a real value
	msg = act.event2MQTTMessage(domain.TextSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: "x"},
		Value:                  "unknown",
	})
	assert.Equal(`{"state":"unknown"}`, msg.message)
	msg = act.event2MQTTMessage(domain.UnknownSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: "x"},
	})
	assert.Equal(`{"state":null}`, msg.message)

	msg = act.event2MQTTMessage(domain.BridgeStateUpdateEvent{Value: false})
	assert.Equal("offline", msg.message)
	assert.True(msg.retain)
}
