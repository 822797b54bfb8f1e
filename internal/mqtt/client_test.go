package mqtt

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/berfenger/mikettle2mqtt/internal/config"
	"github.com/berfenger/mikettle2mqtt/internal/core/domain"
	"github.com/berfenger/mikettle2mqtt/pkg/mikettle"

	"github.com/stretchr/testify/assert"
)

type testMessage struct {
	topic   string
	payload string
}

func (m testMessage) Duplicate() bool   { return false }
func (m testMessage) Qos() byte         { return 1 }
func (m testMessage) Retained() bool    { return false }
func (m testMessage) Topic() string     { return m.topic }
func (m testMessage) MessageID() uint16 { return 1 }
func (m testMessage) Payload() []byte   { return []byte(m.payload) }
func (m testMessage) Ack()              {}

func testClient() *MQTTClient {
	cfg := &config.Config{
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "loremtopic",
			HADiscoveryTopic: "homeassistant",
		},
	}
	return CreateMQTTClient(cfg, OptsFromConfig(cfg), nil, nil)
}

func TestTopics(t *testing.T) {

	assert := assert.New(t)

	c := testClient()
	assert.Equal("loremtopic/bridge/state", c.BridgeStateTopic())
	assert.Equal("loremtopic/sensor/my_sensor/state", c.SensorStateTopic("my_sensor"))
	assert.Equal("homeassistant/status", c.HAStatusTopic())
}

func TestHAOnlineMessage(t *testing.T) {

	assert := assert.New(t)

	c := testClient()
	assert.True(c.IsHAOnlineMessage(testMessage{topic: "homeassistant/status", payload: "online"}))
	assert.False(c.IsHAOnlineMessage(testMessage{topic: "homeassistant/status", payload: "offline"}))
	assert.False(c.IsHAOnlineMessage(testMessage{topic: "loremtopic/bridge/state", payload: "online"}))
}

func TestKettleSensorDiscoveryMessage(t *testing.T) {

	assert := assert.New(t)

	c := testClient()
	dev := domain.KettleDevice("AA:BB:CC:DD:EE:FF", mikettle.DefaultProductId, "Mi Kettle")
	sensor := domain.KettleSensors(dev, "Mi Kettle", []mikettle.Parameter{mikettle.MI_CURRENT_TEMPERATURE}, true)[0]

	msg := GenericSensorToHADiscoveryMessage(c, sensor)
	assert.Equal("Mi Kettle Current temperature", msg.Name)
	assert.Equal("loremtopic/sensor/mikettle_aabbccddeeff_current_temperature/state", msg.StateTopic)
	assert.Equal("loremtopic/bridge/state", msg.AvTopic)
	assert.Equal("°C", msg.UnitOfMeasurement)
	assert.Equal("mdi:thermometer", msg.Icon)
	assert.True(msg.ForceUpdate)
	assert.Equal("{{ value_json.state }}", msg.ValueTemplate)
	assert.Equal("homeassistant/sensor/mikettle_aabbccddeeff/mikettle_aabbccddeeff_current_temperature/config",
		c.HADiscoverySensorTopic(sensor))

	payload, err := json.Marshal(msg)
	assert.NoError(err)
	var raw map[string]any
	assert.NoError(json.Unmarshal(payload, &raw))
	assert.Equal(true, raw["force_update"])
	assert.Equal("mqtt", raw["platform"])
	dev2 := raw["device"].(map[string]any)
	assert.Equal([]any{"mikettle_aabbccddeeff"}, dev2["identifiers"])
}

func TestBridgeDiscoveryMessage(t *testing.T) {

	assert := assert.New(t)

	c := testClient()
	bridge := domain.BridgeSensors(domain.BridgeDevice("loremtopic"))[0]

	msg := GenericSensorToHADiscoveryMessage(c, bridge)
	assert.Equal(c.BridgeStateTopic(), msg.StateTopic)
	assert.Equal(MQTT_PAYLOAD_ONLINE, msg.PayloadOn)
	assert.Equal(MQTT_PAYLOAD_OFFLINE, msg.PayloadOff)
	assert.Empty(msg.ValueTemplate)
	assert.Empty(device(domain.Device{Id: "x"}).Connections)
}

func TestStatePayloads(t *testing.T) {

	assert := assert.New(t)

	assert.Equal(`{"state":96}`, FloatStatePayload(96, 0))
	assert.Equal(`{"state":21.50}`, FloatStatePayload(21.5, 2))
	assert.Equal(`{"state":null}`, FloatStatePayload(math.NaN(), 1))
	assert.Equal(`{"state":"boil"}`, TextStatePayload("boil"))
	assert.Equal(`{"state":"say \"hi\""}`, TextStatePayload(`say "hi"`))

	// the text "unknown" and the unknown state never share a payload
	assert.NotEqual(UnknownStatePayload(), TextStatePayload("unknown"))

	var text, unknown map[string]any
	assert.NoError(json.Unmarshal([]byte(TextStatePayload("unknown")), &text))
	assert.NoError(json.Unmarshal([]byte(UnknownStatePayload()), &unknown))
	assert.Equal("unknown", text["state"])
	assert.Contains(unknown, "state")
	assert.Nil(unknown["state"])
}
