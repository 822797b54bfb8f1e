package events

import (
	"testing"

	"github.com/berfenger/mikettle2mqtt/internal/core/domain"

	"github.com/stretchr/testify/assert"
)

func TestSensorStateToUpdateEvent(t *testing.T) {

	assert := assert.New(t)

	ev := SensorStateToUpdateEvent("temp", 96, 0)
	f, ok := ev.(domain.FloatSensorUpdateEvent)
	assert.True(ok, "int is a float event")
	assert.Equal(96.0, f.Value)
	assert.Equal("temp", f.SensorId())

	ev = SensorStateToUpdateEvent("mode", "boil", 0)
	txt, ok := ev.(domain.TextSensorUpdateEvent)
	assert.True(ok, "string is a text event")
	assert.Equal("boil", txt.Value)

	ev = SensorStateToUpdateEvent("mode", nil, 0)
	_, ok = ev.(domain.UnknownSensorUpdateEvent)
	assert.True(ok, "nil is unknown")

	ev = SensorStateToUpdateEvent("flag", true, 0)
	txt, ok = ev.(domain.TextSensorUpdateEvent)
	assert.True(ok)
	assert.Equal("true", txt.Value)
}

func TestBridgeStateToUpdateEvent(t *testing.T) {
	ev := BridgeStateToUpdateEvent(true).(domain.BridgeStateUpdateEvent)
	assert.True(t, ev.Value)
	assert.Equal(t, domain.SENSOR_ID_BRIDGE_STATE, ev.Id)
}
