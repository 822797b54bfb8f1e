package events

import (
	"fmt"

	. "github.com/berfenger/mikettle2mqtt/internal/core/domain"
)

// SensorStateToUpdateEvent maps a decoded kettle value to the event published
// for it. Numbers become float events, nil an unknown event, anything else text.
func SensorStateToUpdateEvent(id string, state any, decimals uint) SensorUpdateEvent {
	mixIn := SensorUpdateEventMixIn{Id: id}

	if state == nil {
		return UnknownSensorUpdateEvent{SensorUpdateEventMixIn: mixIn}
	}
	if f, ok := toFloat(state); ok {
		return FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: mixIn,
			Value:                  f,
			Decimals:               decimals,
		}
	}
	switch v := state.(type) {
	case string:
		return TextSensorUpdateEvent{SensorUpdateEventMixIn: mixIn, Value: v}
	case fmt.Stringer:
		return TextSensorUpdateEvent{SensorUpdateEventMixIn: mixIn, Value: v.String()}
	default:
		return TextSensorUpdateEvent{SensorUpdateEventMixIn: mixIn, Value: fmt.Sprint(v)}
	}
}

func BridgeStateToUpdateEvent(online bool) SensorUpdateEvent {
	return BridgeStateUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_BRIDGE_STATE,
		},
		Value: online,
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
