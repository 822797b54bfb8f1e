package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/berfenger/mikettle2mqtt/pkg/mikettle"

	"github.com/carlmjohnson/versioninfo"
	"github.com/gosimple/slug"
	"github.com/samber/lo"
)

const (
	SENSOR_ID_BRIDGE_STATE       = "bridge"
	STATE_CLASS_MEASUREMENT      = "measurement"
	DEVICE_CLASS_TEMPERATURE     = "temperature"
	DEVICE_CLASS_DURATION        = "duration"
	DEVICE_CLASS_CONNECTIVITY    = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC      = "diagnostic"
	SENSOR_TYPE_SENSOR           = "sensor"
	SENSOR_TYPE_BINARY           = "binary_sensor"
	CONNECTION_TYPE_BLUETOOTH    = "bluetooth"
	KETTLE_MANUFACTURER          = "Xiaomi"
	KETTLE_MODEL                 = "Mi Smart Kettle"
	BRIDGE_MANUFACTURER          = "ACasal"
	BRIDGE_MODEL                 = "MiKettle2MQTT"
	UNIT_CELSIUS                 = "°C"
	UNIT_SECONDS                 = "s"
	ICON_STATE_MACHINE           = "mdi:state-machine"
	ICON_SETTINGS_OUTLINE        = "mdi:settings-outline"
	ICON_THERMOMETER_LINES       = "mdi:thermometer-lines"
	ICON_THERMOMETER             = "mdi:thermometer"
	ICON_THERMOSTAT              = "mdi:thermostat"
	ICON_CLOCK_OUTLINE           = "mdi:clock-outline"
	TEMPERATURE_DECIMALS         = 0
	KEEP_WARM_TIME_DECIMALS      = 0
)

// SensorType is the static display metadata of a kettle parameter.
type SensorType struct {
	Label       string
	Unit        string
	Icon        string
	DeviceClass string
	StateClass  string
	Decimals    uint
}

var sensorTypes = map[mikettle.Parameter]SensorType{
	mikettle.MI_ACTION: {
		Label: "Action",
		Icon:  ICON_STATE_MACHINE,
	},
	mikettle.MI_MODE: {
		Label: "Mode",
		Icon:  ICON_SETTINGS_OUTLINE,
	},
	mikettle.MI_SET_TEMPERATURE: {
		Label:       "Set temperature",
		Unit:        UNIT_CELSIUS,
		Icon:        ICON_THERMOMETER_LINES,
		DeviceClass: DEVICE_CLASS_TEMPERATURE,
		Decimals:    TEMPERATURE_DECIMALS,
	},
	mikettle.MI_CURRENT_TEMPERATURE: {
		Label:       "Current temperature",
		Unit:        UNIT_CELSIUS,
		Icon:        ICON_THERMOMETER,
		DeviceClass: DEVICE_CLASS_TEMPERATURE,
		StateClass:  STATE_CLASS_MEASUREMENT,
		Decimals:    TEMPERATURE_DECIMALS,
	},
	mikettle.MI_KW_TYPE: {
		Label: "Keep warm type",
		Icon:  ICON_THERMOSTAT,
	},
	mikettle.MI_KW_TIME: {
		Label:       "Keep warm time",
		Unit:        UNIT_SECONDS,
		Icon:        ICON_CLOCK_OUTLINE,
		DeviceClass: DEVICE_CLASS_DURATION,
		StateClass:  STATE_CLASS_MEASUREMENT,
		Decimals:    KEEP_WARM_TIME_DECIMALS,
	},
}

// LookupSensorType returns the metadata of p. The table is closed: every
// mikettle parameter has an entry.
func LookupSensorType(p mikettle.Parameter) (SensorType, bool) {
	st, ok := sensorTypes[p]
	return st, ok
}

// SensorName is "{prefix} {label}", or just the label without a prefix.
func SensorName(prefix string, p mikettle.Parameter) string {
	st, ok := LookupSensorType(p)
	if !ok {
		return string(p)
	}
	if prefix != "" {
		return fmt.Sprintf("%s %s", prefix, st.Label)
	}
	return st.Label
}

func SensorId(device Device, p mikettle.Parameter) string {
	return fmt.Sprintf("%s_%s", device.Id, p.Key())
}

func KettleDevice(mac string, productId int, name string) Device {
	normalizedMac := strings.ToLower(mac)
	if name == "" {
		name = fmt.Sprintf("%s %s", KETTLE_MODEL, md5HashShort(normalizedMac))
	}
	return Device{
		Id:           fmt.Sprintf("mikettle_%s", strings.ReplaceAll(normalizedMac, ":", "")),
		Manufacturer: KETTLE_MANUFACTURER,
		Model:        fmt.Sprintf("%s (%d)", KETTLE_MODEL, productId),
		Name:         name,
		Connections:  [][2]string{{CONNECTION_TYPE_BLUETOOTH, normalizedMac}},
	}
}

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("mikettle_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: BRIDGE_MANUFACTURER,
		Model:        BRIDGE_MODEL,
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("MiKettle2MQTT %s", md5HashShort(baseTopic)),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

// KettleSensors builds one sensor per monitored parameter, in order.
func KettleSensors(kettleDevice Device, prefix string, params []mikettle.Parameter, forceUpdate bool) []GenericSensor {
	return lo.Map(params, func(p mikettle.Parameter, _ int) GenericSensor {
		st, _ := LookupSensorType(p)
		name := SensorName(prefix, p)
		id := SensorId(kettleDevice, p)
		return GenericSensor{
			Device:            kettleDevice,
			Id:                id,
			ObjectId:          objectId(name),
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              name,
			UniqueId:          uniqueId(kettleDevice.Id, p.Key()),
			UnitOfMeasurement: st.Unit,
			StateClass:        st.StateClass,
			DeviceClass:       st.DeviceClass,
			ForceUpdate:       forceUpdate,
			Icon:              st.Icon,
		}
	})
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Bridge connection state
	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

// objectId mirrors the entity id Home Assistant derives from a name.
func objectId(name string) string {
	return strings.ReplaceAll(slug.Make(name), "-", "_")
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}
