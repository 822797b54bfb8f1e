package domain

type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
	ViaDevice    string
	Connections  [][2]string
}

type GenericSensor struct {
	Device            Device
	Id                string
	ObjectId          string
	SensorType        string
	Name              string
	UniqueId          string
	UnitOfMeasurement string
	StateClass        string // measurement, nil
	DeviceClass       string // temperature, duration, connectivity
	EntityCategory    string // diagnostic, config, nil
	EnabledByDefault  *bool
	ForceUpdate       bool
	Icon              string
}

// SensorState is the read-only view of a polling entity.
type SensorState struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	State       any    `json:"state"`
	Unit        string `json:"unit_of_measurement,omitempty"`
	Icon        string `json:"icon,omitempty"`
	ForceUpdate bool   `json:"force_update"`
}
