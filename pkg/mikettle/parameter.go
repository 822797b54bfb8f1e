package mikettle

import (
	"errors"
	"fmt"
	"strings"
)

// Parameter identifies one telemetry value decoded from the kettle status.
type Parameter string

const (
	MI_ACTION              Parameter = "action"
	MI_MODE                Parameter = "mode"
	MI_SET_TEMPERATURE     Parameter = "set temperature"
	MI_CURRENT_TEMPERATURE Parameter = "current temperature"
	MI_KW_TYPE             Parameter = "keep warm type"
	MI_KW_TIME             Parameter = "keep warm time"
)

const (
	DefaultProductId = 275
)

var ErrUnknownParameter = errors.New("unknown kettle parameter")

var allParameters = []Parameter{
	MI_ACTION,
	MI_MODE,
	MI_SET_TEMPERATURE,
	MI_CURRENT_TEMPERATURE,
	MI_KW_TYPE,
	MI_KW_TIME,
}

// AllParameters returns every known parameter in status payload order.
func AllParameters() []Parameter {
	params := make([]Parameter, len(allParameters))
	copy(params, allParameters)
	return params
}

// ParseParameter accepts the driver identifier ("set temperature") or its
// snake_case form ("set_temperature").
func ParseParameter(s string) (Parameter, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", " ")
	for _, p := range allParameters {
		if string(p) == normalized {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownParameter, s)
}

// Key returns the snake_case form, suitable for topics and ids.
func (p Parameter) Key() string {
	return strings.ReplaceAll(string(p), " ", "_")
}

func (p Parameter) String() string {
	return string(p)
}
