package mqtt

import (
	"encoding/json"
	"math"
	"strconv"
)

// STATE_VALUE_TEMPLATE extracts the state from a sensor state payload. A null
// state renders as None, which Home Assistant shows as unknown.
const STATE_VALUE_TEMPLATE = "{{ value_json.state }}"

const nullStatePayload = `{"state":null}`

type statePayload struct {
	State any `json:"state"`
}

func FloatStatePayload(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nullStatePayload
	}
	return encodeState(json.Number(strconv.FormatFloat(value, 'f', decimals, 64)))
}

func TextStatePayload(value string) string {
	return encodeState(value)
}

func UnknownStatePayload() string {
	return nullStatePayload
}

func encodeState(value any) string {
	payload, err := json.Marshal(statePayload{State: value})
	if err != nil {
		return nullStatePayload
	}
	return string(payload)
}
