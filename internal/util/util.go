package util

import (
	"github.com/berfenger/mikettle2mqtt/internal/config"
	"github.com/berfenger/mikettle2mqtt/pkg/mikettle"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Kettle: config.KettleConfig{
			Mac:                "AA:BB:CC:DD:EE:FF",
			ProductId:          mikettle.DefaultProductId,
			Name:               config.DEFAULT_NAME,
			ScanIntervalMillis: 1000,
			Driver:             mikettle.DRIVER_SIMULATED,
		},
		MQTT: config.MQTTConfig{
			Host:              "localhost",
			Port:              1883,
			BaseTopic:         "mikettle",
			HADiscoveryEnable: true,
			HADiscoveryTopic:  "homeassistant",
		},
		Port: 8080,
	}
}
