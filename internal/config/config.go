package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/berfenger/mikettle2mqtt/pkg/mikettle"

	"github.com/samber/lo"
	"go.uber.org/zap/zapcore"
)

const (
	DEFAULT_NAME                 = "Mi Kettle"
	DEFAULT_SCAN_INTERVAL_MILLIS = 60000
	MIN_SCAN_INTERVAL_MILLIS     = 1000
	MIN_POLL_TIMEOUT_MILLIS      = 100
)

type Config struct {
	LogLevel zapcore.Level
	Kettle   KettleConfig `mapstructure:"kettle"`
	MQTT     MQTTConfig   `mapstructure:"mqtt"`
	Port     uint         `mapstructure:"port"`
	HttpLog  bool         `mapstructure:"http_log"`
}

type KettleConfig struct {
	Mac                 string
	ProductId           int      `mapstructure:"product_id"`
	MonitoredConditions []string `mapstructure:"monitored_conditions"`
	Name                string
	ForceUpdate         bool   `mapstructure:"force_update"`
	ScanIntervalMillis  uint32 `mapstructure:"scan_interval_millis"`
	PollTimeoutMillis   uint32 `mapstructure:"poll_timeout_millis"`
	Driver              string
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

var (
	ErrMissingMac               = errors.New("config param kettle.mac is required")
	ErrInvalidMac               = errors.New("config param kettle.mac is not a valid MAC address")
	ErrInvalidProductId         = errors.New("config param kettle.product_id should be > 0")
	ErrEmptyMonitoredConditions = errors.New("config param kettle.monitored_conditions should not be empty")
	ErrInvalidScanInterval      = fmt.Errorf("config param kettle.scan_interval_millis should be >= %d", MIN_SCAN_INTERVAL_MILLIS)
	ErrInvalidPollTimeout       = fmt.Errorf("config param kettle.poll_timeout_millis should be 0 or >= %d", MIN_POLL_TIMEOUT_MILLIS)
	ErrUnknownDriver            = errors.New("config param kettle.driver is not a registered driver")
)

// Validate checks the kettle section. It must succeed before any driver
// handle or sensor is built.
func (cfg *Config) Validate() error {
	var errs []error
	k := cfg.Kettle

	if strings.TrimSpace(k.Mac) == "" {
		errs = append(errs, ErrMissingMac)
	} else if _, err := net.ParseMAC(k.Mac); err != nil {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidMac, k.Mac))
	}
	if k.ProductId <= 0 {
		errs = append(errs, ErrInvalidProductId)
	}
	if _, err := k.Parameters(); err != nil {
		errs = append(errs, err)
	}
	if k.ScanIntervalMillis < MIN_SCAN_INTERVAL_MILLIS {
		errs = append(errs, ErrInvalidScanInterval)
	}
	if k.PollTimeoutMillis != 0 && k.PollTimeoutMillis < MIN_POLL_TIMEOUT_MILLIS {
		errs = append(errs, ErrInvalidPollTimeout)
	}
	if !mikettle.HasDriver(k.Driver) {
		errs = append(errs, fmt.Errorf("%w: %q (available: %s)", ErrUnknownDriver, k.Driver,
			strings.Join(mikettle.Drivers(), ", ")))
	}
	return errors.Join(errs...)
}

// Parameters returns the monitored conditions as kettle parameters, in
// configuration order and without duplicates. A nil list means all of them.
func (k KettleConfig) Parameters() ([]mikettle.Parameter, error) {
	if k.MonitoredConditions == nil {
		return mikettle.AllParameters(), nil
	}
	if len(k.MonitoredConditions) == 0 {
		return nil, ErrEmptyMonitoredConditions
	}
	params := make([]mikettle.Parameter, 0, len(k.MonitoredConditions))
	for _, cond := range k.MonitoredConditions {
		p, err := mikettle.ParseParameter(cond)
		if err != nil {
			return nil, fmt.Errorf("config param kettle.monitored_conditions: %w", err)
		}
		params = append(params, p)
	}
	return lo.Uniq(params), nil
}

func (k KettleConfig) ScanInterval() time.Duration {
	return time.Duration(k.ScanIntervalMillis) * time.Millisecond
}

func (k KettleConfig) PollTimeout() time.Duration {
	return time.Duration(k.PollTimeoutMillis) * time.Millisecond
}

// ParseLogLevel maps the log_level setting to a zap level. "trace" is an
// alias for debug and unknown values fall back to info.
func ParseLogLevel(level string) zapcore.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "trace" {
		return zapcore.DebugLevel
	}
	l, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
