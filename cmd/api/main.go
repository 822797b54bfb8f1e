package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	adactor "github.com/berfenger/mikettle2mqtt/internal/adapter/actor"
	"github.com/berfenger/mikettle2mqtt/internal/config"
	"github.com/berfenger/mikettle2mqtt/internal/core/actor"
	"github.com/berfenger/mikettle2mqtt/internal/core/domain"
	"github.com/berfenger/mikettle2mqtt/internal/scheduler"
	"github.com/berfenger/mikettle2mqtt/internal/server"
	"github.com/berfenger/mikettle2mqtt/internal/util/actorutil"
	"github.com/berfenger/mikettle2mqtt/pkg/mikettle"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// gracefulShutdown waits for SIGINT/SIGTERM and drains the HTTP server.
func gracefulShutdown(apiServer *http.Server, logger *zap.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Warn("shutting down gracefully, press Ctrl+C again to force")

	// in-flight requests get 5 seconds to finish
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig(viper.New())
	if err != nil {
		slog.Error("config errors", "error", err)
		os.Exit(1)
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	// open the kettle driver, only after the config is known to be valid
	kettleProv, err := kettleActorProvider(cfg, mikettle.Open, logger)
	if err != nil {
		logger.Error("could not open kettle driver", zap.Error(err))
		return
	}

	// poll scheduler
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	pollScheduler := scheduler.NewPollScheduler(logger)
	pollScheduler.Start(schedCtx)

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, pollScheduler, kettleProv, mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, domain.ACTOR_ID_MASTER)
	if err != nil {
		logger.Error("could not spawn master actor", zap.Error(err))
		return
	}

	server := server.NewServer(*cfg, ctx, pid, logger)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, logger, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	logger.Info("graceful shutdown complete")

	ctx.Stop(pid)
	pollScheduler.Stop()
	as.Shutdown()
}

func initConfig(v *viper.Viper) (*config.Config, error) {

	// alias PORT => MIKETTLE_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("MIKETTLE_PORT", port)
	}

	setConfigDefaults(v)

	v.SetEnvPrefix("mikettle")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			v.SetConfigFile(cfgFile)

			err = v.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	cfg.LogLevel = config.ParseLogLevel(v.GetString("log_level"))

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	// check kettle section
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

type kettleOpener func(driverName string, mac string, productId int) (mikettle.Kettle, error)

// kettleActorProvider opens the single driver handle shared by every sensor.
// Nothing is opened when the configuration is invalid.
func kettleActorProvider(cfg *config.Config, open kettleOpener, logger *zap.Logger) (actor.KettleActorProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	kettle, err := open(cfg.Kettle.Driver, cfg.Kettle.Mac, cfg.Kettle.ProductId)
	if err != nil {
		return nil, err
	}

	return func() *adactor.KettleActor {
		return adactor.NewKettleActor(kettle, cfg.Kettle.PollTimeout(), logger)
	}, nil
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")
	v.SetDefault("kettle.mac", "")
	v.SetDefault("kettle.product_id", mikettle.DefaultProductId)
	v.SetDefault("kettle.monitored_conditions", lo.Map(mikettle.AllParameters(), func(p mikettle.Parameter, _ int) string {
		return p.String()
	}))
	v.SetDefault("kettle.name", config.DEFAULT_NAME)
	v.SetDefault("kettle.force_update", false)
	v.SetDefault("kettle.scan_interval_millis", config.DEFAULT_SCAN_INTERVAL_MILLIS)
	v.SetDefault("kettle.poll_timeout_millis", 0)
	v.SetDefault("kettle.driver", mikettle.DRIVER_SIMULATED)
	v.SetDefault("mqtt.host", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.ha_discovery_enable", true)
	v.SetDefault("mqtt.base_topic", "mikettle")
	v.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	v.SetDefault("port", 8080)
	v.SetDefault("http_log", false)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
