package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/victorjacobs/go-easycontrols/bridge"
	"github.com/victorjacobs/go-easycontrols/config"
	"github.com/victorjacobs/go-easycontrols/coordinator"
	"github.com/victorjacobs/go-easycontrols/history"
	"github.com/victorjacobs/go-easycontrols/homeassistant"
	"github.com/victorjacobs/go-easycontrols/integration"
	"github.com/victorjacobs/go-easycontrols/logging"
	"github.com/victorjacobs/go-easycontrols/metrics"
	"github.com/victorjacobs/go-easycontrols/routes"
)

func main() {
	configFile := os.Getenv("EASYCONTROLS_CONFIG")
	if configFile == "" {
		configFile = "easycontrols.yaml"
	}

	cfg, err := config.LoadConfiguration(configFile)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Error setting up logging: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Errorw("Shutdown with errors", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Configuration, logger *zap.SugaredLogger) error {
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	coordinatorOpts := []coordinator.Option{
		coordinator.WithInterval(cfg.Polling.Interval),
		coordinator.WithLogger(logger.Named("coordinator")),
		coordinator.WithObserver(metrics.New(promRegistry)),
	}

	if cfg.InfluxDB.Enabled {
		writer, err := history.Connect(cfg.InfluxDB, logger.Named("history"))
		if err != nil {
			logger.Warnw("History disabled", "error", err)
		} else {
			defer writer.Close()
			coordinatorOpts = append(coordinatorOpts, coordinator.WithObserver(writer))
		}
	}

	easyControls := integration.New(
		integration.WithLogger(logger.Named("integration")),
		integration.WithControllerFactory(integration.NewControllerFactory(cfg.Polling.Timeout, logger.Named("controller"))),
		integration.WithCoordinatorFactory(integration.NewCoordinatorFactory(cfg.Polling.Timeout, coordinatorOpts...)),
	)
	easyControls.Setup()

	var fan *bridge.FanPlatform

	mqttOpts := cfg.Mqtt.ClientOptions(logger)
	// Subscriptions are renewed in the ConnectHandler to survive reconnects
	mqttOpts.SetOnConnectHandler(func(client mqtt.Client) {
		logger.Infow("MQTT connected")

		if err := homeassistant.NewClient(client).PublishStatus(true); err != nil {
			logger.Warnw("Publishing status failed", "error", err)
		}
		if err := fan.Resubscribe(); err != nil {
			logger.Warnw("Renewing subscriptions failed", "error", err)
		}
	})

	mqttClient := mqtt.NewClient(mqttOpts)
	homeAssistantClient := homeassistant.NewClient(mqttClient)

	fan = bridge.NewFanPlatform(easyControls.Registry(), homeAssistantClient, logger)
	easyControls.RegisterPlatform(integration.PlatformFan, fan)
	easyControls.RegisterPlatform(integration.PlatformSensor, bridge.NewSensorPlatform(easyControls.Registry(), homeAssistantClient, logger))
	easyControls.RegisterPlatform(integration.PlatformBinarySensor, bridge.NewBinarySensorPlatform(easyControls.Registry(), homeAssistantClient, logger))

	if t := mqttClient.Connect(); t.Wait() && t.Error() != nil {
		return t.Error()
	}

	server := &http.Server{
		Addr:    cfg.Http.Listen,
		Handler: routes.NewRouter(easyControls.Registry(), promRegistry, logger.Named("http")),
	}
	go loopSafely(ctx, logger, func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("HTTP server failed", "error", err)
			time.Sleep(time.Second)
		}
	})

	supervisor := integration.NewSupervisor(easyControls, integration.EntriesFromConfig(cfg), logger.Named("supervisor"))
	err := supervisor.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if err := homeAssistantClient.PublishStatus(false); err != nil {
		logger.Warnw("Publishing status failed", "error", err)
	}
	mqttClient.Disconnect(250)

	return err
}
