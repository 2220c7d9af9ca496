// Measurand - IoT measurement platform
//
// This is the main entry point for the Measurand backend: a REST API
// over SQLite for series, sensors, and measurements, with optional
// MQTT ingestion and InfluxDB mirroring.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/measurelab/measurand/migrations"

	"github.com/measurelab/measurand/internal/api"
	"github.com/measurelab/measurand/internal/audit"
	"github.com/measurelab/measurand/internal/auth"
	"github.com/measurelab/measurand/internal/bridges/mqttingest"
	"github.com/measurelab/measurand/internal/infrastructure/config"
	"github.com/measurelab/measurand/internal/infrastructure/database"
	"github.com/measurelab/measurand/internal/infrastructure/influxdb"
	"github.com/measurelab/measurand/internal/infrastructure/logging"
	"github.com/measurelab/measurand/internal/infrastructure/mqtt"
	"github.com/measurelab/measurand/internal/measure"
	"github.com/measurelab/measurand/internal/observability"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Measurand",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Repositories and ingestion pipeline
	users := auth.NewUserRepository(db.DB)
	seriesRepo := measure.NewSeriesRepository(db.DB)
	sensorRepo := measure.NewSensorRepository(db.DB)
	measurementRepo := measure.NewMeasurementRepository(db.DB)
	auditRepo := audit.NewRepository(db.DB)
	metrics := observability.New()

	ingestor := measure.NewIngestor(db.DB, seriesRepo, sensorRepo, measurementRepo, metrics, log.Logger)

	// Seed the initial admin account on first boot
	seedPassword, err := auth.SeedAdmin(ctx, users, log.Logger)
	if err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}
	if seedPassword != "" {
		log.Warn("initial admin account created, change the password immediately",
			"username", "admin",
		)
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Connect to MQTT and start the ingest bridge (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		bridge := mqttingest.New(mqttClient, ingestor, byte(cfg.MQTT.QoS), log.Logger)
		if bridgeErr := bridge.Start(); bridgeErr != nil {
			return fmt.Errorf("starting MQTT ingest bridge: %w", bridgeErr)
		}
		defer func() {
			log.Info("stopping MQTT ingest bridge")
			if stopErr := bridge.Stop(); stopErr != nil {
				log.Error("error stopping MQTT ingest bridge", "error", stopErr)
			}
		}()
	} else {
		log.Info("MQTT ingest bridge disabled")
	}

	// Start the API server
	server, err := api.New(api.Deps{
		Config:       cfg.API,
		Security:     cfg.Security,
		Logger:       log,
		DB:           db,
		Users:        users,
		Series:       seriesRepo,
		Sensors:      sensorRepo,
		Measurements: measurementRepo,
		Ingestor:     ingestor,
		Audit:        auditRepo,
		Metrics:      metrics,
		Influx:       influxClient,
		Version:      version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error shutting down API server", "error", closeErr)
		}
	}()

	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses MEASURAND_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MEASURAND_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
