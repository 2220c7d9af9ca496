// Sensor simulator for the Measurand platform.
//
// Reads a YAML sensor list and posts synthetic readings to the device
// ingestion endpoint until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/measurelab/measurand/internal/infrastructure/config"
	"github.com/measurelab/measurand/internal/infrastructure/logging"
	"github.com/measurelab/measurand/internal/simulator"
)

var version = "dev" // set at build time via ldflags

const defaultConfigPath = "configs/simulator.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configPath := flag.String("config", defaultConfigPath, "path to simulator configuration")
	flag.Parse()

	log := logging.New(config.LoggingConfig{Level: "info", Format: "text", Output: "stdout"}, version)

	cfg, err := simulator.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("loading simulator config: %w", err)
	}
	log.Info("simulator config loaded", "path", *configPath, "sensors", len(cfg.Sensors))

	sim := simulator.New(cfg, log.Logger)
	return sim.Run(ctx)
}
