package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/measurelab/measurand/internal/audit"
	"github.com/measurelab/measurand/internal/auth"
	"github.com/measurelab/measurand/internal/infrastructure/config"
	"github.com/measurelab/measurand/internal/infrastructure/database"
	"github.com/measurelab/measurand/internal/infrastructure/influxdb"
	"github.com/measurelab/measurand/internal/infrastructure/logging"
	"github.com/measurelab/measurand/internal/measure"
	"github.com/measurelab/measurand/internal/observability"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config       config.APIConfig
	Security     config.SecurityConfig
	Logger       *logging.Logger
	DB           *database.DB
	Users        auth.UserRepository
	Series       measure.SeriesRepository
	Sensors      measure.SensorRepository
	Measurements measure.MeasurementRepository
	Ingestor     *measure.Ingestor
	Audit        audit.Repository
	Metrics      *observability.Metrics
	Influx       *influxdb.Client // optional measurement mirror
	Version      string
}

// Server is the HTTP API server.
type Server struct {
	cfg          config.APIConfig
	secCfg       config.SecurityConfig
	logger       *logging.Logger
	db           *database.DB
	users        auth.UserRepository
	series       measure.SeriesRepository
	sensors      measure.SensorRepository
	measurements measure.MeasurementRepository
	ingestor     *measure.Ingestor
	audit        audit.Repository
	metrics      *observability.Metrics
	influx       *influxdb.Client
	version      string
	server       *http.Server
}

// New creates an API server. The server is not started until Start()
// is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if deps.Ingestor == nil {
		return nil, fmt.Errorf("ingestor is required")
	}
	// Influx is optional; mirroring is skipped when nil.

	return &Server{
		cfg:          deps.Config,
		secCfg:       deps.Security,
		logger:       deps.Logger,
		db:           deps.DB,
		users:        deps.Users,
		series:       deps.Series,
		sensors:      deps.Sensors,
		measurements: deps.Measurements,
		ingestor:     deps.Ingestor,
		audit:        deps.Audit,
		metrics:      deps.Metrics,
		influx:       deps.Influx,
		version:      deps.Version,
	}, nil
}

// Start launches the HTTP listener in a background goroutine. Stop
// with Close().
func (s *Server) Start(_ context.Context) error {
	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       s.cfg.GetReadTimeout(),
		ReadHeaderTimeout: s.cfg.GetReadTimeout(),
		WriteTimeout:      s.cfg.GetWriteTimeout(),
		IdleTimeout:       s.cfg.GetIdleTimeout(),
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("api server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("api server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server, waiting for in-flight
// requests up to gracefulShutdownTimeout.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("api server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}

// HealthCheck verifies the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
