package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"evdash/internal/config"
	"evdash/internal/dataset"
	apierrors "evdash/internal/errors"
	"evdash/internal/infrastructure"
	"evdash/internal/middleware"
	"evdash/internal/report"
	"evdash/internal/services"
	"evdash/internal/session"
	handlers "evdash/internal/transport/http"
	live "evdash/internal/websocket"
	"evdash/pkg/contracts"
)

// AppName is logged at startup.
const AppName = "EV Insights Dashboard"

// Application holds every wired component of the dashboard server.
type Application struct {
	Config        *config.Config
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics

	Dataset   *dataset.Dataset
	Pipeline  *report.Pipeline
	Sessions  *session.Store
	Dashboard *services.DashboardService
	Health    *services.HealthService
	Hub       *live.Hub

	ErrorHandler *apierrors.ErrorHandler
	Router       *chi.Mux
	Server       *http.Server
}

// NewApplication loads configuration from the environment and config file
// and wires the application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return New(cfg, logger)
}

// New wires the application from cfg. The datasets are loaded here, so a
// missing or malformed input file fails startup.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("datasets_dir", cfg.Datasets.Dir))

	if err := cfg.EnsureLogDir(); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	otelConfig := infrastructure.OTelConfigFrom(cfg.Telemetry)
	providers, err := infrastructure.InitializeOTel(otelConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	if providers.Meter != nil {
		a.Metrics, err = infrastructure.CreateBusinessMetrics(providers.Meter)
		if err != nil {
			return nil, fmt.Errorf("failed to create business metrics: %w", err)
		}
	}

	if err := a.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := a.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	a.createServer()
	return a, nil
}

func (a *Application) initializeServices() error {
	data, err := dataset.LoadDataset(a.Config.Datasets.Sources(), a.Logger)
	if err != nil {
		return err
	}
	a.Dataset = data

	a.Pipeline = report.NewPipeline(data, a.Logger, a.Metrics)
	a.Sessions = session.NewStore(session.Options{
		TTL:           a.Config.Session.TTL,
		SweepInterval: a.Config.Session.SweepInterval,
	}, a.Logger, a.Metrics)
	a.Dashboard = services.NewDashboardService(a.Pipeline, a.Sessions, a.Logger, a.Metrics)
	a.Hub = live.NewHub(a.Logger, a.Metrics)
	a.Health = services.NewHealthService(a.Pipeline, a.Sessions, a.Hub, a.Logger)
	return nil
}

func (a *Application) setupRouter() error {
	page, err := handlers.NewPageHandler(a.Dashboard, a.Logger, a.ErrorHandler)
	if err != nil {
		return err
	}

	ws := a.Config.WebSocket
	hs := handlers.Handlers{
		Page: page,
		API:  handlers.NewDashboardHandler(a.Dashboard, a.Logger, a.ErrorHandler),
		Live: handlers.NewLiveHandler(a.Dashboard, a.Hub, handlers.LiveConfig{
			ReadBufferSize:  ws.ReadBufferSize,
			WriteBufferSize: ws.WriteBufferSize,
			AllowedOrigins:  a.Config.Security.AllowedOrigins,
			Client: live.Options{
				PongWait:       ws.PongWait,
				PingPeriod:     ws.PingPeriod,
				MaxMessageSize: ws.MaxMessageSize,
			},
		}, a.Logger, a.ErrorHandler),
		Health:    handlers.NewHealthHandler(a.Health, a.Logger),
		Metrics:   handlers.NewMetricsHandler(a.Sessions, a.Hub),
		ClientLog: handlers.NewClientLogHandler(a.Logger, a.ErrorHandler),
		Sessions: handlers.NewSessionMiddleware(a.Dashboard, handlers.CookieConfig{
			Name:   a.Config.Session.CookieName,
			TTL:    a.Config.Session.TTL,
			Secure: a.Config.Session.SecureCookie,
		}, a.Logger),
		Bodies: middleware.NewBodyValidator(a.Logger, a.ErrorHandler, a.Config.Server.MaxBodyBytes),
	}

	r := chi.NewRouter()

	// RequestID → RealIP → OTel → Logger → Recoverer, shared with /ws.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
	r.Use(middleware.StructuredLogger(a.Logger))
	r.Use(middleware.Recoverer(a.ErrorHandler))
	r.Use(middleware.DefaultSecureHeaders().Handler)

	if a.Config.Security.EnableCORS {
		r.Use(middleware.CORS(middleware.CORSConfig{
			AllowedOrigins:   a.Config.Security.AllowedOrigins,
			AllowCredentials: true,
			Logger:           a.Logger,
		}))
	}

	if rl := a.Config.Security.RateLimit; rl.Enabled {
		r.Use(middleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger, a.ErrorHandler).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	hs.Register(r,
		middleware.Compress(5),
		middleware.Timeout(a.Config.Server.RequestTimeout, a.ErrorHandler),
	)

	a.Router = r
	return nil
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelError),
	}
}

// Run serves until SIGINT or SIGTERM, then shuts down gracefully.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Serve runs the HTTP server, the session sweeper and the live hub on ln
// until ctx is cancelled or one of them fails.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "Server listening",
			slog.String("address", ln.Addr().String()),
			slog.String("version", contracts.Version))
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.Sessions.Run(gctx)
	})

	g.Go(func() error {
		return a.Hub.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.Background())
	})

	return g.Wait()
}

// Stop drains in-flight requests and flushes telemetry.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}
