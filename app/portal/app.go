package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/publicsuffix"

	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/auth"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/config"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/csrf"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/idle"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/kvstore"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/logger"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/metrics"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/pipeline"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/core/token"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/integration/database/redis"
	"github.com/Oladapo-cyber/my-lagos-community-new-sub001/pkg/clock"
)

// Session audiences.
const (
	AudienceCustomer = "customer"
	AudienceAdmin    = "admin"
)

var ErrUnknownDriver = errors.New("portal: unknown storage driver")

// App wires the session layer: one store, one CSRF cache, one pipeline and
// one idle monitor shared by the customer and admin auth services.
type App struct {
	config     Config
	configured bool

	logger     *slog.Logger
	store      kvstore.Store
	clock      clock.Clock
	client     *http.Client
	registerer prometheus.Registerer

	metrics  *metrics.Collector
	tokens   *token.Store
	csrf     *csrf.Cache
	api      *pipeline.Pipeline
	activity *idle.Dispatcher
	monitor  *idle.Monitor
	customer *auth.Service
	admin    *auth.Service

	healthcheck func(context.Context) error
	closers     []func() error
}

type AppOption func(*App) error

// NewApp builds the application. Unless WithConfig is given, the
// configuration is loaded from the environment.
func NewApp(ctx context.Context, opts ...AppOption) (*App, error) {
	app := &App{}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if !app.configured {
		var cfg Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		app.config = cfg
	}
	cfg := app.config

	if app.logger == nil {
		app.logger = newLogger(cfg)
	}
	if app.clock == nil {
		app.clock = clock.Real()
	}
	if app.registerer == nil {
		app.registerer = prometheus.NewRegistry()
	}
	if app.client == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, err
		}
		app.client = &http.Client{Jar: jar}
	}
	if app.store == nil {
		if err := app.openStore(ctx); err != nil {
			return nil, err
		}
	}

	app.metrics = metrics.New(app.registerer, cfg.MetricsNamespace)
	app.tokens = token.NewStore(app.store, token.WithLogger(app.logger))

	fetcher, err := csrf.NewHTTPFetcherFromConfig(app.client, cfg.API.BaseURL, cfg.CSRF)
	if err != nil {
		return nil, app.abort(err)
	}
	app.csrf = csrf.New(fetcher,
		csrf.WithLogger(app.logger),
		csrf.WithMetrics(app.metrics),
	)

	app.api, err = pipeline.NewFromConfig(cfg.API, app.tokens, app.csrf,
		pipeline.WithHTTPClient(app.client),
		pipeline.WithLogger(app.logger),
		pipeline.WithMetrics(app.metrics),
	)
	if err != nil {
		return nil, app.abort(err)
	}

	app.activity = idle.NewDispatcher()
	app.monitor = idle.NewFromConfig(cfg.Session, app.store, app.activity,
		idle.WithClock(app.clock),
		idle.WithLogger(app.logger),
		idle.WithMetrics(app.metrics),
	)

	common := []auth.Option{
		auth.WithEndpoints(cfg.Auth),
		auth.WithClock(app.clock),
		auth.WithLogger(app.logger),
		auth.WithMetrics(app.metrics),
	}
	app.customer = auth.New(app.api, app.tokens, app.monitor,
		append(common, auth.WithAudience(AudienceCustomer))...,
	)
	app.admin = auth.New(app.api, app.tokens, app.monitor,
		append(common, auth.WithAudience(AudienceAdmin), auth.WithRequiredRole(auth.RoleAdmin))...,
	)

	return app, nil
}

func WithConfig(cfg Config) AppOption {
	return func(app *App) error {
		app.config = cfg
		app.configured = true
		return nil
	}
}

func WithLogger(logger *slog.Logger) AppOption {
	return func(app *App) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		app.logger = logger
		return nil
	}
}

// WithStore uses store instead of the configured storage driver.
// The caller keeps ownership of it.
func WithStore(store kvstore.Store) AppOption {
	return func(app *App) error {
		if store == nil {
			return errors.New("store cannot be nil")
		}
		app.store = store
		return nil
	}
}

func WithClock(c clock.Clock) AppOption {
	return func(app *App) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		app.clock = c
		return nil
	}
}

// WithHTTPClient replaces the default client. Give it a cookie jar if the
// backend ties CSRF tokens to a cookie.
func WithHTTPClient(client *http.Client) AppOption {
	return func(app *App) error {
		if client == nil {
			return errors.New("http client cannot be nil")
		}
		app.client = client
		return nil
	}
}

func WithRegisterer(reg prometheus.Registerer) AppOption {
	return func(app *App) error {
		if reg == nil {
			return errors.New("registerer cannot be nil")
		}
		app.registerer = reg
		return nil
	}
}

func (app *App) Customer() *auth.Service { return app.customer }
func (app *App) Admin() *auth.Service { return app.admin }
func (app *App) API() *pipeline.Pipeline { return app.api }
func (app *App) Activity() *idle.Dispatcher { return app.activity }
func (app *App) Monitor() *idle.Monitor { return app.monitor }
func (app *App) Metrics() *metrics.Collector { return app.metrics }
func (app *App) Logger() *slog.Logger { return app.logger }
func (app *App) Config() Config { return app.config }

// Start restores the sessions left by a previous run. Failures only end the
// affected session; they are logged and never stop the app.
func (app *App) Start(ctx context.Context) error {
	for _, svc := range []*auth.Service{app.customer, app.admin} {
		if err := ctx.Err(); err != nil {
			return err
		}

		u, err := svc.RestoreSession(ctx)
		switch {
		case err == nil:
			app.logger.InfoContext(ctx, "session restored",
				logger.Audience(svc.Audience()),
				logger.UserID(u.ID),
			)
		case errors.Is(err, auth.ErrNoSession):
		default:
			app.logger.WarnContext(ctx, "session not restored",
				logger.Audience(svc.Audience()),
				logger.Error(err),
			)
		}
	}
	return nil
}

// Healthcheck reports whether the storage backend is reachable.
func (app *App) Healthcheck(ctx context.Context) error {
	if app.healthcheck != nil {
		return app.healthcheck(ctx)
	}
	if p, ok := app.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close stops the idle monitor and releases the storage backend. Stored
// sessions survive so the next Start can restore them.
func (app *App) Close() error {
	app.monitor.Close()

	var errs []error
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	app.closers = nil
	return errors.Join(errs...)
}

func (app *App) openStore(ctx context.Context) error {
	cfg := app.config

	switch strings.ToLower(cfg.StorageDriver) {
	case DriverMemory:
		app.store = kvstore.NewMemoryStore()

	case DriverFile, "":
		s, err := kvstore.NewFileStore(cfg.StorageFilePath)
		if err != nil {
			return err
		}
		app.store = s

	case DriverSQLite:
		s, err := kvstore.OpenSQLite(ctx, cfg.StorageSQLiteDSN)
		if err != nil {
			return err
		}
		app.store = s
		app.closers = append(app.closers, s.Close)

	case DriverRedis:
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		app.store = kvstore.NewRedisStore(client, cfg.Redis.KeyPrefix)
		app.healthcheck = redis.Healthcheck(client)
		app.closers = append(app.closers, client.Close)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.StorageDriver)
	}

	app.logger.DebugContext(ctx, "storage opened", logger.Key("driver", cfg.StorageDriver))
	return nil
}

// abort releases whatever NewApp opened before failing.
func (app *App) abort(err error) error {
	for i := len(app.closers) - 1; i >= 0; i-- {
		_ = app.closers[i]()
	}
	app.closers = nil
	return err
}

func newLogger(cfg Config) *slog.Logger {
	var opts []logger.Option
	switch strings.ToLower(cfg.Env) {
	case "production", "prod":
		opts = append(opts, logger.WithProduction(cfg.AppName))
	case "staging":
		opts = append(opts, logger.WithStaging(cfg.AppName))
	default:
		opts = append(opts, logger.WithDevelopment(cfg.AppName))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err == nil {
		opts = append(opts, logger.WithLevel(level))
	}
	return logger.New(opts...)
}
