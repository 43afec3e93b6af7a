// Package techblog собирает HTTP API блога, супервизор хранилища и gRPC health-сервер.
package techblog

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magabrotheeeer/techblog/internal/cache"
	"github.com/magabrotheeeer/techblog/internal/config"
	grpcserver "github.com/magabrotheeeer/techblog/internal/grpc/server"
	"github.com/magabrotheeeer/techblog/internal/http/middlewarectx"
	"github.com/magabrotheeeer/techblog/internal/lib/jwt"
	"github.com/magabrotheeeer/techblog/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/techblog/internal/lib/sl"
	"github.com/magabrotheeeer/techblog/internal/services/auth"
	"github.com/magabrotheeeer/techblog/internal/services/blog"
	"github.com/magabrotheeeer/techblog/internal/storage"
	"github.com/magabrotheeeer/techblog/internal/storage/mongodb"
	"github.com/magabrotheeeer/techblog/internal/storage/postgresql"
	"github.com/magabrotheeeer/techblog/internal/supervisor"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	server     *http.Server
	grpc       *grpcserver.HealthServer
	grpcAddr   string
	logger     *slog.Logger
	supervisor *supervisor.Supervisor
	auth       *auth.Service
	cache      *cache.Cache
	events     *rabbitmq.Publisher
	pruneEvery time.Duration
}

// New выбирает хранилище и собирает сервисы. Недоступность Redis или брокера
// не мешает старту: кэш и события просто отключаются.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	admin := storage.Admin{Username: cfg.Admin.Username, Password: cfg.Admin.Password}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var (
		blogService *blog.Service
		healthSrv   *grpcserver.HealthServer
		sup         *supervisor.Supervisor
	)

	sup = supervisor.New(supervisor.Config{
		URL:             cfg.Storage.URL,
		ConnectAttempts: cfg.Storage.ConnectAttempts,
		RetryDelay:      cfg.Storage.RetryDelay,
		ProbeTimeout:    cfg.Storage.ProbeTimeout,
		Admin:           admin,
	}, logger,
		supervisor.WithConnector(storage.KindPostgres, postgresConnector(cfg.Storage, admin, logger)),
		supervisor.WithConnector(storage.KindMongo, mongoConnector(cfg.Storage, admin, logger)),
		supervisor.WithMetrics(supervisor.NewMetrics(reg)),
		supervisor.OnSwitch(func(c supervisor.Capability, kind storage.Kind) {
			if blogService != nil && c == supervisor.CapabilityData {
				blogService.FlushCache(context.Background())
			}
			if healthSrv != nil {
				healthSrv.Update(sup.Status())
			}
		}),
	)

	var opts []blog.Option
	app := &App{
		logger:     logger,
		supervisor: sup,
		grpcAddr:   cfg.GRPCServer.AddressGRPC,
		pruneEvery: cfg.Session.PruneEvery,
	}

	if cfg.RedisConnection.AddressRedis != "" {
		c, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			logger.Warn("redis unavailable, cache disabled", sl.Err(err))
		} else {
			app.cache = c
			opts = append(opts, blog.WithCache(c))
		}
	}

	if cfg.AMQP.URL != "" {
		pub, err := rabbitmq.NewPublisher(ctx, cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Retries, cfg.AMQP.RetryDelay)
		if err != nil {
			logger.Warn("amqp broker unavailable, subscriber events disabled", sl.Err(err))
		} else {
			app.events = pub
			opts = append(opts, blog.WithEvents(pub, rabbitmq.RoutingSubscriberCreated))
		}
	}

	blogService = blog.New(sup, logger, cfg.Storage.OperationTimeout, opts...)
	maker := jwt.NewJWTMaker(cfg.Session.Secret, cfg.Session.TTL)
	app.auth = auth.New(sup, maker, cfg.Session.TTL, logger, cfg.Storage.OperationTimeout)

	if app.grpcAddr != "" {
		healthSrv = grpcserver.NewHealthServer(logger)
		app.grpc = healthSrv
	}

	if err := sup.Start(ctx); err != nil {
		app.closeClients()
		return nil, err
	}
	if healthSrv != nil {
		healthSrv.Update(sup.Status())
	}
	// кэш мог остаться от прошлого процесса с другим набором постов
	blogService.FlushCache(ctx)

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Log:        logger,
		Supervisor: sup,
		Blog:       blogService,
		Auth:       app.auth,
		Cookie: middlewarectx.SessionCookie{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.Secure,
		},
		SubscribeLimiter: middlewarectx.NewLimiter(cfg.RateLimit.SubscribeRPS, cfg.RateLimit.SubscribeBurst),
		LoginLimiter:     middlewarectx.NewLimiter(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst),
		Metrics:          promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	app.server = &http.Server{
		Addr:         cfg.HTTPServer.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.TimeoutHTTP,
		WriteTimeout: cfg.HTTPServer.TimeoutHTTP,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	return app, nil
}

// Handler возвращает корневой HTTP-обработчик приложения.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	if a.grpc != nil {
		lis, err := net.Listen("tcp", a.grpcAddr)
		if err != nil {
			return err
		}
		go func() {
			a.logger.Info("gRPC health server starting on", slog.String("address", a.grpcAddr))
			if err := a.grpc.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	go a.pruneSessions(ctx)

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down HTTP server gracefully")
	if err := a.server.Shutdown(timeoutCtx); err != nil && runErr == nil {
		runErr = err
	}
	if a.grpc != nil {
		a.grpc.Stop(timeoutCtx)
	}
	if err := a.supervisor.Close(timeoutCtx); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	a.closeClients()
	return runErr
}

// pruneSessions периодически удаляет просроченные сессии.
func (a *App) pruneSessions(ctx context.Context) {
	if a.pruneEvery <= 0 {
		return
	}
	ticker := time.NewTicker(a.pruneEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := a.auth.PruneSessions(ctx)
			if err != nil {
				a.logger.Warn("failed to prune sessions", sl.Err(err))
				continue
			}
			if n > 0 {
				a.logger.Debug("expired sessions pruned", slog.Int("count", n))
			}
		}
	}
}

func (a *App) closeClients() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", sl.Err(err))
		}
	}
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("failed to close amqp publisher", sl.Err(err))
		}
	}
}

func postgresConnector(cfg config.Storage, admin storage.Admin, log *slog.Logger) supervisor.Connector {
	return func(ctx context.Context, url string, listener storage.ConnectionListener) (supervisor.Primary, error) {
		s, err := postgresql.New(ctx, postgresql.Config{
			URL:               url,
			MaxOpenConns:      cfg.MaxOpenConns,
			HeartbeatInterval: cfg.HeartbeatInterval,
			Admin:             admin,
			Listener:          listener,
		}, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

func mongoConnector(cfg config.Storage, admin storage.Admin, log *slog.Logger) supervisor.Connector {
	return func(ctx context.Context, url string, listener storage.ConnectionListener) (supervisor.Primary, error) {
		s, err := mongodb.New(ctx, mongodb.Config{
			URI:      url,
			Database: cfg.Database,
			Admin:    admin,
			Listener: listener,
		}, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}
