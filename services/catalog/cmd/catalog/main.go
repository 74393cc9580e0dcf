package main

import (
	"context"
	"net"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/example/anilist/internal/platform/auth"
	"github.com/example/anilist/internal/platform/config"
	"github.com/example/anilist/internal/platform/docstore"
	"github.com/example/anilist/internal/platform/events"
	"github.com/example/anilist/internal/platform/httpserver"
	"github.com/example/anilist/internal/platform/logging"
	"github.com/example/anilist/internal/platform/metrics"
	"github.com/example/anilist/internal/platform/natsconn"
	"github.com/example/anilist/internal/platform/run"
	"github.com/example/anilist/services/catalog/internal/catalog"
	catalogconfig "github.com/example/anilist/services/catalog/internal/config"
	"github.com/example/anilist/services/catalog/internal/handlers"
	"github.com/example/anilist/services/catalog/internal/identity"
	"github.com/example/anilist/services/catalog/internal/media"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load("catalog")
	if err != nil {
		panic(err)
	}
	base, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	log := logging.ForService(base, cfg.ServiceName)
	defer func() { _ = log.Sync() }()

	catCfg, err := catalogconfig.LoadCatalog()
	if err != nil {
		log.Error("load catalog config", zap.Error(err))
		run.Exit(1)
	}
	grpcCfg := catalogconfig.LoadGRPC()

	openCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	store, err := docstore.Open(openCtx, catCfg.Store)
	cancel()
	if err != nil {
		log.Error("open docstore", zap.String("driver", catCfg.Store.Driver), zap.Error(err))
		run.Exit(1)
	}
	log.Info("docstore ready", zap.String("driver", catCfg.Store.Driver))

	provider, err := newIdentityProvider(catCfg.Identity, store)
	if err != nil {
		log.Error("identity provider", zap.Error(err))
		run.Exit(1)
	}

	var natsStep run.Step

	var publisher *events.Publisher
	if catCfg.Events.NATSURL != "" {
		nc, err := natsconn.Connect(natsconn.Options{URL: catCfg.Events.NATSURL, Name: cfg.ServiceName, Logger: log})
		if err != nil {
			log.Error("nats connect", zap.Error(err))
			run.Exit(1)
		}
		natsStep = run.Step{Name: "nats", Fn: func(ctx context.Context) error { return natsconn.Drain(ctx, nc) }}
		publisher = events.New(nc, log)
	} else {
		log.Info("NATS_URL not set, catalog events disabled")
	}

	m := metrics.New()
	services := make([]*catalog.Service, 0, len(media.Kinds()))
	for _, k := range media.Kinds() {
		services = append(services, catalog.New(store, k, catalog.WithMetrics(m)))
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		Logger:             log,
		CORSAllowedOrigins: cfg.HTTP.CORSAllowedOrigins,
		ReadyFunc: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(ctx)
		},
	})
	r.Handle("/metrics", m.Handler())

	limiter := httpserver.NewRateLimiter(catCfg.AuthRateLimit.RPS, catCfg.AuthRateLimit.Burst)
	handlers.Mount(r, handlers.RoutesConfig{
		Services:  services,
		Identity:  provider,
		Gate:      auth.NewGate(provider, log.Named("auth"), m),
		Events:    publisher,
		Log:       log,
		AuthLimit: limiter.Middleware,
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, Router: r, Logger: log})

	lis, err := net.Listen("tcp", grpcCfg.Addr)
	if err != nil {
		log.Error("grpc listen", zap.Error(err))
		run.Exit(1)
	}
	grpcSrv := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)
	if grpcCfg.Reflection {
		reflection.Register(grpcSrv)
	}
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	go func() {
		log.Info("grpc health server starting", zap.String("addr", grpcCfg.Addr))
		if err := grpcSrv.Serve(lis); err != nil {
			log.Error("grpc serve", zap.Error(err))
		}
	}()

	runner := run.New(log)
	code := runner.WithSignals(srv.Start)

	healthSrv.Shutdown()
	runner.Graceful(
		run.Step{Name: "http", Fn: srv.Shutdown},
		run.Step{Name: "grpc", Fn: func(ctx context.Context) error {
			stopped := make(chan struct{})
			go func() {
				grpcSrv.GracefulStop()
				close(stopped)
			}()
			select {
			case <-stopped:
			case <-ctx.Done():
				grpcSrv.Stop()
			}
			return nil
		}},
		natsStep,
		run.Step{Name: "docstore", Fn: store.Close},
	)

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

func newIdentityProvider(cfg catalogconfig.IdentityConfig, store docstore.Store) (identity.Provider, error) {
	switch cfg.Provider {
	case catalogconfig.ProviderIdentityToolkit:
		return identity.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout), nil
	default:
		return identity.NewLocalProvider(store, []byte(cfg.LocalSecret), cfg.LocalTokenTTL)
	}
}
