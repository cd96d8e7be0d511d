package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pribylovaa/go-fridge-market/auth-service/internal/cache"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/config"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/provider"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/provider/google"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/provider/kakao"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/service"
	"github.com/pribylovaa/go-fridge-market/auth-service/internal/storage/postgres"
	authhttp "github.com/pribylovaa/go-fridge-market/auth-service/internal/transport/http"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting auth-service", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	initCtx, initCancel := context.WithTimeout(rootCtx, 10*time.Second)
	defer initCancel()

	store, err := postgres.New(initCtx, cfg.DB.DatabaseURL)
	if err != nil {
		log.Error("storage_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	log.Info("storage_initialized")

	svc := service.New(store, cfg.Auth, buildProviders(*cfg))

	if cfg.Redis.RedisURL != "" {
		acache, err := cache.NewRedisCache(initCtx, cfg.Redis.RedisURL, "auth:acc:")
		if err != nil {
			log.Error("cache_init_failed", slog.String("err", err.Error()))
			os.Exit(1)
		}
		defer func() {
			if cerr := acache.Close(); cerr != nil {
				log.Warn("cache_close_failed", slog.String("err", cerr.Error()))
			}
		}()

		svc.SetAccountCache(acache)
		log.Info("account_cache_enabled")
	}

	var ready atomic.Bool

	handler := authhttp.NewRouter(svc, cfg.Auth, authhttp.Options{
		Logger:   log,
		Timeout:  cfg.Timeouts.Service,
		BasePath: "",
		Ready:    ready.Load,
	})

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	ready.Store(true)
	log.Info("service_ready")

	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	ready.Store(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
	} else {
		log.Info("http_stopped")
	}

	log.Info("service_stopped")
}

// buildProviders регистрирует только сконфигурированных провайдеров
// (пустой client_id выключает провайдера).
func buildProviders(cfg config.Config) *provider.Registry {
	var providers []provider.Provider

	if p := google.New(cfg.Providers.Google); p != nil {
		providers = append(providers, p)
	}
	if p := kakao.New(cfg.Providers.Kakao); p != nil {
		providers = append(providers, p)
	}

	return provider.NewRegistry(providers...)
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
