package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/rl1809/pack-n-strap/internal/adapter/handler"
	"github.com/rl1809/pack-n-strap/internal/adapter/storage"
	"github.com/rl1809/pack-n-strap/internal/config"
	"github.com/rl1809/pack-n-strap/internal/host"
	"github.com/rl1809/pack-n-strap/internal/intercept"
	"github.com/rl1809/pack-n-strap/internal/logger"
	"github.com/rl1809/pack-n-strap/internal/mod"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.New().Fatal(err, "failed to load config")
	}
	log := logger.NewFromConfig(logger.Config{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
	})

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		PoolSize: cfg.RedisPoolSize,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal(err, "failed to connect redis")
	}
	log.Info("connected to redis")

	// Initialize template store
	templates, err := storage.OpenTemplateStore(ctx, cfg.TemplateStore, cfg.TemplateSource())
	if err != nil {
		log.Fatalf(err, "failed to open %s template store", cfg.TemplateStore)
	}
	log.Infof("opened %s template store", cfg.TemplateStore)

	if cfg.TemplateSeedFile != "" {
		if err := seedTemplates(ctx, templates, cfg.TemplateSeedFile); err != nil {
			log.Fatal(err, "failed to seed templates")
		}
		log.Infof("imported templates from %s", cfg.TemplateSeedFile)
	}

	profiles := storage.NewRedisAdapter(rdb)
	lostOnDeath := host.DefaultLostOnDeath()

	// Mod wrappers go in before the host provides its built-ins
	registry := intercept.NewRegistry()
	packNStrap := mod.New(cfg.Mod, profiles, templates, lostOnDeath, log)
	if err := packNStrap.Install(registry); err != nil {
		log.Fatal(err, "failed to install mod")
	}
	if err := intercept.Provide(registry, host.OpGameStart, host.GameStart(profiles, log)); err != nil {
		log.Fatal(err, "failed to provide game start")
	}
	if err := intercept.Provide(registry, host.OpItemKeptAfterDeath, host.ItemKeptAfterDeath(lostOnDeath)); err != nil {
		log.Fatal(err, "failed to provide retention")
	}
	if err := packNStrap.PostDBLoad(ctx); err != nil {
		log.Fatal(err, "post database load failed")
	}
	log.Infof("registered operations: %v", registry.Names())

	// Initialize gRPC server
	grpcHandler := handler.NewGRPCHandler(log)
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(grpcHandler.UnaryServerInterceptor()))
	grpcHandler.Register(grpcServer)
	grpcHandler.SetServing(true)

	// Start gRPC server
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatal(err, "failed to listen")
	}

	go func() {
		log.Infof("gRPC server listening on %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Error(err, "gRPC server error")
		}
	}()

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(registry, profiles, log)
	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: httpHandler.Routes(),
	}

	go func() {
		log.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error(err, "HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")
	grpcHandler.Shutdown()

	// Stop HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "HTTP shutdown")
	}
	log.Info("HTTP server stopped")

	// Stop gRPC server
	grpcServer.GracefulStop()
	log.Info("gRPC server stopped")

	// Close connections
	rdb.Close()
	templates.Close()
	log.Info("connections closed")
}

func seedTemplates(ctx context.Context, templates *storage.TemplateStore, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	catalog, err := storage.LoadCatalog(f)
	if err != nil {
		return err
	}
	_, err = storage.ImportCatalog(ctx, templates, catalog)
	return err
}
