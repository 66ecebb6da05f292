package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"heartrisk/config"
	"heartrisk/content"
	"heartrisk/db"
	qhttp "heartrisk/http"
	"heartrisk/logger"
	"heartrisk/ml"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config.yaml")
	flag.Parse()

	// 1. Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			bootstrapFatal("failed to load config", err)
		}
		cfg = config.Default()
	}

	// 2. Logger
	log := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	defer log.Close()

	// 3. Artifacts; a missing encoder or model stops startup
	builder, service, err := ml.LoadPredictor(
		cfg.ML.EncodersPath,
		cfg.ML.ModelType,
		cfg.ML.ModelPath,
		ml.WithCache(cfg.ML.CacheSize),
	)
	if err != nil {
		log.Fatal("failed to load model artifacts",
			zap.String("encoders", cfg.ML.EncodersPath),
			zap.String("model", cfg.ML.ModelPath),
			zap.Error(err),
		)
	}
	log.Info("model loaded", zap.String("type", cfg.ML.ModelType), zap.Int("cache_size", cfg.ML.CacheSize))

	// 4. Content store
	if err := db.InitDB(cfg.Database.Path); err != nil {
		log.Fatal("failed to initialize database", zap.String("path", cfg.Database.Path), zap.Error(err))
	}
	defer db.Close()
	log.Info("database initialized", zap.String("path", cfg.Database.Path))

	// 5. HTTP server
	qhttp.SetPredictionComponents(builder, service)
	qhttp.SetDefaultLanguage(content.ParseLanguage(cfg.UI.DefaultLanguage))

	server := qhttp.NewServer(qhttp.ServerConfig{
		Port:           cfg.Http.Port,
		Timeout:        cfg.Http.Timeout,
		AllowedOrigins: cfg.Http.AllowedOrigins,
	}, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		err := config.Watch(ctx, *configPath, log.Logger, func(next *config.Config) {
			log.SetLevel(next.Log.Level)
			log.Info("log level applied", zap.String("log_level", next.Log.Level))
		})
		if err != nil {
			log.Warn("config watch disabled", zap.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			log.Error("http server failed", zap.Error(err))
		}
	}
	cancel()

	if err := server.Stop(); err != nil {
		log.Warn("server forced to shutdown", zap.Error(err))
	}

	log.Info("exiting")
}

func bootstrapFatal(msg string, err error) {
	l, _ := zap.NewProduction()
	l.Fatal(msg, zap.Error(err))
}
