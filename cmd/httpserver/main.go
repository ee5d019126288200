package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"blogapi/adapters/httpserver"
	"blogapi/config"
	"blogapi/domain/services"
	"blogapi/domain/services/memory"
	"blogapi/domain/services/mongodb"
	"blogapi/logging"

	"github.com/sirupsen/logrus"
)

func openStorage(ctx context.Context, cfg config.Store, log *logrus.Logger) (services.Storage, func(), error) {
	switch cfg.Driver {
	case config.DriverMongoDB:
		storage, err := mongodb.Connect(ctx, mongodb.Options{
			URI:            cfg.MongoDB.URI,
			Database:       cfg.MongoDB.Database,
			Collection:     cfg.MongoDB.Collection,
			ConnectTimeout: cfg.MongoDB.ConnectTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		log.WithFields(logrus.Fields{
			"database":   cfg.MongoDB.Database,
			"collection": cfg.MongoDB.Collection,
		}).Info("Connected to MongoDB")

		return storage, func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.ConnectTimeout)
			defer cancel()
			if err := storage.Close(ctx); err != nil {
				log.WithError(err).Error("failed to close MongoDB connection")
			}
		}, nil
	default:
		log.Warn("Using in-memory storage, posts are lost on exit")
		return memory.NewStorage(), func() {}, nil
	}
}

func run(configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, closeLog, err := logging.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := openStorage(ctx, cfg.Store, log)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer closeStorage()

	posts := services.NewPosts(storage, cfg.Store.Timeout)
	server := httpserver.NewServer(posts, log)
	if err := server.SetTimeout(cfg.Server.RequestTimeout); err != nil {
		return err
	}

	listener, err := httpserver.Start(cfg.Server.Addr(), server, log)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case err := <-listener.Done():
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := listener.Stop(shutdownCtx); err != nil {
		return err
	}

	log.Info("Server exited")
	return nil
}

func main() {
	configPath := flag.String("conf", "", "path to config file, e.g. ./config.yaml")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "blogapi: %v\n", err)
		os.Exit(1)
	}
}
