package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kb-service/internal/config"
	"kb-service/internal/metrics"
	"kb-service/internal/notify"
	"kb-service/internal/publisher"
	"kb-service/internal/repository"
	"kb-service/internal/server"
	"kb-service/internal/service"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
)

func setupLogging(cfg config.Log) {
	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
		})
	}
	log.SetOutput(os.Stdout)

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("level", cfg.Level).Warn("Unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn("Could not load .env file.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithField("error", err).Fatal("Could not load configuration")
	}
	setupLogging(cfg.Log)
	logger := log.StandardLogger()

	if cfg.DB.MigrationsEnabled {
		if err := repository.Migrate(cfg.DB.Driver, cfg.DB.URL); err != nil {
			log.WithField("error", err).Fatal("Could not apply migrations")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg.DB)
	if err != nil {
		log.WithField("error", err).Fatal("Could not connect to the database")
	}
	defer store.Close()

	bus := notify.NewBus(logger.WithField("component", "bus"))
	defer bus.Close()

	if cfg.Kafka.Enabled() {
		kafkaPublisher, err := publisher.NewKafkaPublisher(cfg.Kafka.BootstrapServers, logger.WithField("component", "kafka"))
		if err != nil {
			log.WithField("error", err).Fatal("Could not create kafka publisher")
		}
		defer kafkaPublisher.Close()

		forwarder := notify.NewForwarder(bus.Subscribe(cfg.Bus.BufferSize), kafkaPublisher, logger.WithField("component", "forwarder"))
		go forwarder.Run(ctx)
	} else {
		log.Info("KAFKA_BOOTSTRAP_SERVERS not set, entity events stay in process")
	}

	recorder := metrics.New()

	entityService := service.NewEntityService(service.Deps{
		Tx:       store,
		Repo:     repository.NewEntityRepository(store),
		Notifier: bus,
		Topics:   notify.Topics{Prefix: cfg.Bus.TopicPrefix},
		Metrics:  recorder,
		Logger:   logger.WithField("component", "entity-service"),
	})

	srv := server.NewServer(entityService, store, server.Options{
		Metrics:   recorder.Handler(),
		JWTSecret: cfg.Auth.JWTSecret,
		Logger:    logger.WithField("component", "http"),
	})

	e := echo.New()
	e.HideBanner = true
	srv.Register(e)

	go func() {
		log.WithField("port", cfg.HTTP.Port).Info("Knowledge base service is starting with Echo")
		if err := e.Start(":" + cfg.HTTP.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithField("error", err).Fatal("Echo server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Echo server shutdown failed")
	}
}
