package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/smukkama/fleetzone-server/internal/alerting"
	"github.com/smukkama/fleetzone-server/internal/broadcast"
	"github.com/smukkama/fleetzone-server/internal/database"
	"github.com/smukkama/fleetzone-server/internal/metrics"
	"github.com/smukkama/fleetzone-server/internal/notification"
	"github.com/smukkama/fleetzone-server/internal/queue"
	"github.com/smukkama/fleetzone-server/internal/server"
	"github.com/smukkama/fleetzone-server/internal/service"
	"github.com/smukkama/fleetzone-server/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Println("Starting FleetZone Server...")

	// Pick the store
	var store database.Store
	switch cfg.Database.Driver {
	case "postgres":
		db, err := database.Connect(cfg.Database.ConnectionString())
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := db.RunMigrations("migrations"); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		store = db
		fmt.Println("Connected to database")
	case "memory":
		store = database.NewMemoryStore()
		fmt.Println("Using in-memory store (no durability across restarts)")
	}

	// Assemble broadcast sinks behind capability flags
	var sinks []broadcast.Sink
	var hub *broadcast.Hub

	if cfg.Broadcast.Enabled {
		hub = broadcast.NewHub(cfg.Broadcast.MaxClients)
		sinks = append(sinks, hub)
		fmt.Println("Websocket broadcaster enabled")
	}

	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		sinks = append(sinks, broadcast.NewRedisSink(redisClient, cfg.Redis.ChannelPrefix, cfg.Broadcast.PublishTimeout))
		fmt.Println("Connected to Redis, channel publishing enabled")
	}

	if cfg.Kafka.Enabled {
		if err := queue.CreateTopic(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.NumPartitions, 1); err != nil {
			fmt.Printf("Note: Topic creation failed (may already exist): %v\n", err)
		}
		producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
		defer producer.Close()
		sinks = append(sinks, broadcast.NewKafkaSink(producer, cfg.Broadcast.PublishTimeout))
		fmt.Println("Kafka event export enabled")
	}

	fanout := broadcast.NewFanout(cfg.Broadcast.SinkQueueSize, sinks...)
	defer fanout.Close()

	// Alert engine and optional email notification
	var engine *alerting.Engine
	var notifier *notification.EmailNotifier
	if cfg.Alerts.Enabled {
		engine = alerting.NewEngine()
		fmt.Println("Alert engine enabled")
		if cfg.Alerts.EmailNotify {
			notifier = notification.NewEmailNotifier(&cfg.SMTP)
			fmt.Println("Email notification enabled")
		}
	}

	svc := service.New(service.Options{
		Store:    store,
		Agg:      metrics.NewAggregator(cfg.Metrics.FPSWindowSize),
		Alerts:   engine,
		Pub:      fanout,
		Notifier: notifier,
	})
	defer svc.Close()

	// HTTP surface
	handler := server.NewHandler(svc, hub, cfg.Broadcast.ClientBuffer, cfg.Broadcast.HistoryOnJoin)
	router := server.NewRouter(handler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPServer.Port),
		Handler:      handlers.LoggingHandler(os.Stdout, router),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Prometheus on a dedicated ops port
	opsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.PrometheusPort),
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := opsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Prometheus listener failed: %v", err)
		}
	}()

	// Print statistics periodically
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			snapshot, err := svc.Snapshot()
			if err != nil {
				continue
			}
			observers := 0
			if hub != nil {
				observers = hub.Count()
			}
			fmt.Printf("\n--- Server Statistics ---\n")
			fmt.Printf("Total Events: %d\n", snapshot.TotalEvents)
			fmt.Printf("Unique Motos: %d\n", snapshot.UniqueMotos)
			fmt.Printf("Active Alerts: %d\n", snapshot.ActiveAlerts)
			fmt.Printf("Connected Observers: %d\n", observers)
			fmt.Printf("------------------------\n\n")
		}
	}()

	fmt.Println("\n✓ FleetZone Server is running")
	fmt.Printf("✓ HTTP API listening on port %d\n", cfg.HTTPServer.Port)
	fmt.Printf("✓ Prometheus metrics on port %d\n", cfg.Metrics.PrometheusPort)
	fmt.Println("✓ Press Ctrl+C to stop")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPServer.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	opsServer.Shutdown(ctx)
}

