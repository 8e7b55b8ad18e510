package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/service-weaver/probe-engine/pkg/config"
	"github.com/service-weaver/probe-engine/pkg/database"
	"github.com/service-weaver/probe-engine/pkg/engine"
	"github.com/service-weaver/probe-engine/pkg/probe"
	"github.com/service-weaver/probe-engine/pkg/spec"
	"github.com/service-weaver/probe-engine/pkg/transport"
)

func main() {
	log.Println("🔍 Starting Service Weaver probe engine...")

	environment := os.Getenv("WEAVER_ENV")
	if environment == "" {
		environment = "development"
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}
	log.Printf("📋 Environment: %s", environment)

	var store spec.Store
	var sink spec.ResultSink

	if cfg.Consul.Enabled {
		consulStore, err := spec.NewConsulStore(cfg.Consul.Addr)
		if err != nil {
			log.Fatalf("❌ Failed to connect to consul: %v", err)
		}
		store = consulStore
		sink = noopSink{}
		log.Printf("📡 Sourcing ServiceSpecs from consul at %s", cfg.Consul.Addr)
	} else {
		db, err := database.New(cfg.Database.Path)
		if err != nil {
			log.Fatalf("❌ Failed to initialize database: %v", err)
		}
		defer db.Close()

		sqliteStore := database.NewSqliteStore(db)
		store = sqliteStore
		sink = sqliteStore
		log.Printf("📋 Sourcing ServiceSpecs from sqlite at %s", cfg.Database.Path)
	}

	deps := probe.Deps{
		PostgresUser:     cfg.Postgres.User,
		PostgresPassword: cfg.Postgres.Password,
		PostgresDB:       cfg.Postgres.DB,
		PostgresSSLMode:  cfg.Postgres.SSLMode,
	}

	eng := engine.New(store, sink, deps, engine.Options{
		TickSec:     cfg.Scheduler.TickSec,
		HubInboxCap: cfg.Hub.InboxCap,
	})
	eng.Start(context.Background())

	var amqpPublisher *transport.AMQPPublisher
	if cfg.Messaging.AMQPURL != "" {
		amqpPublisher, err = transport.NewAMQPPublisher(cfg.Messaging.AMQPURL)
		if err != nil {
			log.Fatalf("❌ Failed to connect to amqp broker: %v", err)
		}
		go amqpPublisher.Run(context.Background(), eng.Hub)
		log.Println("📨 AMQP status fan-out enabled")
	}

	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		status := eng.GetStatus(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"engine":    status,
			"timestamp": time.Now().Unix(),
		})
	})

	wsHandler := transport.NewWebsocketHandler(eng.Hub)
	r.GET("/ws/status", gin.WrapH(wsHandler))

	api := r.Group("/api/v1")
	{
		api.GET("/services", func(c *gin.Context) {
			specs, err := store.ListAll(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"services": specs})
		})

		api.GET("/services/:id/history", func(c *gin.Context) {
			sqliteStore, ok := store.(*database.SqliteStore)
			if !ok {
				c.JSON(http.StatusNotImplemented, gin.H{"error": "history is only available with the sqlite store"})
				return
			}
			serviceID, err := strconv.ParseInt(c.Param("id"), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service id"})
				return
			}
			limit := 50
			if l := c.Query("limit"); l != "" {
				if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
					limit = parsed
				}
			}
			history, err := sqliteStore.History(c.Request.Context(), serviceID, limit)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"results": history})
		})
	}

	port := cfg.Server.Port
	if port == 0 {
		port = 8080
	}

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", port),
		Handler:        r,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("🚀 Probe engine API server starting on port %d", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down probe engine...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	eng.Stop()
	if amqpPublisher != nil {
		amqpPublisher.Close()
	}

	log.Println("✅ Probe engine shutdown complete")
}

type noopSink struct{}

func (noopSink) AppendResult(ctx context.Context, result spec.HealthcheckResult) error { return nil }
