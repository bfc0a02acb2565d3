package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-relay/internal/db"
	"chat-relay/internal/handlers"
	"chat-relay/internal/middleware"
	"chat-relay/internal/observability"
	"chat-relay/internal/presence"
	"chat-relay/internal/rabbitmq"
	"chat-relay/internal/repositories"
	"chat-relay/internal/telemetry"
	"chat-relay/internal/ws"
)

const serviceName = "chat-relay"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	ctx := context.Background()

	shutdownTracing, err := telemetry.InitTracing(ctx, serviceName)
	if err != nil {
		log.Printf("tracing disabled: %v", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	amqpURL := getEnv("AMQP_URL", "")
	exchange := getEnv("AMQP_EXCHANGE", "chat_relay.events")

	publisher := rabbitmq.NewPublisher(amqpURL, exchange)
	emitter := telemetry.NewPresenceEmitter(publisher, "presence.lifecycle", serviceName, getEnv("ENVIRONMENT", "dev"))
	observability.SetPublisher(publisher)

	participantRepo := repositories.NewParticipantRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	svc := presence.NewService(participantRepo, messageRepo)

	if participants, err := svc.Participants(ctx); err == nil {
		observability.SetParticipantsActive(len(participants))
	} else {
		log.Printf("participant count seed failed: %v", err)
	}

	hub := ws.NewHub()
	feedWS := ws.NewFeedHandler(hub)

	sweepInterval := getDurationEnv("SWEEP_INTERVAL", 15*time.Second)
	expiryWindow := getDurationEnv("EXPIRY_WINDOW", 10*time.Second)

	sweeper := presence.NewSweeper(svc, sweepInterval, expiryWindow, hub, emitter)
	sweeper.Start()

	participantHandler := handlers.NewParticipantHandler(svc, hub, emitter)
	messageHandler := handlers.NewMessageHandler(svc, hub)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware(serviceName))

	identity := middleware.RequireIdentity()

	router.POST("/participants", participantHandler.Join)
	router.GET("/participants", participantHandler.List)
	router.POST("/messages", identity, messageHandler.Post)
	router.GET("/messages", identity, messageHandler.List)
	router.DELETE("/messages/:message_id", identity, messageHandler.Delete)
	router.POST("/status", identity, participantHandler.Heartbeat)

	router.GET("/ws", feedWS.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, emitter, getEnv("DEBUG_ROUTES", "false") == "true")

	port := getEnv("PORT", "5000")
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()
	log.Printf("chat relay listening on :%s", port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	sweeper.Stop()
	if err := publisher.Close(); err != nil {
		log.Printf("publisher close: %v", err)
	}
	if err := database.Close(); err != nil {
		log.Printf("db close: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, val, fallback)
		return fallback
	}
	return d
}
