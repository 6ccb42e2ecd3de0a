// README: Entry point; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"cityride/internal/auth"
	"cityride/internal/config"
	"cityride/internal/events"
	httptransport "cityride/internal/http"
	"cityride/internal/infra"
	"cityride/internal/modules/account"
	"cityride/internal/modules/estimate"
	"cityride/internal/modules/ride"
	"cityride/internal/notify"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	// Event publishing is optional; with no broker URL transitions are only
	// written to the audit table.
	var publisher ride.Publisher
	if cfg.AMQP.URL != "" {
		conn, err := amqp.Dial(cfg.AMQP.URL)
		if err != nil {
			log.Error("amqp connect", "err", err)
			os.Exit(1)
		}
		defer conn.Close()
		amqpPub, err := events.NewAMQPPublisher(conn, cfg.AMQP.Exchange, log)
		if err != nil {
			log.Error("amqp publisher", "err", err)
			os.Exit(1)
		}
		defer amqpPub.Close()
		publisher = amqpPub
	}

	hub := notify.NewHub(log)
	estimator := estimate.NewService(estimate.DefaultConfig())
	rideSvc := ride.NewService(ride.NewPGStore(dbPool), estimator, hub, publisher)
	accountSvc := account.NewService(account.NewPGStore(dbPool))
	presence := account.NewPresence(redisClient)
	tokens := auth.NewManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLHrs)*time.Hour)

	handler := httptransport.NewServer(httptransport.ServerDeps{
		Rides:              rideSvc,
		Accounts:           accountSvc,
		Estimates:          estimator,
		Presence:           presence,
		Hub:                hub,
		Tokens:             tokens,
		Log:                log,
		RateLimitPerSecond: cfg.RateLimit.PerSecond,
		RateLimitBurst:     cfg.RateLimit.Burst,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server", "err", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
