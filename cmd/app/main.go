package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tuannda91/courtbook/config"
	"github.com/tuannda91/courtbook/internal/bootstrap"
	"github.com/tuannda91/courtbook/internal/cache"
	"github.com/tuannda91/courtbook/internal/gateway"
	"github.com/tuannda91/courtbook/internal/kafka"
	"github.com/tuannda91/courtbook/internal/lock"
	"github.com/tuannda91/courtbook/internal/notify"
	"github.com/tuannda91/courtbook/internal/obs"
	"github.com/tuannda91/courtbook/internal/repository"
	"github.com/tuannda91/courtbook/internal/service/availability"
	"github.com/tuannda91/courtbook/internal/service/reservation"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer("courtbook-api")
	if err != nil {
		log.Printf("tracing disabled: %v", err)
	} else {
		defer shutdownTracer(context.Background())
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		log.Fatalf("load timezone %q: %v", cfg.Booking.Timezone, err)
	}

	gridTTL := time.Duration(cfg.Booking.GridCacheTTLSeconds) * time.Second
	redisCache := cache.NewRedisCache(cfg.Redis, gridTTL)
	slotLock := lock.NewRedisSlotLock(cfg.Redis)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	paymentGateway := gateway.NewHTTPGateway(cfg.Gateway)
	hub := notify.NewHub()

	bookingRepo := repository.NewBookingRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	courtRepo := repository.NewCourtRepository(pool)

	availabilityService := availability.NewAvailabilityService(courtRepo, bookingRepo, redisCache)
	reservationService := reservation.NewReservationService(
		bookingRepo,
		paymentRepo,
		courtRepo,
		availabilityService,
		slotLock,
		paymentGateway,
		hub,
		producer,
		time.Duration(cfg.Booking.LockTTLSeconds)*time.Second,
		time.Duration(cfg.Booking.ExpiryBufferSeconds)*time.Second,
		loc,
		reservation.WithTopics(cfg.Kafka.LifecycleTopic, cfg.Kafka.NotificationsTopic),
		reservation.WithGridInvalidator(redisCache),
	)

	if err := bootstrap.Run(ctx, cfg, availabilityService, reservationService, hub); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
