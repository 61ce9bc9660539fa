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
	"github.com/tuannda91/courtbook/internal/cache"
	"github.com/tuannda91/courtbook/internal/email"
	"github.com/tuannda91/courtbook/internal/gateway"
	"github.com/tuannda91/courtbook/internal/kafka"
	"github.com/tuannda91/courtbook/internal/lock"
	"github.com/tuannda91/courtbook/internal/notify"
	"github.com/tuannda91/courtbook/internal/obs"
	"github.com/tuannda91/courtbook/internal/repository"
	"github.com/tuannda91/courtbook/internal/scheduler"
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

	shutdownTracer, err := obs.InitTracer("courtbook-worker")
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

	bookingRepo := repository.NewBookingRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	courtRepo := repository.NewCourtRepository(pool)

	availabilityService := availability.NewAvailabilityService(courtRepo, bookingRepo, redisCache)
	// the worker has no WebSocket clients; in-process fan-out still runs so
	// sweep transitions reach any hub wired here in the future
	reservationService := reservation.NewReservationService(
		bookingRepo,
		paymentRepo,
		courtRepo,
		availabilityService,
		slotLock,
		paymentGateway,
		notify.NewHub(),
		producer,
		time.Duration(cfg.Booking.LockTTLSeconds)*time.Second,
		time.Duration(cfg.Booking.ExpiryBufferSeconds)*time.Second,
		loc,
		reservation.WithTopics(cfg.Kafka.LifecycleTopic, cfg.Kafka.NotificationsTopic),
		reservation.WithGridInvalidator(redisCache),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, event kafka.LifecycleEvent) error {
			return emailSender.Send(ctx, event)
		}); err != nil {
			log.Printf("consumer stopped: %v", err)
		}
	}()

	expirySweep := scheduler.NewTicker(
		"expire-stale-payments",
		time.Duration(cfg.Worker.ExpirySweepMinutes)*time.Minute,
		func(ctx context.Context) error {
			n, err := reservationService.ExpireStalePayments(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				log.Printf("expired %d stale payments", n)
			}
			return nil
		},
	)

	completionSweep := scheduler.NewTicker(
		"complete-finished-bookings",
		time.Duration(cfg.Worker.CompletionSweepMinutes)*time.Minute,
		func(ctx context.Context) error {
			n, err := reservationService.CompleteFinishedBookings(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				log.Printf("completed %d finished bookings", n)
			}
			return nil
		},
	)

	go expirySweep.Run(ctx)
	go completionSweep.Run(ctx)

	<-ctx.Done()
	log.Printf("shutting down")
}
