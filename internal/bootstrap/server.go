package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tuannda91/courtbook/api"
	"github.com/tuannda91/courtbook/config"
	"github.com/tuannda91/courtbook/internal/notify"
	"github.com/tuannda91/courtbook/internal/obs"
	"github.com/tuannda91/courtbook/internal/service/availability"
	"github.com/tuannda91/courtbook/internal/service/reservation"
)

// Run starts the HTTP server and blocks until context is canceled or the
// server fails.
func Run(
	ctx context.Context,
	cfg *config.Config,
	availabilitySvc availability.AvailabilityUseCase,
	reservationSvc reservation.ReservationUseCase,
	hub *notify.Hub,
) error {
	server := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: NewRouter(availabilitySvc, reservationSvc, hub),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

// NewRouter assembles the gin engine with all handlers registered.
func NewRouter(
	availabilitySvc availability.AvailabilityUseCase,
	reservationSvc reservation.ReservationUseCase,
	hub *notify.Hub,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), obs.Middleware("courtbook-api"))

	api.NewAvailabilityHandler(availabilitySvc).Register(router.Group("/courts"))
	api.NewBookingHandler(reservationSvc).Register(router.Group("/bookings"))
	api.NewPaymentHandler(reservationSvc).Register(router.Group("/payments"))
	api.NewWSHandler(hub).Register(router.Group("/"))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
