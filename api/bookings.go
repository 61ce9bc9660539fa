package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tuannda91/courtbook/internal/domain"
	"github.com/tuannda91/courtbook/internal/service/reservation"
)

type BookingHandler struct {
	service reservation.ReservationUseCase
}

// createBookingRequest accepts either a single booking or a bookings[] group
// paid as one unit.
type createBookingRequest struct {
	reservation.CreateBookingInput
	Bookings []reservation.CreateBookingInput `json:"bookings"`
}

type bookingResponse struct {
	ID         int64  `json:"id"`
	SubCourtID int64  `json:"sub_court_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	TotalPrice int64  `json:"total_price"`
	Status     string `json:"status"`
	GroupID    string `json:"group_id,omitempty"`
	GuestName  string `json:"guest_name"`
	GuestPhone string `json:"guest_phone"`
	GuestEmail string `json:"guest_email,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func NewBookingHandler(service reservation.ReservationUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.cancel)
	router.GET("/:id/payment", h.payment)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	if len(req.Bookings) > 0 {
		bookings, err := h.service.CreateGroupBooking(c.Request.Context(), req.Bookings)
		if err != nil {
			writeError(c, err)
			return
		}
		out := make([]bookingResponse, 0, len(bookings))
		for _, b := range bookings {
			out = append(out, toBookingResponse(b))
		}
		c.JSON(http.StatusCreated, gin.H{"bookings": out})
		return
	}

	booking, err := h.service.CreateBooking(c.Request.Context(), req.CreateBookingInput)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id", "code": "validation"})
		return
	}

	booking, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id", "code": "validation"})
		return
	}

	booking, err := h.service.CancelBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func (h *BookingHandler) payment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id", "code": "validation"})
		return
	}

	payment, err := h.service.GetPaymentForBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(payment))
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:         b.ID,
		SubCourtID: b.SubCourtID,
		Date:       b.Date,
		StartTime:  b.StartTime,
		EndTime:    b.EndTime,
		TotalPrice: b.TotalPrice,
		Status:     string(b.Status),
		GuestName:  b.GuestName,
		GuestPhone: b.GuestPhone,
		GuestEmail: b.GuestEmail,
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
	}
	if b.GroupID != nil {
		resp.GroupID = b.GroupID.String()
	}
	return resp
}
