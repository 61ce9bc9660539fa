package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tuannda91/courtbook/internal/domain"
	"github.com/tuannda91/courtbook/internal/service/reservation"
)

type PaymentHandler struct {
	service reservation.ReservationUseCase
}

type createPaymentRequest struct {
	BookingID int64 `json:"booking_id"`
}

// gatewayCallback mirrors the gateway's callback body: the signed raw data
// string plus its MAC.
type gatewayCallback struct {
	Data string `json:"data"`
	Mac  string `json:"mac"`
}

type paymentResponse struct {
	ID              int64  `json:"id"`
	BookingID       int64  `json:"booking_id"`
	AppTransID      string `json:"app_trans_id"`
	Amount          int64  `json:"amount"`
	Status          string `json:"status"`
	OrderURL        string `json:"order_url,omitempty"`
	ProviderTransID string `json:"provider_trans_id,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func NewPaymentHandler(service reservation.ReservationUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.POST("/callback", h.callback)
	router.GET("/:id", h.get)
	router.GET("/:id/status", h.status)
}

func (h *PaymentHandler) create(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "validation"})
		return
	}

	artifact, err := h.service.CreatePayment(c.Request.Context(), req.BookingID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, artifact)
}

// callback speaks the gateway's protocol, not the API envelope: always HTTP
// 200, the ack lives in return_code so the gateway knows whether to redeliver.
func (h *PaymentHandler) callback(c *gin.Context) {
	var req gatewayCallback
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, gin.H{"return_code": reservation.AckFailure, "return_message": "malformed body"})
		return
	}

	code, message := h.service.HandleCallback(c.Request.Context(), req.Data, req.Mac)
	c.JSON(http.StatusOK, gin.H{"return_code": code, "return_message": message})
}

func (h *PaymentHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id", "code": "validation"})
		return
	}

	payment, err := h.service.GetPayment(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(payment))
}

func (h *PaymentHandler) status(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id", "code": "validation"})
		return
	}

	payment, err := h.service.QueryStatus(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(payment))
}

func toPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:              p.ID,
		BookingID:       p.BookingID,
		AppTransID:      p.AppTransID,
		Amount:          p.Amount,
		Status:          string(p.Status),
		OrderURL:        p.OrderURL,
		ProviderTransID: p.ProviderTransID,
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
	}
}
