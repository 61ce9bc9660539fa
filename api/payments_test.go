package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/tuannda91/courtbook/internal/domain"
	"github.com/tuannda91/courtbook/internal/service/reservation"
)

func TestPaymentHandler_create(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewPaymentHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(createPaymentRequest{BookingID: 42})
	c.Request = httptest.NewRequest("POST", "/payments", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("CreatePayment", c.Request.Context(), int64(42)).Return(&reservation.PaymentArtifact{
		PaymentID:  7,
		BookingID:  42,
		AppTransID: "250303_42",
		Amount:     140000,
		OrderURL:   "https://pay.example/o/1",
		ExpiresAt:  time.Date(2025, 3, 3, 9, 10, 0, 0, time.UTC),
	}, nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var artifact reservation.PaymentArtifact
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &artifact))
	assert.Equal(t, "https://pay.example/o/1", artifact.OrderURL)
	assert.Equal(t, "250303_42", artifact.AppTransID)

	mockService.AssertExpectations(t)
}

func TestPaymentHandler_create_contended(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewPaymentHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	body, _ := json.Marshal(createPaymentRequest{BookingID: 42})
	c.Request = httptest.NewRequest("POST", "/payments", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("CreatePayment", c.Request.Context(), int64(42)).Return(nil, reservation.ErrLockHeld)

	handler.create(c)

	assert.Equal(t, http.StatusConflict, w.Code)

	var response map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "slot_contended", response["code"])
}

func TestPaymentHandler_callback_alwaysHTTP200(t *testing.T) {
	cases := []struct {
		name    string
		ackCode int
		ackMsg  string
	}{
		{"success", reservation.AckSuccess, "success"},
		{"rejected", reservation.AckFailure, "invalid signature"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &MockReservationUseCase{}
			handler := NewPaymentHandler(mockService)

			gin.SetMode(gin.TestMode)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			body, _ := json.Marshal(gatewayCallback{Data: "payload", Mac: "mac"})
			c.Request = httptest.NewRequest("POST", "/payments/callback", bytes.NewReader(body))
			c.Request.Header.Set("Content-Type", "application/json")

			mockService.On("HandleCallback", c.Request.Context(), "payload", "mac").Return(tc.ackCode, tc.ackMsg)

			handler.callback(c)

			assert.Equal(t, http.StatusOK, w.Code)

			var response struct {
				ReturnCode    int    `json:"return_code"`
				ReturnMessage string `json:"return_message"`
			}
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, tc.ackCode, response.ReturnCode)
			assert.Equal(t, tc.ackMsg, response.ReturnMessage)
		})
	}
}

func TestPaymentHandler_callback_malformedBodyStillHTTP200(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewPaymentHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest("POST", "/payments/callback", bytes.NewReader([]byte("{not json")))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.callback(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		ReturnCode int `json:"return_code"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, reservation.AckFailure, response.ReturnCode)
	mockService.AssertNotCalled(t, "HandleCallback")
}

func TestPaymentHandler_status(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewPaymentHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/payments/7/status", nil)
	c.Params = gin.Params{{Key: "id", Value: "7"}}

	mockService.On("QueryStatus", c.Request.Context(), int64(7)).
		Return(&domain.Payment{ID: 7, BookingID: 42, Status: domain.PaymentStatusSuccess}, nil)

	handler.status(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response paymentResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, string(domain.PaymentStatusSuccess), response.Status)
}

func TestPaymentHandler_get_invalidID(t *testing.T) {
	mockService := &MockReservationUseCase{}
	handler := NewPaymentHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/payments/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	handler.get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "GetPayment")
}
