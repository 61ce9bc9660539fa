package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tuannda91/courtbook/internal/domain"
)

// MockAvailabilityUseCase is a mock implementation of availability.AvailabilityUseCase
type MockAvailabilityUseCase struct {
	mock.Mock
}

func (m *MockAvailabilityUseCase) DayGrid(ctx context.Context, subCourtID int64, date string) ([]domain.Slot, error) {
	args := m.Called(ctx, subCourtID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Slot), args.Error(1)
}

func TestAvailabilityHandler_grid(t *testing.T) {
	mockService := &MockAvailabilityUseCase{}
	handler := NewAvailabilityHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/courts/3/availability?date=2025-03-03", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	mockService.On("DayGrid", c.Request.Context(), int64(3), "2025-03-03").Return([]domain.Slot{
		{StartTime: "06:00", EndTime: "06:30", Price: 35000, Available: true},
		{StartTime: "06:30", EndTime: "07:00", Price: 35000, Available: false},
	}, nil)

	handler.grid(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		SubCourtID int64         `json:"sub_court_id"`
		Date       string        `json:"date"`
		Slots      []domain.Slot `json:"slots"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, int64(3), response.SubCourtID)
	assert.Len(t, response.Slots, 2)
	assert.False(t, response.Slots[1].Available)

	mockService.AssertExpectations(t)
}

func TestAvailabilityHandler_grid_badDate(t *testing.T) {
	mockService := &MockAvailabilityUseCase{}
	handler := NewAvailabilityHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/courts/3/availability?date=03-03-2025", nil)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	handler.grid(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "DayGrid")
}
