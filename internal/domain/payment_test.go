package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppTransID_FirstAttempt(t *testing.T) {
	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "250303_42", AppTransID(42, now, 1))
}

func TestAppTransID_RetriesGetDistinctKeys(t *testing.T) {
	now := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

	first := AppTransID(42, now, 1)
	second := AppTransID(42, now, 2)

	assert.Equal(t, "250303_42_2", second)
	assert.NotEqual(t, first, second)
}

func TestAppTransID_DayPrefixRollsOver(t *testing.T) {
	day1 := time.Date(2025, 3, 3, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 4, 0, 1, 0, 0, time.UTC)

	assert.NotEqual(t, AppTransID(42, day1, 1), AppTransID(42, day2, 1))
}

func TestPaymentStatus_Terminal(t *testing.T) {
	assert.False(t, PaymentStatusPending.Terminal())
	for _, s := range []PaymentStatus{PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusExpired, PaymentStatusCancelled} {
		assert.True(t, s.Terminal())
	}
}
