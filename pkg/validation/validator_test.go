package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

type slotRequest struct {
	Date    string `json:"date" validate:"notblank,date"`
	Time    string `json:"time" validate:"notblank,clock"`
	Address string `json:"address" validate:"notblank"`
	Phone   string `json:"contact_phone" validate:"omitempty,phone"`
}

func TestValidator_Struct(t *testing.T) {
	v := New()

	t.Run("accepts a well formed request", func(t *testing.T) {
		err := v.Struct("invalid request", slotRequest{Date: "2026-03-10", Time: "09:00", Address: "123 Main St", Phone: "+52 55 1234 5678"})
		assert.NoError(t, err)
	})

	t.Run("reports every failing field by json name", func(t *testing.T) {
		err := v.Struct("invalid request", slotRequest{Date: "10/03/2026", Time: "9am", Address: "   ", Phone: "call me"})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

		appErr := err.(*apperrors.AppError)
		assert.Equal(t, "date", appErr.Fields["date"])
		assert.Equal(t, "clock", appErr.Fields["time"])
		assert.Equal(t, "notblank", appErr.Fields["address"])
		assert.Equal(t, "phone", appErr.Fields["contact_phone"])
	})

	t.Run("blank date fails notblank first", func(t *testing.T) {
		err := v.Struct("invalid request", slotRequest{Time: "09:00", Address: "x"})
		require.Error(t, err)
		assert.Equal(t, "notblank", err.(*apperrors.AppError).Fields["date"])
	})
}

func TestParseSlot(t *testing.T) {
	loc := time.FixedZone("UTC-6", -6*60*60)

	at, err := ParseSlot("2026-03-10", "14:00", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC), at.UTC())

	_, err = ParseSlot("2026-02-30", "14:00", loc)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
