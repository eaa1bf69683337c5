package lifecycle_test

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/lifecycle"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestQuoteStatusDisplay(t *testing.T) {
	for _, s := range entities.QuoteStatuses {
		d, err := lifecycle.QuoteStatusDisplay(string(s), lifecycle.LocaleEnglish)
		require.NoError(t, err)
		assert.NotEmpty(t, d.Label)
		assert.NotEmpty(t, d.Style)
	}

	d, err := lifecycle.QuoteStatusDisplay("sent", lifecycle.LocaleSpanish)
	require.NoError(t, err)
	assert.Equal(t, "Recibida", d.Label)
	assert.Equal(t, lifecycle.StyleInfo, d.Style)

	d, err = lifecycle.QuoteStatusDisplay("expired", lifecycle.Locale("fr"))
	require.NoError(t, err)
	assert.Equal(t, "Expired", d.Label)
}

func TestQuoteStatusDisplay_UnknownStatus(t *testing.T) {
	faker := gofakeit.New(42)
	inputs := []string{"", "confirmed", "in_progress", "completed", "cancelled", "Pending", " sent"}
	for i := 0; i < 100; i++ {
		inputs = append(inputs, faker.Word()+"_"+faker.LetterN(4))
	}

	for _, value := range inputs {
		_, err := lifecycle.QuoteStatusDisplay(value, lifecycle.LocaleEnglish)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnknownStatus), "status %q", value)
	}
}

func TestBookingStatusDisplay(t *testing.T) {
	expected := map[entities.BookingStatus]int{
		entities.BookingStatusPending:    25,
		entities.BookingStatusConfirmed:  50,
		entities.BookingStatusInProgress: 75,
		entities.BookingStatusCompleted:  100,
		entities.BookingStatusCancelled:  0,
	}

	for status, progress := range expected {
		d, err := lifecycle.BookingStatusDisplay(string(status), lifecycle.LocaleEnglish)
		require.NoError(t, err)
		assert.Equal(t, progress, d.Progress, status)
		assert.GreaterOrEqual(t, d.Progress, 0)
		assert.LessOrEqual(t, d.Progress, 100)
	}

	_, err := lifecycle.BookingStatusDisplay("sent", lifecycle.LocaleEnglish)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnknownStatus))
}

type quoteCase struct {
	from   entities.QuoteStatus
	action lifecycle.Action
}

type bookingCase struct {
	from   entities.BookingStatus
	action lifecycle.Action
}

func TestNextQuoteStatus_Table(t *testing.T) {
	past := now.Add(-time.Hour)
	future := now.Add(72 * time.Hour)

	legal := map[quoteCase]struct {
		to  entities.QuoteStatus
		ctx lifecycle.Context
	}{
		{entities.QuoteStatusPending, lifecycle.ActionSend}: {entities.QuoteStatusSent, lifecycle.Context{Now: now}},
		{entities.QuoteStatusSent, lifecycle.ActionAccept}:  {entities.QuoteStatusAccepted, lifecycle.Context{Now: now, ValidUntil: &future}},
		{entities.QuoteStatusSent, lifecycle.ActionReject}:  {entities.QuoteStatusRejected, lifecycle.Context{Now: now}},
		{entities.QuoteStatusSent, lifecycle.ActionExpire}:  {entities.QuoteStatusExpired, lifecycle.Context{Now: now, ValidUntil: &past}},
	}

	allActions := append(append([]lifecycle.Action{}, lifecycle.QuoteActions...), lifecycle.BookingActions...)

	for _, from := range entities.QuoteStatuses {
		for _, action := range allActions {
			c := quoteCase{from, action}
			if want, ok := legal[c]; ok {
				got, err := lifecycle.NextQuoteStatus(from, action, want.ctx)
				require.NoError(t, err, "%s/%s", from, action)
				assert.Equal(t, want.to, got)
				continue
			}

			for _, ctx := range []lifecycle.Context{{Now: now}, {Now: now, ValidUntil: &past}, {Now: now, ValidUntil: &future}} {
				got, err := lifecycle.NextQuoteStatus(from, action, ctx)
				assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition), "%s/%s", from, action)
				assert.Equal(t, from, got, "status must be unchanged")
			}
		}
	}
}

func TestNextQuoteStatus_Guards(t *testing.T) {
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	t.Run("accept after deadline fails", func(t *testing.T) {
		got, err := lifecycle.NextQuoteStatus(entities.QuoteStatusSent, lifecycle.ActionAccept, lifecycle.Context{Now: now, ValidUntil: &past})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
		assert.Equal(t, entities.QuoteStatusSent, got)
	})

	t.Run("accept without deadline succeeds", func(t *testing.T) {
		got, err := lifecycle.NextQuoteStatus(entities.QuoteStatusSent, lifecycle.ActionAccept, lifecycle.Context{Now: now})
		require.NoError(t, err)
		assert.Equal(t, entities.QuoteStatusAccepted, got)
	})

	t.Run("expire before deadline fails", func(t *testing.T) {
		_, err := lifecycle.NextQuoteStatus(entities.QuoteStatusSent, lifecycle.ActionExpire, lifecycle.Context{Now: now, ValidUntil: &future})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
	})

	t.Run("expire without deadline fails", func(t *testing.T) {
		_, err := lifecycle.NextQuoteStatus(entities.QuoteStatusSent, lifecycle.ActionExpire, lifecycle.Context{Now: now})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
	})

	t.Run("unknown current status", func(t *testing.T) {
		got, err := lifecycle.NextQuoteStatus(entities.QuoteStatus("archived"), lifecycle.ActionSend, lifecycle.Context{Now: now})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnknownStatus))
		assert.Equal(t, entities.QuoteStatus("archived"), got)
	})
}

func TestNextBookingStatus_Table(t *testing.T) {
	upcoming := lifecycle.Context{Now: now, ScheduledAt: now.Add(24 * time.Hour)}
	elapsed := lifecycle.Context{Now: now, ScheduledAt: now.Add(-24 * time.Hour)}

	legal := map[bookingCase]entities.BookingStatus{
		{entities.BookingStatusPending, lifecycle.ActionConfirm}:     entities.BookingStatusConfirmed,
		{entities.BookingStatusConfirmed, lifecycle.ActionCancel}:    entities.BookingStatusCancelled,
		{entities.BookingStatusConfirmed, lifecycle.ActionStart}:     entities.BookingStatusInProgress,
		{entities.BookingStatusInProgress, lifecycle.ActionComplete}: entities.BookingStatusCompleted,
		{entities.BookingStatusCompleted, lifecycle.ActionRate}:      entities.BookingStatusCompleted,
	}

	allActions := append(append([]lifecycle.Action{}, lifecycle.QuoteActions...), lifecycle.BookingActions...)

	for _, from := range entities.BookingStatuses {
		for _, action := range allActions {
			if want, ok := legal[bookingCase{from, action}]; ok {
				got, err := lifecycle.NextBookingStatus(from, action, upcoming)
				require.NoError(t, err, "%s/%s", from, action)
				assert.Equal(t, want, got)
				continue
			}

			for _, ctx := range []lifecycle.Context{upcoming, elapsed} {
				got, err := lifecycle.NextBookingStatus(from, action, ctx)
				assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition), "%s/%s", from, action)
				assert.Equal(t, from, got, "status must be unchanged")
			}
		}
	}
}

func TestNextBookingStatus_CancelGuard(t *testing.T) {
	t.Run("cannot cancel once the scheduled time has passed", func(t *testing.T) {
		got, err := lifecycle.NextBookingStatus(entities.BookingStatusConfirmed, lifecycle.ActionCancel, lifecycle.Context{Now: now, ScheduledAt: now})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
		assert.Equal(t, entities.BookingStatusConfirmed, got)
	})

	t.Run("cannot cancel a completed booking", func(t *testing.T) {
		got, err := lifecycle.NextBookingStatus(entities.BookingStatusCompleted, lifecycle.ActionCancel, lifecycle.Context{Now: now, ScheduledAt: now.Add(time.Hour)})
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
		assert.Equal(t, entities.BookingStatusCompleted, got)
	})
}

func TestAllowedActions(t *testing.T) {
	upcoming := lifecycle.Context{Now: now, ScheduledAt: now.Add(time.Hour)}

	assert.Equal(t, []lifecycle.Action{lifecycle.ActionCancel, lifecycle.ActionStart}, lifecycle.AllowedBookingActions(entities.BookingStatusConfirmed, upcoming))
	assert.Equal(t, []lifecycle.Action{lifecycle.ActionRate}, lifecycle.AllowedBookingActions(entities.BookingStatusCompleted, upcoming))
	assert.Empty(t, lifecycle.AllowedBookingActions(entities.BookingStatusCancelled, upcoming))

	assert.Equal(t, []lifecycle.Action{lifecycle.ActionAccept, lifecycle.ActionReject}, lifecycle.AllowedQuoteActions(entities.QuoteStatusSent, lifecycle.Context{Now: now}))
}

func TestTotalAmount(t *testing.T) {
	faker := gofakeit.New(3)

	for _, hours := range lifecycle.AllowedDurations {
		for i := 0; i < 25; i++ {
			price := int64(faker.IntRange(1, 100000))
			total, err := lifecycle.TotalAmount(price, hours)
			require.NoError(t, err)
			assert.Equal(t, price*int64(hours), total)
		}
	}

	total, err := lifecycle.TotalAmount(45, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(135), total)
}

func TestTotalAmount_InvalidDuration(t *testing.T) {
	for _, hours := range []int{-1, 0, 5, 7, 9, 24} {
		_, err := lifecycle.TotalAmount(45, hours)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidDuration), "hours %d", hours)
	}

	_, err := lifecycle.TotalAmount(0, 2)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestClassifyExpiry(t *testing.T) {
	oneDay := now.Add(24 * time.Hour)
	yesterday := now.Add(-24 * time.Hour)
	nextWeek := now.Add(7 * 24 * time.Hour)
	edge := now.Add(lifecycle.ExpiringSoonWindow)

	assert.Equal(t, lifecycle.ExpiryExpiringSoon, lifecycle.ClassifyExpiry(&oneDay, now))
	assert.Equal(t, lifecycle.ExpiryExpired, lifecycle.ClassifyExpiry(&yesterday, now))
	assert.Equal(t, lifecycle.ExpiryExpired, lifecycle.ClassifyExpiry(&now, now))
	assert.Equal(t, lifecycle.ExpiryValid, lifecycle.ClassifyExpiry(&nextWeek, now))
	assert.Equal(t, lifecycle.ExpiryExpiringSoon, lifecycle.ClassifyExpiry(&edge, now))
	assert.Equal(t, lifecycle.ExpiryNone, lifecycle.ClassifyExpiry(nil, now))
}

func TestParseAction(t *testing.T) {
	a, err := lifecycle.ParseAction("cancel")
	require.NoError(t, err)
	assert.Equal(t, lifecycle.ActionCancel, a)

	_, err = lifecycle.ParseAction("refund")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
