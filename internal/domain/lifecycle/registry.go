// Package lifecycle holds the status registry, the transition table and the
// pure pricing and expiry rules shared by quotes and bookings.
package lifecycle

import (
	"fmt"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// Style is a semantic presentation token
type Style string

const (
	StyleWarning Style = "warning"
	StyleInfo    Style = "info"
	StyleSuccess Style = "success"
	StyleDanger  Style = "danger"
	StyleMuted   Style = "muted"
)

// Locale selects the label language
type Locale string

const (
	LocaleEnglish Locale = "en"
	LocaleSpanish Locale = "es"
)

// ParseLocale falls back to English for anything unsupported
func ParseLocale(value string) Locale {
	if Locale(value) == LocaleSpanish {
		return LocaleSpanish
	}
	return LocaleEnglish
}

// Display is the presentation metadata of a status
type Display struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Style  Style  `json:"style"`
}

// BookingDisplay adds completion progress in [0,100]
type BookingDisplay struct {
	Display
	Progress int `json:"progress"`
}

type quoteEntry struct {
	labels map[Locale]string
	style  Style
}

type bookingEntry struct {
	labels   map[Locale]string
	style    Style
	progress int
}

var quoteRegistry = map[entities.QuoteStatus]quoteEntry{
	entities.QuoteStatusPending:  {labels: map[Locale]string{LocaleEnglish: "Pending", LocaleSpanish: "Pendiente"}, style: StyleWarning},
	entities.QuoteStatusSent:     {labels: map[Locale]string{LocaleEnglish: "Received", LocaleSpanish: "Recibida"}, style: StyleInfo},
	entities.QuoteStatusAccepted: {labels: map[Locale]string{LocaleEnglish: "Accepted", LocaleSpanish: "Aceptada"}, style: StyleSuccess},
	entities.QuoteStatusRejected: {labels: map[Locale]string{LocaleEnglish: "Rejected", LocaleSpanish: "Rechazada"}, style: StyleDanger},
	entities.QuoteStatusExpired:  {labels: map[Locale]string{LocaleEnglish: "Expired", LocaleSpanish: "Expirada"}, style: StyleMuted},
}

var bookingRegistry = map[entities.BookingStatus]bookingEntry{
	entities.BookingStatusPending:    {labels: map[Locale]string{LocaleEnglish: "Pending", LocaleSpanish: "Pendiente"}, style: StyleWarning, progress: 25},
	entities.BookingStatusConfirmed:  {labels: map[Locale]string{LocaleEnglish: "Confirmed", LocaleSpanish: "Confirmada"}, style: StyleInfo, progress: 50},
	entities.BookingStatusInProgress: {labels: map[Locale]string{LocaleEnglish: "In progress", LocaleSpanish: "En Progreso"}, style: StyleSuccess, progress: 75},
	entities.BookingStatusCompleted:  {labels: map[Locale]string{LocaleEnglish: "Completed", LocaleSpanish: "Completada"}, style: StyleSuccess, progress: 100},
	entities.BookingStatusCancelled:  {labels: map[Locale]string{LocaleEnglish: "Cancelled", LocaleSpanish: "Cancelada"}, style: StyleDanger, progress: 0},
}

// QuoteStatusDisplay returns the label and style of a quote status
func QuoteStatusDisplay(status string, locale Locale) (Display, error) {
	entry, ok := quoteRegistry[entities.QuoteStatus(status)]
	if !ok {
		return Display{}, apperrors.NewUnknownStatusError(fmt.Sprintf("unknown quote status %q", status))
	}
	return Display{Status: status, Label: entry.label(locale), Style: entry.style}, nil
}

// BookingStatusDisplay returns the label, style and progress of a booking status
func BookingStatusDisplay(status string, locale Locale) (BookingDisplay, error) {
	entry, ok := bookingRegistry[entities.BookingStatus(status)]
	if !ok {
		return BookingDisplay{}, apperrors.NewUnknownStatusError(fmt.Sprintf("unknown booking status %q", status))
	}
	return BookingDisplay{
		Display:  Display{Status: status, Label: entry.label(locale), Style: entry.style},
		Progress: entry.progress,
	}, nil
}

func (e quoteEntry) label(locale Locale) string {
	if l, ok := e.labels[locale]; ok {
		return l
	}
	return e.labels[LocaleEnglish]
}

func (e bookingEntry) label(locale Locale) string {
	if l, ok := e.labels[locale]; ok {
		return l
	}
	return e.labels[LocaleEnglish]
}
