package lifecycle

import (
	"fmt"
	"time"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// Action is a user or system triggered lifecycle step
type Action string

const (
	ActionSend     Action = "send"
	ActionAccept   Action = "accept"
	ActionReject   Action = "reject"
	ActionExpire   Action = "expire"
	ActionConfirm  Action = "confirm"
	ActionCancel   Action = "cancel"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionRate     Action = "rate"
)

// QuoteActions and BookingActions list the actions each entity kind understands
var (
	QuoteActions   = []Action{ActionSend, ActionAccept, ActionReject, ActionExpire}
	BookingActions = []Action{ActionConfirm, ActionCancel, ActionStart, ActionComplete, ActionRate}
)

// Context carries the time inputs guards need
type Context struct {
	Now         time.Time
	ValidUntil  *time.Time
	ScheduledAt time.Time
}

type guard func(Context) error

type quoteKey struct {
	from   entities.QuoteStatus
	action Action
}

type quoteRule struct {
	to    entities.QuoteStatus
	guard guard
}

type bookingKey struct {
	from   entities.BookingStatus
	action Action
}

type bookingRule struct {
	to    entities.BookingStatus
	guard guard
}

var quoteTransitions = map[quoteKey]quoteRule{
	{entities.QuoteStatusPending, ActionSend}:  {to: entities.QuoteStatusSent},
	{entities.QuoteStatusSent, ActionAccept}:   {to: entities.QuoteStatusAccepted, guard: notPastValidity},
	{entities.QuoteStatusSent, ActionReject}:   {to: entities.QuoteStatusRejected},
	{entities.QuoteStatusSent, ActionExpire}:   {to: entities.QuoteStatusExpired, guard: pastValidity},
}

// Rating leaves the status unchanged, so its rule maps completed to itself.
var bookingTransitions = map[bookingKey]bookingRule{
	{entities.BookingStatusPending, ActionConfirm}:     {to: entities.BookingStatusConfirmed},
	{entities.BookingStatusConfirmed, ActionCancel}:    {to: entities.BookingStatusCancelled, guard: beforeSchedule},
	{entities.BookingStatusConfirmed, ActionStart}:     {to: entities.BookingStatusInProgress},
	{entities.BookingStatusInProgress, ActionComplete}: {to: entities.BookingStatusCompleted},
	{entities.BookingStatusCompleted, ActionRate}:      {to: entities.BookingStatusCompleted},
}

func notPastValidity(c Context) error {
	if c.ValidUntil != nil && !c.Now.Before(*c.ValidUntil) {
		return apperrors.NewInvalidTransitionError("quote is past its validity deadline")
	}
	return nil
}

func pastValidity(c Context) error {
	if c.ValidUntil == nil || c.Now.Before(*c.ValidUntil) {
		return apperrors.NewInvalidTransitionError("quote is still within its validity deadline")
	}
	return nil
}

func beforeSchedule(c Context) error {
	if !c.ScheduledAt.After(c.Now) {
		return apperrors.NewInvalidTransitionError("booking can only be cancelled before its scheduled time")
	}
	return nil
}

// ParseAction rejects unknown action names
func ParseAction(value string) (Action, error) {
	for _, a := range append(append([]Action{}, QuoteActions...), BookingActions...) {
		if string(a) == value {
			return a, nil
		}
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("unknown action %q", value))
}

// NextQuoteStatus returns the status a quote moves to under action.
// On failure the returned status is current.
func NextQuoteStatus(current entities.QuoteStatus, action Action, c Context) (entities.QuoteStatus, error) {
	if !current.Valid() {
		return current, apperrors.NewUnknownStatusError(fmt.Sprintf("unknown quote status %q", current))
	}
	rule, ok := quoteTransitions[quoteKey{current, action}]
	if !ok {
		return current, apperrors.NewInvalidTransitionError(fmt.Sprintf("cannot %s a %s quote", action, current))
	}
	if rule.guard != nil {
		if err := rule.guard(c); err != nil {
			return current, err
		}
	}
	return rule.to, nil
}

// NextBookingStatus returns the status a booking moves to under action.
// On failure the returned status is current.
func NextBookingStatus(current entities.BookingStatus, action Action, c Context) (entities.BookingStatus, error) {
	if !current.Valid() {
		return current, apperrors.NewUnknownStatusError(fmt.Sprintf("unknown booking status %q", current))
	}
	rule, ok := bookingTransitions[bookingKey{current, action}]
	if !ok {
		return current, apperrors.NewInvalidTransitionError(fmt.Sprintf("cannot %s a %s booking", action, current))
	}
	if rule.guard != nil {
		if err := rule.guard(c); err != nil {
			return current, err
		}
	}
	return rule.to, nil
}

// AllowedQuoteActions lists the actions that would succeed right now
func AllowedQuoteActions(current entities.QuoteStatus, c Context) []Action {
	allowed := []Action{}
	for _, a := range QuoteActions {
		if _, err := NextQuoteStatus(current, a, c); err == nil {
			allowed = append(allowed, a)
		}
	}
	return allowed
}

// AllowedBookingActions lists the actions that would succeed right now
func AllowedBookingActions(current entities.BookingStatus, c Context) []Action {
	allowed := []Action{}
	for _, a := range BookingActions {
		if _, err := NextBookingStatus(current, a, c); err == nil {
			allowed = append(allowed, a)
		}
	}
	return allowed
}
