package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

var (
	quoteColumns = []interface{}{
		"id", "service_id", "user_id", "provider_id", "status", "description",
		"estimated_price", "estimated_duration", "valid_until", "notes",
		"preferred_date", "address", "contact_phone", "special_instructions",
		"booking_id", "version", "created_at", "updated_at",
	}
	bookingColumns = []interface{}{
		"id", "service_id", "user_id", "provider_id", "quote_id", "status",
		"scheduled_date", "scheduled_time", "scheduled_at", "duration_hours",
		"total_amount", "address", "contact_phone", "special_instructions",
		"version", "created_at", "updated_at",
	}
	reviewColumns = []interface{}{
		"id", "booking_id", "service_id", "provider_id", "user_id", "rating", "comment", "created_at",
	}
	conversationColumns = []interface{}{
		"id", "participants", "last_message_id", "last_message_at", "last_sequence", "created_at", "updated_at",
	}
	messageColumns = []interface{}{
		"id", "conversation_id", "sender_id", "receiver_id", "type", "content",
		"metadata", "read_at", "sequence", "created_at",
	}
	providerColumns = []interface{}{
		"id", "name", "avatar", "rating", "review_count", "verified", "description",
		"services_count", "location", "joined_date", "profile",
	}
)

type quoteRow struct {
	ID                  string        `db:"id"`
	ServiceID           string        `db:"service_id"`
	UserID              string        `db:"user_id"`
	ProviderID          string        `db:"provider_id"`
	Status              string        `db:"status"`
	Description         string        `db:"description"`
	EstimatedPrice      sql.NullInt64 `db:"estimated_price"`
	EstimatedDuration   string        `db:"estimated_duration"`
	ValidUntil          sql.NullTime  `db:"valid_until"`
	Notes               string        `db:"notes"`
	PreferredDate       string        `db:"preferred_date"`
	Address             string        `db:"address"`
	ContactPhone        string        `db:"contact_phone"`
	SpecialInstructions string        `db:"special_instructions"`
	BookingID           string        `db:"booking_id"`
	Version             int           `db:"version"`
	CreatedAt           time.Time     `db:"created_at"`
	UpdatedAt           time.Time     `db:"updated_at"`
}

func (r *quoteRow) toEntity() *entities.Quote {
	q := &entities.Quote{
		ID:                  r.ID,
		ServiceID:           r.ServiceID,
		UserID:              r.UserID,
		ProviderID:          r.ProviderID,
		Status:              entities.QuoteStatus(r.Status),
		Description:         r.Description,
		EstimatedDuration:   r.EstimatedDuration,
		Notes:               r.Notes,
		PreferredDate:       r.PreferredDate,
		Address:             r.Address,
		ContactPhone:        r.ContactPhone,
		SpecialInstructions: r.SpecialInstructions,
		BookingID:           r.BookingID,
		Version:             r.Version,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
	if r.EstimatedPrice.Valid {
		v := r.EstimatedPrice.Int64
		q.EstimatedPrice = &v
	}
	if r.ValidUntil.Valid {
		v := r.ValidUntil.Time
		q.ValidUntil = &v
	}
	return q
}

func quoteRecord(q *entities.Quote) goqu.Record {
	return goqu.Record{
		"id":                   q.ID,
		"service_id":           q.ServiceID,
		"user_id":              q.UserID,
		"provider_id":          q.ProviderID,
		"status":               string(q.Status),
		"description":          q.Description,
		"estimated_price":      nullInt64(q.EstimatedPrice),
		"estimated_duration":   q.EstimatedDuration,
		"valid_until":          nullTime(q.ValidUntil),
		"notes":                q.Notes,
		"preferred_date":       q.PreferredDate,
		"address":              q.Address,
		"contact_phone":        q.ContactPhone,
		"special_instructions": q.SpecialInstructions,
		"booking_id":           q.BookingID,
		"version":              q.Version,
		"created_at":           q.CreatedAt,
		"updated_at":           q.UpdatedAt,
	}
}

type bookingRow struct {
	ID                  string    `db:"id"`
	ServiceID           string    `db:"service_id"`
	UserID              string    `db:"user_id"`
	ProviderID          string    `db:"provider_id"`
	QuoteID             string    `db:"quote_id"`
	Status              string    `db:"status"`
	ScheduledDate       string    `db:"scheduled_date"`
	ScheduledTime       string    `db:"scheduled_time"`
	ScheduledAt         time.Time `db:"scheduled_at"`
	DurationHours       int       `db:"duration_hours"`
	TotalAmount         int64     `db:"total_amount"`
	Address             string    `db:"address"`
	ContactPhone        string    `db:"contact_phone"`
	SpecialInstructions string    `db:"special_instructions"`
	Version             int       `db:"version"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

func (r *bookingRow) toEntity() *entities.Booking {
	return &entities.Booking{
		ID:                  r.ID,
		ServiceID:           r.ServiceID,
		UserID:              r.UserID,
		ProviderID:          r.ProviderID,
		QuoteID:             r.QuoteID,
		Status:              entities.BookingStatus(r.Status),
		ScheduledDate:       r.ScheduledDate,
		ScheduledTime:       r.ScheduledTime,
		ScheduledAt:         r.ScheduledAt,
		DurationHours:       r.DurationHours,
		TotalAmount:         r.TotalAmount,
		Address:             r.Address,
		ContactPhone:        r.ContactPhone,
		SpecialInstructions: r.SpecialInstructions,
		Version:             r.Version,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func bookingRecord(b *entities.Booking) goqu.Record {
	return goqu.Record{
		"id":                   b.ID,
		"service_id":           b.ServiceID,
		"user_id":              b.UserID,
		"provider_id":          b.ProviderID,
		"quote_id":             b.QuoteID,
		"status":               string(b.Status),
		"scheduled_date":       b.ScheduledDate,
		"scheduled_time":       b.ScheduledTime,
		"scheduled_at":         b.ScheduledAt,
		"duration_hours":       b.DurationHours,
		"total_amount":         b.TotalAmount,
		"address":              b.Address,
		"contact_phone":        b.ContactPhone,
		"special_instructions": b.SpecialInstructions,
		"version":              b.Version,
		"created_at":           b.CreatedAt,
		"updated_at":           b.UpdatedAt,
	}
}

type conversationRow struct {
	ID            string         `db:"id"`
	Participants  pq.StringArray `db:"participants"`
	LastMessageID string         `db:"last_message_id"`
	LastMessageAt sql.NullTime   `db:"last_message_at"`
	LastSequence  int64          `db:"last_sequence"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r *conversationRow) toEntity() *entities.Conversation {
	c := &entities.Conversation{
		ID:            r.ID,
		Participants:  []string(r.Participants),
		LastMessageID: r.LastMessageID,
		LastSequence:  r.LastSequence,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.LastMessageAt.Valid {
		v := r.LastMessageAt.Time
		c.LastMessageAt = &v
	}
	return c
}

type messageRow struct {
	ID             string         `db:"id"`
	ConversationID string         `db:"conversation_id"`
	SenderID       string         `db:"sender_id"`
	ReceiverID     string         `db:"receiver_id"`
	Type           string         `db:"type"`
	Content        string         `db:"content"`
	Metadata       types.JSONText `db:"metadata"`
	ReadAt         sql.NullTime   `db:"read_at"`
	Sequence       int64          `db:"sequence"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (r *messageRow) toEntity() (*entities.Message, error) {
	m := &entities.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		ReceiverID:     r.ReceiverID,
		Type:           entities.MessageType(r.Type),
		Content:        r.Content,
		Sequence:       r.Sequence,
		CreatedAt:      r.CreatedAt,
	}
	if r.ReadAt.Valid {
		v := r.ReadAt.Time
		m.ReadAt = &v
	}
	if len(r.Metadata) > 0 && string(r.Metadata) != "{}" && string(r.Metadata) != "null" {
		if err := r.Metadata.Unmarshal(&m.Metadata); err != nil {
			return nil, apperrors.NewInternalError(fmt.Sprintf("failed to decode metadata of message %s", r.ID), err)
		}
	}
	return m, nil
}

func messageRecord(m *entities.Message) (goqu.Record, error) {
	var metadata interface{}
	if len(m.Metadata) > 0 {
		data, err := json.Marshal(m.Metadata)
		if err != nil {
			return nil, apperrors.NewValidationError("message metadata must be JSON serializable")
		}
		metadata = string(data)
	}
	return goqu.Record{
		"id":              m.ID,
		"conversation_id": m.ConversationID,
		"sender_id":       m.SenderID,
		"receiver_id":     m.ReceiverID,
		"type":            string(m.Type),
		"content":         m.Content,
		"metadata":        metadata,
		"read_at":         nullTime(m.ReadAt),
		"sequence":        m.Sequence,
		"created_at":      m.CreatedAt,
	}, nil
}

type providerRow struct {
	ID            string         `db:"id"`
	Name          string         `db:"name"`
	Avatar        string         `db:"avatar"`
	Rating        float64        `db:"rating"`
	ReviewCount   int            `db:"review_count"`
	Verified      bool           `db:"verified"`
	Description   string         `db:"description"`
	ServicesCount int            `db:"services_count"`
	Location      string         `db:"location"`
	JoinedDate    time.Time      `db:"joined_date"`
	Profile       types.JSONText `db:"profile"`
}

func (r *providerRow) toEntity() (*entities.DetailedProvider, error) {
	p := &entities.DetailedProvider{
		Provider: entities.Provider{
			ID:            r.ID,
			Name:          r.Name,
			Avatar:        r.Avatar,
			Rating:        r.Rating,
			ReviewCount:   r.ReviewCount,
			Verified:      r.Verified,
			Description:   r.Description,
			ServicesCount: r.ServicesCount,
			Location:      r.Location,
			JoinedDate:    r.JoinedDate,
		},
	}
	if len(r.Profile) > 0 {
		if err := r.Profile.Unmarshal(&p.ProviderProfile); err != nil {
			return nil, apperrors.NewInternalError(fmt.Sprintf("failed to decode profile of provider %s", r.ID), err)
		}
	}
	return p, nil
}

// serviceRow is a service joined with its provider summary
type serviceRow struct {
	ID                  string         `db:"id"`
	Title               string         `db:"title"`
	Description         string         `db:"description"`
	Category            string         `db:"category"`
	PricePerHour        int64          `db:"price_per_hour"`
	Rating              float64        `db:"rating"`
	ReviewCount         int            `db:"review_count"`
	ProviderID          string         `db:"provider_id"`
	Images              pq.StringArray `db:"images"`
	Availability        pq.StringArray `db:"availability"`
	Location            string         `db:"location"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
	ProviderName        string         `db:"provider_name"`
	ProviderAvatar      string         `db:"provider_avatar"`
	ProviderRating      float64        `db:"provider_rating"`
	ProviderReviewCount int            `db:"provider_review_count"`
	ProviderVerified    bool           `db:"provider_verified"`
	ProviderLocation    string         `db:"provider_location"`
}

func (r *serviceRow) toEntity() *entities.Service {
	return &entities.Service{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Category:     entities.Category(r.Category),
		PricePerHour: r.PricePerHour,
		Rating:       r.Rating,
		ReviewCount:  r.ReviewCount,
		ProviderID:   r.ProviderID,
		Images:       []string(r.Images),
		Availability: []string(r.Availability),
		Location:     r.Location,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		Provider: &entities.Provider{
			ID:          r.ProviderID,
			Name:        r.ProviderName,
			Avatar:      r.ProviderAvatar,
			Rating:      r.ProviderRating,
			ReviewCount: r.ProviderReviewCount,
			Verified:    r.ProviderVerified,
			Location:    r.ProviderLocation,
		},
	}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// resolveMiss tells a missing row from a stale version after a guarded update matched nothing
func resolveMiss(ctx context.Context, client *postgres.Client, db *goqu.Database, table, kind, id string) error {
	query, _, err := db.From(table).Select(goqu.COUNT("*")).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build count query", err)
	}
	var count int
	if err := client.DBX().GetContext(ctx, &count, query); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to look up %s", kind), err)
	}
	if count == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("%s with id %s not found", kind, id))
	}
	return apperrors.NewConflictError(fmt.Sprintf("%s %s was modified concurrently", kind, id))
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
