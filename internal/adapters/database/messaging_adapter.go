package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// ConversationAdapter implements the ConversationRepository interface
type ConversationAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewConversationAdapter creates a new conversation adapter
func NewConversationAdapter(client *postgres.Client) repositories.ConversationRepository {
	return &ConversationAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create stores a new conversation
func (a *ConversationAdapter) Create(ctx context.Context, conversation *entities.Conversation) error {
	query, _, err := a.db.Insert("conversations").Rows(goqu.Record{
		"id":              conversation.ID,
		"participants":    pq.StringArray(conversation.Participants),
		"last_message_id": conversation.LastMessageID,
		"last_message_at": nullTime(conversation.LastMessageAt),
		"last_sequence":   conversation.LastSequence,
		"created_at":      conversation.CreatedAt,
		"updated_at":      conversation.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query); err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(fmt.Sprintf("conversation with id %s already exists", conversation.ID))
		}
		return apperrors.NewInternalError("failed to create conversation", err)
	}
	return nil
}

// GetByID retrieves a conversation by ID
func (a *ConversationAdapter) GetByID(ctx context.Context, id string) (*entities.Conversation, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("conversation with id %s not found", id))
}

// FindByParticipants retrieves the conversation between two participants
func (a *ConversationAdapter) FindByParticipants(ctx context.Context, x, y string) (*entities.Conversation, error) {
	return a.getOne(ctx,
		goqu.L("participants @> ?", pq.StringArray{x, y}),
		fmt.Sprintf("no conversation between %s and %s", x, y),
	)
}

func (a *ConversationAdapter) getOne(ctx context.Context, where exp.Expression, notFound string) (*entities.Conversation, error) {
	query, _, err := a.db.From("conversations").
		Select(conversationColumns...).
		Where(where).
		Order(goqu.I("created_at").Asc()).
		Limit(1).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var row conversationRow
	err = a.client.DBX().GetContext(ctx, &row, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(notFound)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get conversation", err)
	}
	return row.toEntity(), nil
}

// ListByParticipant retrieves a participant's conversations, most recent activity first
func (a *ConversationAdapter) ListByParticipant(ctx context.Context, participantID string) ([]*entities.Conversation, error) {
	query, _, err := a.db.From("conversations").
		Select(conversationColumns...).
		Where(goqu.L("? = ANY(participants)", participantID)).
		Order(goqu.L("COALESCE(last_message_at, created_at)").Desc(), goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	var rows []conversationRow
	if err := a.client.DBX().SelectContext(ctx, &rows, query); err != nil {
		return nil, apperrors.NewInternalError("failed to list conversations", err)
	}

	conversations := make([]*entities.Conversation, 0, len(rows))
	for i := range rows {
		conversations = append(conversations, rows[i].toEntity())
	}
	return conversations, nil
}

// MessageAdapter implements the MessageRepository interface
type MessageAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewMessageAdapter creates a new message adapter
func NewMessageAdapter(client *postgres.Client) repositories.MessageRepository {
	return &MessageAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Append stores message at the end of its conversation. The conversation row
// is locked for the duration of the transaction, so sequences stay dense and
// a retried message ID is detected even under concurrent sends.
func (a *MessageAdapter) Append(ctx context.Context, message *entities.Message) (*entities.Message, bool, error) {
	tx, err := a.client.BeginTxx(ctx)
	if err != nil {
		return nil, false, apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	lockQuery, _, err := a.db.From("conversations").
		Select("last_sequence").
		Where(goqu.Ex{"id": message.ConversationID}).
		ForUpdate(exp.Wait).
		ToSQL()
	if err != nil {
		return nil, false, apperrors.NewInternalError("failed to build lock query", err)
	}

	var lastSequence int64
	err = tx.GetContext(ctx, &lastSequence, lockQuery)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, apperrors.NewNotFoundError(fmt.Sprintf("conversation with id %s not found", message.ConversationID))
	}
	if err != nil {
		return nil, false, apperrors.NewInternalError("failed to lock conversation", err)
	}

	existingQuery, _, err := a.db.From("messages").Select(messageColumns...).Where(goqu.Ex{"id": message.ID}).ToSQL()
	if err != nil {
		return nil, false, apperrors.NewInternalError("failed to build query", err)
	}
	var existing messageRow
	err = tx.GetContext(ctx, &existing, existingQuery)
	if err == nil {
		stored, convErr := existing.toEntity()
		return stored, false, convErr
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, apperrors.NewInternalError("failed to look up message", err)
	}

	stored := *message
	stored.Sequence = lastSequence + 1

	record, err := messageRecord(&stored)
	if err != nil {
		return nil, false, err
	}
	insertQuery, _, err := a.db.Insert("messages").Rows(record).ToSQL()
	if err != nil {
		return nil, false, apperrors.NewInternalError("failed to build insert query", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery); err != nil {
		return nil, false, apperrors.NewInternalError("failed to create message", err)
	}

	updateQuery, _, err := a.db.Update("conversations").
		Set(goqu.Record{
			"last_sequence":   stored.Sequence,
			"last_message_id": stored.ID,
			"last_message_at": stored.CreatedAt,
			"updated_at":      stored.CreatedAt,
		}).
		Where(goqu.Ex{"id": stored.ConversationID}).
		ToSQL()
	if err != nil {
		return nil, false, apperrors.NewInternalError("failed to build update query", err)
	}
	if _, err := tx.ExecContext(ctx, updateQuery); err != nil {
		return nil, false, apperrors.NewInternalError("failed to update conversation", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, apperrors.NewInternalError("failed to commit transaction", err)
	}
	return &stored, true, nil
}

// GetByID retrieves a message by ID
func (a *MessageAdapter) GetByID(ctx context.Context, id string) (*entities.Message, error) {
	query, _, err := a.db.From("messages").Select(messageColumns...).Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var row messageRow
	err = a.client.DBX().GetContext(ctx, &row, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("message with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get message", err)
	}
	return row.toEntity()
}

// ListByConversation returns messages with a sequence greater than after, in order
func (a *MessageAdapter) ListByConversation(ctx context.Context, conversationID string, after int64, limit int) ([]*entities.Message, error) {
	ds := a.db.From("messages").
		Select(messageColumns...).
		Where(goqu.Ex{"conversation_id": conversationID}, goqu.C("sequence").Gt(after)).
		Order(goqu.I("sequence").Asc())
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}

	query, _, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	var rows []messageRow
	if err := a.client.DBX().SelectContext(ctx, &rows, query); err != nil {
		return nil, apperrors.NewInternalError("failed to list messages", err)
	}

	messages := make([]*entities.Message, 0, len(rows))
	for i := range rows {
		m, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// MarkRead sets read_at on unread messages addressed to readerID
func (a *MessageAdapter) MarkRead(ctx context.Context, conversationID, readerID string, at time.Time) (int, error) {
	query, _, err := a.db.Update("messages").
		Set(goqu.Record{"read_at": at}).
		Where(
			goqu.Ex{"conversation_id": conversationID, "receiver_id": readerID},
			goqu.C("read_at").IsNull(),
		).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to mark messages read", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to get rows affected", err)
	}
	return int(rowsAffected), nil
}
