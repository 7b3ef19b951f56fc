package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mediconsult/mediconsult-api/internal/model"
)

func (r *messageRepository) Upsert(ctx context.Context, message *model.Message) error {
	query := `
		INSERT INTO messages (id, consultation_id, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			consultation_id = EXCLUDED.consultation_id,
			author_id = EXCLUDED.author_id,
			body = EXCLUDED.body
	`
	_, err := r.db.ExecContext(ctx, query,
		message.ID,
		message.ConsultationID,
		message.AuthorID,
		message.Body,
		message.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert message: %w", err)
	}
	return nil
}

func (r *messageRepository) ListByConsultations(ctx context.Context, consultationIDs []uuid.UUID) ([]*model.Message, error) {
	if len(consultationIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, consultation_id, author_id, body, created_at
		FROM messages
		WHERE consultation_id IN (?)
		ORDER BY created_at ASC
	`
	query, args, err := sqlx.In(query, consultationIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build messages query: %w", err)
	}
	query = r.db.Rebind(query)

	var messages []*model.Message
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}
