package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bhagyashreemodi/emergency-connect/internal/models"
)

type PostgresMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresMessageRepository(pool *pgxpool.Pool) *PostgresMessageRepository {
	return &PostgresMessageRepository{pool: pool}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, message *models.Message) error {
	query := `INSERT INTO messages (sender, receiver, content, type, sender_status, is_read)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, timestamp`

	err := r.pool.QueryRow(ctx, query,
		message.Sender,
		message.Receiver,
		message.Content,
		message.Type,
		message.SenderStatus,
		message.IsRead,
	).Scan(&message.ID, &message.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *PostgresMessageRepository) ListPublic(ctx context.Context) ([]*models.Message, error) {
	query := `SELECT m.id, m.sender, m.receiver, m.content, m.type, m.sender_status, m.is_read, m.timestamp
	          FROM messages m
	          JOIN users u ON u.username = m.sender
	          WHERE m.type = $1 AND u.is_active = TRUE
	          ORDER BY m.timestamp ASC`

	return r.queryMessages(ctx, query, models.MessagePublic)
}

func (r *PostgresMessageRepository) ListPrivate(ctx context.Context, username1, username2 string) ([]*models.Message, error) {
	query := `SELECT id, sender, receiver, content, type, sender_status, is_read, timestamp
	          FROM messages
	          WHERE type = $1
	            AND ((sender = $2 AND receiver = $3) OR (sender = $3 AND receiver = $2))
	          ORDER BY timestamp ASC`

	return r.queryMessages(ctx, query, models.MessagePrivate,
		models.NormalizeUsername(username1), models.NormalizeUsername(username2))
}

func (r *PostgresMessageRepository) ListAnnouncements(ctx context.Context) ([]*models.Message, error) {
	query := `SELECT m.id, m.sender, m.receiver, m.content, m.type, m.sender_status, m.is_read, m.timestamp
	          FROM messages m
	          JOIN users u ON u.username = m.sender
	          WHERE m.type = $1 AND u.is_active = TRUE
	          ORDER BY m.timestamp ASC`

	return r.queryMessages(ctx, query, models.MessageAnnouncement)
}

func (r *PostgresMessageRepository) queryMessages(ctx context.Context, query string, args ...any) ([]*models.Message, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*models.Message
	for rows.Next() {
		var message models.Message
		err := rows.Scan(
			&message.ID,
			&message.Sender,
			&message.Receiver,
			&message.Content,
			&message.Type,
			&message.SenderStatus,
			&message.IsRead,
			&message.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}
