package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bhagyashreemodi/emergency-connect/internal/models"
)

var ErrNotFound = errors.New("not found")

type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (username, password_hash, status, privilege)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		models.NormalizeUsername(user.Username),
		user.PasswordHash,
		user.Status,
		user.Privilege,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT id, username, password_hash, status, is_online, is_sharing_status,
	                 privilege, is_active, created_at, updated_at
	          FROM users
	          WHERE username = $1`

	var user models.User
	err := r.pool.QueryRow(ctx, query, models.NormalizeUsername(username)).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Status,
		&user.IsOnline,
		&user.IsSharingStatus,
		&user.Privilege,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *PostgresUserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := `SELECT id, username, password_hash, status, is_online, is_sharing_status,
	                 privilege, is_active, created_at, updated_at
	          FROM users
	          WHERE is_active = TRUE
	          ORDER BY is_online DESC, username ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.Status,
			&user.IsOnline,
			&user.IsSharingStatus,
			&user.Privilege,
			&user.IsActive,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func (r *PostgresUserRepository) SetOnlineStatus(ctx context.Context, username string, online bool) error {
	query := `UPDATE users SET is_online = $1, updated_at = NOW() WHERE username = $2`

	result, err := r.pool.Exec(ctx, query, online, models.NormalizeUsername(username))
	if err != nil {
		return fmt.Errorf("failed to set online status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepository) SetStatus(ctx context.Context, username string, status string) error {
	query := `UPDATE users
	          SET status = $1, is_sharing_status = TRUE, updated_at = NOW()
	          WHERE username = $2`

	result, err := r.pool.Exec(ctx, query, status, models.NormalizeUsername(username))
	if err != nil {
		return fmt.Errorf("failed to set status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
