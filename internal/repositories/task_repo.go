package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bhagyashreemodi/emergency-connect/internal/models"
)

type PostgresTaskRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresTaskRepository(pool *pgxpool.Pool) *PostgresTaskRepository {
	return &PostgresTaskRepository{pool: pool}
}

func (r *PostgresTaskRepository) Create(ctx context.Context, task *models.Task) error {
	query := `INSERT INTO tasks (title, help_message, full_address, city, state,
	                             zip_code, skill, status, assignee, declined_by)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		task.Title,
		task.HelpMessage,
		task.FullAddress,
		task.City,
		task.State,
		task.ZipCode,
		task.Skill,
		task.Status,
		task.Assignee,
		task.DeclinedBy,
	).Scan(&task.ID, &task.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *PostgresTaskRepository) GetByTitle(ctx context.Context, title string) (*models.Task, error) {
	query := `SELECT id, title, help_message, full_address, city, state,
	                 zip_code, skill, status, assignee, declined_by, created_at
	          FROM tasks
	          WHERE title = $1`

	var task models.Task
	err := r.pool.QueryRow(ctx, query, title).Scan(
		&task.ID,
		&task.Title,
		&task.HelpMessage,
		&task.FullAddress,
		&task.City,
		&task.State,
		&task.ZipCode,
		&task.Skill,
		&task.Status,
		&task.Assignee,
		&task.DeclinedBy,
		&task.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

func (r *PostgresTaskRepository) ListOpenForAssignee(ctx context.Context, username string) ([]*models.Task, error) {
	query := `SELECT id, title, help_message, full_address, city, state,
	                 zip_code, skill, status, assignee, declined_by, created_at
	          FROM tasks
	          WHERE status = $1
	            AND (assignee = '' OR assignee = $2)
	            AND NOT ($2 = ANY(declined_by))
	          ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, models.TaskStatusOpen, models.NormalizeUsername(username))
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		var task models.Task
		err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.HelpMessage,
			&task.FullAddress,
			&task.City,
			&task.State,
			&task.ZipCode,
			&task.Skill,
			&task.Status,
			&task.Assignee,
			&task.DeclinedBy,
			&task.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

func (r *PostgresTaskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `UPDATE tasks
	          SET status = $1, assignee = $2, declined_by = $3
	          WHERE id = $4`

	result, err := r.pool.Exec(ctx, query, task.Status, task.Assignee, task.DeclinedBy, task.ID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
