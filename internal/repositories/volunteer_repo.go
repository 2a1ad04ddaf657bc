package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bhagyashreemodi/emergency-connect/internal/models"
)

type PostgresVolunteerRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresVolunteerRepository(pool *pgxpool.Pool) *PostgresVolunteerRepository {
	return &PostgresVolunteerRepository{pool: pool}
}

func (r *PostgresVolunteerRepository) Upsert(ctx context.Context, volunteer *models.Volunteer) error {
	query := `INSERT INTO volunteer_profiles
	              (username, first_name, last_name, city, state, zip_code,
	               skills, phone_number, availability, consent)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          ON CONFLICT (username) DO UPDATE SET
	              first_name = EXCLUDED.first_name,
	              last_name = EXCLUDED.last_name,
	              city = EXCLUDED.city,
	              state = EXCLUDED.state,
	              zip_code = EXCLUDED.zip_code,
	              skills = EXCLUDED.skills,
	              phone_number = EXCLUDED.phone_number,
	              availability = EXCLUDED.availability,
	              consent = EXCLUDED.consent,
	              updated_at = NOW()
	          RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		models.NormalizeUsername(volunteer.Username),
		volunteer.FirstName,
		volunteer.LastName,
		volunteer.City,
		volunteer.State,
		volunteer.ZipCode,
		volunteer.Skills,
		volunteer.PhoneNumber,
		volunteer.Availability,
		volunteer.Consent,
	).Scan(&volunteer.CreatedAt, &volunteer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert volunteer profile: %w", err)
	}
	return nil
}

func (r *PostgresVolunteerRepository) GetByUsername(ctx context.Context, username string) (*models.Volunteer, error) {
	query := `SELECT username, first_name, last_name, city, state, zip_code,
	                 skills, phone_number, availability, consent, created_at, updated_at
	          FROM volunteer_profiles
	          WHERE username = $1`

	var volunteer models.Volunteer
	err := r.pool.QueryRow(ctx, query, models.NormalizeUsername(username)).Scan(
		&volunteer.Username,
		&volunteer.FirstName,
		&volunteer.LastName,
		&volunteer.City,
		&volunteer.State,
		&volunteer.ZipCode,
		&volunteer.Skills,
		&volunteer.PhoneNumber,
		&volunteer.Availability,
		&volunteer.Consent,
		&volunteer.CreatedAt,
		&volunteer.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get volunteer profile: %w", err)
	}
	return &volunteer, nil
}

func (r *PostgresVolunteerRepository) Delete(ctx context.Context, username string) error {
	query := `DELETE FROM volunteer_profiles WHERE username = $1`

	result, err := r.pool.Exec(ctx, query, models.NormalizeUsername(username))
	if err != nil {
		return fmt.Errorf("failed to delete volunteer profile: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindEligible matches volunteers on locality (zip code, or city+state),
// today's availability, and the required skill. Locality and availability
// comparisons are case-insensitive; the skill match is exact.
func (r *PostgresVolunteerRepository) FindEligible(ctx context.Context, zipCode, city, state, weekday, skill string) ([]*models.Volunteer, error) {
	query := `SELECT username, first_name, last_name, city, state, zip_code,
	                 skills, phone_number, availability, consent, created_at, updated_at
	          FROM volunteer_profiles
	          WHERE (LOWER(zip_code) = LOWER($1)
	                 OR (LOWER(city) = LOWER($2) AND LOWER(state) = LOWER($3)))
	            AND EXISTS (SELECT 1 FROM unnest(availability) AS day
	                        WHERE LOWER(day) = LOWER($4))
	            AND $5 = ANY(skills)`

	rows, err := r.pool.Query(ctx, query, zipCode, city, state, weekday, skill)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible volunteers: %w", err)
	}
	defer rows.Close()

	var volunteers []*models.Volunteer
	for rows.Next() {
		var volunteer models.Volunteer
		err := rows.Scan(
			&volunteer.Username,
			&volunteer.FirstName,
			&volunteer.LastName,
			&volunteer.City,
			&volunteer.State,
			&volunteer.ZipCode,
			&volunteer.Skills,
			&volunteer.PhoneNumber,
			&volunteer.Availability,
			&volunteer.Consent,
			&volunteer.CreatedAt,
			&volunteer.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		volunteers = append(volunteers, &volunteer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating volunteers: %w", err)
	}

	return volunteers, nil
}
