package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/volunteer-events/internal/domain"
)

// JobRepository persists the job slots of an event.
type JobRepository interface {
	Create(ctx context.Context, job *domain.Job) error
	Update(ctx context.Context, job *domain.Job) error
	GetForUpdate(ctx context.Context, eventID, jobID string) (*domain.Job, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.Job, error)
}

type jobRepository struct {
	db conn
}

// NewJobRepository instantiates repository.
func NewJobRepository(pool *pgxpool.Pool) JobRepository {
	return &jobRepository{db: conn{pool: pool}}
}

func (r *jobRepository) Create(ctx context.Context, job *domain.Job) error {
	const query = `
        INSERT INTO jobs (id, event_id, title, description, max_volunteers)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at, updated_at`
	err := r.db.queryRow(ctx, query,
		job.ID,
		job.EventID,
		job.Title,
		job.Description,
		job.MaxVolunteers,
	).Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}
	return nil
}

func (r *jobRepository) Update(ctx context.Context, job *domain.Job) error {
	const query = `
        UPDATE jobs SET title=$1, description=$2, max_volunteers=$3, updated_at=NOW()
        WHERE id=$4 AND event_id=$5
        RETURNING updated_at`
	err := r.db.queryRow(ctx, query,
		job.Title,
		job.Description,
		job.MaxVolunteers,
		job.ID,
		job.EventID,
	).Scan(&job.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrJobNotFound
		}
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

func (r *jobRepository) GetForUpdate(ctx context.Context, eventID, jobID string) (*domain.Job, error) {
	const query = `
        SELECT id, event_id, title, description, max_volunteers, created_at, updated_at
        FROM jobs WHERE id=$1 AND event_id=$2 FOR UPDATE`
	var job domain.Job
	if err := scanJob(r.db.queryRow(ctx, query, jobID, eventID), &job); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

func (r *jobRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.Job, error) {
	const query = `
        SELECT id, event_id, title, description, max_volunteers, created_at, updated_at
        FROM jobs WHERE event_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var result []domain.Job
	for rows.Next() {
		var job domain.Job
		if err := scanJob(rows, &job); err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	return result, rows.Err()
}

func scanJob(row pgx.Row, job *domain.Job) error {
	return row.Scan(
		&job.ID,
		&job.EventID,
		&job.Title,
		&job.Description,
		&job.MaxVolunteers,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
}
