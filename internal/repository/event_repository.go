package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/volunteer-events/internal/domain"
)

// EventRepository encapsulates event persistence. Jobs are loaded by
// JobRepository.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	UpdateDetails(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	GetForUpdate(ctx context.Context, id string) (*domain.Event, error)
	// CompareAndSetStatus moves the event to next only if its status is one
	// of from. It reports whether a row changed.
	CompareAndSetStatus(ctx context.Context, id string, from []domain.EventStatus, next domain.EventStatus) (bool, error)
	ListLapsed(ctx context.Context, endedBefore time.Time, limit int) ([]domain.Event, error)
}

type eventRepository struct {
	db conn
}

// NewEventRepository instantiates repository.
func NewEventRepository(pool *pgxpool.Pool) EventRepository {
	return &eventRepository{db: conn{pool: pool}}
}

const eventColumns = `id, organizer_id, title, description, address, start_at, end_at, status, created_at, updated_at`

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	const query = `
        INSERT INTO events (id, organizer_id, title, description, address, start_at, end_at, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at, updated_at`
	err := r.db.queryRow(ctx, query,
		event.ID,
		event.OrganizerID,
		event.Title,
		event.Description,
		event.Address,
		event.StartAt,
		event.EndAt,
		event.Status,
	).Scan(&event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *eventRepository) UpdateDetails(ctx context.Context, event *domain.Event) error {
	const query = `
        UPDATE events SET title=$1, description=$2, address=$3, start_at=$4, end_at=$5, updated_at=NOW()
        WHERE id=$6 AND status='OPEN'
        RETURNING updated_at`
	err := r.db.queryRow(ctx, query,
		event.Title,
		event.Description,
		event.Address,
		event.StartAt,
		event.EndAt,
		event.ID,
	).Scan(&event.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEventNotOpen
		}
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return r.fetchSingle(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1`, id)
}

func (r *eventRepository) GetForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	return r.fetchSingle(ctx, `SELECT `+eventColumns+` FROM events WHERE id=$1 FOR UPDATE`, id)
}

func (r *eventRepository) fetchSingle(ctx context.Context, query string, id string) (*domain.Event, error) {
	var event domain.Event
	if err := scanEvent(r.db.queryRow(ctx, query, id), &event); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, domain.ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}

func (r *eventRepository) CompareAndSetStatus(ctx context.Context, id string, from []domain.EventStatus, next domain.EventStatus) (bool, error) {
	const query = `UPDATE events SET status=$1, updated_at=NOW() WHERE id=$2 AND status = ANY($3)`
	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}
	cmd, err := r.db.exec(ctx, query, next, id, statuses)
	if err != nil {
		return false, fmt.Errorf("set event status: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *eventRepository) ListLapsed(ctx context.Context, endedBefore time.Time, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + eventColumns + ` FROM events
        WHERE status IN ('OPEN','IN_PROGRESS') AND end_at <= $1
        ORDER BY end_at ASC LIMIT $2`
	rows, err := r.db.query(ctx, query, endedBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("list lapsed events: %w", err)
	}
	defer rows.Close()

	var result []domain.Event
	for rows.Next() {
		var event domain.Event
		if err := scanEvent(rows, &event); err != nil {
			return nil, err
		}
		result = append(result, event)
	}
	return result, rows.Err()
}

func scanEvent(row pgx.Row, event *domain.Event) error {
	return row.Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Title,
		&event.Description,
		&event.Address,
		&event.StartAt,
		&event.EndAt,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
}
