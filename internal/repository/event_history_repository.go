package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/volunteer-events/internal/domain"
)

// EventHistoryRepository stores audit entries.
type EventHistoryRepository interface {
	Create(ctx context.Context, history *domain.EventHistory) error
	ListByEvent(ctx context.Context, eventID string) ([]domain.EventHistory, error)
}

type eventHistoryRepository struct {
	db conn
}

// NewEventHistoryRepository builds repository.
func NewEventHistoryRepository(pool *pgxpool.Pool) EventHistoryRepository {
	return &eventHistoryRepository{db: conn{pool: pool}}
}

func (r *eventHistoryRepository) Create(ctx context.Context, history *domain.EventHistory) error {
	const query = `
        INSERT INTO event_history (event_id, changed_by_type, changed_by_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.db.queryRow(ctx, query,
		history.EventID,
		history.ChangedByType,
		history.ChangedByID,
		history.ChangeType,
		history.OldValue,
		history.NewValue,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *eventHistoryRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.EventHistory, error) {
	const query = `
        SELECT id, event_id, changed_by_type, changed_by_id, change_type, old_value, new_value, created_at
        FROM event_history WHERE event_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.EventHistory
	for rows.Next() {
		var history domain.EventHistory
		if err := rows.Scan(
			&history.ID,
			&history.EventID,
			&history.ChangedByType,
			&history.ChangedByID,
			&history.ChangeType,
			&history.OldValue,
			&history.NewValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
