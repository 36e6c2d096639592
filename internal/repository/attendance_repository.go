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

// AttendanceRepository persists job subscriptions and their stamps.
//
// Stamp writes are compare-and-set: they only land when the row is still
// in the state the caller validated, so duplicate scans cannot overwrite.
type AttendanceRepository interface {
	Create(ctx context.Context, att *domain.Attendance) error
	FindByVolunteer(ctx context.Context, eventID, volunteerID string) (*domain.Attendance, error)
	FindByVolunteerForUpdate(ctx context.Context, eventID, volunteerID string) (*domain.Attendance, error)
	CountByJob(ctx context.Context, jobID string) (int, error)
	ListByEvent(ctx context.Context, eventID string) ([]domain.Attendance, error)
	DeleteIfNotCheckedIn(ctx context.Context, id string) (bool, error)
	SetCheckIn(ctx context.Context, id string, at time.Time) (bool, error)
	SetCheckOut(ctx context.Context, id string, at time.Time) (bool, error)
}

type attendanceRepository struct {
	db conn
}

// NewAttendanceRepository instantiates repository.
func NewAttendanceRepository(pool *pgxpool.Pool) AttendanceRepository {
	return &attendanceRepository{db: conn{pool: pool}}
}

const attendanceColumns = `id, event_id, job_id, volunteer_id, full_name, check_in_at, check_out_at, created_at`

func (r *attendanceRepository) Create(ctx context.Context, att *domain.Attendance) error {
	const query = `
        INSERT INTO attendances (id, event_id, job_id, volunteer_id, full_name)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at`
	err := r.db.queryRow(ctx, query,
		att.ID,
		att.EventID,
		att.JobID,
		att.VolunteerID,
		att.FullName,
	).Scan(&att.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadySubscribedElsewhere
		}
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// FindByVolunteer returns nil when the volunteer holds no attendance.
func (r *attendanceRepository) FindByVolunteer(ctx context.Context, eventID, volunteerID string) (*domain.Attendance, error) {
	return r.findOne(ctx, `SELECT `+attendanceColumns+` FROM attendances WHERE event_id=$1 AND volunteer_id=$2`, eventID, volunteerID)
}

func (r *attendanceRepository) FindByVolunteerForUpdate(ctx context.Context, eventID, volunteerID string) (*domain.Attendance, error) {
	return r.findOne(ctx, `SELECT `+attendanceColumns+` FROM attendances WHERE event_id=$1 AND volunteer_id=$2 FOR UPDATE`, eventID, volunteerID)
}

func (r *attendanceRepository) findOne(ctx context.Context, query string, args ...any) (*domain.Attendance, error) {
	var att domain.Attendance
	if err := scanAttendance(r.db.queryRow(ctx, query, args...), &att); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidUUID(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("find attendance: %w", err)
	}
	return &att, nil
}

func (r *attendanceRepository) CountByJob(ctx context.Context, jobID string) (int, error) {
	var total int
	if err := r.db.queryRow(ctx, `SELECT COUNT(*) FROM attendances WHERE job_id=$1`, jobID).Scan(&total); err != nil {
		return 0, fmt.Errorf("count attendances: %w", err)
	}
	return total, nil
}

func (r *attendanceRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.Attendance, error) {
	rows, err := r.db.query(ctx, `SELECT `+attendanceColumns+` FROM attendances WHERE event_id=$1 ORDER BY created_at ASC, id ASC`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list attendances: %w", err)
	}
	defer rows.Close()

	var result []domain.Attendance
	for rows.Next() {
		var att domain.Attendance
		if err := scanAttendance(rows, &att); err != nil {
			return nil, err
		}
		result = append(result, att)
	}
	return result, rows.Err()
}

func (r *attendanceRepository) DeleteIfNotCheckedIn(ctx context.Context, id string) (bool, error) {
	cmd, err := r.db.exec(ctx, `DELETE FROM attendances WHERE id=$1 AND check_in_at IS NULL`, id)
	if err != nil {
		return false, fmt.Errorf("delete attendance: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *attendanceRepository) SetCheckIn(ctx context.Context, id string, at time.Time) (bool, error) {
	cmd, err := r.db.exec(ctx, `UPDATE attendances SET check_in_at=$1 WHERE id=$2 AND check_in_at IS NULL`, at, id)
	if err != nil {
		return false, fmt.Errorf("check in: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *attendanceRepository) SetCheckOut(ctx context.Context, id string, at time.Time) (bool, error) {
	const query = `
        UPDATE attendances SET check_out_at=$1
        WHERE id=$2 AND check_in_at IS NOT NULL AND check_out_at IS NULL AND check_in_at < $1`
	cmd, err := r.db.exec(ctx, query, at, id)
	if err != nil {
		return false, fmt.Errorf("check out: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func scanAttendance(row pgx.Row, att *domain.Attendance) error {
	return row.Scan(
		&att.ID,
		&att.EventID,
		&att.JobID,
		&att.VolunteerID,
		&att.FullName,
		&att.CheckInAt,
		&att.CheckOutAt,
		&att.CreatedAt,
	)
}
