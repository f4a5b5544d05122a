package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/mwalimu/darasa/core/schedule"
)

type eventRow struct {
	ID        string    `db:"id"`
	CourseID  string    `db:"course_id"`
	Title     string    `db:"title"`
	Location  string    `db:"location"`
	StartsAt  time.Time `db:"starts_at"`
	EndsAt    time.Time `db:"ends_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row eventRow) toEvent() schedule.Event {
	return schedule.Event(row)
}

type scheduleRepository struct {
	db *sqlx.DB
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *sqlx.DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

func (repo *scheduleRepository) CreateEvent(ctx context.Context, evt schedule.Event) (schedule.Event, error) {
	evt.ID = uuid.New().String()
	q := `
		INSERT INTO schedule_events (id, course_id, title, location, starts_at, ends_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, q,
		evt.ID, evt.CourseID, evt.Title, evt.Location, evt.StartsAt, evt.EndsAt, evt.CreatedAt, evt.UpdatedAt,
	)
	if err != nil {
		return schedule.Event{}, errors.Wrap(err, "inserting event")
	}
	return evt, nil
}

func toEvents(rows []eventRow) []schedule.Event {
	events := make([]schedule.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toEvent())
	}
	return events
}

func (repo *scheduleRepository) GetEventByID(ctx context.Context, id string) (schedule.Event, error) {
	var row eventRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM schedule_events WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return schedule.Event{}, schedule.ErrNotFound
		}
		return schedule.Event{}, errors.Wrap(err, "getting event")
	}
	return row.toEvent(), nil
}

func (repo *scheduleRepository) QueryEventsByCourse(ctx context.Context, courseID string) ([]schedule.Event, error) {
	var rows []eventRow
	q := `SELECT * FROM schedule_events WHERE course_id = $1 ORDER BY starts_at`
	if err := repo.db.SelectContext(ctx, &rows, q, courseID); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	return toEvents(rows), nil
}

func (repo *scheduleRepository) QueryUpcomingEvents(ctx context.Context, courseIDs []string, from time.Time, limit int) ([]schedule.Event, error) {
	var rows []eventRow
	q := `
		SELECT * FROM schedule_events
		WHERE course_id = ANY($1) AND starts_at >= $2
		ORDER BY starts_at
		LIMIT $3`
	if err := repo.db.SelectContext(ctx, &rows, q, pq.StringArray(courseIDs), from, limit); err != nil {
		return nil, errors.Wrap(err, "querying upcoming events")
	}
	return toEvents(rows), nil
}

func (repo *scheduleRepository) UpdateEvent(ctx context.Context, evt schedule.Event) (schedule.Event, error) {
	q := `
		UPDATE schedule_events
		SET title = $2, location = $3, starts_at = $4, ends_at = $5, updated_at = $6
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, evt.ID, evt.Title, evt.Location, evt.StartsAt, evt.EndsAt, evt.UpdatedAt)
	if err != nil {
		return schedule.Event{}, errors.Wrap(err, "updating event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return schedule.Event{}, schedule.ErrNotFound
	}
	return repo.GetEventByID(ctx, evt.ID)
}

func (repo *scheduleRepository) DeleteEventsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM schedule_events WHERE id = ANY($1)`, pq.StringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting events")
	}
	return nil
}
