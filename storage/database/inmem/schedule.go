package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mwalimu/darasa/core/schedule"
)

type scheduleRepository struct {
	db *scheduleTable
}

var _ schedule.Repository = (*scheduleRepository)(nil)

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db.schedule}
}

func (repo *scheduleRepository) query() []schedule.Event {
	events := make([]schedule.Event, 0, len(repo.db.table))
	for _, evt := range repo.db.table {
		events = append(events, *evt)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartsAt.Before(events[j].StartsAt) })
	return events
}

func (repo *scheduleRepository) CreateEvent(ctx context.Context, evt schedule.Event) (schedule.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	evt.ID = uuid.New().String()
	stored := evt
	repo.db.table[evt.ID] = &stored
	return evt, nil
}

func (repo *scheduleRepository) GetEventByID(ctx context.Context, id string) (schedule.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if evt, ok := repo.db.table[id]; ok {
		return *evt, nil
	}
	return schedule.Event{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) QueryEventsByCourse(ctx context.Context, courseID string) ([]schedule.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	events := make([]schedule.Event, 0)
	for _, evt := range repo.query() {
		if evt.CourseID == courseID {
			events = append(events, evt)
		}
	}
	return events, nil
}

func (repo *scheduleRepository) QueryUpcomingEvents(ctx context.Context, courseIDs []string, from time.Time, limit int) ([]schedule.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	wanted := make(map[string]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = struct{}{}
	}

	events := make([]schedule.Event, 0)
	for _, evt := range repo.query() {
		if _, ok := wanted[evt.CourseID]; !ok {
			continue
		}
		if evt.StartsAt.Before(from) {
			continue
		}
		events = append(events, evt)
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (repo *scheduleRepository) UpdateEvent(ctx context.Context, evt schedule.Event) (schedule.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[evt.ID]
	if !ok {
		return schedule.Event{}, schedule.ErrNotFound
	}
	orig.Title = evt.Title
	orig.Location = evt.Location
	orig.StartsAt = evt.StartsAt
	orig.EndsAt = evt.EndsAt
	orig.UpdatedAt = evt.UpdatedAt
	return *orig, nil
}

func (repo *scheduleRepository) DeleteEventsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
