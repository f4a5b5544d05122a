package schedule

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("event not found")

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event) (Event, error)
		GetEventByID(ctx context.Context, id string) (Event, error)
		QueryEventsByCourse(ctx context.Context, courseID string) ([]Event, error)
		// QueryUpcomingEvents returns events starting at or after `from`
		// for any of the given courses, soonest first, capped at `limit`.
		QueryUpcomingEvents(ctx context.Context, courseIDs []string, from time.Time, limit int) ([]Event, error)
		UpdateEvent(ctx context.Context, evt Event) (Event, error)
		DeleteEventsByID(ctx context.Context, ids ...string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, courseID string, ne NewEvent) (Event, error)
		GetByID(ctx context.Context, id string) (Event, error)
		QueryByCourse(ctx context.Context, courseID string) ([]Event, error)
		Upcoming(ctx context.Context, courseIDs []string, limit int) ([]Event, error)
		Update(ctx context.Context, id string, ue UpdateEvent) (Event, error)
		Delete(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, courseID string, ne NewEvent) (Event, error) {
	now := time.Now().UTC()
	evt := Event{
		CourseID:  courseID,
		Title:     ne.Title,
		Location:  ne.Location,
		StartsAt:  ne.StartsAt.UTC(),
		EndsAt:    ne.EndsAt.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateEvent(ctx, evt)
}

func (svc *service) GetByID(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEventByID(ctx, id)
}

func (svc *service) QueryByCourse(ctx context.Context, courseID string) ([]Event, error) {
	return svc.repo.QueryEventsByCourse(ctx, courseID)
}

func (svc *service) Upcoming(ctx context.Context, courseIDs []string, limit int) ([]Event, error) {
	return svc.repo.QueryUpcomingEvents(ctx, courseIDs, time.Now().UTC(), limit)
}

func (svc *service) Update(ctx context.Context, id string, ue UpdateEvent) (Event, error) {
	evt, err := svc.repo.GetEventByID(ctx, id)
	if err != nil {
		return Event{}, err
	}
	evt.Title = ue.Title
	evt.Location = ue.Location
	evt.StartsAt = ue.StartsAt.UTC()
	evt.EndsAt = ue.EndsAt.UTC()
	evt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateEvent(ctx, evt)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteEventsByID(ctx, ids...)
}
