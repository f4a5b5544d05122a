package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwalimu/darasa/core/schedule"
	inmemdb "github.com/mwalimu/darasa/storage/database/inmem"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	svc := schedule.NewService(inmemdb.NewScheduleRepository(inmemdb.NewDB()))

	now := time.Now().UTC()
	evt, err := svc.Create(ctx, "crs1", schedule.NewEvent{
		Title:    "Lecture 1",
		Location: "Room 4",
		StartsAt: now.Add(2 * time.Hour),
		EndsAt:   now.Add(3 * time.Hour),
	})
	require.NoError(t, err)
	require.NotEmpty(t, evt.ID)

	past, err := svc.Create(ctx, "crs1", schedule.NewEvent{
		Title:    "Orientation",
		StartsAt: now.Add(-2 * time.Hour),
		EndsAt:   now.Add(-1 * time.Hour),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "crs2", schedule.NewEvent{
		Title:    "Lab",
		StartsAt: now.Add(time.Hour),
		EndsAt:   now.Add(2 * time.Hour),
	})
	require.NoError(t, err)

	t.Run("query by course", func(t *testing.T) {
		events, err := svc.QueryByCourse(ctx, "crs1")
		require.NoError(t, err)
		require.Len(t, events, 2)
		// soonest first
		assert.Equal(t, past.ID, events[0].ID)
		assert.Equal(t, evt.ID, events[1].ID)
	})

	t.Run("upcoming skips past events and honors the limit", func(t *testing.T) {
		events, err := svc.Upcoming(ctx, []string{"crs1", "crs2"}, 10)
		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "Lab", events[0].Title)
		assert.Equal(t, "Lecture 1", events[1].Title)

		events, err = svc.Upcoming(ctx, []string{"crs1", "crs2"}, 1)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "Lab", events[0].Title)
	})

	t.Run("update", func(t *testing.T) {
		ue := schedule.UpdateEvent{Location: "Room 7"}
		require.NoError(t, ue.Validate(evt))
		updated, err := svc.Update(ctx, evt.ID, ue)
		require.NoError(t, err)
		assert.Equal(t, "Lecture 1", updated.Title)
		assert.Equal(t, "Room 7", updated.Location)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, evt.ID))
		_, err := svc.GetByID(ctx, evt.ID)
		assert.Equal(t, schedule.ErrNotFound, errors.Cause(err))
	})
}

func TestNewEventValidation(t *testing.T) {
	now := time.Now().UTC()

	ne := schedule.NewEvent{Title: "Review", StartsAt: now.Add(2 * time.Hour), EndsAt: now.Add(time.Hour)}
	assert.Error(t, ne.Validate(), "end before start")

	ne = schedule.NewEvent{StartsAt: now, EndsAt: now.Add(time.Hour)}
	assert.Error(t, ne.Validate(), "missing title")

	ne = schedule.NewEvent{Title: "Review", StartsAt: now, EndsAt: now.Add(time.Hour)}
	assert.NoError(t, ne.Validate())
}
