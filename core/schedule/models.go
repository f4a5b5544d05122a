package schedule

import (
	"time"

	"github.com/mwalimu/darasa/core"
)

// Event is a scheduled session (lecture, lab, review) attached to a course.
type Event struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	StartsAt  time.Time `json:"starts_at"` // UTC
	EndsAt    time.Time `json:"ends_at"`   // UTC
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type NewEvent struct {
	Title    string    `json:"title" validate:"required,max=200"`
	Location string    `json:"location"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

func (ne *NewEvent) Validate() error {
	ne.Title = core.CleanString(ne.Title)
	ne.Location = core.CleanString(ne.Location)
	return core.Validate.Struct(ne)
}

type UpdateEvent struct {
	Title    string    `json:"title" validate:"omitempty,max=200"`
	Location string    `json:"location"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

func (ue *UpdateEvent) Validate(orig Event) error {
	title := core.CleanString(ue.Title)
	if title != "" {
		ue.Title = title
	} else {
		ue.Title = orig.Title
	}
	ue.Location = core.CleanString(ue.Location)
	if ue.Location == "" {
		ue.Location = orig.Location
	}
	if ue.StartsAt.IsZero() {
		ue.StartsAt = orig.StartsAt
	}
	if ue.EndsAt.IsZero() {
		ue.EndsAt = orig.EndsAt
	}
	if err := core.Validate.Struct(ue); err != nil {
		return err
	}
	if !ue.EndsAt.After(ue.StartsAt) {
		return core.NewValidationError(nil, core.FieldError{Field: "ends_at", Error: "must be after starts_at"})
	}
	return nil
}
