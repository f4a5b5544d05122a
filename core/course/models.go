package course

import (
	"time"

	"github.com/mwalimu/darasa/core"
)

type (
	// Student is the enrollment projection of a user consumed by
	// performance aggregation and course detail views.
	Student struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}

	// Feedback carries the grade a teacher gave on a single submission.
	// Grade is nil until graded; a graded submission holds 0-100.
	Feedback struct {
		ID           string    `json:"id"`
		SubmissionID string    `json:"submission_id"`
		Grade        *int      `json:"grade"`
		Comment      string    `json:"comment"`
		CreatedAt    time.Time `json:"created_at"` // UTC
	}

	// Submission is one student's answer to one assignment.
	// At most one exists per (assignment, student) pair; the datastore
	// enforces this with a uniqueness constraint.
	Submission struct {
		ID           string    `json:"id"`
		AssignmentID string    `json:"assignment_id"`
		StudentID    string    `json:"student_id"`
		Content      string    `json:"content"`
		SubmittedAt  time.Time `json:"submitted_at"` // UTC
		Feedback     *Feedback `json:"feedback"`
	}

	Assignment struct {
		ID          string       `json:"id"`
		CourseID    string       `json:"course_id"`
		Title       string       `json:"title"`
		Description string       `json:"description"`
		DueDate     time.Time    `json:"due_date"`
		Submissions []Submission `json:"submissions,omitempty"`
		CreatedAt   time.Time    `json:"created_at"` // UTC
		UpdatedAt   time.Time    `json:"updated_at"` // UTC
	}

	// Resource is the metadata of a file stored in the object store;
	// the bytes themselves live behind core.FileStorage.
	Resource struct {
		ID          string    `json:"id"`
		CourseID    string    `json:"course_id"`
		Name        string    `json:"name"`
		Key         string    `json:"-"`
		URL         string    `json:"url,omitempty"`
		ContentType string    `json:"content_type"`
		Size        int64     `json:"size"`
		UploadedBy  string    `json:"uploaded_by"`
		CreatedAt   time.Time `json:"created_at"` // UTC
	}

	// Course is the full object graph the aggregator consumes.
	// OwnerID is the main teacher; CoTeacherIDs never contains it.
	Course struct {
		ID           string       `json:"id"`
		Name         string       `json:"name"`
		Description  string       `json:"description"`
		OwnerID      string       `json:"owner_id"`
		CoTeacherIDs []string     `json:"co_teacher_ids"`
		Students     []Student    `json:"students,omitempty"`
		Assignments  []Assignment `json:"assignments,omitempty"`
		Resources    []Resource   `json:"resources,omitempty"`
		CreatedAt    time.Time    `json:"created_at"` // UTC
		UpdatedAt    time.Time    `json:"updated_at"` // UTC
	}
)

func (c *Course) IsOwner(userID string) bool {
	return userID != "" && c.OwnerID == userID
}

func (c *Course) HasCoTeacher(userID string) bool {
	for _, id := range c.CoTeacherIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Course) IsTaughtBy(userID string) bool {
	return c.IsOwner(userID) || c.HasCoTeacher(userID)
}

func (c *Course) HasStudent(userID string) bool {
	for _, st := range c.Students {
		if st.ID == userID {
			return true
		}
	}
	return false
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

func (nc *NewCourse) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return core.Validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Name        string `json:"name" validate:"omitempty,max=100"`
	Description string `json:"description"`
}

func (uc *UpdateCourse) Validate(orig Course) error {
	name := core.CleanString(uc.Name)
	if name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}
	uc.Description = core.CleanString(uc.Description)
	if uc.Description == "" {
		uc.Description = orig.Description
	}
	return core.Validate.Struct(uc)
}

type NewAssignment struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date" validate:"required"`
}

func (na *NewAssignment) Validate() error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	return core.Validate.Struct(na)
}

type UpdateAssignment struct {
	Title       string    `json:"title" validate:"omitempty,max=200"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
}

func (ua *UpdateAssignment) Validate(orig Assignment) error {
	title := core.CleanString(ua.Title)
	if title != "" {
		ua.Title = title
	} else {
		ua.Title = orig.Title
	}
	ua.Description = core.CleanString(ua.Description)
	if ua.Description == "" {
		ua.Description = orig.Description
	}
	if ua.DueDate.IsZero() {
		ua.DueDate = orig.DueDate
	}
	return core.Validate.Struct(ua)
}

type NewSubmission struct {
	AssignmentID string `json:"assignment_id" validate:"required"`
	Content      string `json:"content"`
}

func (ns *NewSubmission) Validate() error {
	ns.Content = core.CleanString(ns.Content)
	return core.Validate.Struct(ns)
}

// NewFeedback grades a submission. Grade must be 0-100; out-of-range
// values are rejected here, never clamped.
type NewFeedback struct {
	Grade   *int   `json:"grade" validate:"required,min=0,max=100"`
	Comment string `json:"comment"`
}

func (nf *NewFeedback) Validate() error {
	nf.Comment = core.CleanString(nf.Comment)
	return core.Validate.Struct(nf)
}

type NewResource struct {
	Name        string `json:"name" validate:"required,max=200"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size" validate:"min=0"`
}

func (nr *NewResource) Validate() error {
	nr.Name = core.CleanString(nr.Name)
	return core.Validate.Struct(nr)
}

// JoinCourse is the self-service co-teacher join request.
type JoinCourse struct {
	Code string `json:"code" validate:"required"`
}

func (jc *JoinCourse) Validate() error {
	jc.Code = core.CleanString(jc.Code)
	return core.Validate.Struct(jc)
}

// InviteCoTeacher is the main-teacher email-invitation request.
type InviteCoTeacher struct {
	Email string `json:"email" validate:"required,email"`
}

func (ic *InviteCoTeacher) Validate() error {
	ic.Email = core.CleanString(ic.Email, true /* lower */)
	return core.Validate.Struct(ic)
}

// Dashboard aggregates a teacher's (or student's) footprint for portal home views.
type Dashboard struct {
	Courses     int `json:"courses"`
	Students    int `json:"students"`
	Assignments int `json:"assignments"`
	Resources   int `json:"resources"`
}
