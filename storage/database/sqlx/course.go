package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mwalimu/darasa/core/course"
)

const (
	uniqueViolation     = pq.ErrorCode("23505")
	foreignKeyViolation = pq.ErrorCode("23503")
)

func isPQError(err error, code pq.ErrorCode) bool {
	pqErr, ok := errors.Cause(err).(*pq.Error)
	return ok && pqErr.Code == code
}

type (
	courseRow struct {
		ID          string    `db:"id"`
		Name        string    `db:"name"`
		Description string    `db:"description"`
		OwnerID     string    `db:"owner_id"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	assignmentRow struct {
		ID          string    `db:"id"`
		CourseID    string    `db:"course_id"`
		Title       string    `db:"title"`
		Description string    `db:"description"`
		DueDate     time.Time `db:"due_date"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	submissionRow struct {
		ID           string      `db:"id"`
		AssignmentID string      `db:"assignment_id"`
		StudentID    string      `db:"student_id"`
		Content      string      `db:"content"`
		SubmittedAt  time.Time   `db:"submitted_at"`
		FbID         null.String `db:"fb_id"`
		FbGrade      null.Int    `db:"fb_grade"`
		FbComment    null.String `db:"fb_comment"`
		FbCreatedAt  null.Time   `db:"fb_created_at"`
	}

	resourceRow struct {
		ID          string    `db:"id"`
		CourseID    string    `db:"course_id"`
		Name        string    `db:"name"`
		Key         string    `db:"key"`
		ContentType string    `db:"content_type"`
		Size        int64     `db:"size"`
		UploadedBy  string    `db:"uploaded_by"`
		CreatedAt   time.Time `db:"created_at"`
	}
)

func (row courseRow) toCourse() course.Course {
	return course.Course{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		OwnerID:     row.OwnerID,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func (row assignmentRow) toAssignment() course.Assignment {
	return course.Assignment{
		ID:          row.ID,
		CourseID:    row.CourseID,
		Title:       row.Title,
		Description: row.Description,
		DueDate:     row.DueDate,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func (row submissionRow) toSubmission() course.Submission {
	sub := course.Submission{
		ID:           row.ID,
		AssignmentID: row.AssignmentID,
		StudentID:    row.StudentID,
		Content:      row.Content,
		SubmittedAt:  row.SubmittedAt,
	}
	if row.FbID.Valid {
		fb := course.Feedback{
			ID:           row.FbID.String,
			SubmissionID: row.ID,
			Comment:      row.FbComment.String,
			CreatedAt:    row.FbCreatedAt.Time,
		}
		if row.FbGrade.Valid {
			grade := row.FbGrade.Int
			fb.Grade = &grade
		}
		sub.Feedback = &fb
	}
	return sub
}

func (row resourceRow) toResource() course.Resource {
	return course.Resource{
		ID:          row.ID,
		CourseID:    row.CourseID,
		Name:        row.Name,
		Key:         row.Key,
		ContentType: row.ContentType,
		Size:        row.Size,
		UploadedBy:  row.UploadedBy,
		CreatedAt:   row.CreatedAt,
	}
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

const submissionCols = `
	s.id, s.assignment_id, s.student_id, s.content, s.submitted_at,
	f.id AS fb_id, f.grade AS fb_grade, f.comment AS fb_comment, f.created_at AS fb_created_at`

// load assembles the full course graph: co-teachers, students, assignments
// with submissions and feedback, resources.
func (repo *courseRepository) load(ctx context.Context, crs course.Course) (course.Course, error) {
	q := `SELECT teacher_id FROM course_teachers WHERE course_id = $1 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &crs.CoTeacherIDs, q, crs.ID); err != nil {
		return course.Course{}, errors.Wrap(err, "querying co-teachers")
	}

	q = `
		SELECT u.id, u.name, u.email
		FROM course_students cs
		JOIN users u ON u.id = cs.student_id
		WHERE cs.course_id = $1
		ORDER BY cs.created_at`
	crs.Students = make([]course.Student, 0)
	if err := repo.db.SelectContext(ctx, &crs.Students, q, crs.ID); err != nil {
		return course.Course{}, errors.Wrap(err, "querying students")
	}

	var aRows []assignmentRow
	q = `SELECT * FROM assignments WHERE course_id = $1 ORDER BY created_at, id`
	if err := repo.db.SelectContext(ctx, &aRows, q, crs.ID); err != nil {
		return course.Course{}, errors.Wrap(err, "querying assignments")
	}

	crs.Assignments = make([]course.Assignment, 0, len(aRows))
	assignmentIdx := make(map[string]int, len(aRows))
	assignmentIDs := make([]string, 0, len(aRows))
	for _, row := range aRows {
		a := row.toAssignment()
		a.Submissions = make([]course.Submission, 0)
		assignmentIdx[a.ID] = len(crs.Assignments)
		assignmentIDs = append(assignmentIDs, a.ID)
		crs.Assignments = append(crs.Assignments, a)
	}

	if len(assignmentIDs) > 0 {
		var sRows []submissionRow
		q = `
			SELECT ` + submissionCols + `
			FROM submissions s
			LEFT JOIN feedback f ON f.submission_id = s.id
			WHERE s.assignment_id = ANY($1)
			ORDER BY s.submitted_at`
		if err := repo.db.SelectContext(ctx, &sRows, q, pq.StringArray(assignmentIDs)); err != nil {
			return course.Course{}, errors.Wrap(err, "querying submissions")
		}
		for _, row := range sRows {
			i := assignmentIdx[row.AssignmentID]
			crs.Assignments[i].Submissions = append(crs.Assignments[i].Submissions, row.toSubmission())
		}
	}

	var rRows []resourceRow
	q = `SELECT * FROM resources WHERE course_id = $1 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rRows, q, crs.ID); err != nil {
		return course.Course{}, errors.Wrap(err, "querying resources")
	}
	crs.Resources = make([]course.Resource, 0, len(rRows))
	for _, row := range rRows {
		crs.Resources = append(crs.Resources, row.toResource())
	}

	return crs, nil
}

func (repo *courseRepository) loadAll(ctx context.Context, rows []courseRow) ([]course.Course, error) {
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		crs, err := repo.load(ctx, row.toCourse())
		if err != nil {
			return nil, err
		}
		courses = append(courses, crs)
	}
	return courses, nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	q := `
		INSERT INTO courses (id, name, description, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, q, crs.ID, crs.Name, crs.Description, crs.OwnerID, crs.CreatedAt, crs.UpdatedAt)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.load(ctx, crs)
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM courses WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "getting course")
	}
	return repo.load(ctx, row.toCourse())
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM courses ORDER BY created_at, id`); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	return repo.loadAll(ctx, rows)
}

func (repo *courseRepository) QueryCoursesByTeacher(ctx context.Context, teacherID string) ([]course.Course, error) {
	q := `
		SELECT c.* FROM courses c
		WHERE c.owner_id = $1
		   OR EXISTS (SELECT 1 FROM course_teachers ct WHERE ct.course_id = c.id AND ct.teacher_id = $1)
		ORDER BY c.created_at, c.id`
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, teacherID); err != nil {
		return nil, errors.Wrap(err, "querying courses by teacher")
	}
	return repo.loadAll(ctx, rows)
}

func (repo *courseRepository) QueryCoursesByStudent(ctx context.Context, studentID string) ([]course.Course, error) {
	q := `
		SELECT c.* FROM courses c
		JOIN course_students cs ON cs.course_id = c.id
		WHERE cs.student_id = $1
		ORDER BY c.created_at, c.id`
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying courses by student")
	}
	return repo.loadAll(ctx, rows)
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	q := `UPDATE courses SET name = $2, description = $3, updated_at = $4 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, crs.ID, crs.Name, crs.Description, crs.UpdatedAt)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourseByID(ctx, crs.ID)
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM courses WHERE id = ANY($1)`, pq.StringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting courses")
	}
	return nil
}

// AddCoTeacher relies on the (course_id, teacher_id) primary key: a duplicate
// insert surfaces as ErrAlreadyMember, never as a silent no-op.
func (repo *courseRepository) AddCoTeacher(ctx context.Context, courseID, teacherID string) error {
	q := `INSERT INTO course_teachers (course_id, teacher_id, created_at) VALUES ($1, $2, $3)`
	if _, err := repo.db.ExecContext(ctx, q, courseID, teacherID, time.Now().UTC()); err != nil {
		if isPQError(err, uniqueViolation) {
			return course.ErrAlreadyMember
		}
		if isPQError(err, foreignKeyViolation) {
			return course.ErrNotFound
		}
		return errors.Wrap(err, "adding co-teacher")
	}
	return nil
}

func (repo *courseRepository) AddStudent(ctx context.Context, courseID, studentID string) error {
	q := `INSERT INTO course_students (course_id, student_id, created_at) VALUES ($1, $2, $3)`
	if _, err := repo.db.ExecContext(ctx, q, courseID, studentID, time.Now().UTC()); err != nil {
		if isPQError(err, uniqueViolation) {
			return course.ErrAlreadyEnrolled
		}
		if isPQError(err, foreignKeyViolation) {
			return course.ErrNotFound
		}
		return errors.Wrap(err, "adding student")
	}
	return nil
}

func (repo *courseRepository) RemoveStudent(ctx context.Context, courseID, studentID string) error {
	q := `DELETE FROM course_students WHERE course_id = $1 AND student_id = $2`
	res, err := repo.db.ExecContext(ctx, q, courseID, studentID)
	if err != nil {
		return errors.Wrap(err, "removing student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.ErrNotEnrolled
	}
	return nil
}

func (repo *courseRepository) CreateAssignment(ctx context.Context, a course.Assignment) (course.Assignment, error) {
	a.ID = uuid.New().String()
	q := `
		INSERT INTO assignments (id, course_id, title, description, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := repo.db.ExecContext(ctx, q, a.ID, a.CourseID, a.Title, a.Description, a.DueDate, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if isPQError(err, foreignKeyViolation) {
			return course.Assignment{}, course.ErrNotFound
		}
		return course.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	return a, nil
}

func (repo *courseRepository) GetAssignmentByID(ctx context.Context, id string) (course.Assignment, error) {
	var row assignmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM assignments WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Assignment{}, course.ErrAssignmentNotFound
		}
		return course.Assignment{}, errors.Wrap(err, "getting assignment")
	}
	return row.toAssignment(), nil
}

func (repo *courseRepository) UpdateAssignment(ctx context.Context, a course.Assignment) (course.Assignment, error) {
	q := `UPDATE assignments SET title = $2, description = $3, due_date = $4, updated_at = $5 WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, a.ID, a.Title, a.Description, a.DueDate, a.UpdatedAt)
	if err != nil {
		return course.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Assignment{}, course.ErrAssignmentNotFound
	}
	return repo.GetAssignmentByID(ctx, a.ID)
}

func (repo *courseRepository) DeleteAssignmentsByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = ANY($1)`, pq.StringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting assignments")
	}
	return nil
}

// CreateSubmission relies on the (assignment_id, student_id) uniqueness
// constraint to reject resubmissions.
func (repo *courseRepository) CreateSubmission(ctx context.Context, sub course.Submission) (course.Submission, error) {
	sub.ID = uuid.New().String()
	q := `
		INSERT INTO submissions (id, assignment_id, student_id, content, submitted_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.db.ExecContext(ctx, q, sub.ID, sub.AssignmentID, sub.StudentID, sub.Content, sub.SubmittedAt)
	if err != nil {
		if isPQError(err, uniqueViolation) {
			return course.Submission{}, course.ErrAlreadySubmitted
		}
		if isPQError(err, foreignKeyViolation) {
			return course.Submission{}, course.ErrAssignmentNotFound
		}
		return course.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo *courseRepository) GetSubmissionByID(ctx context.Context, id string) (course.Submission, error) {
	var row submissionRow
	q := `
		SELECT ` + submissionCols + `
		FROM submissions s
		LEFT JOIN feedback f ON f.submission_id = s.id
		WHERE s.id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Submission{}, course.ErrSubmissionNotFound
		}
		return course.Submission{}, errors.Wrap(err, "getting submission")
	}
	return row.toSubmission(), nil
}

// SetFeedback upserts: regrading replaces the previous feedback row.
func (repo *courseRepository) SetFeedback(ctx context.Context, fb course.Feedback) (course.Feedback, error) {
	fb.ID = uuid.New().String()
	var grade null.Int
	if fb.Grade != nil {
		grade = null.IntFrom(*fb.Grade)
	}
	q := `
		INSERT INTO feedback (id, submission_id, grade, comment, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (submission_id)
		DO UPDATE SET grade = EXCLUDED.grade, comment = EXCLUDED.comment, created_at = EXCLUDED.created_at
		RETURNING id`
	if err := repo.db.GetContext(ctx, &fb.ID, q, fb.ID, fb.SubmissionID, grade, fb.Comment, fb.CreatedAt); err != nil {
		if isPQError(err, foreignKeyViolation) {
			return course.Feedback{}, course.ErrSubmissionNotFound
		}
		return course.Feedback{}, errors.Wrap(err, "setting feedback")
	}
	return fb, nil
}

func (repo *courseRepository) CreateResource(ctx context.Context, res course.Resource) (course.Resource, error) {
	res.ID = uuid.New().String()
	q := `
		INSERT INTO resources (id, course_id, name, key, content_type, size, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, q, res.ID, res.CourseID, res.Name, res.Key, res.ContentType, res.Size, res.UploadedBy, res.CreatedAt)
	if err != nil {
		if isPQError(err, foreignKeyViolation) {
			return course.Resource{}, course.ErrNotFound
		}
		return course.Resource{}, errors.Wrap(err, "inserting resource")
	}
	return res, nil
}

func (repo *courseRepository) GetResourceByID(ctx context.Context, id string) (course.Resource, error) {
	var row resourceRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM resources WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Resource{}, course.ErrResourceNotFound
		}
		return course.Resource{}, errors.Wrap(err, "getting resource")
	}
	return row.toResource(), nil
}

func (repo *courseRepository) DeleteResourcesByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM resources WHERE id = ANY($1)`, pq.StringArray(ids)); err != nil {
		return errors.Wrap(err, "deleting resources")
	}
	return nil
}
