package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/mwalimu/darasa/core/course"
)

type courseRepository struct {
	db    *courseTable
	users *userTable
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course, users: db.user}
}

// load assembles the full course graph under the table lock.
func (repo *courseRepository) load(crs course.Course) course.Course {
	crs.CoTeacherIDs = append([]string(nil), repo.db.coTeachers[crs.ID]...)

	crs.Students = make([]course.Student, 0, len(repo.db.enrollments[crs.ID]))
	repo.users.mutex.RLock()
	for _, sid := range repo.db.enrollments[crs.ID] {
		st := course.Student{ID: sid}
		if usr, ok := repo.users.table[sid]; ok {
			st.Name = usr.Name
			st.Email = usr.Email
		}
		crs.Students = append(crs.Students, st)
	}
	repo.users.mutex.RUnlock()

	crs.Assignments = make([]course.Assignment, 0)
	for _, a := range repo.db.assignments {
		if a.CourseID != crs.ID {
			continue
		}
		assignment := *a
		assignment.Submissions = make([]course.Submission, 0)
		for _, sub := range repo.db.submissions {
			if sub.AssignmentID != assignment.ID {
				continue
			}
			s := *sub
			if fb, ok := repo.db.feedback[s.ID]; ok {
				fbCopy := *fb
				s.Feedback = &fbCopy
			}
			assignment.Submissions = append(assignment.Submissions, s)
		}
		sort.Slice(assignment.Submissions, func(i, j int) bool {
			return assignment.Submissions[i].SubmittedAt.Before(assignment.Submissions[j].SubmittedAt)
		})
		crs.Assignments = append(crs.Assignments, assignment)
	}
	sort.Slice(crs.Assignments, func(i, j int) bool {
		a, b := crs.Assignments[i], crs.Assignments[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	crs.Resources = make([]course.Resource, 0)
	for _, res := range repo.db.resources {
		if res.CourseID == crs.ID {
			crs.Resources = append(crs.Resources, *res)
		}
	}
	sort.Slice(crs.Resources, func(i, j int) bool { return crs.Resources[i].CreatedAt.Before(crs.Resources[j].CreatedAt) })

	return crs
}

func (repo *courseRepository) query() []course.Course {
	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		courses = append(courses, repo.load(*crs))
	}
	sort.Slice(courses, func(i, j int) bool {
		a, b := courses[i], courses[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return courses
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	crs.ID = uuid.New().String()
	stored := crs
	repo.db.courses[crs.ID] = &stored
	return repo.load(crs), nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	crs, ok := repo.db.courses[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	return repo.load(*crs), nil
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *courseRepository) QueryCoursesByTeacher(ctx context.Context, teacherID string) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0)
	for _, crs := range repo.query() {
		if crs.IsTaughtBy(teacherID) {
			courses = append(courses, crs)
		}
	}
	return courses, nil
}

func (repo *courseRepository) QueryCoursesByStudent(ctx context.Context, studentID string) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0)
	for _, crs := range repo.query() {
		if crs.HasStudent(studentID) {
			courses = append(courses, crs)
		}
	}
	return courses, nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.courses[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	orig.Name = crs.Name
	orig.Description = crs.Description
	orig.UpdatedAt = crs.UpdatedAt
	return repo.load(*orig), nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.courses, id)
		delete(repo.db.coTeachers, id)
		delete(repo.db.enrollments, id)
	}
	return nil
}

func (repo *courseRepository) AddCoTeacher(ctx context.Context, courseID, teacherID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.courses[courseID]; !ok {
		return course.ErrNotFound
	}
	for _, id := range repo.db.coTeachers[courseID] {
		if id == teacherID {
			return course.ErrAlreadyMember
		}
	}
	repo.db.coTeachers[courseID] = append(repo.db.coTeachers[courseID], teacherID)
	return nil
}

func (repo *courseRepository) AddStudent(ctx context.Context, courseID, studentID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.courses[courseID]; !ok {
		return course.ErrNotFound
	}
	for _, id := range repo.db.enrollments[courseID] {
		if id == studentID {
			return course.ErrAlreadyEnrolled
		}
	}
	repo.db.enrollments[courseID] = append(repo.db.enrollments[courseID], studentID)
	return nil
}

func (repo *courseRepository) RemoveStudent(ctx context.Context, courseID, studentID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	enrolled := repo.db.enrollments[courseID]
	for i, id := range enrolled {
		if id == studentID {
			repo.db.enrollments[courseID] = append(enrolled[:i], enrolled[i+1:]...)
			return nil
		}
	}
	return course.ErrNotEnrolled
}

func (repo *courseRepository) CreateAssignment(ctx context.Context, a course.Assignment) (course.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	a.ID = uuid.New().String()
	stored := a
	repo.db.assignments[a.ID] = &stored
	return a, nil
}

func (repo *courseRepository) GetAssignmentByID(ctx context.Context, id string) (course.Assignment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		return *a, nil
	}
	return course.Assignment{}, course.ErrAssignmentNotFound
}

func (repo *courseRepository) UpdateAssignment(ctx context.Context, a course.Assignment) (course.Assignment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.assignments[a.ID]
	if !ok {
		return course.Assignment{}, course.ErrAssignmentNotFound
	}
	orig.Title = a.Title
	orig.Description = a.Description
	orig.DueDate = a.DueDate
	orig.UpdatedAt = a.UpdatedAt
	return *orig, nil
}

func (repo *courseRepository) DeleteAssignmentsByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.assignments, id)
	}
	return nil
}

func (repo *courseRepository) CreateSubmission(ctx context.Context, sub course.Submission) (course.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.submissions {
		if existing.AssignmentID == sub.AssignmentID && existing.StudentID == sub.StudentID {
			return course.Submission{}, course.ErrAlreadySubmitted
		}
	}
	sub.ID = uuid.New().String()
	stored := sub
	repo.db.submissions[sub.ID] = &stored
	return sub, nil
}

func (repo *courseRepository) GetSubmissionByID(ctx context.Context, id string) (course.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	sub, ok := repo.db.submissions[id]
	if !ok {
		return course.Submission{}, course.ErrSubmissionNotFound
	}
	s := *sub
	if fb, ok := repo.db.feedback[s.ID]; ok {
		fbCopy := *fb
		s.Feedback = &fbCopy
	}
	return s, nil
}

func (repo *courseRepository) SetFeedback(ctx context.Context, fb course.Feedback) (course.Feedback, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.submissions[fb.SubmissionID]; !ok {
		return course.Feedback{}, course.ErrSubmissionNotFound
	}
	if orig, ok := repo.db.feedback[fb.SubmissionID]; ok {
		fb.ID = orig.ID
	} else {
		fb.ID = uuid.New().String()
	}
	stored := fb
	repo.db.feedback[fb.SubmissionID] = &stored
	return fb, nil
}

func (repo *courseRepository) CreateResource(ctx context.Context, res course.Resource) (course.Resource, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	res.ID = uuid.New().String()
	stored := res
	repo.db.resources[res.ID] = &stored
	return res, nil
}

func (repo *courseRepository) GetResourceByID(ctx context.Context, id string) (course.Resource, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if res, ok := repo.db.resources[id]; ok {
		return *res, nil
	}
	return course.Resource{}, course.ErrResourceNotFound
}

func (repo *courseRepository) DeleteResourcesByID(ctx context.Context, ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, id := range ids {
		delete(repo.db.resources, id)
	}
	return nil
}
