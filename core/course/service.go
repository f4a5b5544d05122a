package course

import (
	"context"
	"io"
	"net/mail"
	"path"
	"time"

	"github.com/pkg/errors"

	"github.com/mwalimu/darasa/core"
	"github.com/mwalimu/darasa/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("course not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrAlreadyMember      = errors.New("user already teaches this course")
	ErrAlreadyEnrolled    = errors.New("student already enrolled in this course")
	ErrNotEnrolled        = errors.New("student not enrolled in this course")
	ErrAlreadySubmitted   = errors.New("assignment already submitted")
	ErrNotTeacher         = errors.New("user is not a teacher")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		// GetCourseByID loads the full graph: co-teachers, students,
		// assignments with submissions and feedback, resources.
		GetCourseByID(ctx context.Context, id string) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		// QueryCoursesByTeacher returns courses owned or co-taught by teacherID.
		QueryCoursesByTeacher(ctx context.Context, teacherID string) ([]Course, error)
		QueryCoursesByStudent(ctx context.Context, studentID string) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...string) error

		// AddCoTeacher reports ErrAlreadyMember when the membership already exists.
		AddCoTeacher(ctx context.Context, courseID, teacherID string) error
		AddStudent(ctx context.Context, courseID, studentID string) error
		RemoveStudent(ctx context.Context, courseID, studentID string) error

		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		DeleteAssignmentsByID(ctx context.Context, ids ...string) error

		// CreateSubmission reports ErrAlreadySubmitted when the
		// (assignment, student) pair already has one.
		CreateSubmission(ctx context.Context, sub Submission) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		SetFeedback(ctx context.Context, fb Feedback) (Feedback, error)

		CreateResource(ctx context.Context, res Resource) (Resource, error)
		GetResourceByID(ctx context.Context, id string) (Resource, error)
		DeleteResourcesByID(ctx context.Context, ids ...string) error
	}

	ServiceInterface interface {
		Create(ctx context.Context, owner user.User, nc NewCourse) (Course, error)
		GetByID(ctx context.Context, id string) (Course, error)
		QueryForUser(ctx context.Context, usr user.User) ([]Course, error)
		Update(ctx context.Context, id string, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, ids ...string) error

		Enroll(ctx context.Context, courseID, studentID string) error
		Withdraw(ctx context.Context, courseID, studentID string) error

		CreateAssignment(ctx context.Context, courseID string, na NewAssignment) (Assignment, error)
		UpdateAssignment(ctx context.Context, id string, ua UpdateAssignment) (Assignment, error)
		DeleteAssignments(ctx context.Context, ids ...string) error

		Submit(ctx context.Context, student user.User, ns NewSubmission) (Submission, error)
		GiveFeedback(ctx context.Context, submissionID string, nf NewFeedback) (Feedback, error)

		AddResource(ctx context.Context, courseID string, uploadedBy user.User, nr NewResource, r io.Reader) (Resource, error)
		DeleteResource(ctx context.Context, id string) error

		Performance(ctx context.Context, courseID string) ([]StudentPerformance, error)
		Leaderboard(ctx context.Context, courseID string) ([]LeaderboardEntry, error)

		CodeForCourse(ctx context.Context, courseID string) (string, error)
		JoinWithTeacherCode(ctx context.Context, code string, usr user.User) (Course, error)
		InviteCoTeacher(ctx context.Context, courseID, email string, invitedBy user.User) (user.User, error)

		Dashboard(ctx context.Context, usr user.User) (Dashboard, error)
	}

	service struct {
		repo    Repository
		users   user.ServiceInterface
		mailSvc core.EmailService
		fileSvc core.FileStorage
	}
)

var _ ServiceInterface = (*service)(nil)

func NewService(repo Repository, users user.ServiceInterface, mailSvc core.EmailService, fileSvc core.FileStorage) *service {
	return &service{
		repo:    repo,
		users:   users,
		mailSvc: mailSvc,
		fileSvc: fileSvc,
	}
}

func (svc *service) Create(ctx context.Context, owner user.User, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Name:        nc.Name,
		Description: nc.Description,
		OwnerID:     owner.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *service) QueryForUser(ctx context.Context, usr user.User) ([]Course, error) {
	if usr.IsAdmin() {
		return svc.repo.QueryAllCourses(ctx)
	}
	if usr.IsTeacher() {
		return svc.repo.QueryCoursesByTeacher(ctx, usr.ID)
	}
	return svc.repo.QueryCoursesByStudent(ctx, usr.ID)
}

func (svc *service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	crs.Name = uc.Name
	crs.Description = uc.Description
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCoursesByID(ctx, ids...)
}

func (svc *service) Enroll(ctx context.Context, courseID, studentID string) error {
	crs, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	if crs.HasStudent(studentID) {
		return ErrAlreadyEnrolled
	}
	return svc.repo.AddStudent(ctx, courseID, studentID)
}

func (svc *service) Withdraw(ctx context.Context, courseID, studentID string) error {
	crs, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return err
	}
	if !crs.HasStudent(studentID) {
		return ErrNotEnrolled
	}
	return svc.repo.RemoveStudent(ctx, courseID, studentID)
}

func (svc *service) CreateAssignment(ctx context.Context, courseID string, na NewAssignment) (Assignment, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Assignment{}, err
	}
	now := time.Now().UTC()
	a := Assignment{
		CourseID:    courseID,
		Title:       na.Title,
		Description: na.Description,
		DueDate:     na.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *service) UpdateAssignment(ctx context.Context, id string, ua UpdateAssignment) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	a.Title = ua.Title
	a.Description = ua.Description
	a.DueDate = ua.DueDate
	a.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAssignment(ctx, a)
}

func (svc *service) DeleteAssignments(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteAssignmentsByID(ctx, ids...)
}

func (svc *service) Submit(ctx context.Context, student user.User, ns NewSubmission) (Submission, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, ns.AssignmentID)
	if err != nil {
		return Submission{}, err
	}
	crs, err := svc.repo.GetCourseByID(ctx, a.CourseID)
	if err != nil {
		return Submission{}, err
	}
	if !crs.HasStudent(student.ID) {
		return Submission{}, ErrNotEnrolled
	}
	sub := Submission{
		AssignmentID: ns.AssignmentID,
		StudentID:    student.ID,
		Content:      ns.Content,
		SubmittedAt:  time.Now().UTC(),
	}
	return svc.repo.CreateSubmission(ctx, sub)
}

func (svc *service) GiveFeedback(ctx context.Context, submissionID string, nf NewFeedback) (Feedback, error) {
	sub, err := svc.repo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return Feedback{}, err
	}
	fb := Feedback{
		SubmissionID: sub.ID,
		Grade:        nf.Grade,
		Comment:      nf.Comment,
		CreatedAt:    time.Now().UTC(),
	}
	return svc.repo.SetFeedback(ctx, fb)
}

func (svc *service) AddResource(ctx context.Context, courseID string, uploadedBy user.User, nr NewResource, r io.Reader) (Resource, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Resource{}, err
	}
	res := Resource{
		CourseID:    courseID,
		Name:        nr.Name,
		Key:         path.Join("courses", courseID, nr.Name),
		ContentType: nr.ContentType,
		Size:        nr.Size,
		UploadedBy:  uploadedBy.ID,
		CreatedAt:   time.Now().UTC(),
	}
	if err := svc.fileSvc.Save(ctx, res.Key, r); err != nil {
		return Resource{}, errors.Wrap(err, "storing resource")
	}
	res, err := svc.repo.CreateResource(ctx, res)
	if err != nil {
		return Resource{}, err
	}
	res.URL = svc.fileSvc.URL(res.Key)
	return res, nil
}

func (svc *service) DeleteResource(ctx context.Context, id string) error {
	res, err := svc.repo.GetResourceByID(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.fileSvc.Delete(ctx, res.Key); err != nil {
		return errors.Wrap(err, "deleting stored resource")
	}
	return svc.repo.DeleteResourcesByID(ctx, id)
}

func (svc *service) Performance(ctx context.Context, courseID string) ([]StudentPerformance, error) {
	crs, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return ComputePerformance(crs)
}

func (svc *service) Leaderboard(ctx context.Context, courseID string) ([]LeaderboardEntry, error) {
	perfs, err := svc.Performance(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return Leaderboard(perfs), nil
}

func (svc *service) CodeForCourse(ctx context.Context, courseID string) (string, error) {
	crs, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return "", err
	}
	return TeacherCode(crs), nil
}

// JoinWithTeacherCode is the self-service co-teacher path: the submitted
// code is matched against every course by re-derivation, then the same
// membership invariants as the email-invitation path apply. Joining a
// course the user already teaches is a conflict, not a no-op.
func (svc *service) JoinWithTeacherCode(ctx context.Context, code string, usr user.User) (Course, error) {
	if !usr.IsTeacher() {
		return Course{}, ErrNotTeacher
	}
	candidates, err := svc.repo.QueryAllCourses(ctx)
	if err != nil {
		return Course{}, errors.Wrap(err, "querying candidate courses")
	}
	crs, err := MatchTeacherCode(code, candidates)
	if err != nil {
		return Course{}, err
	}
	if crs.IsOwner(usr.ID) || crs.HasCoTeacher(usr.ID) {
		return Course{}, ErrAlreadyMember
	}
	if err = svc.repo.AddCoTeacher(ctx, crs.ID, usr.ID); err != nil {
		return Course{}, err
	}
	return svc.repo.GetCourseByID(ctx, crs.ID)
}

// InviteCoTeacher is the main-teacher email-invitation path. It shares the
// membership invariants with JoinWithTeacherCode but looks the invitee up
// by email instead of matching a code, and notifies them by mail.
func (svc *service) InviteCoTeacher(ctx context.Context, courseID, email string, invitedBy user.User) (user.User, error) {
	crs, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return user.User{}, err
	}
	invitee, err := svc.users.GetByEmail(ctx, email)
	if err != nil {
		return user.User{}, err
	}
	if !invitee.IsTeacher() {
		return user.User{}, ErrNotTeacher
	}
	if crs.IsOwner(invitee.ID) || crs.HasCoTeacher(invitee.ID) {
		return user.User{}, ErrAlreadyMember
	}
	if err = svc.repo.AddCoTeacher(ctx, crs.ID, invitee.ID); err != nil {
		return user.User{}, err
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: invitee.Name, Address: invitee.Email}},
		Subject:      "You have been added to " + crs.Name,
		TemplateName: "coteacher-invitation",
		TemplateData: struct {
			Name       string
			CourseName string
			InvitedBy  string
		}{invitee.Name, crs.Name, invitedBy.Name},
	})
	return invitee, nil
}

func (svc *service) Dashboard(ctx context.Context, usr user.User) (Dashboard, error) {
	courses, err := svc.QueryForUser(ctx, usr)
	if err != nil {
		return Dashboard{}, err
	}

	var dash Dashboard
	dash.Courses = len(courses)
	seen := make(map[string]struct{})
	for _, crs := range courses {
		for _, st := range crs.Students {
			if _, ok := seen[st.ID]; !ok {
				seen[st.ID] = struct{}{}
				dash.Students++
			}
		}
		dash.Assignments += len(crs.Assignments)
		dash.Resources += len(crs.Resources)
	}
	return dash, nil
}
