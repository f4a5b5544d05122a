package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/darasa/core"
	"github.com/mwalimu/darasa/core/course"
	"github.com/mwalimu/darasa/core/user"
)

var (
	errCrsNotFoundInCtx = errors.New("course object not found in echo.Context")

	contextCourseKey = "course"
)

type courseApi struct {
	svc   course.ServiceInterface
	users user.ServiceInterface
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc course.ServiceInterface, users user.ServiceInterface) {
	api := courseApi{svc: svc, users: users}

	cg := g.Group("/courses", jwt)
	cg.POST("", api.create, teacherMiddleware())
	cg.GET("", api.query)
	cg.GET("/dashboard", api.dashboard)
	cg.POST("/join", api.joinWithCode, teacherMiddleware())

	// detail endpoints; members only
	dg := cg.Group("/:id", courseAccessMiddleware(svc, users))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.GET("/code", api.teacherCode)
	dg.POST("/invite", api.inviteCoTeacher)
	dg.GET("/performance", api.performance)
	dg.GET("/leaderboard", api.leaderboard)

	dg.POST("/students", api.enroll)
	dg.DELETE("/students/:studentID", api.withdraw)

	dg.POST("/assignments", api.createAssignment)
	dg.PUT("/assignments/:assignmentID", api.updateAssignment)
	dg.DELETE("/assignments/:assignmentID", api.destroyAssignment)
	dg.POST("/assignments/:assignmentID/submissions", api.submit)
	dg.POST("/submissions/:submissionID/feedback", api.giveFeedback)

	dg.POST("/resources", api.addResource)
	dg.DELETE("/resources/:resourceID", api.destroyResource)
}

// courseAccessMiddleware loads the requested course into the context and
// hides it (404) from anyone who neither teaches it, is enrolled in it,
// nor is an admin.
func courseAccessMiddleware(svc course.ServiceInterface, users user.ServiceInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ctxUsr, err := getContextUser(ctx, users)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			crs, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == course.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding course by ID")
			}
			if !(ctxUsr.IsAdmin() || crs.IsTaughtBy(ctxUsr.ID) || crs.HasStudent(ctxUsr.ID)) {
				return errHttpNotFound
			}
			ctx.Set(contextCourseKey, crs)
			return next(ctx)
		}
	}
}

func getContextCourse(ctx echo.Context) (course.Course, error) {
	if crs, ok := ctx.Get(contextCourseKey).(course.Course); ok {
		return crs, nil
	}
	return course.Course{}, errors.Wrap(errCrsNotFoundInCtx, "retrieving object from context")
}

func canManageCourse(crs course.Course, usr user.User) bool {
	return usr.IsAdmin() || crs.IsTaughtBy(usr.ID)
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	courses, err := api.svc.QueryForUser(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) dashboard(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	dash, err := api.svc.Dashboard(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *courseApi) joinWithCode(ctx echo.Context) error {
	var data course.JoinCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to JoinCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.svc.JoinWithTeacherCode(ctx.Request().Context(), data.Code, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !canManageCourse(crs, ctxUsr) {
		return errHttpForbidden
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(crs); err != nil {
		return err
	}

	crs, err = api.svc.Update(ctx.Request().Context(), crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	// only the main teacher (or an admin) can delete a course
	if !(ctxUsr.IsAdmin() || crs.IsOwner(ctxUsr.ID)) {
		return errHttpForbidden
	}

	if err := api.svc.Delete(ctx.Request().Context(), crs.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) teacherCode(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !canManageCourse(crs, ctxUsr) {
		return errHttpForbidden
	}

	code, err := api.svc.CodeForCourse(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "deriving teacher code")
	}
	return ctx.JSON(http.StatusOK, TeacherCodeResponse{Code: code})
}

func (api *courseApi) inviteCoTeacher(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	// only the main teacher (or an admin) can invite co-teachers
	if !(ctxUsr.IsAdmin() || crs.IsOwner(ctxUsr.ID)) {
		return errHttpForbidden
	}

	var data course.InviteCoTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InviteCoTeacher")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	invitee, err := api.svc.InviteCoTeacher(ctx.Request().Context(), crs.ID, data.Email, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, invitee)
}

func (api *courseApi) performance(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !canManageCourse(crs, ctxUsr) {
		return errHttpForbidden
	}

	perfs, err := api.svc.Performance(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "computing performance")
	}
	return ctx.JSON(http.StatusOK, perfs)
}

func (api *courseApi) leaderboard(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}

	board, err := api.svc.Leaderboard(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "computing leaderboard")
	}
	return ctx.JSON(http.StatusOK, board)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !canManageCourse(crs, ctxUsr) {
		return errHttpForbidden
	}

	var data EnrollRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	student, err := api.users.GetByID(reqCtx, data.StudentID)
	if err != nil {
		return err
	}
	if !student.IsStudent() {
		return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "user is not a student"})
	}

	if err := api.svc.Enroll(reqCtx, crs.ID, student.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) withdraw(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	studentID := ctx.Param("studentID")
	// students may withdraw themselves; teachers may withdraw anyone
	if !(canManageCourse(crs, ctxUsr) || ctxUsr.ID == studentID) {
		return errHttpForbidden
	}

	if err := api.svc.Withdraw(ctx.Request().Context(), crs.ID, studentID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) createAssignment(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !canManageCourse(crs, ctxUsr) {
		return errHttpForbidden
	}

	var data course.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	a, err := api.svc.CreateAssignment(ctx.Request().Context(), crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

// courseAssignment returns the course's assignment matching the path param,
// hiding assignments of other courses.
func courseAssignment(ctx echo.Context, crs course.Course) (course.Assignment, error) {
	id := ctx.Param("assignmentID")
	for _, a := range crs.Assignments {
		if a.ID == id {
			return a, nil
		}
	}
	return course.Assignment{}, errHttpNotFound
}

func (api *courseApi) updateAssignment(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !canManageCourse(crs, ctxUsr) {
		return errHttpForbidden
	}

	a, err := courseAssignment(ctx, crs)
	if err != nil {
		return err
	}

	var data course.UpdateAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateAssignment")
	}
	if err := data.Validate(a); err != nil {
		return err
	}

	a, err = api.svc.UpdateAssignment(ctx.Request().Context(), a.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *courseApi) destroyAssignment(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !canManageCourse(crs, ctxUsr) {
		return errHttpForbidden
	}

	a, err := courseAssignment(ctx, crs)
	if err != nil {
		return err
	}

	if err := api.svc.DeleteAssignments(ctx.Request().Context(), a.ID); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) submit(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	a, err := courseAssignment(ctx, crs)
	if err != nil {
		return err
	}

	data := course.NewSubmission{AssignmentID: a.ID}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	data.AssignmentID = a.ID // path param wins
	if err := data.Validate(); err != nil {
		return err
	}

	sub, err := api.svc.Submit(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *courseApi) giveFeedback(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !canManageCourse(crs, ctxUsr) {
		return errHttpForbidden
	}

	// the submission must belong to this course
	subID := ctx.Param("submissionID")
	var found bool
	for _, a := range crs.Assignments {
		for _, sub := range a.Submissions {
			if sub.ID == subID {
				found = true
				break
			}
		}
	}
	if !found {
		return errHttpNotFound
	}

	var data course.NewFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFeedback")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	fb, err := api.svc.GiveFeedback(ctx.Request().Context(), subID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, fb)
}

func (api *courseApi) addResource(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !canManageCourse(crs, ctxUsr) {
		return errHttpForbidden
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "file is required"})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer file.Close()

	data := course.NewResource{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
	}
	if name := ctx.FormValue("name"); name != "" {
		data.Name = name
	}
	if err := data.Validate(); err != nil {
		return err
	}

	res, err := api.svc.AddResource(ctx.Request().Context(), crs.ID, ctxUsr, data, file)
	if err != nil {
		return errors.Wrap(err, "adding resource")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *courseApi) destroyResource(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !canManageCourse(crs, ctxUsr) {
		return errHttpForbidden
	}

	id := ctx.Param("resourceID")
	var found bool
	for _, res := range crs.Resources {
		if res.ID == id {
			found = true
			break
		}
	}
	if !found {
		return errHttpNotFound
	}

	if err := api.svc.DeleteResource(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	EnrollRequest struct {
		StudentID string `json:"student_id" validate:"required"`
	}

	TeacherCodeResponse struct {
		Code string `json:"code"`
	}
)

func (er *EnrollRequest) Validate() error {
	er.StudentID = core.CleanString(er.StudentID)
	return core.Validate.Struct(er)
}
