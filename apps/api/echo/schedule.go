package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/darasa/core/course"
	"github.com/mwalimu/darasa/core/schedule"
	"github.com/mwalimu/darasa/core/user"
)

const defaultUpcomingLimit = 10

type scheduleApi struct {
	svc     schedule.ServiceInterface
	courses course.ServiceInterface
	users   user.ServiceInterface
}

func registerScheduleAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc schedule.ServiceInterface,
	courses course.ServiceInterface,
	users user.ServiceInterface,
) {
	api := scheduleApi{svc: svc, courses: courses, users: users}

	g.GET("/events/upcoming", api.upcoming, jwt)

	eg := g.Group("/courses/:id/events", jwt, courseAccessMiddleware(courses, users))
	eg.GET("", api.query)
	eg.POST("", api.create)
	eg.PUT("/:eventID", api.update)
	eg.DELETE("/:eventID", api.destroy)
}

// upcoming lists the next events across every course the user belongs to.
func (api *scheduleApi) upcoming(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.users)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	reqCtx := ctx.Request().Context()
	courses, err := api.courses.QueryForUser(reqCtx, ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	courseIDs := make([]string, 0, len(courses))
	for _, crs := range courses {
		courseIDs = append(courseIDs, crs.ID)
	}

	limit := defaultUpcomingLimit
	if raw := ctx.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	events, err := api.svc.Upcoming(reqCtx, courseIDs, limit)
	if err != nil {
		return errors.Wrap(err, "querying upcoming events")
	}
	if events == nil {
		events = []schedule.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *scheduleApi) query(ctx echo.Context) error {
	crs, err := getContextCourse(ctx)
	if err != nil {
		return err
	}

	events, err := api.svc.QueryByCourse(ctx.Request().Context(), crs.ID)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []schedule.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *scheduleApi) create(ctx echo.Context) error {
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

	var data schedule.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	evt, err := api.svc.Create(ctx.Request().Context(), crs.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, evt)
}

// courseEvent fetches the event and hides events of other courses.
func (api *scheduleApi) courseEvent(ctx echo.Context, crs course.Course) (schedule.Event, error) {
	evt, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("eventID"))
	if err != nil {
		if errors.Cause(err) == schedule.ErrNotFound {
			return schedule.Event{}, errHttpNotFound
		}
		return schedule.Event{}, errors.Wrap(err, "finding event by ID")
	}
	if evt.CourseID != crs.ID {
		return schedule.Event{}, errHttpNotFound
	}
	return evt, nil
}

func (api *scheduleApi) update(ctx echo.Context) error {
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

	evt, err := api.courseEvent(ctx, crs)
	if err != nil {
		return err
	}

	var data schedule.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err := data.Validate(evt); err != nil {
		return err
	}

	evt, err = api.svc.Update(ctx.Request().Context(), evt.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, evt)
}

func (api *scheduleApi) destroy(ctx echo.Context) error {
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

	evt, err := api.courseEvent(ctx, crs)
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), evt.ID); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}
