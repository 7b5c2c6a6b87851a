package echoapi

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/enrollment"
)

type teacherAssignmentApi struct {
	svc *enrollment.Service
}

func registerTeacherAssignmentAPI(g *echo.Group, opts *Options) {
	api := teacherAssignmentApi{svc: opts.EnrollmentSvc}

	g.POST("", api.create)
	g.GET("", api.query)
	g.GET("/teacher/:teacherId", api.queryByTeacher)
	g.GET("/classes/available", api.availableClasses)
	g.GET("/courses/available", api.availableCourses)
	g.GET("/courses/by-class/:classId", api.coursesByClass)
	g.GET("/:id", api.retrieve)
	g.PUT("/:id", api.update)
	g.DELETE("/:id", api.destroy)
}

func (api *teacherAssignmentApi) create(ctx echo.Context) error {
	var data enrollment.TeacherAssignmentData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherAssignmentData")
	}

	ta, err := api.svc.CreateTeacherAssignment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher assignment")
	}
	return ctx.JSON(http.StatusCreated, ta)
}

func (api *teacherAssignmentApi) query(ctx echo.Context) error {
	page, err := api.svc.QueryTeacherAssignments(ctx.Request().Context(), "", bindPageQuery(ctx))
	if err != nil {
		return errors.Wrap(err, "querying teacher assignments")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *teacherAssignmentApi) queryByTeacher(ctx echo.Context) error {
	teacherID := ctx.Param("teacherId")
	if _, err := uuid.Parse(teacherID); err != nil {
		return errHttpNotFound
	}

	page, err := api.svc.QueryTeacherAssignments(ctx.Request().Context(), teacherID, bindPageQuery(ctx))
	if err != nil {
		return errors.Wrap(err, "querying teacher assignments")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *teacherAssignmentApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	ta, err := api.svc.GetTeacherAssignment(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting teacher assignment")
	}
	return ctx.JSON(http.StatusOK, ta)
}

func (api *teacherAssignmentApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data enrollment.TeacherAssignmentData
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherAssignmentData")
	}

	ta, err := api.svc.UpdateTeacherAssignment(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher assignment")
	}
	return ctx.JSON(http.StatusOK, ta)
}

func (api *teacherAssignmentApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteTeacherAssignment(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting teacher assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *teacherAssignmentApi) availableClasses(ctx echo.Context) error {
	classes, err := api.svc.AvailableClasses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing classes")
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *teacherAssignmentApi) availableCourses(ctx echo.Context) error {
	courses, err := api.svc.AvailableCourses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *teacherAssignmentApi) coursesByClass(ctx echo.Context) error {
	classID, err := paramID(ctx, "classId")
	if err != nil {
		return err
	}
	courses, err := api.svc.CoursesByClass(ctx.Request().Context(), classID)
	if err != nil {
		return errors.Wrap(err, "listing courses by class")
	}
	return ctx.JSON(http.StatusOK, courses)
}
