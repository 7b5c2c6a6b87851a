package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/enrollment"
)

type assignmentApi struct {
	svc *enrollment.Service
}

func registerAssignmentAPI(g *echo.Group, opts *Options) {
	api := assignmentApi{svc: opts.EnrollmentSvc}

	g.GET("/:relation", api.query)
	g.POST("/:relation", api.assign)
	g.DELETE("/:relation", api.unassign)
}

func relationParam(ctx echo.Context) (enrollment.Relation, error) {
	rel, ok := enrollment.ParseRelation(ctx.Param("relation"))
	if !ok {
		return "", errHttpNotFound
	}
	return rel, nil
}

func (api *assignmentApi) query(ctx echo.Context) error {
	rel, err := relationParam(ctx)
	if err != nil {
		return err
	}
	filter := enrollment.LinkData{
		ClassID:   queryInt(ctx, "classId"),
		CourseID:  queryInt(ctx, "courseId"),
		TeacherID: ctx.QueryParam("teacherId"),
		StudentID: ctx.QueryParam("studentId"),
	}

	links, err := api.svc.QueryLinks(ctx.Request().Context(), rel, filter)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	return ctx.JSON(http.StatusOK, links)
}

func (api *assignmentApi) assign(ctx echo.Context) error {
	rel, err := relationParam(ctx)
	if err != nil {
		return err
	}
	var data enrollment.LinkData
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LinkData")
	}

	link, err := api.svc.Assign(ctx.Request().Context(), rel, data)
	if err != nil {
		return errors.Wrapf(err, "assigning %s", rel)
	}
	return ctx.JSON(http.StatusCreated, link)
}

func (api *assignmentApi) unassign(ctx echo.Context) error {
	rel, err := relationParam(ctx)
	if err != nil {
		return err
	}
	var data enrollment.LinkData
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LinkData")
	}

	deleted, err := api.svc.Unassign(ctx.Request().Context(), rel, data)
	if err != nil {
		return errors.Wrapf(err, "unassigning %s", rel)
	}
	return ctx.JSON(http.StatusOK, deleted)
}
