package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/enrollment"
	"github.com/trezcool/shule/core/quiz"
	"github.com/trezcool/shule/core/user"
)

type teacherApi struct {
	validate      *validator.Validate
	userSvc       *user.Service
	enrollmentSvc *enrollment.Service
	quizSvc       *quiz.Service
}

func registerTeacherAPI(g *echo.Group, opts *Options) {
	api := teacherApi{
		validate:      opts.Validate,
		userSvc:       opts.UserSvc,
		enrollmentSvc: opts.EnrollmentSvc,
		quizSvc:       opts.QuizSvc,
	}

	g.GET("/profile", api.profile)
	g.GET("/assignments", api.queryAssignments)
	g.GET("/assignments/:id", api.retrieveAssignment)
	g.POST("/quiz", api.createQuiz)
	g.GET("/quizzes", api.queryQuizzes)
	g.GET("/quiz/:id", api.retrieveQuiz)
	g.GET("/quiz/:id/details", api.quizDetails)
}

func (api *teacherApi) profile(ctx echo.Context) error {
	teacherID, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	teacher, err := api.userSvc.GetPerson(ctx.Request().Context(), user.RoleTeacher, teacherID)
	if err != nil {
		return errors.Wrap(err, "getting teacher")
	}
	return ctx.JSON(http.StatusOK, teacher)
}

func (api *teacherApi) queryAssignments(ctx echo.Context) error {
	teacherID, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	page, err := api.enrollmentSvc.QueryTeacherAssignments(ctx.Request().Context(), teacherID, bindPageQuery(ctx))
	if err != nil {
		return errors.Wrap(err, "querying teacher assignments")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *teacherApi) retrieveAssignment(ctx echo.Context) error {
	teacherID, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	ta, err := api.enrollmentSvc.TeacherAssignment(ctx.Request().Context(), teacherID, id)
	if err != nil {
		return errors.Wrap(err, "getting teacher assignment")
	}
	return ctx.JSON(http.StatusOK, ta)
}

func (api *teacherApi) createQuiz(ctx echo.Context) error {
	teacherID, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	var data quiz.NewQuiz
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	v, err := api.quizSvc.Create(ctx.Request().Context(), teacherID, data)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, v)
}

func (api *teacherApi) queryQuizzes(ctx echo.Context) error {
	teacherID, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	filter := quiz.QueryFilter{
		ClassID:  queryInt(ctx, "classId"),
		CourseID: queryInt(ctx, "courseId"),
	}
	page, err := api.quizSvc.QueryForTeacher(ctx.Request().Context(), teacherID, filter, bindPageQuery(ctx))
	if err != nil {
		return errors.Wrap(err, "querying quizzes")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *teacherApi) retrieveQuiz(ctx echo.Context) error {
	teacherID, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	v, err := api.quizSvc.GetForTeacher(ctx.Request().Context(), teacherID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting quiz")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *teacherApi) quizDetails(ctx echo.Context) error {
	teacherID, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	details, found, err := api.quizSvc.DetailsWithLeaderboard(ctx.Request().Context(), teacherID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting quiz details")
	}
	if !found {
		return quiz.ErrNotFound
	}
	return ctx.JSON(http.StatusOK, details)
}
