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

type studentApi struct {
	validate      *validator.Validate
	userSvc       *user.Service
	enrollmentSvc *enrollment.Service
	quizSvc       *quiz.Service
}

func registerStudentAPI(g *echo.Group, opts *Options) {
	api := studentApi{
		validate:      opts.Validate,
		userSvc:       opts.UserSvc,
		enrollmentSvc: opts.EnrollmentSvc,
		quizSvc:       opts.QuizSvc,
	}

	g.GET("/profile", api.profile)
	g.GET("/enrollments", api.enrollments)
	g.GET("/quizzes", api.queryQuizzes)
	g.GET("/quiz/:id", api.retrieveQuiz)
	g.POST("/quiz/:id/submit", api.submitQuiz)
}

func (api *studentApi) profile(ctx echo.Context) error {
	studentID, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	student, err := api.userSvc.GetPerson(ctx.Request().Context(), user.RoleStudent, studentID)
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, student)
}

func (api *studentApi) enrollments(ctx echo.Context) error {
	studentID, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	se, err := api.enrollmentSvc.StudentEnrollment(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "getting student enrollment")
	}
	return ctx.JSON(http.StatusOK, se)
}

func (api *studentApi) queryQuizzes(ctx echo.Context) error {
	studentID, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	views, err := api.quizSvc.QueryForStudent(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying quizzes")
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api *studentApi) retrieveQuiz(ctx echo.Context) error {
	studentID, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	v, err := api.quizSvc.GetForStudent(ctx.Request().Context(), studentID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting quiz")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *studentApi) submitQuiz(ctx echo.Context) error {
	studentID, err := contextSubject(ctx)
	if err != nil {
		return err
	}
	var data quiz.Submission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	mark, err := api.quizSvc.Submit(ctx.Request().Context(), studentID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "submitting quiz")
	}
	return ctx.JSON(http.StatusCreated, mark)
}
