package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/enrollment"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type adminApi struct {
	tokens        *tokenIssuer
	validate      *validator.Validate
	userSvc       *user.Service
	schoolSvc     *school.Service
	enrollmentSvc *enrollment.Service
}

func registerAdminAPI(g *echo.Group, tokens *tokenIssuer, opts *Options) {
	api := adminApi{
		tokens:        tokens,
		validate:      opts.Validate,
		userSvc:       opts.UserSvc,
		schoolSvc:     opts.SchoolSvc,
		enrollmentSvc: opts.EnrollmentSvc,
	}

	// un-authed endpoints
	g.POST("/login", api.login)

	// authed endpoints
	ag := g.Group("", tokens.middleware(user.RoleAdmin))

	cg := ag.Group("/classes")
	cg.GET("", api.queryClasses)
	cg.POST("", api.createClass)
	cg.GET("/:id", api.retrieveClass)
	cg.PUT("/:id", api.updateClass)
	cg.DELETE("/:id", api.destroyClass)
	cg.GET("/:id/courses", api.classCourses)

	crg := ag.Group("/courses")
	crg.GET("", api.queryCourses)
	crg.POST("", api.createCourse)
	crg.GET("/:id", api.retrieveCourse)
	crg.PUT("/:id", api.updateCourse)
	crg.DELETE("/:id", api.destroyCourse)

	registerPeopleAPI(ag.Group("/students"), user.RoleStudent, api)
	registerPeopleAPI(ag.Group("/teachers"), user.RoleTeacher, api)

	sg := ag.Group("/students/:id/class")
	sg.PUT("", api.assignStudentClass)
	sg.DELETE("", api.removeStudentClass)

	registerAssignmentAPI(ag.Group("/assignments"), opts)
	registerTeacherAssignmentAPI(ag.Group("/teacher-assignments"), opts)
}

// Auth

func (api *adminApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	admin, err := api.userSvc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.tokens.generateToken(api.tokens.adminClaims(admin))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		Admin:       AdminInfo{ID: admin.ID, Username: admin.Username},
	})
}

// Classes

func (api *adminApi) queryClasses(ctx echo.Context) error {
	page, err := api.schoolSvc.QueryClasses(ctx.Request().Context(), bindPageQuery(ctx))
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *adminApi) createClass(ctx echo.Context) error {
	var data school.NameData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NameData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	class, err := api.schoolSvc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, class)
}

func (api *adminApi) retrieveClass(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	class, err := api.schoolSvc.GetClass(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting class")
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *adminApi) updateClass(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data school.NameData
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NameData")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	class, err := api.schoolSvc.UpdateClass(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return ctx.JSON(http.StatusOK, class)
}

func (api *adminApi) destroyClass(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.schoolSvc.DeleteClass(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *adminApi) classCourses(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	courses, err := api.enrollmentSvc.CoursesOfClass(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting courses of class")
	}
	return ctx.JSON(http.StatusOK, courses)
}

// Courses

func (api *adminApi) queryCourses(ctx echo.Context) error {
	page, err := api.schoolSvc.QueryCourses(ctx.Request().Context(), bindPageQuery(ctx))
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *adminApi) createCourse(ctx echo.Context) error {
	var data school.NameData
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NameData")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	course, err := api.schoolSvc.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, course)
}

func (api *adminApi) retrieveCourse(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	course, err := api.schoolSvc.GetCourse(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *adminApi) updateCourse(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var data school.NameData
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NameData")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	course, err := api.schoolSvc.UpdateCourse(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, course)
}

func (api *adminApi) destroyCourse(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err = api.schoolSvc.DeleteCourse(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Students' class

func (api *adminApi) assignStudentClass(ctx echo.Context) error {
	var data StudentClassRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StudentClassRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	count, err := api.enrollmentSvc.AssignStudentToClass(ctx.Request().Context(), ctx.Param("id"), data.ClassID)
	if err != nil {
		return errors.Wrap(err, "assigning student to class")
	}
	return ctx.JSON(http.StatusOK, StudentClassResponse{ClassID: data.ClassID, CoursesEnrolled: count})
}

func (api *adminApi) removeStudentClass(ctx echo.Context) error {
	if err := api.enrollmentSvc.RemoveStudentFromClass(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "removing student from class")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	LoginRequest struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	AdminInfo struct {
		ID       int    `json:"id"`
		Username string `json:"username"`
	}

	LoginResponse struct {
		AccessToken string    `json:"accessToken"`
		Admin       AdminInfo `json:"admin"`
	}

	StudentClassRequest struct {
		ClassID int `json:"classId" validate:"required,min=1"`
	}

	StudentClassResponse struct {
		ClassID         int `json:"classId"`
		CoursesEnrolled int `json:"coursesEnrolled"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Username = core.CleanString(lr.Username, true /* lower */)
	return validate.Struct(lr)
}
