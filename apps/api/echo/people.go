package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/user"
)

// peopleApi serves the admin listing of teachers or students.
type peopleApi struct {
	adminApi
	role user.Role
}

func registerPeopleAPI(g *echo.Group, role user.Role, admin adminApi) {
	api := peopleApi{adminApi: admin, role: role}

	g.GET("", api.query)
	g.POST("", api.create)
	g.GET("/:id", api.retrieve)
	g.DELETE("/:id", api.destroy)
}

func (api *peopleApi) query(ctx echo.Context) error {
	page, err := api.userSvc.QueryPeople(ctx.Request().Context(), api.role, bindPageQuery(ctx))
	if err != nil {
		return errors.Wrapf(err, "querying %ss", api.role)
	}
	return ctx.JSON(http.StatusOK, page)
}

func (api *peopleApi) create(ctx echo.Context) error {
	var data user.NewPerson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPerson")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.userSvc.CreatePerson(ctx.Request().Context(), api.role, data)
	if err != nil {
		return errors.Wrapf(err, "creating %s", api.role)
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *peopleApi) retrieve(ctx echo.Context) error {
	p, err := api.userSvc.GetPerson(ctx.Request().Context(), api.role, ctx.Param("id"))
	if err != nil {
		return errors.Wrapf(err, "getting %s", api.role)
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *peopleApi) destroy(ctx echo.Context) error {
	if err := api.userSvc.DeletePerson(ctx.Request().Context(), api.role, ctx.Param("id")); err != nil {
		return errors.Wrapf(err, "deleting %s", api.role)
	}
	return ctx.NoContent(http.StatusNoContent)
}
