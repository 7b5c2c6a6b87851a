package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core"
)

const (
	orderingParam = "ordering"
	pageParam     = "page"
	limitParam    = "limit"
	searchParam   = "search"
)

// bindPageQuery reads `page`, `limit`, `search` and `ordering` from the query string.
// Malformed numbers fall back to the defaults applied by PageQuery.Clean.
func bindPageQuery(ctx echo.Context) core.PageQuery {
	q := core.PageQuery{
		Page:      queryInt(ctx, pageParam),
		Limit:     queryInt(ctx, limitParam),
		Search:    ctx.QueryParam(searchParam),
		Orderings: bindOrderings(ctx),
	}
	q.Clean()
	return q
}

// bindOrderings parses `ordering=name,-createdAt`: a leading "-" sorts descending.
func bindOrderings(ctx echo.Context) []core.DBOrdering {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return nil
	}

	var orderings []core.DBOrdering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		orderings = append(orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}

func queryInt(ctx echo.Context, name string) int {
	n, err := strconv.Atoi(ctx.QueryParam(name))
	if err != nil {
		return 0
	}
	return n
}

// paramID parses an integer path parameter; anything else is a 404.
func paramID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}
