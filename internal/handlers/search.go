package handlers

import (
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"

	"github.com/dkazancev/product_catalog/internal/logging"
	"github.com/dkazancev/product_catalog/internal/search"
	"github.com/dkazancev/product_catalog/internal/util"
)

type SearchHandler struct {
	ES    *elasticsearch.Client
	Index string
}

func (h *SearchHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "search")

	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	page, err := util.ParsePage(c.QueryParam("page"), util.DefaultPage)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "page: "+err.Error())
	}
	size, err := util.ParsePage(c.QueryParam("size"), util.DefaultPageSize)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "size: "+err.Error())
	}
	from, size := util.Calculate(page, size)

	total, products, err := search.Search(ctx, h.ES, h.Index, q, from, size)
	if err != nil {
		l.Error("search_failed", "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "search failed")
	}

	return c.JSON(http.StatusOK, echo.Map{"total": total, "products": products})
}
