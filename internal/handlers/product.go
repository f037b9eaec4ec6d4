package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dkazancev/product_catalog/internal/catalog"
	"github.com/dkazancev/product_catalog/internal/logging"
	authmw "github.com/dkazancev/product_catalog/internal/middleware/auth"
	"github.com/dkazancev/product_catalog/internal/mykafka"
	"github.com/dkazancev/product_catalog/internal/repo"
	"github.com/dkazancev/product_catalog/internal/transport"
	"github.com/dkazancev/product_catalog/internal/util"
)

type ProductHandler struct {
	Svc      *catalog.CatalogService
	Producer *mykafka.Producer
}

func (h *ProductHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "product_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Warn("kafka_publish_failed", "error", err)
	}
}

// mapError translates service error kinds to HTTP statuses.
func mapError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "product not found")
	case errors.Is(err, catalog.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, catalog.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "unknown identity")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func parseFilter(c echo.Context) (repo.ListFilter, error) {
	var f repo.ListFilter
	q := c.QueryParams()

	if q.Has("name") {
		name := q.Get("name")
		f.Name = &name
	}
	if q.Has("category") {
		category := q.Get("category")
		f.Category = &category
	}
	if q.Has("min_price") {
		v, err := strconv.ParseFloat(q.Get("min_price"), 64)
		if err != nil {
			return f, fmt.Errorf("min_price: not a number")
		}
		f.MinPrice = &v
	}
	if q.Has("max_price") {
		v, err := strconv.ParseFloat(q.Get("max_price"), 64)
		if err != nil {
			return f, fmt.Errorf("max_price: not a number")
		}
		f.MaxPrice = &v
	}
	return f, nil
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_list")

	username, ok := authmw.Identity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	page, err := util.ParsePage(c.QueryParam("page"), util.DefaultPage)
	if err != nil {
		l.Warn("list_failed", "status", 400, "reason", "bad_page", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "page: "+err.Error())
	}
	size, err := util.ParsePage(c.QueryParam("size"), util.DefaultPageSize)
	if err != nil {
		l.Warn("list_failed", "status", 400, "reason", "bad_size", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "size: "+err.Error())
	}

	filter, err := parseFilter(c)
	if err != nil {
		l.Warn("list_failed", "status", 400, "reason", "bad_filter", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.Svc.List(ctx, username, page, size, filter)
	if err != nil {
		l.Error("list_failed", "error", err)
		return mapError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_get")

	prod, err := h.Svc.GetProduct(ctx, c.Param("id"))
	if err != nil {
		l.Warn("get_product_failed", "error", err)
		return mapError(err)
	}

	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_create")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_product_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		l.Warn("create_product_failed", "error", err)
		return mapError(err)
	}

	username, _ := authmw.Identity(c)
	h.publish(c, username, map[string]any{
		"type":       "product_created",
		"product_id": prod.ID,
		"name":       prod.Name,
	})

	l.Info("create_product_success", "product_id", prod.ID)
	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_patch")

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_product_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	prod, err := h.Svc.PatchProduct(ctx, c.Param("id"), req)
	if err != nil {
		l.Warn("patch_product_failed", "error", err)
		return mapError(err)
	}

	username, _ := authmw.Identity(c)
	h.publish(c, username, map[string]any{
		"type":       "product_updated",
		"product_id": prod.ID,
		"name":       prod.Name,
	})

	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product_delete")

	id := c.Param("id")
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		l.Warn("delete_product_failed", "error", err)
		return mapError(err)
	}

	username, _ := authmw.Identity(c)
	h.publish(c, username, map[string]any{
		"type":       "product_deleted",
		"product_id": id,
	})

	return c.NoContent(http.StatusNoContent)
}
