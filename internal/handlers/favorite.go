package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dkazancev/product_catalog/internal/logging"
	authmw "github.com/dkazancev/product_catalog/internal/middleware/auth"
)

func (h *ProductHandler) AddFavorite(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "favorite_add")

	username, ok := authmw.Identity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	productID := c.Param("id")
	added, err := h.Svc.AddFavorite(ctx, username, productID)
	if err != nil {
		l.Warn("favorite_add_failed", "error", err)
		return mapError(err)
	}

	if !added {
		return c.JSON(http.StatusOK, echo.Map{"detail": "product already in favorites"})
	}

	h.publish(c, username, map[string]any{
		"type":       "favorite_added",
		"product_id": productID,
		"username":   username,
	})

	l.Info("favorite_add_success", "product_id", productID)
	return c.JSON(http.StatusOK, echo.Map{"detail": "product added to favorites"})
}

func (h *ProductHandler) RemoveFavorite(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "favorite_remove")

	username, ok := authmw.Identity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	productID := c.Param("id")
	removed, err := h.Svc.RemoveFavorite(ctx, username, productID)
	if err != nil {
		l.Warn("favorite_remove_failed", "error", err)
		return mapError(err)
	}

	if !removed {
		return c.JSON(http.StatusOK, echo.Map{"detail": "product not in favorites"})
	}

	h.publish(c, username, map[string]any{
		"type":       "favorite_removed",
		"product_id": productID,
		"username":   username,
	})

	return c.JSON(http.StatusOK, echo.Map{"detail": "product removed from favorites"})
}

func (h *ProductHandler) GetFavorites(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "favorite_list")

	username, ok := authmw.Identity(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}

	items, err := h.Svc.ListFavorites(ctx, username)
	if err != nil {
		l.Error("favorite_list_failed", "error", err)
		return mapError(err)
	}

	return c.JSON(http.StatusOK, items)
}
