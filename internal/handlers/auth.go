package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/dkazancev/product_catalog/internal/hash"
	"github.com/dkazancev/product_catalog/internal/logging"
	"github.com/dkazancev/product_catalog/internal/models"
	"github.com/dkazancev/product_catalog/internal/mykafka"
	"github.com/dkazancev/product_catalog/internal/repo"
	"github.com/dkazancev/product_catalog/internal/transport"
)

// Usernames are restricted to this charset so the cache key delimiter can
// never appear inside an identity.
var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

const accessTokenTTL = 30 * time.Minute

type AuthHandler struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
	Producer  *mykafka.Producer
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		logging.FromContext(c.Request().Context()).Warn("kafka_publish_failed", "error", err)
	}
}

func (h *AuthHandler) signToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.Username,
		"role": user.Role,
		"exp":  time.Now().Add(accessTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.JWTSecret)
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if !usernameRe.MatchString(req.Username) {
		l.Warn("register_failed", "status", 400, "reason", "bad_username")
		return echo.NewHTTPError(http.StatusBadRequest, "username must be 3-32 characters of [A-Za-z0-9_]")
	}
	if len(req.Password) < 8 {
		l.Warn("register_failed", "status", 400, "reason", "bad_password")
		return echo.NewHTTPError(http.StatusBadRequest, "password must be at least 8 characters")
	}

	if _, err := h.Repo.GetUserByUsername(ctx, req.Username); err == nil {
		l.Warn("register_failed", "status", 409, "reason", "user_exists")
		return echo.NewHTTPError(http.StatusConflict, "user already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("register_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		PasswordHash: pwHash,
		Role:         "user",
	}
	if err := h.Repo.CreateUser(ctx, &user); err != nil {
		l.Error("register_failed", "status", 500, "reason", "db_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	accessToken, err := h.signToken(&user)
	if err != nil {
		l.Error("register_failed", "status", 500, "reason", "cannot create token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create token")
	}

	h.publish(c, user.Username, map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})

	l.Info("register_success")
	return c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken: accessToken,
		Role:        user.Role,
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_failed", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		l.Warn("login_failed", "status", 401, "reason", "invalid username or password")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}

	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid username or password")
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid username or password")
	}

	accessToken, err := h.signToken(user)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot create token", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot create token")
	}

	h.publish(c, user.Username, map[string]any{
		"type":     "user_logged_in",
		"user_id":  user.ID,
		"username": user.Username,
	})

	l.Info("login_success")
	return c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken: accessToken,
		Role:        user.Role,
	})
}
