package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type Claims struct {
	Username string
	Role     string
}

type Middleware struct {
	JWTSecret []byte
}

func New(secret []byte) *Middleware {
	return &Middleware{JWTSecret: secret}
}

type ValidatorFunc func(claims *Claims) error

func (m *Middleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, nil)
}

func (m *Middleware) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return m.requireAuthWithValidator(next, func(claims *Claims) error {
		if claims.Role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return nil
	})
}

func (m *Middleware) requireAuthWithValidator(next echo.HandlerFunc, validator ValidatorFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := m.claimsFromRequest(c)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}

		if validator != nil {
			if validationErr := validator(claims); validationErr != nil {
				return validationErr
			}
		}

		setUserContext(c, claims)
		return next(c)
	}
}

func (m *Middleware) claimsFromRequest(c echo.Context) (*Claims, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return nil, fmt.Errorf("missing authorization header")
	}
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return nil, fmt.Errorf("authorization header is not a bearer token")
	}

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	username, ok := mapClaims["sub"].(string)
	if !ok || username == "" {
		return nil, fmt.Errorf("invalid subject claim")
	}
	role, _ := mapClaims["role"].(string)

	return &Claims{Username: username, Role: role}, nil
}

func setUserContext(c echo.Context, claims *Claims) {
	c.Set("username", claims.Username)
	c.Set("role", claims.Role)
}

// Identity reads the authenticated username placed by the middleware.
func Identity(c echo.Context) (string, bool) {
	username, ok := c.Get("username").(string)
	return username, ok && username != ""
}

func IsAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == "admin"
}
