package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/handyhub/accounts/internal/api/session"
	"github.com/handyhub/accounts/internal/core/domain"
	"github.com/handyhub/accounts/internal/core/ports"
)

// Authenticator verifies a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*ports.Claims, error)
}

// Auth resolves the session token from the cookie or bearer header and
// injects the verified claims into the context.
func Auth(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := session.Token(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}

			claims, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidSession) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired session")
				}
				return err
			}

			session.SetClaims(c, claims)
			return next(c)
		}
	}
}
