package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/handyhub/accounts/internal/api/session"
	"github.com/handyhub/accounts/internal/core/ports"
)

// ctxClaims returns the session claims injected by the Auth middleware.
// Missing claims mean the route was mounted without the middleware, which is
// answered as an unauthenticated request rather than a panic.
func ctxClaims(c echo.Context) (*ports.Claims, error) {
	claims := session.Claims(c)
	if claims == nil || claims.UserID == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return claims, nil
}
