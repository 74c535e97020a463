package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/handyhub/accounts/internal/api/session"
	"github.com/handyhub/accounts/internal/core/domain"
)

// RequireUserType admits only sessions whose account type is listed.
// Must run after Auth.
func RequireUserType(allowed ...domain.UserType) echo.MiddlewareFunc {
	set := make(map[domain.UserType]struct{}, len(allowed))
	for _, t := range allowed {
		set[t] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := session.Claims(c)
			if claims == nil {
				return domain.ErrForbidden
			}
			if _, ok := set[claims.UserType]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
