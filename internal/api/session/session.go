// Package session carries the auth-token cookie and verified claims across
// the HTTP layer.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/handyhub/accounts/internal/core/domain"
	"github.com/handyhub/accounts/internal/core/ports"
)

// CookieName is the cookie holding the session token.
const CookieName = "auth-token"

const claimsKey = "session.claims"

// Cookies builds the session cookie. Secure is set in production only so
// that plain-HTTP development setups keep working.
type Cookies struct {
	Secure bool
}

// Issue returns the cookie that hands token to the browser.
func (c Cookies) Issue(token string) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(domain.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Clear returns a cookie that makes the browser drop the session.
func (c Cookies) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Token extracts the session token from the auth-token cookie, falling back
// to an "Authorization: Bearer" header for non-browser clients.
func Token(c echo.Context) string {
	if ck, err := c.Cookie(CookieName); err == nil && ck.Value != "" {
		return ck.Value
	}

	parts := strings.SplitN(c.Request().Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// SetClaims stores verified claims on the request context.
func SetClaims(c echo.Context, claims *ports.Claims) {
	c.Set(claimsKey, claims)
}

// Claims returns the claims stored by SetClaims, or nil.
func Claims(c echo.Context) *ports.Claims {
	claims, _ := c.Get(claimsKey).(*ports.Claims)
	return claims
}
