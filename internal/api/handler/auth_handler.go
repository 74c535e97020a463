package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/handyhub/accounts/internal/api/metrics"
	"github.com/handyhub/accounts/internal/api/session"
	"github.com/handyhub/accounts/internal/core/domain"
	"github.com/handyhub/accounts/internal/core/ports"
)

const (
	msgInvalidLogin = "Invalid email or password"
	msgLoggedIn     = "Logged in successfully"
	msgLoggedOut    = "Logged out successfully"
	msgUserNotFound = "User not found"
)

// AuthHandler serves login, logout and current-account lookups.
type AuthHandler struct {
	authService ports.AuthService // nil when no database is configured
	cookies     session.Cookies
	log         zerolog.Logger
}

func NewAuthHandler(authService ports.AuthService, cookies session.Cookies, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies, log: log}
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates an account and starts a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  failureResponse
// @Failure      401   {object}  failureResponse
// @Failure      500   {object}  failureResponse
// @Failure      503   {object}  failureResponse
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error().Err(err).Msg("login api error")
		return fail(c, http.StatusInternalServerError, msgInternal)
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, msgMissingFields)
	}
	if h.authService == nil {
		return fail(c, http.StatusServiceUnavailable, msgDBNotConfigured)
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return fail(c, http.StatusUnauthorized, msgInvalidLogin)
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Msg("login failed")
		return fail(c, http.StatusInternalServerError, msgInternal)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	c.SetCookie(h.cookies.Issue(token))
	return c.JSON(http.StatusOK, accountResponse{Success: true, User: user, Message: msgLoggedIn})
}

// Logout revokes the current session, if any, and clears the cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200   {object}  accountResponse
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if token := session.Token(c); token != "" && h.authService != nil {
		if err := h.authService.Logout(c.Request().Context(), token); err != nil {
			h.log.Warn().Err(err).Msg("session revocation failed")
		}
	}

	c.SetCookie(h.cookies.Clear())
	return c.JSON(http.StatusOK, accountResponse{Success: true, Message: msgLoggedOut})
}

// Me returns the account of the current session.
//
// @Summary      Current account
// @Tags         auth
// @Produce      json
// @Security     CookieAuth
// @Success      200   {object}  accountResponse
// @Failure      401   {object}  failureResponse
// @Failure      404   {object}  failureResponse
// @Router       /api/auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	user, err := h.authService.CurrentUser(c.Request().Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, msgUserNotFound)
		}
		return err
	}
	return c.JSON(http.StatusOK, accountResponse{Success: true, User: user})
}

type businessResponse struct {
	Success      bool   `json:"success"`
	BusinessName string `json:"businessName"`
}

// Business returns the business profile of the current provider account.
//
// @Summary      Provider business profile
// @Tags         providers
// @Produce      json
// @Security     CookieAuth
// @Success      200   {object}  businessResponse
// @Failure      401   {object}  failureResponse
// @Failure      403   {object}  failureResponse
// @Failure      404   {object}  failureResponse
// @Router       /api/providers/me/business [get]
func (h *AuthHandler) Business(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	user, err := h.authService.CurrentUser(c.Request().Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return fail(c, http.StatusNotFound, msgUserNotFound)
		}
		return err
	}
	if !user.IsProvider() {
		return domain.ErrForbidden
	}
	return c.JSON(http.StatusOK, businessResponse{Success: true, BusinessName: user.BusinessName})
}
