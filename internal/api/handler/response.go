package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/handyhub/accounts/internal/core/domain"
)

// Response messages shared by the account endpoints.
const (
	msgMissingFields   = "Missing required fields"
	msgDBNotConfigured = "Database not configured. Please set up your database connection."
	msgInternal        = "Internal server error. Please try again."
)

// failureResponse is the envelope of every failed account request.
type failureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// accountResponse is the envelope of a successful account request.
type accountResponse struct {
	Success bool         `json:"success"`
	User    *domain.User `json:"user,omitempty"`
	Message string       `json:"message,omitempty"`
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, failureResponse{Success: false, Error: msg})
}

// Unavailable answers requests to account endpoints when no user store is
// configured.
func Unavailable(c echo.Context) error {
	return fail(c, http.StatusServiceUnavailable, msgDBNotConfigured)
}
