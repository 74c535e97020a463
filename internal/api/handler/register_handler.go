package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/handyhub/accounts/internal/api/metrics"
	"github.com/handyhub/accounts/internal/api/session"
	"github.com/handyhub/accounts/internal/core/domain"
	"github.com/handyhub/accounts/internal/core/ports"
)

const (
	msgInvalidEmail     = "Invalid email format"
	msgPasswordTooShort = "Password must be at least 6 characters long"
	msgInvalidUserType  = "Invalid user type"
	msgBusinessRequired = "Business name is required for providers"
	msgCreateFailed     = "Failed to create account. Please try again."
	msgAccountCreated   = "Account created successfully"
)

// registrationChecks lists the rejection for each validation tag in the order
// the checks apply. When several fields fail, the earliest check wins.
var registrationChecks = []struct {
	tag string
	msg string
}{
	{tag: "required", msg: msgMissingFields},
	{tag: "loose_email", msg: msgInvalidEmail},
	{tag: "min", msg: msgPasswordTooShort},
	{tag: "oneof", msg: msgInvalidUserType},
	{tag: "required_if", msg: msgBusinessRequired},
}

type registerRequest struct {
	Email        string `json:"email"        validate:"required,loose_email"`
	Password     string `json:"password"     validate:"required,min=6"`
	FirstName    string `json:"firstName"    validate:"required"`
	LastName     string `json:"lastName"     validate:"required"`
	Phone        string `json:"phone"`
	UserType     string `json:"userType"     validate:"required,oneof=seeker provider"`
	BusinessName string `json:"businessName" validate:"required_if=UserType provider"`
}

// RegisterHandler serves account registration.
type RegisterHandler struct {
	creator ports.UserCreator // nil when no database is configured
	cookies session.Cookies
	log     zerolog.Logger
}

// NewRegisterHandler builds the registration endpoint. Pass a nil creator
// when the user store is not configured; requests then answer 503.
func NewRegisterHandler(creator ports.UserCreator, cookies session.Cookies, log zerolog.Logger) *RegisterHandler {
	return &RegisterHandler{creator: creator, cookies: cookies, log: log}
}

// Register creates a seeker or provider account and starts its session.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      200   {object}  accountResponse
// @Failure      400   {object}  failureResponse
// @Failure      500   {object}  failureResponse
// @Failure      503   {object}  failureResponse
// @Router       /api/auth/register [post]
func (h *RegisterHandler) Register(c echo.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("panic", r).Msg("registration api error")
			err = h.reject(c, http.StatusInternalServerError, msgInternal, metrics.OutcomeError)
		}
	}()

	// an empty or null body leaves req nil
	var req *registerRequest
	if err := c.Bind(&req); err != nil {
		h.log.Error().Err(err).Msg("registration api error")
		return h.reject(c, http.StatusInternalServerError, msgInternal, metrics.OutcomeError)
	}
	if req == nil {
		h.log.Error().Msg("registration api error: empty body")
		return h.reject(c, http.StatusInternalServerError, msgInternal, metrics.OutcomeError)
	}

	if err := c.Validate(req); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			h.log.Error().Err(err).Msg("registration api error")
			return h.reject(c, http.StatusInternalServerError, msgInternal, metrics.OutcomeError)
		}
		return h.reject(c, http.StatusBadRequest, registrationFailure(ve), metrics.OutcomeInvalidInput)
	}

	if h.creator == nil {
		return h.reject(c, http.StatusServiceUnavailable, msgDBNotConfigured, metrics.OutcomeUnavailable)
	}

	result, err := h.creator.CreateUser(c.Request().Context(), ports.CreateUserInput{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		UserType:     domain.UserType(req.UserType),
		BusinessName: req.BusinessName,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("database registration error")
		return h.reject(c, http.StatusInternalServerError, msgCreateFailed, metrics.OutcomeFailed)
	}
	if !result.Success {
		return h.reject(c, http.StatusBadRequest, result.Error, metrics.OutcomeRejected)
	}

	metrics.RegistrationsTotal.WithLabelValues(metrics.OutcomeCreated).Inc()
	metrics.AccountsCreatedTotal.WithLabelValues(req.UserType).Inc()

	c.SetCookie(h.cookies.Issue(result.Token))
	return c.JSON(http.StatusOK, accountResponse{
		Success: true,
		User:    result.User,
		Message: msgAccountCreated,
	})
}

func (h *RegisterHandler) reject(c echo.Context, status int, msg, outcome string) error {
	metrics.RegistrationsTotal.WithLabelValues(outcome).Inc()
	return fail(c, status, msg)
}

// registrationFailure picks the message of the earliest failing check.
func registrationFailure(ve validator.ValidationErrors) string {
	failed := make(map[string]bool, len(ve))
	for _, fe := range ve {
		failed[fe.Tag()] = true
	}
	for _, check := range registrationChecks {
		if failed[check.tag] {
			return check.msg
		}
	}
	return msgMissingFields
}
