package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/handyhub/accounts/internal/api/session"
	"github.com/handyhub/accounts/internal/core/domain"
	"github.com/handyhub/accounts/internal/core/ports"
)

type stubCreator struct {
	createFn func(ctx context.Context, in ports.CreateUserInput) (ports.CreateUserResult, error)
	calls    int
}

func (s *stubCreator) CreateUser(ctx context.Context, in ports.CreateUserInput) (ports.CreateUserResult, error) {
	s.calls++
	return s.createFn(ctx, in)
}

func succeedingCreator() *stubCreator {
	return &stubCreator{
		createFn: func(_ context.Context, in ports.CreateUserInput) (ports.CreateUserResult, error) {
			return ports.CreateUserResult{
				Success: true,
				User:    &domain.User{ID: "1", Email: in.Email, UserType: in.UserType},
				Token:   "t1",
			}, nil
		},
	}
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

type registerResult struct {
	rec  *httptest.ResponseRecorder
	body map[string]any
}

func doRegister(t *testing.T, h *RegisterHandler, payload string) registerResult {
	t.Helper()
	e := newTestEcho()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return registerResult{rec: rec, body: body}
}

func validPayload(overrides map[string]any) string {
	p := map[string]any{
		"email":     "alice@example.com",
		"password":  "abc123",
		"firstName": "Alice",
		"lastName":  "Smith",
		"userType":  "seeker",
	}
	for k, v := range overrides {
		if v == nil {
			delete(p, k)
			continue
		}
		p[k] = v
	}
	b, _ := json.Marshal(p)
	return string(b)
}

func assertFailure(t *testing.T, res registerResult, status int, msg string) {
	t.Helper()
	if res.rec.Code != status {
		t.Fatalf("expected %d, got %d (%s)", status, res.rec.Code, res.rec.Body.String())
	}
	if res.body["success"] != false {
		t.Fatalf("expected success=false, got %v", res.body["success"])
	}
	if res.body["error"] != msg {
		t.Fatalf("expected error %q, got %q", msg, res.body["error"])
	}
	if len(res.rec.Result().Cookies()) != 0 {
		t.Fatalf("no cookie expected on failure")
	}
}

func TestRegisterHandler_Validation(t *testing.T) {
	cases := []struct {
		name      string
		overrides map[string]any
		want      string
	}{
		{name: "missing email", overrides: map[string]any{"email": nil}, want: "Missing required fields"},
		{name: "empty password", overrides: map[string]any{"password": ""}, want: "Missing required fields"},
		{name: "missing first name", overrides: map[string]any{"firstName": nil}, want: "Missing required fields"},
		{name: "missing last name", overrides: map[string]any{"lastName": ""}, want: "Missing required fields"},
		{name: "missing user type", overrides: map[string]any{"userType": nil}, want: "Missing required fields"},
		{name: "missing beats bad email", overrides: map[string]any{"email": "foo@bar", "lastName": nil}, want: "Missing required fields"},
		{name: "email without tld", overrides: map[string]any{"email": "foo@bar"}, want: "Invalid email format"},
		{name: "email with space", overrides: map[string]any{"email": "foo bar@baz.com"}, want: "Invalid email format"},
		{name: "email with two at signs", overrides: map[string]any{"email": "a@b@c.com"}, want: "Invalid email format"},
		{name: "bad email beats short password", overrides: map[string]any{"email": "nope", "password": "abc"}, want: "Invalid email format"},
		{name: "short password", overrides: map[string]any{"password": "abc12"}, want: "Password must be at least 6 characters long"},
		{name: "short password beats bad type", overrides: map[string]any{"password": "abc", "userType": "admin"}, want: "Password must be at least 6 characters long"},
		{name: "unknown user type", overrides: map[string]any{"userType": "admin"}, want: "Invalid user type"},
		{name: "provider without business", overrides: map[string]any{"userType": "provider"}, want: "Business name is required for providers"},
		{name: "provider with empty business", overrides: map[string]any{"userType": "provider", "businessName": ""}, want: "Business name is required for providers"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			creator := succeedingCreator()
			h := NewRegisterHandler(creator, session.Cookies{}, zerolog.Nop())

			res := doRegister(t, h, validPayload(tc.overrides))

			assertFailure(t, res, http.StatusBadRequest, tc.want)
			if creator.calls != 0 {
				t.Fatalf("creator must not be called on invalid input")
			}
		})
	}
}

func TestRegisterHandler_ValidationIsRepeatable(t *testing.T) {
	h := NewRegisterHandler(succeedingCreator(), session.Cookies{}, zerolog.Nop())
	payload := validPayload(map[string]any{"userType": "admin"})

	for i := 0; i < 3; i++ {
		assertFailure(t, doRegister(t, h, payload), http.StatusBadRequest, "Invalid user type")
	}
}

func TestRegisterHandler_DatabaseNotConfigured(t *testing.T) {
	h := NewRegisterHandler(nil, session.Cookies{}, zerolog.Nop())

	res := doRegister(t, h, validPayload(nil))

	assertFailure(t, res, http.StatusServiceUnavailable,
		"Database not configured. Please set up your database connection.")
}

func TestRegisterHandler_InvalidInputBeatsMissingDatabase(t *testing.T) {
	h := NewRegisterHandler(nil, session.Cookies{}, zerolog.Nop())

	res := doRegister(t, h, validPayload(map[string]any{"email": "foo@bar"}))

	assertFailure(t, res, http.StatusBadRequest, "Invalid email format")
}

func TestRegisterHandler_Success(t *testing.T) {
	var got ports.CreateUserInput
	creator := &stubCreator{
		createFn: func(_ context.Context, in ports.CreateUserInput) (ports.CreateUserResult, error) {
			got = in
			return ports.CreateUserResult{
				Success: true,
				User:    &domain.User{ID: "1", Email: in.Email, UserType: in.UserType, BusinessName: in.BusinessName},
				Token:   "t1",
			}, nil
		},
	}
	h := NewRegisterHandler(creator, session.Cookies{}, zerolog.Nop())

	res := doRegister(t, h, validPayload(map[string]any{
		"userType":     "provider",
		"businessName": "Acme Plumbing",
		"phone":        "+1 555 0100",
	}))

	if res.rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", res.rec.Code, res.rec.Body.String())
	}
	if res.body["success"] != true || res.body["message"] != "Account created successfully" {
		t.Fatalf("unexpected body: %+v", res.body)
	}
	user, ok := res.body["user"].(map[string]any)
	if !ok || user["id"] != "1" {
		t.Fatalf("unexpected user payload: %+v", res.body["user"])
	}

	if got.UserType != domain.UserTypeProvider || got.BusinessName != "Acme Plumbing" || got.Phone != "+1 555 0100" {
		t.Fatalf("unexpected creator input: %+v", got)
	}

	cookies := res.rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	ck := cookies[0]
	if ck.Name != "auth-token" || ck.Value != "t1" {
		t.Fatalf("unexpected cookie: %+v", ck)
	}
	if !ck.HttpOnly || ck.MaxAge != 604800 || ck.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie attributes: %+v", ck)
	}
	if ck.Secure {
		t.Fatalf("cookie must not be secure outside production")
	}

	header := res.rec.Header().Get("Set-Cookie")
	for _, attr := range []string{"auth-token=t1", "HttpOnly", "Max-Age=604800", "SameSite=Lax"} {
		if !strings.Contains(header, attr) {
			t.Fatalf("Set-Cookie %q missing %q", header, attr)
		}
	}
}

func TestRegisterHandler_SecureCookieInProduction(t *testing.T) {
	h := NewRegisterHandler(succeedingCreator(), session.Cookies{Secure: true}, zerolog.Nop())

	res := doRegister(t, h, validPayload(nil))

	if res.rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.rec.Code)
	}
	if !strings.Contains(res.rec.Header().Get("Set-Cookie"), "Secure") {
		t.Fatalf("expected Secure attribute, got %q", res.rec.Header().Get("Set-Cookie"))
	}
}

func TestRegisterHandler_Rejected(t *testing.T) {
	creator := &stubCreator{
		createFn: func(context.Context, ports.CreateUserInput) (ports.CreateUserResult, error) {
			return ports.CreateUserResult{Success: false, Error: "Email already registered"}, nil
		},
	}
	h := NewRegisterHandler(creator, session.Cookies{}, zerolog.Nop())

	res := doRegister(t, h, validPayload(nil))

	assertFailure(t, res, http.StatusBadRequest, "Email already registered")
}

func TestRegisterHandler_CreatorFails(t *testing.T) {
	creator := &stubCreator{
		createFn: func(context.Context, ports.CreateUserInput) (ports.CreateUserResult, error) {
			return ports.CreateUserResult{}, errors.New("connection refused")
		},
	}
	h := NewRegisterHandler(creator, session.Cookies{}, zerolog.Nop())

	res := doRegister(t, h, validPayload(nil))

	assertFailure(t, res, http.StatusInternalServerError, "Failed to create account. Please try again.")
	if strings.Contains(res.rec.Body.String(), "connection refused") {
		t.Fatalf("internal error leaked to client")
	}
}

func TestRegisterHandler_MalformedBody(t *testing.T) {
	for _, payload := range []string{"not-json", "", "null", "{"} {
		t.Run(fmt.Sprintf("%q", payload), func(t *testing.T) {
			creator := succeedingCreator()
			h := NewRegisterHandler(creator, session.Cookies{}, zerolog.Nop())

			res := doRegister(t, h, payload)

			assertFailure(t, res, http.StatusInternalServerError, "Internal server error. Please try again.")
			if creator.calls != 0 {
				t.Fatalf("creator must not be called")
			}
		})
	}
}

func TestRegisterHandler_WrongFieldType(t *testing.T) {
	h := NewRegisterHandler(succeedingCreator(), session.Cookies{}, zerolog.Nop())

	res := doRegister(t, h, `{"email":42,"password":"abc123","firstName":"A","lastName":"B","userType":"seeker"}`)

	assertFailure(t, res, http.StatusInternalServerError, "Internal server error. Please try again.")
}

func TestRegisterHandler_Panic(t *testing.T) {
	creator := &stubCreator{
		createFn: func(context.Context, ports.CreateUserInput) (ports.CreateUserResult, error) {
			panic("boom")
		},
	}
	h := NewRegisterHandler(creator, session.Cookies{}, zerolog.Nop())

	res := doRegister(t, h, validPayload(nil))

	assertFailure(t, res, http.StatusInternalServerError, "Internal server error. Please try again.")
}

func TestValidator_ReportsEveryField(t *testing.T) {
	v := NewValidator()
	err := v.Validate(&registerRequest{
		Email:    "bad",
		Password: "abc",
		UserType: "provider",
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "firstname is required") {
		t.Fatalf("unexpected message: %v", err)
	}
}
