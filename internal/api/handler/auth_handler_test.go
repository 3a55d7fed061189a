package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onekingdom/assessment-system/internal/core/domain"
	"github.com/onekingdom/assessment-system/internal/core/ports"
)

type stubAuthService struct {
	token  string
	user   *domain.Identity
	err    error
	status *ports.TokenStatus

	gotIdentifier string
	gotRenew      bool
}

func (s *stubAuthService) Login(_ context.Context, identifier, _ string) (string, *domain.Identity, error) {
	s.gotIdentifier = identifier
	if s.err != nil {
		return "", nil, s.err
	}
	return s.token, s.user, nil
}

func (s *stubAuthService) Authenticate(context.Context, string) (*domain.Identity, error) {
	return s.user, s.err
}

func (s *stubAuthService) TokenCheck(_ context.Context, _ string, renew bool) (*ports.TokenStatus, error) {
	s.gotRenew = renew
	if s.err != nil {
		return nil, s.err
	}
	return s.status, nil
}

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

func postLogin(t *testing.T, svc *stubAuthService, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, NewAuthHandler(svc).Login(c)
}

func TestLoginHandlerSuccess(t *testing.T) {
	svc := &stubAuthService{
		token: "signed-token",
		user:  &domain.Identity{ID: "u-1", Username: "frodo", Email: "frodo@example.com", Role: domain.RoleUser},
	}

	rec, err := postLogin(t, svc, `{"identifier":"frodo","password":"correct horse battery"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}

	var resp loginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token != "signed-token" {
		t.Errorf("token = %q", resp.Token)
	}
	if resp.User.Role != "user" || resp.User.Username != "frodo" {
		t.Errorf("user = %+v", resp.User)
	}
	if svc.gotIdentifier != "frodo" {
		t.Errorf("identifier passed = %q", svc.gotIdentifier)
	}
}

func TestLoginHandlerRejected(t *testing.T) {
	svc := &stubAuthService{err: domain.ErrInvalidCredentials}

	_, err := postLogin(t, svc, `{"identifier":"frodo","password":"wrong"}`)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Fatalf("got %v, want 401", err)
	}
	if he.Message != "invalid credentials" {
		t.Errorf("message = %v", he.Message)
	}
}

func TestLoginHandlerThrottled(t *testing.T) {
	svc := &stubAuthService{err: domain.ErrTooManyAttempts}

	_, err := postLogin(t, svc, `{"identifier":"frodo","password":"pw"}`)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusTooManyRequests {
		t.Fatalf("got %v, want 429", err)
	}
}

func TestLoginHandlerValidation(t *testing.T) {
	svc := &stubAuthService{}

	_, err := postLogin(t, svc, `{"identifier":"","password":""}`)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnprocessableEntity {
		t.Fatalf("got %v, want 422", err)
	}

	_, err = postLogin(t, svc, `not json`)
	he, ok = err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("got %v, want 400", err)
	}
}

func getTokenCheck(t *testing.T, svc *stubAuthService, query string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := newTestEcho()
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/token-check"+query, nil)
	req.Header.Set("Authorization", "Bearer current-token")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, NewAuthHandler(svc).TokenCheck(c)
}

func TestTokenCheckHandler(t *testing.T) {
	issued := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := &stubAuthService{status: &ports.TokenStatus{
		Subject:    "u-1",
		IssuedAt:   issued,
		ExpiresAt:  issued.Add(30 * time.Minute),
		RenewalDue: true,
	}}

	rec, err := getTokenCheck(t, svc, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.gotRenew {
		t.Error("renew must default to false")
	}

	var resp tokenStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Subject != "u-1" || !resp.RenewalDue {
		t.Errorf("resp = %+v", resp)
	}
	if resp.IssuedAt != "2026-03-01T10:00:00Z" {
		t.Errorf("issued_at = %s", resp.IssuedAt)
	}
	if resp.Token != "" {
		t.Error("no token expected without renewal")
	}
}

func TestTokenCheckHandlerRenews(t *testing.T) {
	svc := &stubAuthService{status: &ports.TokenStatus{
		Subject:   "u-1",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(30 * time.Minute),
		Token:     "fresh-token",
	}}

	rec, err := getTokenCheck(t, svc, "?renew=1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !svc.gotRenew {
		t.Error("renew flag not passed through")
	}

	var resp tokenStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token != "fresh-token" {
		t.Errorf("token = %q", resp.Token)
	}
}
