package httpserver

import (
	"net/http"
	"strings"
	"testing"

	"bizadmin/internal/domain"
	authsvc "bizadmin/internal/service/auth"
)

func TestRegisterHandler_Created(t *testing.T) {
	deps := testDeps()
	deps.AuthSvc = &stubAuthService{user: &domain.User{ID: testID, Email: "anna@muster.de", Name: "Anna", PasswordHash: "$2a$secret"}}
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodPost, "/api/auth/register", `{"name":"Anna","email":"anna@muster.de","password":"geheim123"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatalf("password hash leaked: %s", rec.Body.String())
	}
}

func TestLoginHandler(t *testing.T) {
	deps := testDeps()
	deps.AuthSvc = &stubAuthService{enabled: true, user: &domain.User{ID: testID, Email: "anna@muster.de"}}
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodPost, "/api/auth/login", `{"email":"anna@muster.de","password":"geheim123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"token":"signed-token"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}

	rec = do(router, http.MethodPost, "/api/auth/login", `{"email":"anna@muster.de"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing password, got %d", rec.Code)
	}
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	deps := testDeps()
	deps.AuthSvc = &stubAuthService{loginErr: authsvc.ErrInvalidCredentials}
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodPost, "/api/auth/login", `{"email":"anna@muster.de","password":"falsch"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestMeHandler(t *testing.T) {
	deps := testDeps()
	deps.AuthSvc = &stubAuthService{enabled: true, identity: &domain.Identity{UserID: testID, Name: "Anna", Role: domain.RoleEmployee}}
	router := newTestRouter(t, deps)

	rec := do(router, http.MethodGet, "/api/me", "", "Authorization", "Bearer good")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"name":"Anna"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestMeHandler_PassthroughHasNoIdentity(t *testing.T) {
	router := newTestRouter(t, testDeps())

	rec := do(router, http.MethodGet, "/api/me", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
