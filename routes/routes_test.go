package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"inverpulse/config"

	"github.com/stretchr/testify/assert"
)

func testRouter() http.Handler {
	return InitRouter(&config.Config{MaxBodyBytes: 1 << 10})
}

func TestInitRouter_PublicRoutes(t *testing.T) {
	r := testRouter()

	for _, path := range []string{"/health", "/metrics", "/v1/levels", "/v1/levels/gold"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestInitRouter_ProtectedRoutesNeedToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "routes-test-secret")
	r := testRouter()

	cases := []struct {
		method, path string
	}{
		{http.MethodGet, "/v1/users/info"},
		{http.MethodGet, "/v1/users/level"},
		{http.MethodPost, "/v1/users/kyc"},
		{http.MethodGet, "/v1/admin/investors"},
		{http.MethodPut, "/v1/admin/deposits/dep-1/confirm"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.path)
	}
}

func TestInitRouter_Preflight(t *testing.T) {
	r := testRouter()
	req := httptest.NewRequest(http.MethodOptions, "/v1/login", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestInitRouter_JSONBodyCap(t *testing.T) {
	r := testRouter()
	body := `{"email":"a@example.com","password":"` + strings.Repeat("x", 4096) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
