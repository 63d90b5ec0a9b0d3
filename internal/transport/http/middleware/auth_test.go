package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, secret, subject, issuer string, expiresAt time.Time) string {
	t.Helper()

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	if issuer != "" {
		claims.Issuer = issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newAuthRouter(verifier *TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(EnrichContext())
	r.GET("/protected", RequireAuth(verifier), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"actor": GetUserID(c)})
	})
	return r
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	r := newAuthRouter(NewTokenVerifier(testSecret, ""))

	token := signToken(t, testSecret, "admin-1", "", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	r := newAuthRouter(NewTokenVerifier(testSecret, ""))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestRequireAuthRejectsWrongSecret(t *testing.T) {
	r := newAuthRouter(NewTokenVerifier(testSecret, ""))

	token := signToken(t, "other-secret", "admin-1", "", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	r := newAuthRouter(NewTokenVerifier(testSecret, ""))

	token := signToken(t, testSecret, "admin-1", "", time.Now().Add(-time.Minute))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestRequireAuthEnforcesIssuer(t *testing.T) {
	r := newAuthRouter(NewTokenVerifier(testSecret, "identity.internal"))

	token := signToken(t, testSecret, "admin-1", "someone-else", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

type staticAuthorizer struct {
	allowed map[string]bool
	err     error
}

func (a *staticAuthorizer) CanManageAccess(_ context.Context, actorID string) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	return a.allowed[actorID], nil
}

func newManagerRouter(verifier *TokenVerifier, authz Authorizer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(EnrichContext())
	r.GET("/managed", RequireAuth(verifier), RequireAccessManager(authz), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequireAccessManagerAllowsHolder(t *testing.T) {
	authz := &staticAuthorizer{allowed: map[string]bool{"admin-1": true}}
	r := newManagerRouter(NewTokenVerifier(testSecret, ""), authz)

	token := signToken(t, testSecret, "admin-1", "", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/managed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
}

func TestRequireAccessManagerRejectsNonHolder(t *testing.T) {
	authz := &staticAuthorizer{allowed: map[string]bool{}}
	r := newManagerRouter(NewTokenVerifier(testSecret, ""), authz)

	token := signToken(t, testSecret, "viewer-1", "", time.Now().Add(time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/managed", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", w.Code)
	}
}
