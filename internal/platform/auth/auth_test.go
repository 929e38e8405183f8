package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func protected(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var gotUID string
	h := RequireUser(JWTVerifier{Secret: []byte(testSecret)})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, _ := UserIDFromContext(r.Context())
			gotUID = uid
			w.WriteHeader(http.StatusOK)
		}))
	return h, &gotUID
}

func TestRequireUser_ValidToken(t *testing.T) {
	h, uid := protected(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/progress", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", time.Now().Add(time.Hour)))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if *uid != "user-1" {
		t.Fatalf("expected user-1 in context, got %q", *uid)
	}
}

func TestRequireUser_MissingHeader(t *testing.T) {
	h, _ := protected(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/progress", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireUser_ExpiredToken(t *testing.T) {
	h, _ := protected(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/progress", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, "user-1", time.Now().Add(-time.Hour)))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rr.Code)
	}
}

func TestRequireUser_WrongScheme(t *testing.T) {
	h, _ := protected(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/progress", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-bearer scheme, got %d", rr.Code)
	}
}
