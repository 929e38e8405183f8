package token

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

func TestStatic_EmptyIsError(t *testing.T) {
	if _, err := Static("").Token(context.Background()); err == nil {
		t.Fatal("empty static credential should error")
	}
	got, err := Static("tok").Token(context.Background())
	if err != nil || got != "tok" {
		t.Fatalf("got %q err=%v", got, err)
	}
}

func TestClient_CachesUntilExpiry(t *testing.T) {
	calls := 0
	now := time.Now()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken != "rt-1" {
			t.Errorf("bad refresh request: %+v err=%v", req, err)
		}
		_ = json.NewEncoder(w).Encode(refreshResponse{
			AccessToken: signedToken(t, now.Add(10*time.Minute)),
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "rt-1")
	c.now = func() time.Time { return now }

	first, err := c.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	second, err := c.Token(context.Background())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single auth call for a fresh token, got %d", calls)
	}
	if first != second {
		t.Fatal("cached token should be reused")
	}

	// Move the clock past expiry: next call must refresh.
	c.now = func() time.Time { return now.Add(11 * time.Minute) }
	if _, err := c.Token(context.Background()); err != nil {
		t.Fatalf("token: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected a refresh after expiry, got %d calls", calls)
	}
}

func TestClient_NonOKIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "denied", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "rt-1")
	if _, err := c.Token(context.Background()); err == nil {
		t.Fatal("non-200 auth response should error")
	}
}

func TestTokenExpiry_OpaqueTokenGetsDefault(t *testing.T) {
	now := time.Now()
	exp := tokenExpiry("not-a-jwt", now)
	if exp != now.Add(5*time.Minute) {
		t.Fatalf("opaque token should default to 5m, got %v", exp.Sub(now))
	}
}
