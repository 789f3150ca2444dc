package httpapi

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestEqualSecret(t *testing.T) {
	if !equalSecret("secret", "secret") {
		t.Error("equal strings should match")
	}
	if equalSecret("secret", "Secret") {
		t.Error("case difference should not match")
	}
	if equalSecret("secret", "secret2") {
		t.Error("different lengths should not match")
	}
	if equalSecret("", "secret") {
		t.Error("empty input should not match")
	}
}

func TestMintToken(t *testing.T) {
	r := &Router{
		cfg: RouterConfig{
			JWTSecret: "test-secret-key",
			JWTExpiry: 1 * time.Hour,
		},
	}

	token, expiresAt, err := r.mintToken("admin")
	if err != nil {
		t.Fatalf("mintToken failed: %v", err)
	}
	if token == "" {
		t.Error("token should not be empty")
	}
	if time.Until(expiresAt) < 50*time.Minute {
		t.Error("token should expire in about 1 hour")
	}

	parsed, err := jwt.ParseWithClaims(token, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret-key"), nil
	})
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}

	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok {
		t.Fatal("failed to cast claims")
	}
	if claims.Username != "admin" {
		t.Errorf("claims.Username = %q, want %q", claims.Username, "admin")
	}
	if claims.Subject != "admin" {
		t.Errorf("claims.Subject = %q, want %q", claims.Subject, "admin")
	}
}

func TestParseTokenRejectsBadInput(t *testing.T) {
	r := &Router{
		cfg: RouterConfig{
			JWTSecret: "test-secret-key",
			JWTExpiry: 1 * time.Hour,
		},
	}

	t.Run("garbage token", func(t *testing.T) {
		if _, err := r.parseToken("not-a-token"); err == nil {
			t.Error("expected error for garbage token")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := &Router{cfg: RouterConfig{JWTSecret: "other-secret", JWTExpiry: time.Hour}}
		token, _, err := other.mintToken("admin")
		if err != nil {
			t.Fatalf("mintToken failed: %v", err)
		}
		if _, err := r.parseToken(token); err == nil {
			t.Error("expected error for token signed with another secret")
		}
	})

	t.Run("expired token", func(t *testing.T) {
		short := &Router{cfg: RouterConfig{JWTSecret: "test-secret-key", JWTExpiry: -time.Minute}}
		token, _, err := short.mintToken("admin")
		if err != nil {
			t.Fatalf("mintToken failed: %v", err)
		}
		if _, err := r.parseToken(token); err == nil {
			t.Error("expected error for expired token")
		}
	})

	t.Run("no secret configured", func(t *testing.T) {
		bare := &Router{cfg: RouterConfig{}}
		if _, err := bare.parseToken("anything"); err == nil {
			t.Error("expected error when JWT secret is unset")
		}
	})
}

func TestMintTokenEndpoint(t *testing.T) {
	env := newTestEnv(t)

	t.Run("valid credentials", func(t *testing.T) {
		body := `{"username": "admin", "password": "test-password"}`
		rec := env.do(env.request(http.MethodPost, "/auth/token", body))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d, body: %s", rec.Code, http.StatusOK, rec.Body.String())
		}

		var resp map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["token"] == "" {
			t.Error("response should contain token")
		}
		if resp["expires_at"] == "" {
			t.Error("response should contain expires_at")
		}

		// The minted token works as a bearer credential.
		req := env.request(http.MethodGet, "/recognition_status", "")
		req.Header.Set("Authorization", "Bearer "+resp["token"])
		rec = env.do(req)
		if rec.Code != http.StatusOK {
			t.Errorf("bearer request status = %d, want %d", rec.Code, http.StatusOK)
		}
	})

	t.Run("wrong credentials", func(t *testing.T) {
		body := `{"username": "admin", "password": "wrong"}`
		rec := env.do(env.request(http.MethodPost, "/auth/token", body))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		rec := env.do(env.request(http.MethodPost, "/auth/token", "{not json"))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestBearerAuthRejected(t *testing.T) {
	env := newTestEnv(t)

	req := env.request(http.MethodGet, "/recognition_status", "")
	req.Header.Set("Authorization", "Bearer bogus-token")
	rec := env.do(req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestMintTokenNotConfigured(t *testing.T) {
	r := &Router{
		cfg:    RouterConfig{AdminUsername: "admin", AdminPassword: "pw"},
		logger: log.New(io.Discard, "", 0),
	}

	body := `{"username": "admin", "password": "pw"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/token", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.handleMintToken(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
