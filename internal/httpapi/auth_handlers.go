package httpapi

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims represents the claims in a minted admin token
type JWTClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// equalSecret compares two secrets in constant time. Hashing first
// keeps the comparison length-independent.
func equalSecret(got, want string) bool {
	gotSum := sha256.Sum256([]byte(got))
	wantSum := sha256.Sum256([]byte(want))
	return subtle.ConstantTimeCompare(gotSum[:], wantSum[:]) == 1
}

// withAdmin is middleware that requires admin credentials, either HTTP
// basic auth or a bearer token from POST /auth/token. Browsers hitting
// the dashboard use basic auth; scripted clients mint a token.
func (r *Router) withAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if r.cfg.AdminPassword == "" {
			http.Error(w, `{"error": "admin access not configured"}`, http.StatusServiceUnavailable)
			return
		}

		if user, pass, ok := req.BasicAuth(); ok {
			if equalSecret(user, r.cfg.AdminUsername) && equalSecret(pass, r.cfg.AdminPassword) {
				next.ServeHTTP(w, req)
				return
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="captions"`)
			http.Error(w, `{"error": "invalid credentials"}`, http.StatusUnauthorized)
			return
		}

		authHeader := req.Header.Get("Authorization")
		if parts := strings.SplitN(authHeader, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if _, err := r.parseToken(parts[1]); err != nil {
				http.Error(w, `{"error": "invalid token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, req)
			return
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="captions"`)
		http.Error(w, `{"error": "authentication required"}`, http.StatusUnauthorized)
	}
}

// mintToken creates a new JWT for an authenticated admin
func (r *Router) mintToken(username string) (string, time.Time, error) {
	expiresAt := time.Now().Add(r.cfg.JWTExpiry)

	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Username: username,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(r.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// parseToken validates a minted token and returns its claims
func (r *Router) parseToken(tokenString string) (*JWTClaims, error) {
	if r.cfg.JWTSecret == "" {
		return nil, fmt.Errorf("token auth not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(r.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// handleMintToken exchanges admin credentials for a bearer token
func (r *Router) handleMintToken(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		http.Error(w, `{"error": "invalid request body"}`, http.StatusBadRequest)
		return
	}

	if r.cfg.AdminPassword == "" || r.cfg.JWTSecret == "" {
		http.Error(w, `{"error": "token auth not configured"}`, http.StatusServiceUnavailable)
		return
	}

	if !equalSecret(body.Username, r.cfg.AdminUsername) || !equalSecret(body.Password, r.cfg.AdminPassword) {
		r.logger.Printf("auth: rejected token request for %q", body.Username)
		http.Error(w, `{"error": "invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	token, expiresAt, err := r.mintToken(body.Username)
	if err != nil {
		r.logger.Printf("auth: failed to mint token: %v", err)
		http.Error(w, `{"error": "failed to create token"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}
