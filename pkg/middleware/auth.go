package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apperrors "consultly/pkg/errors"
	httputil "consultly/pkg/http"
	"consultly/pkg/logger"
	"consultly/pkg/model"

	"github.com/golang-jwt/jwt/v5"
)

const tokenLeeway = 5 * time.Second

// Claims carried by bearer tokens issued by the identity service.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 token and returns the caller it names.
func ParseToken(secret []byte, token string) (model.Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(tokenLeeway))
	if err != nil {
		return model.Identity{}, err
	}

	if claims.Subject == "" {
		return model.Identity{}, errors.New("token has no subject")
	}
	if !claims.Role.Valid() {
		return model.Identity{}, fmt.Errorf("token role %q is not recognised", claims.Role)
	}
	return model.Identity{ID: claims.Subject, Role: claims.Role}, nil
}

// SignToken issues an HS256 token for identity. Used by tooling and tests.
func SignToken(secret []byte, identity model.Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Authentication rejects requests without a valid bearer token and stores the
// caller's identity in the request context.
func Authentication(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				_ = httputil.WriteError(w, apperrors.Unauthorized("Missing or malformed Authorization header"))
				return
			}

			identity, err := ParseToken(key, token)
			if err != nil {
				log.Warn("Rejected bearer token",
					"request_id", RequestIDFrom(r.Context()),
					"path", r.URL.Path,
					"error", err,
				)
				_ = httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired token"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
