package chi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/examdex/internal/domain"
	logpkg "github.com/kailas-cloud/examdex/internal/logger"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// Claims are the identity claims issued by the login service.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// AuthConfig configures JWTAuthMiddleware.
type AuthConfig struct {
	// Secret is the HS256 key. Empty rejects every protected request.
	Secret string
	// Issuer, if set, must match the iss claim.
	Issuer string
	// Leeway tolerates clock skew on exp/nbf.
	Leeway time.Duration
}

// JWTAuthMiddleware verifies the bearer JWT and puts the caller identity in the context.
func JWTAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)
	key := []byte(cfg.Secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if len(key) == 0 {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "authentication is not configured")
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized,
					ErrorCodeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			claims, err := parseClaims(parser, auth[len(bearerPrefix):], key)
			if err != nil {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid token")
				return
			}

			ctx := domain.ContextWithIdentity(r.Context(), domain.Identity{
				UserID: claims.UserID,
				Email:  claims.Email,
				Role:   claims.Role,
			})
			ctx = logpkg.With(ctx, zap.String("user_id", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseClaims(parser *jwt.Parser, token string, key []byte) (*Claims, error) {
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no userId claim")
	}
	return claims, nil
}
