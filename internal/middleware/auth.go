package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/perpusku/library-engine/internal/domain"
	"github.com/perpusku/library-engine/pkg/response"
)

type ctxKey string

const principalCtxKey ctxKey = "principal"

// Claims carried inside the bearer token. The token itself is minted by the
// school's SSO, not by this service; we only verify and translate it into a
// Principal.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Kelas  string `json:"kelas,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator resolves the request principal from a JWT bearer token or
// the token cookie.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Middleware rejects requests without a valid token and stores the resolved
// Principal in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var token string

		auth := r.Header.Get("Authorization")
		if auth != "" {
			parts := strings.SplitN(auth, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
				token = parts[1]
			}
		}

		if token == "" {
			if cookie, err := r.Cookie("token"); err == nil {
				token = cookie.Value
			}
		}

		if token == "" {
			response.Unauthorized(w, "missing Authorization header or token cookie")
			return
		}

		principal, err := a.Resolve(token)
		if err != nil {
			response.Unauthorized(w, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), principalCtxKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Resolve verifies a token string and extracts the principal.
func (a *Authenticator) Resolve(tokenString string) (domain.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		})
	if err != nil {
		return domain.Principal{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Principal{}, jwt.ErrTokenInvalidClaims
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return domain.Principal{}, jwt.ErrTokenInvalidClaims
	}

	return domain.Principal{
		UserID: userID,
		Role:   claims.Role,
		Kelas:  claims.Kelas,
	}, nil
}

// GenerateToken mints a signed token. Used by tests and local tooling; in
// production tokens come from the external identity provider.
func (a *Authenticator) GenerateToken(p domain.Principal, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := Claims{
		UserID: p.UserID.String(),
		Role:   p.Role,
		Kelas:  p.Kelas,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   p.UserID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// PrincipalFrom extracts the resolved principal from a request context.
func PrincipalFrom(ctx context.Context) (domain.Principal, bool) {
	principal, ok := ctx.Value(principalCtxKey).(domain.Principal)
	return principal, ok
}

// WithPrincipal returns a context carrying the principal. Test helper.
func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey, p)
}
