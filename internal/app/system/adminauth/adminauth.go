// Package adminauth authenticates the single admin account and issues the
// bearer tokens that protect the admin API.
//
// The credential comes from configuration (email plus a bcrypt hash or a
// plain password hashed at startup). Tokens are HS256 JWTs carrying the admin
// email as subject. Requests present them as "Authorization: Bearer <token>"
// or in the admin_token cookie set by the login endpoint.
package adminauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// CookieName is the cookie the login endpoint sets for browser sessions.
const CookieName = "admin_token"

const issuer = "stratasite"

// Claims is the token payload.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticator checks the admin credential and signs/verifies tokens.
type Authenticator struct {
	email  string
	hash   []byte
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Config holds the admin credential and token settings.
type Config struct {
	Email        string
	Password     string // plain; hashed at startup when PasswordHash is empty
	PasswordHash string // bcrypt
	Secret       string
	TTL          time.Duration
}

// New builds an Authenticator. A missing credential is allowed (admin login
// then always fails); a missing secret is not.
func New(cfg Config) (*Authenticator, error) {
	if cfg.Secret == "" {
		return nil, errors.New("adminauth: jwt secret is required")
	}
	a := &Authenticator{
		email:  normalize.Email(cfg.Email),
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		now:    time.Now,
	}
	if a.ttl <= 0 {
		a.ttl = 2 * time.Hour
	}
	switch {
	case cfg.PasswordHash != "":
		a.hash = []byte(cfg.PasswordHash)
	case cfg.Password != "":
		h, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("adminauth: hash password: %w", err)
		}
		a.hash = h
	}
	return a, nil
}

// Configured reports whether an admin credential is present.
func (a *Authenticator) Configured() bool {
	return a.email != "" && len(a.hash) > 0
}

// Email returns the configured admin email.
func (a *Authenticator) Email() string { return a.email }

// Login checks the credential and returns a signed token and its expiry.
func (a *Authenticator) Login(email, password string) (string, time.Time, error) {
	email = normalize.Email(email)
	if !a.Configured() || subtle.ConstantTimeCompare([]byte(email), []byte(a.email)) != 1 {
		if len(a.hash) > 0 {
			// keep timing similar to a wrong password
			_ = bcrypt.CompareHashAndPassword(a.hash, []byte(password))
		}
		return "", time.Time{}, apierr.New(apierr.CodeInvalidCredentials, "Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return "", time.Time{}, apierr.New(apierr.CodeInvalidCredentials, "Invalid email or password")
	}
	return a.Issue(email)
}

// Issue signs a token for email.
func (a *Authenticator) Issue(email string) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.ttl)
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return tok, exp, nil
}

// Verify parses and validates a token.
func (a *Authenticator) Verify(token string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	switch {
	case err == nil:
		return &claims, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, apierr.Wrap(apierr.CodeTokenExpired, "Token has expired", err)
	default:
		return nil, apierr.Wrap(apierr.CodeInvalidToken, "Invalid token", err)
	}
}

// TokenFromRequest reads the bearer header, falling back to the cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}

type ctxKey struct{}

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the claims set by Require or Optional.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok && c != nil
}

// Require rejects requests without a valid token.
func (a *Authenticator) Require(errs *apierr.Writer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := TokenFromRequest(r)
			if tok == "" {
				errs.Write(w, r, apierr.New(apierr.CodeInvalidToken, "Authentication required"))
				return
			}
			claims, err := a.Verify(tok)
			if err != nil {
				errs.Write(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// Optional attaches claims when a valid token is present and otherwise
// passes the request through untouched.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := TokenFromRequest(r); tok != "" {
			if claims, err := a.Verify(tok); err == nil {
				r = r.WithContext(WithClaims(r.Context(), claims))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// HashPassword returns a bcrypt hash for use as admin_password_hash.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
