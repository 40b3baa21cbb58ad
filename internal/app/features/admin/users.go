package admin

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/adminauth"
	"github.com/dalemusser/stratasite/internal/app/system/apierr"
	"github.com/dalemusser/stratasite/internal/app/system/inputval"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/network"
	"go.uber.org/zap"
)

// Lockout throttles failed logins per email. ratelimitstore.Lockout satisfies it.
type Lockout interface {
	CheckAllowed(ctx context.Context, key string) (allowed bool, remaining int, lockedUntil *time.Time)
	RecordFailure(ctx context.Context, key string) (lockedOut bool, lockedUntil *time.Time)
	ClearOnSuccess(ctx context.Context, key string) error
}

// Users handles admin login.
type Users struct {
	auth    *adminauth.Authenticator
	lockout Lockout
	errs    *apierr.Writer
	logger  *zap.Logger
	secure  bool
}

// NewUsers creates the login handler. lockout may be nil. secure marks the
// session cookie Secure.
func NewUsers(auth *adminauth.Authenticator, lockout Lockout, errs *apierr.Writer, logger *zap.Logger, secure bool) *Users {
	return &Users{auth: auth, lockout: lockout, errs: errs, logger: logger, secure: secure}
}

// LoginInput is the login body.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserInfo describes the signed in admin.
type UserInfo struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginResponse is returned on a successful login.
type LoginResponse struct {
	Message string   `json:"message"`
	Token   string   `json:"token"`
	Exp     int64    `json:"exp"`
	User    UserInfo `json:"user"`
}

// Login handles POST /api/users/login.
func (u *Users) Login(w http.ResponseWriter, r *http.Request) {
	var in LoginInput
	if err := jsonutil.Decode(w, r, &in); err != nil {
		u.errs.Write(w, r, err)
		return
	}
	if res := inputval.Validate(in); res.HasErrors() {
		u.errs.Write(w, r, res.Err())
		return
	}

	ctx := r.Context()
	if u.lockout != nil {
		if allowed, _, until := u.lockout.CheckAllowed(ctx, in.Email); !allowed {
			u.locked(w, r, until)
			return
		}
	}

	tok, exp, err := u.auth.Login(in.Email, in.Password)
	if err != nil {
		u.logger.Warn("admin login failed",
			zap.String("email", in.Email),
			zap.String("ip", network.ClientIP(r)))
		if u.lockout != nil {
			if locked, until := u.lockout.RecordFailure(ctx, in.Email); locked {
				u.locked(w, r, until)
				return
			}
		}
		u.errs.Write(w, r, err)
		return
	}
	if u.lockout != nil {
		if err := u.lockout.ClearOnSuccess(ctx, in.Email); err != nil {
			u.logger.Warn("failed to clear login attempts", zap.Error(err))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     adminauth.CookieName,
		Value:    tok,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   u.secure,
		SameSite: http.SameSiteLaxMode,
	})
	u.logger.Info("admin logged in", zap.String("email", u.auth.Email()))
	jsonutil.OK(w, LoginResponse{
		Message: "Login successful",
		Token:   tok,
		Exp:     exp.Unix(),
		User:    UserInfo{Email: u.auth.Email(), Role: "admin"},
	})
}

func (u *Users) locked(w http.ResponseWriter, r *http.Request, until *time.Time) {
	if until != nil {
		secs := int(math.Ceil(time.Until(*until).Seconds()))
		if secs < 1 {
			secs = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	u.errs.Write(w, r, apierr.New(apierr.CodeRateLimited, "Too many failed login attempts. Try again later."))
}

// Me handles GET /api/users/me.
func (u *Users) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := adminauth.FromContext(r.Context())
	if !ok {
		u.errs.Write(w, r, apierr.New(apierr.CodeInvalidToken, "Authentication required"))
		return
	}
	out := map[string]any{"user": UserInfo{Email: claims.Email, Role: "admin"}}
	if claims.ExpiresAt != nil {
		out["exp"] = claims.ExpiresAt.Unix()
	}
	jsonutil.OK(w, out)
}

// Logout handles POST /api/users/logout by clearing the session cookie.
func (u *Users) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminauth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   u.secure,
		SameSite: http.SameSiteLaxMode,
	})
	jsonutil.OK(w, map[string]any{"success": true, "message": "Logged out"})
}
