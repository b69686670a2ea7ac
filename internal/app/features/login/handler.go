// internal/app/features/login/handler.go
package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/threadhub/internal/app/features/errors"
	userstore "github.com/dalemusser/threadhub/internal/app/store/users"
	"github.com/dalemusser/threadhub/internal/app/system/apperr"
	"github.com/dalemusser/threadhub/internal/app/system/auth"
	"github.com/dalemusser/threadhub/internal/app/system/authutil"
	"github.com/dalemusser/threadhub/internal/app/system/normalize"
	"github.com/dalemusser/threadhub/internal/app/system/ratelimit"
	"github.com/dalemusser/threadhub/internal/app/system/timeouts"
	"github.com/dalemusser/threadhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB         *mongo.Database
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Users      *userstore.Store
	Limiter    *ratelimit.LoginLimiter
}

// NewHandler creates a login Handler.
func NewHandler(db *mongo.Database, sm *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:         db,
		Log:        logger,
		SessionMgr: sm,
		ErrLog:     errLog,
		Users:      userstore.New(db),
		Limiter:    ratelimit.NewLoginLimiter(),
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registration struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// HandleLogin handles POST /login with an email+password JSON body.
// Failed attempts are rate limited per IP and per account; the
// response never reveals whether the email or the password was wrong.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}
	creds.Email = normalize.Email(creds.Email)

	if ok, reason := h.Limiter.Check(r, creds.Email); !ok {
		h.Log.Warn("login rate limited",
			zap.String("ip", ratelimit.ClientIP(r)))
		http.Error(w, reason, http.StatusTooManyRequests)
		return
	}

	user, err := h.Users.GetByEmail(ctx, creds.Email)
	if errors.Is(err, userstore.ErrNotFound) {
		h.ErrLog.WriteError(w, r, apperr.ErrNotAuthenticated)
		return
	}
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	if user.Status != "active" || !authutil.CheckPassword(user.PasswordHash, creds.Password) {
		h.ErrLog.WriteError(w, r, apperr.ErrNotAuthenticated)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.FullName,
		Email: user.Email,
	}); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}
	h.Limiter.ResetEmail(creds.Email)

	writeUser(w, http.StatusOK, user)
}

// HandleRegister handles POST /register. New accounts use the
// "internal" auth method and sign in immediately.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	var reg registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}
	reg.Email = normalize.Email(reg.Email)
	if reg.FullName == "" || !authutil.IsValidEmail(reg.Email) {
		h.ErrLog.WriteError(w, r, apperr.ErrValidation)
		return
	}
	if err := authutil.ValidatePassword(reg.Password); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	hash, err := authutil.HashPassword(reg.Password)
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	user, err := h.Users.Create(ctx, models.User{
		FullName:     reg.FullName,
		Email:        reg.Email,
		AuthMethod:   "internal",
		PasswordHash: hash,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		http.Error(w, "an account with this email already exists", http.StatusConflict)
		return
	}
	if err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:    user.ID.Hex(),
		Name:  user.FullName,
		Email: user.Email,
	}); err != nil {
		h.ErrLog.WriteError(w, r, err)
		return
	}

	writeUser(w, http.StatusCreated, user)
}

func writeUser(w http.ResponseWriter, code int, u models.User) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(userResponse{
		ID:       u.ID.Hex(),
		FullName: u.FullName,
		Email:    u.Email,
	})
}
