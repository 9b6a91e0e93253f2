package http

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fjod/storefront/internal/account"
	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/domain"
)

// Sessions builds the per-request auth store from the request cookies.
type Sessions struct {
	api    auth.Authenticator
	secure bool
	log    *zap.Logger
}

func NewSessions(a auth.Authenticator, secureCookies bool, log *zap.Logger) *Sessions {
	return &Sessions{api: a, secure: secureCookies, log: log}
}

func (s *Sessions) Store(w http.ResponseWriter, r *http.Request) *auth.Store {
	return auth.NewStore(s.api, auth.NewHTTPCookieJar(w, r, s.secure), s.log)
}

// AccountService is the account operations used by the page handlers.
type AccountService interface {
	Signup(ctx context.Context, f account.SignupForm) (domain.Account, error)
	ForgotPassword(ctx context.Context, f account.ForgotPasswordForm) (string, error)
	ResetPassword(ctx context.Context, f account.ResetPasswordForm) (domain.Account, error)
	Details(ctx context.Context, sessions account.SessionRunner) (domain.AccountDetails, error)
	UpdateStock(ctx context.Context, sessions account.SessionRunner, productID string, stock int) (domain.StockLevel, error)
}

type AuthHandler struct {
	sessions *Sessions
	accounts AccountService
	timeout  time.Duration
	log      *zap.Logger
}

func NewAuthHandler(sessions *Sessions, accounts AccountService, timeout time.Duration, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		accounts: accounts,
		timeout:  timeout,
		log:      log,
	}
}

type SigninResponseDTO struct {
	AccountID string      `json:"accountId"`
	Role      domain.Role `json:"role"`
	Redirect  string      `json:"redirect"`
}

type ForgotPasswordResponseDTO struct {
	ID string `json:"id"`
}

// POST /signin
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var form account.SigninForm
	if !decodeJSON(w, r, &form) {
		return
	}
	if err := form.Validate(); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	store := h.sessions.Store(w, r)
	if !store.Login(ctx, form.Email, form.Password) {
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}

	sess, _ := store.Session()
	respondJSON(w, http.StatusOK, SigninResponseDTO{
		AccountID: sess.AccountID,
		Role:      sess.Role,
		Redirect:  auth.HomePath,
	})
}

// POST /signout
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	store := h.sessions.Store(w, r)
	respondJSON(w, http.StatusOK, RedirectResponse{Redirect: store.Logout()})
}

// POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var form account.SignupForm
	if !decodeJSON(w, r, &form) {
		return
	}

	acc, err := h.accounts.Signup(ctx, form)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, acc)
}

// POST /forgot-password
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var form account.ForgotPasswordForm
	if !decodeJSON(w, r, &form) {
		return
	}

	id, err := h.accounts.ForgotPassword(ctx, form)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, ForgotPasswordResponseDTO{ID: id})
}

// POST /reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var form account.ResetPasswordForm
	if !decodeJSON(w, r, &form) {
		return
	}

	acc, err := h.accounts.ResetPassword(ctx, form)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, acc)
}
