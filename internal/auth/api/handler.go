// Package authapi exposes the authentication service over HTTP.
//
// Every response body is JSON; errors use a uniform {detail, error_code}
// envelope. Login, registration, and refresh are rate limited per client IP.
package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"finboard/internal/auth"
	"finboard/internal/identity"
)

// Handler wires the auth endpoints to the authentication service.
type Handler struct {
	log *slog.Logger
	cfg Config
	svc *auth.Service

	registerLimiter *rateLimiter
	loginLimiter    *rateLimiter
	refreshLimiter  *rateLimiter
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, svc *auth.Service, cfg Config) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if svc == nil {
		return nil, errors.New("authapi: nil service")
	}

	return &Handler{
		log:             log,
		cfg:             cfg,
		svc:             svc,
		registerLimiter: newRateLimiter(cfg.RegisterLimit, cfg.RegisterWindow),
		loginLimiter:    newRateLimiter(cfg.LoginLimit, cfg.LoginWindow),
		refreshLimiter:  newRateLimiter(cfg.RefreshLimit, cfg.RefreshWindow),
	}, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /auth/register", limitBy(h.registerLimiter, h.cfg.TrustProxy, h.handleRegister))
	mux.HandleFunc("POST /auth/login", limitBy(h.loginLimiter, h.cfg.TrustProxy, h.handleLogin))
	mux.HandleFunc("POST /auth/refresh", limitBy(h.refreshLimiter, h.cfg.TrustProxy, h.handleRefresh))
	mux.HandleFunc("POST /auth/logout", h.RequireUser(h.handleLogout))
	mux.HandleFunc("GET /auth/me", h.RequireUser(h.handleMe))
	mux.HandleFunc("PUT /auth/change-password", h.RequireUser(h.handleChangePassword))
	mux.HandleFunc("PUT /auth/profile", h.RequireUser(h.handleUpdateProfile))
	mux.HandleFunc("DELETE /auth/account", h.RequireUser(h.handleDeleteAccount))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		registrations.WithLabelValues("invalid").Inc()
		writeError(w, http.StatusUnprocessableEntity, "invalid_json", "invalid request body")
		return
	}

	u, err := h.svc.Register(r.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		switch {
		case auth.IsValidation(err):
			registrations.WithLabelValues("invalid").Inc()
			writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		case identity.IsConflict(err):
			registrations.WithLabelValues("conflict").Inc()
			var conflict identity.ConflictError
			errors.As(err, &conflict)
			switch conflict.Field {
			case "email":
				writeError(w, http.StatusConflict, "email_taken", "email already registered")
			case "username":
				writeError(w, http.StatusConflict, "username_taken", "username already registered")
			default:
				// Unique violation on a constraint the store could not name.
				writeError(w, http.StatusConflict, "conflict", "resource already exists")
			}
		default:
			registrations.WithLabelValues("error").Inc()
			h.log.Error("auth.register.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	registrations.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_json", "invalid request body")
		return
	}

	pair, err := h.svc.Login(r.Context(), time.Now().UTC(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			loginAttempts.WithLabelValues("invalid_credentials").Inc()
			writeError(w, http.StatusBadRequest, "invalid_credentials", "incorrect username or password")
			return
		}
		loginAttempts.WithLabelValues("error").Inc()
		h.log.Error("auth.login.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	loginAttempts.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_json", "invalid request body")
		return
	}

	pair, err := h.svc.Refresh(r.Context(), time.Now().UTC(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			tokenRefreshes.WithLabelValues("invalid_token").Inc()
			writeError(w, http.StatusUnauthorized, "invalid_token", "invalid or expired refresh token")
			return
		}
		tokenRefreshes.WithLabelValues("error").Inc()
		h.log.Error("auth.refresh.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	tokenRefreshes.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    pair.ExpiresIn,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_json", "invalid request body")
		return
	}

	if err := h.svc.Logout(r.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusBadRequest, "invalid_token", "invalid refresh token")
			return
		}
		h.log.Error("auth.logout.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "logged_out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_json", "invalid request body")
		return
	}

	err := h.svc.ChangePassword(r.Context(), u.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusBadRequest, "invalid_password", "current password is incorrect")
		case auth.IsValidation(err):
			writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
		default:
			h.log.Error("auth.change_password.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "password_updated"})
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_json", "invalid request body")
		return
	}

	updated, err := h.svc.UpdateProfile(r.Context(), u.ID, req.FullName)
	if err != nil {
		if auth.IsValidation(err) {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
			return
		}
		h.log.Error("auth.update_profile.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

func (h *Handler) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	u, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}

	var req deleteAccountRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_json", "invalid request body")
		return
	}

	err := h.svc.DeleteAccount(r.Context(), u.ID, req.Password, req.Confirmation)
	if err != nil {
		switch {
		case auth.IsValidation(err):
			writeError(w, http.StatusBadRequest, "confirmation_required", err.Error())
		case errors.Is(err, auth.ErrInvalidCredentials):
			writeError(w, http.StatusBadRequest, "invalid_password", "password is incorrect")
		default:
			h.log.Error("auth.delete_account.fail", "err", err)
			writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "account_deleted"})
}
