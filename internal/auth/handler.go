package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger       *slog.Logger
	service      *Service
	issuer       *TokenIssuer
	secureCookie bool
	validator    *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, issuer *TokenIssuer, secureCookie bool) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		issuer:       issuer,
		secureCookie: secureCookie,
		validator:    validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Post("/register", h.handleRegister)
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userPayload struct {
	ID          int64                    `json:"id"`
	Email       string                   `json:"email"`
	FullName    string                   `json:"full_name"`
	Role        string                   `json:"role"`
	RoleID      int64                    `json:"role_id"`
	Permissions []shared.PermissionClaim `json:"permissions"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      userPayload `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrAccountLocked):
			httpx.Fail(w, http.StatusLocked, "too many failed attempts, try again later")
		case errors.Is(err, shared.ErrInvalidCredentials):
			httpx.Fail(w, http.StatusUnauthorized, "invalid email or password")
		default:
			h.logger.Error("authenticate", slog.Any("error", err))
			httpx.Fail(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	now := time.Now().UTC()
	token, err := h.issuer.Issue(user, now)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "internal error")
		return
	}

	expiresAt := now.Add(h.issuer.TTL())
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	httpx.OK(w, http.StatusOK, loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toUserPayload(user),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})
	httpx.OK(w, http.StatusOK, map[string]string{"message": "logged out"})
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "email, password and full name are required")
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			httpx.Fail(w, http.StatusBadRequest, "a user with this email already exists")
			return
		}
		// Policy violations carry actionable messages; everything else
		// has already been logged as a plain error string.
		httpx.Fail(w, http.StatusBadRequest, err.Error())
		return
	}

	httpx.OK(w, http.StatusCreated, toUserPayload(user))
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	ident := shared.IdentityFromContext(r.Context())
	if ident == nil {
		httpx.Fail(w, http.StatusUnauthorized, "authentication required")
		return
	}
	httpx.OK(w, http.StatusOK, userPayload{
		ID:          ident.UserID,
		Email:       ident.Email,
		FullName:    ident.FullName,
		Role:        ident.RoleName,
		RoleID:      ident.RoleID,
		Permissions: ident.Permissions,
	})
}

func toUserPayload(user *User) userPayload {
	return userPayload{
		ID:          user.ID,
		Email:       user.Email,
		FullName:    user.FullName,
		Role:        user.RoleName,
		RoleID:      user.RoleID,
		Permissions: user.Permissions,
	}
}
