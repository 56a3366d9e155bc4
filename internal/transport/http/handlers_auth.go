package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"alumport/internal/auth"
	"alumport/internal/profile"
	dErrors "alumport/pkg/domain-errors"
	"alumport/pkg/requestcontext"
)

// AuthService is the slice of the auth workflow the handlers need.
type AuthService interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
	Logout(ctx context.Context) error
}

// RegistrationService creates accounts.
type RegistrationService interface {
	Register(ctx context.Context, input profile.RegisterInput) (profile.Profile, error)
}

// AuthHandler serves sign-in, sign-out, and registration.
type AuthHandler struct {
	auth     AuthService
	accounts RegistrationService
	logger   *slog.Logger
}

func NewAuthHandler(authSvc AuthService, accounts RegistrationService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     authSvc,
		accounts: accounts,
		logger:   logger,
	}
}

// RegisterPublic mounts the unauthenticated routes.
func (h *AuthHandler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/register", h.handleRegister)
}

// RegisterAuthed mounts the routes behind the auth middleware.
func (h *AuthHandler) RegisterAuthed(r chi.Router) {
	r.Post("/auth/logout", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Profile   ProfileResponse `json:"profile"`
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "email and password are required"))
		return
	}

	result, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			h.logger.ErrorContext(ctx, "login failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, loginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Profile:   toProfileResponse(result.Profile),
	})
}

type registerRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"full_name"`
	GraduationYear int    `json:"graduation_year"`
	Degree         string `json:"degree"`
	Address        string `json:"address"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	p, err := h.accounts.Register(ctx, profile.RegisterInput{
		Email:          req.Email,
		Password:       req.Password,
		FullName:       req.FullName,
		GraduationYear: req.GraduationYear,
		Degree:         req.Degree,
		Address:        req.Address,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, toProfileResponse(p))
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
