package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jamdmasud/JWTAuthProviderAPI/internal/auth"
	"github.com/jamdmasud/JWTAuthProviderAPI/internal/models"
	pkgauth "github.com/jamdmasud/JWTAuthProviderAPI/pkg/auth"
	pkghttp "github.com/jamdmasud/JWTAuthProviderAPI/pkg/http"
)

// UserServiceInterface defines the interface for account business logic
type UserServiceInterface interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Create(ctx context.Context, username, email, password, firstName, lastName string) (*models.User, error)
	Delete(ctx context.Context, id string) error
	AssignRoles(ctx context.Context, userID string, roles []string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

// ResetServiceInterface defines the interface for the reset token lifecycle
type ResetServiceInterface interface {
	Generate(ctx context.Context, userID string) error
	Consume(ctx context.Context, userID, token, newPassword string) error
}

// UserHandler handles account management HTTP requests
type UserHandler struct {
	service UserServiceInterface
	reset   ResetServiceInterface
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserServiceInterface, reset ResetServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
		reset:   reset,
	}
}

// Request/response DTOs

// CreateUserRequest represents the request body for account registration
type CreateUserRequest struct {
	Username  string `json:"username" validate:"required,min=3,max=64"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"first_name" validate:"max=64"`
	LastName  string `json:"last_name" validate:"max=64"`
}

// AssignRolesRequest represents the request body for role assignment
type AssignRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1"`
}

// ChangePasswordRequest represents the request body for password change
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// ForgotPasswordRequest represents the request body for the reset flow start
type ForgotPasswordRequest struct {
	Username string `json:"username" validate:"required"`
}

// ResetPasswordRequest represents the request body for token redemption
type ResetPasswordRequest struct {
	UserID      string `json:"id" validate:"required"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"new_password" validate:"required"`
}

// UserResponse is the external shape of an account; the password hash
// never leaves the service.
type UserResponse struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	FirstName      string    `json:"first_name,omitempty"`
	LastName       string    `json:"last_name,omitempty"`
	EmailConfirmed bool      `json:"email_confirmed"`
	CreatedAt      time.Time `json:"created_at"`
}

func toUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		EmailConfirmed: user.EmailConfirmed,
		CreatedAt:      user.CreatedAt,
	}
}

// GetByID handles GET /api/accounts/user/{id}
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "user not found")
			return
		}
		pkghttp.WriteInternalError(w, "failed to get user")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// GetByUsername handles GET /api/accounts/user/name/{username}
func (h *UserHandler) GetByUsername(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	user, err := h.service.GetByUsername(r.Context(), username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "user not found")
			return
		}
		pkghttp.WriteInternalError(w, "failed to get user")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

// List handles GET /api/accounts/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	users, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "failed to list users")
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, toUserResponse(user))
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Create handles POST /api/accounts/create
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.Create(r.Context(), req.Username, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "username or email already in use")
		case isPasswordValidationError(err):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "failed to create user")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

// Delete handles DELETE /api/accounts/user/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "user not found")
			return
		}
		pkghttp.WriteInternalError(w, "failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AssignRoles handles PUT /api/accounts/user/{id}/roles
func (h *UserHandler) AssignRoles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req AssignRolesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.AssignRoles(r.Context(), id, req.Roles); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "user not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "one or more roles do not exist")
		default:
			pkghttp.WriteInternalError(w, "failed to assign roles")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword handles POST /api/accounts/ChangePassword for the
// authenticated user.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ChangePassword(r.Context(), identity.UserID(), req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteBadRequest(w, "the current password is incorrect")
		case isPasswordValidationError(err):
			pkghttp.WriteBadRequest(w, err.Error())
		default:
			pkghttp.WriteInternalError(w, "failed to change password")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ForgotPassword handles POST /api/accounts/ForgotPassword. The
// response is identical whether or not the username exists, so the
// endpoint cannot be used to enumerate accounts.
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.GetByUsername(r.Context(), req.Username)
	if err == nil {
		// Delivery failures are not surfaced either.
		_ = h.reset.Generate(r.Context(), user.ID)
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "if the account exists, a password reset email has been sent",
	})
}

// ResetPassword handles POST /api/accounts/ResetPassword. Every
// rejection reason collapses to the same response body; the caller
// learns nothing about which check failed.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.reset.Consume(r.Context(), req.UserID, req.Code, req.NewPassword); err != nil {
		switch {
		case isPasswordValidationError(err):
			pkghttp.WriteBadRequest(w, err.Error())
		case errors.Is(err, models.ErrResetTokenNotFound),
			errors.Is(err, models.ErrResetTokenExpired),
			errors.Is(err, models.ErrResetTokenMismatch):
			pkghttp.WriteBadRequest(w, "the reset link is invalid or has expired")
		default:
			pkghttp.WriteInternalError(w, "failed to reset password")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func isPasswordValidationError(err error) bool {
	var validationErr *pkgauth.PasswordValidationError
	return errors.As(err, &validationErr)
}
