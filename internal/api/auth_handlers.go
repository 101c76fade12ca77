package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/ec-dispatch/internal/api/middleware"
	"github.com/example/ec-dispatch/internal/auth"
	"github.com/example/ec-dispatch/internal/command"
	"github.com/example/ec-dispatch/internal/domain/user"
	"github.com/example/ec-dispatch/internal/query"
)

// AuthHandlers handles authentication for customers, admins, and riders.
// Users and riders are separate aggregates but share the token format; the
// role claim tells them apart.
type AuthHandlers struct {
	userService  *user.Service
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	jwtService   *auth.JWTService
}

func NewAuthHandlers(userService *user.Service, cmdHandler *command.Handler, queryHandler *query.Handler, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{
		userService:  userService,
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		jwtService:   jwtService,
	}
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message,omitempty"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Register handles customer registration
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, exists := h.queryHandler.GetUserByEmail(req.Email); exists {
		respondJSONError(w, "Email already registered", http.StatusConflict)
		return
	}

	newUser, err := h.userService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			respondJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, user.ErrInvalidEmail) || errors.Is(err, user.ErrInvalidName) {
			respondJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.setAuthCookies(w, r, newUser.ID, newUser.Email, newUser.Role)

	respondJSON(w, http.StatusCreated, AuthResponse{
		User: UserResponse{
			ID:        newUser.ID,
			Email:     newUser.Email,
			Name:      newUser.Name,
			Role:      newUser.Role,
			CreatedAt: newUser.CreatedAt,
		},
		Message: "Registration successful",
	})
}

// Login handles customer and admin login
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	userModel, exists := h.queryHandler.GetUserByEmail(req.Email)
	if !exists {
		respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if !userModel.IsActive {
		respondJSONError(w, "Account is deactivated", http.StatusForbidden)
		return
	}

	if !auth.CheckPassword(req.Password, userModel.PasswordHash) {
		respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	h.setAuthCookies(w, r, userModel.ID, userModel.Email, userModel.Role)

	// Best-effort, login must not fail on this
	_ = h.userService.RecordLogin(r.Context(), userModel.ID, r.RemoteAddr, r.UserAgent())

	respondJSON(w, http.StatusOK, AuthResponse{
		User: UserResponse{
			ID:        userModel.ID,
			Email:     userModel.Email,
			Name:      userModel.Name,
			Role:      userModel.Role,
			CreatedAt: userModel.CreatedAt,
		},
		Message: "Login successful",
	})
}

// RegisterRider handles rider sign-up. Riders start active and available.
func (h *AuthHandlers) RegisterRider(w http.ResponseWriter, r *http.Request) {
	var cmd command.RegisterRider
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, exists := h.queryHandler.GetRiderByEmail(cmd.Email); exists {
		respondJSONError(w, "Email already registered", http.StatusConflict)
		return
	}

	newRider, err := h.cmdHandler.RegisterRider(r.Context(), cmd)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			respondJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondDomainError(w, err)
		return
	}

	h.setAuthCookies(w, r, newRider.ID, newRider.Email, middleware.RoleRider)

	respondJSON(w, http.StatusCreated, AuthResponse{
		User: UserResponse{
			ID:        newRider.ID,
			Email:     newRider.Email,
			Name:      newRider.Name,
			Role:      middleware.RoleRider,
			CreatedAt: newRider.CreatedAt,
		},
		Message: "Registration successful",
	})
}

// LoginRider authenticates against the rider read model
func (h *AuthHandlers) LoginRider(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	riderModel, exists := h.queryHandler.GetRiderByEmail(req.Email)
	if !exists {
		respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if !riderModel.IsActive {
		respondJSONError(w, "Account is deactivated", http.StatusForbidden)
		return
	}

	if !auth.CheckPassword(req.Password, riderModel.PasswordHash) {
		respondJSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	h.setAuthCookies(w, r, riderModel.ID, riderModel.Email, middleware.RoleRider)

	respondJSON(w, http.StatusOK, AuthResponse{
		User: UserResponse{
			ID:        riderModel.ID,
			Email:     riderModel.Email,
			Name:      riderModel.Name,
			Role:      middleware.RoleRider,
			CreatedAt: riderModel.CreatedAt,
		},
		Message: "Login successful",
	})
}

// Logout clears the auth cookies
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearAuthCookies(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Refresh exchanges a valid refresh token for a new token pair
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshCookie, err := r.Cookie("refresh_token")
	if err != nil {
		respondJSONError(w, "No refresh token", http.StatusUnauthorized)
		return
	}

	subjectID, err := h.jwtService.ValidateRefreshToken(refreshCookie.Value)
	if err != nil {
		h.clearAuthCookies(w)
		respondJSONError(w, "Invalid refresh token", http.StatusUnauthorized)
		return
	}

	// The refresh token only carries the subject ID; look up both
	// collections to rebuild the role claim.
	if userModel, ok := h.queryHandler.GetUser(subjectID); ok {
		if !userModel.IsActive {
			h.clearAuthCookies(w)
			respondJSONError(w, "Account is deactivated", http.StatusForbidden)
			return
		}
		h.setAuthCookies(w, r, userModel.ID, userModel.Email, userModel.Role)
		respondJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed"})
		return
	}

	if riderModel, ok := h.queryHandler.GetRider(subjectID); ok {
		if !riderModel.IsActive {
			h.clearAuthCookies(w)
			respondJSONError(w, "Account is deactivated", http.StatusForbidden)
			return
		}
		h.setAuthCookies(w, r, riderModel.ID, riderModel.Email, middleware.RoleRider)
		respondJSON(w, http.StatusOK, map[string]string{"message": "Token refreshed"})
		return
	}

	h.clearAuthCookies(w)
	respondJSONError(w, "User not found", http.StatusUnauthorized)
}

// Me returns the current authenticated user's information
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if claims.Role == middleware.RoleRider {
		riderModel, ok := h.queryHandler.GetRider(claims.UserID)
		if !ok {
			respondJSONError(w, "Rider not found", http.StatusNotFound)
			return
		}
		respondJSON(w, http.StatusOK, UserResponse{
			ID:        riderModel.ID,
			Email:     riderModel.Email,
			Name:      riderModel.Name,
			Role:      middleware.RoleRider,
			CreatedAt: riderModel.CreatedAt,
		})
		return
	}

	userModel, ok := h.queryHandler.GetUser(claims.UserID)
	if !ok {
		respondJSONError(w, "User not found", http.StatusNotFound)
		return
	}

	respondJSON(w, http.StatusOK, UserResponse{
		ID:        userModel.ID,
		Email:     userModel.Email,
		Name:      userModel.Name,
		Role:      userModel.Role,
		CreatedAt: userModel.CreatedAt,
	})
}

// ChangePassword handles password change requests for users
func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		respondJSONError(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	userModel, ok := h.queryHandler.GetUser(claims.UserID)
	if !ok {
		respondJSONError(w, "User not found", http.StatusNotFound)
		return
	}

	if !auth.CheckPassword(req.CurrentPassword, userModel.PasswordHash) {
		respondJSONError(w, "Current password is incorrect", http.StatusBadRequest)
		return
	}

	if err := h.userService.ChangePassword(r.Context(), claims.UserID, req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			respondJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

// Helper methods

func (h *AuthHandlers) setAuthCookies(w http.ResponseWriter, r *http.Request, subjectID, email, role string) {
	accessToken, accessExpiry, _ := h.jwtService.GenerateAccessToken(subjectID, email, role)
	refreshToken, refreshExpiry, _ := h.jwtService.GenerateRefreshToken(subjectID)

	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    accessToken,
		Path:     "/",
		Expires:  accessExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    refreshToken,
		Path:     "/api/auth/refresh",
		Expires:  refreshExpiry,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandlers) clearAuthCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     "refresh_token",
		Value:    "",
		Path:     "/api/auth/refresh",
		MaxAge:   -1,
		HttpOnly: true,
	})
}
