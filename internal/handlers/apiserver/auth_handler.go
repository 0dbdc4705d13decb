package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"facegram/internal/auth"
	"facegram/internal/middleware"
	"facegram/internal/models"
	"facegram/internal/services"
)

// AuthHandler bundles the authentication related HTTP handlers.
type AuthHandler struct {
	AuthService    services.AuthService
	TokenBlacklist auth.TokenBlacklist
}

// NewAuthHandler creates a new AuthHandler instance.
func NewAuthHandler(authService services.AuthService, tokenBlacklist auth.TokenBlacklist) *AuthHandler {
	return &AuthHandler{
		AuthService:    authService,
		TokenBlacklist: tokenBlacklist,
	}
}

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful login or registration.
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// ErrorResponse is the generic error payload of the API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// validateRegistration applies the same minimal shape rules the clients use.
func validateRegistration(req RegisterRequest) string {
	if len(req.Username) < 6 {
		return "username must be at least 6 characters"
	}
	if len(req.Password) < 6 {
		return "password must be at least 6 characters"
	}
	if req.Fullname == "" {
		return "fullname must not be empty"
	}
	if !strings.Contains(req.Email, "@") || len(req.Email) < 6 {
		return "email is not valid"
	}
	return ""
}

// Register handles user registration requests.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if msg := validateRegistration(req); msg != "" {
		writeJSONError(w, msg, http.StatusBadRequest)
		return
	}

	token, user, err := h.AuthService.Register(r.Context(), req.Username, req.Fullname, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUserAlreadyExists) {
			writeJSONError(w, err.Error(), http.StatusConflict)
		} else {
			writeJSONError(w, "registration failed", http.StatusInternalServerError)
		}
		return
	}

	user.PasswordHash = ""
	writeJSONResponse(w, http.StatusCreated, LoginResponse{Token: token, User: user})
}

// Login handles user login requests.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Username == "" || req.Password == "" {
		writeJSONError(w, "username and password must not be empty", http.StatusBadRequest)
		return
	}

	token, user, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeJSONError(w, services.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
		} else {
			writeJSONError(w, "login failed", http.StatusInternalServerError)
		}
		return
	}

	user.PasswordHash = ""
	writeJSONResponse(w, http.StatusOK, LoginResponse{Token: token, User: user})
}

// LogoutHandler revokes the current token by blacklisting its JTI.
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaimsFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return
	}

	if claims.ID == "" {
		writeJSONError(w, "token is missing its JTI, cannot log out", http.StatusInternalServerError)
		return
	}
	if claims.ExpiresAt == nil {
		writeJSONError(w, "token is missing its expiry, cannot log out", http.StatusInternalServerError)
		return
	}

	if err := h.TokenBlacklist.Add(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
		writeJSONError(w, "logout failed", http.StatusInternalServerError)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// writeJSONResponse sends data as a JSON response with the given status.
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already out; nothing sensible left to do.
			return
		}
	}
}

// writeJSONError sends an ErrorResponse with the given status.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, statusCode, ErrorResponse{Error: message})
}
