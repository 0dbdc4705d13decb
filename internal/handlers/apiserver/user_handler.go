package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"facegram/internal/config"
	"facegram/internal/middleware"
	"facegram/internal/services"
	"facegram/internal/storage"

	"github.com/gorilla/mux"
)

// UserHandler bundles the user profile HTTP handlers.
type UserHandler struct {
	UserService       services.UserService
	FriendshipService services.FriendshipService
	FileStore         storage.FileStore
	StorageConfig     config.StorageConfig
}

// NewUserHandler creates a new UserHandler instance.
func NewUserHandler(userService services.UserService, friendshipService services.FriendshipService, fileStore storage.FileStore, storageCfg config.StorageConfig) *UserHandler {
	return &UserHandler{
		UserService:       userService,
		FriendshipService: friendshipService,
		FileStore:         fileStore,
		StorageConfig:     storageCfg,
	}
}

// pathID extracts a uint path variable from the request.
func pathID(r *http.Request, name string) (uint, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// requireUserID pulls the authenticated user ID out of the request context.
func requireUserID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		writeJSONError(w, "not authenticated", http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}

// GetMe returns the authenticated user's own profile.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.UserService.GetProfile(r.Context(), userID)
	if err != nil {
		writeUserServiceError(w, err)
		return
	}
	user.PasswordHash = ""
	writeJSONResponse(w, http.StatusOK, user)
}

// GetUser returns another user's public profile.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	targetID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	user, err := h.UserService.GetProfile(r.Context(), targetID)
	if err != nil {
		writeUserServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, user.BasicInfo())
}

// GetUserFriends returns the friend list of a user.
func (h *UserHandler) GetUserFriends(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUserID(w, r); !ok {
		return
	}
	targetID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	friends, err := h.FriendshipService.ListFriends(r.Context(), targetID)
	if err != nil {
		writeJSONError(w, "failed to list friends", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, friends)
}

// UpdateUserRequest is the request body for profile updates. Absent fields
// are left unchanged.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Fullname *string `json:"fullname,omitempty"`
	Password *string `json:"password,omitempty"`
}

// UpdateMe applies profile changes to the authenticated user.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if req.Username != nil && len(*req.Username) < 6 {
		writeJSONError(w, "username must be at least 6 characters", http.StatusBadRequest)
		return
	}
	if req.Password != nil && len(*req.Password) < 6 {
		writeJSONError(w, "password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	user, err := h.UserService.UpdateProfile(r.Context(), userID, services.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Fullname: req.Fullname,
		Password: req.Password,
	})
	if err != nil {
		writeUserServiceError(w, err)
		return
	}
	user.PasswordHash = ""
	writeJSONResponse(w, http.StatusOK, user)
}

// UploadProfilePhoto stores a new profile photo for the authenticated user.
func (h *UserHandler) UploadProfilePhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	fileInfo, status, err := storeUploadedPhoto(w, r, "photo", h.FileStore, h.StorageConfig)
	if err != nil {
		writeJSONError(w, err.Error(), status)
		return
	}

	user, err := h.UserService.SetProfilePhoto(r.Context(), userID, fileInfo)
	if err != nil {
		writeUserServiceError(w, err)
		return
	}
	user.PasswordHash = ""
	writeJSONResponse(w, http.StatusOK, user)
}

// RemoveProfilePhoto removes the authenticated user's profile photo.
func (h *UserHandler) RemoveProfilePhoto(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.UserService.RemoveProfilePhoto(r.Context(), userID); err != nil {
		writeUserServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "profile photo removed"})
}

// DeleteMe deletes the authenticated user's account and everything it owns.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.UserService.DeleteAccount(r.Context(), userID); err != nil {
		writeUserServiceError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "account deleted"})
}

// writeUserServiceError maps user service errors to HTTP statuses.
func writeUserServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrUserAlreadyExists):
		writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrNoProfilePhoto):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
