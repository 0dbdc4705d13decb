package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"facegram/internal/services"
)

// FriendHandler bundles the friendship and friend request HTTP handlers.
type FriendHandler struct {
	FriendshipService services.FriendshipService
}

// NewFriendHandler creates a new FriendHandler instance.
func NewFriendHandler(friendshipService services.FriendshipService) *FriendHandler {
	return &FriendHandler{FriendshipService: friendshipService}
}

// FriendRequestBody is the request body for sending a friend request.
type FriendRequestBody struct {
	TargetID uint `json:"targetId"`
}

// SendRequest sends a friend request from the authenticated user.
func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req FriendRequestBody
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := h.FriendshipService.SendFriendRequest(r.Context(), actorID, req.TargetID); err != nil {
		writeFriendshipError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, map[string]string{"message": "friend request sent"})
}

// AcceptRequest accepts the pending request from the sender in the path.
func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	senderID, err := pathID(r, "senderId")
	if err != nil {
		writeJSONError(w, "invalid sender id", http.StatusBadRequest)
		return
	}

	if err := h.FriendshipService.AcceptFriendRequest(r.Context(), actorID, senderID); err != nil {
		writeFriendshipError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "friend request accepted"})
}

// DeclineRequest declines the pending request from the sender in the path.
func (h *FriendHandler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	senderID, err := pathID(r, "senderId")
	if err != nil {
		writeJSONError(w, "invalid sender id", http.StatusBadRequest)
		return
	}

	if err := h.FriendshipService.DeclineFriendRequest(r.Context(), actorID, senderID); err != nil {
		writeFriendshipError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "friend request declined"})
}

// WithdrawRequest withdraws the authenticated user's pending request to the
// target in the path.
func (h *FriendHandler) WithdrawRequest(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	targetID, err := pathID(r, "targetId")
	if err != nil {
		writeJSONError(w, "invalid target id", http.StatusBadRequest)
		return
	}

	if err := h.FriendshipService.WithdrawFriendRequest(r.Context(), actorID, targetID); err != nil {
		writeFriendshipError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "friend request withdrawn"})
}

// ListRequests returns the pending friend requests addressed to the user.
func (h *FriendHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	requests, err := h.FriendshipService.ListPendingRequests(r.Context(), actorID)
	if err != nil {
		writeJSONError(w, "failed to list friend requests", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, requests)
}

// ListFriends returns the authenticated user's friend list.
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	friends, err := h.FriendshipService.ListFriends(r.Context(), actorID)
	if err != nil {
		writeJSONError(w, "failed to list friends", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, friends)
}

// RemoveFriend dissolves the friendship with the user in the path.
func (h *FriendHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	targetID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	if err := h.FriendshipService.RemoveFriend(r.Context(), actorID, targetID); err != nil {
		writeFriendshipError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "friend removed"})
}

// writeFriendshipError maps friendship service errors to HTTP statuses.
func writeFriendshipError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSelfRequest),
		errors.Is(err, services.ErrNotFriends):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrRequestNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrRequestAlreadySent),
		errors.Is(err, services.ErrAlreadyFriends):
		writeJSONError(w, err.Error(), http.StatusConflict)
	default:
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
