package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"facegram/internal/config"
	"facegram/internal/services"
	"facegram/internal/storage"
)

// PostHandler bundles the post, like and comment HTTP handlers.
type PostHandler struct {
	PostService   services.PostService
	FileStore     storage.FileStore
	StorageConfig config.StorageConfig
}

// NewPostHandler creates a new PostHandler instance.
func NewPostHandler(postService services.PostService, fileStore storage.FileStore, storageCfg config.StorageConfig) *PostHandler {
	return &PostHandler{
		PostService:   postService,
		FileStore:     fileStore,
		StorageConfig: storageCfg,
	}
}

// CreatePost stores the uploaded photo and creates a post around it.
// The request is multipart: an "image" file plus a "description" field.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	fileInfo, status, err := storeUploadedPhoto(w, r, "image", h.FileStore, h.StorageConfig)
	if err != nil {
		writeJSONError(w, err.Error(), status)
		return
	}
	description := r.FormValue("description")

	post, err := h.PostService.CreatePost(r.Context(), actorID, fileInfo, description)
	if err != nil {
		writePostError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, post)
}

// GetUserPosts returns the posts of the user in the path, friendship gated.
func (h *PostHandler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	ownerID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, "invalid user id", http.StatusBadRequest)
		return
	}

	posts, err := h.PostService.PostsByUser(r.Context(), actorID, ownerID)
	if err != nil {
		writePostError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, posts)
}

// LikePost records a like on the post in the path.
func (h *PostHandler) LikePost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	postID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, "invalid post id", http.StatusBadRequest)
		return
	}

	if err := h.PostService.LikePost(r.Context(), actorID, postID); err != nil {
		writePostError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "post liked"})
}

// UnlikePost removes a like from the post in the path.
func (h *PostHandler) UnlikePost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	postID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, "invalid post id", http.StatusBadRequest)
		return
	}

	if err := h.PostService.UnlikePost(r.Context(), actorID, postID); err != nil {
		writePostError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "post unliked"})
}

// CommentRequest is the request body for commenting on a post.
type CommentRequest struct {
	Text string `json:"text"`
}

// CommentPost appends a comment to the post in the path.
func (h *PostHandler) CommentPost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	postID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, "invalid post id", http.StatusBadRequest)
		return
	}

	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	comment, err := h.PostService.CommentPost(r.Context(), actorID, postID, req.Text)
	if err != nil {
		writePostError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, comment)
}

// DeleteComment removes the comment in the path.
func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	postID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, "invalid post id", http.StatusBadRequest)
		return
	}
	commentID, err := pathID(r, "commentId")
	if err != nil {
		writeJSONError(w, "invalid comment id", http.StatusBadRequest)
		return
	}

	if err := h.PostService.DeleteComment(r.Context(), actorID, postID, commentID); err != nil {
		writePostError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "comment deleted"})
}

// DeletePost removes the post in the path, owner only.
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	postID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, "invalid post id", http.StatusBadRequest)
		return
	}

	if err := h.PostService.DeletePost(r.Context(), actorID, postID); err != nil {
		writePostError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{"message": "post deleted"})
}

// writePostError maps post service errors to HTTP statuses.
func writePostError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, services.ErrCommentNotFound),
		errors.Is(err, services.ErrUserNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrNotAllowed):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrAlreadyLiked):
		writeJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, services.ErrNotLiked),
		errors.Is(err, services.ErrEmptyComment):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
