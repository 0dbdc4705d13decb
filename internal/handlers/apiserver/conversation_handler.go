package apiserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"facegram/internal/config"
	"facegram/internal/models"
	"facegram/internal/services"
	"facegram/internal/storage"
)

// ConversationHandler bundles the conversation and message HTTP handlers.
type ConversationHandler struct {
	ConversationService services.ConversationService
	FileStore           storage.FileStore
	StorageConfig       config.StorageConfig
}

// NewConversationHandler creates a new ConversationHandler instance.
func NewConversationHandler(conversationService services.ConversationService, fileStore storage.FileStore, storageCfg config.StorageConfig) *ConversationHandler {
	return &ConversationHandler{
		ConversationService: conversationService,
		FileStore:           fileStore,
		StorageConfig:       storageCfg,
	}
}

// CreateConversationRequest is the request body for creating a conversation.
type CreateConversationRequest struct {
	ParticipantIDs []uint `json:"participantIds"`
	Name           string `json:"name,omitempty"`
}

// CreateConversation creates a conversation with the given participants.
func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	conversation, err := h.ConversationService.CreateConversation(r.Context(), actorID, req.ParticipantIDs, req.Name)
	if err != nil {
		writeConversationError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, conversation)
}

// ListConversations returns the authenticated user's conversations.
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	conversations, err := h.ConversationService.ListUserConversations(r.Context(), actorID)
	if err != nil {
		writeJSONError(w, "failed to list conversations", http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, conversations)
}

// GetConversation returns the conversation in the path, membership gated.
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	conversationID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, "invalid conversation id", http.StatusBadRequest)
		return
	}

	conversation, err := h.ConversationService.GetConversation(r.Context(), actorID, conversationID)
	if err != nil {
		writeConversationError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, conversation)
}

// GetParticipants returns the participants of the conversation in the path.
func (h *ConversationHandler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	conversationID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, "invalid conversation id", http.StatusBadRequest)
		return
	}

	participants, err := h.ConversationService.GetParticipants(r.Context(), actorID, conversationID)
	if err != nil {
		writeConversationError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, participants)
}

// GetMessages returns the messages of the conversation in the path.
func (h *ConversationHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	conversationID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, "invalid conversation id", http.StatusBadRequest)
		return
	}

	messages, err := h.ConversationService.GetMessages(r.Context(), actorID, conversationID)
	if err != nil {
		writeConversationError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, messages)
}

// SendMessageRequest is the JSON body for text messages. The wire message
// type "0" means text and "1" means photo.
type SendMessageRequest struct {
	MessageType string `json:"messageType"`
	Text        string `json:"text"`
}

// SendMessage appends a message to the conversation in the path. Text
// messages arrive as JSON; photo messages arrive as multipart with a "photo"
// file. The photo is stored before the membership gate runs; the service
// discards it again when the gate denies the append.
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	actorID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	conversationID, err := pathID(r, "id")
	if err != nil {
		writeJSONError(w, "invalid conversation id", http.StatusBadRequest)
		return
	}

	var input services.MessageInput
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		fileInfo, status, err := storeUploadedPhoto(w, r, "photo", h.FileStore, h.StorageConfig)
		if err != nil {
			writeJSONError(w, err.Error(), status)
			return
		}
		input = services.MessageInput{
			Type:        models.PhotoMessageType,
			StoredPhoto: fileInfo.Name,
		}
	} else {
		var req SendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "invalid request body", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		switch req.MessageType {
		case "0", "", string(models.TextMessageType):
			input = services.MessageInput{Type: models.TextMessageType, Text: req.Text}
		case "1", string(models.PhotoMessageType):
			writeJSONError(w, "photo messages must be sent as multipart form data", http.StatusBadRequest)
			return
		default:
			writeJSONError(w, "unsupported message type", http.StatusBadRequest)
			return
		}
	}

	message, err := h.ConversationService.AppendMessage(r.Context(), actorID, conversationID, input)
	if err != nil {
		writeConversationError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, message)
}

// writeConversationError maps conversation service errors to HTTP statuses.
func writeConversationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrConversationNotFound),
		errors.Is(err, services.ErrUserNotFound):
		writeJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, services.ErrNotParticipant):
		writeJSONError(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, services.ErrNoParticipants),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrInvalidMessageType):
		writeJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		writeJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
