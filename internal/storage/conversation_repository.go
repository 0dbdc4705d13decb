package storage

import (
	"context"

	"gorm.io/gorm"

	"facegram/internal/models"
)

// ConversationRepository defines the interface for conversation data operations.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	GetByID(ctx context.Context, id uint) (*models.Conversation, error)
	AddParticipant(ctx context.Context, participant *models.ConversationParticipant) error
	GetParticipantIDs(ctx context.Context, conversationID uint) ([]uint, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Conversation, error)
	DeleteParticipantsForUser(ctx context.Context, userID uint) error

	CreateMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, conversationID uint) ([]models.Message, error)
}

type gormConversationRepository struct {
	db *gorm.DB
}

// NewGormConversationRepository creates a new GORM-based ConversationRepository.
func NewGormConversationRepository(db *gorm.DB) ConversationRepository {
	return &gormConversationRepository{db: db}
}

func (r *gormConversationRepository) Create(ctx context.Context, conversation *models.Conversation) error {
	return r.db.WithContext(ctx).Create(conversation).Error
}

// GetByID retrieves a conversation with its participants preloaded.
func (r *gormConversationRepository) GetByID(ctx context.Context, id uint) (*models.Conversation, error) {
	var conversation models.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		First(&conversation, id).Error
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

func (r *gormConversationRepository) AddParticipant(ctx context.Context, participant *models.ConversationParticipant) error {
	return r.db.WithContext(ctx).Create(participant).Error
}

// GetParticipantIDs returns the user IDs participating in the conversation.
func (r *gormConversationRepository) GetParticipantIDs(ctx context.Context, conversationID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.ConversationParticipant{}).
		Where("conversation_id = ?", conversationID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// ListByUser retrieves all conversations the user participates in.
func (r *gormConversationRepository) ListByUser(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Joins("JOIN conversation_participants cp ON cp.conversation_id = conversations.id").
		Where("cp.user_id = ?", userID).
		Order("conversations.updated_at DESC").
		Find(&conversations).Error
	return conversations, err
}

// DeleteParticipantsForUser removes the user from every conversation.
func (r *gormConversationRepository) DeleteParticipantsForUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.ConversationParticipant{}).Error
}

func (r *gormConversationRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

// ListMessages retrieves the conversation's messages in send order.
func (r *gormConversationRepository) ListMessages(ctx context.Context, conversationID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("sent_at ASC").
		Find(&messages).Error
	return messages, err
}
