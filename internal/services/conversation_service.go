package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"facegram/internal/access"
	"facegram/internal/config"
	"facegram/internal/kafka"
	"facegram/internal/models"
	"facegram/internal/storage"

	"gorm.io/gorm"
)

var (
	ErrConversationNotFound = errors.New("conversation does not exist")
	ErrNotParticipant       = errors.New("you are not a participant of this conversation")
	ErrNoParticipants       = errors.New("a conversation needs at least one other participant")
	ErrEmptyMessage         = errors.New("message content must not be empty")
	ErrInvalidMessageType   = errors.New("unsupported message type")
)

// MessageInput carries the content of a message to append. For photo messages
// StoredPhoto names the already stored file; it is deleted if the membership
// gate denies the append.
type MessageInput struct {
	Type        models.MessageType
	Text        string
	StoredPhoto string
}

// ConversationService manages conversations, their membership and messages.
type ConversationService interface {
	CreateConversation(ctx context.Context, actorID uint, participantIDs []uint, name string) (*models.Conversation, error)
	GetConversation(ctx context.Context, actorID, conversationID uint) (*models.Conversation, error)
	GetParticipants(ctx context.Context, actorID, conversationID uint) ([]*models.UserBasicInfo, error)
	ListUserConversations(ctx context.Context, actorID uint) ([]models.Conversation, error)
	GetMessages(ctx context.Context, actorID, conversationID uint) ([]models.Message, error)
	AppendMessage(ctx context.Context, actorID, conversationID uint, input MessageInput) (*models.Message, error)
}

type conversationService struct {
	txRunner         storage.TxRunner
	conversationRepo storage.ConversationRepository
	userRepo         storage.UserRepository
	fileStore        storage.FileStore
	producer         kafka.MessageProducer
	kafkaConfig      config.KafkaConfig
}

// NewConversationService creates a new ConversationService instance.
func NewConversationService(
	txRunner storage.TxRunner,
	conversationRepo storage.ConversationRepository,
	userRepo storage.UserRepository,
	fileStore storage.FileStore,
	producer kafka.MessageProducer,
	cfg config.KafkaConfig,
) ConversationService {
	return &conversationService{
		txRunner:         txRunner,
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		fileStore:        fileStore,
		producer:         producer,
		kafkaConfig:      cfg,
	}
}

// CreateConversation creates a conversation with the deduplicated participant
// set, always including the creator. The conversation row and all participant
// rows are written in one transaction.
func (s *conversationService) CreateConversation(ctx context.Context, actorID uint, participantIDs []uint, name string) (*models.Conversation, error) {
	// Dedupe and force-include the creator.
	seen := map[uint]bool{actorID: true}
	members := []uint{actorID}
	for _, id := range participantIDs {
		if !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}
	if len(members) < 2 {
		return nil, ErrNoParticipants
	}

	for _, id := range members {
		if _, err := s.userRepo.GetByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, fmt.Errorf("failed to check participant %d: %w", id, err)
		}
	}

	conversation := &models.Conversation{
		Name:      name,
		CreatorID: actorID,
	}
	err := s.txRunner.RunInTx(ctx, func(repos storage.TxRepos) error {
		if err := repos.Conversations.Create(ctx, conversation); err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}
		now := time.Now()
		for _, id := range members {
			participant := &models.ConversationParticipant{
				ConversationID: conversation.ID,
				UserID:         id,
				JoinedAt:       now,
			}
			if err := repos.Conversations.AddParticipant(ctx, participant); err != nil {
				return fmt.Errorf("failed to add participant %d: %w", id, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conversation, nil
}

// getGatedConversation loads a conversation and verifies actor membership.
func (s *conversationService) getGatedConversation(ctx context.Context, actorID, conversationID uint) (*models.Conversation, []uint, error) {
	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrConversationNotFound
		}
		return nil, nil, fmt.Errorf("failed to load conversation %d: %w", conversationID, err)
	}

	participantIDs := make([]uint, 0, len(conversation.Participants))
	for _, p := range conversation.Participants {
		participantIDs = append(participantIDs, p.UserID)
	}

	if !access.CanSendConversationMessage(actorID, participantIDs) {
		return nil, nil, ErrNotParticipant
	}
	return conversation, participantIDs, nil
}

// GetConversation returns the conversation if actor participates in it.
func (s *conversationService) GetConversation(ctx context.Context, actorID, conversationID uint) (*models.Conversation, error) {
	conversation, _, err := s.getGatedConversation(ctx, actorID, conversationID)
	return conversation, err
}

// GetParticipants returns the basic info of the conversation's participants.
func (s *conversationService) GetParticipants(ctx context.Context, actorID, conversationID uint) ([]*models.UserBasicInfo, error) {
	_, participantIDs, err := s.getGatedConversation(ctx, actorID, conversationID)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetMultipleBasicInfoByIDs(ctx, participantIDs)
}

// ListUserConversations returns the actor's own conversations.
func (s *conversationService) ListUserConversations(ctx context.Context, actorID uint) ([]models.Conversation, error) {
	return s.conversationRepo.ListByUser(ctx, actorID)
}

// GetMessages returns the conversation's messages if actor participates.
func (s *conversationService) GetMessages(ctx context.Context, actorID, conversationID uint) ([]models.Message, error) {
	if _, _, err := s.getGatedConversation(ctx, actorID, conversationID); err != nil {
		return nil, err
	}
	return s.conversationRepo.ListMessages(ctx, conversationID)
}

// AppendMessage appends a message to the conversation. The membership gate
// runs before any mutation; a photo already stored by the handler is deleted
// when the gate denies the append.
func (s *conversationService) AppendMessage(ctx context.Context, actorID, conversationID uint, input MessageInput) (*models.Message, error) {
	discardPhoto := func() {
		if input.StoredPhoto == "" {
			return
		}
		if err := s.fileStore.Delete(ctx, input.StoredPhoto); err != nil {
			log.Printf("Error discarding photo %s of denied message: %v", input.StoredPhoto, err)
		}
	}

	var content string
	switch input.Type {
	case models.TextMessageType:
		content = input.Text
		if strings.TrimSpace(content) == "" {
			return nil, ErrEmptyMessage
		}
	case models.PhotoMessageType:
		content = input.StoredPhoto
		if content == "" {
			return nil, ErrEmptyMessage
		}
	default:
		discardPhoto()
		return nil, ErrInvalidMessageType
	}

	_, participantIDs, err := s.getGatedConversation(ctx, actorID, conversationID)
	if err != nil {
		discardPhoto()
		return nil, err
	}

	message := &models.Message{
		ConversationID: conversationID,
		SenderID:       actorID,
		Type:           input.Type,
		Content:        content,
		SentAt:         time.Now(),
	}
	if err := s.conversationRepo.CreateMessage(ctx, message); err != nil {
		discardPhoto()
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	recipients := make([]uint, 0, len(participantIDs)-1)
	for _, id := range participantIDs {
		if id != actorID {
			recipients = append(recipients, id)
		}
	}
	if len(recipients) > 0 {
		publishNotification(ctx, s.producer, s.kafkaConfig, kafka.NotificationEvent{
			Type:         kafka.NewMessageEvent,
			ActorID:      actorID,
			RecipientIDs: recipients,
			SubjectID:    conversationID,
		})
	}
	return message, nil
}
