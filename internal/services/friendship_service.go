package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"facegram/internal/config"
	"facegram/internal/kafka"
	"facegram/internal/models"
	"facegram/internal/storage"

	"gorm.io/gorm"
)

var (
	ErrSelfRequest        = errors.New("cannot send a friend request to yourself")
	ErrUserNotFound       = errors.New("user does not exist")
	ErrRequestAlreadySent = errors.New("a friend request to this user is already pending")
	ErrAlreadyFriends     = errors.New("users are already friends")
	ErrRequestNotFound    = errors.New("friend request does not exist")
	ErrNotFriends         = errors.New("users are not friends")
)

// FriendshipService manages the friend request lifecycle and the friendship
// relation. Counters and relationship rows always change in one transaction.
type FriendshipService interface {
	SendFriendRequest(ctx context.Context, actorID, targetID uint) error
	AcceptFriendRequest(ctx context.Context, actorID, senderID uint) error
	DeclineFriendRequest(ctx context.Context, actorID, senderID uint) error
	WithdrawFriendRequest(ctx context.Context, actorID, targetID uint) error
	RemoveFriend(ctx context.Context, actorID, targetID uint) error

	AreFriends(ctx context.Context, userID1, userID2 uint) (bool, error)
	HasPendingRequest(ctx context.Context, senderID, recipientID uint) (bool, error)
	ListFriends(ctx context.Context, userID uint) ([]*models.UserBasicInfo, error)
	ListPendingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error)
}

type friendshipService struct {
	txRunner       storage.TxRunner
	userRepo       storage.UserRepository
	requestRepo    storage.FriendRequestRepository
	friendshipRepo storage.FriendshipRepository
	producer       kafka.MessageProducer
	kafkaConfig    config.KafkaConfig
}

// NewFriendshipService creates a new FriendshipService instance.
func NewFriendshipService(
	txRunner storage.TxRunner,
	userRepo storage.UserRepository,
	requestRepo storage.FriendRequestRepository,
	friendshipRepo storage.FriendshipRepository,
	producer kafka.MessageProducer,
	cfg config.KafkaConfig,
) FriendshipService {
	return &friendshipService{
		txRunner:       txRunner,
		userRepo:       userRepo,
		requestRepo:    requestRepo,
		friendshipRepo: friendshipRepo,
		producer:       producer,
		kafkaConfig:    cfg,
	}
}

// SendFriendRequest records a pending request from actor to target.
func (s *friendshipService) SendFriendRequest(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return ErrSelfRequest
	}

	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to check target user: %w", err)
	}

	areFriends, err := s.friendshipRepo.AreUsersFriends(ctx, actorID, targetID)
	if err != nil {
		return fmt.Errorf("failed to check friendship: %w", err)
	}
	if areFriends {
		return ErrAlreadyFriends
	}

	existing, err := s.requestRepo.FindPending(ctx, actorID, targetID)
	if err != nil {
		return fmt.Errorf("failed to check existing request: %w", err)
	}
	if existing != nil {
		return ErrRequestAlreadySent
	}

	request := models.FriendRequest{
		RequesterUserID: actorID,
		RecipientUserID: targetID,
	}
	if err := s.requestRepo.Create(ctx, &request); err != nil {
		return fmt.Errorf("failed to create friend request: %w", err)
	}

	log.Printf("Friend request %d -> %d created", actorID, targetID)
	publishNotification(ctx, s.producer, s.kafkaConfig, kafka.NotificationEvent{
		Type:         kafka.FriendRequestEvent,
		ActorID:      actorID,
		RecipientIDs: []uint{targetID},
	})
	return nil
}

// AcceptFriendRequest turns the pending request from sender into a friendship.
// The pending rows (both directions), the friendship row and both friend
// counters change in a single transaction.
func (s *friendshipService) AcceptFriendRequest(ctx context.Context, actorID, senderID uint) error {
	if actorID == senderID {
		return ErrSelfRequest
	}

	txErr := s.txRunner.RunInTx(ctx, func(repos storage.TxRepos) error {
		pending, err := repos.FriendRequests.FindPending(ctx, senderID, actorID)
		if err != nil {
			return fmt.Errorf("failed to look up pending request: %w", err)
		}
		if pending == nil {
			return ErrRequestNotFound
		}

		areFriends, err := repos.Friendships.AreUsersFriends(ctx, actorID, senderID)
		if err != nil {
			return fmt.Errorf("failed to check friendship: %w", err)
		}
		if areFriends {
			return ErrAlreadyFriends
		}

		// Clear both directions so no pending row survives the friendship.
		if err := repos.FriendRequests.DeleteBetween(ctx, actorID, senderID); err != nil {
			return fmt.Errorf("failed to clear pending requests: %w", err)
		}

		friendship := &models.Friendship{UserID1: senderID, UserID2: actorID}
		friendship.EnsureCanonicalOrder()
		if err := repos.Friendships.Create(ctx, friendship); err != nil {
			return fmt.Errorf("failed to create friendship: %w", err)
		}

		if err := repos.Users.IncrementFriendCount(ctx, actorID, 1); err != nil {
			return fmt.Errorf("failed to update friend count for user %d: %w", actorID, err)
		}
		if err := repos.Users.IncrementFriendCount(ctx, senderID, 1); err != nil {
			return fmt.Errorf("failed to update friend count for user %d: %w", senderID, err)
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	log.Printf("Friend request %d -> %d accepted", senderID, actorID)
	publishNotification(ctx, s.producer, s.kafkaConfig, kafka.NotificationEvent{
		Type:         kafka.RequestAcceptedEvent,
		ActorID:      actorID,
		RecipientIDs: []uint{senderID},
	})
	return nil
}

// DeclineFriendRequest removes the pending request from sender to actor.
func (s *friendshipService) DeclineFriendRequest(ctx context.Context, actorID, senderID uint) error {
	removed, err := s.requestRepo.DeletePending(ctx, senderID, actorID)
	if err != nil {
		return fmt.Errorf("failed to decline friend request: %w", err)
	}
	if !removed {
		return ErrRequestNotFound
	}
	log.Printf("Friend request %d -> %d declined", senderID, actorID)
	return nil
}

// WithdrawFriendRequest removes the pending request from actor to target.
func (s *friendshipService) WithdrawFriendRequest(ctx context.Context, actorID, targetID uint) error {
	removed, err := s.requestRepo.DeletePending(ctx, actorID, targetID)
	if err != nil {
		return fmt.Errorf("failed to withdraw friend request: %w", err)
	}
	if !removed {
		return ErrRequestNotFound
	}
	log.Printf("Friend request %d -> %d withdrawn", actorID, targetID)
	return nil
}

// RemoveFriend dissolves the friendship between actor and target. The
// friendship row and both counters change in a single transaction.
func (s *friendshipService) RemoveFriend(ctx context.Context, actorID, targetID uint) error {
	if actorID == targetID {
		return ErrNotFriends
	}

	return s.txRunner.RunInTx(ctx, func(repos storage.TxRepos) error {
		removed, err := repos.Friendships.Delete(ctx, actorID, targetID)
		if err != nil {
			return fmt.Errorf("failed to delete friendship: %w", err)
		}
		if !removed {
			return ErrNotFriends
		}

		if err := repos.Users.IncrementFriendCount(ctx, actorID, -1); err != nil {
			return fmt.Errorf("failed to update friend count for user %d: %w", actorID, err)
		}
		if err := repos.Users.IncrementFriendCount(ctx, targetID, -1); err != nil {
			return fmt.Errorf("failed to update friend count for user %d: %w", targetID, err)
		}
		return nil
	})
}

// AreFriends reports whether the two users are currently friends.
func (s *friendshipService) AreFriends(ctx context.Context, userID1, userID2 uint) (bool, error) {
	return s.friendshipRepo.AreUsersFriends(ctx, userID1, userID2)
}

// HasPendingRequest reports whether a pending request from sender to recipient
// exists. Direction is significant.
func (s *friendshipService) HasPendingRequest(ctx context.Context, senderID, recipientID uint) (bool, error) {
	pending, err := s.requestRepo.FindPending(ctx, senderID, recipientID)
	if err != nil {
		return false, err
	}
	return pending != nil, nil
}

// ListFriends retrieves the basic info for all friends of the given user.
func (s *friendshipService) ListFriends(ctx context.Context, userID uint) ([]*models.UserBasicInfo, error) {
	friendIDs, err := s.friendshipRepo.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get friend list: %w", err)
	}

	if len(friendIDs) == 0 {
		return []*models.UserBasicInfo{}, nil
	}

	friendsInfo, err := s.userRepo.GetMultipleBasicInfoByIDs(ctx, friendIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get friend info: %w", err)
	}
	return friendsInfo, nil
}

// ListPendingRequests retrieves the pending friend requests addressed to the user.
func (s *friendshipService) ListPendingRequests(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	requests, err := s.requestRepo.GetPendingRequestsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending friend requests: %w", err)
	}
	return requests, nil
}
