package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"facegram/internal/auth"
	"facegram/internal/models"
	"facegram/internal/storage"

	"gorm.io/gorm"
)

var ErrNoProfilePhoto = errors.New("user has no profile photo")

// UpdateUserInput carries the optional profile fields to change. Nil fields
// are left untouched.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Fullname *string
	Password *string
}

// UserService manages user profiles, profile photos and account deletion.
type UserService interface {
	GetProfile(ctx context.Context, userID uint) (*models.User, error)
	UpdateProfile(ctx context.Context, actorID uint, input UpdateUserInput) (*models.User, error)
	SetProfilePhoto(ctx context.Context, actorID uint, photo *storage.FileInfo) (*models.User, error)
	RemoveProfilePhoto(ctx context.Context, actorID uint) error
	DeleteAccount(ctx context.Context, actorID uint) error
}

type userService struct {
	txRunner         storage.TxRunner
	userRepo         storage.UserRepository
	friendshipRepo   storage.FriendshipRepository
	postRepo         storage.PostRepository
	conversationRepo storage.ConversationRepository
	fileStore        storage.FileStore
}

// NewUserService creates a new UserService instance.
func NewUserService(
	txRunner storage.TxRunner,
	userRepo storage.UserRepository,
	friendshipRepo storage.FriendshipRepository,
	postRepo storage.PostRepository,
	conversationRepo storage.ConversationRepository,
	fileStore storage.FileStore,
) UserService {
	return &userService{
		txRunner:         txRunner,
		userRepo:         userRepo,
		friendshipRepo:   friendshipRepo,
		postRepo:         postRepo,
		conversationRepo: conversationRepo,
		fileStore:        fileStore,
	}
}

// GetProfile returns the user's profile.
func (s *userService) GetProfile(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return user, nil
}

// UpdateProfile applies the provided profile changes. Username and email
// uniqueness is re-checked; a new password is re-hashed.
func (s *userService) UpdateProfile(ctx context.Context, actorID uint, input UpdateUserInput) (*models.User, error) {
	user, err := s.GetProfile(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if input.Username != nil && *input.Username != user.Username {
		existing, err := s.userRepo.GetByUsername(ctx, *input.Username)
		if err == nil && existing.ID != actorID {
			return nil, ErrUserAlreadyExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		user.Username = *input.Username
	}

	if input.Email != nil && *input.Email != user.Email {
		existing, err := s.userRepo.GetByEmail(ctx, *input.Email)
		if err == nil && existing.ID != actorID {
			return nil, ErrUserAlreadyExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		user.Email = *input.Email
	}

	if input.Fullname != nil {
		user.Fullname = *input.Fullname
	}

	if input.Password != nil {
		hashed, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hashed
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// SetProfilePhoto stores the new profile photo reference and unlinks the
// previous photo, if any.
func (s *userService) SetProfilePhoto(ctx context.Context, actorID uint, photo *storage.FileInfo) (*models.User, error) {
	user, err := s.GetProfile(ctx, actorID)
	if err != nil {
		return nil, err
	}

	previous := user.ProfilePhoto
	user.ProfilePhoto = photo.Name
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile photo: %w", err)
	}

	if previous != "" {
		if err := s.fileStore.Delete(ctx, previous); err != nil {
			log.Printf("Error deleting previous profile photo %s of user %d: %v", previous, actorID, err)
		}
	}
	return user, nil
}

// RemoveProfilePhoto clears the profile photo and unlinks the stored file.
// Removing when no photo is set is an error.
func (s *userService) RemoveProfilePhoto(ctx context.Context, actorID uint) error {
	user, err := s.GetProfile(ctx, actorID)
	if err != nil {
		return err
	}
	if user.ProfilePhoto == "" {
		return ErrNoProfilePhoto
	}

	previous := user.ProfilePhoto
	user.ProfilePhoto = ""
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to clear profile photo: %w", err)
	}

	if err := s.fileStore.Delete(ctx, previous); err != nil {
		log.Printf("Error deleting profile photo %s of user %d: %v", previous, actorID, err)
	}
	return nil
}

// DeleteAccount removes the user and everything attached to them: posts with
// their likes and comments, friendships with counter fan-out to ex-friends,
// pending requests in both directions and conversation memberships. All rows
// change in one transaction; stored files are unlinked afterwards.
func (s *userService) DeleteAccount(ctx context.Context, actorID uint) error {
	user, err := s.GetProfile(ctx, actorID)
	if err != nil {
		return err
	}

	postImages, err := s.postRepo.ListImagesByUser(ctx, actorID)
	if err != nil {
		return fmt.Errorf("failed to list post images: %w", err)
	}

	txErr := s.txRunner.RunInTx(ctx, func(repos storage.TxRepos) error {
		friendIDs, err := repos.Friendships.GetFriendIDs(ctx, actorID)
		if err != nil {
			return fmt.Errorf("failed to list friends: %w", err)
		}
		for _, friendID := range friendIDs {
			if _, err := repos.Friendships.Delete(ctx, actorID, friendID); err != nil {
				return fmt.Errorf("failed to delete friendship with %d: %w", friendID, err)
			}
			if err := repos.Users.IncrementFriendCount(ctx, friendID, -1); err != nil {
				return fmt.Errorf("failed to update friend count for user %d: %w", friendID, err)
			}
		}

		if err := repos.FriendRequests.DeleteAllForUser(ctx, actorID); err != nil {
			return fmt.Errorf("failed to delete pending requests: %w", err)
		}

		if err := repos.Posts.DeleteAllByUser(ctx, actorID); err != nil {
			return fmt.Errorf("failed to delete posts: %w", err)
		}

		if err := repos.Conversations.DeleteParticipantsForUser(ctx, actorID); err != nil {
			return fmt.Errorf("failed to delete conversation memberships: %w", err)
		}

		if err := repos.Users.Delete(ctx, actorID); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	if user.ProfilePhoto != "" {
		if err := s.fileStore.Delete(ctx, user.ProfilePhoto); err != nil {
			log.Printf("Error deleting profile photo %s of deleted user %d: %v", user.ProfilePhoto, actorID, err)
		}
	}
	for _, image := range postImages {
		if err := s.fileStore.Delete(ctx, image); err != nil {
			log.Printf("Error deleting post image %s of deleted user %d: %v", image, actorID, err)
		}
	}
	log.Printf("Account %d deleted", actorID)
	return nil
}
