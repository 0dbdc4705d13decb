package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"facegram/internal/access"
	"facegram/internal/config"
	"facegram/internal/kafka"
	"facegram/internal/models"
	"facegram/internal/storage"

	"gorm.io/gorm"
)

var (
	ErrPostNotFound    = errors.New("post does not exist")
	ErrNotAllowed      = errors.New("you are not allowed to perform this action")
	ErrAlreadyLiked    = errors.New("post is already liked")
	ErrNotLiked        = errors.New("post is not liked")
	ErrCommentNotFound = errors.New("comment does not exist")
	ErrEmptyComment    = errors.New("comment text must not be empty")
)

// PostService manages posts, likes and comments. Every interaction with
// another user's post passes the friendship gate first.
type PostService interface {
	CreatePost(ctx context.Context, actorID uint, image *storage.FileInfo, description string) (*models.Post, error)
	PostsByUser(ctx context.Context, actorID, ownerID uint) ([]models.Post, error)
	LikePost(ctx context.Context, actorID, postID uint) error
	UnlikePost(ctx context.Context, actorID, postID uint) error
	CommentPost(ctx context.Context, actorID, postID uint, text string) (*models.PostComment, error)
	DeleteComment(ctx context.Context, actorID, postID, commentID uint) error
	DeletePost(ctx context.Context, actorID, postID uint) error
}

type postService struct {
	txRunner       storage.TxRunner
	postRepo       storage.PostRepository
	userRepo       storage.UserRepository
	friendshipRepo storage.FriendshipRepository
	fileStore      storage.FileStore
	producer       kafka.MessageProducer
	kafkaConfig    config.KafkaConfig
}

// NewPostService creates a new PostService instance.
func NewPostService(
	txRunner storage.TxRunner,
	postRepo storage.PostRepository,
	userRepo storage.UserRepository,
	friendshipRepo storage.FriendshipRepository,
	fileStore storage.FileStore,
	producer kafka.MessageProducer,
	cfg config.KafkaConfig,
) PostService {
	return &postService{
		txRunner:       txRunner,
		postRepo:       postRepo,
		userRepo:       userRepo,
		friendshipRepo: friendshipRepo,
		fileStore:      fileStore,
		producer:       producer,
		kafkaConfig:    cfg,
	}
}

// getPost loads a post, mapping a missing row to ErrPostNotFound.
func (s *postService) getPost(ctx context.Context, postID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to load post %d: %w", postID, err)
	}
	return post, nil
}

// gateContent checks whether actor may interact with content owned by owner.
func (s *postService) gateContent(ctx context.Context, actorID, ownerID uint) error {
	if actorID == ownerID {
		return nil
	}
	areFriends, err := s.friendshipRepo.AreUsersFriends(ctx, actorID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to check friendship: %w", err)
	}
	if !access.CanViewOrActOnContent(actorID, ownerID, areFriends) {
		return ErrNotAllowed
	}
	return nil
}

// CreatePost stores a new post and bumps the owner's post counter in one
// transaction. The image has already been stored by the handler.
func (s *postService) CreatePost(ctx context.Context, actorID uint, image *storage.FileInfo, description string) (*models.Post, error) {
	post := &models.Post{
		UserID:      actorID,
		Image:       image.Name,
		Description: description,
	}

	err := s.txRunner.RunInTx(ctx, func(repos storage.TxRepos) error {
		if err := repos.Posts.Create(ctx, post); err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		if err := repos.Users.IncrementPostCount(ctx, actorID, 1); err != nil {
			return fmt.Errorf("failed to update post count: %w", err)
		}
		return nil
	})
	if err != nil {
		// The stored image has no post row; drop it rather than leak it.
		if delErr := s.fileStore.Delete(ctx, image.Name); delErr != nil {
			log.Printf("Error deleting orphaned post image %s: %v", image.Name, delErr)
		}
		return nil, err
	}
	return post, nil
}

// PostsByUser returns the posts of ownerID, gated by friendship.
func (s *postService) PostsByUser(ctx context.Context, actorID, ownerID uint) ([]models.Post, error) {
	if _, err := s.userRepo.GetByID(ctx, ownerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to check post owner: %w", err)
	}
	if err := s.gateContent(ctx, actorID, ownerID); err != nil {
		return nil, err
	}
	return s.postRepo.ListByUser(ctx, ownerID)
}

// LikePost records actor's like on the post. A second like by the same user
// is rejected instead of double counting.
func (s *postService) LikePost(ctx context.Context, actorID, postID uint) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.gateContent(ctx, actorID, post.UserID); err != nil {
		return err
	}

	txErr := s.txRunner.RunInTx(ctx, func(repos storage.TxRepos) error {
		liked, err := repos.Posts.HasLike(ctx, postID, actorID)
		if err != nil {
			return fmt.Errorf("failed to check existing like: %w", err)
		}
		if liked {
			return ErrAlreadyLiked
		}
		if err := repos.Posts.CreateLike(ctx, &models.PostLike{PostID: postID, UserID: actorID}); err != nil {
			// The unique index backs up the check above under concurrency.
			if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
				return ErrAlreadyLiked
			}
			return fmt.Errorf("failed to create like: %w", err)
		}
		if err := repos.Posts.IncrementLikeCount(ctx, postID, 1); err != nil {
			return fmt.Errorf("failed to update like count: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	if post.UserID != actorID {
		publishNotification(ctx, s.producer, s.kafkaConfig, kafka.NotificationEvent{
			Type:         kafka.PostLikedEvent,
			ActorID:      actorID,
			RecipientIDs: []uint{post.UserID},
			SubjectID:    postID,
		})
	}
	return nil
}

// UnlikePost removes actor's like on the post. An unlike without a prior like
// is an error, except for the post owner, for whom it is a no-op. The counter
// only moves when a like row was actually removed.
func (s *postService) UnlikePost(ctx context.Context, actorID, postID uint) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}
	if err := s.gateContent(ctx, actorID, post.UserID); err != nil {
		return err
	}

	return s.txRunner.RunInTx(ctx, func(repos storage.TxRepos) error {
		removed, err := repos.Posts.DeleteLike(ctx, postID, actorID)
		if err != nil {
			return fmt.Errorf("failed to delete like: %w", err)
		}
		if !removed {
			if actorID == post.UserID {
				return nil
			}
			return ErrNotLiked
		}
		if err := repos.Posts.IncrementLikeCount(ctx, postID, -1); err != nil {
			return fmt.Errorf("failed to update like count: %w", err)
		}
		return nil
	})
}

// CommentPost appends actor's comment to the post, gated by friendship.
func (s *postService) CommentPost(ctx context.Context, actorID, postID uint, text string) (*models.PostComment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyComment
	}

	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := s.gateContent(ctx, actorID, post.UserID); err != nil {
		return nil, err
	}

	comment := &models.PostComment{
		PostID:   postID,
		AuthorID: actorID,
		Text:     text,
	}
	if err := s.postRepo.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if post.UserID != actorID {
		publishNotification(ctx, s.producer, s.kafkaConfig, kafka.NotificationEvent{
			Type:         kafka.PostCommentedEvent,
			ActorID:      actorID,
			RecipientIDs: []uint{post.UserID},
			SubjectID:    postID,
		})
	}
	return comment, nil
}

// DeleteComment removes a comment. Only the post owner or the comment author
// may delete; current friendship status does not matter.
func (s *postService) DeleteComment(ctx context.Context, actorID, postID, commentID uint) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}

	comment, err := s.postRepo.GetCommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to load comment %d: %w", commentID, err)
	}
	if comment.PostID != postID {
		return ErrCommentNotFound
	}

	if !access.CanDeleteComment(actorID, post.UserID, comment.AuthorID) {
		return ErrNotAllowed
	}

	return s.postRepo.DeleteComment(ctx, commentID)
}

// DeletePost removes the post with its likes and comments and decrements the
// owner's post counter, all in one transaction. The stored image is unlinked
// afterwards, best effort.
func (s *postService) DeletePost(ctx context.Context, actorID, postID uint) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}
	if !access.CanDeletePost(actorID, post.UserID) {
		return ErrNotAllowed
	}

	txErr := s.txRunner.RunInTx(ctx, func(repos storage.TxRepos) error {
		if err := repos.Posts.DeleteLikesForPost(ctx, postID); err != nil {
			return fmt.Errorf("failed to delete likes: %w", err)
		}
		if err := repos.Posts.DeleteCommentsForPost(ctx, postID); err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		if err := repos.Posts.Delete(ctx, postID); err != nil {
			return fmt.Errorf("failed to delete post: %w", err)
		}
		if err := repos.Users.IncrementPostCount(ctx, post.UserID, -1); err != nil {
			return fmt.Errorf("failed to update post count: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return txErr
	}

	if err := s.fileStore.Delete(ctx, post.Image); err != nil {
		log.Printf("Error deleting image %s of post %d: %v", post.Image, postID, err)
	}
	return nil
}
