package storage

import (
	"context"

	"gorm.io/gorm"

	"facegram/internal/models"
)

// PostRepository defines the interface for post, like and comment data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Post, error)
	// ListImagesByUser returns the stored image names of all posts by the user.
	ListImagesByUser(ctx context.Context, userID uint) ([]string, error)
	Delete(ctx context.Context, id uint) error
	DeleteAllByUser(ctx context.Context, userID uint) error

	CreateLike(ctx context.Context, like *models.PostLike) error
	// HasLike reports whether the user has an existing like on the post.
	HasLike(ctx context.Context, postID, userID uint) (bool, error)
	// DeleteLike removes the user's like, reporting whether a row was removed.
	DeleteLike(ctx context.Context, postID, userID uint) (bool, error)
	DeleteLikesForPost(ctx context.Context, postID uint) error
	// IncrementLikeCount adjusts NumberOfLikes by delta (may be negative).
	IncrementLikeCount(ctx context.Context, postID uint, delta int) error

	CreateComment(ctx context.Context, comment *models.PostComment) error
	GetCommentByID(ctx context.Context, commentID uint) (*models.PostComment, error)
	DeleteComment(ctx context.Context, commentID uint) error
	DeleteCommentsForPost(ctx context.Context, postID uint) error
}

type gormPostRepository struct {
	db *gorm.DB
}

// NewGormPostRepository creates a new GORM-based PostRepository.
func NewGormPostRepository(db *gorm.DB) PostRepository {
	return &gormPostRepository{db: db}
}

func (r *gormPostRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// GetByID retrieves a post with its comments preloaded.
func (r *gormPostRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Preload("Comments").First(&post, id).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListByUser retrieves all posts by a user, newest first.
func (r *gormPostRepository) ListByUser(ctx context.Context, userID uint) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("Comments").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&posts).Error
	return posts, err
}

// ListImagesByUser returns the stored image names of the user's posts.
func (r *gormPostRepository) ListImagesByUser(ctx context.Context, userID uint) ([]string, error) {
	var images []string
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("user_id = ?", userID).
		Pluck("image", &images).Error
	return images, err
}

func (r *gormPostRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Post{}, id).Error
}

// DeleteAllByUser removes all posts by the user, including their likes and comments.
func (r *gormPostRepository) DeleteAllByUser(ctx context.Context, userID uint) error {
	var postIDs []uint
	err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("user_id = ?", userID).
		Pluck("id", &postIDs).Error
	if err != nil {
		return err
	}
	if len(postIDs) > 0 {
		if err := r.db.WithContext(ctx).Unscoped().Where("post_id IN ?", postIDs).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := r.db.WithContext(ctx).Where("post_id IN ?", postIDs).Delete(&models.PostComment{}).Error; err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Post{}).Error
}

func (r *gormPostRepository) CreateLike(ctx context.Context, like *models.PostLike) error {
	return r.db.WithContext(ctx).Create(like).Error
}

// HasLike checks for an existing like row for (postID, userID).
func (r *gormPostRepository) HasLike(ctx context.Context, postID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// DeleteLike removes the user's like on the post, if any.
// Hard delete: a soft deleted row would still occupy the unique index and
// block the user from liking the post again.
func (r *gormPostRepository) DeleteLike(ctx context.Context, postID, userID uint) (bool, error) {
	result := r.db.WithContext(ctx).Unscoped().
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(&models.PostLike{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *gormPostRepository) DeleteLikesForPost(ctx context.Context, postID uint) error {
	return r.db.WithContext(ctx).Unscoped().Where("post_id = ?", postID).Delete(&models.PostLike{}).Error
}

// IncrementLikeCount adjusts the denormalized like counter atomically.
func (r *gormPostRepository) IncrementLikeCount(ctx context.Context, postID uint, delta int) error {
	return r.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn("number_of_likes", gorm.Expr("number_of_likes + ?", delta)).Error
}

func (r *gormPostRepository) CreateComment(ctx context.Context, comment *models.PostComment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *gormPostRepository) GetCommentByID(ctx context.Context, commentID uint) (*models.PostComment, error) {
	var comment models.PostComment
	err := r.db.WithContext(ctx).First(&comment, commentID).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *gormPostRepository) DeleteComment(ctx context.Context, commentID uint) error {
	return r.db.WithContext(ctx).Delete(&models.PostComment{}, commentID).Error
}

func (r *gormPostRepository) DeleteCommentsForPost(ctx context.Context, postID uint) error {
	return r.db.WithContext(ctx).Where("post_id = ?", postID).Delete(&models.PostComment{}).Error
}
