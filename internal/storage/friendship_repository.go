package storage

import (
	"context"

	"gorm.io/gorm"

	"facegram/internal/models"
)

// FriendshipRepository defines the interface for friendship data operations.
type FriendshipRepository interface {
	Create(ctx context.Context, friendship *models.Friendship) error
	// Delete removes the friendship between two users, reporting whether a row
	// was actually removed.
	Delete(ctx context.Context, userID1, userID2 uint) (bool, error)
	AreUsersFriends(ctx context.Context, userID1, userID2 uint) (bool, error)
	GetFriendIDs(ctx context.Context, userID uint) ([]uint, error)
}

type gormFriendshipRepository struct {
	db *gorm.DB
}

// NewGormFriendshipRepository creates a new GormFriendshipRepository.
func NewGormFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &gormFriendshipRepository{db: db}
}

// Create creates a new friendship record in the database.
// It assumes that friendship.EnsureCanonicalOrder() has been called before.
func (r *gormFriendshipRepository) Create(ctx context.Context, friendship *models.Friendship) error {
	return r.db.WithContext(ctx).Create(friendship).Error
}

// Delete removes the friendship row for the given pair, in canonical order.
// Hard delete: a soft deleted row would still occupy the unique index and
// block the pair from becoming friends again.
func (r *gormFriendshipRepository) Delete(ctx context.Context, userID1, userID2 uint) (bool, error) {
	u1, u2 := userID1, userID2
	if u1 > u2 {
		u1, u2 = u2, u1
	}
	result := r.db.WithContext(ctx).Unscoped().
		Where("user_id1 = ? AND user_id2 = ?", u1, u2).
		Delete(&models.Friendship{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AreUsersFriends checks if two users are already friends.
func (r *gormFriendshipRepository) AreUsersFriends(ctx context.Context, userID1, userID2 uint) (bool, error) {
	u1, u2 := userID1, userID2
	if u1 > u2 {
		u1, u2 = u2, u1 // Ensure canonical order for query
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).Where("user_id1 = ? AND user_id2 = ?", u1, u2).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetFriendIDs retrieves the IDs of all users who are friends with userID.
func (r *gormFriendshipRepository) GetFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	// The user may appear on either side of the canonical row, so two plucks.
	var idsPart1 []uint
	err := r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id1 = ?", userID).
		Pluck("user_id2", &idsPart1).Error
	if err != nil {
		return nil, err
	}

	var idsPart2 []uint
	err = r.db.WithContext(ctx).Model(&models.Friendship{}).
		Where("user_id2 = ?", userID).
		Pluck("user_id1", &idsPart2).Error
	if err != nil {
		return nil, err
	}

	return append(idsPart1, idsPart2...), nil
}
