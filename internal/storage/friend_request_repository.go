package storage

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"facegram/internal/models"
)

// FriendRequestRepository defines the interface for friend request data operations.
// Rows exist only while a request is pending.
type FriendRequestRepository interface {
	Create(ctx context.Context, request *models.FriendRequest) error
	// FindPending looks up the pending request from requester to recipient.
	// Direction is significant. A missing row returns (nil, nil).
	FindPending(ctx context.Context, requesterID, recipientID uint) (*models.FriendRequest, error)
	// DeletePending removes the requester->recipient row, reporting whether a
	// row was actually removed.
	DeletePending(ctx context.Context, requesterID, recipientID uint) (bool, error)
	// DeleteBetween removes pending rows between two users in both directions.
	DeleteBetween(ctx context.Context, userID1, userID2 uint) error
	// DeleteAllForUser removes every pending row the user appears in.
	DeleteAllForUser(ctx context.Context, userID uint) error
	GetPendingRequestsForUser(ctx context.Context, recipientUserID uint) ([]models.FriendRequest, error)
}

type gormFriendRequestRepository struct {
	db *gorm.DB
}

func NewGormFriendRequestRepository(db *gorm.DB) FriendRequestRepository {
	return &gormFriendRequestRepository{db: db}
}

func (r *gormFriendRequestRepository) Create(ctx context.Context, request *models.FriendRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

// FindPending checks for a pending request from requesterID to recipientID.
func (r *gormFriendRequestRepository) FindPending(ctx context.Context, requesterID, recipientID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := r.db.WithContext(ctx).
		Where("requester_user_id = ? AND recipient_user_id = ?", requesterID, recipientID).
		First(&request).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // No pending request found is not an error in this context
		}
		return nil, err
	}
	return &request, nil
}

// DeletePending removes the pending row from requesterID to recipientID.
// Hard delete: a soft deleted row would still occupy the unique index and
// block the requester from sending again after a decline or withdrawal.
func (r *gormFriendRequestRepository) DeletePending(ctx context.Context, requesterID, recipientID uint) (bool, error) {
	result := r.db.WithContext(ctx).Unscoped().
		Where("requester_user_id = ? AND recipient_user_id = ?", requesterID, recipientID).
		Delete(&models.FriendRequest{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DeleteBetween removes pending rows in both directions between two users.
func (r *gormFriendRequestRepository) DeleteBetween(ctx context.Context, userID1, userID2 uint) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("(requester_user_id = ? AND recipient_user_id = ?) OR (requester_user_id = ? AND recipient_user_id = ?)",
			userID1, userID2, userID2, userID1).
		Delete(&models.FriendRequest{}).Error
}

// DeleteAllForUser removes every pending row involving the user.
func (r *gormFriendRequestRepository) DeleteAllForUser(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("requester_user_id = ? OR recipient_user_id = ?", userID, userID).
		Delete(&models.FriendRequest{}).Error
}

// GetPendingRequestsForUser lists the pending requests addressed to the user.
func (r *gormFriendRequestRepository) GetPendingRequestsForUser(ctx context.Context, recipientUserID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := r.db.WithContext(ctx).
		Preload("Requester").
		Where("recipient_user_id = ?", recipientUserID).
		Find(&requests).Error
	return requests, err
}
