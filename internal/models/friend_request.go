package models

// FriendRequest represents a pending, directional friend request.
// A row exists only while the request is pending; accept, decline and withdraw
// all remove it. Two rows may exist between the same pair (one per direction)
// but never alongside a Friendship row.
type FriendRequest struct {
	BaseModel
	RequesterUserID uint `gorm:"not null;uniqueIndex:idx_request_pair" json:"requesterUserId"`
	Requester       User `gorm:"foreignKey:RequesterUserID" json:"requester,omitempty"`
	RecipientUserID uint `gorm:"not null;uniqueIndex:idx_request_pair" json:"recipientUserId"`
	Recipient       User `gorm:"foreignKey:RecipientUserID" json:"recipient,omitempty"`
}

// TableName specifies the table name for the FriendRequest model.
func (FriendRequest) TableName() string {
	return "friend_requests"
}
