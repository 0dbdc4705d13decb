package models

// User represents an account in the system.
// The denormalized counters mirror the owned collections and are updated in the
// same transaction as the rows they count.
type User struct {
	BaseModel
	Username     string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"` // never exposed
	Email        string `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Fullname     string `gorm:"type:varchar(100)" json:"fullname,omitempty"`
	ProfilePhoto string `gorm:"type:varchar(255)" json:"profilePhoto,omitempty"`

	NumberOfFriends int `gorm:"not null;default:0" json:"numberOfFriends"`
	NumberOfPosts   int `gorm:"not null;default:0" json:"numberOfPosts"`

	Posts []Post `gorm:"foreignKey:UserID" json:"posts,omitempty"`
}

// UserBasicInfo holds minimal public information about a user.
// Used for scenarios like friend lists and friend request inboxes.
type UserBasicInfo struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Fullname     string `json:"fullname,omitempty"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
}

// BasicInfo returns the public projection of the user.
func (u *User) BasicInfo() UserBasicInfo {
	return UserBasicInfo{
		ID:           u.ID,
		Username:     u.Username,
		Fullname:     u.Fullname,
		ProfilePhoto: u.ProfilePhoto,
	}
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}
