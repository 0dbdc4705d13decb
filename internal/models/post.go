package models

// Post represents a photo post created by a user.
// NumberOfLikes mirrors the PostLike rows and is updated in the same
// transaction as the like row.
type Post struct {
	BaseModel
	UserID      uint   `gorm:"not null;index" json:"userId"`
	User        User   `gorm:"foreignKey:UserID" json:"-"`
	Image       string `gorm:"type:varchar(255);not null" json:"image"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	NumberOfLikes int `gorm:"not null;default:0" json:"numberOfLikes"`

	Likes    []PostLike    `gorm:"foreignKey:PostID" json:"likes,omitempty"`
	Comments []PostComment `gorm:"foreignKey:PostID" json:"comments,omitempty"`
}

// TableName specifies the table name for the Post model.
func (Post) TableName() string {
	return "posts"
}

// PostLike records that a user liked a post.
// The composite unique index makes a second like by the same user a constraint
// violation rather than a silent double count.
type PostLike struct {
	BaseModel
	PostID uint `gorm:"not null;uniqueIndex:idx_user_post" json:"postId"`
	UserID uint `gorm:"not null;uniqueIndex:idx_user_post" json:"userId"`
	User   User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for the PostLike model.
func (PostLike) TableName() string {
	return "post_likes"
}

// PostComment is a comment left on a post.
type PostComment struct {
	BaseModel
	PostID   uint   `gorm:"not null;index" json:"postId"`
	AuthorID uint   `gorm:"not null;index" json:"authorId"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"-"`
	Text     string `gorm:"type:text;not null" json:"text"`
}

// TableName specifies the table name for the PostComment model.
func (PostComment) TableName() string {
	return "post_comments"
}
