package models

import "time"

// Conversation represents a chat between two or more users.
// Membership is managed by ConversationParticipant rows; a user may only read
// or append to a conversation they participate in.
type Conversation struct {
	BaseModel
	Name      string `gorm:"type:varchar(255)" json:"name,omitempty"`
	CreatorID uint   `gorm:"not null;index" json:"creatorId"`

	Users        []*User                   `gorm:"many2many:conversation_participants;" json:"users,omitempty"`
	Messages     []Message                 `gorm:"foreignKey:ConversationID" json:"messages,omitempty"`
	Participants []ConversationParticipant `gorm:"foreignKey:ConversationID" json:"participants,omitempty"`
}

// TableName specifies the table name for the Conversation model.
func (Conversation) TableName() string {
	return "conversations"
}

// ConversationParticipant links a user to a conversation.
type ConversationParticipant struct {
	ConversationID uint      `gorm:"primaryKey;autoIncrement:false" json:"conversationId"`
	UserID         uint      `gorm:"primaryKey;autoIncrement:false" json:"userId"`
	JoinedAt       time.Time `json:"joinedAt"`

	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Conversation Conversation `gorm:"foreignKey:ConversationID" json:"conversation,omitempty"`
}

// TableName specifies the table name for the ConversationParticipant model.
func (ConversationParticipant) TableName() string {
	return "conversation_participants"
}
