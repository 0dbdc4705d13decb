package models

import "time"

// MessageType discriminates the kind of content a message carries.
type MessageType string

const (
	TextMessageType  MessageType = "text"
	PhotoMessageType MessageType = "photo"
)

// Message represents a message stored within a conversation.
// For photo messages, Content holds the stored file name.
type Message struct {
	BaseModel
	ConversationID uint        `gorm:"index;not null" json:"conversationId"`
	SenderID       uint        `gorm:"index;not null" json:"senderId"`
	Type           MessageType `gorm:"type:varchar(20);not null" json:"type"`
	Content        string      `gorm:"type:text" json:"content"`
	SentAt         time.Time   `gorm:"not null" json:"sentAt"`

	Sender       User         `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Conversation Conversation `gorm:"foreignKey:ConversationID" json:"conversation,omitempty"`
}

// TableName specifies the table name for the Message model.
func (Message) TableName() string {
	return "messages"
}
