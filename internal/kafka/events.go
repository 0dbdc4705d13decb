package kafka

import "time"

// NotificationEventType identifies the kind of notification carried on the
// notifications topic.
type NotificationEventType string

const (
	FriendRequestEvent   NotificationEventType = "friend_request"
	RequestAcceptedEvent NotificationEventType = "request_accepted"
	PostLikedEvent       NotificationEventType = "post_liked"
	PostCommentedEvent   NotificationEventType = "post_commented"
	NewMessageEvent      NotificationEventType = "new_message"
)

// NotificationEvent is the payload published to the notifications topic after
// a successful graph or content mutation. RecipientIDs names the users the
// notification should be pushed to.
type NotificationEvent struct {
	Type         NotificationEventType `json:"type"`
	ActorID      uint                  `json:"actorId"`
	RecipientIDs []uint                `json:"recipientIds"`
	// SubjectID points at the entity the event concerns: the post for likes
	// and comments, the conversation for messages. Zero for graph events.
	SubjectID  uint      `json:"subjectId,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
