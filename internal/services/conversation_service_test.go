package services

import (
	"context"
	"encoding/json"
	"testing"

	"facegram/internal/kafka"
	"facegram/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateConversation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.state.addUser("alice1")
	bob := f.state.addUser("bobby1")
	carol := f.state.addUser("carol1")

	// The creator is included even when listed, and duplicates collapse.
	conversation, err := f.conversationSvc.CreateConversation(ctx, alice.ID, []uint{bob.ID, bob.ID, alice.ID, carol.ID}, "trip")
	require.NoError(t, err)
	require.NotNil(t, conversation)
	assert.Equal(t, alice.ID, conversation.CreatorID)
	assert.Equal(t, "trip", conversation.Name)

	participantIDs, err := f.convos.GetParticipantIDs(ctx, conversation.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{alice.ID, bob.ID, carol.ID}, participantIDs)
}

func TestCreateConversationNeedsAnotherParticipant(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.state.addUser("alice1")

	_, err := f.conversationSvc.CreateConversation(ctx, alice.ID, nil, "")
	assert.ErrorIs(t, err, ErrNoParticipants)

	// Listing only yourself is not enough either.
	_, err = f.conversationSvc.CreateConversation(ctx, alice.ID, []uint{alice.ID}, "")
	assert.ErrorIs(t, err, ErrNoParticipants)
}

func TestCreateConversationUnknownParticipant(t *testing.T) {
	f := newFixture()
	alice := f.state.addUser("alice1")

	_, err := f.conversationSvc.CreateConversation(context.Background(), alice.ID, []uint{alice.ID + 99}, "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetConversationMembershipGate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.state.addUser("alice1")
	bob := f.state.addUser("bobby1")
	eve := f.state.addUser("evelyn")

	conversation, err := f.conversationSvc.CreateConversation(ctx, alice.ID, []uint{bob.ID}, "")
	require.NoError(t, err)

	_, err = f.conversationSvc.GetConversation(ctx, bob.ID, conversation.ID)
	assert.NoError(t, err)

	_, err = f.conversationSvc.GetConversation(ctx, eve.ID, conversation.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	_, err = f.conversationSvc.GetConversation(ctx, alice.ID, conversation.ID+99)
	assert.ErrorIs(t, err, ErrConversationNotFound)
}

func TestGetParticipants(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.state.addUser("alice1")
	bob := f.state.addUser("bobby1")

	conversation, err := f.conversationSvc.CreateConversation(ctx, alice.ID, []uint{bob.ID}, "")
	require.NoError(t, err)

	participants, err := f.conversationSvc.GetParticipants(ctx, alice.ID, conversation.ID)
	require.NoError(t, err)
	require.Len(t, participants, 2)
}

func TestAppendTextMessage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.state.addUser("alice1")
	bob := f.state.addUser("bobby1")
	carol := f.state.addUser("carol1")

	conversation, err := f.conversationSvc.CreateConversation(ctx, alice.ID, []uint{bob.ID, carol.ID}, "")
	require.NoError(t, err)

	message, err := f.conversationSvc.AppendMessage(ctx, alice.ID, conversation.ID, MessageInput{
		Type: models.TextMessageType,
		Text: "hello everyone",
	})
	require.NoError(t, err)
	assert.Equal(t, models.TextMessageType, message.Type)
	assert.Equal(t, "hello everyone", message.Content)
	assert.Equal(t, alice.ID, message.SenderID)

	messages, err := f.conversationSvc.GetMessages(ctx, bob.ID, conversation.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	// The sender is not notified about their own message.
	require.Len(t, f.producer.payloads, 1)
	var event kafka.NotificationEvent
	require.NoError(t, json.Unmarshal(f.producer.payloads[0], &event))
	assert.Equal(t, kafka.NewMessageEvent, event.Type)
	assert.ElementsMatch(t, []uint{bob.ID, carol.ID}, event.RecipientIDs)
	assert.Equal(t, conversation.ID, event.SubjectID)
}

func TestAppendEmptyTextMessage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.state.addUser("alice1")
	bob := f.state.addUser("bobby1")

	conversation, err := f.conversationSvc.CreateConversation(ctx, alice.ID, []uint{bob.ID}, "")
	require.NoError(t, err)

	_, err = f.conversationSvc.AppendMessage(ctx, alice.ID, conversation.ID, MessageInput{
		Type: models.TextMessageType,
		Text: "   ",
	})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestAppendPhotoMessage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.state.addUser("alice1")
	bob := f.state.addUser("bobby1")

	conversation, err := f.conversationSvc.CreateConversation(ctx, alice.ID, []uint{bob.ID}, "")
	require.NoError(t, err)

	message, err := f.conversationSvc.AppendMessage(ctx, bob.ID, conversation.ID, MessageInput{
		Type:        models.PhotoMessageType,
		StoredPhoto: "photo123.jpg",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PhotoMessageType, message.Type)
	assert.Equal(t, "photo123.jpg", message.Content)
	assert.Empty(t, f.fileStore.deleted)
}

func TestAppendMessageDeniedDiscardsPhoto(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.state.addUser("alice1")
	bob := f.state.addUser("bobby1")
	eve := f.state.addUser("evelyn")

	conversation, err := f.conversationSvc.CreateConversation(ctx, alice.ID, []uint{bob.ID}, "")
	require.NoError(t, err)

	// The photo was already stored by the handler; the denied append must
	// remove it again.
	_, err = f.conversationSvc.AppendMessage(ctx, eve.ID, conversation.ID, MessageInput{
		Type:        models.PhotoMessageType,
		StoredPhoto: "sneaky.jpg",
	})
	assert.ErrorIs(t, err, ErrNotParticipant)
	assert.Contains(t, f.fileStore.deleted, "sneaky.jpg")

	messages, err := f.conversationSvc.GetMessages(ctx, alice.ID, conversation.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestAppendMessageInvalidType(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.state.addUser("alice1")
	bob := f.state.addUser("bobby1")

	conversation, err := f.conversationSvc.CreateConversation(ctx, alice.ID, []uint{bob.ID}, "")
	require.NoError(t, err)

	_, err = f.conversationSvc.AppendMessage(ctx, alice.ID, conversation.ID, MessageInput{
		Type:        models.MessageType("video"),
		StoredPhoto: "clip.jpg",
	})
	assert.ErrorIs(t, err, ErrInvalidMessageType)
	assert.Contains(t, f.fileStore.deleted, "clip.jpg")
}

func TestListUserConversations(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	alice := f.state.addUser("alice1")
	bob := f.state.addUser("bobby1")
	carol := f.state.addUser("carol1")

	_, err := f.conversationSvc.CreateConversation(ctx, alice.ID, []uint{bob.ID}, "")
	require.NoError(t, err)
	_, err = f.conversationSvc.CreateConversation(ctx, alice.ID, []uint{carol.ID}, "")
	require.NoError(t, err)

	conversations, err := f.conversationSvc.ListUserConversations(ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, conversations, 2)

	conversations, err = f.conversationSvc.ListUserConversations(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, conversations, 1)
}
