package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	appkafka "facegram/internal/kafka"
	"facegram/internal/websocket"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// NotificationConsumerHandler consumes notification events from Kafka and
// pushes them to connected users via the websocket hub.
type NotificationConsumerHandler struct {
	hub *websocket.Hub
}

// NewNotificationConsumerHandler creates a new NotificationConsumerHandler.
func NewNotificationConsumerHandler(hub *websocket.Hub) *NotificationConsumerHandler {
	return &NotificationConsumerHandler{hub: hub}
}

// HandleMessage decodes a NotificationEvent and hands it to the hub.
// It is used as the kafka.MessageHandler for the notifications topic.
func (h *NotificationConsumerHandler) HandleMessage(ctx context.Context, msg *kafka.Message) error {
	var event appkafka.NotificationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// A malformed payload is unrecoverable; log and commit past it.
		log.Printf("Notification consumer: failed to decode event (offset %v): %v", msg.TopicPartition.Offset, err)
		return nil
	}

	if len(event.RecipientIDs) == 0 {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("notification consumer: failed to re-encode event: %w", err)
	}

	h.hub.DeliverToUsers(event.RecipientIDs, payload)
	return nil
}
