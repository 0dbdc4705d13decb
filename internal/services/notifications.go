package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"facegram/internal/config"
	"facegram/internal/kafka"
)

// publishNotification sends a notification event to the notifications topic.
// Delivery is best effort: the triggering operation has already committed, so
// a publish failure is logged and swallowed rather than surfaced to the caller.
func publishNotification(ctx context.Context, producer kafka.MessageProducer, cfg config.KafkaConfig, event kafka.NotificationEvent) {
	if producer == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshalling %s notification event: %v", event.Type, err)
		return
	}

	key := []byte(fmt.Sprintf("%d", event.ActorID))
	if err := producer.SendMessage(ctx, cfg.NotificationsTopic, key, payload); err != nil {
		log.Printf("Error publishing %s notification event to topic %s: %v", event.Type, cfg.NotificationsTopic, err)
	}
}
