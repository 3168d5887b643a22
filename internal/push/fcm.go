package push

import (
	"context"
	"fmt"

	"firebase.google.com/go/messaging"
)

// MessageSender is the subset of *messaging.Client used for delivery.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMNotifier publishes alerts to the group's FCM topic. Every device of
// every group member subscribes to that topic on sign-in.
type FCMNotifier struct {
	client MessageSender
}

func NewFCMNotifier(client MessageSender) *FCMNotifier {
	return &FCMNotifier{client: client}
}

// Topic returns the FCM topic name for a group.
func Topic(groupID string) string {
	return "group_" + groupID
}

func (n *FCMNotifier) Notify(ctx context.Context, a Alert) error {
	p := payloadFor(a)
	msg := &messaging.Message{
		Topic: Topic(a.GroupID),
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: p.Data,
		Android: &messaging.AndroidConfig{
			Priority:    "high",
			CollapseKey: p.Tag,
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-collapse-id": p.Tag},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{Title: p.Title, Body: p.Body},
					Sound: "default",
				},
			},
		},
	}

	if _, err := n.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("send fcm message: %w", err)
	}
	return nil
}
