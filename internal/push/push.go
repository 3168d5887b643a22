// Package push delivers expiry alerts for items that are about to go off.
package push

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/fridgly/internal/model"
)

// Alert is one item that has entered its notification window.
type Alert struct {
	GroupID   string
	Item      model.Item
	Remaining time.Duration
}

// Payload is the user-facing content of an alert.
type Payload struct {
	Title string
	Body  string
	Tag   string
	Data  map[string]string
}

type Notifier interface {
	Notify(ctx context.Context, alert Alert) error
}

func payloadFor(a Alert) Payload {
	body := fmt.Sprintf("%s expires in %s", a.Item.Name, remainingText(a.Remaining))
	if a.Remaining <= 0 {
		body = fmt.Sprintf("%s has expired", a.Item.Name)
	}
	return Payload{
		Title: "Expiring soon",
		Body:  body,
		Tag:   "expiry-" + a.Item.ID,
		Data: map[string]string{
			"groupId": a.GroupID,
			"itemId":  a.Item.ID,
		},
	}
}

func remainingText(d time.Duration) string {
	days := int((d + day - 1) / day)
	if days <= 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

// LogNotifier writes alerts to the log instead of delivering them.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, a Alert) error {
	p := payloadFor(a)
	n.logger.Info("expiry alert", "group_id", a.GroupID, "item_id", a.Item.ID, "body", p.Body)
	return nil
}
