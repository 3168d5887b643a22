package push

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/fridgly/internal/expiry"
	"github.com/dukerupert/fridgly/internal/metrics"
	"github.com/dukerupert/fridgly/internal/model"
)

const day = 24 * time.Hour

// ItemSource is the part of the item repository the scheduler needs.
type ItemSource interface {
	ListActiveItems(ctx context.Context, groupID string) ([]model.Item, error)
	UpdateItem(ctx context.Context, groupID, itemID string, patch model.ItemPatch) (*model.Item, error)
}

type GroupLister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// Scheduler periodically scans every group for items inside their
// notification window and alerts each item once.
type Scheduler struct {
	mu       sync.RWMutex
	items    ItemSource
	groups   GroupLister
	notifier Notifier
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
	metrics  *metrics.Metrics
	onUpdate func(groupID string, item *model.Item)
	cancel   context.CancelFunc
	done     chan struct{}
}

type SchedulerOption func(*Scheduler)

func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) { s.interval = d }
}

func WithClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) SchedulerOption {
	return func(s *Scheduler) { s.metrics = m }
}

// WithUpdateHook registers fn to be called with every item the scheduler
// marks as notified.
func WithUpdateHook(fn func(groupID string, item *model.Item)) SchedulerOption {
	return func(s *Scheduler) { s.onUpdate = fn }
}

func NewScheduler(items ItemSource, groups GroupLister, notifier Notifier, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		items:    items,
		groups:   groups,
		notifier: notifier,
		interval: time.Hour,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "push_scheduler")
	return s
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Tick(ctx)
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Tick runs one scan over every group and returns the number of alerts
// sent.
func (s *Scheduler) Tick(ctx context.Context) int {
	groupIDs, err := s.groups.ListIDs(ctx)
	if err != nil {
		s.logger.Error("list groups", "error", err)
		return 0
	}

	sent := 0
	for _, gid := range groupIDs {
		if ctx.Err() != nil {
			break
		}
		sent += s.checkGroup(ctx, gid)
	}
	return sent
}

func (s *Scheduler) checkGroup(ctx context.Context, groupID string) int {
	items, err := s.items.ListActiveItems(ctx, groupID)
	if err != nil {
		s.logger.Error("list items", "group_id", groupID, "error", err)
		return 0
	}

	now := s.now()
	sent := 0
	for _, item := range items {
		remaining, ok := Due(item, now)
		if !ok {
			continue
		}

		if err := s.notifier.Notify(ctx, Alert{GroupID: groupID, Item: item, Remaining: remaining}); err != nil {
			s.logger.Error("send expiry alert", "group_id", groupID, "item_id", item.ID, "error", err)
			continue
		}
		s.metrics.IncAlertsSent()
		sent++

		notified := model.AlertNotified
		updated, err := s.items.UpdateItem(ctx, groupID, item.ID, model.ItemPatch{
			Properties: &model.PropertiesPatch{AlertStatus: &notified},
		})
		if err != nil {
			s.logger.Error("mark item notified", "group_id", groupID, "item_id", item.ID, "error", err)
			continue
		}
		if s.onUpdate != nil {
			s.onUpdate(groupID, updated)
		}
	}
	return sent
}

// Due reports whether item should be alerted at now and how long remains
// until its selected expiration date.
func Due(item model.Item, now time.Time) (time.Duration, bool) {
	p := item.Properties
	if p.AlertStatus != model.AlertActive {
		return 0, false
	}
	if expiry.Select(p.ExpirationRefrigerated, p.ExpirationRoomTemp, p.GoesInFridge).IsZero() {
		return 0, false
	}
	remaining := expiry.Remaining(p.ExpirationRefrigerated, p.ExpirationRoomTemp, p.GoesInFridge, now)
	return remaining, remaining <= time.Duration(p.ExpiryNotificationOffset)*day
}
