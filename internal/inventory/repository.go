package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/fridgly/internal/category"
	"github.com/dukerupert/fridgly/internal/expiry"
	"github.com/dukerupert/fridgly/internal/model"
	"github.com/dukerupert/fridgly/internal/store"
)

type GroupStore interface {
	GetByID(ctx context.Context, id string) (*model.Group, error)
}

// ItemStore persists items under a group. Update merges the given field
// paths and reports store.ErrNotFound when no item matched.
type ItemStore interface {
	Create(ctx context.Context, groupID string, item *model.Item) error
	GetByID(ctx context.Context, groupID, itemID string) (*model.Item, error)
	Update(ctx context.Context, groupID, itemID string, fields []model.Field) error
	ListByStatus(ctx context.Context, groupID string, status model.Status) ([]model.Item, error)
}

type Repository struct {
	items  ItemStore
	groups GroupStore
	opts   options
}

func NewRepository(items ItemStore, groups GroupStore, opts ...Option) *Repository {
	return &Repository{items: items, groups: groups, opts: buildOptions(opts)}
}

// AddItems persists one item per draft, in order. Writes are not atomic
// across the batch: on the first failure the items already committed are
// returned together with the error.
func (r *Repository) AddItems(ctx context.Context, groupID string, drafts []model.ItemDraft) ([]model.Item, error) {
	defer r.opts.metrics.ObserveOp("add_items", time.Now())

	if groupID == "" {
		return nil, fmt.Errorf("%w: empty group id", ErrNoGroupAssociation)
	}
	if len(drafts) == 0 {
		return []model.Item{}, nil
	}

	g, err := r.groups.GetByID(ctx, groupID)
	if err != nil {
		r.opts.metrics.IncStoreError("add_items")
		return nil, persistence("get group", err)
	}
	if g == nil {
		return nil, fmt.Errorf("%w: unknown group %s", ErrNoGroupAssociation, groupID)
	}

	created := make([]model.Item, 0, len(drafts))
	for i, d := range drafts {
		item := r.newItem(d, r.opts.now())
		if err := r.items.Create(ctx, groupID, &item); err != nil {
			r.opts.metrics.IncStoreError("add_items")
			r.opts.metrics.AddItemsAdded(len(created))
			return created, fmt.Errorf("%w: add item %d of %d: %w", ErrPersistence, i, len(drafts), err)
		}
		created = append(created, item)
	}

	r.opts.metrics.AddItemsAdded(len(created))
	return created, nil
}

func (r *Repository) newItem(d model.ItemDraft, now time.Time) model.Item {
	foodCategory := d.FoodCategory
	if foodCategory == "" {
		foodCategory = category.Categorize(d.Name)
	}

	props := model.Properties{
		IsFood:                   d.IsFood,
		GoesInFridge:             d.GoesInFridge,
		FoodCategory:             foodCategory,
		RipenessIndicators:       d.RipenessIndicators,
		CanBeLeftOut:             d.CanBeLeftOut,
		ExpirationRefrigerated:   d.ExpirationRefrigerated,
		ExpirationRoomTemp:       d.ExpirationRoomTemp,
		IsInFridge:               d.GoesInFridge.Bool(),
		ExpiryNotificationOffset: model.DefaultNotificationOffset,
		AlertStatus:              model.AlertActive,
		IsCustomExpiry:           model.No,
	}
	props.DaysToExpiry = expiry.ForProperties(props, now)

	return model.Item{
		Name:         d.Name,
		Price:        d.Price,
		Properties:   props,
		Lists:        []string{model.DefaultList},
		Status:       model.StatusActive,
		DateAdded:    now,
		DateModified: now,
	}
}

// ListActiveItems returns the group's items that have not been deleted.
// Callers must not rely on the order.
func (r *Repository) ListActiveItems(ctx context.Context, groupID string) ([]model.Item, error) {
	defer r.opts.metrics.ObserveOp("list_active_items", time.Now())

	if groupID == "" {
		return nil, fmt.Errorf("%w: empty group id", ErrNoGroupAssociation)
	}
	items, err := r.items.ListByStatus(ctx, groupID, model.StatusActive)
	if err != nil {
		r.opts.metrics.IncStoreError("list_active_items")
		return nil, persistence("list items", err)
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

// GetItem returns an item in either status.
func (r *Repository) GetItem(ctx context.Context, groupID, itemID string) (*model.Item, error) {
	if groupID == "" {
		return nil, fmt.Errorf("%w: empty group id", ErrNoGroupAssociation)
	}
	item, err := r.items.GetByID(ctx, groupID, itemID)
	if err != nil {
		r.opts.metrics.IncStoreError("get_item")
		return nil, persistence("get item", err)
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	return item, nil
}

// UpdateItem merges patch into the stored item and returns the result.
// daysToExpiry is recomputed only when the patch changes one of its inputs.
func (r *Repository) UpdateItem(ctx context.Context, groupID, itemID string, patch model.ItemPatch) (*model.Item, error) {
	defer r.opts.metrics.ObserveOp("update_item", time.Now())

	item, err := r.GetItem(ctx, groupID, itemID)
	if err != nil {
		return nil, err
	}

	now := r.opts.now()
	fields := patch.Fields()
	patch.Apply(item)
	if patch.TouchesExpiry() {
		item.Properties.DaysToExpiry = expiry.ForProperties(item.Properties, now)
		fields = append(fields, model.Field{Path: model.FieldDaysToExpiry, Value: item.Properties.DaysToExpiry})
	}
	item.DateModified = now
	fields = append(fields, model.Field{Path: model.FieldDateModified, Value: now})

	if err := r.write(ctx, "update_item", groupID, itemID, fields); err != nil {
		return nil, err
	}
	r.opts.metrics.IncItemsUpdated()
	return item, nil
}

// SoftDeleteItem marks the item deleted. Deleting an item that is already
// deleted only refreshes dateModified.
func (r *Repository) SoftDeleteItem(ctx context.Context, groupID, itemID string) error {
	defer r.opts.metrics.ObserveOp("soft_delete_item", time.Now())

	if groupID == "" {
		return fmt.Errorf("%w: empty group id", ErrNoGroupAssociation)
	}
	err := r.write(ctx, "soft_delete_item", groupID, itemID, []model.Field{
		{Path: model.FieldStatus, Value: model.StatusDeleted},
		{Path: model.FieldDateModified, Value: r.opts.now()},
	})
	if err != nil {
		return err
	}
	r.opts.metrics.IncItemsDeleted()
	return nil
}

func (r *Repository) write(ctx context.Context, op, groupID, itemID string, fields []model.Field) error {
	err := r.items.Update(ctx, groupID, itemID, fields)
	if errors.Is(err, store.ErrNotFound) {
		return ErrItemNotFound
	}
	if err != nil {
		r.opts.metrics.IncStoreError(op)
		return persistence(op, err)
	}
	return nil
}
