package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/fridgly/internal/model"
)

type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

func scanItem(scanner interface{ Scan(...any) error }) (*model.Item, error) {
	var item model.Item
	var refrigerated, roomTemp sql.NullTime
	var inFridge int
	var lists string

	p := &item.Properties
	err := scanner.Scan(
		&item.ID, &item.Name, &item.Price,
		&p.IsFood, &p.GoesInFridge, &p.FoodCategory, &p.RipenessIndicators, &p.CanBeLeftOut,
		&refrigerated, &roomTemp, &inFridge, &p.ExpiryNotificationOffset,
		&p.AlertStatus, &p.IsCustomExpiry, &p.DaysToExpiry,
		&lists, &item.Status, &item.DateAdded, &item.DateModified,
	)
	if err != nil {
		return nil, err
	}

	p.IsInFridge = inFridge != 0
	if refrigerated.Valid {
		p.ExpirationRefrigerated = refrigerated.Time
	}
	if roomTemp.Valid {
		p.ExpirationRoomTemp = roomTemp.Time
	}
	if err := json.Unmarshal([]byte(lists), &item.Lists); err != nil {
		return nil, fmt.Errorf("decode lists: %w", err)
	}
	return &item, nil
}

const itemCols = `id, name, price, is_food, goes_in_fridge, food_category, ripeness_indicators, can_be_left_out, ` +
	`expiration_refrigerated, expiration_room_temp, is_in_fridge, expiry_notification_offset, ` +
	`alert_status, is_custom_expiry, days_to_expiry, lists, status, date_added, date_modified`

// itemColumns maps document field paths onto item table columns.
var itemColumns = map[string]string{
	model.FieldName:                     "name",
	model.FieldPrice:                    "price",
	model.FieldLists:                    "lists",
	model.FieldStatus:                   "status",
	model.FieldDateModified:             "date_modified",
	model.FieldIsFood:                   "is_food",
	model.FieldGoesInFridge:             "goes_in_fridge",
	model.FieldFoodCategory:             "food_category",
	model.FieldRipenessIndicators:       "ripeness_indicators",
	model.FieldCanBeLeftOut:             "can_be_left_out",
	model.FieldExpirationRefrigerated:   "expiration_refrigerated",
	model.FieldExpirationRoomTemp:       "expiration_room_temp",
	model.FieldIsInFridge:               "is_in_fridge",
	model.FieldExpiryNotificationOffset: "expiry_notification_offset",
	model.FieldAlertStatus:              "alert_status",
	model.FieldIsCustomExpiry:           "is_custom_expiry",
	model.FieldDaysToExpiry:             "days_to_expiry",
}

// columnValue converts a field value into something database/sql can bind.
func columnValue(v any) (any, error) {
	switch v := v.(type) {
	case model.YesNo:
		return string(v), nil
	case model.Status:
		return string(v), nil
	case model.AlertStatus:
		return string(v), nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case time.Time:
		return nullTime(v), nil
	case []string:
		return encodeLists(v)
	case string, int, int64, float64:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported field value %T", v)
	}
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func encodeLists(lists []string) (string, error) {
	if lists == nil {
		lists = []string{}
	}
	b, err := json.Marshal(lists)
	if err != nil {
		return "", fmt.Errorf("encode lists: %w", err)
	}
	return string(b), nil
}

// Create inserts item under the group, assigning item.ID when empty.
func (s *ItemStore) Create(ctx context.Context, groupID string, item *model.Item) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	lists, err := encodeLists(item.Lists)
	if err != nil {
		return err
	}

	p := item.Properties
	inFridge, _ := columnValue(p.IsInFridge)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO items (group_id, `+itemCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		groupID, item.ID, item.Name, item.Price,
		string(p.IsFood), string(p.GoesInFridge), p.FoodCategory, p.RipenessIndicators, string(p.CanBeLeftOut),
		nullTime(p.ExpirationRefrigerated), nullTime(p.ExpirationRoomTemp), inFridge, p.ExpiryNotificationOffset,
		string(p.AlertStatus), string(p.IsCustomExpiry), p.DaysToExpiry,
		lists, string(item.Status), item.DateAdded.UTC(), item.DateModified.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetByID returns the item regardless of status, or nil if the group has
// no item with that id.
func (s *ItemStore) GetByID(ctx context.Context, groupID, itemID string) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemCols+` FROM items WHERE group_id = ? AND id = ?`, groupID, itemID)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// Update merges fields into the stored item. Returns ErrNotFound if the
// group has no item with that id.
func (s *ItemStore) Update(ctx context.Context, groupID, itemID string, fields []model.Field) error {
	if len(fields) == 0 {
		return fmt.Errorf("update item: no fields")
	}

	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+2)
	for _, f := range fields {
		col, ok := itemColumns[f.Path]
		if !ok {
			return fmt.Errorf("update item: unknown field %q", f.Path)
		}
		v, err := columnValue(f.Value)
		if err != nil {
			return fmt.Errorf("update item %s: %w", f.Path, err)
		}
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	args = append(args, groupID, itemID)

	result, err := s.db.ExecContext(ctx,
		`UPDATE items SET `+strings.Join(sets, ", ")+` WHERE group_id = ? AND id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByStatus returns the group's items in the given status, oldest first.
func (s *ItemStore) ListByStatus(ctx context.Context, groupID string, status model.Status) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemCols+` FROM items WHERE group_id = ? AND status = ? ORDER BY date_added ASC, id ASC`,
		groupID, string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}
