package model

import "time"

// Document field paths. Nested properties use dotted paths so a patch can be
// merged into a document store without rewriting the whole properties map.
const (
	FieldName                     = "name"
	FieldPrice                    = "price"
	FieldLists                    = "lists"
	FieldStatus                   = "status"
	FieldDateModified             = "dateModified"
	FieldIsFood                   = "properties.isFood"
	FieldGoesInFridge             = "properties.goesInFridge"
	FieldFoodCategory             = "properties.foodCategory"
	FieldRipenessIndicators       = "properties.ripenessIndicators"
	FieldCanBeLeftOut             = "properties.canBeLeftOut"
	FieldExpirationRefrigerated   = "properties.expirationRefrigerated"
	FieldExpirationRoomTemp       = "properties.expirationRoomTemp"
	FieldIsInFridge               = "properties.isInFridge"
	FieldExpiryNotificationOffset = "properties.expiryNotificationOffset"
	FieldAlertStatus              = "properties.alertStatus"
	FieldIsCustomExpiry           = "properties.isCustomExpiry"
	FieldDaysToExpiry             = "properties.daysToExpiry"
)

// Field is a single value to merge into a stored item.
type Field struct {
	Path  string
	Value any
}

// ItemPatch is a partial update. Nil members are left untouched. The
// derived daysToExpiry, the lifecycle status and the timestamps are not
// part of a patch.
type ItemPatch struct {
	Name       *string          `json:"name,omitempty"`
	Price      *float64         `json:"price,omitempty"`
	Lists      []string         `json:"lists,omitempty"`
	Properties *PropertiesPatch `json:"properties,omitempty"`
}

type PropertiesPatch struct {
	IsFood                   *YesNo       `json:"isFood,omitempty"`
	GoesInFridge             *YesNo       `json:"goesInFridge,omitempty"`
	FoodCategory             *string      `json:"foodCategory,omitempty"`
	RipenessIndicators       *string      `json:"ripenessIndicators,omitempty"`
	CanBeLeftOut             *YesNo       `json:"canBeLeftOut,omitempty"`
	ExpirationRefrigerated   *time.Time   `json:"expirationRefrigerated,omitempty"`
	ExpirationRoomTemp       *time.Time   `json:"expirationRoomTemp,omitempty"`
	IsInFridge               *bool        `json:"isInFridge,omitempty"`
	ExpiryNotificationOffset *int         `json:"expiryNotificationOffset,omitempty"`
	AlertStatus              *AlertStatus `json:"alertStatus,omitempty"`
	IsCustomExpiry           *YesNo       `json:"isCustomExpiry,omitempty"`
}

// IsEmpty reports whether the patch sets no fields.
func (p ItemPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// TouchesExpiry reports whether the patch changes an input of the derived
// daysToExpiry value.
func (p ItemPatch) TouchesExpiry() bool {
	pp := p.Properties
	if pp == nil {
		return false
	}
	return pp.GoesInFridge != nil || pp.ExpirationRefrigerated != nil || pp.ExpirationRoomTemp != nil
}

// Fields flattens the patch into field paths in a stable order.
func (p ItemPatch) Fields() []Field {
	var fields []Field
	add := func(path string, v any) {
		fields = append(fields, Field{Path: path, Value: v})
	}

	if p.Name != nil {
		add(FieldName, *p.Name)
	}
	if p.Price != nil {
		add(FieldPrice, *p.Price)
	}
	if p.Lists != nil {
		add(FieldLists, p.Lists)
	}

	pp := p.Properties
	if pp == nil {
		return fields
	}
	if pp.IsFood != nil {
		add(FieldIsFood, *pp.IsFood)
	}
	if pp.GoesInFridge != nil {
		add(FieldGoesInFridge, *pp.GoesInFridge)
	}
	if pp.FoodCategory != nil {
		add(FieldFoodCategory, *pp.FoodCategory)
	}
	if pp.RipenessIndicators != nil {
		add(FieldRipenessIndicators, *pp.RipenessIndicators)
	}
	if pp.CanBeLeftOut != nil {
		add(FieldCanBeLeftOut, *pp.CanBeLeftOut)
	}
	if pp.ExpirationRefrigerated != nil {
		add(FieldExpirationRefrigerated, *pp.ExpirationRefrigerated)
	}
	if pp.ExpirationRoomTemp != nil {
		add(FieldExpirationRoomTemp, *pp.ExpirationRoomTemp)
	}
	if pp.IsInFridge != nil {
		add(FieldIsInFridge, *pp.IsInFridge)
	}
	if pp.ExpiryNotificationOffset != nil {
		add(FieldExpiryNotificationOffset, *pp.ExpiryNotificationOffset)
	}
	if pp.AlertStatus != nil {
		add(FieldAlertStatus, *pp.AlertStatus)
	}
	if pp.IsCustomExpiry != nil {
		add(FieldIsCustomExpiry, *pp.IsCustomExpiry)
	}
	return fields
}

// Apply merges the patch into item in memory.
func (p ItemPatch) Apply(item *Item) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.Lists != nil {
		item.Lists = append([]string(nil), p.Lists...)
	}

	pp := p.Properties
	if pp == nil {
		return
	}
	props := &item.Properties
	if pp.IsFood != nil {
		props.IsFood = *pp.IsFood
	}
	if pp.GoesInFridge != nil {
		props.GoesInFridge = *pp.GoesInFridge
	}
	if pp.FoodCategory != nil {
		props.FoodCategory = *pp.FoodCategory
	}
	if pp.RipenessIndicators != nil {
		props.RipenessIndicators = *pp.RipenessIndicators
	}
	if pp.CanBeLeftOut != nil {
		props.CanBeLeftOut = *pp.CanBeLeftOut
	}
	if pp.ExpirationRefrigerated != nil {
		props.ExpirationRefrigerated = *pp.ExpirationRefrigerated
	}
	if pp.ExpirationRoomTemp != nil {
		props.ExpirationRoomTemp = *pp.ExpirationRoomTemp
	}
	if pp.IsInFridge != nil {
		props.IsInFridge = *pp.IsInFridge
	}
	if pp.ExpiryNotificationOffset != nil {
		props.ExpiryNotificationOffset = *pp.ExpiryNotificationOffset
	}
	if pp.AlertStatus != nil {
		props.AlertStatus = *pp.AlertStatus
	}
	if pp.IsCustomExpiry != nil {
		props.IsCustomExpiry = *pp.IsCustomExpiry
	}
}
