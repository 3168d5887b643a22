package model

import "time"

// YesNo is the "Yes"/"No" flag encoding the mobile client uses for item
// properties.
type YesNo string

const (
	Yes YesNo = "Yes"
	No  YesNo = "No"
)

func (v YesNo) Bool() bool { return v == Yes }

// Status is the lifecycle state of an item. Deleted items are retained.
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

type AlertStatus string

const (
	AlertActive   AlertStatus = "active"
	AlertNotified AlertStatus = "notified"
)

const (
	DefaultList               = "food"
	DefaultNotificationOffset = 2
)

type Item struct {
	ID           string     `json:"id" firestore:"-"`
	Name         string     `json:"name" firestore:"name"`
	Price        float64    `json:"price" firestore:"price"`
	Properties   Properties `json:"properties" firestore:"properties"`
	Lists        []string   `json:"lists" firestore:"lists"`
	Status       Status     `json:"status" firestore:"status"`
	DateAdded    time.Time  `json:"dateAdded" firestore:"dateAdded"`
	DateModified time.Time  `json:"dateModified" firestore:"dateModified"`
}

type Properties struct {
	IsFood                   YesNo       `json:"isFood" firestore:"isFood"`
	GoesInFridge             YesNo       `json:"goesInFridge" firestore:"goesInFridge"`
	FoodCategory             string      `json:"foodCategory" firestore:"foodCategory"`
	RipenessIndicators       string      `json:"ripenessIndicators" firestore:"ripenessIndicators"`
	CanBeLeftOut             YesNo       `json:"canBeLeftOut" firestore:"canBeLeftOut"`
	ExpirationRefrigerated   time.Time   `json:"expirationRefrigerated" firestore:"expirationRefrigerated"`
	ExpirationRoomTemp       time.Time   `json:"expirationRoomTemp" firestore:"expirationRoomTemp"`
	IsInFridge               bool        `json:"isInFridge" firestore:"isInFridge"`
	ExpiryNotificationOffset int         `json:"expiryNotificationOffset" firestore:"expiryNotificationOffset"`
	AlertStatus              AlertStatus `json:"alertStatus" firestore:"alertStatus"`
	IsCustomExpiry           YesNo       `json:"isCustomExpiry" firestore:"isCustomExpiry"`
	DaysToExpiry             string      `json:"daysToExpiry" firestore:"daysToExpiry"`
}

// ItemDraft carries the user-entered fields of an item that has not been
// persisted yet.
type ItemDraft struct {
	Name                   string    `json:"name"`
	Price                  float64   `json:"price"`
	IsFood                 YesNo     `json:"isFood"`
	GoesInFridge           YesNo     `json:"goesInFridge"`
	FoodCategory           string    `json:"foodCategory"`
	RipenessIndicators     string    `json:"ripenessIndicators"`
	CanBeLeftOut           YesNo     `json:"canBeLeftOut"`
	ExpirationRefrigerated time.Time `json:"expirationRefrigerated"`
	ExpirationRoomTemp     time.Time `json:"expirationRoomTemp"`
}
