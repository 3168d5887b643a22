package model

import "time"

type Group struct {
	ID        string    `json:"id" firestore:"-"`
	Name      string    `json:"name" firestore:"name"`
	CreatedBy string    `json:"createdBy" firestore:"createdBy"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

// GroupName is the display name given to the group created on a user's
// first sign-in.
func GroupName(displayName string) string {
	return displayName + "'s Group"
}
