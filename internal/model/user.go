package model

import "time"

// User is the directory record for an identity that has completed first
// sign-in. ID is the identity provider's stable uid.
type User struct {
	ID        string    `json:"id" firestore:"-"`
	Email     string    `json:"email" firestore:"email"`
	Name      string    `json:"name" firestore:"name"`
	Groups    []string  `json:"groups" firestore:"groups"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}
