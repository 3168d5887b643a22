package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/dukerupert/fridgly/internal/database"
	"github.com/dukerupert/fridgly/internal/model"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// seedGroup creates a user and its group, returning the group id.
func seedGroup(t *testing.T, db *sql.DB, uid string) string {
	t.Helper()
	u := &model.User{ID: uid, Email: uid + "@example.com", Name: uid}
	g := &model.Group{Name: model.GroupName(uid), CreatedBy: uid}
	if err := NewUserStore(db).CreateWithGroup(context.Background(), u, g); err != nil {
		t.Fatalf("seed group: %v", err)
	}
	return g.ID
}
