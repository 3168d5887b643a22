package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dukerupert/fridgly/internal/database"
	"github.com/dukerupert/fridgly/internal/identity"
	"github.com/dukerupert/fridgly/internal/model"
	"github.com/dukerupert/fridgly/internal/store"
)

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// clock is a settable time source for tests.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	users  *store.UserStore
	groups *store.GroupStore
	items  *store.ItemStore
	clock  *clock
	dir    *Directory
	repo   *Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		users:  store.NewUserStore(db),
		groups: store.NewGroupStore(db),
		items:  store.NewItemStore(db),
		clock:  &clock{t: testNow},
	}
	f.dir = NewDirectory(f.users, WithClock(f.clock.Now))
	f.repo = NewRepository(f.items, f.groups, WithClock(f.clock.Now))
	return f
}

// group signs in a fresh identity and returns its group id.
func (f *fixture) group(t *testing.T, uid string) string {
	t.Helper()
	gid, err := f.dir.ResolveGroupForIdentity(context.Background(), identity.Identity{ID: uid, DisplayName: uid})
	require.NoError(t, err)
	return gid
}

func milkDraft(now time.Time) model.ItemDraft {
	return model.ItemDraft{
		Name:                   "Milk",
		Price:                  3.49,
		IsFood:                 model.Yes,
		GoesInFridge:           model.Yes,
		CanBeLeftOut:           model.No,
		ExpirationRefrigerated: now.Add(3 * 24 * time.Hour),
		ExpirationRoomTemp:     now.Add(24 * time.Hour),
	}
}

var errStoreDown = errors.New("store unavailable")

// flakyItems fails Create once it has been called failAt times.
type flakyItems struct {
	ItemStore
	failAt  int
	creates int
}

func (s *flakyItems) Create(ctx context.Context, groupID string, item *model.Item) error {
	if s.creates == s.failAt {
		return errStoreDown
	}
	s.creates++
	return s.ItemStore.Create(ctx, groupID, item)
}

type brokenItems struct{ ItemStore }

func (brokenItems) ListByStatus(context.Context, string, model.Status) ([]model.Item, error) {
	return nil, errStoreDown
}

func (brokenItems) Update(context.Context, string, string, []model.Field) error {
	return errStoreDown
}

type brokenUsers struct{}

func (brokenUsers) GetByID(context.Context, string) (*model.User, error) {
	return nil, errStoreDown
}

func (brokenUsers) CreateWithGroup(context.Context, *model.User, *model.Group) error {
	return errStoreDown
}

// racingUsers reports a duplicate on create after letting another writer
// through, as a concurrent first sign-in would.
type racingUsers struct {
	*store.UserStore
}

func (s racingUsers) CreateWithGroup(ctx context.Context, u *model.User, g *model.Group) error {
	winner := &model.User{ID: u.ID, Name: "winner"}
	if err := s.UserStore.CreateWithGroup(ctx, winner, &model.Group{Name: "Winner's Group", CreatedBy: u.ID}); err != nil {
		return err
	}
	return s.UserStore.CreateWithGroup(ctx, u, g)
}
