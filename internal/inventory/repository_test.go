package inventory

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/fridgly/internal/category"
	"github.com/dukerupert/fridgly/internal/metrics"
	"github.com/dukerupert/fridgly/internal/model"
)

func TestAddItemsMilk(t *testing.T) {
	f := newFixture(t)
	gid := f.group(t, "uid-ann")

	items, err := f.repo.AddItems(context.Background(), gid, []model.ItemDraft{milkDraft(testNow)})
	require.NoError(t, err)
	require.Len(t, items, 1)

	milk := items[0]
	assert.NotEmpty(t, milk.ID)
	assert.Equal(t, "3d", milk.Properties.DaysToExpiry)
	assert.True(t, milk.Properties.IsInFridge)
	assert.Equal(t, []string{model.DefaultList}, milk.Lists)
	assert.Equal(t, model.StatusActive, milk.Status)
	assert.Equal(t, model.DefaultNotificationOffset, milk.Properties.ExpiryNotificationOffset)
	assert.Equal(t, model.AlertActive, milk.Properties.AlertStatus)
	assert.Equal(t, model.No, milk.Properties.IsCustomExpiry)
	assert.True(t, milk.DateAdded.Equal(testNow))
	assert.True(t, milk.DateModified.Equal(testNow))
}

func TestAddItemsRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gid := f.group(t, "uid-bob")

	draft := milkDraft(testNow)
	draft.FoodCategory = category.Dairy
	draft.RipenessIndicators = "sour smell"
	items, err := f.repo.AddItems(ctx, gid, []model.ItemDraft{draft})
	require.NoError(t, err)

	got, err := f.repo.GetItem(ctx, gid, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, draft.Name, got.Name)
	assert.Equal(t, draft.Price, got.Price)
	assert.Equal(t, draft.IsFood, got.Properties.IsFood)
	assert.Equal(t, draft.GoesInFridge, got.Properties.GoesInFridge)
	assert.Equal(t, draft.CanBeLeftOut, got.Properties.CanBeLeftOut)
	assert.Equal(t, category.Dairy, got.Properties.FoodCategory)
	assert.Equal(t, "sour smell", got.Properties.RipenessIndicators)
	assert.True(t, got.Properties.ExpirationRefrigerated.Equal(draft.ExpirationRefrigerated))
	assert.True(t, got.Properties.ExpirationRoomTemp.Equal(draft.ExpirationRoomTemp))
	assert.Equal(t, "3d", got.Properties.DaysToExpiry)
}

func TestAddItemsKeepsOrderAndFormat(t *testing.T) {
	f := newFixture(t)
	gid := f.group(t, "uid-cleo")

	names := []string{"Bread", "Apples", "Chicken"}
	var drafts []model.ItemDraft
	for i, name := range names {
		drafts = append(drafts, model.ItemDraft{
			Name:               name,
			GoesInFridge:       model.No,
			ExpirationRoomTemp: testNow.Add(time.Duration(i+1) * 36 * time.Hour),
		})
	}

	items, err := f.repo.AddItems(context.Background(), gid, drafts)
	require.NoError(t, err)
	require.Len(t, items, 3)

	format := regexp.MustCompile(`^\d+d$`)
	for i, item := range items {
		assert.Equal(t, names[i], item.Name)
		assert.Regexp(t, format, item.Properties.DaysToExpiry)
		assert.False(t, item.Properties.IsInFridge)
	}
	assert.Equal(t, "2d", items[0].Properties.DaysToExpiry)
	assert.Equal(t, "3d", items[1].Properties.DaysToExpiry)
}

func TestAddItemsDefaultsCategory(t *testing.T) {
	f := newFixture(t)
	gid := f.group(t, "uid-dora")

	items, err := f.repo.AddItems(context.Background(), gid, []model.ItemDraft{milkDraft(testNow)})
	require.NoError(t, err)
	assert.Equal(t, category.Categorize("Milk"), items[0].Properties.FoodCategory)
}

func TestAddItemsEmptyBatch(t *testing.T) {
	f := newFixture(t)
	gid := f.group(t, "uid-eve")

	items, err := f.repo.AddItems(context.Background(), gid, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAddItemsWithoutGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	drafts := []model.ItemDraft{milkDraft(testNow)}

	_, err := f.repo.AddItems(ctx, "", drafts)
	assert.ErrorIs(t, err, ErrNoGroupAssociation)

	_, err = f.repo.AddItems(ctx, "no-such-group", drafts)
	assert.ErrorIs(t, err, ErrNoGroupAssociation)
}

func TestAddItemsPartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gid := f.group(t, "uid-finn")

	repo := NewRepository(&flakyItems{ItemStore: f.items, failAt: 1}, f.groups, WithClock(f.clock.Now))
	drafts := []model.ItemDraft{milkDraft(testNow), milkDraft(testNow), milkDraft(testNow)}

	items, err := repo.AddItems(ctx, gid, drafts)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Contains(t, err.Error(), "add item 1 of 3")
	require.Len(t, items, 1)

	stored, err := f.repo.ListActiveItems(ctx, gid)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, items[0].ID, stored[0].ID)
}

func TestAddItemsStampsEachItem(t *testing.T) {
	f := newFixture(t)
	gid := f.group(t, "uid-gus")

	ticking := func() time.Time {
		f.clock.Advance(time.Second)
		return f.clock.Now()
	}
	repo := NewRepository(f.items, f.groups, WithClock(ticking))

	items, err := repo.AddItems(context.Background(), gid, []model.ItemDraft{milkDraft(testNow), milkDraft(testNow)})
	require.NoError(t, err)
	assert.True(t, items[1].DateAdded.After(items[0].DateAdded))
}

func TestListActiveItemsExcludesDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gid := f.group(t, "uid-hana")

	items, err := f.repo.AddItems(ctx, gid, []model.ItemDraft{milkDraft(testNow), milkDraft(testNow)})
	require.NoError(t, err)
	require.NoError(t, f.repo.SoftDeleteItem(ctx, gid, items[0].ID))

	active, err := f.repo.ListActiveItems(ctx, gid)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, items[1].ID, active[0].ID)
	for _, item := range active {
		assert.Equal(t, model.StatusActive, item.Status)
	}
}

func TestListActiveItemsEmptyGroup(t *testing.T) {
	f := newFixture(t)
	gid := f.group(t, "uid-ivan")

	items, err := f.repo.ListActiveItems(context.Background(), gid)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestListActiveItemsIsolatedByGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := f.group(t, "uid-jo")
	theirs := f.group(t, "uid-kai")

	_, err := f.repo.AddItems(ctx, theirs, []model.ItemDraft{milkDraft(testNow)})
	require.NoError(t, err)

	items, err := f.repo.ListActiveItems(ctx, mine)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateItemPriceOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gid := f.group(t, "uid-lee")

	items, err := f.repo.AddItems(ctx, gid, []model.ItemDraft{milkDraft(testNow)})
	require.NoError(t, err)
	before := items[0]

	f.clock.Advance(time.Hour)
	price := 4.25
	_, err = f.repo.UpdateItem(ctx, gid, before.ID, model.ItemPatch{Price: &price})
	require.NoError(t, err)

	after, err := f.repo.GetItem(ctx, gid, before.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.25, after.Price)
	assert.True(t, after.DateModified.Equal(testNow.Add(time.Hour)))

	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.Lists, after.Lists)
	assert.Equal(t, before.Status, after.Status)
	assert.True(t, after.DateAdded.Equal(before.DateAdded))
	assert.Equal(t, before.Properties.DaysToExpiry, after.Properties.DaysToExpiry)
	assert.Equal(t, before.Properties.IsInFridge, after.Properties.IsInFridge)
	assert.Equal(t, before.Properties.FoodCategory, after.Properties.FoodCategory)
	assert.Equal(t, before.Properties.AlertStatus, after.Properties.AlertStatus)
}

func TestUpdateItemRecomputesExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gid := f.group(t, "uid-mo")

	items, err := f.repo.AddItems(ctx, gid, []model.ItemDraft{milkDraft(testNow)})
	require.NoError(t, err)

	no := model.No
	updated, err := f.repo.UpdateItem(ctx, gid, items[0].ID, model.ItemPatch{
		Properties: &model.PropertiesPatch{GoesInFridge: &no},
	})
	require.NoError(t, err)
	assert.Equal(t, "1d", updated.Properties.DaysToExpiry)
	assert.True(t, updated.Properties.IsInFridge, "isInFridge is independent of goesInFridge after creation")

	stored, err := f.repo.GetItem(ctx, gid, items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "1d", stored.Properties.DaysToExpiry)
	assert.Equal(t, model.No, stored.Properties.GoesInFridge)
}

func TestUpdateItemKeepsExpiryWhenUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gid := f.group(t, "uid-nia")

	items, err := f.repo.AddItems(ctx, gid, []model.ItemDraft{milkDraft(testNow)})
	require.NoError(t, err)

	// A day later the stored value is stale but only expiry inputs refresh it.
	f.clock.Advance(24 * time.Hour)
	out := false
	updated, err := f.repo.UpdateItem(ctx, gid, items[0].ID, model.ItemPatch{
		Properties: &model.PropertiesPatch{IsInFridge: &out},
	})
	require.NoError(t, err)
	assert.Equal(t, "3d", updated.Properties.DaysToExpiry)
	assert.False(t, updated.Properties.IsInFridge)
}

func TestUpdateItemNotFound(t *testing.T) {
	f := newFixture(t)
	gid := f.group(t, "uid-otto")

	price := 1.0
	_, err := f.repo.UpdateItem(context.Background(), gid, "missing", model.ItemPatch{Price: &price})
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestSoftDeleteItemIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gid := f.group(t, "uid-pia")

	items, err := f.repo.AddItems(ctx, gid, []model.ItemDraft{milkDraft(testNow)})
	require.NoError(t, err)
	id := items[0].ID

	f.clock.Advance(time.Minute)
	require.NoError(t, f.repo.SoftDeleteItem(ctx, gid, id))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.repo.SoftDeleteItem(ctx, gid, id))

	got, err := f.repo.GetItem(ctx, gid, id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeleted, got.Status)
	assert.True(t, got.DateModified.Equal(testNow.Add(2*time.Minute)))
	assert.Equal(t, "Milk", got.Name)
	assert.Equal(t, "3d", got.Properties.DaysToExpiry)
}

func TestSoftDeleteItemNotFound(t *testing.T) {
	f := newFixture(t)
	gid := f.group(t, "uid-quin")

	err := f.repo.SoftDeleteItem(context.Background(), gid, "missing")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestGetItemNotFound(t *testing.T) {
	f := newFixture(t)
	gid := f.group(t, "uid-rae")

	_, err := f.repo.GetItem(context.Background(), gid, "missing")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRepositoryStoreFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gid := f.group(t, "uid-sam")

	items, err := f.repo.AddItems(ctx, gid, []model.ItemDraft{milkDraft(testNow)})
	require.NoError(t, err)

	repo := NewRepository(brokenItems{f.items}, f.groups)

	_, err = repo.ListActiveItems(ctx, gid)
	assert.ErrorIs(t, err, ErrPersistence)

	err = repo.SoftDeleteItem(ctx, gid, items[0].ID)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, ErrItemNotFound)
}

func TestRepositoryRejectsEmptyGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.ListActiveItems(ctx, "")
	assert.ErrorIs(t, err, ErrNoGroupAssociation)
	_, err = f.repo.GetItem(ctx, "", "id")
	assert.ErrorIs(t, err, ErrNoGroupAssociation)
	assert.ErrorIs(t, f.repo.SoftDeleteItem(ctx, "", "id"), ErrNoGroupAssociation)
}

func TestRepositoryRecordsMetrics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gid := f.group(t, "uid-tia")

	m := metrics.New(prometheus.NewRegistry())
	repo := NewRepository(f.items, f.groups, WithClock(f.clock.Now), WithMetrics(m))

	items, err := repo.AddItems(ctx, gid, []model.ItemDraft{milkDraft(testNow), milkDraft(testNow)})
	require.NoError(t, err)
	require.NoError(t, repo.SoftDeleteItem(ctx, gid, items[0].ID))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ItemsAdded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ItemsDeleted))
}
