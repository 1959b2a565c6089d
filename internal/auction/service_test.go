package auction

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"silent_auction/internal/model"
	"silent_auction/internal/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "auction.json"))
	require.NoError(t, err)
	t.Cleanup(st.Close)

	clock := NewClock(EventBus.New())
	t.Cleanup(clock.Stop)

	svc, err := NewService(st, clock)
	require.NoError(t, err)
	return svc
}

func addTestItem(t *testing.T, svc *Service, name string, minBid any) model.Item {
	t.Helper()
	item, err := svc.AddItem(context.Background(), AddItemInput{
		Name:        name,
		Description: "a " + name,
		MinBid:      minBid,
	})
	require.NoError(t, err)
	return item
}

func TestAddItemAssignsUniqueIDsAndEmptyHistory(t *testing.T) {
	svc := newTestService(t)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		item := addTestItem(t, svc, "Lamp", 0)
		assert.NotEmpty(t, item.ID)
		assert.False(t, seen[item.ID], "id %s reused", item.ID)
		seen[item.ID] = true
		assert.NotNil(t, item.BidHistory)
		assert.Empty(t, item.BidHistory)
	}
}

func TestAddItemRequiresNameAndDescription(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, AddItemInput{Description: "fine"})
	assert.True(t, IsValidation(err))

	_, err = svc.AddItem(ctx, AddItemInput{Name: "fine", Description: "  "})
	assert.True(t, IsValidation(err))
}

func TestAddItemMinBidCoercion(t *testing.T) {
	svc := newTestService(t)

	assert.Equal(t, 50.0, addTestItem(t, svc, "Vase", 50).MinBid)
	assert.Equal(t, 50.0, addTestItem(t, svc, "Vase", "50").MinBid)
	assert.Equal(t, 0.0, addTestItem(t, svc, "Vase", "not a number").MinBid)
	assert.Equal(t, 0.0, addTestItem(t, svc, "Vase", -5).MinBid)
	assert.Equal(t, 0.0, addTestItem(t, svc, "Vase", nil).MinBid)
}

func TestAddItemPreservesInsertionOrder(t *testing.T) {
	svc := newTestService(t)

	addTestItem(t, svc, "First", 0)
	addTestItem(t, svc, "Second", 0)
	addTestItem(t, svc, "Third", 0)

	doc := svc.ListItems()
	require.Len(t, doc.Items, 3)
	assert.Equal(t, "First", doc.Items[0].Name)
	assert.Equal(t, "Second", doc.Items[1].Name)
	assert.Equal(t, "Third", doc.Items[2].Name)
}

func TestUpdateItemShallowMerge(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item := addTestItem(t, svc, "Vase", 50)

	name := "Ming Vase"
	updated, err := svc.UpdateItem(ctx, item.ID, ItemPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, item.ID, updated.ID)
	assert.Equal(t, "Ming Vase", updated.Name)
	assert.Equal(t, item.Description, updated.Description)
	assert.Equal(t, 50.0, updated.MinBid)
}

func TestUpdateItemNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.UpdateItem(context.Background(), "nope", ItemPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteItemCascades(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item := addTestItem(t, svc, "Vase", 0)
	keep := addTestItem(t, svc, "Lamp", 0)

	_, err := svc.PlaceBid(ctx, item.ID, BidInput{Amount: 10, Bidder: "Alice"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(ctx, item.ID))

	doc := svc.ListItems()
	require.Len(t, doc.Items, 1)
	assert.Equal(t, keep.ID, doc.Items[0].ID)
}

func TestDeleteItemAbsentIsNoOp(t *testing.T) {
	svc := newTestService(t)
	assert.NoError(t, svc.DeleteItem(context.Background(), "nope"))
}

func TestUpdateMinBid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item := addTestItem(t, svc, "Vase", 10)

	updated, err := svc.UpdateMinBid(ctx, item.ID, 75)
	require.NoError(t, err)
	assert.Equal(t, 75.0, updated.MinBid)

	_, err = svc.UpdateMinBid(ctx, "nope", 75)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlaceBidValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item := addTestItem(t, svc, "Vase", 0)

	_, err := svc.PlaceBid(ctx, item.ID, BidInput{Amount: 0, Bidder: "Alice"})
	assert.True(t, IsValidation(err))

	_, err = svc.PlaceBid(ctx, item.ID, BidInput{Amount: -3, Bidder: "Alice"})
	assert.True(t, IsValidation(err))

	_, err = svc.PlaceBid(ctx, item.ID, BidInput{Amount: 10, Bidder: "   "})
	assert.True(t, IsValidation(err))

	_, err = svc.PlaceBid(ctx, "nope", BidInput{Amount: 10, Bidder: "Alice"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPlaceBidStampsMissingTime(t *testing.T) {
	svc := newTestService(t)
	item := addTestItem(t, svc, "Vase", 0)

	updated, err := svc.PlaceBid(context.Background(), item.ID, BidInput{Amount: 10, Bidder: "Alice"})
	require.NoError(t, err)
	require.Len(t, updated.BidHistory, 1)
	assert.NotEmpty(t, updated.BidHistory[0].Time)
}

// Bids below the minimum are accepted server-side; the client owns that
// check.
func TestPlaceBidBelowMinimumIsAccepted(t *testing.T) {
	svc := newTestService(t)
	item := addTestItem(t, svc, "Vase", 100)

	updated, err := svc.PlaceBid(context.Background(), item.ID, BidInput{Amount: 5, Bidder: "Alice"})
	require.NoError(t, err)
	assert.Len(t, updated.BidHistory, 1)
}

func TestVaseScenario(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	item, err := svc.AddItem(ctx, AddItemInput{Name: "Vase", Description: "Ming", MinBid: 50})
	require.NoError(t, err)

	_, err = svc.PlaceBid(ctx, item.ID, BidInput{Amount: 60, Bidder: "Alice"})
	require.NoError(t, err)
	updated, err := svc.PlaceBid(ctx, item.ID, BidInput{Amount: 55, Bidder: "Bob"})
	require.NoError(t, err)

	best := model.HighestBid(updated)
	assert.Equal(t, "Alice", best.Bidder)
	assert.Equal(t, 60.0, best.Amount)
}

func TestDeleteBidShiftsLaterEntries(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item := addTestItem(t, svc, "Vase", 0)

	_, err := svc.PlaceBid(ctx, item.ID, BidInput{Amount: 10, Bidder: "Alice"})
	require.NoError(t, err)
	_, err = svc.PlaceBid(ctx, item.ID, BidInput{Amount: 20, Bidder: "Bob"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteBid(ctx, item.ID, 0))

	doc := svc.ListItems()
	require.Len(t, doc.Items[0].BidHistory, 1)
	assert.Equal(t, "Bob", doc.Items[0].BidHistory[0].Bidder)
}

func TestDeleteBidOutOfRangeLeavesHistory(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item := addTestItem(t, svc, "Vase", 0)

	_, err := svc.PlaceBid(ctx, item.ID, BidInput{Amount: 10, Bidder: "Alice"})
	require.NoError(t, err)

	assert.True(t, IsValidation(svc.DeleteBid(ctx, item.ID, 1)))
	assert.True(t, IsValidation(svc.DeleteBid(ctx, item.ID, -1)))
	assert.ErrorIs(t, svc.DeleteBid(ctx, "nope", 0), ErrNotFound)

	assert.Len(t, svc.ListItems().Items[0].BidHistory, 1)
}

func TestResults(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	vase := addTestItem(t, svc, "Vase", 0)
	addTestItem(t, svc, "Lamp", 0)

	_, err := svc.PlaceBid(ctx, vase.ID, BidInput{Amount: 60, Bidder: "Alice"})
	require.NoError(t, err)

	results := svc.Results()
	require.Len(t, results, 2)
	assert.Equal(t, "Alice", results[0].Bidder)
	assert.Equal(t, 60.0, results[0].Amount)
	assert.Equal(t, "No bids", results[1].Bidder)
	assert.Zero(t, results[1].Amount)
}
