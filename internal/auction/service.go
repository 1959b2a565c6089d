package auction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cast"

	"silent_auction/internal/model"
)

// documentStore is the subset of store.DocumentStore the service needs.
type documentStore interface {
	View() model.Document
	Update(ctx context.Context, fn func(*model.Document) error) error
}

// Service implements every auction operation over the shared document:
// item CRUD, the bid ledger and the auction clock.
type Service struct {
	store documentStore
	node  *snowflake.Node
	clock *Clock
}

// NewService builds the service and arms the clock from a persisted end
// time, if one survives in the document.
func NewService(store documentStore, clock *Clock) (*Service, error) {
	// Single process, so any fixed node id yields unique ids.
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, fmt.Errorf("init snowflake node: %w", err)
	}

	s := &Service{store: store, node: node, clock: clock}
	if raw := store.View().AuctionEndTime; raw != nil {
		if end, err := parseEndTime(*raw); err == nil {
			clock.Arm(end)
		}
	}
	return s, nil
}

// AddItemInput carries the fields accepted when creating an item.
// MinBid is deliberately untyped: clients have historically sent
// numbers, numeric strings or nothing at all.
type AddItemInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	MinBid      any    `json:"minBid"`
}

// ItemPatch is a shallow merge over an existing item. Nil fields are
// left untouched; the id is never patchable.
type ItemPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	MinBid      any     `json:"minBid"`
}

// BidInput carries a single offer. Time is client-supplied; an empty
// value is stamped server-side.
type BidInput struct {
	Amount float64 `json:"amount"`
	Bidder string  `json:"bidder"`
	Time   string  `json:"time"`
}

// ListItems returns every item plus the auction end time in one read.
func (s *Service) ListItems() model.Document {
	return s.store.View()
}

// AddItem validates the input, assigns a time-ordered unique id, and
// appends the item to the document (insertion order = display order).
func (s *Service) AddItem(ctx context.Context, in AddItemInput) (model.Item, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Item{}, validationf("item name is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		return model.Item{}, validationf("item description is required")
	}

	item := model.Item{
		ID:          s.node.Generate().String(),
		Name:        in.Name,
		Description: in.Description,
		Image:       in.Image,
		MinBid:      lenientMinBid(in.MinBid),
		BidHistory:  []model.Bid{},
	}
	err := s.store.Update(ctx, func(doc *model.Document) error {
		doc.Items = append(doc.Items, item)
		return nil
	})
	if err != nil {
		return model.Item{}, err
	}
	return item, nil
}

// UpdateItem shallow-merges patch over the item with the given id.
func (s *Service) UpdateItem(ctx context.Context, id string, patch ItemPatch) (model.Item, error) {
	var updated model.Item
	err := s.store.Update(ctx, func(doc *model.Document) error {
		item := findItem(doc, id)
		if item == nil {
			return fmt.Errorf("item %s: %w", id, ErrNotFound)
		}
		if patch.Name != nil {
			item.Name = *patch.Name
		}
		if patch.Description != nil {
			item.Description = *patch.Description
		}
		if patch.Image != nil {
			item.Image = *patch.Image
		}
		if patch.MinBid != nil {
			item.MinBid = lenientMinBid(patch.MinBid)
		}
		updated = item.Clone()
		return nil
	})
	if err != nil {
		return model.Item{}, err
	}
	return updated, nil
}

// DeleteItem removes the item and its entire bid history. Deleting an
// absent id is a no-op, not an error.
func (s *Service) DeleteItem(ctx context.Context, id string) error {
	return s.store.Update(ctx, func(doc *model.Document) error {
		kept := doc.Items[:0]
		for _, item := range doc.Items {
			if item.ID != id {
				kept = append(kept, item)
			}
		}
		doc.Items = kept
		return nil
	})
}

// UpdateMinBid sets the item's minimum bid, coercing the value the same
// way AddItem does.
func (s *Service) UpdateMinBid(ctx context.Context, id string, value any) (model.Item, error) {
	var updated model.Item
	err := s.store.Update(ctx, func(doc *model.Document) error {
		item := findItem(doc, id)
		if item == nil {
			return fmt.Errorf("item %s: %w", id, ErrNotFound)
		}
		item.MinBid = lenientMinBid(value)
		updated = item.Clone()
		return nil
	})
	if err != nil {
		return model.Item{}, err
	}
	return updated, nil
}

// PlaceBid appends an offer to the item's history and returns the
// updated item. Amounts must be positive and the bidder named; whether
// the amount clears the item's minimum bid is the client's check, kept
// that way on purpose.
func (s *Service) PlaceBid(ctx context.Context, id string, in BidInput) (model.Item, error) {
	if in.Amount <= 0 {
		return model.Item{}, validationf("bid amount must be a positive number")
	}
	if strings.TrimSpace(in.Bidder) == "" {
		return model.Item{}, validationf("bidder name is required")
	}
	if in.Time == "" {
		in.Time = time.Now().UTC().Format(time.RFC3339)
	}

	var updated model.Item
	err := s.store.Update(ctx, func(doc *model.Document) error {
		item := findItem(doc, id)
		if item == nil {
			return fmt.Errorf("item %s: %w", id, ErrNotFound)
		}
		item.BidHistory = append(item.BidHistory, model.Bid{
			Amount: in.Amount,
			Bidder: in.Bidder,
			Time:   in.Time,
		})
		updated = item.Clone()
		return nil
	})
	if err != nil {
		return model.Item{}, err
	}
	return updated, nil
}

// DeleteBid removes the history entry at index; later entries shift
// down, so positions are not stable across deletions. An out-of-range
// index fails validation and leaves the history unchanged.
func (s *Service) DeleteBid(ctx context.Context, id string, index int) error {
	return s.store.Update(ctx, func(doc *model.Document) error {
		item := findItem(doc, id)
		if item == nil {
			return fmt.Errorf("item %s: %w", id, ErrNotFound)
		}
		if index < 0 || index >= len(item.BidHistory) {
			return validationf("invalid bid index")
		}
		item.BidHistory = append(item.BidHistory[:index], item.BidHistory[index+1:]...)
		return nil
	})
}

// ItemResult is one row of the winners summary.
type ItemResult struct {
	ItemID string  `json:"itemId"`
	Name   string  `json:"name"`
	Bidder string  `json:"bidder"`
	Amount float64 `json:"amount"`
}

// Results computes the current winner of every item.
func (s *Service) Results() []ItemResult {
	doc := s.store.View()
	results := make([]ItemResult, 0, len(doc.Items))
	for _, item := range doc.Items {
		best := model.HighestBid(item)
		results = append(results, ItemResult{
			ItemID: item.ID,
			Name:   item.Name,
			Bidder: best.Bidder,
			Amount: best.Amount,
		})
	}
	return results
}

func findItem(doc *model.Document, id string) *model.Item {
	for i := range doc.Items {
		if doc.Items[i].ID == id {
			return &doc.Items[i]
		}
	}
	return nil
}

// lenientMinBid mirrors the UI's historical parseFloat-or-zero
// behavior: anything that does not coerce to a non-negative number
// becomes 0.
func lenientMinBid(v any) float64 {
	f, err := cast.ToFloat64E(v)
	if err != nil || f < 0 {
		return 0
	}
	return f
}
