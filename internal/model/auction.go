package model

// Document is the root persisted record: every item in the auction plus
// the shared end time. One auction per process; field names match the
// on-disk JSON layout.
type Document struct {
	Items          []Item  `json:"items"`
	AuctionEndTime *string `json:"auctionEndTime"`
}

// Item is an auctioned object. BidHistory is append-ordered: insertion
// order is chronological and doubles as the tie-breaker for the highest
// bid.
type Item struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	MinBid      float64 `json:"minBid"`
	BidHistory  []Bid   `json:"bidHistory"`
}

// Bid is a timestamped offer against one item.
type Bid struct {
	Amount float64 `json:"amount"`
	Bidder string  `json:"bidder"`
	Time   string  `json:"time"`
}

// NoBidsSentinel is returned by HighestBid for an item nobody bid on.
var NoBidsSentinel = Bid{Bidder: "No bids", Amount: 0}

// HighestBid returns the bid with the maximum amount, ties resolved to
// the earliest placed bid.
func HighestBid(item Item) Bid {
	best := NoBidsSentinel
	found := false
	for _, b := range item.BidHistory {
		if !found || b.Amount > best.Amount {
			best = b
			found = true
		}
	}
	return best
}

// Clone returns a deep copy. Slices are always non-nil so an empty
// history marshals as [] rather than null.
func (d Document) Clone() Document {
	out := Document{Items: make([]Item, len(d.Items))}
	for i, item := range d.Items {
		out.Items[i] = item.Clone()
	}
	if d.AuctionEndTime != nil {
		t := *d.AuctionEndTime
		out.AuctionEndTime = &t
	}
	return out
}

// Clone returns a deep copy of the item.
func (item Item) Clone() Item {
	cp := item
	cp.BidHistory = make([]Bid, len(item.BidHistory))
	copy(cp.BidHistory, item.BidHistory)
	return cp
}
