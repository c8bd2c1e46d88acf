package ledger

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/zigaf/car-auction/go/internal/models"
)

var (
	// ErrStaleBid is returned when a bid does not beat the current price.
	ErrStaleBid = errors.New("stale bid: amount does not exceed current price")

	// ErrBidNotFound is returned when rolling back an unknown or already
	// rolled back bid.
	ErrBidNotFound = errors.New("bid not found")
)

// Ledger is the ordered, append-only bid record for a single lot. It carries
// no locking of its own: the auction engine invokes it only inside the owning
// lot's exclusive section.
type Ledger struct {
	lotID       uuid.UUID
	startingBid int64
	bids        []*models.Bid
	byID        map[uuid.UUID]*models.Bid
	nextSeq     int64
}

// New creates an empty ledger for a lot.
func New(lotID uuid.UUID, startingBid int64) *Ledger {
	return &Ledger{
		lotID:       lotID,
		startingBid: startingBid,
		byID:        make(map[uuid.UUID]*models.Bid),
		nextSeq:     1,
	}
}

// Restore rebuilds a ledger from persisted bids, re-establishing the
// (createdAt, sequence) total order and the next sequence number.
func Restore(lotID uuid.UUID, startingBid int64, bids []*models.Bid) *Ledger {
	l := New(lotID, startingBid)
	for _, b := range bids {
		bid := *b
		l.bids = append(l.bids, &bid)
		l.byID[bid.ID] = &bid
		if bid.Sequence >= l.nextSeq {
			l.nextSeq = bid.Sequence + 1
		}
	}
	sort.Slice(l.bids, func(i, j int) bool {
		if !l.bids[i].CreatedAt.Equal(l.bids[j].CreatedAt) {
			return l.bids[i].CreatedAt.Before(l.bids[j].CreatedAt)
		}
		return l.bids[i].Sequence < l.bids[j].Sequence
	})
	return l
}

// Append validates and records a new bid, assigning the next per-lot sequence
// number. It returns ErrStaleBid when amount does not exceed the current
// price. Lot status and pause checks belong to the caller.
func (l *Ledger) Append(bidderID uuid.UUID, amount int64, isAutoBid bool, now time.Time) (*models.Bid, error) {
	if amount <= l.CurrentPrice() {
		return nil, ErrStaleBid
	}

	bid := &models.Bid{
		ID:        uuid.New(),
		LotID:     l.lotID,
		BidderID:  bidderID,
		Amount:    amount,
		IsAutoBid: isAutoBid,
		Sequence:  l.nextSeq,
		CreatedAt: now,
	}
	l.nextSeq++
	l.bids = append(l.bids, bid)
	l.byID[bid.ID] = bid

	return bid, nil
}

// Rollback voids a bid and returns the recomputed current price over the
// surviving bids. The recomputation scans every surviving bid, since multiple
// rollbacks may arrive out of order.
func (l *Ledger) Rollback(bidID uuid.UUID) (int64, error) {
	bid, ok := l.byID[bidID]
	if !ok || bid.RolledBack {
		return 0, ErrBidNotFound
	}
	bid.RolledBack = true
	return l.CurrentPrice(), nil
}

// CurrentPrice returns the amount of the leading bid, or the starting bid
// when no bids survive. The leader is the maximum by (amount, sequence).
func (l *Ledger) CurrentPrice() int64 {
	if leader := l.Leader(); leader != nil {
		return leader.Amount
	}
	return l.startingBid
}

// Leader returns the surviving bid with the greatest (amount, sequence) pair,
// or nil when no bids survive.
func (l *Ledger) Leader() *models.Bid {
	var leader *models.Bid
	for _, b := range l.bids {
		if b.RolledBack {
			continue
		}
		if leader == nil || b.Amount > leader.Amount ||
			(b.Amount == leader.Amount && b.Sequence > leader.Sequence) {
			leader = b
		}
	}
	return leader
}

// Bid looks up a bid by id.
func (l *Ledger) Bid(bidID uuid.UUID) (*models.Bid, bool) {
	b, ok := l.byID[bidID]
	return b, ok
}

// Bids returns a copy of the ledger in (createdAt, sequence) order,
// including rolled back entries.
func (l *Ledger) Bids() []models.Bid {
	out := make([]models.Bid, 0, len(l.bids))
	for _, b := range l.bids {
		out = append(out, *b)
	}
	return out
}

// Len returns the number of recorded bids, including rolled back ones.
func (l *Ledger) Len() int {
	return len(l.bids)
}
