package auction

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"

	"silent_auction/internal/model"
)

// TopicAuctionEnded is published on the event bus exactly once per
// configured end time, when that time is reached. The payload is the
// end time itself.
const TopicAuctionEnded = "auction:ended"

// eventBus is the publish side of EventBus.Bus.
type eventBus interface {
	Publish(topic string, args ...interface{})
}

// Clock tracks the single shared end timestamp and drives the
// ended-state transition. Countdown rendering stays client-side; the
// clock only guarantees the one-shot notification at expiry.
type Clock struct {
	bus eventBus

	mu    sync.Mutex
	timer *time.Timer
}

func NewClock(bus eventBus) *Clock {
	return &Clock{bus: bus}
}

// Arm schedules the ended notification for end, replacing any earlier
// schedule. An end time already in the past fires immediately.
func (c *Clock) Arm(end time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	d := time.Until(end)
	if d < 0 {
		d = 0
	}
	c.timer = time.AfterFunc(d, func() {
		zap.L().Info("auction ended", zap.Time("end_time", end))
		c.bus.Publish(TopicAuctionEnded, end)
	})
}

// Stop cancels any pending notification.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// EndTime returns the stored end timestamp, nil when none is set.
func (s *Service) EndTime() *string {
	return s.store.View().AuctionEndTime
}

// SetEndTime validates ts as a date, stores it verbatim so it round
// trips exactly, and re-arms the clock.
func (s *Service) SetEndTime(ctx context.Context, ts string) (string, error) {
	end, err := parseEndTime(ts)
	if err != nil {
		return "", validationf("invalid end time %q", ts)
	}

	err = s.store.Update(ctx, func(doc *model.Document) error {
		doc.AuctionEndTime = &ts
		return nil
	})
	if err != nil {
		return "", err
	}
	s.clock.Arm(end)
	return ts, nil
}

// HasEnded reports whether now is at or past the configured end time.
// With no end time set the auction never ends.
func (s *Service) HasEnded(now time.Time) bool {
	raw := s.store.View().AuctionEndTime
	if raw == nil {
		return false
	}
	end, err := parseEndTime(*raw)
	if err != nil {
		return false
	}
	return !now.Before(end)
}

// parseEndTime is as lenient as the browser Date constructor the
// original admin page fed this value through.
func parseEndTime(ts string) (time.Time, error) {
	end, err := dateparse.ParseAny(ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse end time: %w", err)
	}
	return end, nil
}
