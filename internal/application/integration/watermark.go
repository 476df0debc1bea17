package integration

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/google/uuid"
)

// WatermarkTracker reads and advances the per-channel sync checkpoints.
//
// Advance persists the new checkpoint before the caller processes its batch.
// A crash or error half way through a batch therefore loses the remaining
// items instead of replaying them (at-most-once delivery).
type WatermarkTracker struct {
	channels channel.Repository
	now      func() time.Time
}

// NewWatermarkTracker creates a tracker backed by the channel repository
func NewWatermarkTracker(channels channel.Repository) *WatermarkTracker {
	return &WatermarkTracker{
		channels: channels,
		now:      time.Now,
	}
}

// Get returns the checkpoint of the channel; nil means process everything
func (t *WatermarkTracker) Get(ch *channel.Channel, kind channel.WatermarkKind) *time.Time {
	return ch.Watermark(kind)
}

// Advance moves the checkpoint to now, persists it and returns the prior value.
// The checkpoint never moves backwards, even if the clock does.
func (t *WatermarkTracker) Advance(ctx context.Context, ch *channel.Channel, kind channel.WatermarkKind) (*time.Time, error) {
	if !kind.IsValid() {
		return nil, channel.ErrUnknownWatermark
	}
	prior := ch.Watermark(kind)

	next := t.now().UTC()
	if prior != nil && next.Before(*prior) {
		next = *prior
	}

	if err := t.channels.UpdateWatermark(ctx, ch.ID, kind, next); err != nil {
		return prior, fmt.Errorf("advance %s watermark: %w", kind, err)
	}
	if err := ch.SetWatermark(kind, next); err != nil {
		return prior, err
	}
	return prior, nil
}

// GetWatermarks returns the checkpoints recorded so far for every Magento
// channel, keyed by channel then watermark kind. Kinds that never ran are
// left out.
func (t *WatermarkTracker) GetWatermarks(ctx context.Context) (map[uuid.UUID]map[string]time.Time, error) {
	channels, err := t.channels.FindBySource(ctx, channel.SourceMagento)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	out := make(map[uuid.UUID]map[string]time.Time, len(channels))
	for i := range channels {
		ch := &channels[i]
		kinds := make(map[string]time.Time)
		for _, kind := range channel.AllWatermarkKinds() {
			if at := ch.Watermark(kind); at != nil {
				kinds[string(kind)] = *at
			}
		}
		out[ch.ID] = kinds
	}
	return out, nil
}
