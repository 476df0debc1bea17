package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/erp/channelsync/internal/domain/integration"
)

// ChannelLister lists the channels of a source
type ChannelLister interface {
	FindBySource(ctx context.Context, source channel.Source) ([]channel.Channel, error)
}

// ChannelSyncCronTriggerConfig holds configuration for the periodic trigger
type ChannelSyncCronTriggerConfig struct {
	// Interval is how often jobs are queued for every Magento channel
	Interval time.Duration

	// Operations are queued in order on every tick
	Operations []integration.Operation
}

// DefaultChannelSyncCronTriggerConfig pushes order and shipment status every 15 minutes
func DefaultChannelSyncCronTriggerConfig() ChannelSyncCronTriggerConfig {
	return ChannelSyncCronTriggerConfig{
		Interval: 15 * time.Minute,
		Operations: []integration.Operation{
			integration.OperationExportOrderStatus,
			integration.OperationExportShipmentStatus,
		},
	}
}

// ChannelSyncCronTrigger queues the periodic status exports of every Magento channel
type ChannelSyncCronTrigger struct {
	config    ChannelSyncCronTriggerConfig
	scheduler *ChannelSyncScheduler
	channels  ChannelLister
	logger    *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastScheduledMu sync.RWMutex
	lastScheduled   map[uuid.UUID]time.Time
}

// NewChannelSyncCronTrigger creates a new trigger
func NewChannelSyncCronTrigger(
	config ChannelSyncCronTriggerConfig,
	scheduler *ChannelSyncScheduler,
	channels ChannelLister,
	logger *zap.Logger,
) *ChannelSyncCronTrigger {
	if config.Interval <= 0 {
		config.Interval = DefaultChannelSyncCronTriggerConfig().Interval
	}
	if len(config.Operations) == 0 {
		config.Operations = DefaultChannelSyncCronTriggerConfig().Operations
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChannelSyncCronTrigger{
		config:        config,
		scheduler:     scheduler,
		channels:      channels,
		logger:        logger,
		lastScheduled: make(map[uuid.UUID]time.Time),
	}
}

// Start starts the trigger loop. The first round is queued immediately.
func (c *ChannelSyncCronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.runLoop(ctx)

	c.logger.Info("Channel sync cron trigger started",
		zap.Duration("interval", c.config.Interval),
		zap.Int("operations", len(c.config.Operations)),
	)

	return nil
}

// Stop stops the trigger loop
func (c *ChannelSyncCronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("Channel sync cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *ChannelSyncCronTrigger) runLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	c.checkAndSchedule(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.checkAndSchedule(ctx)
		}
	}
}

func (c *ChannelSyncCronTrigger) checkAndSchedule(ctx context.Context) {
	if _, err := c.TriggerAll(ctx); err != nil && !errors.Is(err, ErrNoMagentoChannels) {
		c.logger.Error("Failed to schedule channel sync round", zap.Error(err))
	}
}

// TriggerAll queues the configured operations for every Magento channel and
// returns the number of jobs queued
func (c *ChannelSyncCronTrigger) TriggerAll(ctx context.Context) (int, error) {
	channels, err := c.channels.FindBySource(ctx, channel.SourceMagento)
	if err != nil {
		return 0, err
	}
	if len(channels) == 0 {
		c.logger.Debug("No magento channels found")
		return 0, ErrNoMagentoChannels
	}

	now := time.Now()
	queued := 0
	for i := range channels {
		n, err := c.TriggerChannel(channels[i].ID)
		queued += n
		if err != nil {
			c.logger.Error("Failed to schedule channel sync",
				zap.String("channel_id", channels[i].ID.String()),
				zap.Error(err),
			)
			continue
		}
		c.updateLastScheduled(channels[i].ID, now)
	}

	c.logger.Debug("Channel sync round scheduled",
		zap.Int("channel_count", len(channels)),
		zap.Int("jobs_queued", queued),
	)
	return queued, nil
}

// TriggerChannel queues the configured operations for one channel. It stops
// at the first submission error.
func (c *ChannelSyncCronTrigger) TriggerChannel(channelID uuid.UUID) (int, error) {
	queued := 0
	for _, op := range c.config.Operations {
		if _, err := c.scheduler.ScheduleSync(channelID, op); err != nil {
			return queued, err
		}
		queued++
	}
	return queued, nil
}

func (c *ChannelSyncCronTrigger) updateLastScheduled(channelID uuid.UUID, t time.Time) {
	c.lastScheduledMu.Lock()
	c.lastScheduled[channelID] = t
	c.lastScheduledMu.Unlock()
}

// GetSchedulerStats returns statistics about the trigger
func (c *ChannelSyncCronTrigger) GetSchedulerStats() map[string]interface{} {
	c.mu.Lock()
	running := c.isRunning
	c.mu.Unlock()

	c.lastScheduledMu.RLock()
	defer c.lastScheduledMu.RUnlock()

	stats := make(map[string]interface{})
	stats["is_running"] = running
	stats["interval"] = c.config.Interval.String()
	stats["tracked_channels"] = len(c.lastScheduled)

	lastScheduledTimes := make(map[string]string)
	for id, t := range c.lastScheduled {
		lastScheduledTimes[id.String()] = t.Format(time.RFC3339)
	}
	stats["last_scheduled"] = lastScheduledTimes

	return stats
}
