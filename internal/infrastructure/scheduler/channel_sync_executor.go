package scheduler

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/erp/channelsync/internal/domain/channel"
	"github.com/erp/channelsync/internal/domain/integration"
)

// SyncRunner runs one operation on a loaded channel
type SyncRunner interface {
	Run(ctx context.Context, ch *channel.Channel, op integration.Operation) (*integration.SyncResult, error)
}

// ChannelSyncExecutorImpl loads the job's channel and hands it to the runner
type ChannelSyncExecutorImpl struct {
	channels channel.Repository
	runner   SyncRunner
	logger   *zap.Logger

	onSyncCompleted func(ctx context.Context, job *ChannelSyncJob, result *integration.SyncResult)
}

var _ ChannelSyncExecutor = (*ChannelSyncExecutorImpl)(nil)

// NewChannelSyncExecutor creates a new channel sync executor
func NewChannelSyncExecutor(channels channel.Repository, runner SyncRunner, logger *zap.Logger) *ChannelSyncExecutorImpl {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChannelSyncExecutorImpl{
		channels: channels,
		runner:   runner,
		logger:   logger,
	}
}

// SetOnSyncCompletedCallback sets the callback invoked after a successful run
func (e *ChannelSyncExecutorImpl) SetOnSyncCompletedCallback(cb func(ctx context.Context, job *ChannelSyncJob, result *integration.SyncResult)) {
	e.onSyncCompleted = cb
}

// Execute runs the job's operation against the current state of its channel
func (e *ChannelSyncExecutorImpl) Execute(ctx context.Context, job *ChannelSyncJob) error {
	ch, err := e.channels.FindByID(ctx, job.ChannelID)
	if err != nil {
		return fmt.Errorf("load channel %s: %w", job.ChannelID, err)
	}

	result, err := e.runner.Run(ctx, ch, job.Operation)
	if err != nil {
		return err
	}

	job.Complete(result)
	if len(job.FailedItems) > 0 {
		e.logger.Warn("Channel sync finished with skipped items",
			zap.String("channel_id", ch.ID.String()),
			zap.String("operation", job.Operation.String()),
			zap.Strings("failed_items", job.FailedItems),
		)
	}
	if e.onSyncCompleted != nil {
		e.onSyncCompleted(ctx, job, result)
	}
	return nil
}
