package handler

import (
	"context"
	"errors"
	"time"

	"github.com/erp/channelsync/internal/domain/integration"
	"github.com/erp/channelsync/internal/infrastructure/scheduler"
	"github.com/erp/channelsync/internal/interfaces/http/dto"
	"github.com/erp/channelsync/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultJobHistoryLimit = 20

// JobScheduler queues sync jobs and keeps their history
type JobScheduler interface {
	ScheduleSync(channelID uuid.UUID, op integration.Operation) (*scheduler.ChannelSyncJob, error)
	GetJobHistory(limit int) []*scheduler.ChannelSyncJob
	GetJobHistoryByChannel(channelID uuid.UUID, limit int) []*scheduler.ChannelSyncJob
}

// SyncTrigger queues the periodic operations on demand
type SyncTrigger interface {
	TriggerAll(ctx context.Context) (int, error)
	GetSchedulerStats() map[string]interface{}
}

// SchedulerHandler exposes the background sync queue
type SchedulerHandler struct {
	BaseHandler
	channels  ChannelFinder
	scheduler JobScheduler
	trigger   SyncTrigger
}

// NewSchedulerHandler creates a new SchedulerHandler. trigger may be nil when
// periodic sync is disabled.
func NewSchedulerHandler(channels ChannelFinder, s JobScheduler, trigger SyncTrigger) *SchedulerHandler {
	return &SchedulerHandler{channels: channels, scheduler: s, trigger: trigger}
}

func toSyncJobData(job *scheduler.ChannelSyncJob) SyncJobData {
	data := SyncJobData{
		ID:             job.ID.String(),
		ChannelID:      job.ChannelID.String(),
		Operation:      job.Operation.String(),
		Status:         string(job.Status),
		Error:          job.Error,
		RetryCount:     job.RetryCount,
		ProcessedCount: job.ProcessedCount,
		FailedCount:    job.FailedCount,
		FailedItems:    job.FailedItems,
	}
	if job.StartedAt != nil {
		data.StartedAt = job.StartedAt.Format(time.RFC3339)
	}
	if job.CompletedAt != nil {
		data.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	return data
}

func (h *SchedulerHandler) handleSchedulerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scheduler.ErrSchedulerNotRunning):
		h.ErrorWithCode(c, dto.ErrCodeSchedulerStopped, "Background sync is not running")
	case errors.Is(err, scheduler.ErrJobQueueFull):
		h.ErrorWithCode(c, dto.ErrCodeQueueFull, "Sync queue is full, try again later")
	default:
		h.HandleError(c, err)
	}
}

// EnqueueSync godoc
// @ID           enqueueChannelSync
// @Summary      Queue a sync operation
// @Description  Queues one operation on the channel for the background workers
// @Tags         scheduler
// @Produce      json
// @Param        id path string true "Channel ID" format(uuid)
// @Param        operation path string true "Sync operation"
// @Success      202 {object} APIResponse[SyncJobData]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /channels/{id}/sync/{operation}/enqueue [post]
func (h *SchedulerHandler) EnqueueSync(c *gin.Context) {
	var uri dto.ChannelOperationRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	op, err := integration.ParseOperation(uri.Operation)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	ch, err := h.channels.FindByID(c.Request.Context(), uuid.MustParse(uri.ID))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	job, err := h.scheduler.ScheduleSync(ch.ID, op)
	if err != nil {
		h.handleSchedulerError(c, err)
		return
	}
	h.Accepted(c, toSyncJobData(job))
}

// ListJobs godoc
// @ID           listSyncJobs
// @Summary      List finished sync jobs
// @Description  Returns the most recent jobs first, optionally for one channel
// @Tags         scheduler
// @Produce      json
// @Param        channel_id query string false "Channel ID" format(uuid)
// @Param        limit query int false "Maximum number of jobs" minimum(1) maximum(100)
// @Success      200 {object} APIResponse[[]SyncJobData]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /scheduler/jobs [get]
func (h *SchedulerHandler) ListJobs(c *gin.Context) {
	var req dto.JobHistoryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultJobHistoryLimit
	}

	var jobs []*scheduler.ChannelSyncJob
	if req.ChannelID != "" {
		jobs = h.scheduler.GetJobHistoryByChannel(uuid.MustParse(req.ChannelID), req.Limit)
	} else {
		jobs = h.scheduler.GetJobHistory(req.Limit)
	}

	data := make([]SyncJobData, 0, len(jobs))
	for _, job := range jobs {
		data = append(data, toSyncJobData(job))
	}
	h.Success(c, data)
}

// TriggerAll godoc
// @ID           triggerPeriodicSync
// @Summary      Run the periodic sync now
// @Description  Queues the periodic export operations for every Magento channel
// @Tags         scheduler
// @Produce      json
// @Success      202 {object} APIResponse[map[string]int]
// @Failure      503 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /scheduler/trigger [post]
func (h *SchedulerHandler) TriggerAll(c *gin.Context) {
	if h.trigger == nil {
		h.ErrorWithCode(c, dto.ErrCodeSchedulerStopped, "Periodic sync is disabled")
		return
	}
	queued, err := h.trigger.TriggerAll(c.Request.Context())
	if err != nil && !errors.Is(err, scheduler.ErrNoMagentoChannels) {
		h.handleSchedulerError(c, err)
		return
	}
	h.Accepted(c, map[string]int{"queued": queued})
}

// Stats godoc
// @ID           getSchedulerStats
// @Summary      Periodic sync status
// @Tags         scheduler
// @Produce      json
// @Success      200 {object} APIResponse[map[string]interface{}]
// @Security     BearerAuth
// @Router       /scheduler/stats [get]
func (h *SchedulerHandler) Stats(c *gin.Context) {
	if h.trigger == nil {
		h.Success(c, map[string]interface{}{"is_running": false})
		return
	}
	h.Success(c, h.trigger.GetSchedulerStats())
}
