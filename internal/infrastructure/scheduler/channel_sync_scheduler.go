package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/channelsync/internal/domain/integration"
)

// ---------------------------------------------------------------------------
// Channel Sync Job Types
// ---------------------------------------------------------------------------

// ChannelSyncJobStatus represents the status of a channel sync job
type ChannelSyncJobStatus string

const (
	ChannelSyncJobStatusPending ChannelSyncJobStatus = "PENDING"
	ChannelSyncJobStatusRunning ChannelSyncJobStatus = "RUNNING"
	ChannelSyncJobStatusSuccess ChannelSyncJobStatus = "SUCCESS"
	ChannelSyncJobStatusPartial ChannelSyncJobStatus = "PARTIAL"
	ChannelSyncJobStatusFailed  ChannelSyncJobStatus = "FAILED"
	// ChannelSyncJobStatusSkipped marks a job that found its channel locked by another run
	ChannelSyncJobStatusSkipped ChannelSyncJobStatus = "SKIPPED"
)

// ChannelSyncJob represents one queued sync operation on one channel
type ChannelSyncJob struct {
	ID          uuid.UUID
	ChannelID   uuid.UUID
	Operation   integration.Operation
	Status      ChannelSyncJobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time

	ProcessedCount int
	FailedCount    int
	FailedItems    []string
}

// NewChannelSyncJob creates a new pending job
func NewChannelSyncJob(channelID uuid.UUID, op integration.Operation, maxRetries int) *ChannelSyncJob {
	return &ChannelSyncJob{
		ID:         uuid.New(),
		ChannelID:  channelID,
		Operation:  op,
		Status:     ChannelSyncJobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *ChannelSyncJob) Start() {
	now := time.Now()
	j.Status = ChannelSyncJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete records the outcome of the operation
func (j *ChannelSyncJob) Complete(result *integration.SyncResult) {
	now := time.Now()
	j.CompletedAt = &now
	j.Status = ChannelSyncJobStatusSuccess
	if result == nil {
		return
	}

	j.ProcessedCount = result.ProcessedCount()
	j.FailedCount = len(result.FailedItems)
	j.FailedItems = make([]string, 0, len(result.FailedItems))
	for _, f := range result.FailedItems {
		j.FailedItems = append(j.FailedItems, f.ItemID)
	}
	if result.Status() == integration.SyncStatusPartial {
		j.Status = ChannelSyncJobStatusPartial
	}
}

// Fail marks the job as failed
func (j *ChannelSyncJob) Fail(err string) {
	now := time.Now()
	j.Status = ChannelSyncJobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// Skip marks the job as skipped
func (j *ChannelSyncJob) Skip(reason string) {
	now := time.Now()
	j.Status = ChannelSyncJobStatusSkipped
	j.CompletedAt = &now
	j.Error = reason
}

// ShouldRetry returns true if the job should be retried
func (j *ChannelSyncJob) ShouldRetry() bool {
	return j.Status == ChannelSyncJobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry with exponential backoff
func (j *ChannelSyncJob) ScheduleRetry(baseDelay time.Duration) {
	j.RetryCount++
	j.Status = ChannelSyncJobStatusPending
	// Exponential backoff: baseDelay * 2^(retryCount-1)
	delay := baseDelay * time.Duration(1<<(j.RetryCount-1))
	if delay > 30*time.Minute {
		delay = 30 * time.Minute
	}
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// ---------------------------------------------------------------------------
// ChannelSyncExecutor Interface
// ---------------------------------------------------------------------------

// ChannelSyncExecutor executes channel sync jobs
type ChannelSyncExecutor interface {
	// Execute runs the job's operation and records its outcome on the job
	Execute(ctx context.Context, job *ChannelSyncJob) error
}

// ---------------------------------------------------------------------------
// ChannelSyncSchedulerConfig
// ---------------------------------------------------------------------------

// ChannelSyncSchedulerConfig holds configuration for the channel sync scheduler
type ChannelSyncSchedulerConfig struct {
	// MaxConcurrentJobs is the number of workers draining the queue
	MaxConcurrentJobs int
	// QueueSize is the capacity of the pending job queue
	QueueSize int
	// JobTimeout is the maximum time a job can run
	JobTimeout time.Duration
	// RetryAttempts is the number of retry attempts for failed jobs
	RetryAttempts int
	// RetryDelay is the base delay between retries (with exponential backoff)
	RetryDelay time.Duration
	// MaxHistory bounds the in-memory job history
	MaxHistory int
}

// DefaultChannelSyncSchedulerConfig returns default configuration.
// Failed jobs are not retried: the next trigger picks the work up again.
func DefaultChannelSyncSchedulerConfig() ChannelSyncSchedulerConfig {
	return ChannelSyncSchedulerConfig{
		MaxConcurrentJobs: 1,
		QueueSize:         100,
		JobTimeout:        30 * time.Minute,
		RetryAttempts:     0,
		RetryDelay:        time.Minute,
		MaxHistory:        100,
	}
}

// Validate validates the configuration
func (c *ChannelSyncSchedulerConfig) Validate() error {
	if c.MaxConcurrentJobs <= 0 {
		return ErrInvalidConfig
	}
	if c.QueueSize <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts < 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts > 0 && c.RetryDelay <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// ChannelSyncScheduler
// ---------------------------------------------------------------------------

// ChannelSyncScheduler runs queued channel sync jobs on a worker pool
type ChannelSyncScheduler struct {
	config   ChannelSyncSchedulerConfig
	executor ChannelSyncExecutor
	logger   *zap.Logger

	jobs      chan *ChannelSyncJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	stopped   bool
	retries   map[*ChannelSyncJob]*time.Timer

	historyMu  sync.RWMutex
	history    []*ChannelSyncJob
	maxHistory int
}

// NewChannelSyncScheduler creates a new channel sync scheduler
func NewChannelSyncScheduler(config ChannelSyncSchedulerConfig, executor ChannelSyncExecutor, logger *zap.Logger) (*ChannelSyncScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	maxHistory := config.MaxHistory
	if maxHistory <= 0 {
		maxHistory = 100
	}

	return &ChannelSyncScheduler{
		config:     config,
		executor:   executor,
		logger:     logger,
		jobs:       make(chan *ChannelSyncJob, config.QueueSize),
		retries:    make(map[*ChannelSyncJob]*time.Timer),
		history:    make([]*ChannelSyncJob, 0, maxHistory),
		maxHistory: maxHistory,
	}, nil
}

// Start starts the worker pool
func (s *ChannelSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if s.stopped {
		s.jobs = make(chan *ChannelSyncJob, s.config.QueueSize)
		s.stopped = false
	}
	s.isRunning = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	jobs := s.jobs
	s.mu.Unlock()

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, jobs, i)
	}

	s.logger.Info("Channel sync scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
		zap.Int("retry_attempts", s.config.RetryAttempts),
	)

	return nil
}

// Stop gracefully stops the scheduler. Jobs still queued are dropped.
func (s *ChannelSyncScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.stopped = true
	for job, timer := range s.retries {
		timer.Stop()
		delete(s.retries, job)
	}
	close(s.jobs)
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Channel sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Channel sync scheduler stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the scheduler accepts jobs
func (s *ChannelSyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// SubmitJob queues a job for execution
func (s *ChannelSyncScheduler) SubmitJob(job *ChannelSyncJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	select {
	case s.jobs <- job:
		s.logger.Debug("Channel sync job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("channel_id", job.ChannelID.String()),
			zap.String("operation", job.Operation.String()),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// ScheduleSync queues an operation for a channel
func (s *ChannelSyncScheduler) ScheduleSync(channelID uuid.UUID, op integration.Operation) (*ChannelSyncJob, error) {
	job := NewChannelSyncJob(channelID, op, s.config.RetryAttempts)
	if err := s.SubmitJob(job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *ChannelSyncScheduler) worker(ctx context.Context, jobs <-chan *ChannelSyncJob, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// requeueAt puts a job back on the queue once its NextRetryAt has passed.
// Pending retries are dropped by Stop.
func (s *ChannelSyncScheduler) requeueAt(job *ChannelSyncJob) {
	var delay time.Duration
	if job.NextRetryAt != nil {
		delay = time.Until(*job.NextRetryAt)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	if delay <= 0 {
		s.enqueueLocked(job)
		return
	}
	s.retries[job] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, pending := s.retries[job]; !pending {
			return
		}
		delete(s.retries, job)
		if s.isRunning {
			s.enqueueLocked(job)
		}
	})
}

func (s *ChannelSyncScheduler) enqueueLocked(job *ChannelSyncJob) {
	select {
	case s.jobs <- job:
	default:
		s.logger.Warn("Failed to re-queue channel sync job for retry",
			zap.String("job_id", job.ID.String()),
		)
	}
}

// pendingRetries returns the number of jobs waiting for their retry time
func (s *ChannelSyncScheduler) pendingRetries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.retries)
}

func (s *ChannelSyncScheduler) processJob(ctx context.Context, job *ChannelSyncJob, workerID int) {
	if job.NextRetryAt != nil && time.Now().Before(*job.NextRetryAt) {
		s.requeueAt(job)
		return
	}

	job.Start()
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("channel_id", job.ChannelID.String()),
		zap.String("operation", job.Operation.String()),
	)
	log.Info("Processing channel sync job")

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.executor.Execute(jobCtx, job)
	switch {
	case errors.Is(err, integration.ErrChannelBusy):
		job.Skip(err.Error())
		log.Info("Channel sync job skipped, channel busy")
	case err != nil:
		job.Fail(err.Error())
		log.Error("Channel sync job failed", zap.Error(err))

		if job.ShouldRetry() {
			job.ScheduleRetry(s.config.RetryDelay)
			log.Info("Channel sync job scheduled for retry",
				zap.Int("retry_count", job.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
				zap.Time("next_retry_at", *job.NextRetryAt),
			)
			s.requeueAt(job)
		}
	default:
		log.Info("Channel sync job completed",
			zap.String("status", string(job.Status)),
			zap.Int("processed_count", job.ProcessedCount),
			zap.Int("failed_count", job.FailedCount),
		)
	}

	s.addToHistory(job)
}

func (s *ChannelSyncScheduler) addToHistory(job *ChannelSyncJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*ChannelSyncJob{job}, s.history...)
	if len(s.history) > s.maxHistory {
		s.history = s.history[:s.maxHistory]
	}
}

// GetJobHistory returns recent jobs, newest first
func (s *ChannelSyncScheduler) GetJobHistory(limit int) []*ChannelSyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}

	result := make([]*ChannelSyncJob, limit)
	copy(result, s.history[:limit])
	return result
}

// GetJobHistoryByChannel returns recent jobs of one channel, newest first
func (s *ChannelSyncScheduler) GetJobHistoryByChannel(channelID uuid.UUID, limit int) []*ChannelSyncJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	result := make([]*ChannelSyncJob, 0)
	for _, job := range s.history {
		if job.ChannelID == channelID {
			result = append(result, job)
			if limit > 0 && len(result) >= limit {
				break
			}
		}
	}
	return result
}
