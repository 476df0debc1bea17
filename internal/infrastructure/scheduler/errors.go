package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned by SubmitJob before Start or after Stop
	ErrSchedulerNotRunning = errors.New("scheduler: not running")

	// ErrJobQueueFull is returned when no queue slot is free for a sync job
	ErrJobQueueFull = errors.New("scheduler: job queue is full")

	// ErrInvalidConfig is returned for a scheduler configuration that cannot run jobs
	ErrInvalidConfig = errors.New("scheduler: invalid config")

	// ErrNoMagentoChannels is returned when a trigger finds no channel to schedule
	ErrNoMagentoChannels = errors.New("scheduler: no magento channels to synchronize")
)
