package scheduler

import "errors"

// Scheduler errors
var (
	// ErrInvalidConfig indicates the scheduler configuration is invalid
	ErrInvalidConfig = errors.New("scheduler: invalid configuration")

	// ErrSchedulerNotRunning indicates the scheduler is not running
	ErrSchedulerNotRunning = errors.New("scheduler: not running")

	// ErrJobQueueFull indicates the job queue is full
	ErrJobQueueFull = errors.New("scheduler: job queue is full")
)
