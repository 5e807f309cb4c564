package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	applisting "github.com/flipledger/backend/internal/application/listing"
)

// ---------------------------------------------------------------------------
// Reconcile Job Types
// ---------------------------------------------------------------------------

// ReconcileJobStatus represents the status of a reconciliation job
type ReconcileJobStatus string

const (
	ReconcileJobStatusPending ReconcileJobStatus = "PENDING"
	ReconcileJobStatusRunning ReconcileJobStatus = "RUNNING"
	ReconcileJobStatusSuccess ReconcileJobStatus = "SUCCESS"
	ReconcileJobStatusPartial ReconcileJobStatus = "PARTIAL"
	ReconcileJobStatusFailed  ReconcileJobStatus = "FAILED"
)

// ReconcileJob represents one scheduled reconciliation pass
type ReconcileJob struct {
	ID          uuid.UUID
	Trigger     string // "interval" or "manual"
	Status      ReconcileJobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
	NextRetryAt *time.Time

	// Pass results
	Report *applisting.ReconcileReport
}

// NewReconcileJob creates a new reconciliation job
func NewReconcileJob(trigger string, maxRetries int) *ReconcileJob {
	return &ReconcileJob{
		ID:         uuid.New(),
		Trigger:    trigger,
		Status:     ReconcileJobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *ReconcileJob) Start() {
	now := time.Now()
	j.Status = ReconcileJobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete records the pass report and final status
func (j *ReconcileJob) Complete(report *applisting.ReconcileReport) {
	now := time.Now()
	j.Report = report
	j.CompletedAt = &now
	if len(report.Failures) == 0 {
		j.Status = ReconcileJobStatusSuccess
	} else {
		j.Status = ReconcileJobStatusPartial
	}
}

// Fail marks the job as failed
func (j *ReconcileJob) Fail(err string) {
	now := time.Now()
	j.Status = ReconcileJobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job should be retried
func (j *ReconcileJob) ShouldRetry() bool {
	return j.Status == ReconcileJobStatusFailed && j.RetryCount < j.MaxRetries
}

// ScheduleRetry schedules the job for retry with exponential backoff
func (j *ReconcileJob) ScheduleRetry(baseDelay time.Duration) {
	j.RetryCount++
	j.Status = ReconcileJobStatusPending
	delay := baseDelay * time.Duration(1<<(j.RetryCount-1))
	if delay > 30*time.Minute {
		delay = 30 * time.Minute
	}
	nextRetry := time.Now().Add(delay)
	j.NextRetryAt = &nextRetry
	j.Error = ""
}

// ---------------------------------------------------------------------------
// ReconcileExecutor Interface
// ---------------------------------------------------------------------------

// ReconcileExecutor runs one reconciliation pass
type ReconcileExecutor interface {
	Reconcile(ctx context.Context) (*applisting.ReconcileReport, error)
}

// ---------------------------------------------------------------------------
// ReconcileSchedulerConfig
// ---------------------------------------------------------------------------

// ReconcileSchedulerConfig holds configuration for the reconcile scheduler
type ReconcileSchedulerConfig struct {
	// Enabled indicates if the periodic trigger is enabled
	Enabled bool
	// Interval is the time between automatic passes
	Interval time.Duration
	// JobTimeout is the maximum time a pass can run
	JobTimeout time.Duration
	// RetryAttempts is the number of retry attempts for failed passes
	RetryAttempts int
	// RetryDelay is the base delay between retries (with exponential backoff)
	RetryDelay time.Duration
	// HistoryLimit bounds the in-memory job history
	HistoryLimit int
}

// DefaultReconcileSchedulerConfig returns default configuration
func DefaultReconcileSchedulerConfig() ReconcileSchedulerConfig {
	return ReconcileSchedulerConfig{
		Enabled:       true,
		Interval:      15 * time.Minute,
		JobTimeout:    10 * time.Minute,
		RetryAttempts: 3,
		RetryDelay:    30 * time.Second,
		HistoryLimit:  50,
	}
}

// Validate validates the configuration
func (c *ReconcileSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return ErrInvalidConfig
	}
	if c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	if c.RetryAttempts < 0 {
		return ErrInvalidConfig
	}
	if c.HistoryLimit <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// ---------------------------------------------------------------------------
// ReconcileScheduler
// ---------------------------------------------------------------------------

// ReconcileScheduler triggers reconciliation passes on an interval and on
// demand. Exactly one worker drains the queue: concurrent passes over the
// same seller account could both withdraw the same counterpart, so runs
// are serialized by construction.
type ReconcileScheduler struct {
	config   ReconcileSchedulerConfig
	executor ReconcileExecutor
	logger   *zap.Logger

	jobs      chan *ReconcileJob
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	historyMu sync.RWMutex
	history   []*ReconcileJob
}

// NewReconcileScheduler creates a new reconcile scheduler
func NewReconcileScheduler(config ReconcileSchedulerConfig, executor ReconcileExecutor, logger *zap.Logger) (*ReconcileScheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &ReconcileScheduler{
		config:   config,
		executor: executor,
		logger:   logger,
		jobs:     make(chan *ReconcileJob, 16),
		history:  make([]*ReconcileJob, 0, config.HistoryLimit),
	}, nil
}

// Start starts the worker and, if enabled, the interval trigger
func (s *ReconcileScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.worker(ctx)

	if s.config.Enabled {
		s.wg.Add(1)
		go s.intervalTrigger(ctx)
	}

	s.logger.Info("Reconcile scheduler started",
		zap.Bool("interval_enabled", s.config.Enabled),
		zap.Duration("interval", s.config.Interval),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *ReconcileScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	// The jobs channel is never closed: a late Submit or retry timer
	// racing Stop must hit the isRunning check, not a closed channel.
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reconcile scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reconcile scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues a reconciliation pass
func (s *ReconcileScheduler) Submit(job *ReconcileJob) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	select {
	case s.jobs <- job:
		s.logger.Debug("Reconcile job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("trigger", job.Trigger),
		)
		return nil
	default:
		return ErrJobQueueFull
	}
}

// TriggerNow queues an on-demand pass and returns its job ID
func (s *ReconcileScheduler) TriggerNow() (uuid.UUID, error) {
	job := NewReconcileJob("manual", s.config.RetryAttempts)
	if err := s.Submit(job); err != nil {
		return uuid.Nil, err
	}
	return job.ID, nil
}

// intervalTrigger queues a pass every Interval
func (s *ReconcileScheduler) intervalTrigger(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job := NewReconcileJob("interval", s.config.RetryAttempts)
			if err := s.Submit(job); err != nil {
				s.logger.Warn("Failed to queue interval reconcile job", zap.Error(err))
			}
		}
	}
}

// worker drains the queue serially
func (s *ReconcileScheduler) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.jobs:
			s.processJob(ctx, job)
		}
	}
}

// processJob executes a single pass
func (s *ReconcileScheduler) processJob(ctx context.Context, job *ReconcileJob) {
	job.Start()
	s.logger.Info("Processing reconcile job",
		zap.String("job_id", job.ID.String()),
		zap.String("trigger", job.Trigger),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	report, err := s.executor.Reconcile(jobCtx)
	if err != nil {
		job.Fail(err.Error())
		s.logger.Error("Reconcile job failed",
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)

		if job.ShouldRetry() {
			job.ScheduleRetry(s.config.RetryDelay)
			s.logger.Info("Reconcile job scheduled for retry",
				zap.String("job_id", job.ID.String()),
				zap.Int("retry_count", job.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
			)
			// Re-queue when the backoff elapses instead of spinning the
			// worker on a not-yet-due job. Submit rejects the retry if
			// the scheduler stopped in the meantime.
			time.AfterFunc(time.Until(*job.NextRetryAt), func() {
				if err := s.Submit(job); err != nil {
					s.logger.Warn("Failed to re-queue reconcile job for retry",
						zap.String("job_id", job.ID.String()),
						zap.Error(err),
					)
				}
			})
		}
		s.addToHistory(job)
		return
	}

	job.Complete(report)
	s.logger.Info("Reconcile job completed",
		zap.String("job_id", job.ID.String()),
		zap.String("status", string(job.Status)),
		zap.Int("withdrawn_from_destination", report.WithdrawnFromDestination),
		zap.Int("withdrawn_from_source", report.WithdrawnFromSource),
		zap.Int("marked_sold", report.MarkedSold),
		zap.Int("healed_mappings", report.HealedMappings),
	)
	s.addToHistory(job)
}

// addToHistory adds a completed job to the bounded history
func (s *ReconcileScheduler) addToHistory(job *ReconcileJob) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*ReconcileJob{job}, s.history...)
	if len(s.history) > s.config.HistoryLimit {
		s.history = s.history[:s.config.HistoryLimit]
	}
}

// History returns recent jobs, most recent first
func (s *ReconcileScheduler) History(limit int) []*ReconcileJob {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]*ReconcileJob, limit)
	copy(result, s.history[:limit])
	return result
}
