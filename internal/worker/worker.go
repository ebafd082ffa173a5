package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/livepoll/backend/internal/models"
	"github.com/livepoll/backend/internal/polls"
	"github.com/livepoll/backend/pkg/queue"
)

// PollGetter loads a poll by id. *polls.Repository implements it.
type PollGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Poll, error)
}

// ExportUploader stores an export document. *storage.S3 implements it.
type ExportUploader interface {
	UploadExport(ctx context.Context, pollID uuid.UUID, body []byte) (key string, err error)
}

// JobQueue is the queue side the worker consumes. *queue.Queue implements it.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
	DeadLetter(ctx context.Context, job *queue.Job) error
}

// ErrUnrecoverable marks job failures that no retry can fix. Such jobs go straight to the DLQ.
var ErrUnrecoverable = errors.New("unrecoverable job")

// requeueTimeout bounds a retry or DLQ push made after the run context is cancelled.
const requeueTimeout = 5 * time.Second

// ExportDocument is the JSON written for a poll export.
type ExportDocument struct {
	Poll       *models.Poll `json:"poll"`
	ExportedAt time.Time    `json:"exportedAt"`
}

// ExportProcessor processes poll export jobs: load the poll, snapshot it, upload to S3.
type ExportProcessor struct {
	polls    PollGetter
	uploader ExportUploader
	queue    JobQueue
	backoff  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewExportProcessor creates a poll export processor.
func NewExportProcessor(pollsRepo PollGetter, uploader ExportUploader, q JobQueue, logger *zap.Logger) *ExportProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportProcessor{
		polls:    pollsRepo,
		uploader: uploader,
		queue:    q,
		backoff:  queue.RetryBackoff,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

// Process executes one export job.
func (p *ExportProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypePollExport {
		return fmt.Errorf("%w: unknown job type: %s", ErrUnrecoverable, job.Type)
	}
	var payload queue.PollExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("%w: unmarshal payload: %v", ErrUnrecoverable, err)
	}

	poll, err := p.polls.GetByID(ctx, payload.PollID)
	if errors.Is(err, polls.ErrNotFound) {
		return fmt.Errorf("%w: poll not found: %s", ErrUnrecoverable, payload.PollID)
	}
	if err != nil {
		return fmt.Errorf("load poll: %w", err)
	}

	body, err := json.Marshal(ExportDocument{Poll: poll, ExportedAt: p.now()})
	if err != nil {
		return fmt.Errorf("marshal export: %w", err)
	}
	key, err := p.uploader.UploadExport(ctx, poll.ID, body)
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	p.logger.Info("poll export completed",
		zap.String("poll_id", poll.ID.String()),
		zap.String("s3_key", key),
		zap.Int("total_votes", poll.TotalVotes),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is done.
func (p *ExportProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("export worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			p.requeue(ctx, job, err)
		}
	}
}

// requeue retries or dead-letters a failed job. It outlives ctx so a job
// popped just before shutdown is not lost.
func (p *ExportProcessor) requeue(ctx context.Context, job *queue.Job, cause error) {
	qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), requeueTimeout)
	defer cancel()

	if errors.Is(cause, ErrUnrecoverable) {
		if err := p.queue.DeadLetter(qctx, job); err != nil {
			p.logger.Error("dlq push failed", zap.String("job_id", job.ID), zap.Error(err))
		}
		return
	}
	if err := p.queue.Retry(qctx, job); err != nil {
		p.logger.Error("retry enqueue failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	p.sleep(ctx)
}

func (p *ExportProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
