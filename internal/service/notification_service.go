package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/letsdance/academy-api/internal/models"
	"github.com/letsdance/academy-api/pkg/config"
	"github.com/letsdance/academy-api/pkg/jobs"
	"github.com/letsdance/academy-api/pkg/mailer"
)

const jobTypeEnrollmentStatus = "enrollment_status"

type emailSender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

// NotificationService delivers status-change emails through a background
// worker pool. Dispatch never blocks and delivery is at-most-once: a failed
// send is logged and counted, never retried, and never reported to the
// operation that triggered it.
type NotificationService struct {
	queue   *jobs.Queue
	sender  emailSender
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the service and its queue. Call Start
// before dispatching.
func NewNotificationService(sender emailSender, metrics *MetricsService, logger *zap.Logger, cfg config.NotificationsConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{sender: sender, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue(jobTypeEnrollmentStatus, s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		Logger:     logger,
	})
	return s
}

// Start launches the worker pool.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// DispatchStatusChange queues a status email. A full buffer drops the
// notification rather than stalling the decision that produced it.
func (s *NotificationService) DispatchStatusChange(n models.StatusNotification) {
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    jobTypeEnrollmentStatus,
		Payload: n,
	}
	if !s.queue.TryEnqueue(job) {
		s.metrics.RecordNotification("dropped")
		s.logger.Warn("status notification dropped",
			zap.String("email", n.ToEmail),
			zap.String("status", string(n.Status)))
	}
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.StatusNotification)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}

	msg := mailer.EnrollmentStatusEmail(n.ToEmail, n.UserName, string(n.Status), n.CourseTitle, string(n.CourseKind))
	if err := s.sender.Send(ctx, msg); err != nil {
		s.metrics.RecordNotification("failed")
		s.logger.Error("failed to send status email",
			zap.String("email", n.ToEmail),
			zap.String("status", string(n.Status)),
			zap.Error(err))
		// Swallowed: the queue runs with zero retries and the decision
		// that triggered this email is already committed.
		return nil
	}
	s.metrics.RecordNotification("sent")
	return nil
}
