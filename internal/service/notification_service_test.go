package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/letsdance/academy-api/internal/models"
	"github.com/letsdance/academy-api/pkg/config"
	"github.com/letsdance/academy-api/pkg/mailer"
)

type mockSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
	done chan struct{}
}

func (m *mockSender) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	if m.done != nil {
		close(m.done)
		m.done = nil
	}
	return m.err
}

func (m *mockSender) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

func waitFor(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for send")
	}
}

func TestNotificationServiceDeliversStatusEmail(t *testing.T) {
	done := make(chan struct{})
	sender := &mockSender{done: done}
	svc := NewNotificationService(sender, nil, zap.NewNop(), config.NotificationsConfig{Workers: 1, BufferSize: 4})
	svc.Start(context.Background())
	defer svc.Stop()

	svc.DispatchStatusChange(models.StatusNotification{
		ToEmail:     "asha@example.com",
		UserName:    "Asha Rao",
		Status:      models.EnrollmentStatusActive,
		CourseTitle: "Salsa Foundations",
		CourseKind:  models.CourseKindBatch,
	})

	waitFor(t, done)
	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "asha@example.com", msgs[0].To)
	assert.Contains(t, msgs[0].Subject, "Enrollment Accepted")
	assert.Contains(t, msgs[0].HTMLContent, "Salsa Foundations")
}

func TestNotificationServiceSendFailureIsSwallowed(t *testing.T) {
	done := make(chan struct{})
	sender := &mockSender{done: done, err: errors.New("brevo unavailable")}
	svc := NewNotificationService(sender, nil, zap.NewNop(), config.NotificationsConfig{Workers: 1, BufferSize: 4})
	svc.Start(context.Background())
	defer svc.Stop()

	svc.DispatchStatusChange(models.StatusNotification{
		ToEmail: "asha@example.com",
		Status:  models.EnrollmentStatusRejected,
	})

	waitFor(t, done)
	// Exactly one attempt; the queue never redelivers failed sends.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, sender.messages(), 1)
}

func TestNotificationServiceDropsWhenNotStarted(t *testing.T) {
	sender := &mockSender{}
	svc := NewNotificationService(sender, nil, zap.NewNop(), config.NotificationsConfig{Workers: 1, BufferSize: 1})

	// Not started: dispatch must not block or panic.
	svc.DispatchStatusChange(models.StatusNotification{ToEmail: "asha@example.com"})
	assert.Empty(t, sender.messages())
}
