// Package notify dispatches notification emails without blocking the request
// that triggered them. Inline sends from a goroutine; Queue hands the message
// to an asynq worker (see sitectl worker).
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/mailer"
	"github.com/dalemusser/stratasite/internal/app/system/metrics"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Email kinds, used as the metrics label.
const (
	KindContact             = "contact"
	KindContactConfirmation = "contact_confirmation"
	KindResume              = "resume"
	KindNewsletter          = "newsletter"
)

// TypeEmailSend is the asynq task type for queued mail.
const TypeEmailSend = "email:send"

// MaxRetry bounds redelivery of a queued email.
const MaxRetry = 5

// DefaultTimeout bounds one inline send.
const DefaultTimeout = 30 * time.Second

// Message is one email to deliver.
type Message struct {
	Kind     string `json:"kind"`
	To       string `json:"to"`
	ReplyTo  string `json:"reply_to,omitempty"`
	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
	HTMLBody string `json:"html_body"`
}

func (m Message) email() mailer.Email {
	return mailer.Email{To: m.To, ReplyTo: m.ReplyTo, Subject: m.Subject, TextBody: m.TextBody, HTMLBody: m.HTMLBody}
}

// Sender delivers one email. *mailer.Mailer satisfies it.
type Sender interface {
	Send(email mailer.Email) error
}

// Notifier dispatches messages. Notify never blocks on delivery and never
// reports delivery failures to the caller.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

// Inline sends each message from its own goroutine.
type Inline struct {
	sender  Sender
	logger  *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewInline creates an Inline notifier. A zero timeout uses DefaultTimeout.
func NewInline(sender Sender, logger *zap.Logger, timeout time.Duration) *Inline {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Inline{sender: sender, logger: logger, timeout: timeout}
}

// Notify starts delivery and returns immediately.
func (n *Inline) Notify(_ context.Context, msg Message) {
	if msg.To == "" {
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		err := n.send(msg)
		metrics.Notify(msg.Kind, err)
		if err != nil {
			n.logger.Warn("notification email failed",
				zap.String("kind", msg.Kind),
				zap.String("to", msg.To),
				zap.Error(err))
		}
	}()
}

// send gives up waiting after the timeout. The SMTP client has no context, so
// a hung relay leaves its goroutine behind until the connection drops.
func (n *Inline) send(msg Message) error {
	done := make(chan error, 1)
	go func() { done <- n.sender.Send(msg.email()) }()

	t := time.NewTimer(n.timeout)
	defer t.Stop()
	select {
	case err := <-done:
		return err
	case <-t.C:
		return fmt.Errorf("send %s email: timed out after %s", msg.Kind, n.timeout)
	}
}

// Wait blocks until every started send has finished or ctx is done.
func (n *Inline) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueuer is the part of *asynq.Client Queue needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Queue enqueues messages for the worker.
type Queue struct {
	client Enqueuer
	logger *zap.Logger
}

// NewQueue creates a Queue notifier.
func NewQueue(client Enqueuer, logger *zap.Logger) *Queue {
	return &Queue{client: client, logger: logger}
}

// NewEmailTask builds the task for msg.
func NewEmailTask(msg Message) (*asynq.Task, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal email payload: %w", err)
	}
	return asynq.NewTask(TypeEmailSend, payload, asynq.MaxRetry(MaxRetry), asynq.Timeout(DefaultTimeout)), nil
}

// Notify enqueues msg. Enqueue failures are logged.
func (q *Queue) Notify(ctx context.Context, msg Message) {
	if msg.To == "" {
		return
	}
	task, err := NewEmailTask(msg)
	if err == nil {
		// the request may finish before Redis answers
		_, err = q.client.EnqueueContext(context.WithoutCancel(ctx), task)
	}
	if err != nil {
		metrics.Notify(msg.Kind, err)
		q.logger.Error("enqueue notification email failed",
			zap.String("kind", msg.Kind),
			zap.String("to", msg.To),
			zap.Error(err))
	}
}

// Handler returns the asynq handler that delivers queued mail.
func Handler(sender Sender, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var msg Message
		if err := json.Unmarshal(task.Payload(), &msg); err != nil {
			return fmt.Errorf("decode email payload: %v: %w", err, asynq.SkipRetry)
		}
		err := sender.Send(msg.email())
		metrics.Notify(msg.Kind, err)
		if err != nil {
			logger.Warn("queued email failed",
				zap.String("kind", msg.Kind),
				zap.String("to", msg.To),
				zap.Error(err))
			return fmt.Errorf("send %s email: %w", msg.Kind, err)
		}
		return nil
	}
}

// Discard drops every message. Used when no SMTP host is configured.
type Discard struct {
	Logger *zap.Logger
}

// Notify logs and drops msg.
func (d Discard) Notify(_ context.Context, msg Message) {
	if d.Logger != nil {
		d.Logger.Debug("email disabled, notification dropped",
			zap.String("kind", msg.Kind),
			zap.String("to", msg.To))
	}
}
