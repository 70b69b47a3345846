package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/domain"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/queue"
	"github.com/arunbharathi-parkkavamani-dev/tracker/internal/store"
	"github.com/google/uuid"
)

// PushSender delivers a push notification to a device or channel.
type PushSender interface {
	SendPush(ctx context.Context, p queue.PushPayload) error
}

// EmailSender delivers an email.
type EmailSender interface {
	SendEmail(ctx context.Context, p queue.EmailPayload) error
}

// Delivery executes push and email jobs against the configured providers.
type Delivery struct {
	push          PushSender
	email         EmailSender
	notifications store.NotificationStore
	logger        *slog.Logger
}

// NewDelivery creates a Delivery.
func NewDelivery(push PushSender, email EmailSender, notifications store.NotificationStore, log *slog.Logger) *Delivery {
	if log == nil {
		log = slog.Default()
	}
	return &Delivery{
		push:          push,
		email:         email,
		notifications: notifications,
		logger:        log.With("component", "delivery"),
	}
}

// Register attaches the delivery handlers and the dead-letter callback.
func (d *Delivery) Register(r *queue.Runner) {
	r.Handle(queue.TypePush, d.HandlePush)
	r.Handle(queue.TypeEmail, d.HandleEmail)
	r.OnDead(d.onDead)
}

// HandlePush sends one push notification and marks its record as sent.
func (d *Delivery) HandlePush(ctx context.Context, job *queue.Job) error {
	p, err := queue.Decode[queue.PushPayload](job)
	if err != nil {
		return err
	}
	if p.RecipientID == uuid.Nil {
		return queue.Permanent(fmt.Errorf("%w: push without recipient", queue.ErrInvalidRequest))
	}
	if err := d.push.SendPush(ctx, p); err != nil {
		return fmt.Errorf("%w: %w", queue.ErrDeliveryFailed, err)
	}
	if p.NotificationID != uuid.Nil {
		if err := d.notifications.SetState(ctx, p.NotificationID, domain.DeliverySent); err != nil {
			// The push went out; a missing record must not trigger a resend.
			d.logger.Warn("failed to mark notification sent",
				"notification_id", p.NotificationID, "error", err)
		}
	}
	return nil
}

// HandleEmail sends one email.
func (d *Delivery) HandleEmail(ctx context.Context, job *queue.Job) error {
	p, err := queue.Decode[queue.EmailPayload](job)
	if err != nil {
		return err
	}
	if p.To == "" {
		return queue.Permanent(fmt.Errorf("%w: email without recipient", queue.ErrInvalidRequest))
	}
	if err := d.email.SendEmail(ctx, p); err != nil {
		return fmt.Errorf("%w: %w", queue.ErrDeliveryFailed, err)
	}
	return nil
}

func (d *Delivery) onDead(ctx context.Context, job *queue.Job, cause error) {
	if job.Type != queue.TypePush {
		return
	}
	p, err := queue.Decode[queue.PushPayload](job)
	if err != nil || p.NotificationID == uuid.Nil {
		return
	}
	if err := d.notifications.SetState(ctx, p.NotificationID, domain.DeliveryDead); err != nil {
		d.logger.Error("failed to mark notification dead",
			"notification_id", p.NotificationID, "job_id", job.ID, "error", err)
		return
	}
	d.logger.Warn("notification dead-lettered",
		"notification_id", p.NotificationID, "job_id", job.ID, "cause", cause)
}
