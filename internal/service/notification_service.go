package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/cleaning-dispatch/internal/api/dto"
	"github.com/spec-kit/cleaning-dispatch/internal/domain"
	"github.com/spec-kit/cleaning-dispatch/internal/events"
	"github.com/spec-kit/cleaning-dispatch/internal/notify"
	"github.com/spec-kit/cleaning-dispatch/internal/observability"
	"github.com/spec-kit/cleaning-dispatch/internal/worker"
)

const (
	recipientClient  = "client"
	recipientStaff   = "staff"
	recipientWebhook = "webhook"
)

// JobQueue accepts background notification jobs.
type JobQueue interface {
	Enqueue(job worker.Job) error
}

// NotificationService delivers assignment messages when domain events fire.
// Delivery failures are logged and counted; they never reach the caller that
// triggered the event.
type NotificationService struct {
	dispatcher events.Dispatcher
	sender     notify.Sender
	queue      JobQueue
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewNotificationService creates the service. With a nil queue messages are sent inline.
func NewNotificationService(dispatcher events.Dispatcher, sender notify.Sender, queue JobQueue, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		sender:     sender,
		queue:      queue,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAssignmentCreated, n.handleAssignmentCreated)
	n.dispatcher.Subscribe(events.EventAssignmentReleased, n.handleAssignmentReleased)
	n.dispatcher.Subscribe(events.EventRequestCreated, n.handleMirrorOnly)
	n.dispatcher.Subscribe(events.EventRequestStatusChanged, n.handleMirrorOnly)
}

// SendAssignmentNotifications sends exactly one message to the client and one to the
// staff member.
func (n *NotificationService) SendAssignmentNotifications(ctx context.Context, a *domain.Assignment, req *domain.ServiceRequest) error {
	return errors.Join(
		n.deliver(ctx, recipientClient, notify.ClientMessage(a, req)),
		n.deliver(ctx, recipientStaff, notify.StaffMessage(a, req)),
	)
}

// webhookAssignment is the wire shape of an assignment event payload.
type webhookAssignment struct {
	Assignment dto.AssignmentResponse     `json:"assignment"`
	Request    dto.ServiceRequestResponse `json:"request"`
	Reason     string                     `json:"reason,omitempty"`
}

// webhookEvent returns the event envelope with its payload in the API's JSON shape.
func webhookEvent(event events.Event) events.Event {
	if payload, ok := event.Payload.(events.AssignmentPayload); ok {
		event.Payload = webhookAssignment{
			Assignment: dto.NewAssignmentResponse(&payload.Assignment),
			Request:    dto.NewServiceRequestResponse(&payload.Request),
			Reason:     payload.Reason,
		}
	}
	return event
}

func (n *NotificationService) handleAssignmentCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AssignmentPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	n.submit(ctx, worker.Job{
		Name: string(event.Type) + ":" + payload.Assignment.ID,
		Run: func(ctx context.Context) error {
			return errors.Join(
				n.SendAssignmentNotifications(ctx, &payload.Assignment, &payload.Request),
				n.mirror(ctx, event),
			)
		},
	})
	return nil
}

func (n *NotificationService) handleAssignmentReleased(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AssignmentPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	n.submit(ctx, worker.Job{
		Name: string(event.Type) + ":" + payload.Assignment.ID,
		Run: func(ctx context.Context) error {
			return errors.Join(
				n.deliver(ctx, recipientStaff, notify.ReleaseMessage(&payload.Assignment, &payload.Request)),
				n.mirror(ctx, event),
			)
		},
	})
	return nil
}

func (n *NotificationService) handleMirrorOnly(ctx context.Context, event events.Event) error {
	n.logger.Debug("event", zap.String("event_type", string(event.Type)), zap.String("request_id", event.RequestID))
	n.submit(ctx, worker.Job{
		Name: string(event.Type) + ":" + event.RequestID,
		Run: func(ctx context.Context) error {
			return n.mirror(ctx, event)
		},
	})
	return nil
}

func (n *NotificationService) submit(ctx context.Context, job worker.Job) {
	if n.queue == nil {
		if err := job.Run(ctx); err != nil {
			n.logger.Warn("notification job failed", zap.String("job", job.Name), zap.Error(err))
		}
		return
	}
	if err := n.queue.Enqueue(job); err != nil {
		n.metrics.RecordNotification("queue", "dropped")
		n.logger.Error("notification job dropped", zap.String("job", job.Name), zap.Error(err))
	}
}

func (n *NotificationService) deliver(ctx context.Context, recipient string, msg notify.Message) error {
	if n.sender == nil {
		return nil
	}
	if err := n.sender.SendEmail(ctx, msg); err != nil {
		n.metrics.RecordNotification(recipient, "failed")
		n.logger.Warn("notification failed",
			zap.String("recipient", recipient),
			zap.String("to", msg.To),
			zap.Error(err))
		return fmt.Errorf("%s notification: %w", recipient, err)
	}
	n.metrics.RecordNotification(recipient, "sent")
	return nil
}

func (n *NotificationService) mirror(ctx context.Context, event events.Event) error {
	if n.sender == nil {
		return nil
	}
	if err := n.sender.PostWebhook(ctx, webhookEvent(event)); err != nil {
		n.metrics.RecordNotification(recipientWebhook, "failed")
		n.logger.Warn("webhook failed", zap.Error(err))
		return fmt.Errorf("webhook: %w", err)
	}
	return nil
}
