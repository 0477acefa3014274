package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/docflow/modules/approval/domain/request"
	"github.com/iota-uz/docflow/pkg/eventbus"
)

// NotificationHandler turns workflow events into notification intents.
// Delivery (email, push) is out of scope; the handler records who would be
// notified and why, which is enough for an external dispatcher to pick up.
type NotificationHandler struct {
	log *logrus.Logger
}

func RegisterNotificationHandler(bus eventbus.EventBus, log *logrus.Logger) *NotificationHandler {
	h := &NotificationHandler{log: log}
	bus.Subscribe(h.onSubmitted)
	bus.Subscribe(h.onStageAdvanced)
	bus.Subscribe(h.onApproved)
	bus.Subscribe(h.onRejected)
	bus.Subscribe(h.onCancelled)
	return h
}

func (h *NotificationHandler) onSubmitted(event request.SubmittedEvent) {
	h.log.WithFields(logrus.Fields{
		"request_id": event.Request.ID,
		"recipient":  event.FirstStage.AssigneeID,
		"reason":     "request_submitted",
	}).Info("notification intent")
}

func (h *NotificationHandler) onStageAdvanced(event request.StageAdvancedEvent) {
	h.log.WithFields(logrus.Fields{
		"request_id": event.Request.ID,
		"recipient":  event.NextStage.AssigneeID,
		"reason":     "stage_awaiting_action",
	}).Info("notification intent")
}

func (h *NotificationHandler) onApproved(event request.ApprovedEvent) {
	h.log.WithFields(logrus.Fields{
		"request_id": event.Request.ID,
		"recipient":  event.Request.CreatorID,
		"reason":     "request_approved",
	}).Info("notification intent")
}

func (h *NotificationHandler) onRejected(event request.RejectedEvent) {
	h.log.WithFields(logrus.Fields{
		"request_id": event.Request.ID,
		"recipient":  event.Request.CreatorID,
		"reason":     "request_rejected",
	}).Info("notification intent")
}

func (h *NotificationHandler) onCancelled(event request.CancelledEvent) {
	for _, participant := range event.Participants {
		h.log.WithFields(logrus.Fields{
			"request_id": event.Request.ID,
			"recipient":  participant,
			"reason":     "request_cancelled",
		}).Info("notification intent")
	}
}
