package audit

import (
	"context"

	"car-listing/internal/shared/eventbus"
	"car-listing/internal/shared/logger"
)

// accountEvents are the auth events recorded in the audit log.
var accountEvents = []string{
	eventbus.EventTypeUserRegistered,
	eventbus.EventTypeUserAuthenticated,
}

// AuditLog writes one structured log line per account event.
type AuditLog struct {
	log logger.Logger
}

// NewAuditLog creates an AuditLog writing to log
func NewAuditLog(log logger.Logger) *AuditLog {
	if log == nil {
		log = logger.Default()
	}
	return &AuditLog{log: log.WithComponent("auth_audit")}
}

// Handle logs event. The event data is the user id.
func (a *AuditLog) Handle(ctx context.Context, event eventbus.Event) error {
	userID, _ := event.Data().(string)
	a.log.WithContext(ctx).WithFields(map[string]interface{}{
		"event":   event.Type(),
		"user_id": userID,
		"source":  event.Source(),
		"at":      event.Timestamp(),
	}).Info("account event")
	return nil
}

// Subscribe attaches the log to every account event on bus and returns a
// function that detaches it again.
func (a *AuditLog) Subscribe(bus eventbus.EventBusInterface) eventbus.Unsubscribe {
	unsubscribes := make([]eventbus.Unsubscribe, 0, len(accountEvents))
	for _, eventType := range accountEvents {
		unsubscribes = append(unsubscribes, bus.Subscribe(eventType, a.Handle))
	}
	return func() {
		for _, unsubscribe := range unsubscribes {
			unsubscribe()
		}
	}
}
