package listeners

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"permanence-system/internal/authz"
	"permanence-system/internal/entities"
	"permanence-system/internal/events"
	"permanence-system/internal/services"
	"permanence-system/pkg/eventbus"
)

// ActivityListener пишет переходы статусов permanence в журнал активности.
type ActivityListener struct {
	auditService services.AuditServiceInterface
	logger       *zap.Logger
}

func NewActivityListener(auditService services.AuditServiceInterface, logger *zap.Logger) *ActivityListener {
	return &ActivityListener{auditService: auditService, logger: logger}
}

func (l *ActivityListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.PermanenceTransitioned, l.handleTransition)
	l.logger.Info("ActivityListener подписан на событие", zap.String("event", events.PermanenceTransitioned))
}

func (l *ActivityListener) handleTransition(ctx context.Context, e eventbus.Event) error {
	event, ok := e.(events.PermanenceTransitionedEvent)
	if !ok {
		return fmt.Errorf("ActivityListener: неожиданный тип события %T", e)
	}

	id := event.PermanenceID
	err := l.auditService.Record(ctx, services.AuditEntry{
		Actor:    event.Actor,
		Action:   event.Verb,
		Kind:     string(authz.KindPermanence),
		TargetID: &id,
		Outcome:  entities.OutcomeDone,
		IP:       event.IP,
		Details: map[string]interface{}{
			"from": string(event.From),
			"to":   string(event.To),
			"at":   event.At,
		},
	})
	if err != nil {
		return fmt.Errorf("ActivityListener: запись перехода %d: %w", id, err)
	}
	return nil
}
