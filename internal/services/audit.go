package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"permanence-system/internal/authz"
	"permanence-system/internal/entities"
	"permanence-system/internal/repositories"
	"permanence-system/pkg/types"
	"permanence-system/pkg/utils"
)

// AuditEntry: одно событие для журнала активности.
type AuditEntry struct {
	Actor       *entities.User
	Action      string
	Kind        string
	TargetID    *uint64
	Outcome     entities.AuditOutcome
	Rule        string
	IP          string
	RecordCount *int
	Details     map[string]interface{}
}

type AuditServiceInterface interface {
	Record(ctx context.Context, entry AuditEntry) error
	List(ctx context.Context, filter types.Filter) ([]entities.ActivityLog, uint64, error)
}

type AuditService struct {
	activityLogRepo repositories.ActivityLogRepositoryInterface
	gate            *authz.Gatekeeper
	logger          *zap.Logger
	now             func() time.Time
}

func NewAuditService(activityLogRepo repositories.ActivityLogRepositoryInterface, logger *zap.Logger) AuditServiceInterface {
	return &AuditService{
		activityLogRepo: activityLogRepo,
		gate:            authz.NewGatekeeper(),
		logger:          logger,
		now:             time.Now,
	}
}

// Record пишет запись в activity_log и дублирует её в лог приложения.
func (s *AuditService) Record(ctx context.Context, e AuditEntry) error {
	entry := &entities.ActivityLog{
		ID:          uuid.New(),
		Action:      e.Action,
		TargetKind:  e.Kind,
		TargetID:    e.TargetID,
		Outcome:     e.Outcome,
		RecordCount: e.RecordCount,
		Details:     e.Details,
		CreatedAt:   s.now(),
	}
	if e.Actor != nil {
		id := e.Actor.ID
		entry.ActorID = &id
	}
	if e.Rule != "" {
		entry.Rule = utils.ToPtr(e.Rule)
	}
	if e.IP != "" {
		entry.IP = utils.ToPtr(e.IP)
	}

	fields := []zap.Field{
		zap.String("action", e.Action),
		zap.String("kind", e.Kind),
		zap.String("outcome", string(e.Outcome)),
		zap.String("rule", e.Rule),
		zap.String("ip", e.IP),
	}
	if requestID := utils.GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if entry.ActorID != nil {
		fields = append(fields, zap.Uint64("actorID", *entry.ActorID))
	}
	if e.TargetID != nil {
		fields = append(fields, zap.Uint64("targetID", *e.TargetID))
	}
	if e.RecordCount != nil {
		fields = append(fields, zap.Int("count", *e.RecordCount))
	}
	switch e.Outcome {
	case entities.OutcomeDenied:
		s.logger.Warn("AuditService: отказ", fields...)
	case entities.OutcomeFailed:
		s.logger.Error("AuditService: сбой", fields...)
	default:
		s.logger.Info("AuditService: действие", fields...)
	}

	if err := s.activityLogRepo.Create(ctx, nil, entry); err != nil {
		return fmt.Errorf("AuditService: %w", err)
	}
	return nil
}

// List: журнал активности, только для admin.
func (s *AuditService) List(ctx context.Context, filter types.Filter) ([]entities.ActivityLog, uint64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if err := s.gate.Check(authz.ActionViewAny, authz.KindAuditLog, authz.Context{Actor: actor}); err != nil {
		return nil, 0, err
	}
	return s.activityLogRepo.List(ctx, filter)
}
