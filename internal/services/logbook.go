package services

import (
	"context"

	"go.uber.org/zap"

	"permanence-system/internal/authz"
	"permanence-system/internal/dto"
	"permanence-system/internal/entities"
	"permanence-system/internal/repositories"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/types"
)

type LogbookServiceInterface interface {
	List(ctx context.Context, shiftID uint64, filter types.Filter) ([]entities.RelationManageriale, uint64, error)
	Create(ctx context.Context, shiftID uint64, payload dto.LogbookEventDTO) (*entities.RelationManageriale, error)
	Update(ctx context.Context, id uint64, payload dto.LogbookEventDTO) (*entities.RelationManageriale, error)
	Delete(ctx context.Context, id uint64) error
}

type LogbookService struct {
	logbookRepo repositories.LogbookRepositoryInterface
	access      *shiftAccess
	gate        *authz.Gatekeeper
	logger      *zap.Logger
}

func NewLogbookService(
	permanenceRepo repositories.PermanenceRepositoryInterface,
	assignmentRepo repositories.AssignmentRepositoryInterface,
	logbookRepo repositories.LogbookRepositoryInterface,
	logger *zap.Logger,
) LogbookServiceInterface {
	return &LogbookService{
		logbookRepo: logbookRepo,
		access:      newShiftAccess(permanenceRepo, assignmentRepo),
		gate:        authz.NewGatekeeper(),
		logger:      logger,
	}
}

func (s *LogbookService) List(ctx context.Context, shiftID uint64, filter types.Filter) ([]entities.RelationManageriale, uint64, error) {
	c, err := s.access.load(ctx, shiftID)
	if err != nil {
		return nil, 0, err
	}
	return s.logbookRepo.List(ctx, filter, authz.PartitionFor(c.Actor, authz.KindLogbookEvent, &shiftID))
}

func (s *LogbookService) Create(ctx context.Context, shiftID uint64, payload dto.LogbookEventDTO) (*entities.RelationManageriale, error) {
	c, err := s.access.load(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Check(authz.ActionCreate, authz.KindLogbookEvent, c); err != nil {
		s.logger.Warn("LogbookService: создание события запрещено",
			zap.Uint64("shiftID", shiftID), zap.Uint64("actorID", c.Actor.ID), zap.String("rule", apperrors.RuleOf(err)))
		return nil, err
	}

	event := &entities.RelationManageriale{PermanenceID: shiftID, AuteurID: c.Actor.ID}
	applyLogbookPayload(event, payload)
	id, err := s.logbookRepo.Create(ctx, nil, event)
	if err != nil {
		return nil, err
	}
	return s.logbookRepo.FindByID(ctx, nil, id)
}

func (s *LogbookService) Update(ctx context.Context, id uint64, payload dto.LogbookEventDTO) (*entities.RelationManageriale, error) {
	event, c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.checkRecord(authz.ActionUpdate, authz.KindLogbookEvent, forTarget(c, event)); err != nil {
		return nil, err
	}

	applyLogbookPayload(event, payload)
	if err := s.logbookRepo.Update(ctx, nil, event, authz.WriteGuardFor(c.Actor)); err != nil {
		return nil, err
	}
	return s.logbookRepo.FindByID(ctx, nil, id)
}

func (s *LogbookService) Delete(ctx context.Context, id uint64) error {
	event, c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.access.checkRecord(authz.ActionDelete, authz.KindLogbookEvent, forTarget(c, event)); err != nil {
		return err
	}
	return s.logbookRepo.Delete(ctx, nil, id, authz.WriteGuardFor(c.Actor))
}

func (s *LogbookService) load(ctx context.Context, id uint64) (*entities.RelationManageriale, authz.Context, error) {
	event, err := s.logbookRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, authz.Context{}, err
	}
	c, err := s.access.load(ctx, event.PermanenceID)
	if err != nil {
		return nil, authz.Context{}, err
	}
	return event, c, nil
}

func applyLogbookPayload(e *entities.RelationManageriale, payload dto.LogbookEventDTO) {
	e.HeureEvenement = payload.HeureEvenement
	e.Evenement = payload.Evenement
	e.EffetsOrdonnes = payload.EffetsOrdonnes.Ptr()
	e.Observations = payload.Observations.Ptr()
}
