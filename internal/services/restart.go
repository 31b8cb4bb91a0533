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

type RestartServiceInterface interface {
	List(ctx context.Context, shiftID uint64, filter types.Filter) ([]entities.RedemarrageAppareil, uint64, error)
	Create(ctx context.Context, shiftID uint64, payload dto.RestartRecordDTO) (*entities.RedemarrageAppareil, error)
	Update(ctx context.Context, id uint64, payload dto.RestartRecordDTO) (*entities.RedemarrageAppareil, error)
	Delete(ctx context.Context, id uint64) error
}

// RestartService: redémarrages d'appareils. Для sous-officier раздел всегда пуст.
type RestartService struct {
	restartRepo repositories.RestartRepositoryInterface
	deviceRepo  repositories.DeviceRepositoryInterface
	access      *shiftAccess
	gate        *authz.Gatekeeper
	logger      *zap.Logger
}

func NewRestartService(
	permanenceRepo repositories.PermanenceRepositoryInterface,
	assignmentRepo repositories.AssignmentRepositoryInterface,
	restartRepo repositories.RestartRepositoryInterface,
	deviceRepo repositories.DeviceRepositoryInterface,
	logger *zap.Logger,
) RestartServiceInterface {
	return &RestartService{
		restartRepo: restartRepo,
		deviceRepo:  deviceRepo,
		access:      newShiftAccess(permanenceRepo, assignmentRepo),
		gate:        authz.NewGatekeeper(),
		logger:      logger,
	}
}

func (s *RestartService) List(ctx context.Context, shiftID uint64, filter types.Filter) ([]entities.RedemarrageAppareil, uint64, error) {
	c, err := s.access.load(ctx, shiftID)
	if err != nil {
		return nil, 0, err
	}
	return s.restartRepo.List(ctx, filter, authz.PartitionFor(c.Actor, authz.KindRestartRecord, &shiftID))
}

func (s *RestartService) Create(ctx context.Context, shiftID uint64, payload dto.RestartRecordDTO) (*entities.RedemarrageAppareil, error) {
	c, err := s.access.load(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Check(authz.ActionCreate, authz.KindRestartRecord, c); err != nil {
		s.logger.Warn("RestartService: создание запрещено",
			zap.Uint64("shiftID", shiftID), zap.Uint64("actorID", c.Actor.ID), zap.String("rule", apperrors.RuleOf(err)))
		return nil, err
	}
	if _, err := s.access.deviceFor(ctx, s.deviceRepo, c, payload.AppareilID); err != nil {
		return nil, err
	}

	// admin пишет от имени ответственного офицера
	officierID := c.Actor.ID
	if c.Actor.IsAdmin() {
		officierID = c.Shift.OfficierID
	}
	record := &entities.RedemarrageAppareil{PermanenceID: shiftID, OfficierID: officierID}
	applyRestartPayload(record, payload)
	id, err := s.restartRepo.Create(ctx, nil, record)
	if err != nil {
		return nil, err
	}
	return s.restartRepo.FindByID(ctx, nil, id)
}

func (s *RestartService) Update(ctx context.Context, id uint64, payload dto.RestartRecordDTO) (*entities.RedemarrageAppareil, error) {
	record, c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.checkRecord(authz.ActionUpdate, authz.KindRestartRecord, forTarget(c, record)); err != nil {
		return nil, err
	}
	if record.AppareilID != payload.AppareilID {
		if _, err := s.access.deviceFor(ctx, s.deviceRepo, c, payload.AppareilID); err != nil {
			return nil, err
		}
	}

	applyRestartPayload(record, payload)
	if err := s.restartRepo.Update(ctx, nil, record, authz.WriteGuardFor(c.Actor)); err != nil {
		return nil, err
	}
	return s.restartRepo.FindByID(ctx, nil, id)
}

func (s *RestartService) Delete(ctx context.Context, id uint64) error {
	record, c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.access.checkRecord(authz.ActionDelete, authz.KindRestartRecord, forTarget(c, record)); err != nil {
		return err
	}
	return s.restartRepo.Delete(ctx, nil, id, authz.WriteGuardFor(c.Actor))
}

func (s *RestartService) load(ctx context.Context, id uint64) (*entities.RedemarrageAppareil, authz.Context, error) {
	record, err := s.restartRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, authz.Context{}, err
	}
	c, err := s.access.load(ctx, record.PermanenceID)
	if err != nil {
		return nil, authz.Context{}, err
	}
	return record, c, nil
}

func applyRestartPayload(r *entities.RedemarrageAppareil, payload dto.RestartRecordDTO) {
	r.AppareilID = payload.AppareilID
	r.NombreRedemarrages = payload.NombreRedemarrages
	r.Motif = payload.Motif
	r.HeureDebut = payload.HeureDebut
	r.HeureFin = payload.HeureFin.Ptr()
	r.DecisionOfficier = payload.DecisionOfficier.Ptr()
}
