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

type EnergyServiceInterface interface {
	List(ctx context.Context, shiftID uint64, filter types.Filter) ([]entities.ReleveEnergie, uint64, error)
	Create(ctx context.Context, shiftID uint64, payload dto.EnergyReadingDTO) (*entities.ReleveEnergie, error)
	Update(ctx context.Context, id uint64, payload dto.EnergyReadingDTO) (*entities.ReleveEnergie, error)
	Delete(ctx context.Context, id uint64) error
}

type EnergyService struct {
	energyRepo     repositories.EnergyRepositoryInterface
	assignmentRepo repositories.AssignmentRepositoryInterface
	deviceRepo     repositories.DeviceRepositoryInterface
	access         *shiftAccess
	gate           *authz.Gatekeeper
	logger         *zap.Logger
}

func NewEnergyService(
	permanenceRepo repositories.PermanenceRepositoryInterface,
	assignmentRepo repositories.AssignmentRepositoryInterface,
	energyRepo repositories.EnergyRepositoryInterface,
	deviceRepo repositories.DeviceRepositoryInterface,
	logger *zap.Logger,
) EnergyServiceInterface {
	return &EnergyService{
		energyRepo:     energyRepo,
		assignmentRepo: assignmentRepo,
		deviceRepo:     deviceRepo,
		access:         newShiftAccess(permanenceRepo, assignmentRepo),
		gate:           authz.NewGatekeeper(),
		logger:         logger,
	}
}

func (s *EnergyService) List(ctx context.Context, shiftID uint64, filter types.Filter) ([]entities.ReleveEnergie, uint64, error) {
	c, err := s.access.load(ctx, shiftID)
	if err != nil {
		return nil, 0, err
	}
	return s.energyRepo.List(ctx, filter, authz.PartitionFor(c.Actor, authz.KindEnergyReading, &shiftID))
}

func (s *EnergyService) Create(ctx context.Context, shiftID uint64, payload dto.EnergyReadingDTO) (*entities.ReleveEnergie, error) {
	c, err := s.access.load(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Check(authz.ActionCreate, authz.KindEnergyReading, c); err != nil {
		s.logger.Warn("EnergyService: relevé запрещён",
			zap.Uint64("shiftID", shiftID), zap.Uint64("actorID", c.Actor.ID), zap.String("rule", apperrors.RuleOf(err)))
		return nil, err
	}

	author, err := s.authorFor(ctx, c, payload)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.deviceFor(ctx, s.deviceRepo, c, payload.AppareilID); err != nil {
		return nil, err
	}

	reading := &entities.ReleveEnergie{PermanenceID: shiftID, SousOfficierID: author}
	applyEnergyPayload(reading, payload)
	id, err := s.energyRepo.Create(ctx, nil, reading)
	if err != nil {
		return nil, err
	}
	return s.energyRepo.FindByID(ctx, nil, id)
}

func (s *EnergyService) Update(ctx context.Context, id uint64, payload dto.EnergyReadingDTO) (*entities.ReleveEnergie, error) {
	reading, c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.checkRecord(authz.ActionUpdate, authz.KindEnergyReading, forTarget(c, reading)); err != nil {
		return nil, err
	}
	if reading.AppareilID != payload.AppareilID {
		if _, err := s.access.deviceFor(ctx, s.deviceRepo, c, payload.AppareilID); err != nil {
			return nil, err
		}
	}

	applyEnergyPayload(reading, payload)
	if err := s.energyRepo.Update(ctx, nil, reading, authz.WriteGuardFor(c.Actor)); err != nil {
		return nil, err
	}
	return s.energyRepo.FindByID(ctx, nil, id)
}

func (s *EnergyService) Delete(ctx context.Context, id uint64) error {
	reading, c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.access.checkRecord(authz.ActionDelete, authz.KindEnergyReading, forTarget(c, reading)); err != nil {
		return err
	}
	return s.energyRepo.Delete(ctx, nil, id, authz.WriteGuardFor(c.Actor))
}

// authorFor: sous-officier пишет от своего имени; admin указывает назначенного sous-officier.
func (s *EnergyService) authorFor(ctx context.Context, c authz.Context, payload dto.EnergyReadingDTO) (uint64, error) {
	if c.Actor.IsSousOfficier() {
		return c.Actor.ID, nil
	}
	if !payload.SousOfficierID.Valid {
		return 0, apperrors.NewInvalidInputError("le sous-officier est obligatoire")
	}
	assigned, err := s.assignmentRepo.IsAssigned(ctx, c.Shift.ID, payload.SousOfficierID.Uint64)
	if err != nil {
		return 0, err
	}
	if !assigned {
		return 0, apperrors.NewInvalidInputError("le sous-officier %d n'est pas affecté à cette permanence", payload.SousOfficierID.Uint64)
	}
	return payload.SousOfficierID.Uint64, nil
}

func (s *EnergyService) load(ctx context.Context, id uint64) (*entities.ReleveEnergie, authz.Context, error) {
	reading, err := s.energyRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, authz.Context{}, err
	}
	c, err := s.access.load(ctx, reading.PermanenceID)
	if err != nil {
		return nil, authz.Context{}, err
	}
	return reading, c, nil
}

func applyEnergyPayload(r *entities.ReleveEnergie, payload dto.EnergyReadingDTO) {
	r.AppareilID = payload.AppareilID
	if payload.PourcentageEnergie != nil {
		r.PourcentageEnergie = *payload.PourcentageEnergie
	}
	r.HeureReleve = payload.HeureReleve
	r.Observations = payload.Observations.Ptr()
}
