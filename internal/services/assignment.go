package services

import (
	"context"

	"go.uber.org/zap"

	"permanence-system/internal/authz"
	"permanence-system/internal/dto"
	"permanence-system/internal/entities"
	"permanence-system/internal/repositories"
	apperrors "permanence-system/pkg/errors"
)

type AssignmentServiceInterface interface {
	List(ctx context.Context, shiftID uint64) ([]entities.Affectation, error)
	Create(ctx context.Context, shiftID uint64, payload dto.AssignmentDTO) (*entities.Affectation, error)
	Update(ctx context.Context, id uint64, payload dto.AssignmentDTO) (*entities.Affectation, error)
	Delete(ctx context.Context, id uint64) error
}

type AssignmentService struct {
	assignmentRepo repositories.AssignmentRepositoryInterface
	userRepo       repositories.UserRepositoryInterface
	siteRepo       repositories.SiteRepositoryInterface
	access         *shiftAccess
	gate           *authz.Gatekeeper
	logger         *zap.Logger
}

func NewAssignmentService(
	permanenceRepo repositories.PermanenceRepositoryInterface,
	assignmentRepo repositories.AssignmentRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	siteRepo repositories.SiteRepositoryInterface,
	logger *zap.Logger,
) AssignmentServiceInterface {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
		siteRepo:       siteRepo,
		access:         newShiftAccess(permanenceRepo, assignmentRepo),
		gate:           authz.NewGatekeeper(),
		logger:         logger,
	}
}

// List: sous-officier получает только свою строку.
func (s *AssignmentService) List(ctx context.Context, shiftID uint64) ([]entities.Affectation, error) {
	c, err := s.access.load(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	return s.assignmentRepo.List(ctx, authz.PartitionFor(c.Actor, authz.KindAssignment, &shiftID))
}

func (s *AssignmentService) Create(ctx context.Context, shiftID uint64, payload dto.AssignmentDTO) (*entities.Affectation, error) {
	c, err := s.access.load(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Check(authz.ActionCreate, authz.KindAssignment, c); err != nil {
		s.logger.Warn("AssignmentService: назначение запрещено", zap.Uint64("shiftID", shiftID), zap.String("rule", apperrors.RuleOf(err)))
		return nil, err
	}
	if err := s.checkPayload(ctx, payload); err != nil {
		return nil, err
	}

	a := &entities.Affectation{PermanenceID: shiftID, SousOfficierID: payload.SousOfficierID, SiteID: payload.SiteID}
	id, err := s.assignmentRepo.Create(ctx, nil, a)
	if err != nil {
		return nil, err
	}
	s.logger.Info("AssignmentService: sous-officier назначен",
		zap.Uint64("shiftID", shiftID), zap.Uint64("sousOfficierID", payload.SousOfficierID), zap.Uint64("siteID", payload.SiteID))
	return s.assignmentRepo.FindByID(ctx, nil, id)
}

func (s *AssignmentService) Update(ctx context.Context, id uint64, payload dto.AssignmentDTO) (*entities.Affectation, error) {
	a, c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.checkRecord(authz.ActionUpdate, authz.KindAssignment, forTarget(c, a)); err != nil {
		return nil, err
	}
	if err := s.checkPayload(ctx, payload); err != nil {
		return nil, err
	}

	a.SousOfficierID = payload.SousOfficierID
	a.SiteID = payload.SiteID
	if err := s.assignmentRepo.Update(ctx, nil, a, authz.WriteGuardFor(c.Actor)); err != nil {
		return nil, err
	}
	return s.assignmentRepo.FindByID(ctx, nil, id)
}

func (s *AssignmentService) Delete(ctx context.Context, id uint64) error {
	a, c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.access.checkRecord(authz.ActionDelete, authz.KindAssignment, forTarget(c, a)); err != nil {
		return err
	}
	if err := s.assignmentRepo.Delete(ctx, nil, id, authz.WriteGuardFor(c.Actor)); err != nil {
		return err
	}
	s.logger.Info("AssignmentService: назначение снято", zap.Uint64("id", id), zap.Uint64("shiftID", a.PermanenceID))
	return nil
}

func (s *AssignmentService) load(ctx context.Context, id uint64) (*entities.Affectation, authz.Context, error) {
	a, err := s.assignmentRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, authz.Context{}, err
	}
	c, err := s.access.load(ctx, a.PermanenceID)
	if err != nil {
		return nil, authz.Context{}, err
	}
	return a, c, nil
}

func (s *AssignmentService) checkPayload(ctx context.Context, payload dto.AssignmentDTO) error {
	nco, err := s.userRepo.FindByID(ctx, payload.SousOfficierID)
	if err != nil {
		return asValidation(err, "utilisateur %d introuvable", payload.SousOfficierID)
	}
	if !nco.IsSousOfficier() || !nco.IsActive {
		return apperrors.NewInvalidInputError("seul un sous-officier actif peut être affecté")
	}
	if _, err := s.siteRepo.FindByID(ctx, nil, payload.SiteID); err != nil {
		return asValidation(err, "site %d introuvable", payload.SiteID)
	}
	return nil
}
