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

type ReceptionServiceInterface interface {
	List(ctx context.Context, shiftID uint64, filter types.Filter) ([]entities.ReceptionMateriel, uint64, error)
	Create(ctx context.Context, shiftID uint64, payload dto.MaterialReceptionDTO) (*entities.ReceptionMateriel, error)
	Update(ctx context.Context, id uint64, payload dto.MaterialReceptionDTO) (*entities.ReceptionMateriel, error)
	Delete(ctx context.Context, id uint64) error
}

type ReceptionService struct {
	receptionRepo repositories.ReceptionRepositoryInterface
	deviceRepo    repositories.DeviceRepositoryInterface
	userRepo      repositories.UserRepositoryInterface
	access        *shiftAccess
	gate          *authz.Gatekeeper
	logger        *zap.Logger
}

func NewReceptionService(
	permanenceRepo repositories.PermanenceRepositoryInterface,
	assignmentRepo repositories.AssignmentRepositoryInterface,
	receptionRepo repositories.ReceptionRepositoryInterface,
	deviceRepo repositories.DeviceRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	logger *zap.Logger,
) ReceptionServiceInterface {
	return &ReceptionService{
		receptionRepo: receptionRepo,
		deviceRepo:    deviceRepo,
		userRepo:      userRepo,
		access:        newShiftAccess(permanenceRepo, assignmentRepo),
		gate:          authz.NewGatekeeper(),
		logger:        logger,
	}
}

func (s *ReceptionService) List(ctx context.Context, shiftID uint64, filter types.Filter) ([]entities.ReceptionMateriel, uint64, error) {
	c, err := s.access.load(ctx, shiftID)
	if err != nil {
		return nil, 0, err
	}
	return s.receptionRepo.List(ctx, filter, authz.PartitionFor(c.Actor, authz.KindMaterialReception, &shiftID))
}

func (s *ReceptionService) Create(ctx context.Context, shiftID uint64, payload dto.MaterialReceptionDTO) (*entities.ReceptionMateriel, error) {
	c, err := s.access.load(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Check(authz.ActionCreate, authz.KindMaterialReception, c); err != nil {
		s.logger.Warn("ReceptionService: создание запрещено",
			zap.Uint64("shiftID", shiftID), zap.Uint64("actorID", c.Actor.ID), zap.String("rule", apperrors.RuleOf(err)))
		return nil, err
	}
	if err := s.checkPayload(ctx, c, payload); err != nil {
		return nil, err
	}

	reception := &entities.ReceptionMateriel{PermanenceID: shiftID}
	if err := applyReceptionPayload(reception, payload); err != nil {
		return nil, err
	}
	id, err := s.receptionRepo.Create(ctx, nil, reception)
	if err != nil {
		return nil, err
	}
	return s.receptionRepo.FindByID(ctx, nil, id)
}

func (s *ReceptionService) Update(ctx context.Context, id uint64, payload dto.MaterialReceptionDTO) (*entities.ReceptionMateriel, error) {
	reception, c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.checkRecord(authz.ActionUpdate, authz.KindMaterialReception, forTarget(c, reception)); err != nil {
		return nil, err
	}
	if err := s.checkPayload(ctx, c, payload); err != nil {
		return nil, err
	}

	if err := applyReceptionPayload(reception, payload); err != nil {
		return nil, err
	}
	if err := s.receptionRepo.Update(ctx, nil, reception, authz.WriteGuardFor(c.Actor)); err != nil {
		return nil, err
	}
	return s.receptionRepo.FindByID(ctx, nil, id)
}

func (s *ReceptionService) Delete(ctx context.Context, id uint64) error {
	reception, c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.access.checkRecord(authz.ActionDelete, authz.KindMaterialReception, forTarget(c, reception)); err != nil {
		return err
	}
	return s.receptionRepo.Delete(ctx, nil, id, authz.WriteGuardFor(c.Actor))
}

// checkPayload получатель: офицер или оператор; аппарат должен быть предназначен его категории.
func (s *ReceptionService) checkPayload(ctx context.Context, c authz.Context, payload dto.MaterialReceptionDTO) error {
	recipient, err := s.userRepo.FindByID(ctx, payload.UserID)
	if err != nil {
		return asValidation(err, "utilisateur %d introuvable", payload.UserID)
	}
	if !recipient.CanReceiveMaterial() || !recipient.IsActive {
		return apperrors.NewInvalidInputError("seuls un officier ou un opérateur actifs peuvent recevoir du matériel")
	}

	device, err := s.access.deviceFor(ctx, s.deviceRepo, c, payload.AppareilID)
	if err != nil {
		return err
	}
	if device.Destinataire != nil {
		want := entities.DestinataireOperateur
		if recipient.IsOfficier() {
			want = entities.DestinataireOfficier
		}
		if *device.Destinataire != want {
			return apperrors.NewInvalidInputError("l'appareil %s n'est pas destiné à ce destinataire", device.Nom)
		}
	}
	return nil
}

func (s *ReceptionService) load(ctx context.Context, id uint64) (*entities.ReceptionMateriel, authz.Context, error) {
	reception, err := s.receptionRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, authz.Context{}, err
	}
	c, err := s.access.load(ctx, reception.PermanenceID)
	if err != nil {
		return nil, authz.Context{}, err
	}
	return reception, c, nil
}

func applyReceptionPayload(m *entities.ReceptionMateriel, payload dto.MaterialReceptionDTO) error {
	etat, err := entities.ParseEtatFonctionnement(payload.EtatFonctionnement)
	if err != nil {
		return apperrors.NewInvalidInputError("%s", err.Error())
	}
	m.UserID = payload.UserID
	m.AppareilID = payload.AppareilID
	m.RecuIntegralite = payload.RecuIntegralite.Valid && payload.RecuIntegralite.Bool
	m.EtatFonctionnement = etat
	m.Commentaire = payload.Commentaire.Ptr()
	return nil
}
