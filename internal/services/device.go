package services

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"permanence-system/internal/authz"
	"permanence-system/internal/dto"
	"permanence-system/internal/entities"
	"permanence-system/internal/repositories"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/types"
)

type DeviceServiceInterface interface {
	List(ctx context.Context, filter types.Filter) ([]entities.Appareil, uint64, error)
	Create(ctx context.Context, payload dto.DeviceDTO) (*entities.Appareil, error)
	Update(ctx context.Context, id uint64, payload dto.DeviceDTO) (*entities.Appareil, error)
	Delete(ctx context.Context, id uint64) error
}

type DeviceService struct {
	deviceRepo     repositories.DeviceRepositoryInterface
	siteRepo       repositories.SiteRepositoryInterface
	assignmentRepo repositories.AssignmentRepositoryInterface
	gate           *authz.Gatekeeper
	logger         *zap.Logger
}

func NewDeviceService(
	deviceRepo repositories.DeviceRepositoryInterface,
	siteRepo repositories.SiteRepositoryInterface,
	assignmentRepo repositories.AssignmentRepositoryInterface,
	logger *zap.Logger,
) DeviceServiceInterface {
	return &DeviceService{
		deviceRepo:     deviceRepo,
		siteRepo:       siteRepo,
		assignmentRepo: assignmentRepo,
		gate:           authz.NewGatekeeper(),
		logger:         logger,
	}
}

// List: filter[permanence_id] сужает выбор sous-officier до сайта его назначения.
func (s *DeviceService) List(ctx context.Context, filter types.Filter) ([]entities.Appareil, uint64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	part := authz.PartitionFor(actor, authz.KindDevice, nil)

	if raw := filter.String("permanence_id"); raw != "" && actor.IsSousOfficier() {
		shiftID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return nil, 0, apperrors.NewInvalidInputError("permanence_id invalide")
		}
		sites, err := s.assignmentRepo.SitesFor(ctx, shiftID, actor.ID)
		if err != nil {
			return nil, 0, err
		}
		part = part.WithSite(sites...)
	}
	return s.deviceRepo.List(ctx, filter, part)
}

func (s *DeviceService) Create(ctx context.Context, payload dto.DeviceDTO) (*entities.Appareil, error) {
	if err := s.check(ctx, authz.ActionCreate); err != nil {
		return nil, err
	}
	device := &entities.Appareil{Statut: entities.AppareilActif, IsActive: true}
	if err := s.applyPayload(ctx, device, payload); err != nil {
		return nil, err
	}
	id, err := s.deviceRepo.Create(ctx, nil, device)
	if err != nil {
		return nil, err
	}
	s.logger.Info("DeviceService: аппарат создан", zap.Uint64("id", id), zap.String("nom", device.Nom))
	return s.deviceRepo.FindByID(ctx, nil, id)
}

func (s *DeviceService) Update(ctx context.Context, id uint64, payload dto.DeviceDTO) (*entities.Appareil, error) {
	if err := s.check(ctx, authz.ActionUpdate); err != nil {
		return nil, err
	}
	device, err := s.deviceRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyPayload(ctx, device, payload); err != nil {
		return nil, err
	}
	if err := s.deviceRepo.Update(ctx, nil, device); err != nil {
		return nil, err
	}
	return s.deviceRepo.FindByID(ctx, nil, id)
}

func (s *DeviceService) Delete(ctx context.Context, id uint64) error {
	if err := s.check(ctx, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.deviceRepo.Delete(ctx, nil, id); err != nil {
		return err
	}
	s.logger.Info("DeviceService: аппарат удалён", zap.Uint64("id", id))
	return nil
}

func (s *DeviceService) check(ctx context.Context, action authz.Action) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	return s.gate.Check(action, authz.KindDevice, authz.Context{Actor: actor})
}

func (s *DeviceService) applyPayload(ctx context.Context, a *entities.Appareil, payload dto.DeviceDTO) error {
	if payload.SiteID.Valid {
		if _, err := s.siteRepo.FindByID(ctx, nil, payload.SiteID.Uint64); err != nil {
			return asValidation(err, "site %d introuvable", payload.SiteID.Uint64)
		}
	}
	a.Nom = payload.Nom
	a.Type = payload.Type.Ptr()
	a.Categorie = payload.Categorie.Ptr()
	a.NumeroSerie = payload.NumeroSerie.Ptr()
	a.SiteID = payload.SiteID.Ptr()
	a.Description = payload.Description.Ptr()

	a.Destinataire = nil
	if payload.Destinataire.Valid {
		d, err := entities.ParseDestinataire(payload.Destinataire.String)
		if err != nil {
			return apperrors.NewInvalidInputError("%s", err.Error())
		}
		a.Destinataire = &d
	}
	if payload.Statut != "" {
		st, err := entities.ParseStatutAppareil(payload.Statut)
		if err != nil {
			return apperrors.NewInvalidInputError("%s", err.Error())
		}
		a.Statut = st
	}
	if payload.IsActive.Valid {
		a.IsActive = payload.IsActive.Bool
	}
	return nil
}
