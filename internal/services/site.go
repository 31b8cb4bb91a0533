package services

import (
	"context"

	"go.uber.org/zap"

	"permanence-system/internal/authz"
	"permanence-system/internal/dto"
	"permanence-system/internal/entities"
	"permanence-system/internal/repositories"
	"permanence-system/pkg/types"
)

type SiteServiceInterface interface {
	List(ctx context.Context, filter types.Filter) ([]entities.Site, uint64, error)
	Create(ctx context.Context, payload dto.SiteDTO) (*entities.Site, error)
	Update(ctx context.Context, id uint64, payload dto.SiteDTO) (*entities.Site, error)
	Delete(ctx context.Context, id uint64) error
}

type SiteService struct {
	siteRepo repositories.SiteRepositoryInterface
	gate     *authz.Gatekeeper
	logger   *zap.Logger
}

func NewSiteService(siteRepo repositories.SiteRepositoryInterface, logger *zap.Logger) SiteServiceInterface {
	return &SiteService{siteRepo: siteRepo, gate: authz.NewGatekeeper(), logger: logger}
}

func (s *SiteService) List(ctx context.Context, filter types.Filter) ([]entities.Site, uint64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.siteRepo.List(ctx, filter, authz.PartitionFor(actor, authz.KindSite, nil))
}

func (s *SiteService) Create(ctx context.Context, payload dto.SiteDTO) (*entities.Site, error) {
	if err := s.check(ctx, authz.ActionCreate); err != nil {
		return nil, err
	}
	site := &entities.Site{IsActive: true}
	applySitePayload(site, payload)
	id, err := s.siteRepo.Create(ctx, nil, site)
	if err != nil {
		return nil, err
	}
	return s.siteRepo.FindByID(ctx, nil, id)
}

func (s *SiteService) Update(ctx context.Context, id uint64, payload dto.SiteDTO) (*entities.Site, error) {
	if err := s.check(ctx, authz.ActionUpdate); err != nil {
		return nil, err
	}
	site, err := s.siteRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	applySitePayload(site, payload)
	if err := s.siteRepo.Update(ctx, nil, site); err != nil {
		return nil, err
	}
	return s.siteRepo.FindByID(ctx, nil, id)
}

// Delete: сайт с назначениями удалить нельзя (FK -> ErrConflict).
func (s *SiteService) Delete(ctx context.Context, id uint64) error {
	if err := s.check(ctx, authz.ActionDelete); err != nil {
		return err
	}
	return s.siteRepo.Delete(ctx, nil, id)
}

func (s *SiteService) check(ctx context.Context, action authz.Action) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	return s.gate.Check(action, authz.KindSite, authz.Context{Actor: actor})
}

func applySitePayload(site *entities.Site, payload dto.SiteDTO) {
	site.Nom = payload.Nom
	site.Code = payload.Code
	site.Localisation = payload.Localisation.Ptr()
	site.Description = payload.Description.Ptr()
	if payload.IsActive.Valid {
		site.IsActive = payload.IsActive.Bool
	}
}
