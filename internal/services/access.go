package services

import (
	"context"
	"errors"

	"permanence-system/internal/authz"
	"permanence-system/internal/entities"
	"permanence-system/internal/repositories"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/utils"
)

func actorFrom(ctx context.Context) (*entities.User, error) {
	actor, err := utils.GetActorFromContext(ctx)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	return actor, nil
}

// shiftAccess собирает authz.Context для permanence: actor, сама permanence, назначение.
type shiftAccess struct {
	permanenceRepo repositories.PermanenceRepositoryInterface
	assignmentRepo repositories.AssignmentRepositoryInterface
	gate           *authz.Gatekeeper
}

func newShiftAccess(permanenceRepo repositories.PermanenceRepositoryInterface, assignmentRepo repositories.AssignmentRepositoryInterface) *shiftAccess {
	return &shiftAccess{permanenceRepo: permanenceRepo, assignmentRepo: assignmentRepo, gate: authz.NewGatekeeper()}
}

// load возвращает ErrNotFound, если permanence нет или actor не должен о ней знать.
func (a *shiftAccess) load(ctx context.Context, shiftID uint64) (authz.Context, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return authz.Context{}, err
	}
	shift, err := a.permanenceRepo.FindByID(ctx, nil, shiftID)
	if err != nil {
		return authz.Context{}, err
	}

	assigned := false
	if actor.IsSousOfficier() {
		if assigned, err = a.assignmentRepo.IsAssigned(ctx, shiftID, actor.ID); err != nil {
			return authz.Context{}, err
		}
	}

	c := authz.ShiftContext(actor, shift, assigned)
	if !a.gate.CanSeeShift(c) {
		return authz.Context{}, apperrors.ErrNotFound
	}
	return c, nil
}

// forTarget: контекст для дочерней записи той же permanence.
func forTarget(c authz.Context, target interface{}) authz.Context {
	c.Target = target
	return c
}

// asValidation превращает ErrNotFound связанной сущности в ошибку ввода.
func asValidation(err error, format string, args ...interface{}) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NewInvalidInputError(format, args...)
	}
	return err
}

// checkRecord: запись, которую actor не видит, для него не существует (ErrNotFound);
// видимая, но недоступная для действия -> ForbiddenError.
func (a *shiftAccess) checkRecord(action authz.Action, kind authz.ResourceKind, c authz.Context) error {
	if err := a.gate.Check(authz.ActionView, kind, c); err != nil {
		return err
	}
	if action == authz.ActionView {
		return nil
	}
	return a.gate.Check(action, kind, c)
}

// deviceFor проверяет, что аппарат существует и доступен actor для выбора.
// Sous-officier выбирает только активные аппараты своего сайта или глобальные.
func (a *shiftAccess) deviceFor(ctx context.Context, devices repositories.DeviceRepositoryInterface, c authz.Context, deviceID uint64) (*entities.Appareil, error) {
	device, err := devices.FindByID(ctx, nil, deviceID)
	if err != nil {
		return nil, asValidation(err, "appareil %d introuvable", deviceID)
	}
	if !c.Actor.IsSousOfficier() {
		return device, nil
	}

	part := authz.PartitionFor(c.Actor, authz.KindDevice, nil)
	if c.Shift != nil {
		sites, err := a.assignmentRepo.SitesFor(ctx, c.Shift.ID, c.Actor.ID)
		if err != nil {
			return nil, err
		}
		part = part.WithSite(sites...)
	}
	if !part.Allows(authz.RowRef{IsActive: device.IsActive, SiteID: device.SiteID}) {
		return nil, apperrors.NewInvalidInputError("appareil %d non disponible", deviceID)
	}
	return device, nil
}

// unrestricted: раздел без ограничений для внутренних выборок (печать, экспорт),
// вызывается только после проверки прав.
func unrestricted(kind authz.ResourceKind) authz.Partition {
	return authz.PartitionFor(&entities.User{Role: entities.RoleAdmin, IsActive: true}, kind, nil)
}
