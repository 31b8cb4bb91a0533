package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"permanence-system/internal/authz"
	"permanence-system/internal/dto"
	"permanence-system/internal/entities"
	"permanence-system/internal/repositories"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/types"
	"permanence-system/pkg/utils"
)

type UserServiceInterface interface {
	List(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error)
	Get(ctx context.Context, id uint64) (*entities.User, error)
	Create(ctx context.Context, payload dto.CreateUserDTO) (*entities.User, error)
	Update(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*entities.User, error)
}

// UserService: администрирование пользователей, только admin.
type UserService struct {
	userRepo repositories.UserRepositoryInterface
	gate     *authz.Gatekeeper
	logger   *zap.Logger
}

func NewUserService(userRepo repositories.UserRepositoryInterface, logger *zap.Logger) UserServiceInterface {
	return &UserService{userRepo: userRepo, gate: authz.NewGatekeeper(), logger: logger}
}

func (s *UserService) List(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	if _, err := s.check(ctx, authz.ActionViewAny); err != nil {
		return nil, 0, err
	}
	return s.userRepo.GetAll(ctx, filter)
}

func (s *UserService) Get(ctx context.Context, id uint64) (*entities.User, error) {
	if _, err := s.check(ctx, authz.ActionView); err != nil {
		return nil, err
	}
	return s.userRepo.FindByID(ctx, id)
}

func (s *UserService) Create(ctx context.Context, payload dto.CreateUserDTO) (*entities.User, error) {
	actor, err := s.check(ctx, authz.ActionCreate)
	if err != nil {
		return nil, err
	}

	role, err := entities.ParseRole(payload.Role)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("%s", err.Error())
	}
	fonction, err := fonctionFor(role, payload.Fonction.Ptr())
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}

	u := &entities.User{
		Nom:       strings.TrimSpace(payload.Nom),
		Prenom:    strings.TrimSpace(payload.Prenom),
		Matricule: payload.Matricule.Ptr(),
		Email:     strings.ToLower(strings.TrimSpace(payload.Email)),
		Password:  hash,
		Role:      role,
		Fonction:  fonction,
		IsActive:  !payload.IsActive.Valid || payload.IsActive.Bool,
	}
	id, err := s.userRepo.Create(ctx, nil, u)
	if err != nil {
		return nil, err
	}
	s.logger.Info("UserService: пользователь создан",
		zap.Uint64("id", id), zap.String("role", string(role)), zap.Uint64("by", actor.ID))
	return s.userRepo.FindByID(ctx, id)
}

// Update: роль неизменна; её можно прислать только с текущим значением.
func (s *UserService) Update(ctx context.Context, id uint64, payload dto.UpdateUserDTO) (*entities.User, error) {
	actor, err := s.check(ctx, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload.Role.Valid && payload.Role.String != string(u.Role) {
		return nil, apperrors.NewInvalidInputError("le rôle d'un utilisateur ne peut pas être modifié")
	}
	fonction, err := fonctionFor(u.Role, payload.Fonction.Ptr())
	if err != nil {
		return nil, err
	}
	if actor.ID == u.ID && payload.IsActive.Valid && !payload.IsActive.Bool {
		return nil, apperrors.NewInvalidInputError("vous ne pouvez pas désactiver votre propre compte")
	}

	u.Nom = strings.TrimSpace(payload.Nom)
	u.Prenom = strings.TrimSpace(payload.Prenom)
	u.Matricule = payload.Matricule.Ptr()
	u.Email = strings.ToLower(strings.TrimSpace(payload.Email))
	u.Fonction = fonction
	if payload.IsActive.Valid {
		u.IsActive = payload.IsActive.Bool
	}
	if err := s.userRepo.Update(ctx, nil, u); err != nil {
		return nil, err
	}

	if payload.Password.Valid && payload.Password.String != "" {
		hash, err := utils.HashPassword(payload.Password.String)
		if err != nil {
			return nil, err
		}
		if err := s.userRepo.UpdatePassword(ctx, id, hash); err != nil {
			return nil, err
		}
		s.logger.Info("UserService: пароль изменён", zap.Uint64("id", id), zap.Uint64("by", actor.ID))
	}
	return s.userRepo.FindByID(ctx, id)
}

func (s *UserService) check(ctx context.Context, action authz.Action) (*entities.User, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Check(action, authz.KindUser, authz.Context{Actor: actor}); err != nil {
		return nil, err
	}
	return actor, nil
}

// fonctionFor: функция допустима только у sous-officier.
func fonctionFor(role entities.Role, raw *string) (*entities.SubFunction, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	if role != entities.RoleSousOfficier {
		return nil, apperrors.NewInvalidInputError("la fonction n'est applicable qu'aux sous-officiers")
	}
	f, err := entities.ParseSubFunction(*raw)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("%s", err.Error())
	}
	return &f, nil
}
