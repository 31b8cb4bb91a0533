package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"permanence-system/internal/authz"
	"permanence-system/internal/dto"
	"permanence-system/internal/entities"
	"permanence-system/internal/events"
	"permanence-system/internal/repositories"
	"permanence-system/internal/workflow"
	"permanence-system/pkg/eventbus"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/types"
	"permanence-system/pkg/utils"
)

type PermanenceServiceInterface interface {
	List(ctx context.Context, filter types.Filter) ([]dto.PermanenceResponseDTO, uint64, error)
	Get(ctx context.Context, id uint64) (*dto.PermanenceResponseDTO, error)
	Abilities(ctx context.Context, id uint64) (*authz.Abilities, error)
	Create(ctx context.Context, payload dto.PermanenceDTO) (*dto.PermanenceResponseDTO, error)
	Update(ctx context.Context, id uint64, payload dto.PermanenceDTO) (*dto.PermanenceResponseDTO, error)
	Delete(ctx context.Context, id uint64) error
	Transition(ctx context.Context, id uint64, verb workflow.Verb) (*dto.PermanenceResponseDTO, error)
}

type PermanenceService struct {
	txManager      repositories.TxManagerInterface
	permanenceRepo repositories.PermanenceRepositoryInterface
	userRepo       repositories.UserRepositoryInterface
	access         *shiftAccess
	gate           *authz.Gatekeeper
	bus            *eventbus.Bus
	logger         *zap.Logger
	now            func() time.Time
}

func NewPermanenceService(
	txManager repositories.TxManagerInterface,
	permanenceRepo repositories.PermanenceRepositoryInterface,
	assignmentRepo repositories.AssignmentRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	bus *eventbus.Bus,
	logger *zap.Logger,
) PermanenceServiceInterface {
	return &PermanenceService{
		txManager:      txManager,
		permanenceRepo: permanenceRepo,
		userRepo:       userRepo,
		access:         newShiftAccess(permanenceRepo, assignmentRepo),
		gate:           authz.NewGatekeeper(),
		bus:            bus,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *PermanenceService) List(ctx context.Context, filter types.Filter) ([]dto.PermanenceResponseDTO, uint64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if raw, ok := filter.Filter["statut"]; ok {
		if _, err := entities.ParsePermanenceStatus(fmt.Sprint(raw)); err != nil {
			return nil, 0, apperrors.NewInvalidInputError("%s", err.Error())
		}
	}
	list, total, err := s.permanenceRepo.GetAll(ctx, filter, authz.PartitionFor(actor, authz.KindPermanence, nil))
	if err != nil {
		s.logger.Error("PermanenceService: ошибка получения списка", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.PermanenceResponseDTO, 0, len(list))
	for _, p := range list {
		out = append(out, dto.NewPermanenceResponse(p, nil))
	}
	return out, total, nil
}

func (s *PermanenceService) Get(ctx context.Context, id uint64) (*dto.PermanenceResponseDTO, error) {
	c, err := s.access.load(ctx, id)
	if err != nil {
		return nil, err
	}
	abilities := authz.AbilitiesFor(c)
	res := dto.NewPermanenceResponse(*c.Shift, &abilities)
	return &res, nil
}

func (s *PermanenceService) Abilities(ctx context.Context, id uint64) (*authz.Abilities, error) {
	c, err := s.access.load(ctx, id)
	if err != nil {
		return nil, err
	}
	abilities := authz.AbilitiesFor(c)
	return &abilities, nil
}

func (s *PermanenceService) Create(ctx context.Context, payload dto.PermanenceDTO) (*dto.PermanenceResponseDTO, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Check(authz.ActionCreate, authz.KindPermanence, authz.Context{Actor: actor}); err != nil {
		s.logger.Warn("PermanenceService: создание запрещено", zap.Uint64("actorID", actor.ID), zap.String("rule", apperrors.RuleOf(err)))
		return nil, err
	}
	// офицер создаёт permanence только на себя
	if actor.IsOfficier() && payload.OfficierID != actor.ID {
		s.logger.Warn("PermanenceService: создание на другого офицера запрещено",
			zap.Uint64("actorID", actor.ID), zap.Uint64("officierID", payload.OfficierID))
		return nil, apperrors.NewForbidden(string(authz.KindPermanence), string(authz.ActionCreate), authz.RuleNotResponsible)
	}

	p, err := s.fromPayload(ctx, payload)
	if err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		id, err := s.permanenceRepo.Create(ctx, tx, p)
		if err != nil {
			return err
		}
		p, err = s.permanenceRepo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		s.logger.Error("PermanenceService: ошибка создания", zap.Error(err))
		return nil, err
	}

	s.logger.Info("PermanenceService: permanence создана", zap.Uint64("id", p.ID), zap.Uint64("actorID", actor.ID))
	return s.Get(ctx, p.ID)
}

func (s *PermanenceService) Update(ctx context.Context, id uint64, payload dto.PermanenceDTO) (*dto.PermanenceResponseDTO, error) {
	c, err := s.access.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Check(authz.ActionUpdate, authz.KindPermanence, c); err != nil {
		s.logger.Warn("PermanenceService: изменение запрещено", zap.Uint64("id", id), zap.String("rule", apperrors.RuleOf(err)))
		return nil, err
	}

	p, err := s.fromPayload(ctx, payload)
	if err != nil {
		return nil, err
	}
	p.ID = id

	// офицер не может передать permanence другому: иначе потеряет к ней доступ на запись
	if c.Actor.IsOfficier() && p.OfficierID != c.Shift.OfficierID {
		return nil, apperrors.NewForbidden(string(authz.KindPermanence), string(authz.ActionUpdate), authz.RuleNotResponsible)
	}

	if err := s.permanenceRepo.Update(ctx, nil, p, authz.WriteGuardFor(c.Actor)); err != nil {
		s.logger.Error("PermanenceService: ошибка изменения", zap.Uint64("id", id), zap.Error(err))
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *PermanenceService) Delete(ctx context.Context, id uint64) error {
	c, err := s.access.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.gate.Check(authz.ActionDelete, authz.KindPermanence, c); err != nil {
		return err
	}
	if err := s.permanenceRepo.Delete(ctx, nil, id, authz.WriteGuardFor(c.Actor)); err != nil {
		return err
	}
	s.logger.Info("PermanenceService: permanence удалена", zap.Uint64("id", id), zap.Uint64("actorID", c.Actor.ID))
	return nil
}

// Transition: start / validate / reopen. Права проверяются до предусловия по состоянию;
// запись идёт через compare-and-set, поэтому параллельная вторая попытка получает ErrInvalidTransition.
func (s *PermanenceService) Transition(ctx context.Context, id uint64, verb workflow.Verb) (*dto.PermanenceResponseDTO, error) {
	c, err := s.access.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Check(authz.Action(verb), authz.KindPermanence, c); err != nil {
		s.logger.Warn("PermanenceService: переход отклонён",
			zap.Uint64("id", id), zap.String("verb", string(verb)),
			zap.String("statut", string(c.Shift.Statut)), zap.Error(err))
		return nil, err
	}

	res, err := workflow.Apply(c.Shift, verb, s.now())
	if err != nil {
		return nil, err
	}

	err = s.permanenceRepo.Transition(ctx, nil, id, res.Expected, res.Next, res.ValidatedAt)
	if err != nil {
		var te *apperrors.TransitionError
		if errors.As(err, &te) {
			te.Verb = string(verb)
		}
		return nil, fmt.Errorf("PermanenceService: %s: %w", verb, err)
	}

	from := c.Shift.Statut
	workflow.Commit(c.Shift, res)
	s.logger.Info("PermanenceService: статус изменён",
		zap.Uint64("id", id), zap.String("from", string(from)), zap.String("to", string(res.Next)),
		zap.Uint64("actorID", c.Actor.ID))

	s.bus.Publish(ctx, events.PermanenceTransitionedEvent{
		PermanenceID: id,
		Verb:         string(verb),
		From:         from,
		To:           res.Next,
		Actor:        c.Actor,
		IP:           utils.GetClientIP(ctx),
		At:           s.now(),
	})

	abilities := authz.AbilitiesFor(c)
	out := dto.NewPermanenceResponse(*c.Shift, &abilities)
	return &out, nil
}

func (s *PermanenceService) fromPayload(ctx context.Context, payload dto.PermanenceDTO) (*entities.Permanence, error) {
	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		return nil, apperrors.NewInvalidInputError("date invalide: %s", payload.Date)
	}
	officer, err := s.userRepo.FindByID(ctx, payload.OfficierID)
	if err != nil {
		return nil, asValidation(err, "officier %d introuvable", payload.OfficierID)
	}
	if !officer.IsOfficier() || !officer.IsActive {
		return nil, apperrors.NewInvalidInputError("l'utilisateur %d n'est pas un officier actif", payload.OfficierID)
	}
	return &entities.Permanence{
		Date:                date,
		HeureDebut:          payload.HeureDebut,
		HeureFin:            payload.HeureFin,
		OfficierID:          payload.OfficierID,
		CommentaireOfficier: payload.CommentaireOfficier.Ptr(),
	}, nil
}
