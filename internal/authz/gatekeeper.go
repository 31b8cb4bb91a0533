package authz

import (
	"permanence-system/internal/entities"
	apperrors "permanence-system/pkg/errors"
)

// Gatekeeper превращает Decision в ошибку приложения.
type Gatekeeper struct{}

func NewGatekeeper() *Gatekeeper {
	return &Gatekeeper{}
}

// Check возвращает nil, если действие разрешено.
//   - отказ по состоянию (start/validate/reopen) -> ErrInvalidTransition;
//   - permanence или запись вне раздела actor -> ErrNotFound, чтобы не раскрывать существование;
//   - иначе ForbiddenError с именем правила.
func (g *Gatekeeper) Check(action Action, kind ResourceKind, c Context) error {
	d := Authorize(action, kind, c)
	if d.Allowed {
		return nil
	}
	return DecisionError(action, kind, c, d)
}

func DecisionError(action Action, kind ResourceKind, c Context, d Decision) error {
	if d.Rule == RuleState && c.Shift != nil {
		return &apperrors.TransitionError{Verb: string(action), From: string(c.Shift.Statut)}
	}
	if !canSeeShift(c) {
		return apperrors.ErrNotFound
	}
	if action == ActionView {
		switch d.Rule {
		case RuleNotAuthor, RuleNotAssigned, RuleNCORestartInvisible, RuleNCOReception, RuleNotResponsible:
			return apperrors.ErrNotFound
		}
	}
	return apperrors.NewForbidden(string(kind), string(action), d.Rule)
}

// CanSeeShift видит ли actor саму permanence (для sous-officier: только назначенные).
func (g *Gatekeeper) CanSeeShift(c Context) bool {
	return canSeeShift(c)
}

func canSeeShift(c Context) bool {
	if c.Shift == nil {
		return true
	}
	return CanDo(ActionView, KindPermanence, Context{Actor: c.Actor, Shift: c.Shift, Target: c.Shift, IsAssigned: c.IsAssigned})
}

// ShiftContext: контекст проверки самой permanence.
func ShiftContext(actor *entities.User, shift *entities.Permanence, assigned bool) Context {
	return Context{Actor: actor, Shift: shift, Target: shift, IsAssigned: assigned}
}
