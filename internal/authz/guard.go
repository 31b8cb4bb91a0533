package authz

import (
	sq "github.com/Masterminds/squirrel"

	"permanence-system/internal/entities"
	apperrors "permanence-system/pkg/errors"
)

// WriteGuard повторяет проверку блокировки validee внутри самого UPDATE/DELETE:
// между загрузкой permanence и записью её могли валидировать.
// Admin блокировку обходит.
type WriteGuard struct {
	bypass bool
}

func WriteGuardFor(actor *entities.User) WriteGuard {
	return WriteGuard{bypass: actor != nil && actor.IsAdmin()}
}

// Active: guard добавляет условие к записи.
func (g WriteGuard) Active() bool {
	return !g.bypass
}

// Predicate: условие на строку ресурса kind; nil, если guard неактивен.
func (g WriteGuard) Predicate(kind ResourceKind) sq.Sqlizer {
	if g.bypass {
		return nil
	}
	locked := string(entities.StatusValidee)
	if kind == KindPermanence {
		return sq.NotEq{"statut": locked}
	}
	return sq.Expr("permanence_id IN (SELECT id FROM permanences WHERE statut <> ?)", locked)
}

// Allows: та же проверка для уже загруженного статуса.
func (g WriteGuard) Allows(statut entities.PermanenceStatus) bool {
	return g.bypass || statut != entities.StatusValidee
}

// Err: запись не прошла guard.
func (g WriteGuard) Err(kind ResourceKind, action Action) error {
	return apperrors.NewForbidden(string(kind), string(action), RuleLocked)
}
