// Package workflow: конечный автомат статуса permanence.
package workflow

import (
	"fmt"
	"time"

	"permanence-system/internal/entities"
	apperrors "permanence-system/pkg/errors"
)

type Verb string

const (
	VerbStart    Verb = "start"
	VerbValidate Verb = "validate"
	VerbReopen   Verb = "reopen"
)

func ParseVerb(s string) (Verb, error) {
	switch v := Verb(s); v {
	case VerbStart, VerbValidate, VerbReopen:
		return v, nil
	}
	return "", fmt.Errorf("%w: verbe inconnu %q", apperrors.ErrBadRequest, s)
}

// Result: что нужно записать и какое состояние ожидается в хранилище (compare-and-set).
type Result struct {
	Expected    entities.PermanenceStatus
	Next        entities.PermanenceStatus
	ValidatedAt *time.Time
}

// CanApply: только предусловие по состоянию, без учёта ролей.
func CanApply(status entities.PermanenceStatus, verb Verb) bool {
	switch verb {
	case VerbStart:
		return status == entities.StatusPlanifiee
	case VerbValidate:
		return status != entities.StatusValidee
	case VerbReopen:
		return status == entities.StatusValidee
	}
	return false
}

// Apply вычисляет переход. Сущность не меняется; вызывающий сохраняет Result и
// только после успешного CAS применяет его через Commit.
func Apply(p *entities.Permanence, verb Verb, now time.Time) (Result, error) {
	if !CanApply(p.Statut, verb) {
		return Result{}, &apperrors.TransitionError{Verb: string(verb), From: string(p.Statut)}
	}

	res := Result{Expected: p.Statut}
	switch verb {
	case VerbStart:
		res.Next = entities.StatusEnCours
		res.ValidatedAt = p.ValidatedAt
	case VerbValidate:
		res.Next = entities.StatusValidee
		ts := now
		res.ValidatedAt = &ts
	case VerbReopen:
		res.Next = entities.StatusEnCours
		res.ValidatedAt = nil
	}
	return res, nil
}

// Commit переносит результат перехода на сущность.
func Commit(p *entities.Permanence, res Result) {
	p.Statut = res.Next
	p.ValidatedAt = res.ValidatedAt
}
