package authz

import (
	"permanence-system/internal/entities"
	"permanence-system/internal/workflow"
)

// Context: всё, что нужно для решения. Загружается вызывающим заранее;
// движок ничего не читает из хранилища.
type Context struct {
	Actor *entities.User
	// Shift: permanence, к которой относится ресурс (или сама permanence).
	Shift *entities.Permanence
	// Target: конкретная запись (nil для create/viewAny).
	Target interface{}
	// IsAssigned: есть ли у Actor назначение на Shift.
	IsAssigned bool
}

type Decision struct {
	Allowed bool
	Rule    string
}

func allow(rule string) Decision { return Decision{Allowed: true, Rule: rule} }
func deny(rule string) Decision  { return Decision{Allowed: false, Rule: rule} }

// Authorize: единая точка принятия решения. Порядок проверок:
//  1. абсолютные запреты по роли;
//  2. admin (кроме предусловий по состоянию для start/validate/reopen);
//  3. блокировка validee для всех изменений;
//  4. владение (ответственный офицер, автор-назначенный sous-officier).
//
// Печать и экспорт имеют собственные наборы правил.
func Authorize(action Action, kind ResourceKind, c Context) Decision {
	actor := c.Actor
	if actor == nil {
		return deny(RuleNoActor)
	}
	if !actor.IsActive {
		return deny(RuleInactiveActor)
	}

	switch action {
	case ActionPrint:
		return canPrint(actor, c.Shift)
	case ActionExport:
		return canExport(actor)
	}

	// 1. Абсолютные запреты
	if actor.IsViewer() && action.IsMutation() {
		return deny(RuleViewerReadOnly)
	}
	if actor.IsSousOfficier() {
		if kind == KindRestartRecord {
			return deny(RuleNCORestartInvisible)
		}
		if kind == KindMaterialReception {
			return deny(RuleNCOReception)
		}
	}

	// Переходы статуса: сначала роль, затем состояние
	if action.IsTransition() {
		return canTransition(actor, action, c.Shift)
	}

	// 2. Admin
	if actor.IsAdmin() {
		return allow(RuleAdminOverride)
	}

	// 3. Блокировка
	if action.IsMutation() && c.Shift != nil && c.Shift.IsLocked() {
		return deny(RuleLocked)
	}

	// 4. Правила конкретного ресурса
	policy, ok := policies[kind]
	if !ok {
		return deny(RuleUnknownKind)
	}
	return policy(actor, action, c)
}

// CanDo: короткая форма для мест, где важен только результат.
func CanDo(action Action, kind ResourceKind, c Context) bool {
	return Authorize(action, kind, c).Allowed
}

func canTransition(actor *entities.User, action Action, shift *entities.Permanence) Decision {
	if shift == nil {
		return deny(RuleState)
	}

	var roleOK Decision
	switch action {
	case ActionReopen:
		if !actor.IsAdmin() {
			return deny(RuleAdminOnly)
		}
		roleOK = allow(RuleAdminOverride)
	default:
		switch {
		case actor.IsAdmin():
			roleOK = allow(RuleAdminOverride)
		case actor.IsOfficier() && shift.IsResponsible(actor.ID):
			roleOK = allow(RuleResponsible)
		case actor.IsOfficier():
			return deny(RuleNotResponsible)
		default:
			return deny(RuleRoleDenied)
		}
	}

	if !workflow.CanApply(shift.Statut, workflow.Verb(action)) {
		return deny(RuleState)
	}
	return roleOK
}

// canPrint отдельный набор правил: только validee, никогда sous-officier,
// офицер только ответственный.
func canPrint(actor *entities.User, shift *entities.Permanence) Decision {
	if shift == nil || !shift.IsLocked() {
		return deny(RulePrintNotValidated)
	}
	switch {
	case actor.IsSousOfficier():
		return deny(RulePrintNCO)
	case actor.IsViewer(), actor.IsAdmin():
		return allow(RulePrintAllowed)
	case actor.IsOfficier():
		if shift.IsResponsible(actor.ID) {
			return allow(RulePrintAllowed)
		}
		return deny(RuleNotResponsible)
	}
	return deny(RuleRoleDenied)
}

func canExport(actor *entities.User) Decision {
	if actor.IsAdmin() {
		return allow(RuleAdminOverride)
	}
	return deny(RuleExportAdminOnly)
}
