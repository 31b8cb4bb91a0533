package authz

import (
	"permanence-system/internal/entities"
)

// policy вызывается после общих проверок: actor активен, не admin,
// запреты по роли и блокировка уже применены.
type policy func(actor *entities.User, action Action, c Context) Decision

var policies = map[ResourceKind]policy{
	KindPermanence:        permanencePolicy,
	KindAssignment:        assignmentPolicy,
	KindLogbookEvent:      logbookPolicy,
	KindEnergyReading:     energyPolicy,
	KindRestartRecord:     officerSectionPolicy,
	KindMaterialReception: officerSectionPolicy,
	KindDevice:            referencePolicy,
	KindSite:              referencePolicy,
	KindUser:              adminOnlyPolicy,
	KindSetting:           adminOnlyPolicy,
	KindAuditLog:          adminOnlyPolicy,
}

func isReadOnly(action Action) bool {
	return action == ActionView || action == ActionViewAny
}

// responsible: офицер может менять только ресурсы своих permanences.
func responsible(actor *entities.User, shift *entities.Permanence) Decision {
	if shift != nil && shift.IsResponsible(actor.ID) {
		return allow(RuleResponsible)
	}
	return deny(RuleNotResponsible)
}

func permanencePolicy(actor *entities.User, action Action, c Context) Decision {
	switch action {
	case ActionViewAny:
		// сужение для sous-officier делает Partition
		return allow(RuleRoleAllowed)
	case ActionView:
		if actor.IsSousOfficier() {
			if c.IsAssigned {
				return allow(RuleAssigned)
			}
			return deny(RuleNotAssigned)
		}
		return allow(RuleRoleAllowed)
	case ActionViewOfficerSection, ActionViewOtherNCOs:
		if actor.IsSousOfficier() {
			return deny(RuleRoleDenied)
		}
		return allow(RuleRoleAllowed)
	case ActionCreate:
		if actor.IsOfficier() {
			return allow(RuleRoleAllowed)
		}
		return deny(RuleRoleDenied)
	case ActionUpdate:
		if actor.IsOfficier() {
			return responsible(actor, c.Shift)
		}
		return deny(RuleRoleDenied)
	case ActionDelete:
		return deny(RuleAdminOnly)
	}
	return deny(RuleRoleDenied)
}

func assignmentPolicy(actor *entities.User, action Action, c Context) Decision {
	if isReadOnly(action) {
		if !actor.IsSousOfficier() {
			return allow(RuleRoleAllowed)
		}
		if !c.IsAssigned {
			return deny(RuleNotAssigned)
		}
		if action == ActionViewAny {
			return allow(RuleAssigned)
		}
		// sous-officier видит только свою строку
		if a, ok := c.Target.(*entities.Affectation); ok && a.SousOfficierID == actor.ID {
			return allow(RuleAuthor)
		}
		return deny(RuleNotAuthor)
	}
	if actor.IsOfficier() {
		return responsible(actor, c.Shift)
	}
	return deny(RuleRoleDenied)
}

func logbookPolicy(actor *entities.User, action Action, c Context) Decision {
	switch {
	case actor.IsOfficier():
		if isReadOnly(action) {
			return allow(RuleRoleAllowed)
		}
		return responsible(actor, c.Shift)
	case actor.IsViewer():
		return allow(RuleRoleAllowed)
	case actor.IsSousOfficier():
		return authoredByAssignedNCO(actor, action, c)
	}
	return deny(RuleRoleDenied)
}

// energyPolicy: как журнал, но офицер только читает.
func energyPolicy(actor *entities.User, action Action, c Context) Decision {
	switch {
	case actor.IsOfficier():
		if isReadOnly(action) {
			return allow(RuleRoleAllowed)
		}
		return deny(RuleOfficerReadOnly)
	case actor.IsViewer():
		return allow(RuleRoleAllowed)
	case actor.IsSousOfficier():
		return authoredByAssignedNCO(actor, action, c)
	}
	return deny(RuleRoleDenied)
}

// authoredByAssignedNCO: sous-officier работает только со своими записями
// на permanences, куда он назначен.
func authoredByAssignedNCO(actor *entities.User, action Action, c Context) Decision {
	if !c.IsAssigned {
		return deny(RuleNotAssigned)
	}
	if action == ActionViewAny || action == ActionCreate {
		return allow(RuleAssigned)
	}
	author, ok := authorOf(c.Target)
	if !ok || author != actor.ID {
		return deny(RuleNotAuthor)
	}
	return allow(RuleAuthor)
}

// officerSectionPolicy redémarrages и réceptions: sous-officier сюда не доходит.
func officerSectionPolicy(actor *entities.User, action Action, c Context) Decision {
	switch {
	case actor.IsViewer():
		return allow(RuleRoleAllowed)
	case actor.IsOfficier():
		if action == ActionViewAny && c.Shift == nil {
			return allow(RuleRoleAllowed)
		}
		return responsible(actor, c.Shift)
	}
	return deny(RuleRoleDenied)
}

// referencePolicy appareils и sites: читают все, правят admin и officier, удаляет admin.
func referencePolicy(actor *entities.User, action Action, _ Context) Decision {
	switch action {
	case ActionView, ActionViewAny:
		return allow(RuleRoleAllowed)
	case ActionCreate, ActionUpdate:
		if actor.IsOfficier() {
			return allow(RuleRoleAllowed)
		}
	case ActionDelete:
		return deny(RuleAdminOnly)
	}
	return deny(RuleRoleDenied)
}

func adminOnlyPolicy(_ *entities.User, _ Action, _ Context) Decision {
	return deny(RuleAdminOnly)
}

func authorOf(target interface{}) (uint64, bool) {
	switch t := target.(type) {
	case *entities.RelationManageriale:
		return t.AuteurID, true
	case *entities.ReleveEnergie:
		return t.SousOfficierID, true
	case *entities.Affectation:
		return t.SousOfficierID, true
	}
	return 0, false
}
