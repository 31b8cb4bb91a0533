// internal/authz/permissions.go
package authz

// --- ДЕЙСТВИЯ ---

type Action string

const (
	ActionViewAny  Action = "viewAny"
	ActionView     Action = "view"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
	ActionStart    Action = "start"
	ActionValidate Action = "validate"
	ActionReopen   Action = "reopen"
	ActionPrint    Action = "print"
	ActionExport   Action = "export"

	// Секции карточки permanence
	ActionViewOfficerSection Action = "viewOfficerSection"
	ActionViewOtherNCOs      Action = "viewOtherSousOfficiers"
)

// IsMutation: изменяющие действия (запрещены Viewer и закрыты блокировкой).
func (a Action) IsMutation() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionStart, ActionValidate, ActionReopen:
		return true
	}
	return false
}

func (a Action) IsTransition() bool {
	return a == ActionStart || a == ActionValidate || a == ActionReopen
}

// --- ТИПЫ РЕСУРСОВ ---

type ResourceKind string

const (
	KindPermanence        ResourceKind = "permanence"
	KindAssignment        ResourceKind = "assignment"
	KindLogbookEvent      ResourceKind = "logbook_event"
	KindEnergyReading     ResourceKind = "energy_reading"
	KindRestartRecord     ResourceKind = "restart_record"
	KindMaterialReception ResourceKind = "material_reception"
	KindDevice            ResourceKind = "device"
	KindSite              ResourceKind = "site"
	KindUser              ResourceKind = "user"
	KindSetting           ResourceKind = "setting"
	KindAuditLog          ResourceKind = "audit_log"
)

// --- ИМЕНА ПРАВИЛ (пишутся в аудит) ---

const (
	RuleNoActor             = "no_actor"
	RuleInactiveActor       = "inactive_actor"
	RuleViewerReadOnly      = "viewer_read_only"
	RuleNCORestartInvisible = "nco_restart_invisible"
	RuleNCOReception        = "nco_reception_forbidden"
	RuleAdminOverride       = "admin_override"
	RuleState               = "state"
	RuleLocked              = "locked"
	RuleResponsible         = "responsible_officer"
	RuleNotResponsible      = "not_responsible"
	RuleAssigned            = "assigned"
	RuleNotAssigned         = "not_assigned"
	RuleAuthor              = "author"
	RuleNotAuthor           = "not_author"
	RuleOfficerReadOnly     = "officer_read_only"
	RuleRoleAllowed         = "role_allowed"
	RuleRoleDenied          = "role_denied"
	RuleAdminOnly           = "admin_only"
	RulePrintNotValidated   = "print_not_validated"
	RulePrintNCO            = "print_nco"
	RulePrintAllowed        = "print_allowed"
	RuleExportAdminOnly     = "export_admin_only"
	RuleUnknownKind         = "unknown_kind"
)
