package authz

// Abilities набор решений для UI: какие действия показывать по permanence.
type Abilities struct {
	View               bool `json:"view"`
	Update             bool `json:"update"`
	Delete             bool `json:"delete"`
	Start              bool `json:"start"`
	Validate           bool `json:"validate"`
	Reopen             bool `json:"reopen"`
	Print              bool `json:"print"`
	ViewOfficerSection bool `json:"view_officer_section"`
	ViewOtherNCOs      bool `json:"view_other_sous_officiers"`

	CreateAssignment     bool `json:"create_assignment"`
	CreateLogbookEvent   bool `json:"create_logbook_event"`
	CreateEnergyReading  bool `json:"create_energy_reading"`
	CreateRestartRecord  bool `json:"create_restart_record"`
	CreateReception      bool `json:"create_material_reception"`
	ViewRestartRecords   bool `json:"view_restart_records"`
	ViewReceptions       bool `json:"view_material_receptions"`
	ViewEnergyReadings   bool `json:"view_energy_readings"`
	ViewLogbookEvents    bool `json:"view_logbook_events"`
	ViewAssignmentRoster bool `json:"view_assignments"`
}

func AbilitiesFor(c Context) Abilities {
	child := Context{Actor: c.Actor, Shift: c.Shift, IsAssigned: c.IsAssigned}
	return Abilities{
		View:               CanDo(ActionView, KindPermanence, c),
		Update:             CanDo(ActionUpdate, KindPermanence, c),
		Delete:             CanDo(ActionDelete, KindPermanence, c),
		Start:              CanDo(ActionStart, KindPermanence, c),
		Validate:           CanDo(ActionValidate, KindPermanence, c),
		Reopen:             CanDo(ActionReopen, KindPermanence, c),
		Print:              CanDo(ActionPrint, KindPermanence, c),
		ViewOfficerSection: CanDo(ActionViewOfficerSection, KindPermanence, c),
		ViewOtherNCOs:      CanDo(ActionViewOtherNCOs, KindPermanence, c),

		CreateAssignment:     CanDo(ActionCreate, KindAssignment, child),
		CreateLogbookEvent:   CanDo(ActionCreate, KindLogbookEvent, child),
		CreateEnergyReading:  CanDo(ActionCreate, KindEnergyReading, child),
		CreateRestartRecord:  CanDo(ActionCreate, KindRestartRecord, child),
		CreateReception:      CanDo(ActionCreate, KindMaterialReception, child),
		ViewRestartRecords:   CanDo(ActionViewAny, KindRestartRecord, child),
		ViewReceptions:       CanDo(ActionViewAny, KindMaterialReception, child),
		ViewEnergyReadings:   CanDo(ActionViewAny, KindEnergyReading, child),
		ViewLogbookEvents:    CanDo(ActionViewAny, KindLogbookEvent, child),
		ViewAssignmentRoster: CanDo(ActionViewOtherNCOs, KindPermanence, c),
	}
}
