package authz

import (
	"testing"
	"time"

	"permanence-system/internal/entities"
	apperrors "permanence-system/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminID       = 1
	officerID     = 10
	otherOfficer  = 11
	ncoAID        = 20
	ncoBID        = 21
	ncoOutsiderID = 22
	viewerID      = 30
)

func user(id uint64, role entities.Role) *entities.User {
	return &entities.User{ID: id, Role: role, IsActive: true}
}

func operator(id uint64) *entities.User {
	u := user(id, entities.RoleSousOfficier)
	f := entities.FonctionOperateur
	u.Fonction = &f
	return u
}

func shift(status entities.PermanenceStatus) *entities.Permanence {
	p := &entities.Permanence{
		ID:         100,
		Date:       time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		OfficierID: officerID,
		Statut:     status,
	}
	if status == entities.StatusValidee {
		ts := time.Now()
		p.ValidatedAt = &ts
	}
	return p
}

func TestAuthorize_NilAndInactiveActorDenied(t *testing.T) {
	s := shift(entities.StatusEnCours)
	d := Authorize(ActionView, KindPermanence, Context{Shift: s})
	assert.False(t, d.Allowed)
	assert.Equal(t, RuleNoActor, d.Rule)

	admin := user(adminID, entities.RoleAdmin)
	admin.IsActive = false
	d = Authorize(ActionView, KindPermanence, ShiftContext(admin, s, false))
	assert.False(t, d.Allowed)
	assert.Equal(t, RuleInactiveActor, d.Rule)
}

func TestAuthorize_ViewerNeverMutates(t *testing.T) {
	viewer := user(viewerID, entities.RoleViewer)
	s := shift(entities.StatusEnCours)
	kinds := []ResourceKind{KindPermanence, KindAssignment, KindLogbookEvent, KindEnergyReading,
		KindRestartRecord, KindMaterialReception, KindDevice, KindSite}
	actions := []Action{ActionCreate, ActionUpdate, ActionDelete, ActionStart, ActionValidate, ActionReopen}

	for _, k := range kinds {
		for _, a := range actions {
			d := Authorize(a, k, Context{Actor: viewer, Shift: s})
			assert.False(t, d.Allowed, "%s %s", k, a)
			assert.Equal(t, RuleViewerReadOnly, d.Rule, "%s %s", k, a)
		}
		assert.True(t, CanDo(ActionView, k, Context{Actor: viewer, Shift: s}), k)
	}
}

func TestAuthorize_NCOCannotTouchRestartRecords(t *testing.T) {
	nco := user(ncoAID, entities.RoleSousOfficier)
	s := shift(entities.StatusEnCours)
	for _, a := range []Action{ActionViewAny, ActionView, ActionCreate, ActionUpdate, ActionDelete} {
		d := Authorize(a, KindRestartRecord, Context{Actor: nco, Shift: s, IsAssigned: true})
		assert.False(t, d.Allowed, a)
		assert.Equal(t, RuleNCORestartInvisible, d.Rule)
	}
}

func TestAuthorize_NCONeverAuthorsReceptions(t *testing.T) {
	op := operator(ncoAID)
	s := shift(entities.StatusEnCours)
	own := &entities.ReceptionMateriel{PermanenceID: s.ID, UserID: op.ID}
	for _, a := range []Action{ActionCreate, ActionUpdate, ActionDelete, ActionView} {
		d := Authorize(a, KindMaterialReception, Context{Actor: op, Shift: s, Target: own, IsAssigned: true})
		assert.False(t, d.Allowed, a)
		assert.Equal(t, RuleNCOReception, d.Rule)
	}
}

func TestAuthorize_AdminOverridesLock(t *testing.T) {
	admin := user(adminID, entities.RoleAdmin)
	s := shift(entities.StatusValidee)
	ev := &entities.RelationManageriale{PermanenceID: s.ID, AuteurID: ncoAID}

	for _, k := range []ResourceKind{KindLogbookEvent, KindEnergyReading, KindRestartRecord, KindMaterialReception, KindAssignment} {
		d := Authorize(ActionUpdate, k, Context{Actor: admin, Shift: s, Target: ev})
		assert.True(t, d.Allowed, k)
		assert.Equal(t, RuleAdminOverride, d.Rule)
	}
	assert.True(t, CanDo(ActionDelete, KindPermanence, ShiftContext(admin, s, false)))
}

func TestAuthorize_LockGate(t *testing.T) {
	officer := user(officerID, entities.RoleOfficier)
	nco := user(ncoAID, entities.RoleSousOfficier)
	s := shift(entities.StatusValidee)
	ev := &entities.RelationManageriale{PermanenceID: s.ID, AuteurID: ncoAID}

	d := Authorize(ActionUpdate, KindLogbookEvent, Context{Actor: officer, Shift: s, Target: ev})
	assert.False(t, d.Allowed)
	assert.Equal(t, RuleLocked, d.Rule)

	d = Authorize(ActionDelete, KindLogbookEvent, Context{Actor: nco, Shift: s, Target: ev, IsAssigned: true})
	assert.False(t, d.Allowed)
	assert.Equal(t, RuleLocked, d.Rule)

	d = Authorize(ActionCreate, KindAssignment, Context{Actor: officer, Shift: s})
	assert.Equal(t, RuleLocked, d.Rule)

	// чтение после блокировки разрешено
	assert.True(t, CanDo(ActionView, KindLogbookEvent, Context{Actor: nco, Shift: s, Target: ev, IsAssigned: true}))
}

func TestAuthorize_OfficerOwnership(t *testing.T) {
	resp := user(officerID, entities.RoleOfficier)
	other := user(otherOfficer, entities.RoleOfficier)
	s := shift(entities.StatusEnCours)

	for _, k := range []ResourceKind{KindAssignment, KindLogbookEvent, KindRestartRecord, KindMaterialReception} {
		assert.True(t, CanDo(ActionCreate, k, Context{Actor: resp, Shift: s}), k)
		d := Authorize(ActionCreate, k, Context{Actor: other, Shift: s})
		assert.False(t, d.Allowed, k)
		assert.Equal(t, RuleNotResponsible, d.Rule, k)
	}
	assert.True(t, CanDo(ActionUpdate, KindPermanence, ShiftContext(resp, s, false)))
	assert.False(t, CanDo(ActionUpdate, KindPermanence, ShiftContext(other, s, false)))
	assert.False(t, CanDo(ActionDelete, KindPermanence, ShiftContext(resp, s, false)))
}

func TestAuthorize_OfficerReadsEnergyOnly(t *testing.T) {
	resp := user(officerID, entities.RoleOfficier)
	s := shift(entities.StatusEnCours)
	r := &entities.ReleveEnergie{PermanenceID: s.ID, SousOfficierID: ncoAID}

	assert.True(t, CanDo(ActionView, KindEnergyReading, Context{Actor: resp, Shift: s, Target: r}))
	d := Authorize(ActionUpdate, KindEnergyReading, Context{Actor: resp, Shift: s, Target: r})
	assert.False(t, d.Allowed)
	assert.Equal(t, RuleOfficerReadOnly, d.Rule)
}

func TestAuthorize_NCOAuthorship(t *testing.T) {
	a := user(ncoAID, entities.RoleSousOfficier)
	b := user(ncoBID, entities.RoleSousOfficier)
	s := shift(entities.StatusEnCours)
	e1 := &entities.RelationManageriale{ID: 1, PermanenceID: s.ID, AuteurID: ncoAID}

	assert.True(t, CanDo(ActionUpdate, KindLogbookEvent, Context{Actor: a, Shift: s, Target: e1, IsAssigned: true}))
	assert.True(t, CanDo(ActionView, KindLogbookEvent, Context{Actor: a, Shift: s, Target: e1, IsAssigned: true}))

	d := Authorize(ActionView, KindLogbookEvent, Context{Actor: b, Shift: s, Target: e1, IsAssigned: true})
	assert.False(t, d.Allowed)
	assert.Equal(t, RuleNotAuthor, d.Rule)

	// автор, но больше не назначен
	d = Authorize(ActionUpdate, KindLogbookEvent, Context{Actor: a, Shift: s, Target: e1, IsAssigned: false})
	assert.False(t, d.Allowed)
	assert.Equal(t, RuleNotAssigned, d.Rule)

	assert.True(t, CanDo(ActionCreate, KindEnergyReading, Context{Actor: b, Shift: s, IsAssigned: true}))
	assert.False(t, CanDo(ActionCreate, KindEnergyReading, Context{Actor: b, Shift: s, IsAssigned: false}))
}

func TestAuthorize_Transitions(t *testing.T) {
	admin := user(adminID, entities.RoleAdmin)
	resp := user(officerID, entities.RoleOfficier)
	other := user(otherOfficer, entities.RoleOfficier)
	nco := user(ncoAID, entities.RoleSousOfficier)

	planned := shift(entities.StatusPlanifiee)
	running := shift(entities.StatusEnCours)
	locked := shift(entities.StatusValidee)

	assert.True(t, CanDo(ActionStart, KindPermanence, ShiftContext(resp, planned, false)))
	assert.Equal(t, RuleState, Authorize(ActionStart, KindPermanence, ShiftContext(resp, running, false)).Rule)
	assert.Equal(t, RuleNotResponsible, Authorize(ActionValidate, KindPermanence, ShiftContext(other, running, false)).Rule)
	assert.Equal(t, RuleRoleDenied, Authorize(ActionValidate, KindPermanence, ShiftContext(nco, running, true)).Rule)

	// admin не обходит предусловие по состоянию
	d := Authorize(ActionValidate, KindPermanence, ShiftContext(admin, locked, false))
	assert.False(t, d.Allowed)
	assert.Equal(t, RuleState, d.Rule)

	assert.True(t, CanDo(ActionReopen, KindPermanence, ShiftContext(admin, locked, false)))
	assert.Equal(t, RuleAdminOnly, Authorize(ActionReopen, KindPermanence, ShiftContext(resp, locked, false)).Rule)
	assert.Equal(t, RuleState, Authorize(ActionReopen, KindPermanence, ShiftContext(admin, running, false)).Rule)
}

func TestCanPrint(t *testing.T) {
	admin := user(adminID, entities.RoleAdmin)
	resp := user(officerID, entities.RoleOfficier)
	other := user(otherOfficer, entities.RoleOfficier)
	viewer := user(viewerID, entities.RoleViewer)
	nco := user(ncoAID, entities.RoleSousOfficier)

	for _, st := range []entities.PermanenceStatus{entities.StatusPlanifiee, entities.StatusEnCours, entities.StatusValidee} {
		s := shift(st)
		locked := s.IsLocked()

		// sous-officier никогда, даже назначенный
		d := Authorize(ActionPrint, KindPermanence, ShiftContext(nco, s, true))
		assert.False(t, d.Allowed, st)

		assert.Equal(t, locked, CanDo(ActionPrint, KindPermanence, ShiftContext(resp, s, false)), st)
		assert.False(t, CanDo(ActionPrint, KindPermanence, ShiftContext(other, s, false)), st)
		assert.Equal(t, locked, CanDo(ActionPrint, KindPermanence, ShiftContext(admin, s, false)), st)
		assert.Equal(t, locked, CanDo(ActionPrint, KindPermanence, ShiftContext(viewer, s, false)), st)
	}

	assert.Equal(t, RulePrintNCO, Authorize(ActionPrint, KindPermanence, ShiftContext(nco, shift(entities.StatusValidee), true)).Rule)
	assert.Equal(t, RulePrintNotValidated, Authorize(ActionPrint, KindPermanence, ShiftContext(admin, shift(entities.StatusEnCours), false)).Rule)
}

func TestCanExport_AdminOnly(t *testing.T) {
	for _, u := range []*entities.User{
		user(officerID, entities.RoleOfficier),
		user(ncoAID, entities.RoleSousOfficier),
		user(viewerID, entities.RoleViewer),
	} {
		d := Authorize(ActionExport, KindUser, Context{Actor: u})
		assert.False(t, d.Allowed, u.Role)
		assert.Equal(t, RuleExportAdminOnly, d.Rule)
	}
	assert.True(t, CanDo(ActionExport, KindUser, Context{Actor: user(adminID, entities.RoleAdmin)}))
}

func TestAuthorize_ReferenceData(t *testing.T) {
	officer := user(officerID, entities.RoleOfficier)
	nco := user(ncoAID, entities.RoleSousOfficier)
	for _, k := range []ResourceKind{KindDevice, KindSite} {
		assert.True(t, CanDo(ActionView, k, Context{Actor: nco}))
		assert.False(t, CanDo(ActionCreate, k, Context{Actor: nco}))
		assert.True(t, CanDo(ActionCreate, k, Context{Actor: officer}))
		assert.False(t, CanDo(ActionDelete, k, Context{Actor: officer}))
	}
	assert.False(t, CanDo(ActionViewAny, KindUser, Context{Actor: officer}))
	assert.False(t, CanDo(ActionUpdate, KindSetting, Context{Actor: officer}))
}

func TestGatekeeper_ErrorMapping(t *testing.T) {
	g := NewGatekeeper()
	resp := user(officerID, entities.RoleOfficier)
	other := user(otherOfficer, entities.RoleOfficier)
	outsider := user(ncoOutsiderID, entities.RoleSousOfficier)
	ncoB := user(ncoBID, entities.RoleSousOfficier)
	locked := shift(entities.StatusValidee)
	running := shift(entities.StatusEnCours)

	err := g.Check(ActionStart, KindPermanence, ShiftContext(resp, locked, false))
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	err = g.Check(ActionValidate, KindPermanence, ShiftContext(other, running, false))
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, RuleNotResponsible, apperrors.RuleOf(err))

	// sous-officier без назначения: permanence для него не существует
	err = g.Check(ActionView, KindPermanence, ShiftContext(outsider, running, false))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	err = g.Check(ActionCreate, KindLogbookEvent, Context{Actor: outsider, Shift: running})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// чужая запись вне раздела тоже "не найдена"
	e1 := &entities.RelationManageriale{ID: 1, PermanenceID: running.ID, AuteurID: ncoAID}
	err = g.Check(ActionView, KindLogbookEvent, Context{Actor: ncoB, Shift: running, Target: e1, IsAssigned: true})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	err = g.Check(ActionView, KindRestartRecord, Context{Actor: ncoB, Shift: running, IsAssigned: true})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAbilitiesFor(t *testing.T) {
	resp := user(officerID, entities.RoleOfficier)
	nco := operator(ncoAID)
	running := shift(entities.StatusEnCours)

	ab := AbilitiesFor(ShiftContext(resp, running, false))
	assert.True(t, ab.Validate)
	assert.False(t, ab.Start)
	assert.False(t, ab.Reopen)
	assert.False(t, ab.Print)
	assert.True(t, ab.CreateRestartRecord)
	assert.False(t, ab.CreateEnergyReading)

	ab = AbilitiesFor(ShiftContext(nco, running, true))
	assert.True(t, ab.View)
	assert.False(t, ab.ViewOfficerSection)
	assert.False(t, ab.ViewOtherNCOs)
	assert.False(t, ab.ViewRestartRecords)
	assert.False(t, ab.ViewReceptions)
	assert.True(t, ab.CreateLogbookEvent)
	assert.True(t, ab.CreateEnergyReading)
	assert.False(t, ab.Print)
}
