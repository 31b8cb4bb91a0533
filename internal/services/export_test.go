package services

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"permanence-system/internal/entities"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/types"
	"permanence-system/pkg/utils"
)

func newExportService(r *repos) ExportServiceInterface {
	audit := NewAuditService(r.logs, nop())
	return NewExportService(r.users, r.shifts, r.assignments, r.logbook, r.settings, r.logs, audit, nop())
}

func TestExportService_AdminOnly(t *testing.T) {
	f := newRegistreFixture(t)
	svc := newExportService(f.r)

	for _, actor := range []*entities.User{f.officer, f.viewer, f.nco} {
		_, err := svc.Export(asActor(actor), "users", "csv", types.Filter{})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)

		last := f.r.s.lastLog()
		assert.Equal(t, entities.OutcomeDenied, last.Outcome)
		require.NotNil(t, last.Rule)
		assert.Equal(t, "export_admin_only", *last.Rule)
	}

	_, err := svc.Export(asActor(f.admin), "payroll", "csv", types.Filter{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, entities.OutcomeFailed, f.r.s.lastLog().Outcome)
	_, err = svc.Export(asActor(f.admin), "users", "pdf", types.Filter{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, entities.OutcomeFailed, f.r.s.lastLog().Outcome)
}

func TestExportService_LoadFailureAudited(t *testing.T) {
	f := newRegistreFixture(t)
	f.r.users.listErr = errors.New("db down")
	svc := newExportService(f.r)

	for _, kind := range []string{"users", "backup"} {
		before := len(f.r.s.logs)
		_, err := svc.Export(asActor(f.admin), kind, "csv", types.Filter{})
		require.Error(t, err, kind)

		require.Len(t, f.r.s.logs, before+1, kind)
		last := f.r.s.lastLog()
		assert.Equal(t, entities.OutcomeFailed, last.Outcome, kind)
		require.NotNil(t, last.ActorID)
		assert.Equal(t, f.admin.ID, *last.ActorID)
		assert.Equal(t, "db down", last.Details["error"], kind)
	}
}

func TestExportService_UsersWithoutPasswords(t *testing.T) {
	f := newRegistreFixture(t)
	f.r.s.mu.Lock()
	for _, u := range f.r.s.users {
		u.Password = "$2a$10$secret-hash"
	}
	f.r.s.mu.Unlock()
	svc := newExportService(f.r)

	file, err := svc.Export(asActor(f.admin), "users", "csv", types.Filter{})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))
	body := string(file.Content)
	assert.NotContains(t, body, "secret-hash")
	assert.NotContains(t, body, "password")
	assert.Contains(t, body, "Sous-officier")

	last := f.r.s.lastLog()
	assert.Equal(t, entities.OutcomeAllowed, last.Outcome)
	require.NotNil(t, last.RecordCount)
	assert.Equal(t, len(f.r.s.users), *last.RecordCount)
}

func TestExportService_AuditFailureAborts(t *testing.T) {
	f := newRegistreFixture(t)
	svc := newExportService(f.r)
	f.r.logs.err = errors.New("db down")

	file, err := svc.Export(asActor(f.admin), "permanences", "json", types.Filter{})
	require.Error(t, err)
	assert.Nil(t, file)
}

func TestExportService_SettingsMasked(t *testing.T) {
	r := newRepos(t)
	admin := r.s.addUser(entities.RoleAdmin, nil)
	r.s.addSetting("logo_direction", entities.SettingFile, utils.ToPtr("logos/secret.png"))
	r.s.addSetting("pdf_title", entities.SettingString, utils.ToPtr("Registre"))
	svc := newExportService(r)

	file, err := svc.Export(asActor(admin), "settings", "json", types.Filter{})
	require.NoError(t, err)
	body := string(file.Content)
	assert.NotContains(t, body, "secret.png")
	assert.Contains(t, body, fileSettingMask)
	assert.Contains(t, body, "Registre")
}

func TestExportService_PermanencesRoster(t *testing.T) {
	f := newRegistreFixture(t)
	svc := newExportService(f.r)

	file, err := svc.Export(asActor(f.admin), "permanences", "json", types.Filter{})
	require.NoError(t, err)

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(file.Content, &rows))
	require.Len(t, rows, 1)
	assert.EqualValues(t, 2, rows[0]["nb_sous_officiers"])
	assert.Equal(t, "2024-03-15", rows[0]["date"])
	assert.Equal(t, f.officer.FullName(), rows[0]["officier_nom"])
}

func TestExportService_Backup(t *testing.T) {
	f := newRegistreFixture(t)
	f.r.s.addEvent(f.shift.ID, f.officer.ID)
	f.r.s.addSetting("logo_institution", entities.SettingFile, utils.ToPtr("logos/x.png"))
	f.r.s.mu.Lock()
	f.r.s.users[f.admin.ID].Password = "$2a$10$secret-hash"
	f.r.s.mu.Unlock()
	svc := newExportService(f.r)

	// формат для backup игнорируется
	file, err := svc.Export(asActor(f.admin), "backup", "xlsx", types.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "application/json", file.Mime)
	assert.True(t, strings.HasPrefix(file.Filename, "backup_"))

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(file.Content, &payload))
	for _, table := range []string{"meta", "users", "permanences", "affectations", "relations_manageriales", "settings"} {
		assert.Contains(t, payload, table)
	}
	assert.NotContains(t, string(file.Content), "secret-hash")
	assert.NotContains(t, string(file.Content), "logos/x.png")

	last := f.r.s.lastLog()
	assert.Equal(t, "backup", last.TargetKind)
	assert.Equal(t, entities.OutcomeAllowed, last.Outcome)
}
