package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"permanence-system/internal/authz"
	"permanence-system/internal/entities"
	"permanence-system/internal/repositories"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/export"
	"permanence-system/pkg/types"
	"permanence-system/pkg/utils"
)

type ExportKind string

const (
	ExportUsers       ExportKind = "users"
	ExportPermanences ExportKind = "permanences"
	ExportLogbook     ExportKind = "logbook_events"
	ExportSettings    ExportKind = "settings"
	ExportAuditLogs   ExportKind = "audit_logs"
	ExportBackup      ExportKind = "backup"
)

// auditExportLimit: потолок строк журнала в одной выгрузке.
const auditExportLimit = 10000

// fileSettingMask: файловые настройки не выгружаются.
const fileSettingMask = "[FICHIER]"

func ParseExportKind(raw string) (ExportKind, error) {
	switch k := ExportKind(raw); k {
	case ExportUsers, ExportPermanences, ExportLogbook, ExportSettings, ExportAuditLogs, ExportBackup:
		return k, nil
	}
	return "", apperrors.NewInvalidInputError("type d'export inconnu: %s", raw)
}

type ExportServiceInterface interface {
	Export(ctx context.Context, kind, format string, filter types.Filter) (*export.File, error)
}

// ExportService: выгрузки только для admin; каждая попытка пишется в журнал
// до того, как данные покинут сервис.
type ExportService struct {
	userRepo        repositories.UserRepositoryInterface
	permanenceRepo  repositories.PermanenceRepositoryInterface
	assignmentRepo  repositories.AssignmentRepositoryInterface
	logbookRepo     repositories.LogbookRepositoryInterface
	settingRepo     repositories.SettingRepositoryInterface
	activityLogRepo repositories.ActivityLogRepositoryInterface
	audit           AuditServiceInterface
	logger          *zap.Logger
	now             func() time.Time
}

func NewExportService(
	userRepo repositories.UserRepositoryInterface,
	permanenceRepo repositories.PermanenceRepositoryInterface,
	assignmentRepo repositories.AssignmentRepositoryInterface,
	logbookRepo repositories.LogbookRepositoryInterface,
	settingRepo repositories.SettingRepositoryInterface,
	activityLogRepo repositories.ActivityLogRepositoryInterface,
	audit AuditServiceInterface,
	logger *zap.Logger,
) ExportServiceInterface {
	return &ExportService{
		userRepo:        userRepo,
		permanenceRepo:  permanenceRepo,
		assignmentRepo:  assignmentRepo,
		logbookRepo:     logbookRepo,
		settingRepo:     settingRepo,
		activityLogRepo: activityLogRepo,
		audit:           audit,
		logger:          logger,
		now:             time.Now,
	}
}

func (s *ExportService) Export(ctx context.Context, rawKind, rawFormat string, filter types.Filter) (*export.File, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	entry := AuditEntry{
		Actor:   actor,
		Action:  string(authz.ActionExport),
		Kind:    rawKind,
		IP:      utils.GetClientIP(ctx),
		Details: map[string]interface{}{"format": rawFormat},
	}
	if len(filter.Filter) > 0 {
		entry.Details["filters"] = filter.Filter
	}

	c := authz.Context{Actor: actor}
	decision := authz.Authorize(authz.ActionExport, authz.ResourceKind(rawKind), c)
	entry.Rule = decision.Rule
	if !decision.Allowed {
		entry.Outcome = entities.OutcomeDenied
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Error("ExportService: отказ не записан в журнал", zap.Error(err))
		}
		return nil, authz.DecisionError(authz.ActionExport, authz.ResourceKind(rawKind), c, decision)
	}

	// дальше любая ошибка до выдачи файла фиксируется как failed
	kind, err := ParseExportKind(rawKind)
	if err != nil {
		s.fail(ctx, entry, err)
		return nil, err
	}
	format := export.FormatJSON
	if kind != ExportBackup {
		if format, err = export.ParseFormat(rawFormat); err != nil {
			err = apperrors.NewInvalidInputError("%s", err.Error())
			s.fail(ctx, entry, err)
			return nil, err
		}
	}
	entry.Details["format"] = string(format)

	if kind == ExportBackup {
		return s.backup(ctx, entry)
	}

	table, err := s.table(ctx, kind, filter)
	if err != nil {
		s.fail(ctx, entry, err)
		return nil, err
	}

	count := len(table.Rows)
	entry.Outcome = entities.OutcomeAllowed
	entry.RecordCount = &count
	if err := s.audit.Record(ctx, entry); err != nil {
		return nil, err
	}

	file, err := export.Encode(table, format, s.now())
	if err != nil {
		s.fail(ctx, entry, err)
		return nil, err
	}
	return file, nil
}

func (s *ExportService) fail(ctx context.Context, entry AuditEntry, cause error) {
	entry.Outcome = entities.OutcomeFailed
	entry.Details["error"] = cause.Error()
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("ExportService: сбой выгрузки не записан в журнал", zap.Error(err))
	}
}

func (s *ExportService) table(ctx context.Context, kind ExportKind, filter types.Filter) (*export.Table, error) {
	// выгружается всё, что прошло фильтры, без пагинации
	filter.WithPagination = false
	switch kind {
	case ExportUsers:
		return s.usersTable(ctx, filter)
	case ExportPermanences:
		return s.permanencesTable(ctx, filter)
	case ExportLogbook:
		return s.logbookTable(ctx, filter)
	case ExportSettings:
		return s.settingsTable(ctx)
	case ExportAuditLogs:
		return s.auditTable(ctx, filter)
	}
	return nil, fmt.Errorf("ExportService: нет таблицы для %s", kind)
}

// usersTable: без хешей паролей.
func (s *ExportService) usersTable(ctx context.Context, filter types.Filter) (*export.Table, error) {
	users, _, err := s.userRepo.GetAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	t := &export.Table{
		Name:    "utilisateurs",
		Columns: []string{"id", "nom", "prenom", "matricule", "email", "role", "role_label", "fonction", "is_active", "created_at", "updated_at"},
	}
	for _, u := range users {
		fonction := ""
		if u.Fonction != nil {
			fonction = u.Fonction.Label()
		}
		t.Add(u.ID, u.Nom, u.Prenom, u.Matricule, u.Email, string(u.Role), u.Role.Label(), fonction, u.IsActive, u.CreatedAt, u.UpdatedAt)
	}
	return t, nil
}

func (s *ExportService) permanencesTable(ctx context.Context, filter types.Filter) (*export.Table, error) {
	shifts, _, err := s.permanenceRepo.GetAll(ctx, filter, unrestricted(authz.KindPermanence))
	if err != nil {
		return nil, err
	}
	users, err := s.usersByID(ctx)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignmentRepo.List(ctx, unrestricted(authz.KindAssignment))
	if err != nil {
		return nil, err
	}
	byShift := map[uint64][]map[string]interface{}{}
	for _, a := range assignments {
		matricule := ""
		if u, ok := users[a.SousOfficierID]; ok {
			matricule = utils.SafeDeref(u.Matricule)
		}
		byShift[a.PermanenceID] = append(byShift[a.PermanenceID], map[string]interface{}{
			"nom": a.SousOfficierNom, "matricule": matricule, "site": a.SiteNom,
		})
	}

	t := &export.Table{
		Name: "permanences",
		Columns: []string{
			"id", "date", "heure_debut", "heure_fin", "officier_id", "officier_nom", "officier_matricule",
			"statut", "statut_label", "commentaire_officier", "validated_at", "nb_sous_officiers", "sous_officiers", "created_at",
		},
	}
	for _, p := range shifts {
		officerName, officerMatricule := "", ""
		if u, ok := users[p.OfficierID]; ok {
			officerName = u.FullName()
			officerMatricule = utils.SafeDeref(u.Matricule)
		}
		roster := byShift[p.ID]
		if roster == nil {
			roster = []map[string]interface{}{}
		}
		t.Add(p.ID, p.Date.Format("2006-01-02"), p.HeureDebut, p.HeureFin, p.OfficierID, officerName, officerMatricule,
			string(p.Statut), p.Statut.Label(), p.CommentaireOfficier, p.ValidatedAt, len(roster), roster, p.CreatedAt)
	}
	return t, nil
}

func (s *ExportService) logbookTable(ctx context.Context, filter types.Filter) (*export.Table, error) {
	events, _, err := s.logbookRepo.List(ctx, filter, unrestricted(authz.KindLogbookEvent))
	if err != nil {
		return nil, err
	}
	t := &export.Table{
		Name: "relations_manageriales",
		Columns: []string{
			"id", "permanence_id", "heure_evenement", "auteur_id", "auteur_nom", "auteur_role",
			"evenement", "effets_ordonnes", "observations", "created_at",
		},
	}
	for _, e := range events {
		t.Add(e.ID, e.PermanenceID, e.HeureEvenement, e.AuteurID, e.AuteurNom, string(e.AuteurRole),
			e.Evenement, e.EffetsOrdonnes, e.Observations, e.CreatedAt)
	}
	return t, nil
}

func (s *ExportService) settingsTable(ctx context.Context) (*export.Table, error) {
	settings, err := s.settingRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	t := &export.Table{Name: "parametres", Columns: []string{"key", "label", "group", "type", "value"}}
	for _, st := range settings {
		var value interface{} = st.Value
		if st.Type == entities.SettingFile {
			value = fileSettingMask
		}
		t.Add(st.Key, st.Label, st.Group, string(st.Type), value)
	}
	return t, nil
}

func (s *ExportService) auditTable(ctx context.Context, filter types.Filter) (*export.Table, error) {
	filter.WithPagination = true
	filter.Limit = auditExportLimit
	filter.Offset = 0
	logs, _, err := s.activityLogRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	t := &export.Table{
		Name:    "journaux_audit",
		Columns: []string{"id", "actor_id", "action", "target_kind", "target_id", "outcome", "rule", "ip", "record_count", "details", "created_at"},
	}
	for _, l := range logs {
		var count interface{}
		if l.RecordCount != nil {
			count = *l.RecordCount
		}
		var actorID, targetID interface{}
		if l.ActorID != nil {
			actorID = *l.ActorID
		}
		if l.TargetID != nil {
			targetID = *l.TargetID
		}
		t.Add(l.ID.String(), actorID, l.Action, l.TargetKind, targetID, string(l.Outcome), l.Rule, l.IP, count, l.Details, l.CreatedAt)
	}
	return t, nil
}

// backup: полная JSON-копия основных таблиц.
func (s *ExportService) backup(ctx context.Context, entry AuditEntry) (*export.File, error) {
	now := s.now()
	tables := []string{"users", "permanences", "affectations", "relations_manageriales", "settings"}
	payload, count, err := s.loadBackup(ctx, entry.Actor, now)
	if err != nil {
		s.fail(ctx, entry, err)
		return nil, err
	}

	entry.Outcome = entities.OutcomeAllowed
	entry.RecordCount = &count
	entry.Details["tables"] = strings.Join(tables, ",")
	if err := s.audit.Record(ctx, entry); err != nil {
		return nil, err
	}

	content, err := export.EncodeJSON(payload)
	if err != nil {
		s.fail(ctx, entry, err)
		return nil, err
	}
	return &export.File{
		Filename: "backup_" + now.Format("2006-01-02_150405") + ".json",
		Mime:     "application/json",
		Content:  content,
	}, nil
}

func (s *ExportService) loadBackup(ctx context.Context, actor *entities.User, now time.Time) (map[string]interface{}, int, error) {
	users, _, err := s.userRepo.GetAll(ctx, types.Filter{})
	if err != nil {
		return nil, 0, err
	}
	shifts, _, err := s.permanenceRepo.GetAll(ctx, types.Filter{}, unrestricted(authz.KindPermanence))
	if err != nil {
		return nil, 0, err
	}
	assignments, err := s.assignmentRepo.List(ctx, unrestricted(authz.KindAssignment))
	if err != nil {
		return nil, 0, err
	}
	events, _, err := s.logbookRepo.List(ctx, types.Filter{}, unrestricted(authz.KindLogbookEvent))
	if err != nil {
		return nil, 0, err
	}
	settings, err := s.settingRepo.GetAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	for i := range settings {
		if settings[i].Type == entities.SettingFile {
			settings[i].Value = nil
		}
	}

	payload := map[string]interface{}{
		"meta": map[string]interface{}{
			"version":     "1.0",
			"exported_at": now.Format(time.RFC3339),
			"exported_by": map[string]interface{}{
				"id": actor.ID, "email": actor.Email, "nom": actor.FullName(),
			},
		},
		// User.Password помечен json:"-", хеши в копию не попадают
		"users":                  users,
		"permanences":            shifts,
		"affectations":           assignments,
		"relations_manageriales": events,
		"settings":               settings,
	}
	count := len(users) + len(shifts) + len(assignments) + len(events) + len(settings)
	return payload, count, nil
}

func (s *ExportService) usersByID(ctx context.Context) (map[uint64]entities.User, error) {
	users, _, err := s.userRepo.GetAll(ctx, types.Filter{})
	if err != nil {
		return nil, err
	}
	out := make(map[uint64]entities.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
