package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"permanence-system/internal/authz"
	"permanence-system/internal/entities"
	"permanence-system/internal/repositories"
	"permanence-system/pkg/filestorage"
	"permanence-system/pkg/pdf"
	"permanence-system/pkg/types"
	"permanence-system/pkg/utils"
)

type PrintOutput struct {
	Filename string
	Content  []byte
}

type PrintServiceInterface interface {
	Print(ctx context.Context, shiftID uint64, locale string) (*PrintOutput, error)
}

// PrintService: официальный PDF validée permanence. Каждая попытка попадает в журнал.
type PrintService struct {
	permanenceRepo repositories.PermanenceRepositoryInterface
	assignmentRepo repositories.AssignmentRepositoryInterface
	logbookRepo    repositories.LogbookRepositoryInterface
	receptionRepo  repositories.ReceptionRepositoryInterface
	userRepo       repositories.UserRepositoryInterface
	settings       SettingServiceInterface
	files          filestorage.FileStorageInterface
	renderer       pdf.Renderer
	audit          AuditServiceInterface
	logger         *zap.Logger
	now            func() time.Time
}

func NewPrintService(
	permanenceRepo repositories.PermanenceRepositoryInterface,
	assignmentRepo repositories.AssignmentRepositoryInterface,
	logbookRepo repositories.LogbookRepositoryInterface,
	receptionRepo repositories.ReceptionRepositoryInterface,
	userRepo repositories.UserRepositoryInterface,
	settings SettingServiceInterface,
	files filestorage.FileStorageInterface,
	renderer pdf.Renderer,
	audit AuditServiceInterface,
	logger *zap.Logger,
) PrintServiceInterface {
	return &PrintService{
		permanenceRepo: permanenceRepo,
		assignmentRepo: assignmentRepo,
		logbookRepo:    logbookRepo,
		receptionRepo:  receptionRepo,
		userRepo:       userRepo,
		settings:       settings,
		files:          files,
		renderer:       renderer,
		audit:          audit,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *PrintService) Print(ctx context.Context, shiftID uint64, locale string) (*PrintOutput, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	shift, err := s.permanenceRepo.FindByID(ctx, nil, shiftID)
	if err != nil {
		return nil, err
	}
	assigned := false
	if actor.IsSousOfficier() {
		if assigned, err = s.assignmentRepo.IsAssigned(ctx, shiftID, actor.ID); err != nil {
			return nil, err
		}
	}
	locale = pdf.NormalizeLocale(locale)
	entry := AuditEntry{
		Actor:    actor,
		Action:   string(authz.ActionPrint),
		Kind:     string(authz.KindPermanence),
		TargetID: &shiftID,
		IP:       utils.GetClientIP(ctx),
		Details:  map[string]interface{}{"locale": locale, "date": shift.Date.Format("2006-01-02")},
	}

	c := authz.ShiftContext(actor, shift, assigned)
	decision := authz.Authorize(authz.ActionPrint, authz.KindPermanence, c)
	entry.Rule = decision.Rule
	if !decision.Allowed {
		entry.Outcome = entities.OutcomeDenied
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Error("PrintService: отказ не записан в журнал", zap.Error(err))
		}
		return nil, authz.DecisionError(authz.ActionPrint, authz.KindPermanence, c, decision)
	}

	bundle, err := s.bundle(ctx, shift, locale)
	if err != nil {
		s.fail(ctx, entry, err)
		return nil, err
	}

	entry.Outcome = entities.OutcomeAllowed
	if err := s.audit.Record(ctx, entry); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, bundle); err != nil {
		s.fail(ctx, entry, err)
		return nil, fmt.Errorf("PrintService: %w", err)
	}
	return &PrintOutput{Filename: bundle.Filename(), Content: buf.Bytes()}, nil
}

func (s *PrintService) fail(ctx context.Context, entry AuditEntry, cause error) {
	entry.Outcome = entities.OutcomeFailed
	entry.Details["error"] = cause.Error()
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Error("PrintService: сбой печати не записан в журнал", zap.Error(err))
	}
}

// bundle собирает данные целиком, без раздела actor: печатать могут только
// роли, которым видны все записи permanence.
func (s *PrintService) bundle(ctx context.Context, shift *entities.Permanence, locale string) (*pdf.Bundle, error) {
	officer, err := s.userRepo.FindByID(ctx, shift.OfficierID)
	if err != nil {
		return nil, err
	}
	shiftID := shift.ID

	assignments, err := s.assignmentRepo.List(ctx, unrestricted(authz.KindAssignment).Scoped(shiftID))
	if err != nil {
		return nil, err
	}
	events, _, err := s.logbookRepo.List(ctx, types.Filter{}, unrestricted(authz.KindLogbookEvent).Scoped(shiftID))
	if err != nil {
		return nil, err
	}
	receptions, _, err := s.receptionRepo.List(ctx, types.Filter{}, unrestricted(authz.KindMaterialReception).Scoped(shiftID))
	if err != nil {
		return nil, err
	}

	b := &pdf.Bundle{
		Locale:      locale,
		Header:      s.header(ctx, locale),
		Shift:       shift,
		Officer:     officer,
		Assignments: assignments,
		EditedAt:    s.now(),
	}

	people := map[uint64]*entities.User{officer.ID: officer}
	groupIdx := map[uint64]int{}
	for _, e := range events {
		if e.AuteurID == shift.OfficierID {
			b.OfficerEvents = append(b.OfficerEvents, e)
			continue
		}
		i, ok := groupIdx[e.AuteurID]
		if !ok {
			g, err := s.group(ctx, people, e.AuteurID, locale, "sous_officier")
			if err != nil {
				return nil, err
			}
			b.NCOEvents = append(b.NCOEvents, g)
			i = len(b.NCOEvents) - 1
			groupIdx[e.AuteurID] = i
		}
		b.NCOEvents[i].Events = append(b.NCOEvents[i].Events, e)
	}

	groupIdx = map[uint64]int{}
	for _, m := range receptions {
		if m.UserID == shift.OfficierID {
			b.OfficerMaterial = append(b.OfficerMaterial, m)
			continue
		}
		i, ok := groupIdx[m.UserID]
		if !ok {
			g, err := s.group(ctx, people, m.UserID, locale, "operateur")
			if err != nil {
				return nil, err
			}
			b.OperatorMaterial = append(b.OperatorMaterial, g)
			i = len(b.OperatorMaterial) - 1
			groupIdx[m.UserID] = i
		}
		b.OperatorMaterial[i].Material = append(b.OperatorMaterial[i].Material, m)
	}
	return b, nil
}

func (s *PrintService) group(ctx context.Context, people map[uint64]*entities.User, userID uint64, locale, defaultFonction string) (pdf.AuthorGroup, error) {
	u, ok := people[userID]
	if !ok {
		var err error
		if u, err = s.userRepo.FindByID(ctx, userID); err != nil {
			return pdf.AuthorGroup{}, err
		}
		people[userID] = u
	}
	g := pdf.AuthorGroup{Name: u.FullName(), Fonction: pdf.Label(locale, defaultFonction), Matricule: "-"}
	if u.Fonction != nil {
		g.Fonction = pdf.Label(locale, string(*u.Fonction))
	}
	if u.Matricule != nil {
		g.Matricule = *u.Matricule
	}
	return g, nil
}

func (s *PrintService) header(ctx context.Context, locale string) pdf.Header {
	h := pdf.Header{
		InstitutionName: s.settings.Value(ctx, "institution_name", "INSTITUTION"),
		DirectionName:   s.settings.Value(ctx, "direction_name", "DIRECTION"),
		SystemName:      s.settings.Value(ctx, "system_name", pdf.Label(locale, "system")),
		Title:           s.settings.Value(ctx, "pdf_title", pdf.Label(locale, "title")),
		Footer:          s.settings.Value(ctx, "pdf_footer", pdf.Label(locale, "footer")),
	}
	h.LogoInstitution = s.logoPath(ctx, "logo_institution")
	h.LogoDirection = s.logoPath(ctx, "logo_direction")
	return h
}

// logoPath: путь на диске или "", если файла нет.
func (s *PrintService) logoPath(ctx context.Context, key string) string {
	stored, ok := s.settings.File(ctx, key).Path()
	if !ok {
		return ""
	}
	path, ok := s.files.Resolve(stored)
	if !ok {
		s.logger.Warn("PrintService: логотип не найден", zap.String("key", key), zap.String("path", stored))
		return ""
	}
	return path
}
