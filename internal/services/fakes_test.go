package services

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"permanence-system/internal/authz"
	"permanence-system/internal/entities"
	"permanence-system/internal/repositories"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/pdf"
	"permanence-system/pkg/types"
	"permanence-system/pkg/utils"
)

// store: общее in-memory состояние для фейковых репозиториев.
type store struct {
	mu          sync.Mutex
	nextID      uint64
	users       map[uint64]*entities.User
	shifts      map[uint64]*entities.Permanence
	assignments map[uint64]*entities.Affectation
	events      map[uint64]*entities.RelationManageriale
	readings    map[uint64]*entities.ReleveEnergie
	restarts    map[uint64]*entities.RedemarrageAppareil
	receptions  map[uint64]*entities.ReceptionMateriel
	devices     map[uint64]*entities.Appareil
	sites       map[uint64]*entities.Site
	settings    map[string]*entities.Setting
	logs        []entities.ActivityLog
}

func newStore() *store {
	return &store{
		nextID:      100,
		users:       map[uint64]*entities.User{},
		shifts:      map[uint64]*entities.Permanence{},
		assignments: map[uint64]*entities.Affectation{},
		events:      map[uint64]*entities.RelationManageriale{},
		readings:    map[uint64]*entities.ReleveEnergie{},
		restarts:    map[uint64]*entities.RedemarrageAppareil{},
		receptions:  map[uint64]*entities.ReceptionMateriel{},
		devices:     map[uint64]*entities.Appareil{},
		sites:       map[uint64]*entities.Site{},
		settings:    map[string]*entities.Setting{},
	}
}

func (s *store) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *store) isAssigned(shiftID, userID uint64) bool {
	for _, a := range s.assignments {
		if a.PermanenceID == shiftID && a.SousOfficierID == userID {
			return true
		}
	}
	return false
}

// hasAssignment повторяет уникальный ключ (permanence_id, sous_officier_id, site_id).
func (s *store) hasAssignment(a *entities.Affectation) bool {
	for _, existing := range s.assignments {
		if existing.ID != a.ID && existing.PermanenceID == a.PermanenceID &&
			existing.SousOfficierID == a.SousOfficierID && existing.SiteID == a.SiteID {
			return true
		}
	}
	return false
}

// guarded: WriteGuard для строки permanence shiftID, как условие statut в UPDATE/DELETE.
func (s *store) guarded(guard authz.WriteGuard, shiftID uint64, kind authz.ResourceKind, action authz.Action) error {
	if shift, ok := s.shifts[shiftID]; ok && !guard.Allows(shift.Statut) {
		return guard.Err(kind, action)
	}
	return nil
}

// rowRef: RowRef строки permanence shiftID для проверки partition в памяти.
func (s *store) rowRef(part authz.Partition, shiftID, ownerID uint64) authz.RowRef {
	ref := authz.RowRef{ShiftID: shiftID, OwnerID: ownerID}
	if shift, ok := s.shifts[shiftID]; ok {
		ref.ShiftOfficierID = shift.OfficierID
	}
	ref.ActorAssigned = s.isAssigned(shiftID, part.ActorID())
	return ref
}

// --- фикстуры ---

func (s *store) addUser(role entities.Role, fonction *entities.SubFunction) *entities.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	u := &entities.User{ID: id, Nom: "Nom" + string(role), Prenom: "P", Email: string(role) + strconv.FormatUint(id, 10) + "@test.local", Role: role, Fonction: fonction, IsActive: true}
	s.users[id] = u
	return u
}

func (s *store) addShift(officerID uint64, status entities.PermanenceStatus) *entities.Permanence {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	p := &entities.Permanence{
		ID: id, Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		HeureDebut: "08:00", HeureFin: "20:00", OfficierID: officerID, Statut: status,
	}
	s.shifts[id] = p
	return p
}

func (s *store) addSite() *entities.Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	site := &entities.Site{ID: id, Nom: "Site", Code: "S" + strconv.FormatUint(id, 10), IsActive: true}
	s.sites[id] = site
	return site
}

func (s *store) assign(shiftID, userID, siteID uint64) *entities.Affectation {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &entities.Affectation{ID: s.id(), PermanenceID: shiftID, SousOfficierID: userID, SiteID: siteID}
	s.assignments[a.ID] = a
	return a
}

func (s *store) addDevice(siteID *uint64, active bool, dest *entities.Destinataire) *entities.Appareil {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := &entities.Appareil{ID: s.id(), Nom: "Radio", SiteID: siteID, Statut: entities.AppareilActif, IsActive: active, Destinataire: dest}
	s.devices[d.ID] = d
	return d
}

func (s *store) addEvent(shiftID, authorID uint64) *entities.RelationManageriale {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &entities.RelationManageriale{ID: s.id(), PermanenceID: shiftID, AuteurID: authorID, HeureEvenement: "09:00", Evenement: "Ronde"}
	s.events[e.ID] = e
	return e
}

func (s *store) addRestart(shiftID, officerID, deviceID uint64) *entities.RedemarrageAppareil {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := &entities.RedemarrageAppareil{ID: s.id(), PermanenceID: shiftID, OfficierID: officerID, AppareilID: deviceID, NombreRedemarrages: 1, Motif: "gel", HeureDebut: "10:00"}
	s.restarts[r.ID] = r
	return r
}

func (s *store) addReception(shiftID, userID, deviceID uint64) *entities.ReceptionMateriel {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := &entities.ReceptionMateriel{ID: s.id(), PermanenceID: shiftID, UserID: userID, AppareilID: deviceID, RecuIntegralite: true, EtatFonctionnement: entities.EtatFonctionne}
	s.receptions[m.ID] = m
	return m
}

func fonction(f entities.SubFunction) *entities.SubFunction { return &f }

func asActor(u *entities.User) context.Context {
	return utils.WithActor(context.Background(), u)
}

func nop() *zap.Logger { return zap.NewNop() }

// --- транзакции ---

type fakeTx struct{}

func (fakeTx) RunInTransaction(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

// --- users ---

type fakeUserRepo struct {
	s       *store
	listErr error
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint64) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) GetAll(_ context.Context, _ types.Filter) ([]entities.User, uint64, error) {
	if r.listErr != nil {
		return nil, 0, r.listErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entities.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, *u)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeUserRepo) Create(_ context.Context, _ pgx.Tx, u *entities.User) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return 0, apperrors.ErrConflict
		}
	}
	cp := *u
	cp.ID = r.s.id()
	r.s.users[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeUserRepo) Update(_ context.Context, _ pgx.Tx, u *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.users[u.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	cp := *u
	cp.Password = current.Password
	r.s.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id uint64, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.Password = hash
	return nil
}

// --- permanences ---

type fakePermanenceRepo struct {
	s *store
	// afterFind меняет сохранённую строку после чтения: параллельная запись между load и UPDATE.
	afterFind func(stored *entities.Permanence)
}

func (r *fakePermanenceRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.Permanence, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.shifts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	if r.afterFind != nil {
		r.afterFind(p)
	}
	return &cp, nil
}

func (r *fakePermanenceRepo) GetAll(_ context.Context, _ types.Filter, part authz.Partition) ([]entities.Permanence, uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entities.Permanence
	for _, p := range r.s.shifts {
		if part.Allows(r.s.rowRef(part, p.ID, p.OfficierID)) {
			out = append(out, *p)
		}
	}
	return out, uint64(len(out)), nil
}

func (r *fakePermanenceRepo) Create(_ context.Context, _ pgx.Tx, p *entities.Permanence) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.shifts {
		if existing.Date.Equal(p.Date) {
			return 0, apperrors.ErrConflict
		}
	}
	cp := *p
	cp.ID = r.s.id()
	cp.Statut = entities.StatusPlanifiee
	r.s.shifts[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakePermanenceRepo) Update(_ context.Context, _ pgx.Tx, p *entities.Permanence, guard authz.WriteGuard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.shifts[p.ID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if err := r.s.guarded(guard, p.ID, authz.KindPermanence, authz.ActionUpdate); err != nil {
		return err
	}
	current.Date = p.Date
	current.HeureDebut = p.HeureDebut
	current.HeureFin = p.HeureFin
	current.OfficierID = p.OfficierID
	current.CommentaireOfficier = p.CommentaireOfficier
	return nil
}

func (r *fakePermanenceRepo) Delete(_ context.Context, _ pgx.Tx, id uint64, guard authz.WriteGuard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.shifts[id]; !ok {
		return apperrors.ErrNotFound
	}
	if err := r.s.guarded(guard, id, authz.KindPermanence, authz.ActionDelete); err != nil {
		return err
	}
	delete(r.s.shifts, id)
	return nil
}

func (r *fakePermanenceRepo) Transition(_ context.Context, _ pgx.Tx, id uint64, expected, next entities.PermanenceStatus, validatedAt *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.shifts[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	if p.Statut != expected {
		return &apperrors.TransitionError{From: string(p.Statut)}
	}
	p.Statut = next
	p.ValidatedAt = validatedAt
	return nil
}

// --- affectations ---

type fakeAssignmentRepo struct {
	s *store
}

func (r *fakeAssignmentRepo) List(_ context.Context, part authz.Partition) ([]entities.Affectation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entities.Affectation
	for _, a := range r.s.assignments {
		if part.Allows(r.s.rowRef(part, a.PermanenceID, a.SousOfficierID)) {
			cp := *a
			if u, ok := r.s.users[a.SousOfficierID]; ok {
				cp.SousOfficierNom = u.FullName()
			}
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.Affectation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.assignments[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeAssignmentRepo) Create(_ context.Context, _ pgx.Tx, a *entities.Affectation) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.hasAssignment(a) {
		return 0, apperrors.ErrConflict
	}
	cp := *a
	cp.ID = r.s.id()
	r.s.assignments[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeAssignmentRepo) Update(_ context.Context, _ pgx.Tx, a *entities.Affectation, guard authz.WriteGuard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.guarded(guard, a.PermanenceID, authz.KindAssignment, authz.ActionUpdate); err != nil {
		return err
	}
	if r.s.hasAssignment(a) {
		return apperrors.ErrConflict
	}
	cp := *a
	r.s.assignments[a.ID] = &cp
	return nil
}

func (r *fakeAssignmentRepo) Delete(_ context.Context, _ pgx.Tx, id uint64, guard authz.WriteGuard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.assignments[id]; ok {
		if err := r.s.guarded(guard, row.PermanenceID, authz.KindAssignment, authz.ActionDelete); err != nil {
			return err
		}
	}
	delete(r.s.assignments, id)
	return nil
}

func (r *fakeAssignmentRepo) IsAssigned(_ context.Context, shiftID, userID uint64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.isAssigned(shiftID, userID), nil
}

func (r *fakeAssignmentRepo) SitesFor(_ context.Context, shiftID, userID uint64) ([]uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var sites []uint64
	for _, a := range r.s.assignments {
		if a.PermanenceID == shiftID && a.SousOfficierID == userID {
			sites = append(sites, a.SiteID)
		}
	}
	return sites, nil
}

// --- журнал ---

type fakeLogbookRepo struct {
	s *store
}

func (r *fakeLogbookRepo) List(_ context.Context, _ types.Filter, part authz.Partition) ([]entities.RelationManageriale, uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entities.RelationManageriale
	for _, e := range r.s.events {
		if part.Allows(r.s.rowRef(part, e.PermanenceID, e.AuteurID)) {
			cp := *e
			if u, ok := r.s.users[e.AuteurID]; ok {
				cp.AuteurNom = u.FullName()
				cp.AuteurRole = u.Role
			}
			out = append(out, cp)
		}
	}
	return out, uint64(len(out)), nil
}

func (r *fakeLogbookRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.RelationManageriale, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeLogbookRepo) Create(_ context.Context, _ pgx.Tx, e *entities.RelationManageriale) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *e
	cp.ID = r.s.id()
	r.s.events[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeLogbookRepo) Update(_ context.Context, _ pgx.Tx, e *entities.RelationManageriale, guard authz.WriteGuard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.guarded(guard, e.PermanenceID, authz.KindLogbookEvent, authz.ActionUpdate); err != nil {
		return err
	}
	cp := *e
	r.s.events[e.ID] = &cp
	return nil
}

func (r *fakeLogbookRepo) Delete(_ context.Context, _ pgx.Tx, id uint64, guard authz.WriteGuard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.events[id]; ok {
		if err := r.s.guarded(guard, row.PermanenceID, authz.KindLogbookEvent, authz.ActionDelete); err != nil {
			return err
		}
	}
	delete(r.s.events, id)
	return nil
}

// --- энергия ---

type fakeEnergyRepo struct {
	s *store
}

func (r *fakeEnergyRepo) List(_ context.Context, _ types.Filter, part authz.Partition) ([]entities.ReleveEnergie, uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entities.ReleveEnergie
	for _, e := range r.s.readings {
		if part.Allows(r.s.rowRef(part, e.PermanenceID, e.SousOfficierID)) {
			out = append(out, *e)
		}
	}
	return out, uint64(len(out)), nil
}

func (r *fakeEnergyRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.ReleveEnergie, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.readings[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEnergyRepo) Create(_ context.Context, _ pgx.Tx, e *entities.ReleveEnergie) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *e
	cp.ID = r.s.id()
	r.s.readings[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeEnergyRepo) Update(_ context.Context, _ pgx.Tx, e *entities.ReleveEnergie, guard authz.WriteGuard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.guarded(guard, e.PermanenceID, authz.KindEnergyReading, authz.ActionUpdate); err != nil {
		return err
	}
	cp := *e
	r.s.readings[e.ID] = &cp
	return nil
}

func (r *fakeEnergyRepo) Delete(_ context.Context, _ pgx.Tx, id uint64, guard authz.WriteGuard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.readings[id]; ok {
		if err := r.s.guarded(guard, row.PermanenceID, authz.KindEnergyReading, authz.ActionDelete); err != nil {
			return err
		}
	}
	delete(r.s.readings, id)
	return nil
}

// --- перезапуски ---

type fakeRestartRepo struct {
	s *store
}

func (r *fakeRestartRepo) List(_ context.Context, _ types.Filter, part authz.Partition) ([]entities.RedemarrageAppareil, uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entities.RedemarrageAppareil
	if part.IsEmpty() {
		return out, 0, nil
	}
	for _, d := range r.s.restarts {
		if part.Allows(r.s.rowRef(part, d.PermanenceID, d.OfficierID)) {
			out = append(out, *d)
		}
	}
	return out, uint64(len(out)), nil
}

func (r *fakeRestartRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.RedemarrageAppareil, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.restarts[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeRestartRepo) Create(_ context.Context, _ pgx.Tx, d *entities.RedemarrageAppareil) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *d
	cp.ID = r.s.id()
	r.s.restarts[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeRestartRepo) Update(_ context.Context, _ pgx.Tx, d *entities.RedemarrageAppareil, guard authz.WriteGuard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.guarded(guard, d.PermanenceID, authz.KindRestartRecord, authz.ActionUpdate); err != nil {
		return err
	}
	cp := *d
	r.s.restarts[d.ID] = &cp
	return nil
}

func (r *fakeRestartRepo) Delete(_ context.Context, _ pgx.Tx, id uint64, guard authz.WriteGuard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.restarts[id]; ok {
		if err := r.s.guarded(guard, row.PermanenceID, authz.KindRestartRecord, authz.ActionDelete); err != nil {
			return err
		}
	}
	delete(r.s.restarts, id)
	return nil
}

// --- приём материала ---

type fakeReceptionRepo struct {
	s *store
}

func (r *fakeReceptionRepo) List(_ context.Context, _ types.Filter, part authz.Partition) ([]entities.ReceptionMateriel, uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entities.ReceptionMateriel
	if part.IsEmpty() {
		return out, 0, nil
	}
	for _, m := range r.s.receptions {
		if part.Allows(r.s.rowRef(part, m.PermanenceID, m.UserID)) {
			out = append(out, *m)
		}
	}
	return out, uint64(len(out)), nil
}

func (r *fakeReceptionRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.ReceptionMateriel, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.receptions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeReceptionRepo) Create(_ context.Context, _ pgx.Tx, m *entities.ReceptionMateriel) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *m
	cp.ID = r.s.id()
	r.s.receptions[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeReceptionRepo) Update(_ context.Context, _ pgx.Tx, m *entities.ReceptionMateriel, guard authz.WriteGuard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.guarded(guard, m.PermanenceID, authz.KindMaterialReception, authz.ActionUpdate); err != nil {
		return err
	}
	cp := *m
	r.s.receptions[m.ID] = &cp
	return nil
}

func (r *fakeReceptionRepo) Delete(_ context.Context, _ pgx.Tx, id uint64, guard authz.WriteGuard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.receptions[id]; ok {
		if err := r.s.guarded(guard, row.PermanenceID, authz.KindMaterialReception, authz.ActionDelete); err != nil {
			return err
		}
	}
	delete(r.s.receptions, id)
	return nil
}

// --- справочники ---

type fakeDeviceRepo struct {
	s *store
}

func (r *fakeDeviceRepo) List(_ context.Context, _ types.Filter, part authz.Partition) ([]entities.Appareil, uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entities.Appareil
	for _, d := range r.s.devices {
		if part.Allows(authz.RowRef{IsActive: d.IsActive, SiteID: d.SiteID}) {
			out = append(out, *d)
		}
	}
	return out, uint64(len(out)), nil
}

func (r *fakeDeviceRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.Appareil, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.devices[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDeviceRepo) Create(_ context.Context, _ pgx.Tx, d *entities.Appareil) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *d
	cp.ID = r.s.id()
	r.s.devices[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeDeviceRepo) Update(_ context.Context, _ pgx.Tx, d *entities.Appareil) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *d
	r.s.devices[d.ID] = &cp
	return nil
}

func (r *fakeDeviceRepo) Delete(_ context.Context, _ pgx.Tx, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.devices, id)
	return nil
}

type fakeSiteRepo struct {
	s *store
}

func (r *fakeSiteRepo) List(_ context.Context, _ types.Filter, part authz.Partition) ([]entities.Site, uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entities.Site
	for _, site := range r.s.sites {
		if part.Allows(authz.RowRef{IsActive: site.IsActive}) {
			out = append(out, *site)
		}
	}
	return out, uint64(len(out)), nil
}

func (r *fakeSiteRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.Site, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	site, ok := r.s.sites[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *site
	return &cp, nil
}

func (r *fakeSiteRepo) Create(_ context.Context, _ pgx.Tx, site *entities.Site) (uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *site
	cp.ID = r.s.id()
	r.s.sites[cp.ID] = &cp
	return cp.ID, nil
}

func (r *fakeSiteRepo) Update(_ context.Context, _ pgx.Tx, site *entities.Site) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *site
	r.s.sites[site.ID] = &cp
	return nil
}

func (r *fakeSiteRepo) Delete(_ context.Context, _ pgx.Tx, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.sites, id)
	return nil
}

// --- настройки ---

type fakeSettingRepo struct {
	s     *store
	reads int
}

func (r *fakeSettingRepo) FindByKey(_ context.Context, key string) (*entities.Setting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.reads++
	st, ok := r.s.settings[key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (r *fakeSettingRepo) GetAll(_ context.Context) ([]entities.Setting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]entities.Setting, 0, len(r.s.settings))
	for _, st := range r.s.settings {
		out = append(out, *st)
	}
	return out, nil
}

func (r *fakeSettingRepo) GetGroup(_ context.Context, group string) ([]entities.Setting, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []entities.Setting
	for _, st := range r.s.settings {
		if st.Group == group {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (r *fakeSettingRepo) UpdateValue(_ context.Context, key string, value *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	st, ok := r.s.settings[key]
	if !ok {
		return apperrors.ErrNotFound
	}
	st.Value = value
	return nil
}

func (r *fakeSettingRepo) CleanFileSentinels(_ context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var keys []string
	for _, st := range r.s.settings {
		if st.Type == entities.SettingFile && st.Value != nil && entities.IsInvalidFileSentinel(*st.Value) {
			st.Value = nil
			keys = append(keys, st.Key)
		}
	}
	return keys, nil
}

func (s *store) addSetting(key string, t entities.SettingType, value *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[key] = &entities.Setting{ID: s.id(), Key: key, Type: t, Value: value, Group: "general", Label: key}
}

// --- журнал активности ---

type fakeActivityLogRepo struct {
	s   *store
	err error
}

func (r *fakeActivityLogRepo) Create(_ context.Context, _ pgx.Tx, entry *entities.ActivityLog) error {
	if r.err != nil {
		return r.err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.logs = append(r.s.logs, *entry)
	return nil
}

func (r *fakeActivityLogRepo) List(_ context.Context, filter types.Filter) ([]entities.ActivityLog, uint64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := append([]entities.ActivityLog(nil), r.s.logs...)
	if filter.WithPagination && filter.Limit > 0 && len(out) > int(filter.Limit) {
		out = out[:filter.Limit]
	}
	return out, uint64(len(r.s.logs)), nil
}

func (s *store) lastLog() entities.ActivityLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.logs) == 0 {
		return entities.ActivityLog{}
	}
	return s.logs[len(s.logs)-1]
}

// --- кеш ---

type fakeCache struct {
	mu     sync.Mutex
	data   map[string]string
	delErr error
	getErr error
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string]string{}}
}

func (c *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		c.data[key] = string(v)
	case string:
		c.data[key] = v
	default:
		return errors.New("unsupported value")
	}
	return nil
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return "", c.getErr
	}
	v, ok := c.data[key]
	if !ok {
		return "", repositories.ErrCacheMiss
	}
	return v, nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.delErr != nil {
		return c.delErr
	}
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *fakeCache) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n, _ := strconv.ParseInt(c.data[key], 10, 64)
	n++
	c.data[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}

// --- файлы и рендер ---

type fakeFiles struct {
	saved   map[string]bool
	deleted []string
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{saved: map[string]bool{}}
}

func (f *fakeFiles) Save(r io.Reader, name, prefix string) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	path := prefix + "/" + name
	f.saved[path] = true
	return path, nil
}

func (f *fakeFiles) Delete(path string) error {
	f.deleted = append(f.deleted, path)
	delete(f.saved, path)
	return nil
}

func (f *fakeFiles) Resolve(path string) (string, bool) {
	if f.saved[path] {
		return "/data/" + path, true
	}
	return "", false
}

type fakeRenderer struct {
	err  error
	last *pdf.Bundle
}

func (r *fakeRenderer) Render(w io.Writer, b *pdf.Bundle) error {
	r.last = b
	if r.err != nil {
		return r.err
	}
	_, err := w.Write([]byte("%PDF-fake"))
	return err
}

// repos: набор фейков поверх одного store.
type repos struct {
	s           *store
	users       *fakeUserRepo
	shifts      *fakePermanenceRepo
	assignments *fakeAssignmentRepo
	logbook     *fakeLogbookRepo
	energy      *fakeEnergyRepo
	restarts    *fakeRestartRepo
	receptions  *fakeReceptionRepo
	devices     *fakeDeviceRepo
	sites       *fakeSiteRepo
	settings    *fakeSettingRepo
	logs        *fakeActivityLogRepo
	cache       *fakeCache
}

func newRepos(t *testing.T) *repos {
	t.Helper()
	s := newStore()
	return &repos{
		s:           s,
		users:       &fakeUserRepo{s: s},
		shifts:      &fakePermanenceRepo{s: s},
		assignments: &fakeAssignmentRepo{s: s},
		logbook:     &fakeLogbookRepo{s: s},
		energy:      &fakeEnergyRepo{s: s},
		restarts:    &fakeRestartRepo{s: s},
		receptions:  &fakeReceptionRepo{s: s},
		devices:     &fakeDeviceRepo{s: s},
		sites:       &fakeSiteRepo{s: s},
		settings:    &fakeSettingRepo{s: s},
		logs:        &fakeActivityLogRepo{s: s},
		cache:       newFakeCache(),
	}
}
