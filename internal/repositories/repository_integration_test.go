package repositories

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"permanence-system/internal/authz"
	"permanence-system/internal/entities"
	"permanence-system/migrations"
	"permanence-system/pkg/database/postgresql"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/types"
	"permanence-system/pkg/utils"
)

var testPool *pgxpool.Pool

// TestMain поднимает схему через goose, если задан TEST_DATABASE_URL.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn != "" {
		if err := postgresql.Migrate(dsn, migrations.FS, "reset"); err != nil {
			log.Fatalf("Не удалось сбросить схему: %v", err)
		}
		if err := postgresql.Migrate(dsn, migrations.FS, "up"); err != nil {
			log.Fatalf("Не удалось применить миграции: %v", err)
		}
		var err error
		testPool, err = pgxpool.New(context.Background(), dsn)
		if err != nil {
			log.Fatalf("Не удалось подключиться к тестовой БД: %v", err)
		}
	}

	code := m.Run()
	if testPool != nil {
		testPool.Close()
	}
	os.Exit(code)
}

func requireDB(t *testing.T) {
	t.Helper()
	if testPool == nil {
		t.Skip("TEST_DATABASE_URL не задан")
	}
	_, err := testPool.Exec(context.Background(), `TRUNCATE TABLE activity_log, reception_materiels, redemarrages_appareils,
		releves_energie, relations_manageriales, permanence_sous_officier, permanences, appareils, sites, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "Не удалось очистить таблицы")
}

type fixture struct {
	officer, otherOfficer, nco, otherNCO *entities.User
	site                                 uint64
	shift                                *entities.Permanence
}

func seed(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	users := NewUserRepository(testPool, zap.NewNop())
	mk := func(email string, role entities.Role) *entities.User {
		u := &entities.User{Nom: email, Prenom: "T", Email: email + "@test.local", Password: "x", Role: role, IsActive: true}
		id, err := users.Create(ctx, nil, u)
		require.NoError(t, err)
		u.ID = id
		return u
	}
	fx := fixture{
		officer:      mk("officier", entities.RoleOfficier),
		otherOfficer: mk("officier2", entities.RoleOfficier),
		nco:          mk("so1", entities.RoleSousOfficier),
		otherNCO:     mk("so2", entities.RoleSousOfficier),
	}

	siteID, err := NewSiteRepository(testPool, zap.NewNop()).Create(ctx, nil, &entities.Site{Nom: "Nord", Code: "N", IsActive: true})
	require.NoError(t, err)
	fx.site = siteID

	perms := NewPermanenceRepository(testPool, zap.NewNop())
	shift := &entities.Permanence{Date: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), HeureDebut: "08:00", HeureFin: "20:00", OfficierID: fx.officer.ID}
	shift.ID, err = perms.Create(ctx, nil, shift)
	require.NoError(t, err)
	fx.shift, err = perms.FindByID(ctx, nil, shift.ID)
	require.NoError(t, err)

	assignments := NewAssignmentRepository(testPool, zap.NewNop())
	_, err = assignments.Create(ctx, nil, &entities.Affectation{PermanenceID: shift.ID, SousOfficierID: fx.nco.ID, SiteID: siteID})
	require.NoError(t, err)
	return fx
}

func TestPermanenceRepository_Integration_CreateAndTransition(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	fx := seed(t)
	perms := NewPermanenceRepository(testPool, zap.NewNop())

	assert.Equal(t, "08:00", fx.shift.HeureDebut)
	assert.Equal(t, entities.StatusPlanifiee, fx.shift.Statut)
	assert.Nil(t, fx.shift.ValidatedAt)

	// одна permanence на дату
	_, err := perms.Create(ctx, nil, &entities.Permanence{Date: fx.shift.Date, HeureDebut: "08:00", HeureFin: "20:00", OfficierID: fx.officer.ID})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	require.NoError(t, perms.Transition(ctx, nil, fx.shift.ID, entities.StatusPlanifiee, entities.StatusEnCours, nil))

	// устаревший expected: CAS не срабатывает
	err = perms.Transition(ctx, nil, fx.shift.ID, entities.StatusPlanifiee, entities.StatusEnCours, nil)
	var te *apperrors.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, string(entities.StatusEnCours), te.From)

	now := time.Now()
	require.NoError(t, perms.Transition(ctx, nil, fx.shift.ID, entities.StatusEnCours, entities.StatusValidee, &now))
	got, err := perms.FindByID(ctx, nil, fx.shift.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusValidee, got.Statut)
	assert.NotNil(t, got.ValidatedAt)

	err = perms.Transition(ctx, nil, 9999, entities.StatusPlanifiee, entities.StatusEnCours, nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestPermanenceRepository_Integration_Partition(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	fx := seed(t)
	perms := NewPermanenceRepository(testPool, zap.NewNop())
	filter := types.Filter{}

	list, total, err := perms.GetAll(ctx, filter, authz.PartitionFor(fx.nco, authz.KindPermanence, nil))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	list, total, err = perms.GetAll(ctx, filter, authz.PartitionFor(fx.otherNCO, authz.KindPermanence, nil))
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestAssignmentRepository_Integration_DuplicateAndOwnRows(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	fx := seed(t)
	assignments := NewAssignmentRepository(testPool, zap.NewNop())

	_, err := assignments.Create(ctx, nil, &entities.Affectation{PermanenceID: fx.shift.ID, SousOfficierID: fx.nco.ID, SiteID: fx.site})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	_, err = assignments.Create(ctx, nil, &entities.Affectation{PermanenceID: fx.shift.ID, SousOfficierID: fx.otherNCO.ID, SiteID: fx.site})
	require.NoError(t, err)

	shiftID := fx.shift.ID
	all, err := assignments.List(ctx, authz.PartitionFor(fx.officer, authz.KindAssignment, &shiftID))
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := assignments.List(ctx, authz.PartitionFor(fx.nco, authz.KindAssignment, &shiftID))
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, fx.nco.ID, own[0].SousOfficierID)
	assert.Equal(t, "Nord", own[0].SiteNom)

	ok, err := assignments.IsAssigned(ctx, fx.shift.ID, fx.nco.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	sites, err := assignments.SitesFor(ctx, fx.shift.ID, fx.officer.ID)
	require.NoError(t, err)
	assert.Empty(t, sites)

	sites, err = assignments.SitesFor(ctx, fx.shift.ID, fx.nco.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{fx.site}, sites)
}

func TestLogbookRepository_Integration_Cloisonnement(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	fx := seed(t)
	logbook := NewLogbookRepository(testPool, zap.NewNop())

	for _, author := range []uint64{fx.officer.ID, fx.nco.ID, fx.otherNCO.ID} {
		_, err := logbook.Create(ctx, nil, &entities.RelationManageriale{
			PermanenceID: fx.shift.ID, AuteurID: author, HeureEvenement: "09:30", Evenement: "RAS",
		})
		require.NoError(t, err)
	}

	shiftID := fx.shift.ID
	list, total, err := logbook.List(ctx, types.Filter{}, authz.PartitionFor(fx.officer, authz.KindLogbookEvent, &shiftID))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, "09:30", list[0].HeureEvenement)

	// sous-officier видит только свои записи
	list, _, err = logbook.List(ctx, types.Filter{}, authz.PartitionFor(fx.nco, authz.KindLogbookEvent, &shiftID))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, fx.nco.ID, list[0].AuteurID)
	assert.Equal(t, entities.RoleSousOfficier, list[0].AuteurRole)

	// не назначен: даже свои записи не видны
	list, _, err = logbook.List(ctx, types.Filter{}, authz.PartitionFor(fx.otherNCO, authz.KindLogbookEvent, &shiftID))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestAssignmentRepository_Integration_SeveralSites(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	fx := seed(t)
	south, err := NewSiteRepository(testPool, zap.NewNop()).Create(ctx, nil, &entities.Site{Nom: "Sud", Code: "S", IsActive: true})
	require.NoError(t, err)
	assignments := NewAssignmentRepository(testPool, zap.NewNop())

	_, err = assignments.Create(ctx, nil, &entities.Affectation{PermanenceID: fx.shift.ID, SousOfficierID: fx.nco.ID, SiteID: south})
	require.NoError(t, err)

	sites, err := assignments.SitesFor(ctx, fx.shift.ID, fx.nco.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{fx.site, south}, sites)
}

func TestLogbookRepository_Integration_WriteGuard(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	fx := seed(t)
	perms := NewPermanenceRepository(testPool, zap.NewNop())
	logbook := NewLogbookRepository(testPool, zap.NewNop())
	admin := &entities.User{ID: 1, Role: entities.RoleAdmin, IsActive: true}

	e := &entities.RelationManageriale{PermanenceID: fx.shift.ID, AuteurID: fx.nco.ID, HeureEvenement: "09:30", Evenement: "RAS"}
	id, err := logbook.Create(ctx, nil, e)
	require.NoError(t, err)
	e.ID = id

	require.NoError(t, perms.Transition(ctx, nil, fx.shift.ID, entities.StatusPlanifiee, entities.StatusEnCours, nil))
	now := time.Now()
	require.NoError(t, perms.Transition(ctx, nil, fx.shift.ID, entities.StatusEnCours, entities.StatusValidee, &now))

	e.Evenement = "Modifié"
	err = logbook.Update(ctx, nil, e, authz.WriteGuardFor(fx.nco))
	assert.Equal(t, authz.RuleLocked, apperrors.RuleOf(err))
	assert.Equal(t, authz.RuleLocked, apperrors.RuleOf(logbook.Delete(ctx, nil, e.ID, authz.WriteGuardFor(fx.nco))))

	shift := *fx.shift
	shift.HeureFin = "22:00"
	assert.Equal(t, authz.RuleLocked, apperrors.RuleOf(perms.Update(ctx, nil, &shift, authz.WriteGuardFor(fx.officer))))

	require.NoError(t, logbook.Update(ctx, nil, e, authz.WriteGuardFor(admin)))
	require.NoError(t, logbook.Delete(ctx, nil, e.ID, authz.WriteGuardFor(admin)))
}

func TestReceptionRepository_Integration_Unique(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	fx := seed(t)
	deviceID, err := NewDeviceRepository(testPool, zap.NewNop()).Create(ctx, nil, &entities.Appareil{Nom: "Radio", Statut: entities.AppareilActif, IsActive: true})
	require.NoError(t, err)

	receptions := NewReceptionRepository(testPool, zap.NewNop())
	m := &entities.ReceptionMateriel{PermanenceID: fx.shift.ID, UserID: fx.officer.ID, AppareilID: deviceID, RecuIntegralite: true, EtatFonctionnement: entities.EtatFonctionne}
	_, err = receptions.Create(ctx, nil, m)
	require.NoError(t, err)
	_, err = receptions.Create(ctx, nil, m)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	shiftID := fx.shift.ID
	list, _, err := receptions.List(ctx, types.Filter{}, authz.PartitionFor(fx.otherOfficer, authz.KindMaterialReception, &shiftID))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSettingRepository_Integration_CleanFileSentinels(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	settings := NewSettingRepository(testPool, zap.NewNop())

	require.NoError(t, settings.UpdateValue(ctx, "logo_institution", utils.ToPtr("false")))
	require.NoError(t, settings.UpdateValue(ctx, "logo_direction", utils.ToPtr("logos/dir.png")))

	keys, err := settings.CleanFileSentinels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"logo_institution"}, keys)

	s, err := settings.FindByKey(ctx, "logo_institution")
	require.NoError(t, err)
	assert.Nil(t, s.Value)
	assert.False(t, s.File().IsSome())

	s, err = settings.FindByKey(ctx, "logo_direction")
	require.NoError(t, err)
	path, ok := s.File().Path()
	assert.True(t, ok)
	assert.Equal(t, "logos/dir.png", path)

	assert.ErrorIs(t, settings.UpdateValue(ctx, "missing", nil), apperrors.ErrNotFound)
}
