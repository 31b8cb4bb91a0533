package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"permanence-system/internal/authz"
	"permanence-system/internal/entities"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/types"
)

const (
	restartTable = "redemarrages_appareils"
	restartFrom  = "redemarrages_appareils d JOIN appareils ap ON ap.id = d.appareil_id"
)

var restartFields = []string{
	"d.id", "d.permanence_id", "d.appareil_id", "d.officier_id",
	"d.nombre_redemarrages", "d.motif",
	hhmm("d.heure_debut", "heure_debut"), hhmm("d.heure_fin", "heure_fin"),
	"d.decision_officier", "ap.nom",
	"d.created_at", "d.updated_at",
}

var restartListSpec = listSpec{
	filters: map[string]string{
		"permanence_id": "d.permanence_id",
		"appareil_id":   "d.appareil_id",
	},
	search:      []string{"d.motif", "d.decision_officier"},
	sorts:       map[string]string{"heure_debut": "d.heure_debut"},
	defaultSort: "d.heure_debut",
}

type RestartRepositoryInterface interface {
	List(ctx context.Context, filter types.Filter, part authz.Partition) ([]entities.RedemarrageAppareil, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RedemarrageAppareil, error)
	Create(ctx context.Context, tx pgx.Tx, d *entities.RedemarrageAppareil) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, d *entities.RedemarrageAppareil, guard authz.WriteGuard) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64, guard authz.WriteGuard) error
}

type restartRepository struct {
	pgRepo
	logger *zap.Logger
}

func NewRestartRepository(storage *pgxpool.Pool, logger *zap.Logger) RestartRepositoryInterface {
	return &restartRepository{pgRepo: pgRepo{storage: storage}, logger: logger}
}

func scanRestart(row pgx.Row) (*entities.RedemarrageAppareil, error) {
	var d entities.RedemarrageAppareil
	err := row.Scan(
		&d.ID, &d.PermanenceID, &d.AppareilID, &d.OfficierID,
		&d.NombreRedemarrages, &d.Motif, &d.HeureDebut, &d.HeureFin,
		&d.DecisionOfficier, &d.AppareilNom,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования redemarrages_appareils: %w", err)
	}
	return &d, nil
}

func (r *restartRepository) List(ctx context.Context, filter types.Filter, part authz.Partition) ([]entities.RedemarrageAppareil, uint64, error) {
	if part.IsEmpty() {
		return []entities.RedemarrageAppareil{}, 0, nil
	}
	where := append(restartListSpec.conditions(filter), part.Predicate("d"))

	total, err := countRows(ctx, r.storage, restartFrom, where)
	if err != nil || total == 0 {
		return []entities.RedemarrageAppareil{}, 0, err
	}

	query, args, err := restartListSpec.page(psql().Select(restartFields...).From(restartFrom).Where(where), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL select redemarrages_appareils: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения select redemarrages_appareils: %w", err)
	}
	defer rows.Close()

	list := make([]entities.RedemarrageAppareil, 0)
	for rows.Next() {
		d, err := scanRestart(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *d)
	}
	return list, total, rows.Err()
}

func (r *restartRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RedemarrageAppareil, error) {
	query, args, err := psql().Select(restartFields...).From(restartFrom).Where(sq.Eq{"d.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL FindByID redemarrages_appareils: %w", err)
	}
	return scanRestart(r.getQuerier(tx).QueryRow(ctx, query, args...))
}

func (r *restartRepository) Create(ctx context.Context, tx pgx.Tx, d *entities.RedemarrageAppareil) (uint64, error) {
	query, args, err := psql().Insert(restartTable).
		Columns("permanence_id", "appareil_id", "officier_id", "nombre_redemarrages", "motif", "heure_debut", "heure_fin", "decision_officier").
		Values(d.PermanenceID, d.AppareilID, d.OfficierID, d.NombreRedemarrages, d.Motif,
			timeArg(d.HeureDebut), optionalTimeArg(d.HeureFin), d.DecisionOfficier).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create redemarrages_appareils: %w", err)
	}
	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, wrapWrite("ошибка создания redemarrages_appareils", err)
	}
	return id, nil
}

func (r *restartRepository) Update(ctx context.Context, tx pgx.Tx, d *entities.RedemarrageAppareil, guard authz.WriteGuard) error {
	b := psql().Update(restartTable).
		Set("appareil_id", d.AppareilID).
		Set("nombre_redemarrages", d.NombreRedemarrages).
		Set("motif", d.Motif).
		Set("heure_debut", timeArg(d.HeureDebut)).
		Set("heure_fin", optionalTimeArg(d.HeureFin)).
		Set("decision_officier", d.DecisionOfficier).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": d.ID})
	b = guardUpdate(b, guard, authz.KindRestartRecord)
	return execGuarded(ctx, r.getQuerier(tx), b, "обновление redemarrages_appareils", guard, authz.KindRestartRecord, authz.ActionUpdate)
}

func (r *restartRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64, guard authz.WriteGuard) error {
	b := guardDelete(psql().Delete(restartTable).Where(sq.Eq{"id": id}), guard, authz.KindRestartRecord)
	return execGuarded(ctx, r.getQuerier(tx), b, "удаление redemarrages_appareils", guard, authz.KindRestartRecord, authz.ActionDelete)
}
