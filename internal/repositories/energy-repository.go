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
	energyTable = "releves_energie"
	energyFrom  = "releves_energie e JOIN users u ON u.id = e.sous_officier_id JOIN appareils ap ON ap.id = e.appareil_id"
)

var energyFields = []string{
	"e.id", "e.permanence_id", "e.appareil_id", "e.sous_officier_id",
	"e.pourcentage_energie", hhmm("e.heure_releve", "heure_releve"), "e.observations",
	"u.prenom || ' ' || u.nom", "ap.nom",
	"e.created_at", "e.updated_at",
}

var energyListSpec = listSpec{
	filters: map[string]string{
		"permanence_id":    "e.permanence_id",
		"appareil_id":      "e.appareil_id",
		"sous_officier_id": "e.sous_officier_id",
	},
	sorts: map[string]string{
		"heure_releve":        "e.heure_releve",
		"pourcentage_energie": "e.pourcentage_energie",
	},
	defaultSort: "e.heure_releve",
}

type EnergyRepositoryInterface interface {
	List(ctx context.Context, filter types.Filter, part authz.Partition) ([]entities.ReleveEnergie, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ReleveEnergie, error)
	Create(ctx context.Context, tx pgx.Tx, e *entities.ReleveEnergie) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, e *entities.ReleveEnergie, guard authz.WriteGuard) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64, guard authz.WriteGuard) error
}

type energyRepository struct {
	pgRepo
	logger *zap.Logger
}

func NewEnergyRepository(storage *pgxpool.Pool, logger *zap.Logger) EnergyRepositoryInterface {
	return &energyRepository{pgRepo: pgRepo{storage: storage}, logger: logger}
}

func scanEnergy(row pgx.Row) (*entities.ReleveEnergie, error) {
	var e entities.ReleveEnergie
	err := row.Scan(
		&e.ID, &e.PermanenceID, &e.AppareilID, &e.SousOfficierID,
		&e.PourcentageEnergie, &e.HeureReleve, &e.Observations,
		&e.SousOfficierNom, &e.AppareilNom,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования releves_energie: %w", err)
	}
	return &e, nil
}

func (r *energyRepository) List(ctx context.Context, filter types.Filter, part authz.Partition) ([]entities.ReleveEnergie, uint64, error) {
	if part.IsEmpty() {
		return []entities.ReleveEnergie{}, 0, nil
	}
	where := append(energyListSpec.conditions(filter), part.Predicate("e"))

	total, err := countRows(ctx, r.storage, energyFrom, where)
	if err != nil || total == 0 {
		return []entities.ReleveEnergie{}, 0, err
	}

	query, args, err := energyListSpec.page(psql().Select(energyFields...).From(energyFrom).Where(where), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL select releves_energie: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения select releves_energie: %w", err)
	}
	defer rows.Close()

	list := make([]entities.ReleveEnergie, 0)
	for rows.Next() {
		e, err := scanEnergy(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *e)
	}
	return list, total, rows.Err()
}

func (r *energyRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ReleveEnergie, error) {
	query, args, err := psql().Select(energyFields...).From(energyFrom).Where(sq.Eq{"e.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL FindByID releves_energie: %w", err)
	}
	return scanEnergy(r.getQuerier(tx).QueryRow(ctx, query, args...))
}

func (r *energyRepository) Create(ctx context.Context, tx pgx.Tx, e *entities.ReleveEnergie) (uint64, error) {
	query, args, err := psql().Insert(energyTable).
		Columns("permanence_id", "appareil_id", "sous_officier_id", "pourcentage_energie", "heure_releve", "observations").
		Values(e.PermanenceID, e.AppareilID, e.SousOfficierID, e.PourcentageEnergie, timeArg(e.HeureReleve), e.Observations).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create releves_energie: %w", err)
	}
	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, wrapWrite("ошибка создания releves_energie", err)
	}
	return id, nil
}

func (r *energyRepository) Update(ctx context.Context, tx pgx.Tx, e *entities.ReleveEnergie, guard authz.WriteGuard) error {
	b := psql().Update(energyTable).
		Set("appareil_id", e.AppareilID).
		Set("pourcentage_energie", e.PourcentageEnergie).
		Set("heure_releve", timeArg(e.HeureReleve)).
		Set("observations", e.Observations).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": e.ID})
	b = guardUpdate(b, guard, authz.KindEnergyReading)
	return execGuarded(ctx, r.getQuerier(tx), b, "обновление releves_energie", guard, authz.KindEnergyReading, authz.ActionUpdate)
}

func (r *energyRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64, guard authz.WriteGuard) error {
	b := guardDelete(psql().Delete(energyTable).Where(sq.Eq{"id": id}), guard, authz.KindEnergyReading)
	return execGuarded(ctx, r.getQuerier(tx), b, "удаление releves_energie", guard, authz.KindEnergyReading, authz.ActionDelete)
}
