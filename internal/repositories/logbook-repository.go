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
	logbookTable = "relations_manageriales"
	logbookFrom  = "relations_manageriales r JOIN users u ON u.id = r.auteur_id"
)

var logbookFields = []string{
	"r.id", "r.permanence_id", "r.auteur_id", hhmm("r.heure_evenement", "heure_evenement"),
	"r.evenement", "r.effets_ordonnes", "r.observations",
	"u.prenom || ' ' || u.nom", "u.role",
	"r.created_at", "r.updated_at",
}

var logbookListSpec = listSpec{
	filters: map[string]string{
		"permanence_id": "r.permanence_id",
		"auteur_id":     "r.auteur_id",
		"date_from":     "r.created_at",
		"date_to":       "r.created_at",
	},
	search: []string{"r.evenement", "r.observations"},
	sorts: map[string]string{
		"heure_evenement": "r.heure_evenement",
		"created_at":      "r.created_at",
	},
	defaultSort: "r.permanence_id, r.heure_evenement",
}

type LogbookRepositoryInterface interface {
	List(ctx context.Context, filter types.Filter, part authz.Partition) ([]entities.RelationManageriale, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RelationManageriale, error)
	Create(ctx context.Context, tx pgx.Tx, e *entities.RelationManageriale) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, e *entities.RelationManageriale, guard authz.WriteGuard) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64, guard authz.WriteGuard) error
}

type logbookRepository struct {
	pgRepo
	logger *zap.Logger
}

func NewLogbookRepository(storage *pgxpool.Pool, logger *zap.Logger) LogbookRepositoryInterface {
	return &logbookRepository{pgRepo: pgRepo{storage: storage}, logger: logger}
}

func scanLogbook(row pgx.Row) (*entities.RelationManageriale, error) {
	var e entities.RelationManageriale
	err := row.Scan(
		&e.ID, &e.PermanenceID, &e.AuteurID, &e.HeureEvenement,
		&e.Evenement, &e.EffetsOrdonnes, &e.Observations,
		&e.AuteurNom, &e.AuteurRole,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования relations_manageriales: %w", err)
	}
	return &e, nil
}

func (r *logbookRepository) List(ctx context.Context, filter types.Filter, part authz.Partition) ([]entities.RelationManageriale, uint64, error) {
	if part.IsEmpty() {
		return []entities.RelationManageriale{}, 0, nil
	}
	where := append(logbookListSpec.conditions(filter), part.Predicate("r"))

	total, err := countRows(ctx, r.storage, logbookFrom, where)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.RelationManageriale{}, 0, nil
	}

	query, args, err := logbookListSpec.page(psql().Select(logbookFields...).From(logbookFrom).Where(where), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL select relations_manageriales: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения select relations_manageriales: %w", err)
	}
	defer rows.Close()

	list := make([]entities.RelationManageriale, 0)
	for rows.Next() {
		e, err := scanLogbook(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *e)
	}
	return list, total, rows.Err()
}

func (r *logbookRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.RelationManageriale, error) {
	query, args, err := psql().Select(logbookFields...).From(logbookFrom).Where(sq.Eq{"r.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL FindByID relations_manageriales: %w", err)
	}
	return scanLogbook(r.getQuerier(tx).QueryRow(ctx, query, args...))
}

func (r *logbookRepository) Create(ctx context.Context, tx pgx.Tx, e *entities.RelationManageriale) (uint64, error) {
	query, args, err := psql().Insert(logbookTable).
		Columns("permanence_id", "auteur_id", "heure_evenement", "evenement", "effets_ordonnes", "observations").
		Values(e.PermanenceID, e.AuteurID, timeArg(e.HeureEvenement), e.Evenement, e.EffetsOrdonnes, e.Observations).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create relations_manageriales: %w", err)
	}
	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, wrapWrite("ошибка создания relations_manageriales", err)
	}
	return id, nil
}

// Update: автор и permanence не меняются.
func (r *logbookRepository) Update(ctx context.Context, tx pgx.Tx, e *entities.RelationManageriale, guard authz.WriteGuard) error {
	b := psql().Update(logbookTable).
		Set("heure_evenement", timeArg(e.HeureEvenement)).
		Set("evenement", e.Evenement).
		Set("effets_ordonnes", e.EffetsOrdonnes).
		Set("observations", e.Observations).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": e.ID})
	b = guardUpdate(b, guard, authz.KindLogbookEvent)
	return execGuarded(ctx, r.getQuerier(tx), b, "обновление relations_manageriales", guard, authz.KindLogbookEvent, authz.ActionUpdate)
}

func (r *logbookRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64, guard authz.WriteGuard) error {
	b := guardDelete(psql().Delete(logbookTable).Where(sq.Eq{"id": id}), guard, authz.KindLogbookEvent)
	return execGuarded(ctx, r.getQuerier(tx), b, "удаление relations_manageriales", guard, authz.KindLogbookEvent, authz.ActionDelete)
}
