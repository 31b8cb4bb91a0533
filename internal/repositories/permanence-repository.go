package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"permanence-system/internal/authz"
	"permanence-system/internal/entities"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/types"
)

const permanenceTable = "permanences p"

var permanenceFields = []string{
	"p.id", "p.date",
	hhmm("p.heure_debut", "heure_debut"), hhmm("p.heure_fin", "heure_fin"),
	"p.officier_id", "p.statut", "p.commentaire_officier", "p.validated_at",
	"p.created_at", "p.updated_at",
}

var permanenceListSpec = listSpec{
	filters: map[string]string{
		"statut":      "p.statut",
		"officier_id": "p.officier_id",
		"date":        "p.date",
		"date_from":   "p.date",
		"date_to":     "p.date",
	},
	search: []string{"p.commentaire_officier"},
	sorts: map[string]string{
		"id":     "p.id",
		"date":   "p.date",
		"statut": "p.statut",
	},
	defaultSort: "p.date DESC",
}

type PermanenceRepositoryInterface interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Permanence, error)
	GetAll(ctx context.Context, filter types.Filter, part authz.Partition) ([]entities.Permanence, uint64, error)
	Create(ctx context.Context, tx pgx.Tx, p *entities.Permanence) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, p *entities.Permanence, guard authz.WriteGuard) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64, guard authz.WriteGuard) error
	// Transition compare-and-set статуса: строка меняется, только если её статус всё ещё expected.
	Transition(ctx context.Context, tx pgx.Tx, id uint64, expected, next entities.PermanenceStatus, validatedAt *time.Time) error
}

type permanenceRepository struct {
	pgRepo
	logger *zap.Logger
}

func NewPermanenceRepository(storage *pgxpool.Pool, logger *zap.Logger) PermanenceRepositoryInterface {
	return &permanenceRepository{pgRepo: pgRepo{storage: storage}, logger: logger}
}

func scanPermanence(row pgx.Row) (*entities.Permanence, error) {
	var p entities.Permanence
	err := row.Scan(
		&p.ID, &p.Date, &p.HeureDebut, &p.HeureFin,
		&p.OfficierID, &p.Statut, &p.CommentaireOfficier, &p.ValidatedAt,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования permanences: %w", err)
	}
	return &p, nil
}

func (r *permanenceRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Permanence, error) {
	query, args, err := psql().Select(permanenceFields...).From(permanenceTable).Where(sq.Eq{"p.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL FindByID permanences: %w", err)
	}
	return scanPermanence(r.getQuerier(tx).QueryRow(ctx, query, args...))
}

func (r *permanenceRepository) GetAll(ctx context.Context, filter types.Filter, part authz.Partition) ([]entities.Permanence, uint64, error) {
	if part.IsEmpty() {
		return []entities.Permanence{}, 0, nil
	}
	where := append(permanenceListSpec.conditions(filter), part.Predicate("p"))

	total, err := countRows(ctx, r.storage, permanenceTable, where)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.Permanence{}, 0, nil
	}

	b := permanenceListSpec.page(psql().Select(permanenceFields...).From(permanenceTable).Where(where), filter)
	query, args, err := b.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL select permanences: %w", err)
	}
	r.logger.Debug("PermanenceRepository: выборка", zap.String("query", query))

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения select permanences: %w", err)
	}
	defer rows.Close()

	list := make([]entities.Permanence, 0)
	for rows.Next() {
		p, err := scanPermanence(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *p)
	}
	return list, total, rows.Err()
}

func (r *permanenceRepository) Create(ctx context.Context, tx pgx.Tx, p *entities.Permanence) (uint64, error) {
	query, args, err := psql().Insert("permanences").
		Columns("date", "heure_debut", "heure_fin", "officier_id", "statut", "commentaire_officier").
		Values(p.Date, timeArg(p.HeureDebut), timeArg(p.HeureFin), p.OfficierID, entities.StatusPlanifiee, p.CommentaireOfficier).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create permanences: %w", err)
	}
	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, wrapWrite("permanence sur cette date déjà existante", err)
	}
	return id, nil
}

// Update не меняет statut и validated_at: для этого есть Transition.
func (r *permanenceRepository) Update(ctx context.Context, tx pgx.Tx, p *entities.Permanence, guard authz.WriteGuard) error {
	b := psql().Update("permanences").
		Set("date", p.Date).
		Set("heure_debut", timeArg(p.HeureDebut)).
		Set("heure_fin", timeArg(p.HeureFin)).
		Set("officier_id", p.OfficierID).
		Set("commentaire_officier", p.CommentaireOfficier).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": p.ID})
	b = guardUpdate(b, guard, authz.KindPermanence)
	return execGuarded(ctx, r.getQuerier(tx), b, "обновление permanences", guard, authz.KindPermanence, authz.ActionUpdate)
}

func (r *permanenceRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64, guard authz.WriteGuard) error {
	b := guardDelete(psql().Delete("permanences").Where(sq.Eq{"id": id}), guard, authz.KindPermanence)
	return execGuarded(ctx, r.getQuerier(tx), b, "удаление permanences", guard, authz.KindPermanence, authz.ActionDelete)
}

func (r *permanenceRepository) Transition(ctx context.Context, tx pgx.Tx, id uint64, expected, next entities.PermanenceStatus, validatedAt *time.Time) error {
	query, args, err := psql().Update("permanences").
		Set("statut", next).
		Set("validated_at", validatedAt).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "statut": expected}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Transition: %w", err)
	}

	q := r.getQuerier(tx)
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка перехода статуса permanence %d: %w", id, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// строку изменили параллельно либо её нет
	var current entities.PermanenceStatus
	if err := q.QueryRow(ctx, "SELECT statut FROM permanences WHERE id = $1", id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("ошибка чтения статуса permanence %d: %w", id, err)
	}
	return &apperrors.TransitionError{From: string(current)}
}
