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
)

const (
	assignmentTable = "permanence_sous_officier"
	assignmentFrom  = "permanence_sous_officier a JOIN users u ON u.id = a.sous_officier_id JOIN sites s ON s.id = a.site_id"
)

var assignmentFields = []string{
	"a.id", "a.permanence_id", "a.sous_officier_id", "a.site_id",
	"u.prenom || ' ' || u.nom", "s.nom",
	"a.created_at", "a.updated_at",
}

type AssignmentRepositoryInterface interface {
	List(ctx context.Context, part authz.Partition) ([]entities.Affectation, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Affectation, error)
	Create(ctx context.Context, tx pgx.Tx, a *entities.Affectation) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, a *entities.Affectation, guard authz.WriteGuard) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64, guard authz.WriteGuard) error
	IsAssigned(ctx context.Context, shiftID, userID uint64) (bool, error)
	// SitesFor: все сайты назначений sous-officier на permanence (пусто, если не назначен).
	SitesFor(ctx context.Context, shiftID, userID uint64) ([]uint64, error)
}

type assignmentRepository struct {
	pgRepo
	logger *zap.Logger
}

func NewAssignmentRepository(storage *pgxpool.Pool, logger *zap.Logger) AssignmentRepositoryInterface {
	return &assignmentRepository{pgRepo: pgRepo{storage: storage}, logger: logger}
}

func scanAssignment(row pgx.Row) (*entities.Affectation, error) {
	var a entities.Affectation
	err := row.Scan(&a.ID, &a.PermanenceID, &a.SousOfficierID, &a.SiteID, &a.SousOfficierNom, &a.SiteNom, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования affectations: %w", err)
	}
	return &a, nil
}

func (r *assignmentRepository) List(ctx context.Context, part authz.Partition) ([]entities.Affectation, error) {
	if part.IsEmpty() {
		return []entities.Affectation{}, nil
	}
	query, args, err := psql().Select(assignmentFields...).From(assignmentFrom).
		Where(part.Predicate("a")).
		OrderBy("s.nom", "u.nom").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL select affectations: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения select affectations: %w", err)
	}
	defer rows.Close()

	list := make([]entities.Affectation, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *a)
	}
	return list, rows.Err()
}

func (r *assignmentRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Affectation, error) {
	query, args, err := psql().Select(assignmentFields...).From(assignmentFrom).Where(sq.Eq{"a.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL FindByID affectations: %w", err)
	}
	return scanAssignment(r.getQuerier(tx).QueryRow(ctx, query, args...))
}

func (r *assignmentRepository) Create(ctx context.Context, tx pgx.Tx, a *entities.Affectation) (uint64, error) {
	query, args, err := psql().Insert(assignmentTable).
		Columns("permanence_id", "sous_officier_id", "site_id").
		Values(a.PermanenceID, a.SousOfficierID, a.SiteID).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create affectations: %w", err)
	}
	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, wrapWrite("affectation déjà existante", err)
	}
	return id, nil
}

func (r *assignmentRepository) Update(ctx context.Context, tx pgx.Tx, a *entities.Affectation, guard authz.WriteGuard) error {
	b := psql().Update(assignmentTable).
		Set("sous_officier_id", a.SousOfficierID).
		Set("site_id", a.SiteID).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": a.ID})
	b = guardUpdate(b, guard, authz.KindAssignment)
	return execGuarded(ctx, r.getQuerier(tx), b, "обновление affectations", guard, authz.KindAssignment, authz.ActionUpdate)
}

func (r *assignmentRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64, guard authz.WriteGuard) error {
	b := guardDelete(psql().Delete(assignmentTable).Where(sq.Eq{"id": id}), guard, authz.KindAssignment)
	return execGuarded(ctx, r.getQuerier(tx), b, "удаление affectations", guard, authz.KindAssignment, authz.ActionDelete)
}

func (r *assignmentRepository) IsAssigned(ctx context.Context, shiftID, userID uint64) (bool, error) {
	var exists bool
	err := r.storage.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM permanence_sous_officier WHERE permanence_id = $1 AND sous_officier_id = $2)",
		shiftID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки назначения: %w", err)
	}
	return exists, nil
}

func (r *assignmentRepository) SitesFor(ctx context.Context, shiftID, userID uint64) ([]uint64, error) {
	rows, err := r.storage.Query(ctx,
		"SELECT site_id FROM permanence_sous_officier WHERE permanence_id = $1 AND sous_officier_id = $2 ORDER BY id",
		shiftID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения сайтов назначения: %w", err)
	}
	defer rows.Close()

	sites := make([]uint64, 0)
	for rows.Next() {
		var siteID uint64
		if err := rows.Scan(&siteID); err != nil {
			return nil, fmt.Errorf("ошибка чтения сайтов назначения: %w", err)
		}
		sites = append(sites, siteID)
	}
	return sites, rows.Err()
}
