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
	siteTable  = "sites"
	siteFrom   = "sites s"
	siteFields = "s.id, s.nom, s.code, s.localisation, s.description, s.is_active, s.created_at, s.updated_at"
)

var siteListSpec = listSpec{
	filters:     map[string]string{"is_active": "s.is_active"},
	search:      []string{"s.nom", "s.code", "s.localisation"},
	sorts:       map[string]string{"nom": "s.nom", "code": "s.code"},
	defaultSort: "s.nom",
}

type SiteRepositoryInterface interface {
	List(ctx context.Context, filter types.Filter, part authz.Partition) ([]entities.Site, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Site, error)
	Create(ctx context.Context, tx pgx.Tx, s *entities.Site) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, s *entities.Site) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type siteRepository struct {
	pgRepo
	logger *zap.Logger
}

func NewSiteRepository(storage *pgxpool.Pool, logger *zap.Logger) SiteRepositoryInterface {
	return &siteRepository{pgRepo: pgRepo{storage: storage}, logger: logger}
}

func scanSite(row pgx.Row) (*entities.Site, error) {
	var s entities.Site
	err := row.Scan(&s.ID, &s.Nom, &s.Code, &s.Localisation, &s.Description, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования sites: %w", err)
	}
	return &s, nil
}

func (r *siteRepository) List(ctx context.Context, filter types.Filter, part authz.Partition) ([]entities.Site, uint64, error) {
	if part.IsEmpty() {
		return []entities.Site{}, 0, nil
	}
	where := append(siteListSpec.conditions(filter), part.Predicate("s"))

	total, err := countRows(ctx, r.storage, siteFrom, where)
	if err != nil || total == 0 {
		return []entities.Site{}, 0, err
	}

	query, args, err := siteListSpec.page(psql().Select(siteFields).From(siteFrom).Where(where), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL select sites: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения select sites: %w", err)
	}
	defer rows.Close()

	list := make([]entities.Site, 0)
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *s)
	}
	return list, total, rows.Err()
}

func (r *siteRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Site, error) {
	query, args, err := psql().Select(siteFields).From(siteFrom).Where(sq.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL FindByID sites: %w", err)
	}
	return scanSite(r.getQuerier(tx).QueryRow(ctx, query, args...))
}

func (r *siteRepository) Create(ctx context.Context, tx pgx.Tx, s *entities.Site) (uint64, error) {
	query, args, err := psql().Insert(siteTable).
		Columns("nom", "code", "localisation", "description", "is_active").
		Values(s.Nom, s.Code, s.Localisation, s.Description, s.IsActive).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create sites: %w", err)
	}
	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, wrapWrite("code de site déjà utilisé", err)
	}
	return id, nil
}

func (r *siteRepository) Update(ctx context.Context, tx pgx.Tx, s *entities.Site) error {
	b := psql().Update(siteTable).
		Set("nom", s.Nom).
		Set("code", s.Code).
		Set("localisation", s.Localisation).
		Set("description", s.Description).
		Set("is_active", s.IsActive).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": s.ID})
	return execAffecting(ctx, r.getQuerier(tx), b, "обновление sites")
}

func (r *siteRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	return execAffecting(ctx, r.getQuerier(tx), psql().Delete(siteTable).Where(sq.Eq{"id": id}), "удаление sites")
}
