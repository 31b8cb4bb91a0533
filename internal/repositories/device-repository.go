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
	deviceTable = "appareils"
	deviceFrom  = "appareils ap"
)

var deviceFields = []string{
	"ap.id", "ap.nom", "ap.type", "ap.categorie", "ap.destinataire", "ap.numero_serie",
	"ap.site_id", "ap.statut", "ap.description", "ap.is_active", "ap.created_at", "ap.updated_at",
}

var deviceListSpec = listSpec{
	filters: map[string]string{
		"statut":       "ap.statut",
		"destinataire": "ap.destinataire",
		"site_id":      "ap.site_id",
		"categorie":    "ap.categorie",
		"is_active":    "ap.is_active",
	},
	search: []string{"ap.nom", "ap.numero_serie", "ap.type"},
	sorts: map[string]string{
		"id":  "ap.id",
		"nom": "ap.nom",
	},
	defaultSort: "ap.nom",
}

type DeviceRepositoryInterface interface {
	List(ctx context.Context, filter types.Filter, part authz.Partition) ([]entities.Appareil, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Appareil, error)
	Create(ctx context.Context, tx pgx.Tx, a *entities.Appareil) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, a *entities.Appareil) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64) error
}

type deviceRepository struct {
	pgRepo
	logger *zap.Logger
}

func NewDeviceRepository(storage *pgxpool.Pool, logger *zap.Logger) DeviceRepositoryInterface {
	return &deviceRepository{pgRepo: pgRepo{storage: storage}, logger: logger}
}

func scanDevice(row pgx.Row) (*entities.Appareil, error) {
	var a entities.Appareil
	err := row.Scan(
		&a.ID, &a.Nom, &a.Type, &a.Categorie, &a.Destinataire, &a.NumeroSerie,
		&a.SiteID, &a.Statut, &a.Description, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования appareils: %w", err)
	}
	return &a, nil
}

func (r *deviceRepository) List(ctx context.Context, filter types.Filter, part authz.Partition) ([]entities.Appareil, uint64, error) {
	if part.IsEmpty() {
		return []entities.Appareil{}, 0, nil
	}
	where := append(deviceListSpec.conditions(filter), part.Predicate("ap"))

	total, err := countRows(ctx, r.storage, deviceFrom, where)
	if err != nil || total == 0 {
		return []entities.Appareil{}, 0, err
	}

	query, args, err := deviceListSpec.page(psql().Select(deviceFields...).From(deviceFrom).Where(where), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL select appareils: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения select appareils: %w", err)
	}
	defer rows.Close()

	list := make([]entities.Appareil, 0)
	for rows.Next() {
		a, err := scanDevice(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *a)
	}
	return list, total, rows.Err()
}

func (r *deviceRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Appareil, error) {
	query, args, err := psql().Select(deviceFields...).From(deviceFrom).Where(sq.Eq{"ap.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL FindByID appareils: %w", err)
	}
	return scanDevice(r.getQuerier(tx).QueryRow(ctx, query, args...))
}

func (r *deviceRepository) Create(ctx context.Context, tx pgx.Tx, a *entities.Appareil) (uint64, error) {
	query, args, err := psql().Insert(deviceTable).
		Columns("nom", "type", "categorie", "destinataire", "numero_serie", "site_id", "statut", "description", "is_active").
		Values(a.Nom, a.Type, a.Categorie, a.Destinataire, a.NumeroSerie, a.SiteID, a.Statut, a.Description, a.IsActive).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create appareils: %w", err)
	}
	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, wrapWrite("numéro de série déjà utilisé", err)
	}
	return id, nil
}

func (r *deviceRepository) Update(ctx context.Context, tx pgx.Tx, a *entities.Appareil) error {
	b := psql().Update(deviceTable).
		Set("nom", a.Nom).
		Set("type", a.Type).
		Set("categorie", a.Categorie).
		Set("destinataire", a.Destinataire).
		Set("numero_serie", a.NumeroSerie).
		Set("site_id", a.SiteID).
		Set("statut", a.Statut).
		Set("description", a.Description).
		Set("is_active", a.IsActive).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": a.ID})
	return execAffecting(ctx, r.getQuerier(tx), b, "обновление appareils")
}

func (r *deviceRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64) error {
	return execAffecting(ctx, r.getQuerier(tx), psql().Delete(deviceTable).Where(sq.Eq{"id": id}), "удаление appareils")
}
