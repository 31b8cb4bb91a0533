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
	receptionTable = "reception_materiels"
	receptionFrom  = "reception_materiels m JOIN users u ON u.id = m.user_id JOIN appareils ap ON ap.id = m.appareil_id"
)

var receptionFields = []string{
	"m.id", "m.permanence_id", "m.user_id", "m.appareil_id",
	"m.recu_integralite", "m.etat_fonctionnement", "m.commentaire",
	"u.prenom || ' ' || u.nom", "u.role", "ap.nom",
	"m.created_at", "m.updated_at",
}

var receptionListSpec = listSpec{
	filters: map[string]string{
		"permanence_id":       "m.permanence_id",
		"user_id":             "m.user_id",
		"etat_fonctionnement": "m.etat_fonctionnement",
	},
	sorts:       map[string]string{"created_at": "m.created_at"},
	defaultSort: "u.role, u.nom, ap.nom",
}

type ReceptionRepositoryInterface interface {
	List(ctx context.Context, filter types.Filter, part authz.Partition) ([]entities.ReceptionMateriel, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ReceptionMateriel, error)
	Create(ctx context.Context, tx pgx.Tx, m *entities.ReceptionMateriel) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, m *entities.ReceptionMateriel, guard authz.WriteGuard) error
	Delete(ctx context.Context, tx pgx.Tx, id uint64, guard authz.WriteGuard) error
}

type receptionRepository struct {
	pgRepo
	logger *zap.Logger
}

func NewReceptionRepository(storage *pgxpool.Pool, logger *zap.Logger) ReceptionRepositoryInterface {
	return &receptionRepository{pgRepo: pgRepo{storage: storage}, logger: logger}
}

func scanReception(row pgx.Row) (*entities.ReceptionMateriel, error) {
	var m entities.ReceptionMateriel
	err := row.Scan(
		&m.ID, &m.PermanenceID, &m.UserID, &m.AppareilID,
		&m.RecuIntegralite, &m.EtatFonctionnement, &m.Commentaire,
		&m.UserNom, &m.UserRole, &m.AppareilNom,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования reception_materiels: %w", err)
	}
	return &m, nil
}

func (r *receptionRepository) List(ctx context.Context, filter types.Filter, part authz.Partition) ([]entities.ReceptionMateriel, uint64, error) {
	if part.IsEmpty() {
		return []entities.ReceptionMateriel{}, 0, nil
	}
	where := append(receptionListSpec.conditions(filter), part.Predicate("m"))

	total, err := countRows(ctx, r.storage, receptionFrom, where)
	if err != nil || total == 0 {
		return []entities.ReceptionMateriel{}, 0, err
	}

	query, args, err := receptionListSpec.page(psql().Select(receptionFields...).From(receptionFrom).Where(where), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL select reception_materiels: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения select reception_materiels: %w", err)
	}
	defer rows.Close()

	list := make([]entities.ReceptionMateriel, 0)
	for rows.Next() {
		m, err := scanReception(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, *m)
	}
	return list, total, rows.Err()
}

func (r *receptionRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.ReceptionMateriel, error) {
	query, args, err := psql().Select(receptionFields...).From(receptionFrom).Where(sq.Eq{"m.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL FindByID reception_materiels: %w", err)
	}
	return scanReception(r.getQuerier(tx).QueryRow(ctx, query, args...))
}

func (r *receptionRepository) Create(ctx context.Context, tx pgx.Tx, m *entities.ReceptionMateriel) (uint64, error) {
	query, args, err := psql().Insert(receptionTable).
		Columns("permanence_id", "user_id", "appareil_id", "recu_integralite", "etat_fonctionnement", "commentaire").
		Values(m.PermanenceID, m.UserID, m.AppareilID, m.RecuIntegralite, m.EtatFonctionnement, m.Commentaire).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create reception_materiels: %w", err)
	}
	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, wrapWrite("réception déjà enregistrée pour ce matériel", err)
	}
	return id, nil
}

func (r *receptionRepository) Update(ctx context.Context, tx pgx.Tx, m *entities.ReceptionMateriel, guard authz.WriteGuard) error {
	b := psql().Update(receptionTable).
		Set("user_id", m.UserID).
		Set("appareil_id", m.AppareilID).
		Set("recu_integralite", m.RecuIntegralite).
		Set("etat_fonctionnement", m.EtatFonctionnement).
		Set("commentaire", m.Commentaire).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": m.ID})
	b = guardUpdate(b, guard, authz.KindMaterialReception)
	return execGuarded(ctx, r.getQuerier(tx), b, "обновление reception_materiels", guard, authz.KindMaterialReception, authz.ActionUpdate)
}

func (r *receptionRepository) Delete(ctx context.Context, tx pgx.Tx, id uint64, guard authz.WriteGuard) error {
	b := guardDelete(psql().Delete(receptionTable).Where(sq.Eq{"id": id}), guard, authz.KindMaterialReception)
	return execGuarded(ctx, r.getQuerier(tx), b, "удаление reception_materiels", guard, authz.KindMaterialReception, authz.ActionDelete)
}
