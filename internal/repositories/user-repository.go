package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"permanence-system/internal/entities"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/types"
)

const (
	userTable  = "users"
	userFields = "id, nom, prenom, matricule, email, password, role, fonction, is_active, created_at, updated_at"
)

var userListSpec = listSpec{
	filters: map[string]string{
		"role":      "role",
		"fonction":  "fonction",
		"is_active": "is_active",
	},
	search: []string{"nom", "prenom", "email", "matricule"},
	sorts: map[string]string{
		"id":         "id",
		"nom":        "nom",
		"created_at": "created_at",
	},
	defaultSort: "nom ASC, prenom ASC",
}

type UserRepositoryInterface interface {
	FindByID(ctx context.Context, id uint64) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	GetAll(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error)
	Create(ctx context.Context, tx pgx.Tx, u *entities.User) (uint64, error)
	Update(ctx context.Context, tx pgx.Tx, u *entities.User) error
	UpdatePassword(ctx context.Context, id uint64, hash string) error
}

type userRepository struct {
	pgRepo
	logger *zap.Logger
}

func NewUserRepository(storage *pgxpool.Pool, logger *zap.Logger) UserRepositoryInterface {
	return &userRepository{pgRepo: pgRepo{storage: storage}, logger: logger}
}

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID, &u.Nom, &u.Prenom, &u.Matricule, &u.Email, &u.Password,
		&u.Role, &u.Fonction, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования users: %w", err)
	}
	return &u, nil
}

func (r *userRepository) findOne(ctx context.Context, where sq.Sqlizer) (*entities.User, error) {
	query, args, err := psql().Select(userFields).From(userTable).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL users: %w", err)
	}
	return scanUser(r.storage.QueryRow(ctx, query, args...))
}

func (r *userRepository) FindByID(ctx context.Context, id uint64) (*entities.User, error) {
	return r.findOne(ctx, sq.Eq{"id": id})
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.findOne(ctx, sq.Expr("LOWER(email) = LOWER(?)", email))
}

func (r *userRepository) GetAll(ctx context.Context, filter types.Filter) ([]entities.User, uint64, error) {
	where := userListSpec.conditions(filter)
	total, err := countRows(ctx, r.storage, userTable, where)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []entities.User{}, 0, nil
	}

	query, args, err := userListSpec.page(psql().Select(userFields).From(userTable).Where(where), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL select users: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения select users: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

func (r *userRepository) Create(ctx context.Context, tx pgx.Tx, u *entities.User) (uint64, error) {
	query, args, err := psql().Insert(userTable).
		Columns("nom", "prenom", "matricule", "email", "password", "role", "fonction", "is_active").
		Values(u.Nom, u.Prenom, u.Matricule, u.Email, u.Password, u.Role, u.Fonction, u.IsActive).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create users: %w", err)
	}
	var id uint64
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, wrapWrite("ошибка создания users", err)
	}
	return id, nil
}

// Update не трогает role: роль неизменна после создания.
func (r *userRepository) Update(ctx context.Context, tx pgx.Tx, u *entities.User) error {
	b := psql().Update(userTable).
		Set("nom", u.Nom).
		Set("prenom", u.Prenom).
		Set("matricule", u.Matricule).
		Set("email", u.Email).
		Set("fonction", u.Fonction).
		Set("is_active", u.IsActive).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": u.ID})
	return execAffecting(ctx, r.getQuerier(tx), b, "обновление users")
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	b := psql().Update(userTable).
		Set("password", hash).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id})
	return execAffecting(ctx, r.storage, b, "обновление пароля")
}
