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
)

const (
	settingTable  = "settings"
	settingFields = `id, key, value, type, "group", label, created_at, updated_at`
)

type SettingRepositoryInterface interface {
	FindByKey(ctx context.Context, key string) (*entities.Setting, error)
	GetAll(ctx context.Context) ([]entities.Setting, error)
	GetGroup(ctx context.Context, group string) ([]entities.Setting, error)
	UpdateValue(ctx context.Context, key string, value *string) error
	// CleanFileSentinels заменяет мусорные значения файловых настроек на NULL и возвращает затронутые ключи.
	CleanFileSentinels(ctx context.Context) ([]string, error)
}

type settingRepository struct {
	pgRepo
	logger *zap.Logger
}

func NewSettingRepository(storage *pgxpool.Pool, logger *zap.Logger) SettingRepositoryInterface {
	return &settingRepository{pgRepo: pgRepo{storage: storage}, logger: logger}
}

func scanSetting(row pgx.Row) (*entities.Setting, error) {
	var s entities.Setting
	err := row.Scan(&s.ID, &s.Key, &s.Value, &s.Type, &s.Group, &s.Label, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования settings: %w", err)
	}
	return &s, nil
}

func (r *settingRepository) FindByKey(ctx context.Context, key string) (*entities.Setting, error) {
	query, args, err := psql().Select(settingFields).From(settingTable).Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL settings: %w", err)
	}
	return scanSetting(r.storage.QueryRow(ctx, query, args...))
}

func (r *settingRepository) GetAll(ctx context.Context) ([]entities.Setting, error) {
	return r.list(ctx, nil)
}

func (r *settingRepository) GetGroup(ctx context.Context, group string) ([]entities.Setting, error) {
	return r.list(ctx, sq.Eq{`"group"`: group})
}

func (r *settingRepository) list(ctx context.Context, where sq.Sqlizer) ([]entities.Setting, error) {
	b := psql().Select(settingFields).From(settingTable).OrderBy(`"group"`, "key")
	if where != nil {
		b = b.Where(where)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL settings: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения select settings: %w", err)
	}
	defer rows.Close()

	list := make([]entities.Setting, 0)
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

func (r *settingRepository) UpdateValue(ctx context.Context, key string, value *string) error {
	b := psql().Update(settingTable).
		Set("value", value).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"key": key})
	return execAffecting(ctx, r.storage, b, "обновление settings")
}

func (r *settingRepository) CleanFileSentinels(ctx context.Context) ([]string, error) {
	query, args, err := psql().Update(settingTable).
		Set("value", nil).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"type": entities.SettingFile}).
		Where(sq.Eq{"TRIM(value)": entities.InvalidFileSentinels()}).
		Suffix("RETURNING key").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL очистки settings: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка очистки settings: %w", err)
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
