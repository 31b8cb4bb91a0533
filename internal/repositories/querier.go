package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"permanence-system/internal/authz"
	apperrors "permanence-system/pkg/errors"
	"permanence-system/pkg/types"
)

// Querier: общее подмножество pgxpool.Pool и pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type pgRepo struct {
	storage *pgxpool.Pool
}

// getQuerier - возвращает транзакцию или пул соединений
func (r pgRepo) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

// isConstraintViolation: 23505 unique_violation, 23503 foreign_key_violation.
func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23505" || pgErr.Code == "23503"
}

// wrapWrite переводит ошибки записи в ошибки приложения.
func wrapWrite(op string, err error) error {
	if isConstraintViolation(err) {
		return fmt.Errorf("%s: %w", op, apperrors.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// hhmm: колонка TIME в виде "HH:MM".
func hhmm(column, alias string) string {
	return fmt.Sprintf("to_char(%s, 'HH24:MI') AS %s", column, alias)
}

// timeArg: значение "HH:MM" для колонки TIME.
func timeArg(v string) sq.Sqlizer {
	return sq.Expr("?::time", v)
}

func optionalTimeArg(v *string) interface{} {
	if v == nil {
		return nil
	}
	return timeArg(*v)
}

// listSpec: белые списки фильтров, поиска и сортировки для одной таблицы.
type listSpec struct {
	filters     map[string]string
	search      []string
	sorts       map[string]string
	defaultSort string
}

// conditions строит условия WHERE из query-фильтра. Неизвестные ключи игнорируются.
func (s listSpec) conditions(f types.Filter) sq.And {
	conds := sq.And{}
	for key, value := range f.Filter {
		column, ok := s.filters[key]
		if !ok {
			continue
		}
		switch {
		case strings.HasSuffix(key, "_from"):
			conds = append(conds, sq.GtOrEq{column: value})
		case strings.HasSuffix(key, "_to"):
			conds = append(conds, sq.LtOrEq{column: value})
		default:
			if items, ok := value.(string); ok && strings.Contains(items, ",") {
				conds = append(conds, sq.Eq{column: strings.Split(items, ",")})
			} else {
				conds = append(conds, sq.Eq{column: value})
			}
		}
	}
	if f.Search != "" && len(s.search) > 0 {
		or := sq.Or{}
		for _, column := range s.search {
			or = append(or, sq.ILike{column: "%" + f.Search + "%"})
		}
		conds = append(conds, or)
	}
	return conds
}

// page добавляет сортировку и пагинацию.
func (s listSpec) page(b sq.SelectBuilder, f types.Filter) sq.SelectBuilder {
	sorted := false
	for field, direction := range f.Sort {
		column, ok := s.sorts[field]
		if !ok {
			continue
		}
		dir := "ASC"
		if strings.EqualFold(direction, "desc") {
			dir = "DESC"
		}
		b = b.OrderBy(column + " " + dir)
		sorted = true
	}
	if !sorted && s.defaultSort != "" {
		b = b.OrderBy(s.defaultSort)
	}
	if f.WithPagination && f.Limit > 0 {
		b = b.Limit(uint64(f.Limit)).Offset(uint64(f.Offset))
	}
	return b
}

func countRows(ctx context.Context, q Querier, from string, where sq.Sqlizer) (uint64, error) {
	query, args, err := psql().Select("COUNT(*)").From(from).Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки SQL count: %w", err)
	}
	var total uint64
	if err := q.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("ошибка выполнения count: %w", err)
	}
	return total, nil
}

func execAffecting(ctx context.Context, q Querier, b sq.Sqlizer, op string) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки SQL %s: %w", op, err)
	}
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return wrapWrite(op, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func guardUpdate(b sq.UpdateBuilder, guard authz.WriteGuard, kind authz.ResourceKind) sq.UpdateBuilder {
	if pred := guard.Predicate(kind); pred != nil {
		return b.Where(pred)
	}
	return b
}

func guardDelete(b sq.DeleteBuilder, guard authz.WriteGuard, kind authz.ResourceKind) sq.DeleteBuilder {
	if pred := guard.Predicate(kind); pred != nil {
		return b.Where(pred)
	}
	return b
}

// execGuarded: execAffecting под WriteGuard. Строка, которую actor только что видел,
// но запись её не затронула, заблокирована validee.
func execGuarded(ctx context.Context, q Querier, b sq.Sqlizer, op string, guard authz.WriteGuard, kind authz.ResourceKind, action authz.Action) error {
	err := execAffecting(ctx, q, b, op)
	if errors.Is(err, apperrors.ErrNotFound) && guard.Active() {
		return guard.Err(kind, action)
	}
	return err
}
