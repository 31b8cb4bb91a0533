package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"permanence-system/internal/entities"
	"permanence-system/pkg/types"
)

const (
	activityLogTable  = "activity_log"
	activityLogFields = "id, actor_id, action, target_kind, target_id, outcome, rule, ip, record_count, details, created_at"
)

var activityLogListSpec = listSpec{
	filters: map[string]string{
		"actor_id":    "actor_id",
		"action":      "action",
		"target_kind": "target_kind",
		"outcome":     "outcome",
		"date_from":   "created_at",
		"date_to":     "created_at",
	},
	search:      []string{"action", "target_kind", "rule"},
	sorts:       map[string]string{"created_at": "created_at"},
	defaultSort: "created_at DESC",
}

type ActivityLogRepositoryInterface interface {
	Create(ctx context.Context, tx pgx.Tx, entry *entities.ActivityLog) error
	List(ctx context.Context, filter types.Filter) ([]entities.ActivityLog, uint64, error)
}

type activityLogRepository struct {
	pgRepo
	logger *zap.Logger
}

func NewActivityLogRepository(storage *pgxpool.Pool, logger *zap.Logger) ActivityLogRepositoryInterface {
	return &activityLogRepository{pgRepo: pgRepo{storage: storage}, logger: logger}
}

func (r *activityLogRepository) Create(ctx context.Context, tx pgx.Tx, e *entities.ActivityLog) error {
	details := e.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	query, args, err := psql().Insert(activityLogTable).
		Columns("id", "actor_id", "action", "target_kind", "target_id", "outcome", "rule", "ip", "record_count", "details", "created_at").
		Values(e.ID, e.ActorID, e.Action, e.TargetKind, e.TargetID, e.Outcome, e.Rule, e.IP, e.RecordCount, details, e.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Create activity_log: %w", err)
	}
	if _, err := r.getQuerier(tx).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ошибка записи activity_log: %w", err)
	}
	return nil
}

func (r *activityLogRepository) List(ctx context.Context, filter types.Filter) ([]entities.ActivityLog, uint64, error) {
	where := activityLogListSpec.conditions(filter)
	total, err := countRows(ctx, r.storage, activityLogTable, where)
	if err != nil || total == 0 {
		return []entities.ActivityLog{}, 0, err
	}

	query, args, err := activityLogListSpec.page(psql().Select(activityLogFields).From(activityLogTable).Where(where), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки SQL select activity_log: %w", err)
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка выполнения select activity_log: %w", err)
	}
	defer rows.Close()

	list := make([]entities.ActivityLog, 0)
	for rows.Next() {
		var e entities.ActivityLog
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.TargetKind, &e.TargetID, &e.Outcome, &e.Rule, &e.IP, &e.RecordCount, &e.Details, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("ошибка сканирования activity_log: %w", err)
		}
		list = append(list, e)
	}
	return list, total, rows.Err()
}
