package entities

import (
	"time"

	"github.com/google/uuid"
)

type AuditOutcome string

const (
	OutcomeAllowed AuditOutcome = "allowed"
	OutcomeDenied  AuditOutcome = "denied"
	OutcomeFailed  AuditOutcome = "failed"
	OutcomeDone    AuditOutcome = "done"
)

// ActivityLog: запись журнала аудита (печать, экспорт, переходы статусов).
type ActivityLog struct {
	ID          uuid.UUID              `json:"id" db:"id"`
	ActorID     *uint64                `json:"actor_id" db:"actor_id"`
	Action      string                 `json:"action" db:"action"`
	TargetKind  string                 `json:"target_kind" db:"target_kind"`
	TargetID    *uint64                `json:"target_id,omitempty" db:"target_id"`
	Outcome     AuditOutcome           `json:"outcome" db:"outcome"`
	Rule        *string                `json:"rule,omitempty" db:"rule"`
	IP          *string                `json:"ip,omitempty" db:"ip"`
	RecordCount *int                   `json:"record_count,omitempty" db:"record_count"`
	Details     map[string]interface{} `json:"details,omitempty" db:"details"`
	CreatedAt   time.Time              `json:"created_at" db:"created_at"`
}
