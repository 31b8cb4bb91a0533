package events

import (
	"time"

	"permanence-system/internal/entities"
)

const PermanenceTransitioned = "permanence.transitioned"

// PermanenceTransitionedEvent: статус permanence изменён через start/validate/reopen.
type PermanenceTransitionedEvent struct {
	PermanenceID uint64
	Verb         string
	From         entities.PermanenceStatus
	To           entities.PermanenceStatus
	Actor        *entities.User
	IP           string
	At           time.Time
}

func (e PermanenceTransitionedEvent) Name() string {
	return PermanenceTransitioned
}
