package listeners

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"permanence-system/internal/authz"
	"permanence-system/internal/entities"
	"permanence-system/internal/events"
	"permanence-system/pkg/eventbus"
	apperrors "permanence-system/pkg/errors"
)

// LiveFeed: куда отправлять уведомления (pkg/websocket.Hub).
type LiveFeed interface {
	ConnectedUsers() []uint64
	SendToUser(userID uint64, messageType string, payload interface{}) error
}

type shiftReader interface {
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Permanence, error)
}

type assignmentChecker interface {
	IsAssigned(ctx context.Context, shiftID, userID uint64) (bool, error)
}

type userReader interface {
	FindByID(ctx context.Context, id uint64) (*entities.User, error)
}

// TransitionNotice: то, что видит клиент ленты.
type TransitionNotice struct {
	PermanenceID uint64                    `json:"permanence_id"`
	Date         string                    `json:"date"`
	Verb         string                    `json:"verb"`
	From         entities.PermanenceStatus `json:"from"`
	To           entities.PermanenceStatus `json:"to"`
	ActorName    string                    `json:"actor_name"`
	At           time.Time                 `json:"at"`
}

// LiveListener рассылает переходы статусов подключённым пользователям.
// Получатель проверяется тем же правилом видимости, что и GET /permanences/:id:
// sous-officier узнаёт только о своих permanences.
type LiveListener struct {
	feed        LiveFeed
	shifts      shiftReader
	assignments assignmentChecker
	users       userReader
	gate        *authz.Gatekeeper
	logger      *zap.Logger
}

func NewLiveListener(feed LiveFeed, shifts shiftReader, assignments assignmentChecker, users userReader, logger *zap.Logger) *LiveListener {
	return &LiveListener{
		feed:        feed,
		shifts:      shifts,
		assignments: assignments,
		users:       users,
		gate:        authz.NewGatekeeper(),
		logger:      logger,
	}
}

func (l *LiveListener) Register(bus *eventbus.Bus) {
	bus.Subscribe(events.PermanenceTransitioned, l.handleTransition)
	l.logger.Info("LiveListener подписан на событие", zap.String("event", events.PermanenceTransitioned))
}

func (l *LiveListener) handleTransition(ctx context.Context, e eventbus.Event) error {
	event, ok := e.(events.PermanenceTransitionedEvent)
	if !ok {
		return fmt.Errorf("LiveListener: неожиданный тип события %T", e)
	}

	recipients := l.feed.ConnectedUsers()
	if len(recipients) == 0 {
		return nil
	}

	shift, err := l.shifts.FindByID(ctx, nil, event.PermanenceID)
	if err != nil {
		return fmt.Errorf("LiveListener: загрузка permanence %d: %w", event.PermanenceID, err)
	}

	notice := TransitionNotice{
		PermanenceID: shift.ID,
		Date:         shift.Date.Format("2006-01-02"),
		Verb:         event.Verb,
		From:         event.From,
		To:           event.To,
		At:           event.At,
	}
	if event.Actor != nil {
		notice.ActorName = event.Actor.FullName()
	}

	var sent int
	for _, userID := range recipients {
		visible, err := l.canSee(ctx, userID, shift)
		if err != nil {
			l.logger.Warn("LiveListener: не удалось проверить получателя", zap.Uint64("userID", userID), zap.Error(err))
			continue
		}
		if !visible {
			continue
		}
		if err := l.feed.SendToUser(userID, events.PermanenceTransitioned, notice); err != nil {
			return fmt.Errorf("LiveListener: отправка пользователю %d: %w", userID, err)
		}
		sent++
	}

	l.logger.Debug("LiveListener: переход разослан",
		zap.Uint64("permanenceID", shift.ID), zap.Int("connected", len(recipients)), zap.Int("sent", sent))
	return nil
}

// canSee перечитывает пользователя: роль или активность могли измениться после подключения.
func (l *LiveListener) canSee(ctx context.Context, userID uint64, shift *entities.Permanence) (bool, error) {
	user, err := l.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	assigned := false
	if user.IsSousOfficier() {
		if assigned, err = l.assignments.IsAssigned(ctx, shift.ID, user.ID); err != nil {
			return false, err
		}
	}
	return l.gate.CanSeeShift(authz.ShiftContext(user, shift, assigned)), nil
}
