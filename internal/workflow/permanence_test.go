package workflow

import (
	"errors"
	"testing"
	"time"

	"permanence-system/internal/entities"
	apperrors "permanence-system/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShift(status entities.PermanenceStatus) *entities.Permanence {
	p := &entities.Permanence{ID: 1, Date: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), OfficierID: 7, Statut: status}
	if status == entities.StatusValidee {
		ts := time.Date(2026, 2, 10, 20, 0, 0, 0, time.UTC)
		p.ValidatedAt = &ts
	}
	return p
}

func TestApply_FullLifecycle(t *testing.T) {
	p := newShift(entities.StatusPlanifiee)
	now := time.Date(2026, 2, 10, 18, 30, 0, 0, time.UTC)

	res, err := Apply(p, VerbStart, now)
	require.NoError(t, err)
	assert.Equal(t, entities.StatusPlanifiee, res.Expected)
	Commit(p, res)
	assert.Equal(t, entities.StatusEnCours, p.Statut)
	assert.Nil(t, p.ValidatedAt)
	assert.False(t, p.IsLocked())

	res, err = Apply(p, VerbValidate, now)
	require.NoError(t, err)
	Commit(p, res)
	assert.Equal(t, entities.StatusValidee, p.Statut)
	require.NotNil(t, p.ValidatedAt)
	assert.True(t, p.ValidatedAt.Equal(now))
	assert.True(t, p.IsLocked())

	res, err = Apply(p, VerbReopen, now)
	require.NoError(t, err)
	Commit(p, res)
	assert.Equal(t, entities.StatusEnCours, p.Statut)
	assert.Nil(t, p.ValidatedAt)
}

func TestApply_ValidateTwiceFails(t *testing.T) {
	p := newShift(entities.StatusEnCours)
	res, err := Apply(p, VerbValidate, time.Now())
	require.NoError(t, err)
	Commit(p, res)

	_, err = Apply(p, VerbValidate, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

	var te *apperrors.TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "validate", te.Verb)
	assert.Equal(t, "validee", te.From)
}

func TestApply_ValidateFromPlannedAllowed(t *testing.T) {
	p := newShift(entities.StatusPlanifiee)
	res, err := Apply(p, VerbValidate, time.Now())
	require.NoError(t, err)
	assert.Equal(t, entities.StatusValidee, res.Next)
}

func TestApply_Preconditions(t *testing.T) {
	cases := []struct {
		name   string
		from   entities.PermanenceStatus
		verb   Verb
		wantOK bool
	}{
		{"start planned", entities.StatusPlanifiee, VerbStart, true},
		{"start in progress", entities.StatusEnCours, VerbStart, false},
		{"start validated", entities.StatusValidee, VerbStart, false},
		{"reopen planned", entities.StatusPlanifiee, VerbReopen, false},
		{"reopen in progress", entities.StatusEnCours, VerbReopen, false},
		{"reopen validated", entities.StatusValidee, VerbReopen, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newShift(tc.from)
			_, err := Apply(p, tc.verb, time.Now())
			if tc.wantOK {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
			}
			// Apply не меняет сущность
			assert.Equal(t, tc.from, p.Statut)
		})
	}
}

func TestLockedIffValidated(t *testing.T) {
	for _, st := range []entities.PermanenceStatus{entities.StatusPlanifiee, entities.StatusEnCours, entities.StatusValidee} {
		p := newShift(st)
		assert.Equal(t, st == entities.StatusValidee, p.IsLocked(), st)
		assert.Equal(t, st == entities.StatusValidee, p.ValidatedAt != nil, st)
	}
}

func TestParseVerb(t *testing.T) {
	v, err := ParseVerb("reopen")
	require.NoError(t, err)
	assert.Equal(t, VerbReopen, v)

	_, err = ParseVerb("archive")
	assert.ErrorIs(t, err, apperrors.ErrBadRequest)
}
