package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "validation", err: Validation("amount must be positive"), want: KindValidation},
		{name: "not found", err: NotFound("contractor"), want: KindNotFound},
		{name: "access denied", err: AccessDenied("project"), want: KindAccessDenied},
		{name: "wrapped", err: fmt.Errorf("create entry: %w", Conflict("duplicate")), want: KindConflict},
		{name: "plain error", err: errors.New("boom"), want: KindInternal},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal("load ledger", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "load ledger: connection reset", err.Error())
	assert.True(t, Is(err, KindInternal))
	assert.False(t, Is(nil, KindInternal))
}
