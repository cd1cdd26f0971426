package adaptive

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "no underlying error",
			err:  &Error{Op: "Engine.New", Kind: KindConfiguration},
			want: "adaptive: Engine.New: configuration",
		},
		{
			name: "with underlying error",
			err:  &Error{Op: "Engine.Save", Kind: KindStorage, Err: errors.New("disk full")},
			want: "adaptive: Engine.Save (storage): disk full",
		},
		{
			name: "with context",
			err: &Error{
				Op:      "Engine.Save",
				Kind:    KindStorage,
				Err:     errors.New("disk full"),
				Context: map[string]any{"path": "/tmp/history.json"},
			},
			want: "adaptive: Engine.Save (storage): disk full [context: map[path:/tmp/history.json]]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	underlying := errors.New("boom")
	err := NewStorageError("Engine.Save", underlying)

	assert.ErrorIs(t, err, underlying)
	assert.Equal(t, underlying, errors.Unwrap(err))
}

func TestErrorIsKindMatching(t *testing.T) {
	err := NewConfigurationError("Engine.New", ErrUnknownStrategy)

	// Matches on kind alone.
	assert.ErrorIs(t, err, &Error{Kind: KindConfiguration})
	// Matches on kind and op.
	assert.ErrorIs(t, err, &Error{Op: "Engine.New", Kind: KindConfiguration})
	// Different kind does not match.
	assert.NotErrorIs(t, err, &Error{Kind: KindStorage})
	// Delegates to the underlying sentinel.
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestErrorAs(t *testing.T) {
	wrapped := NewValidationError("Store.Record", errors.New("empty embedding"))

	var e *Error
	require.ErrorAs(t, error(wrapped), &e)
	assert.Equal(t, KindValidation, e.Kind)
	assert.Equal(t, "Store.Record", e.Op)
}

func TestErrorWithContext(t *testing.T) {
	base := NewStorageError("Engine.Save", errors.New("boom"))
	enriched := base.WithContext(map[string]any{"agent_id": "scout"})

	assert.Nil(t, base.Context)
	assert.Equal(t, "scout", enriched.Context["agent_id"])
}

func TestErrorConstructorKinds(t *testing.T) {
	underlying := errors.New("x")
	tests := []struct {
		err  *Error
		kind string
	}{
		{NewValidationError("op", underlying), KindValidation},
		{NewConfigurationError("op", underlying), KindConfiguration},
		{NewStorageError("op", underlying), KindStorage},
		{NewGenerationError("op", underlying), KindGeneration},
		{NewInternalError("op", underlying), KindInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, tt.err.Kind)
		assert.ErrorIs(t, tt.err, underlying)
	}
}
