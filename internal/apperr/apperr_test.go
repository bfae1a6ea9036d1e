package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesKindAndCode(t *testing.T) {
	err := Conflict(CodeMachineBusy, "machine is not available")

	assert.True(t, errors.Is(err, Conflict(CodeMachineBusy, "")))
	assert.False(t, errors.Is(err, Conflict(CodeInsufficientBalance, "")))
	assert.False(t, errors.Is(err, NotFound(CodeMachineBusy, "")))

	// Empty target code matches any code of the same kind.
	assert.True(t, errors.Is(err, Conflict("", "")))
}

func TestErrorIsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handling request: %w", NotFound(CodeMemberNotFound, "member not found"))
	assert.True(t, errors.Is(err, NotFound(CodeMemberNotFound, "")))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestInternalWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal(CodeStorage, "storage failure", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "storage_failure")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWithAttachesContext(t *testing.T) {
	err := Conflict(CodeInsufficientBalance, "balance does not cover the fee").
		With("member_id", int64(7)).
		With("fee", 12.5)

	require.NotNil(t, err.Context)
	assert.Equal(t, int64(7), err.Context["member_id"])
	assert.Equal(t, 12.5, err.Context["fee"])
}

func TestFrom(t *testing.T) {
	appErr := Validation("bad input")
	assert.Equal(t, appErr, From(fmt.Errorf("wrapped: %w", appErr)))

	plain := errors.New("boom")
	converted := From(plain)
	assert.Equal(t, KindInternal, converted.Kind)
	assert.Equal(t, CodeStorage, converted.Code)
	assert.ErrorIs(t, converted, plain)
}

func TestKindOfUnknownError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}
