package ekind

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKind_ExitCode(t *testing.T) {
	cases := map[Kind]int{
		InvalidArguments: 2,
		Validation:       2,
		Conflict:         3,
		Runtime:          1,
		Io:               1,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.ExitCode(), "kind=%s", kind)
	}
}

func TestError_Error(t *testing.T) {
	plain := New(Runtime, "git clone failed")
	assert.Equal(t, "runtime: git clone failed", plain.Error())

	withField := &Error{Kind: Validation, Field: "skills[0].id", Message: "must not be empty"}
	assert.Equal(t, "validation: skills[0].id: must not be empty", withField.Error())

	withCode := Validationf("EMPTY_ID", "skills[0].id", "must not be empty")
	assert.Equal(t, "validation: EMPTY_ID: skills[0].id: must not be empty", withCode.Error())
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(Io, nil))

	base := errors.New("permission denied")
	wrapped := Wrap(Io, base)
	require.Error(t, wrapped)
	assert.Equal(t, Io, wrapped.Kind)
	assert.ErrorIs(t, wrapped, base)

	existing := New(Conflict, "already exists")
	assert.Same(t, existing, Wrap(Io, existing))
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, 0, ExitCodeFor(nil))
	assert.Equal(t, 3, ExitCodeFor(New(Conflict, "boom")))
	assert.Equal(t, 1, ExitCodeFor(errors.New("unstructured")))

	wrapped := fmt.Errorf("context: %w", New(Validation, "bad field"))
	assert.Equal(t, 2, ExitCodeFor(wrapped))
}
