package stack_error

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackErrorStack(t *testing.T) {
	cause := errors.New("connection refused")

	te := TrackErrorStack(cause).AddContext("doc_id", "d1")
	require.Len(t, te.ErrStack, 1)
	assert.True(t, strings.HasPrefix(te.ErrStack[0].Key, "error_test.go:"))

	wrapped := fmt.Errorf("flush: %w", te)
	again := TrackErrorStack(wrapped).AddContext("doc_id", "other").AddContext("session", "s")

	assert.Same(t, te, again)
	assert.Len(t, again.ErrStack, 2)
	assert.Equal(t, "d1", again.Context["doc_id"])
	assert.Equal(t, "s", again.Context["session"])
	assert.ErrorIs(t, again, cause)
	assert.Equal(t, "connection refused", again.Error())
}

func TestAttrs(t *testing.T) {
	te := TrackErrorStack(errors.New("boom")).AddContext("b", 2).AddContext("a", 1)
	attrs := te.attrs()
	require.Len(t, attrs, 4)
	assert.Equal(t, "a", fmt.Sprint(attrs[0])[:1])

	LogError(nil, te)
	LogError(nil, errors.New("plain"))
	LogError(nil, nil)
}
