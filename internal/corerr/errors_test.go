package corerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	e := New(BadInput, "path must be absolute")
	assert.Equal(t, "BadInput: path must be absolute", e.Error())

	wrapped := Wrap(CacheError, "t2 write failed", errors.New("disk full"))
	assert.Equal(t, "CacheError: t2 write failed: disk full", wrapped.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := Wrap(CacheError, "t2 write failed", cause)
	assert.Same(t, cause, errors.Unwrap(wrapped))
}

func TestIs(t *testing.T) {
	err := New(Precondition, MsgCodebaseNotScanned)
	assert.True(t, Is(err, Precondition))
	assert.False(t, Is(err, NotFound))
	assert.False(t, Is(errors.New("plain"), Precondition))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, Timeout, KindOf(New(Timeout, "deadline exceeded")))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestResourceNotAvailable(t *testing.T) {
	msg := ResourceNotAvailable("scan_codebase")
	assert.Equal(t, "Resource not available. Run scan_codebase first.", msg)
}

func TestError_IsCompatibleAcrossWrapping(t *testing.T) {
	base := New(NotFound, "feature not found")
	outer := errors.Join(base)
	assert.True(t, Is(outer, NotFound))
}
