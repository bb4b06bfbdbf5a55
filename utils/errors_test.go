package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(ErrNotFound("table %d not found", 3)))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))

	wrapped := fmt.Errorf("scan: %w", ErrCapacityExceeded("full"))
	assert.Equal(t, KindCapacityExceeded, KindOf(wrapped))
	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsConflict(ErrNotFound("x")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[ErrorKind]int{
		KindValidation:       http.StatusBadRequest,
		KindAlreadyDeleted:   http.StatusBadRequest,
		KindNotFound:         http.StatusNotFound,
		KindConflict:         http.StatusConflict,
		KindCapacityExceeded: http.StatusConflict,
		KindUnauthorized:     http.StatusUnauthorized,
		KindPermissionDenied: http.StatusForbidden,
		KindTransient:        http.StatusServiceUnavailable,
		KindInternal:         http.StatusInternalServerError,
	}
	for kind, code := range cases {
		assert.Equal(t, code, kind.HTTPStatus(), string(kind))
	}
}

func TestTransientIsRetryable(t *testing.T) {
	err := ErrTransient("timeout", errors.New("deadline"))
	assert.True(t, err.Retryable())
	assert.ErrorContains(t, err, "deadline")
	assert.False(t, ErrConflict("x").Retryable())
}
