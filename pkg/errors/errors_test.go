package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	cases := []struct {
		err  error
		want int
	}{
		{New(ErrInvalidInput, http.StatusUnprocessableEntity, "bad"), http.StatusUnprocessableEntity},
		{Wrap(ErrInvalidNamespace, cause), http.StatusBadRequest},
		{fmt.Errorf("parsing: %w", ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("status: %w", ErrNotFound), http.StatusNotFound},
		{ErrRateLimited, http.StatusTooManyRequests},
		{fmt.Errorf("executing query: %w", Wrap(ErrStoreUnavailable, cause)), http.StatusServiceUnavailable},
		{Wrap(ErrStoreOperationFailed, cause), http.StatusBadGateway},
		{ErrTimeout, http.StatusGatewayTimeout},
		{cause, http.StatusInternalServerError},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, HTTPStatusCode(c.err), c.err.Error())
	}
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(ErrInternal, nil))

	cause := errors.New("WRONGTYPE")
	err := Wrap(ErrStoreOperationFailed, cause)
	assert.ErrorIs(t, err, ErrStoreOperationFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store operation failed: WRONGTYPE", err.Error())
}

func TestAppError(t *testing.T) {
	err := Newf(ErrInvalidInput, http.StatusBadRequest, "window %d..%d exceeds %d", 0, 5000, 1000)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, "invalid input: window 0..5000 exceeds 1000", err.Error())
}
