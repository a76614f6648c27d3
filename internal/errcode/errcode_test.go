package errcode

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		Validation:  http.StatusBadRequest,
		Auth:        http.StatusUnauthorized,
		NotFound:    http.StatusNotFound,
		Upstream:    http.StatusInternalServerError,
		Store:       http.StatusInternalServerError,
		Unavailable: http.StatusServiceUnavailable,
		Internal:    http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, kind.HTTPStatus(), kind.String())
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("create plan: %w", StoreFailed("insert plan", cause))

	assert.Equal(t, Store, KindOf(err))
	assert.True(t, Is(err, Store))
	assert.False(t, Is(err, Upstream))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "insert plan", MessageOf(err))
}

func TestKindOfPlainError(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, Internal, KindOf(err))
	assert.Empty(t, MessageOf(err))
}

func TestDeniedIsAuth(t *testing.T) {
	err := fmt.Errorf("middleware: %w", Denied("Please authenticate"))
	assert.True(t, Is(err, Auth))
	assert.Equal(t, http.StatusUnauthorized, KindOf(err).HTTPStatus())
	assert.Equal(t, "Please authenticate", MessageOf(err))
}
