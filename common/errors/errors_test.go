package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NotFound("Product not found"))
	assert.True(t, stderrors.Is(err, ErrNotFound))
	assert.False(t, stderrors.Is(err, ErrInsufficientStock))
}

func TestStatusCode(t *testing.T) {
	cases := map[error]int{
		NotFound("x"):                 http.StatusNotFound,
		OutOfStock("x"):               http.StatusBadRequest,
		InsufficientStock("x"):        http.StatusBadRequest,
		Validation("x"):               http.StatusBadRequest,
		Conflict("x"):                 http.StatusConflict,
		Unauthorized("x"):             http.StatusUnauthorized,
		Forbidden("x"):                http.StatusForbidden,
		Internal(stderrors.New("db")): http.StatusInternalServerError,
		stderrors.New("plain"):        http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusCode(err), err.Error())
	}
}

func TestPublicMessageHidesInternals(t *testing.T) {
	err := Internal(stderrors.New("connection refused on 10.0.0.3"))
	assert.Equal(t, "An internal server error occurred.", PublicMessage(err))
	assert.Equal(t, "An internal server error occurred.", PublicMessage(stderrors.New("boom")))
	assert.Equal(t, "Cart not found", PublicMessage(NotFound("Cart not found")))
	assert.ErrorContains(t, err, "connection refused")
}
