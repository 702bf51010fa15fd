package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("outer: %w", Wrap(KindNotFound, "progetto non trovato", cause))

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.Equal(t, "progetto non trovato", MessageOf(wrapped))
	assert.ErrorIs(t, wrapped, cause)

	assert.Equal(t, KindInternal, KindOf(cause))
	assert.Equal(t, "boom", MessageOf(cause))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "invalid_input: campo mancante", Invalid("campo %s", "mancante").Error())
	assert.Equal(t, "internal: x: boom", Wrap(KindInternal, "x", errors.New("boom")).Error())
}
