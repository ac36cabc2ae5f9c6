package apierrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithFormattedMessage(t *testing.T) {
	err := ErrUnknownCommand.WithFormattedMessage("blink")
	assert.Equal(t, "unknown command blink", err.Error())
	assert.Equal(t, "Неизвестная команда blink", err.RuErr)

	bare := ErrBlockNotFound.WithFormattedMessage()
	assert.Equal(t, "block not found", bare.Err)
	assert.Equal(t, "Блок не найден", bare.RuErr)
}

func TestIs(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", ErrNoDescriptor.WithFormattedMessage("chart"))
	assert.True(t, errors.Is(wrapped, ErrNoDescriptor))
	assert.False(t, errors.Is(wrapped, ErrRenderFailed))

	var de DefinedError
	assert.True(t, errors.As(wrapped, &de))
	assert.Equal(t, 5002, de.Code)
}
