package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesSentinel(t *testing.T) {
	err := Wrapf(ErrTickerNotFound, "ticker %s", "TSLA")

	assert.True(t, Is(err, ErrTickerNotFound))
	assert.Contains(t, err.Error(), "TSLA")
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, "context"))
	assert.Nil(t, Wrapf(nil, "context %d", 1))
}

func TestTickerError(t *testing.T) {
	inner := New("non-numeric close")
	err := NewTickerError("MSFT", "parse", inner)

	assert.Contains(t, err.Error(), "MSFT")
	assert.Contains(t, err.Error(), "parse")
	assert.True(t, Is(err, inner))

	var te *TickerError
	assert.True(t, As(err, &te))
	assert.Equal(t, "parse", te.Stage)
}
