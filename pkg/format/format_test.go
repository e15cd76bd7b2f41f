package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	assert.Equal(t, "$1,234.56", Currency(1234.56))
	assert.Equal(t, "$110.00", Currency(110))
	assert.Equal(t, "$0.00", Currency(0))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "5.12%", Percent(0.0512))
	assert.Equal(t, "-10.00%", Percent(-0.1))
	assert.Equal(t, "0.00%", Percent(0))
}

func TestCompactNumber(t *testing.T) {
	assert.Equal(t, "1.5M", CompactNumber(1500000))
	assert.Equal(t, "2.3B", CompactNumber(2300000000))
	assert.Equal(t, "12.0K", CompactNumber(12000))
	assert.Equal(t, "999", CompactNumber(999))
}
