package fel_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/fel-api/internal/domain/fel"
)

func TestFormatFixed6(t *testing.T) {
	cases := map[string]string{
		"100":            "100.000000",
		"89.28571428571": "89.285714",
		"10.7142857":     "10.714286",
		"0.0000005":      "0.000001",
		"1234567.5":      "1234567.500000",
		"0":              "0",
		"-3.5":           "0",
	}
	for in, want := range cases {
		assert.Equal(t, want, fel.FormatFixed6(decimal.RequireFromString(in)), in)
	}
}

func TestFormatPlain(t *testing.T) {
	assert.Equal(t, "0", fel.FormatPlain(decimal.Zero))
	assert.Equal(t, "21.428572", fel.FormatPlain(decimal.RequireFromString("21.428572")))
	assert.Equal(t, "2.5", fel.FormatPlain(decimal.RequireFromString("2.500")))
}
