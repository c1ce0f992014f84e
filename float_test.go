package roomle

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFloatFormat 测试浮点格式化
func TestFloatFormat(t *testing.T) {
	tests := []struct {
		value     float64
		precision int
		want      string
	}{
		{0, 1, "0"},
		{1000, 1, "1000"},
		{1.25, 1, "1.2"},
		{0.123456, 4, "0.1235"},
		{2.5000, 3, "2.5"},
		{-0.04, 1, "0"},
		{-1.5, 0, "-2"},
		{123.456, 0, "123"},
		{-12.3401, 2, "-12.34"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FloatFormat(tt.value, tt.precision))
		})
	}
}

// TestFloatFormatNegativeZero 测试负零
func TestFloatFormatNegativeZero(t *testing.T) {
	for p := 0; p <= 8; p++ {
		assert.Equal(t, "0", FloatFormat(math.Copysign(0, -1), p), "precision %d", p)
	}
}

// TestFloatFormatRoundTrip 测试格式化后解析误差
func TestFloatFormatRoundTrip(t *testing.T) {
	values := []float64{0.1, 1.0 / 3, -2.718281828, 12345.678901, 1e-7, -999.9999}
	for _, v := range values {
		for p := 0; p <= 8; p++ {
			parsed, err := strconv.ParseFloat(FloatFormat(v, p), 64)
			require.NoError(t, err)
			assert.Less(t, math.Abs(parsed-v), math.Pow(10, -float64(p)), "value %v precision %d", v, p)
		}
	}
}

// TestIsZero 测试按精度判零
func TestIsZero(t *testing.T) {
	assert.True(t, IsZero(0.04, 1))
	assert.True(t, IsZero(-0.004, 2))
	assert.False(t, IsZero(0.06, 1))
	assert.False(t, IsZero(-0.01, 2))
}
