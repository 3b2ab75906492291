package asc

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"512.3", "512.3"},
		{"-12.25", "-12.25"},
		{"+7", "7"},
		{".5", "0.5"},
		{"3.", "3"},
		{"0.000001", "0.000001"},
		{"123456789012345678901234.5", "123456789012345678901234.5"},
		{"1.5e2", "150"},
		{"1.5E2", "150"},
		{"2e-3", "0.002"},
		{"-4.25e+1", "-42.5"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDecimal(tt.in)
			require.NoError(t, err)
			want := decimal.RequireFromString(tt.want)
			assert.True(t, got.Equal(want), "got %s, want %s", got, want)
		})
	}
}

func TestParseDecimalExact(t *testing.T) {
	// 0.1 has no exact binary representation; the decoded value must.
	got, err := ParseDecimal("0.1")
	require.NoError(t, err)
	sum := got.Add(got).Add(got)
	assert.True(t, sum.Equal(decimal.RequireFromString("0.3")))
	assert.Equal(t, "0.1", got.String())
}

func TestParseDecimalInvalid(t *testing.T) {
	for _, in := range []string{"", ".", "-", "abc", "1.2.3", "1e", "e5", "1e2.5", "NaN", "inf", "--1", "1,5"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDecimal(in)
			require.Error(t, err)
			var ne *NumericParseError
			require.True(t, errors.As(err, &ne))
			assert.Equal(t, in, ne.Token)
			assert.Equal(t, "decimal", ne.Kind)
		})
	}
}

func TestParseOptionalDecimal(t *testing.T) {
	got, err := ParseOptionalDecimal(".")
	require.NoError(t, err)
	assert.Nil(t, got)

	for _, in := range []string{"12.5", "1.5e2", "-0.75"} {
		got, err := ParseOptionalDecimal(in)
		require.NoError(t, err)
		require.NotNil(t, got)
		want, err := ParseDecimal(in)
		require.NoError(t, err)
		assert.True(t, got.Equal(want))
	}

	_, err = ParseOptionalDecimal("..")
	assert.Error(t, err)
}

func TestParseIntegers(t *testing.T) {
	v32, err := ParseUint32("4294967295")
	require.NoError(t, err)
	assert.Equal(t, uint32(4294967295), v32)

	_, err = ParseUint32("4294967296")
	assert.Error(t, err)
	_, err = ParseUint32("-1")
	assert.Error(t, err)

	v64, err := ParseUint64("18446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), v64)

	i32, err := ParseInt32("-384")
	require.NoError(t, err)
	assert.Equal(t, int32(-384), i32)

	var ne *NumericParseError
	_, err = ParseInt32("x")
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, "integer", ne.Kind)
}
