package gallery

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string // wei
	}{
		{"0", "0"},
		{"1", "1000000000000000000"},
		{"0.01", "10000000000000000"},
		{"0.05", "50000000000000000"},
		{"0.005", "5000000000000000"},
		{"2.5", "2500000000000000000"},
		{".5", "500000000000000000"},
		{"0.000000000000000001", "1"},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		require.NoError(t, err, "ParseAmount(%q)", tc.in)
		assert.Equal(t, tc.want, got.String(), "ParseAmount(%q)", tc.in)
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	for _, in := range []string{"", "-1", "abc", "1.2.3", "0.0000000000000000001", "1,5", "1.-5", "1.+5", "+1", "1.5e3", "1. 5"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, "ParseAmount(%q)", in)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		wei  string
		want string
	}{
		{"0", "0"},
		{"1000000000000000000", "1"},
		{"50000000000000000", "0.05"},
		{"5000000000000000", "0.005"},
		{"45000000000000000", "0.045"},
		{"1", "0.000000000000000001"},
		{"2500000000000000000", "2.5"},
	}
	for _, tc := range cases {
		wei, ok := new(big.Int).SetString(tc.wei, 10)
		require.True(t, ok)
		assert.Equal(t, tc.want, FormatAmount(wei), "FormatAmount(%s)", tc.wei)
	}
}

func TestSplitAmount_SumIdentity(t *testing.T) {
	prices := []string{"0", "1", "0.01", "0.05", "123.456789", "0.000000000000000007"}
	for rate := 0; rate <= 100; rate++ {
		for _, p := range prices {
			total, err := ParseAmount(p)
			require.NoError(t, err)

			donated, owner := SplitAmount(total, rate)
			sum := new(big.Int).Add(donated, owner)
			require.Zero(t, sum.Cmp(total), "rate=%d price=%s: donated+owner != total", rate, p)

			expected := new(big.Int).Mul(total, big.NewInt(int64(rate)))
			expected.Quo(expected, big.NewInt(100))
			require.Zero(t, donated.Cmp(expected), "rate=%d price=%s: donated formula", rate, p)
		}
	}
}

func TestSplitAmount_Example(t *testing.T) {
	total, err := ParseAmount("0.05")
	require.NoError(t, err)

	donated, owner := SplitAmount(total, 10)
	assert.Equal(t, "0.005", FormatAmount(donated))
	assert.Equal(t, "0.045", FormatAmount(owner))
}
