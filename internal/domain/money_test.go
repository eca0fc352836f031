package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want Amount
		err  bool
	}{
		{in: "3.5", want: 3_500_000},
		{in: " 0.005 ", want: 5_000},
		{in: "0.000001", want: 1},
		{in: "-2", want: -2_000_000},
		{in: "3.4999999", err: true},
		{in: "abc", err: true},
		{in: "", err: true},
		{in: "1e30", err: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if tc.err {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAmountString(t *testing.T) {
	assert.Equal(t, "3.500000", MustAmount("3.5").String())
	assert.Equal(t, "-0.000001", Amount(-1).String())
	assert.Panics(t, func() { MustAmount("0.0000001") })
}

func TestMulRate(t *testing.T) {
	rate := decimal.RequireFromString("0.10")
	assert.Equal(t, MustAmount("0.35"), MustAmount("3.5").MulRate(rate))
	// 0.000005 * 0.1 rounds half away from zero.
	assert.Equal(t, Amount(1), Amount(5).MulRate(rate))
	assert.Equal(t, Amount(0), Amount(4).MulRate(rate))
	assert.Equal(t, Amount(0), MustAmount("10").MulRate(decimal.Zero))
}

func TestAmountJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Balance Amount `json:"balance"`
	}{MustAmount("3.15")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"balance":3.15}`, string(data))

	var in struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":3.5,"b":"0.01","c":null}`), &in))
	assert.Equal(t, MustAmount("3.5"), in.A)
	assert.Equal(t, MustAmount("0.01"), in.B)
	assert.Zero(t, in.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":1.0000001}`), &in))
}
