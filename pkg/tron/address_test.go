package tron

import (
	"crypto/sha256"
	"testing"

	"github.com/fbsobreira/gotron-sdk/pkg/address"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeAddress builds the base58check form of a 20-byte account id.
func encodeAddress(accountID [20]byte) string {
	raw := make(address.Address, 0, address.AddressLength)
	raw = append(raw, address.TronBytePrefix)
	raw = append(raw, accountID[:]...)
	return raw.String()
}

func TestValidAddress(t *testing.T) {
	var id [20]byte
	for i := range id {
		id[i] = byte(i * 7)
	}
	addr := encodeAddress(id)

	assert.Len(t, addr, 34)
	assert.Equal(t, byte('T'), addr[0])
	assert.True(t, ValidAddress(addr))
	assert.True(t, ValidAddress("TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t"))
}

func TestEncodedAddress_Checksum(t *testing.T) {
	var id [20]byte
	id[19] = 0x01
	raw, err := base58.Decode(encodeAddress(id))
	require.NoError(t, err)
	require.Len(t, raw, 25)

	first := sha256.Sum256(raw[:21])
	second := sha256.Sum256(first[:])
	assert.Equal(t, byte(0x41), raw[0])
	assert.Equal(t, second[:4], raw[21:])
}

func TestValidAddress_Rejects(t *testing.T) {
	var id [20]byte
	id[0] = 0xAB
	addr := encodeAddress(id)

	raw, err := base58.Decode(addr)
	require.NoError(t, err)
	raw[24] ^= 0xFF
	broken := base58.Encode(raw)

	cases := map[string]string{
		"empty":          "",
		"wrong prefix":   "A" + addr[1:],
		"too short":      addr[:33],
		"bad alphabet":   "T0" + addr[2:],
		"bad checksum":   broken,
		"ethereum style": "0x742d35Cc6634C0532925a3b844Bc454e4438f44e",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			assert.False(t, ValidAddress(in))
		})
	}
}
