// Package tron validates TRON (TRX) wallet addresses.
package tron

import (
	"regexp"

	"github.com/fbsobreira/gotron-sdk/pkg/address"
)

var addressPattern = regexp.MustCompile(`^T[A-Za-z1-9]{33}$`)

// ValidAddress reports whether s is a base58check-encoded mainnet TRON address:
// 34 characters starting with "T", decoding to 0x41 + 20-byte account id with a valid checksum.
func ValidAddress(s string) bool {
	if !addressPattern.MatchString(s) {
		return false
	}
	addr, err := address.Base58ToAddress(s)
	if err != nil {
		return false
	}
	return len(addr) == address.AddressLength && addr[0] == address.TronBytePrefix
}
