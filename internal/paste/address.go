package paste

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

const (
	DefaultCodeLength = 5
	// MaxCodeLength is the width of EncodeRadix32 over a Hash.
	MaxCodeLength = 52
)

// Hash is the BLAKE3-256 digest of a payload.
type Hash [32]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Code is the short code of a record.
type Code string

// AddressFunc derives the content hash and short code of data.
type AddressFunc func(data []byte, codeLength int) (Hash, Code)

// Derive hashes data and takes the first codeLength characters of the
// radix-32 encoding of the hash.
func Derive(data []byte, codeLength int) (Hash, Code) {
	hash := Hash(blake3.Sum256(data))
	encoded := EncodeRadix32(hash[:])

	return hash, Code(encoded[:ClampCodeLength(codeLength)])
}

// ClampCodeLength bounds n to 1..MaxCodeLength.
func ClampCodeLength(n int) int {
	return min(max(n, 1), MaxCodeLength)
}

const radix32Digits = "0123456789abcdefghijklmnopqrstuv"

// EncodeRadix32 renders b, read as a little-endian unsigned integer, in
// radix 32 with the digits 0-9a-v, least significant digit first. The
// result is ceil(8*len(b)/5) characters, so every prefix is a run of
// full 5-bit digits taken from the low end of the integer.
func EncodeRadix32(b []byte) string {
	out := make([]byte, (len(b)*8+4)/5)

	for i := range out {
		bit := i * 5
		idx, shift := bit/8, bit%8

		v := uint(b[idx]) >> shift
		if shift > 3 && idx+1 < len(b) {
			v |= uint(b[idx+1]) << (8 - shift)
		}

		out[i] = radix32Digits[v&31]
	}

	return string(out)
}
