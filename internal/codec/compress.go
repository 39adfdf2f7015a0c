package codec

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// CompressionTag is the one-byte prefix of a packed blob.
type CompressionTag uint8

const (
	CompressionNone CompressionTag = 0
	CompressionZstd CompressionTag = 1
)

// CompressThreshold is the smallest blob Pack will try to compress.
const CompressThreshold = 1024

var ErrCorruptBlob = errors.New("codec: corrupt blob")

func (tag CompressionTag) String() string {
	switch tag {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", tag)
	}
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
}

// Pack prefixes data with a CompressionTag. Blobs of at least
// CompressThreshold bytes are zstd-compressed when that makes them smaller.
func Pack(data []byte) []byte {
	if len(data) >= CompressThreshold {
		compressed := zstdEncoder.EncodeAll(data, make([]byte, 1, len(data)/2+1))
		if len(compressed) < len(data)+1 {
			compressed[0] = byte(CompressionZstd)

			return compressed
		}
	}

	packed := make([]byte, 1+len(data))
	packed[0] = byte(CompressionNone)
	copy(packed[1:], data)

	return packed
}

// Unpack reverses Pack.
func Unpack(packed []byte) ([]byte, error) {
	if len(packed) == 0 {
		return nil, fmt.Errorf("%w: missing compression tag", ErrCorruptBlob)
	}

	tag, body := CompressionTag(packed[0]), packed[1:]

	switch tag {
	case CompressionNone:
		out := make([]byte, len(body))
		copy(out, body)

		return out, nil
	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(body, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorruptBlob, err)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("%w: compression tag %s", ErrCorruptBlob, tag)
	}
}
