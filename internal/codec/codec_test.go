package codec_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/serroba/paste-go/internal/codec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string    `cbor:"name"`
	Count   int       `cbor:"count"`
	At      time.Time `cbor:"at"`
	Payload []byte    `cbor:"payload,omitempty"`
}

func TestMarshal(t *testing.T) {
	t.Run("round trips a struct", func(t *testing.T) {
		in := sample{
			Name:    "paste",
			Count:   3,
			At:      time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC),
			Payload: []byte{0, 1, 2},
		}

		data, err := codec.Marshal(in)
		require.NoError(t, err)

		var out sample
		require.NoError(t, codec.Unmarshal(data, &out))
		assert.Equal(t, in.Name, out.Name)
		assert.Equal(t, in.Count, out.Count)
		assert.True(t, in.At.Equal(out.At))
		assert.Equal(t, in.Payload, out.Payload)
	})

	t.Run("equal values encode to identical bytes", func(t *testing.T) {
		a, err := codec.Marshal(map[string]int{"b": 2, "a": 1, "c": 3})
		require.NoError(t, err)

		b, err := codec.Marshal(map[string]int{"c": 3, "a": 1, "b": 2})
		require.NoError(t, err)

		assert.Equal(t, a, b)
	})

	t.Run("unknown fields are ignored", func(t *testing.T) {
		data, err := codec.Marshal(map[string]any{"name": "x", "extra": true})
		require.NoError(t, err)

		var out sample
		require.NoError(t, codec.Unmarshal(data, &out))
		assert.Equal(t, "x", out.Name)
	})
}

func TestPack(t *testing.T) {
	t.Run("small blobs are stored uncompressed", func(t *testing.T) {
		packed := codec.Pack([]byte("hello"))

		assert.Equal(t, byte(codec.CompressionNone), packed[0])
		assert.Equal(t, []byte("hello"), packed[1:])
	})

	t.Run("large repetitive blobs are compressed", func(t *testing.T) {
		data := bytes.Repeat([]byte("paste "), 1000)

		packed := codec.Pack(data)

		assert.Equal(t, byte(codec.CompressionZstd), packed[0])
		assert.Less(t, len(packed), len(data))

		out, err := codec.Unpack(packed)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	})

	t.Run("empty blobs round trip", func(t *testing.T) {
		out, err := codec.Unpack(codec.Pack(nil))

		require.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestUnpack(t *testing.T) {
	t.Run("rejects a missing tag", func(t *testing.T) {
		_, err := codec.Unpack(nil)

		assert.ErrorIs(t, err, codec.ErrCorruptBlob)
	})

	t.Run("rejects an unknown tag", func(t *testing.T) {
		_, err := codec.Unpack([]byte{9, 'x'})

		assert.ErrorIs(t, err, codec.ErrCorruptBlob)
	})

	t.Run("rejects a corrupt zstd frame", func(t *testing.T) {
		_, err := codec.Unpack([]byte{byte(codec.CompressionZstd), 1, 2, 3})

		assert.ErrorIs(t, err, codec.ErrCorruptBlob)
	})
}
