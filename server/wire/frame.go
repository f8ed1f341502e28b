package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

const (
	// MaxFrameSize limits memory usage on malformed/hostile input.
	MaxFrameSize = 8 << 20 // 8 MiB
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	// The decoder memory cap rejects hostile frames before decompression
	// materializes them.
	zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxFrameSize))
)

// ReadFrame reads a single length-prefixed, zstd-compressed JSON frame.
func ReadFrame(r io.Reader, v any) error {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n == 0 {
		return fmt.Errorf("wire: empty frame")
	}
	if n > MaxFrameSize {
		return fmt.Errorf("wire: frame too large: %d > %d", n, MaxFrameSize)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}

	raw, err := zstdDecoder.DecodeAll(buf, nil)
	if err != nil {
		return fmt.Errorf("wire: decompress: %w", err)
	}
	if len(raw) > MaxFrameSize {
		return fmt.Errorf("wire: decompressed frame too large: %d > %d", len(raw), MaxFrameSize)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("wire: bad json: %w", err)
	}
	return nil
}

// WriteFrame writes v as a length-prefixed, zstd-compressed JSON frame.
func WriteFrame(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wire: marshal: %w", err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("wire: empty json")
	}
	if len(raw) > MaxFrameSize {
		return fmt.Errorf("wire: json too large: %d > %d", len(raw), MaxFrameSize)
	}

	b := zstdEncoder.EncodeAll(raw, nil)

	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(b)))

	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
