package dist

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrHashMismatch is returned when a chunk's lines do not hash to its declared hash.
	ErrHashMismatch = errors.New("dist: hash mismatch")
	// ErrBadMagic is returned when compiled chunk data lacks the BCVM header.
	ErrBadMagic = errors.New("dist: invalid magic number: expected BCVM")
)

// Magic prefixes every compressed chunk.
var Magic = []byte("BCVM")

// cborEncMode uses canonical mode so equal chunks encode to equal bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("dist: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalChunk serializes a Chunk to CBOR bytes.
func MarshalChunk(c *Chunk) ([]byte, error) {
	return cborEncMode.Marshal(c)
}

// UnmarshalChunk deserializes a Chunk from CBOR bytes and verifies its hash.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	var c Chunk
	if err := cbor.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("dist: unmarshal chunk: %w", err)
	}
	if err := c.Verify(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Compress serializes a chunk and wraps it as Magic + zstd(CBOR).
func Compress(c *Chunk) ([]byte, error) {
	raw, err := MarshalChunk(c)
	if err != nil {
		return nil, fmt.Errorf("dist: marshal chunk: %w", err)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("dist: zstd encoder: %w", err)
	}
	defer encoder.Close()

	out := append([]byte(nil), Magic...)
	return encoder.EncodeAll(raw, out), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) (*Chunk, error) {
	if !bytes.HasPrefix(data, Magic) {
		return nil, ErrBadMagic
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("dist: zstd decoder: %w", err)
	}
	defer decoder.Close()

	raw, err := decoder.DecodeAll(data[len(Magic):], nil)
	if err != nil {
		return nil, fmt.Errorf("dist: decompress chunk: %w", err)
	}
	return UnmarshalChunk(raw)
}
