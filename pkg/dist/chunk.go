// Package dist implements the content-addressed distribution format for
// bcvm programs. A Chunk carries the normalized program text plus a
// BLAKE3 hash of it; chunks are encoded as canonical CBOR and stored on
// disk zstd-compressed behind a short magic header.
package dist

import (
	"fmt"
	"strings"

	"github.com/chazu/bcvm/pkg/bytecode"
	"github.com/mr-tron/base58"
	"github.com/zeebo/blake3"
)

// ChunkVersion is the current chunk format version.
const ChunkVersion uint8 = 1

// Chunk is a program in distributable form. Lines holds one normalized
// instruction per element; blank lines and surrounding whitespace are gone.
type Chunk struct {
	Version uint8    `cbor:"1,keyasint"`
	Hash    [32]byte `cbor:"2,keyasint"`
	Lines   []string `cbor:"3,keyasint"`
}

// NewChunk builds a chunk from a decoded program.
func NewChunk(p *bytecode.Program) *Chunk {
	lines := p.Lines()
	return &Chunk{
		Version: ChunkVersion,
		Hash:    HashLines(lines),
		Lines:   lines,
	}
}

// ChunkFromSource decodes program text and builds a chunk from it.
func ChunkFromSource(text string) *Chunk {
	return NewChunk(bytecode.Parse(text))
}

// HashLines returns the BLAKE3-256 digest of lines joined by newlines.
func HashLines(lines []string) [32]byte {
	return blake3.Sum256([]byte(strings.Join(lines, "\n")))
}

// ID returns the base58 form of the chunk hash.
func (c *Chunk) ID() string {
	return base58.Encode(c.Hash[:])
}

// Verify recomputes the hash and compares it with the declared one.
func (c *Chunk) Verify() error {
	if c.Version != ChunkVersion {
		return fmt.Errorf("dist: unsupported chunk version %d", c.Version)
	}
	if computed := HashLines(c.Lines); computed != c.Hash {
		return fmt.Errorf("%w: declared %s, computed %s",
			ErrHashMismatch, base58.Encode(c.Hash[:]), base58.Encode(computed[:]))
	}
	return nil
}

// Program rebuilds the decoded program.
func (c *Chunk) Program() *bytecode.Program {
	return bytecode.ParseLines(c.Lines)
}

// ParseID decodes a base58 chunk ID back to a hash.
func ParseID(id string) ([32]byte, error) {
	var h [32]byte
	data, err := base58.Decode(id)
	if err != nil {
		return h, fmt.Errorf("dist: base58 decode: %w", err)
	}
	if len(data) != len(h) {
		return h, fmt.Errorf("dist: chunk id decodes to %d bytes, want %d", len(data), len(h))
	}
	copy(h[:], data)
	return h, nil
}
