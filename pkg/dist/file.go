package dist

import (
	"bytes"
	"fmt"
	"os"

	"github.com/chazu/bcvm/pkg/bytecode"
)

// Extension is the conventional file extension for compiled chunks.
const Extension = ".bcc"

// WriteFile compiles c to path.
func WriteFile(path string, c *Chunk) error {
	data, err := Compress(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("dist: write %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a compiled chunk from path.
func ReadFile(path string) (*Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dist: read %s: %w", path, err)
	}
	c, err := Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// IsCompiled reports whether data starts with the chunk magic.
func IsCompiled(data []byte) bool {
	return bytes.HasPrefix(data, Magic)
}

// Load reads path and returns its chunk. Compiled chunks are decompressed
// and verified; anything else is treated as program text.
func Load(path string) (*Chunk, error) {
	c, _, err := LoadProgram(path)
	return c, err
}

// LoadProgram reads path and returns its chunk together with the program to
// execute. Program text is decoded from the file itself, so instruction
// lines are the file's line numbers. A compiled chunk only holds normalized
// lines and is decoded from those.
func LoadProgram(path string) (*Chunk, *bytecode.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("dist: read %s: %w", path, err)
	}
	if IsCompiled(data) {
		c, err := Decompress(data)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", path, err)
		}
		return c, c.Program(), nil
	}
	prog := bytecode.Parse(string(data))
	return NewChunk(prog), prog, nil
}
