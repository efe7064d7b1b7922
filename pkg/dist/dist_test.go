package dist

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/chazu/bcvm/pkg/bytecode"
)

const sumSource = `
    LOAD_VAL 1
        LOAD_VAL 2

    ADD
    RETURN_VALUE
`

func TestChunkFromSourceNormalizes(t *testing.T) {
	c := ChunkFromSource(sumSource)
	want := []string{"LOAD_VAL 1", "LOAD_VAL 2", "ADD", "RETURN_VALUE"}
	if !reflect.DeepEqual(c.Lines, want) {
		t.Errorf("Lines = %q, want %q", c.Lines, want)
	}
	if c.Version != ChunkVersion {
		t.Errorf("Version = %d, want %d", c.Version, ChunkVersion)
	}
	if err := c.Verify(); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestHashIgnoresFormatting(t *testing.T) {
	a := ChunkFromSource(sumSource)
	b := ChunkFromSource("LOAD_VAL 1\nLOAD_VAL 2\nADD\nRETURN_VALUE")
	if a.Hash != b.Hash {
		t.Error("whitespace-only differences changed the hash")
	}
	c := ChunkFromSource("LOAD_VAL 2\nLOAD_VAL 1\nADD\nRETURN_VALUE")
	if a.Hash == c.Hash {
		t.Error("different programs share a hash")
	}
}

func TestIDRoundTrip(t *testing.T) {
	c := ChunkFromSource(sumSource)
	h, err := ParseID(c.ID())
	if err != nil {
		t.Fatalf("ParseID: %v", err)
	}
	if h != c.Hash {
		t.Error("ParseID(ID()) != Hash")
	}
	if _, err := ParseID("0OIl"); err == nil {
		t.Error("ParseID accepted characters outside the base58 alphabet")
	}
	if _, err := ParseID("2g"); err == nil {
		t.Error("ParseID accepted a short id")
	}
}

func TestMarshalIsDeterministic(t *testing.T) {
	a, err := MarshalChunk(ChunkFromSource(sumSource))
	if err != nil {
		t.Fatalf("MarshalChunk: %v", err)
	}
	b, err := MarshalChunk(ChunkFromSource(sumSource))
	if err != nil {
		t.Fatalf("MarshalChunk: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("equal chunks encoded differently")
	}
}

func TestUnmarshalRejectsTamperedLines(t *testing.T) {
	c := ChunkFromSource(sumSource)
	c.Lines[0] = "LOAD_VAL 100"
	data, err := MarshalChunk(c)
	if err != nil {
		t.Fatalf("MarshalChunk: %v", err)
	}
	if _, err := UnmarshalChunk(data); !errors.Is(err, ErrHashMismatch) {
		t.Errorf("UnmarshalChunk error = %v, want ErrHashMismatch", err)
	}
}

func TestCompressRoundTrip(t *testing.T) {
	c := ChunkFromSource(sumSource)
	data, err := Compress(c)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if !IsCompiled(data) {
		t.Fatal("compressed data lacks magic")
	}
	got, err := Decompress(data)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if got.Hash != c.Hash || !reflect.DeepEqual(got.Lines, c.Lines) {
		t.Errorf("round trip = %+v, want %+v", got, c)
	}
}

func TestDecompressBadMagic(t *testing.T) {
	if _, err := Decompress([]byte("LOAD_VAL 1")); !errors.Is(err, ErrBadMagic) {
		t.Errorf("error = %v, want ErrBadMagic", err)
	}
}

func TestChunkProgramRuns(t *testing.T) {
	c := ChunkFromSource(sumSource)
	got, err := bytecode.NewForProgram(c.Program(), bytecode.Options{}).Run()
	if err != nil || got != 3 {
		t.Errorf("Run = %d, %v, want 3, nil", got, err)
	}
}

func TestWriteReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sum"+Extension)
	c := ChunkFromSource(sumSource)
	if err := WriteFile(path, c); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got.ID() != c.ID() {
		t.Errorf("ID = %s, want %s", got.ID(), c.ID())
	}
}

func TestLoadDetectsFormat(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sum.bc")
	if err := os.WriteFile(src, []byte(sumSource), 0o644); err != nil {
		t.Fatal(err)
	}
	compiled := filepath.Join(dir, "sum.bcc")
	if err := WriteFile(compiled, ChunkFromSource(sumSource)); err != nil {
		t.Fatal(err)
	}

	a, err := Load(src)
	if err != nil {
		t.Fatalf("Load(source): %v", err)
	}
	b, err := Load(compiled)
	if err != nil {
		t.Fatalf("Load(compiled): %v", err)
	}
	if a.Hash != b.Hash {
		t.Error("source and compiled forms load to different chunks")
	}

	if _, err := Load(filepath.Join(dir, "missing")); err == nil {
		t.Error("Load of a missing file succeeded")
	}
}

func TestLoadProgramKeepsSourceLines(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "gaps.bc")
	text := "LOAD_VAL 1\n\n\n\nREAD_VAR 'nope'\n"
	if err := os.WriteFile(src, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}

	c, prog, err := LoadProgram(src)
	if err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	if prog.Len() != 2 || prog.Instructions[1].Line != 5 {
		t.Errorf("instruction lines = %+v, want READ_VAR on line 5", prog.Instructions)
	}
	if c.ID() != ChunkFromSource(text).ID() {
		t.Error("chunk does not match the normalized source")
	}
}
