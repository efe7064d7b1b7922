package server

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/chazu/bcvm/pkg/bytecode"
	"github.com/chazu/bcvm/vm"
)

// varUse is one occurrence of a quoted variable name in a document.
type varUse struct {
	Name  string
	Write bool
	Line  int // 0-based
	Start int // UTF-16 column of the opening quote
	End   int // UTF-16 column after the closing quote
}

// document is a parsed view of an open text document.
type document struct {
	text  string
	lines []string
	prog  *bytecode.Program
	uses  []varUse
}

func newDocument(text string) *document {
	lines := strings.Split(text, "\n")
	d := &document{
		text:  text,
		lines: lines,
		prog:  bytecode.ParseLines(lines),
	}
	for _, in := range d.prog.Instructions {
		if !in.Op.IsVariable() || len(in.Args) != 1 {
			continue
		}
		name, ok := vm.Unquote(in.Args[0])
		if !ok {
			continue
		}
		raw := lines[in.Line-1]
		after := strings.Index(raw, in.Name) + len(in.Name)
		start := strings.Index(raw[after:], in.Args[0]) + after
		d.uses = append(d.uses, varUse{
			Name:  name,
			Write: in.Op == bytecode.OpWriteVar,
			Line:  in.Line - 1,
			Start: utf16Col(raw, start),
			End:   utf16Col(raw, start+len(in.Args[0])),
		})
	}
	return d
}

// variables returns every variable name in first-use order.
func (d *document) variables() []string {
	seen := make(map[string]bool)
	var names []string
	for _, u := range d.uses {
		if !seen[u.Name] {
			seen[u.Name] = true
			names = append(names, u.Name)
		}
	}
	return names
}

func (d *document) usesOf(name string) []varUse {
	var out []varUse
	for _, u := range d.uses {
		if u.Name == name {
			out = append(out, u)
		}
	}
	return out
}

// --- Diagnostics ---

func (d *document) diagnostics() []protocol.Diagnostic {
	source := lspName
	diagnostics := []protocol.Diagnostic{}
	for _, diag := range bytecode.Check(d.prog) {
		severity := protocol.DiagnosticSeverityError
		if diag.Severity == bytecode.SeverityWarning {
			severity = protocol.DiagnosticSeverityWarning
		}
		line := diag.Line - 1
		raw := d.lines[line]
		start := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
		end := len(strings.TrimRightFunc(raw, unicode.IsSpace))
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    lineRange(line, utf16Col(raw, start), utf16Col(raw, end)),
			Severity: &severity,
			Source:   &source,
			Message:  diag.Message,
		})
	}
	return diagnostics
}

// --- Hover ---

func (d *document) hover(word string) *protocol.Hover {
	if op, ok := bytecode.LookupOpcode(word); ok {
		info := bytecode.GetOpcodeInfo(op)
		var b strings.Builder
		fmt.Fprintf(&b, "**%s**", info.Name)
		if info.Arity == 1 {
			if op.IsVariable() {
				b.WriteString(" `'name'`")
			} else {
				b.WriteString(" `int`")
			}
		}
		fmt.Fprintf(&b, "\n\n%s\n\nStack: pops %d, pushes %d", info.Doc, info.StackPop, info.StackPush)
		return markdownHover(b.String())
	}

	uses := d.usesOf(word)
	if len(uses) == 0 {
		return nil
	}
	writes := 0
	for _, u := range uses {
		if u.Write {
			writes++
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "**'%s'**\n\n", word)
	fmt.Fprintf(&b, "%d writes, %d reads", writes, len(uses)-writes)
	if writes > 0 {
		for _, u := range uses {
			if u.Write {
				fmt.Fprintf(&b, "\n\nFirst written on line %d", u.Line+1)
				break
			}
		}
	} else {
		b.WriteString("\n\nNever written: READ_VAR fails with an undefined-variable error")
	}
	return markdownHover(b.String())
}

func markdownHover(value string) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: value,
		},
	}
}

// --- Completion ---

func (d *document) complete(pos protocol.Position) []protocol.CompletionItem {
	if int(pos.Line) >= len(d.lines) {
		return nil
	}
	line := d.lines[pos.Line]
	before := line[:byteCol(line, int(pos.Character))]
	fields := strings.Fields(before)
	prefix := extractPrefix(d.text, pos)

	var items []protocol.CompletionItem

	// Argument position of READ_VAR / WRITE_VAR: offer quoted names.
	if len(fields) >= 1 {
		op, _ := bytecode.LookupOpcode(fields[0])
		inArg := len(fields) == 1 && strings.HasSuffix(before, " ") ||
			len(fields) == 2 && !strings.HasSuffix(before, " ")
		if op.IsVariable() && inArg {
			kind := protocol.CompletionItemKindVariable
			for _, name := range d.variables() {
				quoted := "'" + name + "'"
				if !strings.HasPrefix(quoted, prefix) {
					continue
				}
				detail := "variable"
				items = append(items, protocol.CompletionItem{
					Label:      quoted,
					Kind:       &kind,
					Detail:     &detail,
					InsertText: &quoted,
				})
			}
			return items
		}
		if len(fields) > 1 || strings.HasSuffix(before, " ") {
			return nil
		}
	}

	upper := strings.ToUpper(prefix)
	kind := protocol.CompletionItemKindKeyword
	for _, op := range bytecode.AllOpcodes() {
		info := bytecode.GetOpcodeInfo(op)
		if !strings.HasPrefix(info.Name, upper) {
			continue
		}
		name := info.Name
		doc := info.Doc
		items = append(items, protocol.CompletionItem{
			Label:         name,
			Kind:          &kind,
			Detail:        &doc,
			InsertText:    &name,
			Documentation: doc,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

// --- Navigation ---

func (d *document) definition(uri protocol.DocumentUri, name string) []protocol.Location {
	for _, u := range d.usesOf(name) {
		if u.Write {
			return []protocol.Location{{URI: uri, Range: lineRange(u.Line, u.Start, u.End)}}
		}
	}
	return nil
}

func (d *document) references(uri protocol.DocumentUri, name string, includeDecl bool) []protocol.Location {
	uses := d.usesOf(name)
	decl := -1
	for i, u := range uses {
		if u.Write {
			decl = i
			break
		}
	}

	var locations []protocol.Location
	for i, u := range uses {
		if i == decl && !includeDecl {
			continue
		}
		locations = append(locations, protocol.Location{URI: uri, Range: lineRange(u.Line, u.Start, u.End)})
	}
	return locations
}

func lineRange(line, start, end int) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(start)},
		End:   protocol.Position{Line: protocol.UInteger(line), Character: protocol.UInteger(end)},
	}
}

// --- Text extraction helpers ---

// utf16Col converts a byte offset in line to an LSP character offset.
func utf16Col(line string, off int) int {
	n := 0
	for _, r := range line[:off] {
		n += utf16.RuneLen(r)
	}
	return n
}

// byteCol converts an LSP character offset to a byte offset in line,
// clamped to the line length.
func byteCol(line string, col int) int {
	n := 0
	for i, r := range line {
		if n >= col {
			return i
		}
		n += utf16.RuneLen(r)
	}
	return len(line)
}

// Variable names may hold any non-space character except a quote.
func isWordChar(ch rune) bool {
	return !unicode.IsSpace(ch) && ch != '\''
}

// extractPrefix returns the partial token before the cursor, including a
// leading quote for variable names.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := byteCol(line, int(pos.Character))

	start := col
	for start > 0 {
		ch, size := utf8.DecodeLastRuneInString(line[:start])
		if !isWordChar(ch) && ch != '\'' {
			break
		}
		start -= size
	}
	return line[start:col]
}

// extractWord returns the word under the cursor, without quotes.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := byteCol(line, int(pos.Character))

	start := col
	for start > 0 {
		ch, size := utf8.DecodeLastRuneInString(line[:start])
		if !isWordChar(ch) {
			break
		}
		start -= size
	}
	end := col
	for end < len(line) {
		ch, size := utf8.DecodeRuneInString(line[end:])
		if !isWordChar(ch) {
			break
		}
		end += size
	}
	return line[start:end]
}
