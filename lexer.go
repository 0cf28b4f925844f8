package main

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/forth18/rforth1/internal/fileinput"
)

// namedReader pairs a Reader with the name fileinput.Input labels its
// runes' Location with, the same trick gothird's own readerName plays
// for io.go's rune reader.
type namedReader struct {
	io.Reader
	name string
}

func (nr namedReader) Name() string { return nr.name }

// Lexer is the rune-oriented reader behind §4.1: each active source is a
// fileinput.Input, which tracks Location for us and multiplexes a queue
// of underlying readers through internal/runeio; PushInclude/PopInclude
// give included files a stack discipline identical to a call stack, and
// ParseWord assembles runes into tokens the same way gothird's vm.scan()
// does against its own rune reader.
type Lexer struct {
	stack      []*fileinput.Input
	cur        *fileinput.Input
	pending    string
	hasPending bool
}

func NewLexer() *Lexer { return &Lexer{} }

// PushInclude makes a fresh Input over lines joined back into one text
// blob the active input, saving whatever was active before it onto the
// include stack.
func (lx *Lexer) PushInclude(name string, lines []string) {
	if lx.cur != nil {
		lx.stack = append(lx.stack, lx.cur)
	}
	text := strings.Join(lines, "")
	lx.cur = &fileinput.Input{Queue: []io.Reader{namedReader{strings.NewReader(text), name}}}
}

// PopInclude restores whatever input was active before the most recent
// PushInclude; popping the root input leaves no active input at all.
func (lx *Lexer) PopInclude() {
	n := len(lx.stack)
	if n == 0 {
		lx.cur = nil
		return
	}
	lx.cur = lx.stack[n-1]
	lx.stack = lx.stack[:n-1]
}

// Unread pushes word back so the next ParseWord call returns it again;
// used by the single-lookahead suffix-modifier scan in the assembly
// escape (",w" ",f" ",0" ",1" ",s" either apply to the preceding
// instruction or turn out to belong to the next one).
func (lx *Lexer) Unread(word string) {
	lx.pending = word
	lx.hasPending = true
}

// Location reports where the lexer is currently positioned, for
// diagnostics.
func (lx *Lexer) Location() Location {
	if lx.cur == nil {
		return Location{Name: "<builtin>"}
	}
	return lx.cur.Scan.Location
}

func isWordBreak(r rune) bool { return unicode.IsControl(r) || unicode.IsSpace(r) }

// ParseWord returns the next token delimited by control/space runes,
// reading one rune at a time off the current Input and refilling across
// line and include boundaries as needed, exactly as gothird's vm.scan()
// reads off its own rune reader. A lone backslash token discards the
// rest of the line (comment to end of line) and retries.
func (lx *Lexer) ParseWord() (string, error) {
	if lx.hasPending {
		lx.hasPending = false
		w := lx.pending
		lx.pending = ""
		return w, nil
	}

	for {
		if lx.cur == nil {
			return "", errEOF()
		}

		var r rune
		var err error
		for {
			r, _, err = lx.cur.ReadRune()
			if err != nil {
				if err == io.EOF {
					return "", errEOF()
				}
				return "", err
			}
			if !isWordBreak(r) {
				break
			}
		}

		var sb strings.Builder
		sb.WriteRune(r)
		for {
			r, _, err = lx.cur.ReadRune()
			if err != nil {
				break
			}
			if isWordBreak(r) {
				break
			}
			sb.WriteRune(r)
		}

		word := sb.String()
		if word == `\` {
			// r is the rune that ended the token: if it was already the
			// line's newline, there is nothing left on this line to skip.
			for err == nil && r != '\n' {
				r, _, err = lx.cur.ReadRune()
			}
			continue
		}
		return word, nil
	}
}

// Parse splits the remainder of the input at the first occurrence of
// ch, consuming through it; used for "( comment )" bodies and inline
// string literals. Running out of input before ch turns up simply
// returns whatever was read, matching gothird's own tolerant comment
// and string-literal scanning.
func (lx *Lexer) Parse(ch byte) (string, error) {
	if lx.cur == nil {
		return "", errEOF()
	}
	target := rune(ch)
	var sb strings.Builder
	for {
		r, _, err := lx.cur.ReadRune()
		if err != nil || r == target {
			return sb.String(), nil
		}
		sb.WriteRune(r)
	}
}

// ParseNumber implements §4.2: repeated leading '-' toggles sign, prefix
// "$" or "0x" selects hex, "0b" selects binary, otherwise decimal.
func ParseNumber(tok string) (Number, bool) {
	neg := false
	for len(tok) > 0 && tok[0] == '-' {
		neg = !neg
		tok = tok[1:]
	}
	if tok == "" {
		return Number{}, false
	}

	base := BaseDecimal
	digits := tok
	switch {
	case strings.HasPrefix(tok, "$"):
		base = BaseHex
		digits = tok[1:]
	case strings.HasPrefix(tok, "0x"), strings.HasPrefix(tok, "0X"):
		base = BaseHex
		digits = tok[2:]
	case strings.HasPrefix(tok, "0b"), strings.HasPrefix(tok, "0B"):
		base = BaseBinary
		digits = tok[2:]
	}
	if digits == "" {
		return Number{}, false
	}
	n, err := strconv.ParseInt(digits, int(base), 64)
	if err != nil {
		return Number{}, false
	}
	if neg {
		n = -n
	}
	return Number{Int: int(n), Base: base}, true
}

// searchPath returns the directories a bare filename should be looked up
// in, in order: the current directory, each entry of RFORTH1_PATH, then
// the directory holding the running binary.
func searchPath() []string {
	dirs := []string{"."}
	if p := os.Getenv("RFORTH1_PATH"); p != "" {
		dirs = append(dirs, filepath.SplitList(p)...)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	return dirs
}

// ResolveSource finds name on the search path and returns its contents
// split into lines (CRLF normalized to LF, every line keeping its
// trailing newline, the empty piece after a final newline dropped).
func ResolveSource(name string) (string, []string, error) {
	tryPath := func(p string) ([]byte, error) { return os.ReadFile(p) }

	if filepath.IsAbs(name) {
		data, err := tryPath(name)
		if err != nil {
			return "", nil, errFatal("cannot open %s: %v", name, err)
		}
		return name, splitLines(data), nil
	}
	var lastErr error
	for _, dir := range searchPath() {
		full := filepath.Join(dir, name)
		data, err := tryPath(full)
		if err == nil {
			return full, splitLines(data), nil
		}
		lastErr = err
	}
	return "", nil, errFatal("cannot find %s on search path: %v", name, lastErr)
}

func splitLines(data []byte) []string {
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i := range lines {
		lines[i] += "\n"
	}
	return lines
}
