package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrMalformedLine is wrapped by ParseError for lines that are not a kind
// and an address.
var ErrMalformedLine = errors.New("expecting an access kind and a hex address")

// ParseError reports a trace line that cannot be parsed.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("trace line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// A Reader reads references from a text trace. Each line holds an access
// kind and a hexadecimal address, in any order, for example "I 0x400010" or
// "7fff0010 L". Blank lines and lines starting with '#' are skipped.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	count   uint64
}

// NewReader creates a Reader reading from r.
func NewReader(r io.Reader) *Reader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	return &Reader{scanner: s}
}

// Next returns the next reference. It returns io.EOF after the last one.
func (r *Reader) Next() (Reference, error) {
	for r.scanner.Scan() {
		r.line++

		text := strings.TrimSpace(r.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		ref, err := parseLine(text)
		if err != nil {
			return Reference{}, &ParseError{Line: r.line, Text: text, Err: err}
		}

		r.count++

		return ref, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Reference{}, fmt.Errorf("reading trace: %w", err)
	}

	return Reference{}, io.EOF
}

// Count returns the number of references returned so far.
func (r *Reader) Count() uint64 {
	return r.count
}

func parseLine(text string) (Reference, error) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		return Reference{}, ErrMalformedLine
	}

	kindTok, addrTok := fields[0], fields[1]

	kind, ok := kindFromToken(kindTok)
	if !ok {
		kindTok, addrTok = addrTok, kindTok

		kind, ok = kindFromToken(kindTok)
		if !ok {
			return Reference{}, ErrMalformedLine
		}
	}

	addr, err := parseAddr(addrTok)
	if err != nil {
		return Reference{}, err
	}

	return Reference{Kind: kind, Addr: addr}, nil
}

func parseAddr(tok string) (uint32, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(tok, "0x"), "0X")

	addr, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", tok, err)
	}

	return uint32(addr), nil
}
