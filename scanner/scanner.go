// Package scanner reads tokens from a seekable stream under the control of
// regular expressions.
//
// A Scanner wraps an io.ReadSeeker it does not own; the stream must outlive
// the scanner. Tokens are separated by a delimiter regex (whitespace by
// default), and every operation leaves the stream positioned on the first
// significant byte: delimiter content is consumed eagerly so that Peek
// reflects real content.
//
// A stack of position snapshots provides checkpointing. Saving pushes a
// copy of the live state; restoring pops back to a handle, rewinding the
// stream. The parsing machinery layered on top leans on this for
// arbitrary-depth backtracking.
package scanner

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"parsekit/regexlib"
)

// Scanner is a checkpointed cursor over a seekable input stream.
type Scanner struct {
	input     io.ReadSeeker
	delimiter *regexlib.Regex
	states    []State
}

// New wraps input with the default whitespace delimiter and consumes any
// leading delimiter content.
func New(input io.ReadSeeker) *Scanner {
	return newScanner(input, regexlib.MustFromPool(regexlib.PoolWhitespace, regexlib.ExprWhitespace))
}

// NewDelim wraps input with a custom delimiter pattern.
func NewDelim(input io.ReadSeeker, delimiter string) (*Scanner, error) {
	re, err := regexlib.Compile(delimiter)
	if err != nil {
		return nil, err
	}
	return newScanner(input, re), nil
}

func newScanner(input io.ReadSeeker, delimiter *regexlib.Regex) *Scanner {
	input.Seek(0, io.SeekStart)
	s := &Scanner{
		input:     input,
		delimiter: delimiter,
		states:    []State{{Cursor: 0, Line: 1, Column: 1}},
	}
	s.clearDelimiterContent()
	s.sync()
	return s
}

func (s *Scanner) top() *State { return &s.states[len(s.states)-1] }

// State returns a copy of the live scan state.
func (s *Scanner) State() State { return *s.top() }

// byteAt reads the byte at an absolute stream position.
func (s *Scanner) byteAt(pos int64) (byte, bool) {
	if pos < 0 {
		return 0, false
	}
	if _, err := s.input.Seek(pos, io.SeekStart); err != nil {
		return 0, false
	}
	var buf [1]byte
	if n, _ := s.input.Read(buf[:]); n == 0 {
		return 0, false
	}
	return buf[0], true
}

// sync reseats the stream on the live cursor and refreshes the
// end-of-input bit.
func (s *Scanner) sync() {
	_, ok := s.byteAt(s.top().Cursor)
	s.top().EOF = !ok
	s.input.Seek(s.top().Cursor, io.SeekStart)
}

// clearDelimiterContent consumes the run of bytes that the delimiter regex
// accepts, leaving the cursor on significant content or at end of input.
func (s *Scanner) clearDelimiterContent() {
	var sep strings.Builder
	for {
		c, ok := s.byteAt(s.top().Cursor)
		if !ok {
			break
		}
		if !s.delimiter.Matches(sep.String()+string(c), 0) {
			break
		}
		sep.WriteByte(c)
		s.top().Advance(c)
	}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\v' || c == '\r' || c == '\n'
}

// Next returns the longest prefix of the next token accepted by r.
//
// The scanner first reads forward until the delimiter accepts a one-byte
// lookahead, then trims the accumulated token from the right until r
// accepts what remains. The trim is required because delimiters can be
// ambiguous with the target pattern; committing the raw token would
// over-consume. An empty remainder succeeds only when r itself accepts the
// empty string; otherwise a *ScanError is returned and the position is
// unchanged.
func (s *Scanner) Next(r *regexlib.Regex) (string, error) {
	start := *s.top()

	if r.FrontWordBounded() && start.Cursor > 0 {
		if c, ok := s.byteAt(start.Cursor - 1); ok && !isSpace(c) {
			s.sync()
			return "", &ScanError{State: start, Msg: "token is not front word-bounded"}
		}
	}

	var token []byte
	pos := start.Cursor
	for {
		c, ok := s.byteAt(pos)
		if !ok {
			break
		}
		if s.delimiter.Matches(string(c), 0) {
			break
		}
		token = append(token, c)
		pos++
	}
	full := string(token)

	for {
		if r.Matches(string(token), 0) &&
			(!r.BackWordBounded() || s.spaceOrEnd(start.Cursor+int64(len(token)))) {
			next := start
			for _, c := range token {
				next.Advance(c)
			}
			*s.top() = next
			s.clearDelimiterContent()
			s.sync()
			return string(token), nil
		}
		if len(token) == 0 {
			s.sync()
			return "", &ScanError{
				State: start,
				Msg:   fmt.Sprintf("cannot match token %q against %s", full, r.Pattern()),
			}
		}
		token = token[:len(token)-1]
	}
}

func (s *Scanner) spaceOrEnd(pos int64) bool {
	c, ok := s.byteAt(pos)
	return !ok || isSpace(c)
}

// NextInt scans an integer token.
func (s *Scanner) NextInt() (int, error) {
	tok, err := s.Next(regexlib.MustFromPool(regexlib.PoolIntegral, regexlib.ExprIntegral))
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(tok)
}

// NextFloat scans a floating-point token.
func (s *Scanner) NextFloat() (float64, error) {
	tok, err := s.Next(regexlib.MustFromPool(regexlib.PoolFloat, regexlib.ExprFloat))
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(tok, 64)
}

// NextWord scans a maximal run of alphabetic characters.
func (s *Scanner) NextWord() (string, error) {
	return s.Next(regexlib.MustFromPool(regexlib.PoolWord, regexlib.ExprWord))
}

// NextLetter scans a single alphabetic character.
func (s *Scanner) NextLetter() (byte, error) {
	tok, err := s.Next(regexlib.MustFromPool(regexlib.PoolLetter, regexlib.ExprLetter))
	if err != nil {
		return 0, err
	}
	return tok[0], nil
}

// NextChar scans a single arbitrary character.
func (s *Scanner) NextChar() (byte, error) {
	tok, err := s.Next(regexlib.MustFromPool(regexlib.PoolChar, regexlib.ExprChar))
	if err != nil {
		return 0, err
	}
	return tok[0], nil
}

// ReadLine returns the remainder of the current line with trailing
// whitespace stripped and advances past the newline. Calling it at end of
// input is an error.
func (s *Scanner) ReadLine() (string, error) {
	if _, ok := s.byteAt(s.top().Cursor); !ok {
		s.sync()
		return "", &ScanError{State: *s.top(), Msg: "cannot extract line at end of input"}
	}
	var buf []byte
	for {
		c, ok := s.byteAt(s.top().Cursor)
		if !ok {
			break
		}
		s.top().Advance(c)
		if c == '\n' {
			break
		}
		buf = append(buf, c)
	}
	line := strings.TrimRight(string(buf), " \t\v\r\n")
	s.clearDelimiterContent()
	s.sync()
	return line, nil
}

// ReadUntil reads bytes up to and including the first occurrence of delim,
// or to end of input. A backslash escapes a following delim: the pair
// collapses to the literal delimiter in the returned buffer.
func (s *Scanner) ReadUntil(delim byte) string {
	var buf []byte
	for {
		c, ok := s.byteAt(s.top().Cursor)
		if !ok {
			break
		}
		s.top().Advance(c)
		buf = append(buf, c)
		if c == delim {
			break
		}
		if c == '\\' {
			if c2, ok := s.byteAt(s.top().Cursor); ok && c2 == delim {
				buf[len(buf)-1] = c2
				s.top().Advance(c2)
			}
		}
	}
	s.clearDelimiterContent()
	s.sync()
	return string(buf)
}

// Read consumes exactly one byte, then skips trailing delimiter content.
func (s *Scanner) Read() (byte, error) {
	c, ok := s.byteAt(s.top().Cursor)
	if !ok {
		s.sync()
		return 0, &ScanError{State: *s.top(), Msg: "cannot read past end of input"}
	}
	s.top().Advance(c)
	s.clearDelimiterContent()
	s.sync()
	return c, nil
}

// Peek returns the byte offset positions ahead of the cursor without
// advancing. The second result is false past either end of the stream.
func (s *Scanner) Peek(offset int) (byte, bool) {
	c, ok := s.byteAt(s.top().Cursor + int64(offset))
	s.input.Seek(s.top().Cursor, io.SeekStart)
	return c, ok
}

// SaveCheckpoint pushes a copy of the live state and returns an opaque
// handle: the stack depth after the push.
func (s *Scanner) SaveCheckpoint() int {
	s.states = append(s.states, *s.top())
	return len(s.states)
}

// RestoreCheckpoint pops frames back to the given handle, or a single
// frame when the handle is omitted, rewinding the stream to the state that
// was live when the matching checkpoint was saved. Restoring an inner
// handle discards every frame above it. The state that was live before the
// restore is returned.
func (s *Scanner) RestoreCheckpoint(handle ...int) State {
	popped := *s.top()
	depth := len(s.states) - 1
	if len(handle) > 0 {
		depth = handle[0] - 1
	}
	if depth < 1 {
		depth = 1
	}
	if depth < len(s.states) {
		s.states = s.states[:depth]
	}
	s.sync()
	return popped
}
