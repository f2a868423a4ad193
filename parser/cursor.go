package parser

import (
	"fmt"
	"strings"

	"github.com/ardanlabs/bridgegen/token"
)

// Error is a structural parse error: the token grammar is malformed.
type Error struct {
	Span token.Span
	Msg  string
}

func (e *Error) Error() string {
	if !e.Span.IsValid() {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Span.Start, e.Msg)
}

func NewError(span token.Span, format string, args ...any) *Error {
	return &Error{Span: span, Msg: fmt.Sprintf(format, args...)}
}

// Cursor walks a token stream one token tree at a time. A nested group is
// always a single step, so punctuation inside it is never visible at the
// level being scanned.
type Cursor struct {
	stream token.Stream
	pos    int
	scope  token.Span
}

// NewCursor returns a cursor over stream. scope anchors errors raised at
// the end of the stream, typically the span of the enclosing group.
func NewCursor(stream token.Stream, scope token.Span) *Cursor {
	if !scope.IsValid() {
		scope = stream.Span()
	}
	return &Cursor{stream: stream, scope: scope}
}

func (c *Cursor) Fork() *Cursor {
	f := *c
	return &f
}

func (c *Cursor) EOF() bool {
	return c.pos >= len(c.stream)
}

func (c *Cursor) Peek() (token.Tree, bool) {
	return c.PeekN(0)
}

// PeekN looks n trees ahead without consuming anything.
func (c *Cursor) PeekN(n int) (token.Tree, bool) {
	if c.pos+n >= len(c.stream) {
		return token.Tree{}, false
	}
	return c.stream[c.pos+n], true
}

func (c *Cursor) Next() (token.Tree, bool) {
	if c.EOF() {
		return token.Tree{}, false
	}
	t := c.stream[c.pos]
	c.pos++
	return t, true
}

func (c *Cursor) Mark() int {
	return c.pos
}

func (c *Cursor) Reset(mark int) {
	c.pos = mark
}

// Since returns the trees consumed after mark.
func (c *Cursor) Since(mark int) token.Stream {
	return c.stream[mark:c.pos]
}

func (c *Cursor) Rest() token.Stream {
	return c.stream[c.pos:]
}

func (c *Cursor) SkipRest() {
	c.pos = len(c.stream)
}

// Span is the anchor for a diagnostic raised at the current position: the
// next tree, or the end of the scope once the input is exhausted.
func (c *Cursor) Span() token.Span {
	if t, ok := c.Peek(); ok {
		return t.Span
	}
	return c.scope.Collapse()
}

func (c *Cursor) spanAt(mark int) token.Span {
	if mark < len(c.stream) {
		return c.stream[mark].Span
	}
	return c.scope.Collapse()
}

// Errorf returns an Error anchored at the current position.
func (c *Cursor) Errorf(format string, args ...any) *Error {
	return NewError(c.Span(), format, args...)
}

// ErrorAt returns an Error anchored where the cursor stood at mark.
func (c *Cursor) ErrorAt(mark int, format string, args ...any) *Error {
	return NewError(c.spanAt(mark), format, args...)
}

func (c *Cursor) PeekIdent(name string) bool {
	return c.PeekIdentN(0, name)
}

func (c *Cursor) PeekIdentN(n int, name string) bool {
	t, ok := c.PeekN(n)
	return ok && t.IsIdent(name)
}

// PeekPunct reports whether the next trees spell op, every character but
// the last being joint with its successor.
func (c *Cursor) PeekPunct(op string) bool {
	return c.peekPunctN(0, op)
}

func (c *Cursor) peekPunctN(n int, op string) bool {
	for i := 0; i < len(op); i++ {
		t, ok := c.PeekN(n + i)
		if !ok || !t.IsPunct(op[i]) {
			return false
		}
		if i < len(op)-1 && t.Spacing != token.Joint {
			return false
		}
	}
	return true
}

func (c *Cursor) PeekGroup(d token.Delimiter) bool {
	t, ok := c.Peek()
	return ok && t.IsGroup(d)
}

func (c *Cursor) EatIdent(name string) (token.Tree, bool) {
	if !c.PeekIdent(name) {
		return token.Tree{}, false
	}
	t, _ := c.Next()
	return t, true
}

// EatPunct consumes op if it is next and returns its span.
func (c *Cursor) EatPunct(op string) (token.Span, bool) {
	if !c.PeekPunct(op) {
		return token.Span{}, false
	}
	var span token.Span
	for i := 0; i < len(op); i++ {
		t, _ := c.Next()
		span = span.Join(t.Span)
	}
	return span, true
}

func (c *Cursor) ExpectKeyword(kw string) (token.Tree, error) {
	if t, ok := c.EatIdent(kw); ok {
		return t, nil
	}
	return token.Tree{}, c.Errorf("expected `%s`", kw)
}

func (c *Cursor) ExpectPunct(op string) (token.Span, error) {
	if span, ok := c.EatPunct(op); ok {
		return span, nil
	}
	return token.Span{}, c.Errorf("expected `%s`", op)
}

func (c *Cursor) ExpectGroup(d token.Delimiter) (token.Tree, error) {
	if c.PeekGroup(d) {
		t, _ := c.Next()
		return t, nil
	}
	return token.Tree{}, c.Errorf("expected `%s`", d.Open())
}

// ParseIdent consumes a non-keyword identifier.
func (c *Cursor) ParseIdent() (Ident, error) {
	t, ok := c.Peek()
	if !ok || t.Kind != token.Ident {
		return Ident{}, c.Errorf("expected identifier")
	}
	if IsKeyword(t.Text) {
		return Ident{}, c.Errorf("expected identifier, found keyword `%s`", t.Text)
	}
	c.Next()
	return Ident{Name: t.Text, Span: t.Span}, nil
}

func (c *Cursor) ExpectEOF() error {
	if c.EOF() {
		return nil
	}
	return c.Errorf("unexpected token")
}

var keywords = map[string]bool{}

func init() {
	for _, kw := range strings.Fields(`as async await break const continue crate dyn else enum
		extern false fn for if impl in let loop match mod move mut pub ref return self Self
		static struct super trait true type unsafe use where while`) {
		keywords[kw] = true
	}
}

// IsKeyword reports whether name is reserved in the bridge grammar.
func IsKeyword(name string) bool {
	return keywords[name]
}

// ParseAll runs fn over stream and requires it to consume every tree.
func ParseAll[T any](stream token.Stream, scope token.Span, fn func(*Cursor) (T, error)) (T, error) {
	c := NewCursor(stream, scope)
	v, err := fn(c)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := c.ExpectEOF(); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}
