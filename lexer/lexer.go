// Package lexer turns bridge source text into token trees.
//
// Delimiters are balanced while lexing, so every `(`, `[` and `{` becomes a
// single token.Group holding its contents. Outer doc comments (`/// text`)
// are lowered to `#[doc = "text"]` the same way the host compiler does it;
// every other comment is dropped.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ardanlabs/bridgegen/token"
)

const punctChars = "~!@#$%^&*-=+|;:,.<>/?"

// Error is a lexical error anchored at the offending position.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Lexer scans one source file. A Lexer is single use.
type Lexer struct {
	filename string
	src      string
	offset   int
	line     int
	col      int
}

func New(filename, src string) *Lexer {
	return &Lexer{
		filename: filename,
		src:      src,
		line:     1,
		col:      1,
	}
}

// Lex is shorthand for New(filename, src).Lex().
func Lex(filename, src string) (token.Stream, error) {
	return New(filename, src).Lex()
}

// Lex consumes the whole input and returns its top level token trees.
func (l *Lexer) Lex() (token.Stream, error) {
	return l.lexUntil(0, l.pos())
}

func (l *Lexer) pos() token.Position {
	return token.Position{Filename: l.filename, Line: l.line, Column: l.col, Offset: l.offset}
}

func (l *Lexer) eof() bool {
	return l.offset >= len(l.src)
}

func (l *Lexer) peek() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.offset]
}

func (l *Lexer) peekAt(n int) byte {
	if l.offset+n >= len(l.src) {
		return 0
	}
	return l.src[l.offset+n]
}

func (l *Lexer) peekRune() rune {
	r, _ := utf8.DecodeRuneInString(l.src[l.offset:])
	return r
}

func (l *Lexer) advance() {
	if l.eof() {
		return
	}
	r, size := utf8.DecodeRuneInString(l.src[l.offset:])
	l.offset += size
	if r == '\n' {
		l.line++
		l.col = 1
		return
	}
	l.col++
}

func (l *Lexer) errorf(p token.Position, format string, args ...any) error {
	return &Error{Pos: p, Msg: fmt.Sprintf(format, args...)}
}

func (l *Lexer) span(start token.Position) token.Span {
	return token.Span{Start: start, End: l.pos()}
}

// lexUntil reads trees until the closing byte close, which it leaves in the
// input. A zero close means end of input.
func (l *Lexer) lexUntil(close byte, open token.Position) (token.Stream, error) {
	var out token.Stream

	for {
		var err error
		if out, err = l.skipTrivia(out); err != nil {
			return nil, err
		}

		if l.eof() {
			if close != 0 {
				return nil, l.errorf(open, "unclosed delimiter")
			}
			return out, nil
		}

		switch c := l.peek(); c {
		case ')', ']', '}':
			if c != close {
				return nil, l.errorf(l.pos(), "unexpected closing delimiter `%c`", c)
			}
			return out, nil

		case '(', '[', '{':
			tree, err := l.lexGroup()
			if err != nil {
				return nil, err
			}
			out = append(out, tree)

		default:
			trees, err := l.lexAtom()
			if err != nil {
				return nil, err
			}
			out = append(out, trees...)
		}
	}
}

func (l *Lexer) lexGroup() (token.Tree, error) {
	start := l.pos()

	var delim token.Delimiter
	var close byte
	switch l.peek() {
	case '(':
		delim, close = token.Paren, ')'
	case '[':
		delim, close = token.Bracket, ']'
	default:
		delim, close = token.Brace, '}'
	}
	l.advance()

	inner, err := l.lexUntil(close, start)
	if err != nil {
		return token.Tree{}, err
	}
	l.advance()

	return token.NewGroup(delim, inner, l.span(start)), nil
}

// skipTrivia drops whitespace and comments. Outer doc comments are
// appended to out as attribute tokens.
func (l *Lexer) skipTrivia(out token.Stream) (token.Stream, error) {
	for !l.eof() {
		switch {
		case unicode.IsSpace(l.peekRune()):
			l.advance()

		case l.peek() == '/' && l.peekAt(1) == '/':
			start := l.pos()
			isDoc := l.peekAt(2) == '/' && l.peekAt(3) != '/'
			for !l.eof() && l.peek() != '\n' {
				l.advance()
			}
			if isDoc {
				text := strings.TrimSuffix(l.src[start.Offset+3:l.offset], "\r")
				out = append(out, docAttribute(text, l.span(start))...)
			}

		case l.peek() == '/' && l.peekAt(1) == '*':
			if err := l.skipBlockComment(); err != nil {
				return nil, err
			}

		default:
			return out, nil
		}
	}
	return out, nil
}

func (l *Lexer) skipBlockComment() error {
	start := l.pos()
	depth := 0
	for !l.eof() {
		switch {
		case l.peek() == '/' && l.peekAt(1) == '*':
			depth++
			l.advance()
			l.advance()
		case l.peek() == '*' && l.peekAt(1) == '/':
			depth--
			l.advance()
			l.advance()
			if depth == 0 {
				return nil
			}
		default:
			l.advance()
		}
	}
	return l.errorf(start, "unterminated block comment")
}

func docAttribute(text string, span token.Span) token.Stream {
	inner := token.Stream{
		token.NewIdent("doc", span),
		token.NewPunct('=', token.Alone, span),
		token.NewLiteral(strconv.Quote(text), span),
	}
	return token.Stream{
		token.NewPunct('#', token.Alone, span),
		token.NewGroup(token.Bracket, inner, span),
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *Lexer) lexAtom() (token.Stream, error) {
	start := l.pos()
	c := l.peek()

	switch {
	case isIdentStart(l.peekRune()):
		return l.lexWord()

	case c >= '0' && c <= '9':
		l.lexNumber()
		return token.Stream{token.NewLiteral(l.src[start.Offset:l.offset], l.span(start))}, nil

	case c == '"':
		if err := l.lexQuoted('"'); err != nil {
			return nil, err
		}
		return token.Stream{token.NewLiteral(l.src[start.Offset:l.offset], l.span(start))}, nil

	case c == '\'':
		return l.lexQuote()

	case strings.IndexByte(punctChars, c) >= 0:
		l.advance()
		spacing := token.Alone
		if next := l.peek(); next != 0 && strings.IndexByte(punctChars, next) >= 0 {
			spacing = token.Joint
		}
		return token.Stream{token.NewPunct(c, spacing, l.span(start))}, nil
	}

	return nil, l.errorf(start, "unexpected character %q", l.peekRune())
}

// lexWord reads an identifier, a raw identifier, or a prefixed string
// literal such as b"..", r#".."# or c"..".
func (l *Lexer) lexWord() (token.Stream, error) {
	start := l.pos()
	for !l.eof() && isIdentContinue(l.peekRune()) {
		l.advance()
	}
	word := l.src[start.Offset:l.offset]

	switch {
	case l.peek() == '"' && (word == "b" || word == "c"):
		if err := l.lexQuoted('"'); err != nil {
			return nil, err
		}
		return token.Stream{token.NewLiteral(l.src[start.Offset:l.offset], l.span(start))}, nil

	case l.peek() == '\'' && word == "b":
		if err := l.lexQuoted('\''); err != nil {
			return nil, err
		}
		return token.Stream{token.NewLiteral(l.src[start.Offset:l.offset], l.span(start))}, nil

	case (word == "r" || word == "br" || word == "cr") && (l.peek() == '"' || l.peek() == '#' && l.rawStringAhead()):
		if err := l.lexRawString(start); err != nil {
			return nil, err
		}
		return token.Stream{token.NewLiteral(l.src[start.Offset:l.offset], l.span(start))}, nil

	case word == "r" && l.peek() == '#':
		l.advance()
		if l.eof() || !isIdentStart(l.peekRune()) {
			return nil, l.errorf(start, "expected identifier after `r#`")
		}
		for !l.eof() && isIdentContinue(l.peekRune()) {
			l.advance()
		}
		return token.Stream{token.NewIdent(l.src[start.Offset:l.offset], l.span(start))}, nil
	}

	return token.Stream{token.NewIdent(word, l.span(start))}, nil
}

func (l *Lexer) rawStringAhead() bool {
	i := l.offset
	for i < len(l.src) && l.src[i] == '#' {
		i++
	}
	return i < len(l.src) && l.src[i] == '"'
}

func (l *Lexer) lexRawString(start token.Position) error {
	hashes := 0
	for l.peek() == '#' {
		hashes++
		l.advance()
	}
	l.advance() // opening quote
	closer := "\"" + strings.Repeat("#", hashes)
	for !l.eof() {
		if strings.HasPrefix(l.src[l.offset:], closer) {
			for range closer {
				l.advance()
			}
			return nil
		}
		l.advance()
	}
	return l.errorf(start, "unterminated raw string")
}

// lexQuoted reads a literal delimited by quote, honoring backslash escapes.
func (l *Lexer) lexQuoted(quote byte) error {
	start := l.pos()
	l.advance()
	for !l.eof() {
		switch l.peek() {
		case '\\':
			l.advance()
			l.advance()
		case quote:
			l.advance()
			return nil
		default:
			l.advance()
		}
	}
	if quote == '"' {
		return l.errorf(start, "unterminated string literal")
	}
	return l.errorf(start, "unterminated character literal")
}

// lexQuote distinguishes a character literal from a lifetime. A lifetime
// becomes a joint `'` followed by an identifier.
func (l *Lexer) lexQuote() (token.Stream, error) {
	start := l.pos()

	if l.peekAt(1) == '\\' {
		if err := l.lexQuoted('\''); err != nil {
			return nil, err
		}
		return token.Stream{token.NewLiteral(l.src[start.Offset:l.offset], l.span(start))}, nil
	}

	_, size := utf8.DecodeRuneInString(l.src[l.offset+1:])
	if l.offset+1 < len(l.src) && l.peekAt(1+size) == '\'' {
		l.advance()
		l.advance()
		l.advance()
		return token.Stream{token.NewLiteral(l.src[start.Offset:l.offset], l.span(start))}, nil
	}

	l.advance()
	if l.eof() || !isIdentStart(l.peekRune()) {
		return nil, l.errorf(start, "expected lifetime or character literal")
	}
	quote := token.NewPunct('\'', token.Joint, l.span(start))

	identStart := l.pos()
	for !l.eof() && isIdentContinue(l.peekRune()) {
		l.advance()
	}
	ident := token.NewIdent(l.src[identStart.Offset:l.offset], l.span(identStart))

	return token.Stream{quote, ident}, nil
}

func (l *Lexer) lexNumber() {
	for !l.eof() {
		c := l.peek()
		switch {
		case c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
			prev := c
			l.advance()
			if (prev == 'e' || prev == 'E') && (l.peek() == '+' || l.peek() == '-') {
				l.advance()
			}
		case c == '.' && l.peekAt(1) >= '0' && l.peekAt(1) <= '9':
			l.advance()
		default:
			return
		}
	}
}
