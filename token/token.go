package token

import "strings"

// Kind discriminates the four token tree shapes.
type Kind int

const (
	Ident Kind = iota
	Punct
	Literal
	Group
)

func (k Kind) String() string {
	switch k {
	case Ident:
		return "ident"
	case Punct:
		return "punct"
	case Literal:
		return "literal"
	case Group:
		return "group"
	default:
		return "unknown"
	}
}

// Delimiter is the bracket pair around a Group.
type Delimiter int

const (
	NoDelim Delimiter = iota
	Paren
	Brace
	Bracket
)

func (d Delimiter) Open() string {
	switch d {
	case Paren:
		return "("
	case Brace:
		return "{"
	case Bracket:
		return "["
	}
	return ""
}

func (d Delimiter) Close() string {
	switch d {
	case Paren:
		return ")"
	case Brace:
		return "}"
	case Bracket:
		return "]"
	}
	return ""
}

// Spacing tells whether a Punct is immediately followed by another Punct,
// which is how multi-character operators such as `::` and `->` are spelled.
type Spacing int

const (
	Alone Spacing = iota
	Joint
)

// Tree is a single token tree: an atom, or a delimited group holding a
// nested stream. Trees are values and never mutated after lexing.
type Tree struct {
	Kind    Kind
	Text    string // identifier, single punctuation character or literal source text
	Spacing Spacing
	Delim   Delimiter
	Inner   Stream
	Span    Span
}

// Stream is an ordered run of token trees.
type Stream []Tree

func NewIdent(name string, span Span) Tree {
	return Tree{Kind: Ident, Text: name, Span: span}
}

func NewPunct(ch byte, spacing Spacing, span Span) Tree {
	return Tree{Kind: Punct, Text: string(ch), Spacing: spacing, Span: span}
}

func NewLiteral(text string, span Span) Tree {
	return Tree{Kind: Literal, Text: text, Span: span}
}

func NewGroup(delim Delimiter, inner Stream, span Span) Tree {
	return Tree{Kind: Group, Delim: delim, Inner: inner, Span: span}
}

func (t Tree) IsIdent(name string) bool {
	return t.Kind == Ident && t.Text == name
}

func (t Tree) IsPunct(ch byte) bool {
	return t.Kind == Punct && len(t.Text) == 1 && t.Text[0] == ch
}

func (t Tree) IsGroup(d Delimiter) bool {
	return t.Kind == Group && t.Delim == d
}

func (t Tree) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t Tree) write(b *strings.Builder) {
	if t.Kind != Group {
		b.WriteString(t.Text)
		return
	}
	switch t.Delim {
	case Brace:
		b.WriteString("{ ")
		t.Inner.write(b)
		if len(t.Inner) > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("}")
	default:
		b.WriteString(t.Delim.Open())
		t.Inner.write(b)
		b.WriteString(t.Delim.Close())
	}
}

// String renders the stream in canonical spaced form: trees are separated
// by one space except after a joint punct, so `&qobject::T` renders as
// `& qobject :: T`.
func (s Stream) String() string {
	var b strings.Builder
	s.write(&b)
	return b.String()
}

func (s Stream) write(b *strings.Builder) {
	for i, t := range s {
		if i > 0 {
			prev := s[i-1]
			if prev.Kind != Punct || prev.Spacing != Joint {
				b.WriteByte(' ')
			}
		}
		t.write(b)
	}
}

// Span covers the first through the last tree of the stream.
func (s Stream) Span() Span {
	if len(s) == 0 {
		return Span{}
	}
	return s[0].Span.Join(s[len(s)-1].Span)
}
