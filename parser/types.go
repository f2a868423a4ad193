package parser

import (
	"strconv"
	"strings"

	"github.com/ardanlabs/bridgegen/token"
)

type Ident struct {
	Name string
	Span token.Span
}

func (i Ident) String() string {
	return i.Name
}

type AttrStyle int

const (
	Outer AttrStyle = iota
	Inner
)

// Attribute is one `#[path meta]` or `#![path meta]` annotation. Tokens
// holds the attribute exactly as written so it can be re-emitted.
type Attribute struct {
	Style  AttrStyle
	Path   []Ident
	Meta   token.Stream
	Tokens token.Stream
	Span   token.Span
}

// PathString joins the attribute path with `::`.
func (a Attribute) PathString() string {
	parts := make([]string, len(a.Path))
	for i, p := range a.Path {
		parts[i] = p.Name
	}
	return strings.Join(parts, "::")
}

// Value returns the unquoted string of a `#[name = "value"]` attribute.
func (a Attribute) Value() (string, bool) {
	if len(a.Meta) != 2 || !a.Meta[0].IsPunct('=') || a.Meta[1].Kind != token.Literal {
		return "", false
	}
	v, err := strconv.Unquote(a.Meta[1].Text)
	if err != nil {
		return "", false
	}
	return v, true
}

type VisKind int

const (
	Inherited VisKind = iota
	Public
	Restricted
)

type Visibility struct {
	Kind   VisKind
	Tokens token.Stream
}

// TypeDecl is a foreign type declaration `type Name;`. Whatever followed
// the name in the source, such as `= Target`, is never kept.
type TypeDecl struct {
	Attrs []Attribute
	Vis   Visibility
	Type  token.Tree
	Ident Ident
	Span  token.Span
}

// Tokens rebuilds the minimal declaration `#[..] vis type Ident;`.
func (d *TypeDecl) Tokens() token.Stream {
	var out token.Stream
	for _, a := range d.Attrs {
		out = append(out, a.Tokens...)
	}
	out = append(out, d.Vis.Tokens...)
	out = append(out, d.Type, token.NewIdent(d.Ident.Name, d.Ident.Span))
	out = append(out, token.NewPunct(';', token.Alone, d.Ident.Span.Collapse()))
	return out
}

// ForeignItem is one declaration inside an extern block: *TypeDecl,
// *ForeignFn, *ForeignMacro or *ForeignVerbatim.
type ForeignItem interface {
	Pos() token.Span
	foreignItem()
}

type ForeignFn struct {
	Attrs []Attribute
	Vis   Visibility
	Sig   Signature
	Span  token.Span
}

type ForeignMacro struct {
	Attrs  []Attribute
	Path   Ident
	Tokens token.Stream
	Span   token.Span
}

// ForeignVerbatim is an item the grammar could not classify directly, kept
// as the raw token run. `type B = C;` lands here.
type ForeignVerbatim struct {
	Tokens token.Stream
	Span   token.Span
}

func (d *TypeDecl) Pos() token.Span        { return d.Span }
func (f *ForeignFn) Pos() token.Span       { return f.Span }
func (m *ForeignMacro) Pos() token.Span    { return m.Span }
func (v *ForeignVerbatim) Pos() token.Span { return v.Span }

func (*TypeDecl) foreignItem()        {}
func (*ForeignFn) foreignItem()       {}
func (*ForeignMacro) foreignItem()    {}
func (*ForeignVerbatim) foreignItem() {}

type Abi struct {
	Extern token.Tree
	Name   string // unquoted, empty when omitted
}

// ForeignMod is an `extern "ABI" { ... }` block: the module block holding
// ordered attributes and ordered items.
type ForeignMod struct {
	Attrs  []Attribute
	Unsafe bool
	Abi    Abi
	Brace  token.Span
	Items  []ForeignItem
	Span   token.Span
}

// Type is a type expression stored verbatim.
type Type struct {
	Tokens token.Stream
}

func (t Type) String() string {
	return t.Tokens.String()
}

func (t Type) Span() token.Span {
	return t.Tokens.Span()
}

// Pattern is the binding side of a typed function argument: *PatIdent,
// *PatRef, *PatTuple, *PatWild or *PatOther.
type Pattern interface {
	Pos() token.Span
	pattern()
}

// PatIdent is `[ref] [mut] name [@ subpattern]`.
type PatIdent struct {
	ByRef  bool
	Mut    bool
	Ident  Ident
	Subpat Pattern
	Span   token.Span
}

type PatRef struct {
	Mut  bool
	Pat  Pattern
	Span token.Span
}

type PatTuple struct {
	Elems []Pattern
	Span  token.Span
}

type PatWild struct {
	Span token.Span
}

// PatOther covers literal, path and struct patterns kept as tokens.
type PatOther struct {
	Tokens token.Stream
	Span   token.Span
}

func (p *PatIdent) Pos() token.Span { return p.Span }
func (p *PatRef) Pos() token.Span   { return p.Span }
func (p *PatTuple) Pos() token.Span { return p.Span }
func (p *PatWild) Pos() token.Span  { return p.Span }
func (p *PatOther) Pos() token.Span { return p.Span }

func (*PatIdent) pattern() {}
func (*PatRef) pattern()   {}
func (*PatTuple) pattern() {}
func (*PatWild) pattern()  {}
func (*PatOther) pattern() {}

// FnArg is a function parameter: *Receiver or *TypedArg.
type FnArg interface {
	Pos() token.Span
	Attributes() []Attribute
	fnArg()
}

// Receiver is the shorthand `self`, `mut self`, `&self`, `&'a mut self`.
type Receiver struct {
	Attrs     []Attribute
	Reference bool
	Lifetime  string
	Mut       bool
	Self      Ident
	Span      token.Span
}

// TypedArg is `pattern: Type`.
type TypedArg struct {
	Attrs []Attribute
	Pat   Pattern
	Type  Type
	Span  token.Span
}

func (r *Receiver) Pos() token.Span { return r.Span }
func (a *TypedArg) Pos() token.Span { return a.Span }

func (r *Receiver) Attributes() []Attribute { return r.Attrs }
func (a *TypedArg) Attributes() []Attribute { return a.Attrs }

func (*Receiver) fnArg() {}
func (*TypedArg) fnArg() {}

type Signature struct {
	Unsafe   bool
	Ident    Ident
	Generics token.Stream
	Inputs   []FnArg
	Variadic bool
	Output   *Type // nil for the unit type
	Where    token.Stream
	Span     token.Span
}

// Item is a bridge module level item: *ForeignMod, *ItemMod or
// *ItemVerbatim.
type Item interface {
	Pos() token.Span
	item()
}

// ItemMod is `mod name { items }` or `mod name;` when Content is nil.
type ItemMod struct {
	Attrs   []Attribute
	Vis     Visibility
	Ident   Ident
	Content []Item
	Inline  bool
	Span    token.Span
}

// ItemVerbatim is a module level item kept as raw tokens. An
// `unsafe extern "ABI" { ... }` block arrives here.
type ItemVerbatim struct {
	Tokens token.Stream
	Span   token.Span
}

func (m *ForeignMod) Pos() token.Span   { return m.Span }
func (m *ItemMod) Pos() token.Span      { return m.Span }
func (v *ItemVerbatim) Pos() token.Span { return v.Span }

func (*ForeignMod) item()   {}
func (*ItemMod) item()      {}
func (*ItemVerbatim) item() {}

// File is a parsed source file.
type File struct {
	Attrs []Attribute
	Items []Item
}
