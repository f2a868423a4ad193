package parser

import (
	"strconv"

	"github.com/ardanlabs/bridgegen/token"
)

// ParseForeignItem parses one declaration of an extern block. Anything the
// grammar does not recognize directly, including a type alias with a
// right-hand side, comes back as a *ForeignVerbatim run ending at the next
// top level `;`.
func ParseForeignItem(c *Cursor) (ForeignItem, error) {
	mark := c.Mark()
	start := c.Span()

	attrs, err := ParseOuterAttrs(c)
	if err != nil {
		return nil, err
	}
	vis := ParseVisibility(c)

	switch {
	case c.EOF() && len(attrs) > 0:
		return nil, NewError(attrs[len(attrs)-1].Span, "expected an item after attributes")

	case c.EOF() && vis.Kind != Inherited:
		return nil, NewError(vis.Tokens.Span(), "expected an item after visibility")

	case c.PeekIdent("type"):
		if decl, ok := parsePlainType(c, attrs, vis, start); ok {
			return decl, nil
		}

	case isFnStart(c):
		sig, err := parseSignature(c)
		if err != nil {
			return nil, err
		}
		semi, err := c.ExpectPunct(";")
		if err != nil {
			return nil, err
		}
		return &ForeignFn{Attrs: attrs, Vis: vis, Sig: sig, Span: start.Join(semi)}, nil

	case isMacroStart(c):
		path, _ := c.Next()
		c.Next()
		body, ok := c.Next()
		if !ok {
			return nil, c.Errorf("expected macro body")
		}
		span := start.Join(body.Span)
		if semi, ok := c.EatPunct(";"); ok {
			span = span.Join(semi)
		}
		return &ForeignMacro{
			Attrs:  attrs,
			Path:   Ident{Name: path.Text, Span: path.Span},
			Tokens: body.Inner,
			Span:   span,
		}, nil
	}

	c.Reset(mark)
	tokens := collectUntilSemi(c)
	return &ForeignVerbatim{Tokens: tokens, Span: tokens.Span()}, nil
}

// parsePlainType recognizes exactly `type Ident;`. On any other shape the
// cursor is left untouched.
func parsePlainType(c *Cursor, attrs []Attribute, vis Visibility, start token.Span) (*TypeDecl, bool) {
	f := c.Fork()
	kw, _ := f.Next()
	ident, err := f.ParseIdent()
	if err != nil {
		return nil, false
	}
	semi, ok := f.EatPunct(";")
	if !ok {
		return nil, false
	}
	*c = *f

	return &TypeDecl{
		Attrs: attrs,
		Vis:   vis,
		Type:  kw,
		Ident: ident,
		Span:  start.Join(semi),
	}, true
}

func isFnStart(c *Cursor) bool {
	for i := 0; ; i++ {
		t, ok := c.PeekN(i)
		if !ok {
			return false
		}
		switch {
		case t.IsIdent("fn"):
			return true
		case t.IsIdent("const"), t.IsIdent("async"), t.IsIdent("unsafe"), t.IsIdent("extern"), t.Kind == token.Literal && i > 0:
		default:
			return false
		}
	}
}

func isMacroStart(c *Cursor) bool {
	t, ok := c.Peek()
	if !ok || t.Kind != token.Ident || IsKeyword(t.Text) || !c.peekPunctN(1, "!") {
		return false
	}
	body, ok := c.PeekN(2)
	return ok && body.Kind == token.Group
}

// collectUntilSemi consumes trees up to and including the next top level
// `;`, or to the end of input when there is none.
func collectUntilSemi(c *Cursor) token.Stream {
	mark := c.Mark()
	for {
		t, ok := c.Next()
		if !ok || t.IsPunct(';') {
			return c.Since(mark)
		}
	}
}

// ParseForeignMod parses `#[..] extern "ABI" { items }`.
func ParseForeignMod(c *Cursor) (*ForeignMod, error) {
	start := c.Span()

	attrs, err := ParseOuterAttrs(c)
	if err != nil {
		return nil, err
	}

	extern, err := c.ExpectKeyword("extern")
	if err != nil {
		return nil, err
	}
	mod := &ForeignMod{Attrs: attrs, Abi: Abi{Extern: extern}}

	if t, ok := c.Peek(); ok && t.Kind == token.Literal {
		c.Next()
		name, err := strconv.Unquote(t.Text)
		if err != nil {
			return nil, NewError(t.Span, "expected string literal for ABI name")
		}
		mod.Abi.Name = name
	}

	body, err := c.ExpectGroup(token.Brace)
	if err != nil {
		return nil, err
	}
	mod.Brace = body.Span
	mod.Span = start.Join(body.Span)

	inner := NewCursor(body.Inner, body.Span)
	innerAttrs, err := ParseInnerAttrs(inner)
	if err != nil {
		return nil, err
	}
	mod.Attrs = append(mod.Attrs, innerAttrs...)

	for !inner.EOF() {
		item, err := ParseForeignItem(inner)
		if err != nil {
			return nil, err
		}
		mod.Items = append(mod.Items, item)
	}

	return mod, nil
}

// ParseItem parses one module level item. Plain extern blocks and inline
// modules are parsed directly; every other item, `unsafe extern` blocks
// included, is kept verbatim up to its terminating `;` or body.
func ParseItem(c *Cursor) (Item, error) {
	mark := c.Mark()
	start := c.Span()

	attrs, err := ParseOuterAttrs(c)
	if err != nil {
		return nil, err
	}
	vis := ParseVisibility(c)

	switch {
	case vis.Kind == Inherited && c.PeekIdent("extern") && isForeignModBody(c):
		c.Reset(mark)
		return ParseForeignMod(c)

	case c.PeekIdent("mod"):
		c.Next()
		ident, err := c.ParseIdent()
		if err != nil {
			return nil, err
		}
		mod := &ItemMod{Attrs: attrs, Vis: vis, Ident: ident}
		if semi, ok := c.EatPunct(";"); ok {
			mod.Span = start.Join(semi)
			return mod, nil
		}
		body, err := c.ExpectGroup(token.Brace)
		if err != nil {
			return nil, err
		}
		mod.Inline = true
		mod.Span = start.Join(body.Span)

		inner := NewCursor(body.Inner, body.Span)
		innerAttrs, err := ParseInnerAttrs(inner)
		if err != nil {
			return nil, err
		}
		mod.Attrs = append(mod.Attrs, innerAttrs...)
		if mod.Content, err = parseItems(inner); err != nil {
			return nil, err
		}
		return mod, nil
	}

	c.Reset(mark)
	tokens := collectItemTokens(c)
	return &ItemVerbatim{Tokens: tokens, Span: tokens.Span()}, nil
}

func isForeignModBody(c *Cursor) bool {
	next, ok := c.PeekN(1)
	if ok && next.Kind == token.Literal {
		next, ok = c.PeekN(2)
	}
	return ok && next.IsGroup(token.Brace)
}

// collectItemTokens consumes trees through the first top level `;` or
// brace group, plus a `;` directly following that brace group.
func collectItemTokens(c *Cursor) token.Stream {
	mark := c.Mark()
	for {
		t, ok := c.Next()
		if !ok || t.IsPunct(';') {
			return c.Since(mark)
		}
		if t.IsGroup(token.Brace) {
			c.EatPunct(";")
			return c.Since(mark)
		}
	}
}

func parseItems(c *Cursor) ([]Item, error) {
	var items []Item
	for !c.EOF() {
		item, err := ParseItem(c)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// ParseFile parses a whole source file into its module level items.
func ParseFile(stream token.Stream) (*File, error) {
	c := NewCursor(stream, stream.Span())

	attrs, err := ParseInnerAttrs(c)
	if err != nil {
		return nil, err
	}
	items, err := parseItems(c)
	if err != nil {
		return nil, err
	}

	return &File{Attrs: attrs, Items: items}, nil
}
