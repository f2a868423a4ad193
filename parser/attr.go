package parser

import (
	"github.com/ardanlabs/bridgegen/token"
)

// ParseOuterAttrs consumes zero or more `#[...]` attributes.
func ParseOuterAttrs(c *Cursor) ([]Attribute, error) {
	var attrs []Attribute
	for c.PeekPunct("#") {
		if c.peekPunctN(1, "!") {
			return nil, NewError(c.Span(), "inner attribute is not permitted in this context")
		}
		attr, err := parseAttr(c, Outer)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

// ParseInnerAttrs consumes zero or more `#![...]` attributes.
func ParseInnerAttrs(c *Cursor) ([]Attribute, error) {
	var attrs []Attribute
	for c.PeekPunct("#") && c.peekPunctN(1, "!") {
		attr, err := parseAttr(c, Inner)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func parseAttr(c *Cursor, style AttrStyle) (Attribute, error) {
	mark := c.Mark()
	c.Next()
	if style == Inner {
		c.Next()
	}

	group, err := c.ExpectGroup(token.Bracket)
	if err != nil {
		return Attribute{}, err
	}

	attr := Attribute{Style: style}
	inner := NewCursor(group.Inner, group.Span)
	for {
		ident, ok := inner.Peek()
		if !ok || ident.Kind != token.Ident {
			return Attribute{}, inner.Errorf("expected attribute path")
		}
		inner.Next()
		attr.Path = append(attr.Path, Ident{Name: ident.Text, Span: ident.Span})
		if _, ok := inner.EatPunct("::"); !ok {
			break
		}
	}
	attr.Meta = inner.Rest()
	attr.Tokens = c.Since(mark)
	attr.Span = attr.Tokens.Span()

	return attr, nil
}

// ParseVisibility consumes `pub` or `pub(crate)` style markers. Absence
// yields an inherited visibility.
func ParseVisibility(c *Cursor) Visibility {
	mark := c.Mark()
	if _, ok := c.EatIdent("pub"); !ok {
		return Visibility{Kind: Inherited}
	}

	if t, ok := c.Peek(); ok && t.IsGroup(token.Paren) && len(t.Inner) > 0 {
		first := t.Inner[0]
		if first.IsIdent("crate") || first.IsIdent("self") || first.IsIdent("super") || first.IsIdent("in") {
			c.Next()
			return Visibility{Kind: Restricted, Tokens: c.Since(mark)}
		}
	}

	return Visibility{Kind: Public, Tokens: c.Since(mark)}
}
