// Package syntax extracts the pieces of a bridge that code generation
// needs from parsed extern blocks: the ordered foreign type declarations of
// a block, and the validated `self:` receiver of a foreign function.
package syntax

import (
	"github.com/ardanlabs/bridgegen/parser"
	"github.com/ardanlabs/bridgegen/token"
)

// VerbatimToForeignMod recognizes `#[..] unsafe extern "ABI" { .. }` in a
// verbatim token run. Leading attributes are merged in front of the block's
// own attributes.
//
// When the run is not an extern block it is consumed entirely and ok is
// false with a nil error: the tokens belong to some other construct. Once
// the qualifier and `extern` have been seen, a malformed body is an error.
func VerbatimToForeignMod(tokens token.Stream) (mod *parser.ForeignMod, ok bool, err error) {
	mod, err = parser.ParseAll(tokens, tokens.Span(), func(c *parser.Cursor) (*parser.ForeignMod, error) {
		attrs, err := parser.ParseOuterAttrs(c)
		if err != nil {
			return nil, err
		}

		unsafe := c.PeekIdent("unsafe") && c.PeekIdentN(1, "extern")
		if !unsafe && !isExternBlock(c) {
			c.SkipRest()
			return nil, nil
		}
		if unsafe {
			c.Next()
		}

		block, err := parser.ParseForeignMod(c)
		if err != nil {
			return nil, err
		}
		block.Unsafe = unsafe
		block.Attrs = append(attrs, block.Attrs...)
		block.Span = tokens.Span()

		return block, nil
	})
	if err != nil {
		return nil, false, err
	}
	return mod, mod != nil, nil
}

// isExternBlock reports whether an unqualified `extern` introduces a
// block, as opposed to `extern crate` and friends.
func isExternBlock(c *parser.Cursor) bool {
	if !c.PeekIdent("extern") {
		return false
	}
	next, ok := c.PeekN(1)
	if ok && next.Kind == token.Literal {
		next, ok = c.PeekN(2)
	}
	return ok && next.IsGroup(token.Brace)
}

// ForeignModToForeignItemTypes returns the type declarations of mod in
// source order. Aliases such as `type B = C;` are reduced to `type B;`.
// Items that are not type declarations are skipped.
func ForeignModToForeignItemTypes(mod *parser.ForeignMod) ([]*parser.TypeDecl, error) {
	var types []*parser.TypeDecl
	for _, item := range mod.Items {
		decl, ok, err := foreignItemToType(item)
		if err != nil {
			return nil, err
		}
		if ok {
			types = append(types, decl)
		}
	}
	return types, nil
}

func foreignItemToType(item parser.ForeignItem) (*parser.TypeDecl, bool, error) {
	switch item := item.(type) {
	// type A;
	case *parser.TypeDecl:
		decl := *item
		return &decl, true, nil

	// type A = B; and anything else the grammar kept as raw tokens
	case *parser.ForeignVerbatim:
		return verbatimToForeignType(item.Tokens)

	default:
		return nil, false, nil
	}
}

// verbatimToForeignType recovers `type Ident` from a verbatim run, dropping
// everything between the name and the terminating `;`.
func verbatimToForeignType(tokens token.Stream) (*parser.TypeDecl, bool, error) {
	c := parser.NewCursor(tokens, tokens.Span())

	attrs, err := parser.ParseOuterAttrs(c)
	if err != nil {
		return nil, false, err
	}
	vis := parser.ParseVisibility(c)

	kw, ok := c.EatIdent("type")
	if !ok {
		return nil, false, nil
	}
	ident, err := c.ParseIdent()
	if err != nil {
		return nil, false, err
	}

	scan := c.Mark()
	for {
		tt, ok := c.Next()
		if !ok {
			return nil, false, c.ErrorAt(scan, "no `;` was found after this point")
		}
		if tt.IsPunct(';') {
			break
		}
	}
	if err := c.ExpectEOF(); err != nil {
		return nil, false, err
	}

	decl := &parser.TypeDecl{Attrs: attrs, Vis: vis, Type: kw, Ident: ident}
	item, err := parser.ParseAll(decl.Tokens(), tokens.Span(), parser.ParseForeignItem)
	if err != nil {
		return nil, false, err
	}
	rebuilt, ok := item.(*parser.TypeDecl)
	if !ok {
		return nil, false, parser.NewError(ident.Span, "expected a type declaration")
	}
	return rebuilt, true, nil
}
