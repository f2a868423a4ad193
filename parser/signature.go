package parser

import (
	"github.com/ardanlabs/bridgegen/token"
)

// parseType collects a type expression up to, but not including, a tree
// for which stop returns true at angle bracket depth zero.
func parseType(c *Cursor, stop func(c *Cursor) bool) (Type, error) {
	mark := c.Mark()
	depth := 0

	for !c.EOF() {
		if depth == 0 && stop(c) {
			break
		}
		switch {
		case c.PeekPunct("->"):
			c.Next()
		case c.PeekPunct("<"):
			depth++
		case c.PeekPunct(">") && depth > 0:
			depth--
		}
		c.Next()
	}

	if c.Mark() == mark {
		return Type{}, c.Errorf("expected type")
	}
	return Type{Tokens: c.Since(mark)}, nil
}

func stopAtComma(c *Cursor) bool {
	return c.PeekPunct(",")
}

func stopAtReturnEnd(c *Cursor) bool {
	return c.PeekPunct(";") || c.PeekIdent("where") || c.PeekGroup(token.Brace)
}

// ParseType consumes a whole stream as one type expression.
func ParseType(stream token.Stream) (Type, error) {
	return ParseAll(stream, token.Span{}, func(c *Cursor) (Type, error) {
		return parseType(c, func(*Cursor) bool { return false })
	})
}

// parseGenerics collects `<...>` after a function or type name.
func parseGenerics(c *Cursor) (token.Stream, error) {
	if !c.PeekPunct("<") {
		return nil, nil
	}
	mark := c.Mark()
	depth := 0
	for {
		t, ok := c.Next()
		if !ok {
			return nil, c.ErrorAt(mark, "unclosed generic parameter list")
		}
		switch {
		case t.IsPunct('-') && t.Spacing == token.Joint && c.PeekPunct(">"):
			c.Next()
		case t.IsPunct('<'):
			depth++
		case t.IsPunct('>'):
			depth--
			if depth == 0 {
				return c.Since(mark), nil
			}
		}
	}
}

// parsePattern parses the binding side of a typed argument.
func parsePattern(c *Cursor) (Pattern, error) {
	start := c.Span()
	mark := c.Mark()

	switch {
	case c.PeekPunct("&&"), c.PeekPunct("&"):
		if _, ok := c.EatPunct("&&"); !ok {
			c.Next()
		}
		_, mut := c.EatIdent("mut")
		pat, err := parsePattern(c)
		if err != nil {
			return nil, err
		}
		return &PatRef{Mut: mut, Pat: pat, Span: start.Join(pat.Pos())}, nil

	case c.PeekGroup(token.Paren):
		group, _ := c.Next()
		elems, err := parsePatternList(group)
		if err != nil {
			return nil, err
		}
		return &PatTuple{Elems: elems, Span: group.Span}, nil

	case c.PeekIdent("_"):
		t, _ := c.Next()
		return &PatWild{Span: t.Span}, nil
	}

	if pat, ok, err := parsePatIdent(c); err != nil || ok {
		return pat, err
	}
	c.Reset(mark)

	for !c.EOF() && !isArgColon(c) && !c.PeekPunct(",") {
		if _, ok := c.EatPunct("::"); ok {
			continue
		}
		c.Next()
	}
	if c.Mark() == mark {
		return nil, c.Errorf("expected pattern")
	}
	tokens := c.Since(mark)
	return &PatOther{Tokens: tokens, Span: tokens.Span()}, nil
}

// parsePatIdent tries `[ref] [mut] ident [@ subpattern]`. It reports false
// when the ident turns out to start a path or struct pattern.
func parsePatIdent(c *Cursor) (Pattern, bool, error) {
	start := c.Span()
	_, byRef := c.EatIdent("ref")
	_, mut := c.EatIdent("mut")

	t, ok := c.Peek()
	if !ok || t.Kind != token.Ident {
		return nil, false, nil
	}
	if next, ok := c.PeekN(1); ok && (next.IsGroup(token.Brace) || next.IsGroup(token.Paren) || next.IsPunct('!')) {
		return nil, false, nil
	}
	if c.peekPunctN(1, "::") {
		return nil, false, nil
	}
	c.Next()

	pat := &PatIdent{
		ByRef: byRef,
		Mut:   mut,
		Ident: Ident{Name: t.Text, Span: t.Span},
		Span:  start.Join(t.Span),
	}
	if _, ok := c.EatPunct("@"); ok {
		sub, err := parsePattern(c)
		if err != nil {
			return nil, false, err
		}
		pat.Subpat = sub
		pat.Span = pat.Span.Join(sub.Pos())
	}
	return pat, true, nil
}

func parsePatternList(group token.Tree) ([]Pattern, error) {
	c := NewCursor(group.Inner, group.Span)
	var elems []Pattern
	for !c.EOF() {
		pat, err := parsePattern(c)
		if err != nil {
			return nil, err
		}
		elems = append(elems, pat)
		if c.EOF() {
			break
		}
		if _, err := c.ExpectPunct(","); err != nil {
			return nil, err
		}
	}
	return elems, nil
}

// isArgColon reports whether the next tree is the single `:` separating a
// pattern from its type, as opposed to the first half of `::`.
func isArgColon(c *Cursor) bool {
	return c.PeekPunct(":") && !c.PeekPunct("::")
}

// parseFnArg parses one parameter of a signature.
func parseFnArg(c *Cursor) (FnArg, error) {
	start := c.Span()
	attrs, err := ParseOuterAttrs(c)
	if err != nil {
		return nil, err
	}

	if recv, ok := parseReceiver(c, attrs); ok {
		recv.Span = start.Join(recv.Self.Span)
		return recv, nil
	}

	pat, err := parsePattern(c)
	if err != nil {
		return nil, err
	}
	if _, err := c.ExpectPunct(":"); err != nil {
		return nil, err
	}
	ty, err := parseType(c, stopAtComma)
	if err != nil {
		return nil, err
	}

	return &TypedArg{
		Attrs: attrs,
		Pat:   pat,
		Type:  ty,
		Span:  start.Join(ty.Span()),
	}, nil
}

// parseReceiver recognizes the shorthand receivers `self`, `mut self`,
// `&self`, `&mut self` and `&'a mut self`. A receiver with an explicit
// type is a TypedArg instead.
func parseReceiver(c *Cursor, attrs []Attribute) (*Receiver, bool) {
	f := c.Fork()
	recv := &Receiver{Attrs: attrs}

	if _, ok := f.EatPunct("&"); ok {
		recv.Reference = true
		if f.PeekPunct("'") {
			f.Next()
			lt, ok := f.Next()
			if !ok || lt.Kind != token.Ident {
				return nil, false
			}
			recv.Lifetime = lt.Text
		}
	}
	if _, ok := f.EatIdent("mut"); ok {
		recv.Mut = true
	}

	self, ok := f.EatIdent("self")
	if !ok {
		return nil, false
	}
	if !f.EOF() && !f.PeekPunct(",") {
		return nil, false
	}
	recv.Self = Ident{Name: self.Text, Span: self.Span}

	*c = *f
	return recv, true
}

// parseSignature parses `[unsafe] [extern "abi"] fn name<..>(args) -> Ret where ..`
// leaving the trailing `;` or body in place.
func parseSignature(c *Cursor) (Signature, error) {
	start := c.Span()
	var sig Signature

	c.EatIdent("const")
	c.EatIdent("async")
	if _, ok := c.EatIdent("unsafe"); ok {
		sig.Unsafe = true
	}
	if _, ok := c.EatIdent("extern"); ok {
		if t, ok := c.Peek(); ok && t.Kind == token.Literal {
			c.Next()
		}
	}
	if _, err := c.ExpectKeyword("fn"); err != nil {
		return Signature{}, err
	}

	ident, err := c.ParseIdent()
	if err != nil {
		return Signature{}, err
	}
	sig.Ident = ident

	if sig.Generics, err = parseGenerics(c); err != nil {
		return Signature{}, err
	}

	params, err := c.ExpectGroup(token.Paren)
	if err != nil {
		return Signature{}, err
	}
	sig.Span = start.Join(params.Span)

	args := NewCursor(params.Inner, params.Span)
	for !args.EOF() {
		if _, ok := args.EatPunct("..."); ok {
			sig.Variadic = true
			args.EatPunct(",")
			if err := args.ExpectEOF(); err != nil {
				return Signature{}, err
			}
			break
		}

		arg, err := parseFnArg(args)
		if err != nil {
			return Signature{}, err
		}
		sig.Inputs = append(sig.Inputs, arg)

		if args.EOF() {
			break
		}
		if _, err := args.ExpectPunct(","); err != nil {
			return Signature{}, err
		}
	}

	if _, ok := c.EatPunct("->"); ok {
		ty, err := parseType(c, stopAtReturnEnd)
		if err != nil {
			return Signature{}, err
		}
		sig.Output = &ty
		sig.Span = sig.Span.Join(ty.Span())
	}

	if _, ok := c.EatIdent("where"); ok {
		mark := c.Mark()
		for !c.EOF() && !c.PeekPunct(";") && !c.PeekGroup(token.Brace) {
			c.Next()
		}
		sig.Where = c.Since(mark)
	}

	return sig, nil
}

// ParseSignature parses a complete function declaration such as
// `fn foo(self: &T, a: A) -> B;`, attributes and visibility included.
func ParseSignature(stream token.Stream) (Signature, error) {
	return ParseAll(stream, token.Span{}, func(c *Cursor) (Signature, error) {
		if _, err := ParseOuterAttrs(c); err != nil {
			return Signature{}, err
		}
		ParseVisibility(c)
		sig, err := parseSignature(c)
		if err != nil {
			return Signature{}, err
		}
		c.EatPunct(";")
		return sig, nil
	})
}
