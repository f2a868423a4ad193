package parser

import (
	"errors"
	"testing"

	"github.com/ardanlabs/bridgegen/lexer"
	"github.com/ardanlabs/bridgegen/token"
)

func lex(t *testing.T, src string) token.Stream {
	t.Helper()
	stream, err := lexer.Lex("test.rs", src)
	if err != nil {
		t.Fatalf("lexing %q: %v", src, err)
	}
	return stream
}

func TestParseOuterAttrs(t *testing.T) {
	c := NewCursor(lex(t, `#[namespace = "a"] #[cxx_qt::bridge(cxx_file_stem = "x")] #[qobject] type A;`), token.Span{})
	attrs, err := ParseOuterAttrs(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(attrs))
	}

	if v, ok := attrs[0].Value(); !ok || v != "a" {
		t.Fatalf("Value() = %q, %v", v, ok)
	}
	if got := attrs[1].PathString(); got != "cxx_qt::bridge" {
		t.Fatalf("PathString() = %q", got)
	}
	if _, ok := attrs[1].Value(); ok {
		t.Fatalf("expected no value for a list attribute")
	}
	if got := attrs[2].Tokens.String(); got != "# [qobject]" {
		t.Fatalf("Tokens = %q", got)
	}
	if !c.PeekIdent("type") {
		t.Fatalf("cursor should stop at the item")
	}
}

func TestParseOuterAttrsErrors(t *testing.T) {
	inputs := []string{
		"# type A;",
		"#![inner] type A;",
		"#[] type A;",
		"#[= 1] type A;",
	}
	for _, input := range inputs {
		_, err := ParseOuterAttrs(NewCursor(lex(t, input), token.Span{}))
		var perr *Error
		if !errors.As(err, &perr) {
			t.Fatalf("%q: expected *Error, got %v", input, err)
		}
	}
}

func TestParseVisibility(t *testing.T) {
	tests := []struct {
		input string
		kind  VisKind
		rest  string
	}{
		{"type A;", Inherited, "type"},
		{"pub type A;", Public, "type"},
		{"pub(crate) type A;", Restricted, "type"},
		{"pub(in super::x) type A;", Restricted, "type"},
		{"pub (A, B)", Public, ""},
	}
	for _, tt := range tests {
		c := NewCursor(lex(t, tt.input), token.Span{})
		vis := ParseVisibility(c)
		if vis.Kind != tt.kind {
			t.Fatalf("%q: kind = %v, want %v", tt.input, vis.Kind, tt.kind)
		}
		if tt.rest != "" && !c.PeekIdent(tt.rest) {
			t.Fatalf("%q: cursor left at the wrong place", tt.input)
		}
	}
}

func TestParseForeignItemKinds(t *testing.T) {
	mod, err := ParseAll(lex(t, `
		extern "RustQt" {
			#![inner]
			type A;
			type B = C;
			#[qinvokable]
			fn invoke(self: Pin<&mut A>, value: i32) -> bool;
			unsafe fn raw(self: &A, ...);
			declare!(A);
			static X: i32;
		}`), token.Span{}, ParseForeignMod)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mod.Abi.Name != "RustQt" {
		t.Fatalf("abi = %q", mod.Abi.Name)
	}
	if len(mod.Attrs) != 1 || mod.Attrs[0].Style != Inner {
		t.Fatalf("expected the inner attribute on the block, got %d", len(mod.Attrs))
	}
	if len(mod.Items) != 6 {
		t.Fatalf("expected 6 items, got %d", len(mod.Items))
	}

	if decl, ok := mod.Items[0].(*TypeDecl); !ok || decl.Ident.Name != "A" {
		t.Fatalf("item 0: got %T", mod.Items[0])
	}
	if v, ok := mod.Items[1].(*ForeignVerbatim); !ok || v.Tokens.String() != "type B = C ;" {
		t.Fatalf("item 1: got %T", mod.Items[1])
	}

	fn, ok := mod.Items[2].(*ForeignFn)
	if !ok {
		t.Fatalf("item 2: got %T", mod.Items[2])
	}
	if fn.Sig.Ident.Name != "invoke" || len(fn.Sig.Inputs) != 2 || len(fn.Attrs) != 1 {
		t.Fatalf("unexpected signature %+v", fn.Sig)
	}
	if fn.Sig.Output == nil || fn.Sig.Output.String() != "bool" {
		t.Fatalf("unexpected output %v", fn.Sig.Output)
	}
	arg := fn.Sig.Inputs[1].(*TypedArg)
	if arg.Type.String() != "i32" {
		t.Fatalf("unexpected argument type %q", arg.Type)
	}

	raw := mod.Items[3].(*ForeignFn)
	if !raw.Sig.Unsafe || !raw.Sig.Variadic || len(raw.Sig.Inputs) != 1 {
		t.Fatalf("unexpected unsafe variadic signature %+v", raw.Sig)
	}

	if m, ok := mod.Items[4].(*ForeignMacro); !ok || m.Path.Name != "declare" {
		t.Fatalf("item 4: got %T", mod.Items[4])
	}
	if _, ok := mod.Items[5].(*ForeignVerbatim); !ok {
		t.Fatalf("item 5: got %T", mod.Items[5])
	}
}

func TestParseSignatureArguments(t *testing.T) {
	sig, err := ParseSignature(lex(t, "fn f<'a, T: Into<U>>(&'a mut self, m: HashMap<K, V>, (a, b): (A, B), ref mut c: C, _: D) -> Box<dyn Fn(A) -> B> where T: Send;"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sig.Inputs) != 5 {
		t.Fatalf("expected 5 inputs, got %d", len(sig.Inputs))
	}
	if sig.Generics.String() != "< 'a , T : Into < U >>" {
		t.Fatalf("generics = %q", sig.Generics)
	}

	recv, ok := sig.Inputs[0].(*Receiver)
	if !ok || !recv.Reference || !recv.Mut || recv.Lifetime != "a" {
		t.Fatalf("unexpected receiver %+v", sig.Inputs[0])
	}
	if got := sig.Inputs[1].(*TypedArg).Type.String(); got != "HashMap < K , V >" {
		t.Fatalf("map type = %q", got)
	}
	if _, ok := sig.Inputs[2].(*TypedArg).Pat.(*PatTuple); !ok {
		t.Fatalf("expected tuple pattern")
	}
	if pat := sig.Inputs[3].(*TypedArg).Pat.(*PatIdent); !pat.ByRef || !pat.Mut || pat.Ident.Name != "c" {
		t.Fatalf("unexpected ident pattern %+v", pat)
	}
	if _, ok := sig.Inputs[4].(*TypedArg).Pat.(*PatWild); !ok {
		t.Fatalf("expected wildcard pattern")
	}
	if sig.Output.String() != "Box < dyn Fn (A) -> B >" {
		t.Fatalf("output = %q", sig.Output)
	}
	if sig.Where.String() != "T : Send" {
		t.Fatalf("where = %q", sig.Where)
	}
}

func TestParseForeignModDanglingAttrs(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"attribute", "extern \"C++\" {\n\ttype A;\n\t#[namespace = \"x\"]\n}", 3},
		{"visibility", "extern \"C++\" {\n\ttype A;\n\tpub\n}", 3},
		{"attribute only", "extern \"C++\" { #[a] }", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAll(lex(t, tt.src), token.Span{}, ParseForeignMod)
			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if perr.Span.Start.Line != tt.line {
				t.Fatalf("error anchored at %v, want line %d", perr.Span, tt.line)
			}
		})
	}
}

func TestParseSignatureErrors(t *testing.T) {
	inputs := []string{
		"fn (a: A);",
		"fn f;",
		"fn f(a A);",
		"fn f(a: );",
		"fn f<T(a: T);",
		"fn f(a: A) extra;",
	}
	for _, input := range inputs {
		_, err := ParseSignature(lex(t, input))
		var perr *Error
		if !errors.As(err, &perr) {
			t.Fatalf("%q: expected *Error, got %v", input, err)
		}
	}
}

func TestParseFile(t *testing.T) {
	file, err := ParseFile(lex(t, `
		#![allow(dead_code)]

		#[cxx_qt::bridge]
		pub mod ffi {
			use super::*;

			extern "C++" {
				type A;
			}

			#[namespace = "n"]
			unsafe extern "C++" {
				type B = C;
			}

			#[derive(Default)]
			pub struct Data {
				value: i32,
			}

			impl Default for Data {}

			mod nested;
		}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(file.Attrs) != 1 || len(file.Items) != 1 {
		t.Fatalf("unexpected file shape: %d attrs, %d items", len(file.Attrs), len(file.Items))
	}

	mod, ok := file.Items[0].(*ItemMod)
	if !ok || mod.Ident.Name != "ffi" || !mod.Inline || mod.Vis.Kind != Public {
		t.Fatalf("unexpected module %T", file.Items[0])
	}
	if len(mod.Content) != 6 {
		t.Fatalf("expected 6 items, got %d", len(mod.Content))
	}

	if _, ok := mod.Content[0].(*ItemVerbatim); !ok {
		t.Fatalf("item 0: got %T", mod.Content[0])
	}
	if _, ok := mod.Content[1].(*ForeignMod); !ok {
		t.Fatalf("item 1: got %T", mod.Content[1])
	}
	v, ok := mod.Content[2].(*ItemVerbatim)
	if !ok {
		t.Fatalf("item 2: got %T", mod.Content[2])
	}
	if got, want := v.Tokens.String(), `# [namespace = "n"] unsafe extern "C++" { type B = C ; }`; got != want {
		t.Fatalf("verbatim = %q, want %q", got, want)
	}
	if nested, ok := mod.Content[5].(*ItemMod); !ok || nested.Inline {
		t.Fatalf("item 5: got %T", mod.Content[5])
	}
}

func TestCursorErrorAtEnd(t *testing.T) {
	stream := lex(t, "(a)")
	group := stream[0]
	c := NewCursor(group.Inner, group.Span)
	c.Next()

	err := c.Errorf("expected more")
	if err.Span != group.Span.Collapse() {
		t.Fatalf("expected end of group anchor, got %v", err.Span)
	}
}
