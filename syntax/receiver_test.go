package syntax

import (
	"errors"
	"strings"
	"testing"

	"github.com/ardanlabs/bridgegen/parser"
)

func parseSignature(t *testing.T, src string) parser.Signature {
	t.Helper()
	sig, err := parser.ParseSignature(lex(t, src))
	if err != nil {
		t.Fatalf("parsing %q: %v", src, err)
	}
	return sig
}

func TestForeignFnSelf(t *testing.T) {
	tests := []struct {
		input string
		typ   string
	}{
		{"fn foo(self: &qobject::T, a: A) -> B;", "& qobject :: T"},
		{"fn foo(self: &mut T);", "& mut T"},
		{"fn foo(self: T);", "T"},
		{"fn foo(self: *mut ffi::Obj, b: B);", "* mut ffi :: Obj"},
		{"unsafe fn foo(self: &T) -> Result<(), E>;", "& T"},
		{"#[qinvokable] pub fn foo(self: &T);", "& T"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			sig := parseSignature(t, tt.input)
			result, err := SelfTypeFromForeignFn(&sig)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Ident.Name != "self" {
				t.Fatalf("ident = %q, want self", result.Ident.Name)
			}
			if got := result.Type.String(); got != tt.typ {
				t.Fatalf("type = %q, want %q", got, tt.typ)
			}
		})
	}
}

func TestForeignFnInvalidSelf(t *testing.T) {
	tests := []struct {
		name  string
		input string
		attr  bool
	}{
		{"missing self", "fn foo(a: A) -> B;", false},
		{"no arguments", "fn foo();", false},
		{"self without type", "fn foo(self);", false},
		{"self with mut", "fn foo(mut self: T);", false},
		{"self reference", "fn foo(&self);", false},
		{"self reference with mut", "fn foo(&mut self);", false},
		{"self reference with lifetime", "fn foo(&'a mut self);", false},
		{"ref binding", "fn foo(ref self: T);", false},
		{"sub pattern", "fn foo(self @ other: T);", false},
		{"reference pattern", "fn foo(&self: &T);", false},
		{"tuple pattern", "fn foo((self, a): (T, A));", false},
		{"self second", "fn foo(a: A, self: &T);", false},
		{"attribute on self type", "fn foo(#[attr] self: T);", true},
		{"attribute on other argument", "fn foo(#[attr] a: T);", true},
		{"attribute on shorthand", "fn foo(#[attr] &self);", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := parseSignature(t, tt.input)
			_, err := SelfTypeFromForeignFn(&sig)

			var rerr *ReceiverError
			if !errors.As(err, &rerr) {
				t.Fatalf("expected *ReceiverError, got %v", err)
			}
			if got := strings.Contains(rerr.Msg, "attributes"); got != tt.attr {
				t.Fatalf("unexpected message %q", rerr.Msg)
			}

			want := sig.Span
			if len(sig.Inputs) > 0 {
				want = sig.Inputs[0].Pos()
			}
			if rerr.Span != want {
				t.Fatalf("error anchored at %v, want %v", rerr.Span, want)
			}
		})
	}
}

func TestForeignFnSelfIgnoresLaterArguments(t *testing.T) {
	sig := parseSignature(t, "fn foo(self: &T, mut a: A, &b: &B, #[attr] c: C);")
	result, err := SelfTypeFromForeignFn(&sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := result.Type.String(); got != "& T" {
		t.Fatalf("type = %q, want & T", got)
	}
}

func TestForeignFnSelfCopiesType(t *testing.T) {
	sig := parseSignature(t, "fn foo(self: &T);")
	result, err := SelfTypeFromForeignFn(&sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	typed := sig.Inputs[0].(*parser.TypedArg)
	typed.Type.Tokens[1].Text = "U"
	if got := result.Type.String(); got != "& T" {
		t.Fatalf("binding shares storage with the signature: %q", got)
	}
}
