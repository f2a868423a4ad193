package syntax

import (
	"fmt"
	"slices"

	"github.com/ardanlabs/bridgegen/parser"
	"github.com/ardanlabs/bridgegen/token"
)

// ReceiverBinding is a validated `self: Type` receiver. Type is kept as
// written, so `self: &mut T` yields the type `& mut T`.
type ReceiverBinding struct {
	Ident parser.Ident
	Type  parser.Type
}

// ReceiverError reports a missing or malformed `self:` receiver.
type ReceiverError struct {
	Span token.Span
	Msg  string
}

func (e *ReceiverError) Error() string {
	if !e.Span.IsValid() {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Span.Start, e.Msg)
}

// SelfTypeFromForeignFn returns the receiver bound by the first parameter
// of sig. Only the first parameter is inspected. It must be exactly
// `self: Type`: no attributes, no `mut`, no `ref`, no sub-pattern and not
// one of the `&self` style shorthands.
func SelfTypeFromForeignFn(sig *parser.Signature) (ReceiverBinding, error) {
	span := sig.Span

	if len(sig.Inputs) > 0 {
		arg := sig.Inputs[0]
		span = arg.Pos()

		if len(arg.Attributes()) > 0 {
			return ReceiverBinding{}, &ReceiverError{
				Span: span,
				Msg:  "attributes on the `self:` receiver are not supported",
			}
		}

		if typed, ok := arg.(*parser.TypedArg); ok {
			pat, ok := typed.Pat.(*parser.PatIdent)
			if ok && !pat.Mut && !pat.ByRef && pat.Subpat == nil && pat.Ident.Name == "self" {
				return ReceiverBinding{
					Ident: pat.Ident,
					Type:  parser.Type{Tokens: slices.Clone(typed.Type.Tokens)},
				}, nil
			}
		}
	}

	return ReceiverBinding{}, &ReceiverError{
		Span: span,
		Msg:  "expected first argument to be a `self:` receiver",
	}
}
