package generator

import (
	"github.com/ardanlabs/bridgegen/parser"
	"github.com/ardanlabs/bridgegen/token"
)

// goType is how a bridge type crosses the FFI boundary.
type goType struct {
	name   string // Go spelling
	ffi    string // libffi type descriptor
	handle string // set when the type is a declared foreign type
	void   bool
	small  bool // returned through an ffi.Arg slot
}

var primitives = map[string]goType{
	"bool":  {name: "bool", ffi: "&ffi.TypeUint8", small: true},
	"i8":    {name: "int8", ffi: "&ffi.TypeSint8", small: true},
	"u8":    {name: "uint8", ffi: "&ffi.TypeUint8", small: true},
	"i16":   {name: "int16", ffi: "&ffi.TypeSint16", small: true},
	"u16":   {name: "uint16", ffi: "&ffi.TypeUint16", small: true},
	"i32":   {name: "int32", ffi: "&ffi.TypeSint32", small: true},
	"u32":   {name: "uint32", ffi: "&ffi.TypeUint32", small: true},
	"i64":   {name: "int64", ffi: "&ffi.TypeSint64"},
	"u64":   {name: "uint64", ffi: "&ffi.TypeUint64"},
	"isize": {name: "int64", ffi: "&ffi.TypeSint64"},
	"usize": {name: "uint64", ffi: "&ffi.TypeUint64"},
	"f32":   {name: "float32", ffi: "&ffi.TypeFloat"},
	"f64":   {name: "float64", ffi: "&ffi.TypeDouble"},
}

var opaque = goType{name: "uintptr", ffi: "&ffi.TypePointer"}

func (g *Generator) mapReturn(ty *parser.Type) goType {
	if ty == nil {
		return goType{ffi: "&ffi.TypeVoid", void: true}
	}
	return g.mapType(*ty)
}

// mapType resolves a written type. References, raw pointers and Pin
// wrappers around a declared foreign type become its handle; anything
// else that is not a primitive travels as an untyped pointer.
func (g *Generator) mapType(ty parser.Type) goType {
	tokens, indirect := stripIndirection(ty.Tokens)

	if len(tokens) == 1 && tokens[0].IsGroup(token.Paren) && len(tokens[0].Inner) == 0 {
		return goType{ffi: "&ffi.TypeVoid", void: true}
	}

	name, ok := pathName(tokens)
	if !ok {
		return opaque
	}
	if handle, ok := g.handles[name]; ok {
		return goType{name: handle, ffi: "&ffi.TypePointer", handle: handle}
	}
	if indirect {
		return opaque
	}
	if p, ok := primitives[name]; ok {
		return p
	}
	return opaque
}

// stripIndirection removes leading `&'a mut`, `*const`, `*mut` and a
// `Pin<..>` wrapper.
func stripIndirection(tokens token.Stream) (token.Stream, bool) {
	indirect := false
	for len(tokens) > 0 {
		switch {
		case tokens[0].IsPunct('&'):
			indirect = true
			tokens = tokens[1:]
			if len(tokens) > 1 && tokens[0].IsPunct('\'') {
				tokens = tokens[2:]
			}
			if len(tokens) > 0 && tokens[0].IsIdent("mut") {
				tokens = tokens[1:]
			}

		case tokens[0].IsPunct('*'):
			indirect = true
			tokens = tokens[1:]
			if len(tokens) > 0 && (tokens[0].IsIdent("mut") || tokens[0].IsIdent("const")) {
				tokens = tokens[1:]
			}

		case len(tokens) > 3 && tokens[0].IsIdent("Pin") && tokens[1].IsPunct('<') && tokens[len(tokens)-1].IsPunct('>'):
			indirect = true
			tokens = tokens[2 : len(tokens)-1]

		default:
			return tokens, indirect
		}
	}
	return tokens, indirect
}

// pathName returns the last segment of a plain path such as
// `super::qobject::T`.
func pathName(tokens token.Stream) (string, bool) {
	if len(tokens) == 0 {
		return "", false
	}
	name := ""
	for i := 0; i < len(tokens); {
		t := tokens[i]
		if t.Kind != token.Ident {
			return "", false
		}
		name = t.Text
		i++
		if i == len(tokens) {
			break
		}
		if i+1 >= len(tokens) || !tokens[i].IsPunct(':') || !tokens[i+1].IsPunct(':') {
			return "", false
		}
		i += 2
	}
	return name, true
}
