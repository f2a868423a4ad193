// Package bridge drives extraction over whole source files: it finds the
// bridge modules, routes their extern blocks through package syntax, and
// collects the result into the IR consumed by the generator.
package bridge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/bridgegen/lexer"
	"github.com/ardanlabs/bridgegen/logger"
	"github.com/ardanlabs/bridgegen/parser"
	"github.com/ardanlabs/bridgegen/syntax"
	"github.com/ardanlabs/bridgegen/token"
)

// Function is a foreign function. Self is nil for free functions.
type Function struct {
	Name  string
	Attrs []parser.Attribute
	Sig   parser.Signature
	Self  *syntax.ReceiverBinding
}

// Block is one extern block with its surviving declarations in source
// order.
type Block struct {
	Abi       string
	Unsafe    bool
	Attrs     []parser.Attribute
	Types     []*parser.TypeDecl
	Functions []Function
	Span      token.Span
}

// Bridge is one bridge module of a source file.
type Bridge struct {
	File   string
	Module string
	Attrs  []parser.Attribute
	Blocks []Block
}

// TypeNames returns every declared foreign type name across blocks.
func (b *Bridge) TypeNames() []string {
	var names []string
	for _, blk := range b.Blocks {
		for _, decl := range blk.Types {
			names = append(names, decl.Ident.Name)
		}
	}
	return names
}

// ExtractFile reads path and extracts its bridges.
func ExtractFile(path string) ([]*Bridge, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Extract(path, string(src))
}

// Extract lexes and parses src and extracts every bridge module in it.
// Modules annotated with a `bridge` attribute, such as `#[cxx_qt::bridge]`,
// are bridges. A file without any is treated as one bridge whose items are
// the file's top level items.
func Extract(filename, src string) ([]*Bridge, error) {
	stream, err := lexer.Lex(filename, src)
	if err != nil {
		return nil, err
	}
	file, err := parser.ParseFile(stream)
	if err != nil {
		return nil, err
	}

	var bridges []*Bridge
	for _, item := range file.Items {
		mod, ok := item.(*parser.ItemMod)
		if !ok || !mod.Inline || !isBridgeModule(mod) {
			continue
		}
		b, err := extractModule(filename, mod.Ident.Name, mod.Attrs, mod.Content)
		if err != nil {
			return nil, err
		}
		bridges = append(bridges, b)
	}

	if len(bridges) == 0 {
		name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
		b, err := extractModule(filename, name, file.Attrs, file.Items)
		if err != nil {
			return nil, err
		}
		bridges = append(bridges, b)
	}

	return bridges, nil
}

func isBridgeModule(mod *parser.ItemMod) bool {
	for _, attr := range mod.Attrs {
		if n := len(attr.Path); n > 0 && attr.Path[n-1].Name == "bridge" {
			return true
		}
	}
	return false
}

func extractModule(filename, name string, attrs []parser.Attribute, items []parser.Item) (*Bridge, error) {
	b := &Bridge{File: filename, Module: name, Attrs: attrs}

	for _, item := range items {
		var mod *parser.ForeignMod

		switch item := item.(type) {
		case *parser.ForeignMod:
			mod = item

		case *parser.ItemVerbatim:
			m, ok, err := syntax.VerbatimToForeignMod(item.Tokens)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			mod = m

		default:
			continue
		}

		blk, err := extractBlock(mod)
		if err != nil {
			return nil, err
		}
		b.Blocks = append(b.Blocks, blk)
	}

	var types, functions int
	for _, blk := range b.Blocks {
		types += len(blk.Types)
		functions += len(blk.Functions)
	}
	logger.LogExtraction(filename, name, types, functions)

	return b, nil
}

func extractBlock(mod *parser.ForeignMod) (Block, error) {
	types, err := syntax.ForeignModToForeignItemTypes(mod)
	if err != nil {
		return Block{}, err
	}

	blk := Block{
		Abi:    mod.Abi.Name,
		Unsafe: mod.Unsafe,
		Attrs:  mod.Attrs,
		Types:  types,
		Span:   mod.Span,
	}

	for _, item := range mod.Items {
		fn, ok := item.(*parser.ForeignFn)
		if !ok {
			continue
		}

		f := Function{Name: fn.Sig.Ident.Name, Attrs: fn.Attrs, Sig: fn.Sig}
		if takesSelf(&fn.Sig) {
			recv, err := syntax.SelfTypeFromForeignFn(&fn.Sig)
			if err != nil {
				return Block{}, err
			}
			f.Self = &recv
		}
		blk.Functions = append(blk.Functions, f)
	}

	return blk, nil
}

// takesSelf reports whether the first parameter is meant as a receiver,
// well formed or not.
func takesSelf(sig *parser.Signature) bool {
	if len(sig.Inputs) == 0 {
		return false
	}
	switch arg := sig.Inputs[0].(type) {
	case *parser.Receiver:
		return true
	case *parser.TypedArg:
		return patternBindsSelf(arg.Pat)
	}
	return false
}

func patternBindsSelf(pat parser.Pattern) bool {
	switch pat := pat.(type) {
	case *parser.PatIdent:
		return pat.Ident.Name == "self" || pat.Subpat != nil && patternBindsSelf(pat.Subpat)
	case *parser.PatRef:
		return patternBindsSelf(pat.Pat)
	case *parser.PatTuple:
		for _, elem := range pat.Elems {
			if patternBindsSelf(elem) {
				return true
			}
		}
	}
	return false
}
