package generator

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/bridgegen/bridge"
	"github.com/ardanlabs/bridgegen/parser"
)

// IR is the extracted bridge model in a stable JSON shape. Token runs are
// kept in their canonical rendering.
type IR struct {
	Package string     `json:"package"`
	Library string     `json:"library"`
	Bridges []IRBridge `json:"bridges"`
}

type IRBridge struct {
	File   string    `json:"file"`
	Module string    `json:"module"`
	Blocks []IRBlock `json:"blocks"`
}

type IRBlock struct {
	Abi       string       `json:"abi"`
	Unsafe    bool         `json:"unsafe,omitempty"`
	Attrs     []string     `json:"attrs,omitempty"`
	Position  string       `json:"position"`
	Types     []IRType     `json:"types,omitempty"`
	Functions []IRFunction `json:"functions,omitempty"`
}

type IRType struct {
	Name   string   `json:"name"`
	Handle string   `json:"handle"`
	Attrs  []string `json:"attrs,omitempty"`
	Decl   string   `json:"decl"`
}

type IRFunction struct {
	Name     string   `json:"name"`
	Symbol   string   `json:"symbol"`
	Attrs    []string `json:"attrs,omitempty"`
	SelfType string   `json:"self_type,omitempty"`
	Params   []string `json:"params,omitempty"`
	Returns  string   `json:"returns,omitempty"`
}

// BuildIR converts the extracted bridges into the JSON model.
func (g *Generator) BuildIR() (*IR, error) {
	if err := g.collectHandles(); err != nil {
		return nil, err
	}

	ir := IR{Package: g.packageName, Library: g.libName}
	for _, b := range g.bridges {
		ib := IRBridge{File: b.File, Module: b.Module}
		for _, blk := range b.Blocks {
			ib.Blocks = append(ib.Blocks, g.irBlock(b, blk))
		}
		ir.Bridges = append(ir.Bridges, ib)
	}
	return &ir, nil
}

func (g *Generator) irBlock(b *bridge.Bridge, blk bridge.Block) IRBlock {
	out := IRBlock{
		Abi:      blk.Abi,
		Unsafe:   blk.Unsafe,
		Attrs:    renderAttrs(blk.Attrs),
		Position: blk.Span.Start.String(),
	}

	for _, decl := range blk.Types {
		out.Types = append(out.Types, IRType{
			Name:   decl.Ident.Name,
			Handle: g.handles[decl.Ident.Name],
			Attrs:  renderAttrs(decl.Attrs),
			Decl:   decl.Tokens().String(),
		})
	}

	for _, fn := range blk.Functions {
		f := IRFunction{
			Name:   fn.Name,
			Symbol: g.symbolName(b, fn),
			Attrs:  renderAttrs(fn.Attrs),
		}
		if fn.Self != nil {
			f.SelfType = fn.Self.Type.String()
		}
		for _, p := range g.params(f.Symbol, fn) {
			f.Params = append(f.Params, p.name+" "+p.typ.name)
		}
		if fn.Sig.Output != nil {
			f.Returns = fn.Sig.Output.String()
		}
		out.Functions = append(out.Functions, f)
	}

	return out
}

func renderAttrs(attrs []parser.Attribute) []string {
	var out []string
	for _, a := range attrs {
		out = append(out, a.Tokens.String())
	}
	return out
}

// GenerateIR renders BuildIR as indented JSON.
func (g *Generator) GenerateIR() (string, error) {
	ir, err := g.BuildIR()
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(ir, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding IR: %w", err)
	}
	return string(data) + "\n", nil
}
