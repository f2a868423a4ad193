package generator

import (
	"bytes"
	"fmt"
	gotoken "go/token"
	"strings"
	"text/template"
	"unicode"

	"github.com/ardanlabs/bridgegen/bridge"
	"github.com/ardanlabs/bridgegen/parser"
)

type Generator struct {
	packageName string
	libName     string
	bridges     []*bridge.Bridge
	handles     map[string]string
}

func New(packageName, libName string, bridges []*bridge.Bridge) *Generator {
	return &Generator{
		packageName: packageName,
		libName:     libName,
		bridges:     bridges,
	}
}

func (g *Generator) Generate() (map[string]string, error) {
	if err := g.collectHandles(); err != nil {
		return nil, err
	}

	files := make(map[string]string)

	loaderCode, err := g.generateLoader()
	if err != nil {
		return nil, fmt.Errorf("generating loader: %w", err)
	}
	files["loader.go"] = loaderCode

	typesCode, err := g.generateTypes()
	if err != nil {
		return nil, fmt.Errorf("generating types: %w", err)
	}
	files["types.go"] = typesCode

	funcsCode, err := g.generateFunctions()
	if err != nil {
		return nil, fmt.Errorf("generating functions: %w", err)
	}
	files["functions.go"] = funcsCode

	return files, nil
}

// collectHandles maps every foreign type name to its Go handle name and
// rejects clashes between bridges.
func (g *Generator) collectHandles() error {
	g.handles = make(map[string]string)
	seen := make(map[string]string)

	for _, b := range g.bridges {
		for _, name := range b.TypeNames() {
			goName := toGoName(name)
			if prev, ok := seen[goName]; ok {
				return fmt.Errorf("type %s declared in both %s and %s::%s", goName, prev, b.Module, name)
			}
			seen[goName] = b.Module + "::" + name
			g.handles[name] = goName
		}
	}
	return nil
}

func (g *Generator) generateLoader() (string, error) {
	tmpl := `package {{.Package}}

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/jupiterrider/ffi"
)

var lib ffi.Lib

func Load(path string) error {
	var err error
	lib, err = ffi.Load(getLibraryPath(path))
	if err != nil {
		return fmt.Errorf("failed to load library: %w", err)
	}

	if err := loadFuncs(); err != nil {
		return err
	}

	return nil
}

func getLibraryPath(basePath string) string {
	var filename string
	switch runtime.GOOS {
	case "darwin":
		filename = "lib{{.LibName}}.dylib"
	case "windows":
		filename = "{{.LibName}}.dll"
	default:
		filename = "lib{{.LibName}}.so"
	}
	return filepath.Join(basePath, filename)
}
`

	t, err := template.New("loader").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = t.Execute(&buf, map[string]string{
		"Package": g.packageName,
		"LibName": g.libName,
	})
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (g *Generator) generateTypes() (string, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "package %s\n\n", g.packageName)

	for _, b := range g.bridges {
		for _, blk := range b.Blocks {
			blockNamespace := attrValue(blk.Attrs, "namespace")
			for _, decl := range blk.Types {
				goName := g.handles[decl.Ident.Name]
				fmt.Fprintf(&buf, "// %s is an opaque handle to %s::%s (extern %q).\n", goName, b.Module, decl.Ident.Name, blk.Abi)
				namespace := blockNamespace
				if ns := attrValue(decl.Attrs, "namespace"); ns != "" {
					namespace = ns
				}
				if namespace != "" {
					fmt.Fprintf(&buf, "//\n// Namespace: %s\n", namespace)
				}
				fmt.Fprintf(&buf, "type %s uintptr\n\n", goName)
			}
		}
	}

	return buf.String(), nil
}

func (g *Generator) generateFunctions() (string, error) {
	var buf bytes.Buffer

	type entry struct {
		symbol string
		fn     bridge.Function
	}
	var entries []entry
	symbols := make(map[string]bool)
	names := make(map[string]string)
	for _, name := range g.handles {
		names[name] = "type"
	}
	names["Load"] = "loader"

	for _, b := range g.bridges {
		for _, blk := range b.Blocks {
			for _, fn := range blk.Functions {
				symbol := g.symbolName(b, fn)
				if symbols[symbol] {
					return "", fmt.Errorf("duplicate symbol %s", symbol)
				}
				symbols[symbol] = true

				goName := toGoName(fn.Name)
				if recv := g.receiver(fn); recv.handle != "" {
					goName = recv.handle + "." + goName
				}
				if prev, ok := names[goName]; ok {
					return "", fmt.Errorf("%s: Go name %s already used by %s", symbol, goName, prev)
				}
				names[goName] = symbol

				entries = append(entries, entry{symbol: symbol, fn: fn})
			}
		}
	}

	fmt.Fprintf(&buf, "package %s\n\n", g.packageName)

	if len(entries) == 0 {
		fmt.Fprintf(&buf, "func loadFuncs() error {\n")
		fmt.Fprintf(&buf, "\treturn nil\n")
		fmt.Fprintf(&buf, "}\n")
		return buf.String(), nil
	}

	fmt.Fprintf(&buf, "import (\n")
	fmt.Fprintf(&buf, "\t\"fmt\"\n")
	fmt.Fprintf(&buf, "\t\"unsafe\"\n\n")
	fmt.Fprintf(&buf, "\t\"github.com/jupiterrider/ffi\"\n")
	fmt.Fprintf(&buf, ")\n\n")

	fmt.Fprintf(&buf, "var _ = unsafe.Pointer(nil)\n\n")

	fmt.Fprintf(&buf, "var (\n")
	for _, e := range entries {
		fmt.Fprintf(&buf, "\t%s ffi.Fun\n", funcVar(e.symbol))
	}
	fmt.Fprintf(&buf, ")\n\n")

	fmt.Fprintf(&buf, "func loadFuncs() error {\n")
	fmt.Fprintf(&buf, "\tvar err error\n\n")

	for _, e := range entries {
		retFFI := g.mapReturn(e.fn.Sig.Output).ffi

		var argFFIs []string
		if recv := g.receiver(e.fn); recv.handle != "" {
			argFFIs = append(argFFIs, recv.ffi)
		}
		for _, p := range g.params(e.symbol, e.fn) {
			argFFIs = append(argFFIs, p.typ.ffi)
		}

		if len(argFFIs) == 0 {
			fmt.Fprintf(&buf, "\tif %s, err = lib.Prep(\"%s\", %s); err != nil {\n",
				funcVar(e.symbol), e.symbol, retFFI)
		} else {
			fmt.Fprintf(&buf, "\tif %s, err = lib.Prep(\"%s\", %s, %s); err != nil {\n",
				funcVar(e.symbol), e.symbol, retFFI, strings.Join(argFFIs, ", "))
		}
		fmt.Fprintf(&buf, "\t\treturn fmt.Errorf(\"%s: %%w\", err)\n", e.symbol)
		fmt.Fprintf(&buf, "\t}\n\n")
	}

	fmt.Fprintf(&buf, "\treturn nil\n")
	fmt.Fprintf(&buf, "}\n\n")

	for _, e := range entries {
		fmt.Fprintf(&buf, "%s\n", g.generateFunctionWrapper(e.symbol, e.fn))
	}

	return buf.String(), nil
}

func funcVar(symbol string) string {
	return toLowerCamel(symbol) + "Func"
}

// symbolName is the exported C symbol: module_fn for free functions and
// module_Type_fn for methods.
func (g *Generator) symbolName(b *bridge.Bridge, fn bridge.Function) string {
	name := fn.Name
	if cxx := attrValue(fn.Attrs, "cxx_name"); cxx != "" {
		name = cxx
	}
	if recv := g.receiver(fn); recv.handle != "" {
		return b.Module + "_" + recv.handle + "_" + name
	}
	return b.Module + "_" + name
}

// receiver maps the self type of a method. The zero goType is returned for
// free functions.
func (g *Generator) receiver(fn bridge.Function) goType {
	if fn.Self == nil {
		return goType{}
	}
	return g.mapType(fn.Self.Type)
}

type param struct {
	name string
	typ  goType
}

// reserved are names a generated wrapper already uses or needs unshadowed.
var reserved = map[string]bool{
	"self":    true,
	"result":  true,
	"unsafe":  true,
	"ffi":     true,
	"fmt":     true,
	"lib":     true,
	"uintptr": true,
}

func init() {
	for _, p := range primitives {
		reserved[p.name] = true
	}
}

// params lists the Go parameters of fn after its receiver. A method whose
// receiver is not a known handle gets a leading self parameter.
func (g *Generator) params(symbol string, fn bridge.Function) []param {
	var params []param
	inputs := fn.Sig.Inputs
	if fn.Self != nil {
		inputs = inputs[1:]
		if recv := g.receiver(fn); recv.handle == "" {
			params = append(params, param{name: "self", typ: recv})
		}
	}

	used := map[string]bool{funcVar(symbol): true}
	for i, in := range inputs {
		arg, ok := in.(*parser.TypedArg)
		if !ok {
			continue
		}
		name := ""
		if pat, ok := arg.Pat.(*parser.PatIdent); ok {
			name = toLowerCamel(pat.Ident.Name)
		}
		if name == "" {
			name = fmt.Sprintf("arg%d", i)
		}
		for gotoken.IsKeyword(name) || reserved[name] || used[name] {
			name += "_"
		}
		used[name] = true
		params = append(params, param{name: name, typ: g.mapType(arg.Type)})
	}
	return params
}

func (g *Generator) generateFunctionWrapper(symbol string, fn bridge.Function) string {
	var buf bytes.Buffer

	goFuncName := toGoName(fn.Name)
	params := g.params(symbol, fn)

	var decl []string
	for _, p := range params {
		decl = append(decl, fmt.Sprintf("%s %s", p.name, p.typ.name))
	}
	paramsStr := strings.Join(decl, ", ")

	ret := g.mapReturn(fn.Sig.Output)
	hasReturn := !ret.void

	receiver := ""
	if recv := g.receiver(fn); recv.handle != "" {
		receiver = fmt.Sprintf("(self %s) ", recv.handle)
	}

	if hasReturn {
		fmt.Fprintf(&buf, "func %s%s(%s) %s {\n", receiver, goFuncName, paramsStr, ret.name)
		if ret.small {
			fmt.Fprintf(&buf, "\tvar result ffi.Arg\n")
		} else {
			fmt.Fprintf(&buf, "\tvar result %s\n", ret.name)
		}
	} else {
		fmt.Fprintf(&buf, "func %s%s(%s) {\n", receiver, goFuncName, paramsStr)
	}

	var callArgs []string
	if hasReturn {
		callArgs = append(callArgs, "unsafe.Pointer(&result)")
	} else {
		callArgs = append(callArgs, "nil")
	}
	if receiver != "" {
		callArgs = append(callArgs, "unsafe.Pointer(&self)")
	}
	for _, p := range params {
		callArgs = append(callArgs, fmt.Sprintf("unsafe.Pointer(&%s)", p.name))
	}

	fmt.Fprintf(&buf, "\t%s.Call(%s)\n", funcVar(symbol), strings.Join(callArgs, ", "))

	if hasReturn {
		switch {
		case ret.small && ret.name == "bool":
			fmt.Fprintf(&buf, "\treturn result.Bool()\n")
		case ret.small:
			fmt.Fprintf(&buf, "\treturn %s(result)\n", ret.name)
		default:
			fmt.Fprintf(&buf, "\treturn result\n")
		}
	}

	fmt.Fprintf(&buf, "}\n")

	return buf.String()
}

func attrValue(attrs []parser.Attribute, path string) string {
	for _, a := range attrs {
		if a.PathString() != path {
			continue
		}
		if v, ok := a.Value(); ok {
			return v
		}
	}
	return ""
}

func toGoName(name string) string {
	if name == "" {
		return ""
	}

	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_'
	})

	var result strings.Builder
	for _, part := range parts {
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		result.WriteString(string(runes))
	}

	return result.String()
}

func toLowerCamel(name string) string {
	goName := toGoName(name)
	if goName == "" {
		return ""
	}
	runes := []rune(goName)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}
