// Package recorder walks TypeScript syntax trees and records the byte span
// of every function-like construct.
package recorder

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/praetorian-inc/errhunter/pkg/types"
)

// Node types that produce a span of their own.
var functionNodes = map[string]bool{
	"function_declaration":           true,
	"generator_function_declaration": true,
	"function":                       true, // function expression, older grammars
	"function_expression":            true,
	"generator_function":             true,
	"arrow_function":                 true,
	"method_definition":              true, // methods, accessors and constructors
}

// Anonymous function forms that are widened to their variable declaration
// when used directly as an initializer.
var bindableNodes = map[string]bool{
	"arrow_function":      true,
	"function":            true,
	"function_expression": true,
	"generator_function":  true,
}

// Recorder produces function spans for TypeScript and TSX sources.
// It is safe for concurrent use; every call gets its own parser.
type Recorder struct{}

// New creates a Recorder.
func New() *Recorder {
	return &Recorder{}
}

// Supported reports whether path has an extension the recorder can parse.
func Supported(path string) bool {
	if strings.HasSuffix(path, ".d.ts") {
		return false
	}
	switch filepath.Ext(path) {
	case ".ts", ".tsx", ".mts", ".cts":
		return true
	}
	return false
}

// Record parses src and returns the spans of its function-like nodes in
// traversal order. A file without functions yields an empty, non-nil list.
func (r *Recorder) Record(ctx context.Context, path string, src []byte) ([]types.Span, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if filepath.Ext(path) == ".tsx" {
		parser.SetLanguage(tsx.GetLanguage())
	} else {
		parser.SetLanguage(typescript.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	v := &visitor{spans: make([]types.Span, 0)}
	v.walk(tree.RootNode(), nil)
	return v.spans, nil
}

// visitor owns the span list of a single file.
type visitor struct {
	spans []types.Span
}

func (v *visitor) walk(node, parent *sitter.Node) {
	if node == nil {
		return
	}

	// Keyword tokens such as "function" share their type name with the
	// node they introduce; only named nodes are constructs.
	switch {
	case !node.IsNamed():
	case node.Type() == "variable_declarator":
		if value := node.ChildByFieldName("value"); value != nil && value.IsNamed() && bindableNodes[value.Type()] && parent != nil {
			// const name = (...) => {...} is recorded as a unit, covering the
			// whole declaration list from the keyword to the last declarator.
			v.add(parent.StartByte(), declarationEnd(parent))
		}
	case functionNodes[node.Type()]:
		start := node.StartByte()
		if parent != nil && parent.Type() == "export_statement" {
			start = parent.StartByte()
		}
		v.add(start, node.EndByte())
	}

	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		v.walk(node.Child(i), node)
	}
}

// declarationEnd returns the end of the last declarator of decl, which
// excludes the terminating semicolon.
func declarationEnd(decl *sitter.Node) uint32 {
	end := decl.EndByte()
	for i := int(decl.NamedChildCount()) - 1; i >= 0; i-- {
		if child := decl.NamedChild(i); child.Type() == "variable_declarator" {
			return child.EndByte()
		}
	}
	return end
}

func (v *visitor) add(start, end uint32) {
	v.spans = append(v.spans, types.Span{Start: start, End: end})
}
