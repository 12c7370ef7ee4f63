//go:build cgo

package parser

import (
	"context"
	"fmt"
	"strings"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"

	"github.com/dshills/codetree/pkg/types"
)

// TreeSitterParser extracts functions from a real C syntax tree. Unlike the
// regex engine it handles any brace depth, pointer return types and
// definitions inside preprocessor blocks.
type TreeSitterParser struct {
	timeout time.Duration
	lang    *sitter.Language
}

// NewTreeSitterParser creates a TreeSitterParser with a per-file parse budget
func NewTreeSitterParser(timeout time.Duration) (*TreeSitterParser, error) {
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}
	return &TreeSitterParser{
		timeout: timeout,
		lang:    c.GetLanguage(),
	}, nil
}

// parse builds a syntax tree for src within the time budget
func (p *TreeSitterParser) parse(src []byte) (*sitter.Node, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	// sitter.Parser is not safe for concurrent use
	ts := sitter.NewParser()
	ts.SetLanguage(p.lang)

	tree, err := ts.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	return tree.RootNode(), nil
}

// ExtractFunctions returns every function_definition in source
func (p *TreeSitterParser) ExtractFunctions(source, originFile string) ([]types.SourceFunction, error) {
	src := []byte(strings.ToValidUTF8(source, ""))

	root, err := p.parse(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: no parse within %v", types.ErrExtractionTimeout, originFile, p.timeout)
	}

	funcs := make([]types.SourceFunction, 0)
	seen := make(map[string]struct{})

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() != "function_definition" {
				walk(child)
				continue
			}

			name := declaratorName(child.ChildByFieldName("declarator"), src)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}

			start := leadingCommentStart(child, src)
			funcs = append(funcs, types.SourceFunction{
				Name:       name,
				Body:       string(src[start:child.EndByte()]),
				OriginFile: originFile,
			})
		}
	}
	walk(root)

	return funcs, nil
}

// FindCalls returns the identifiers called directly in body
func (p *TreeSitterParser) FindCalls(body string) []string {
	src := []byte(body)
	root, err := p.parse(src)
	if err != nil {
		return nil
	}

	calls := make([]string, 0)
	seen := make(map[string]struct{})

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "call_expression" {
			fn := n.ChildByFieldName("function")
			if fn != nil && fn.Type() == "identifier" {
				name := fn.Content(src)
				if _, dup := seen[name]; !dup && !IsExcludedCall(name) {
					seen[name] = struct{}{}
					calls = append(calls, name)
				}
			}
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)

	return calls
}

// declaratorName follows nested declarators down to the function identifier
func declaratorName(n *sitter.Node, src []byte) string {
	for n != nil {
		switch n.Type() {
		case "identifier":
			return n.Content(src)
		case "function_declarator", "pointer_declarator", "attributed_declarator":
			n = n.ChildByFieldName("declarator")
		case "parenthesized_declarator":
			if n.NamedChildCount() == 0 {
				return ""
			}
			n = n.NamedChild(0)
		default:
			return ""
		}
	}
	return ""
}

// leadingCommentStart returns the offset of the first comment in the run of
// comments directly above n, or n's own start when there is none.
func leadingCommentStart(n *sitter.Node, src []byte) uint32 {
	start := n.StartByte()
	for prev := n.PrevSibling(); prev != nil && prev.Type() == "comment"; prev = prev.PrevSibling() {
		if strings.TrimSpace(string(src[prev.EndByte():start])) != "" {
			break
		}
		start = prev.StartByte()
	}
	return start
}
