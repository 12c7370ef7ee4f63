//go:build !cgo

package parser

import (
	"time"

	"github.com/dshills/codetree/pkg/types"
)

// TreeSitterParser is unavailable without cgo
type TreeSitterParser struct{}

// NewTreeSitterParser returns ErrEngineUnavailable in builds without cgo
func NewTreeSitterParser(timeout time.Duration) (*TreeSitterParser, error) {
	return nil, ErrEngineUnavailable
}

// ExtractFunctions always fails in builds without cgo
func (p *TreeSitterParser) ExtractFunctions(source, originFile string) ([]types.SourceFunction, error) {
	return nil, ErrEngineUnavailable
}

// FindCalls finds nothing in builds without cgo
func (p *TreeSitterParser) FindCalls(body string) []string {
	return nil
}
