package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/codetree/pkg/types"
)

// DefaultMatchTimeout bounds extraction of a single file
const DefaultMatchTimeout = time.Second

// Engine names a parsing backend
type Engine string

const (
	EngineRegex      Engine = "regex"
	EngineTreeSitter Engine = "treesitter"
)

var (
	// ErrUnknownEngine is returned by New for an unrecognised engine name
	ErrUnknownEngine = errors.New("unknown parser engine")
	// ErrEngineUnavailable is returned when an engine is not compiled into this build
	ErrEngineUnavailable = errors.New("parser engine unavailable in this build")
)

// Extractor finds function definitions in the text of one source file.
//
// Implementations return ErrExtractionTimeout (wrapped) together with a nil
// slice when the file could not be processed within the time budget.
type Extractor interface {
	ExtractFunctions(source, originFile string) ([]types.SourceFunction, error)
}

// CallFinder lists the candidate callee names in a function body.
// Names are distinct and ordered by first appearance.
type CallFinder interface {
	FindCalls(body string) []string
}

// Parser combines function extraction and call discovery
type Parser interface {
	Extractor
	CallFinder
}

// Options configures New
type Options struct {
	Engine       Engine        // Backend to use (default: regex)
	MatchTimeout time.Duration // Per-file extraction budget (default: 1s)
}

// New creates the Parser selected by opts
func New(opts Options) (Parser, error) {
	if opts.MatchTimeout <= 0 {
		opts.MatchTimeout = DefaultMatchTimeout
	}

	switch Engine(strings.ToLower(string(opts.Engine))) {
	case "", EngineRegex:
		return NewRegexParser(opts.MatchTimeout), nil
	case EngineTreeSitter:
		p, err := NewTreeSitterParser(opts.MatchTimeout)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, opts.Engine)
	}
}

// excludedCalls are control-flow keywords that look like calls
var excludedCalls = map[string]struct{}{
	"if":     {},
	"for":    {},
	"while":  {},
	"switch": {},
	"return": {},
	"sizeof": {},
}

// IsExcludedCall reports whether name is a keyword rather than a callee
func IsExcludedCall(name string) bool {
	_, ok := excludedCalls[name]
	return ok
}
