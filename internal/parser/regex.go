package parser

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/dshills/codetree/pkg/types"
)

// functionPattern recognises a C function definition with its leading comments.
//
// Parameter lists end at the first ')' and bodies may nest braces one level
// deep. Definitions whose return type is glued to the name (char *f) or whose
// bodies nest deeper are not matched.
const functionPattern = `(?<full>` +
	`^\s*` +
	`(?<comment>(?:/\*.*?\*/\s*|//.*?\n\s*)*)` +
	`(?:static\s+)?` +
	`(?:inline\s+)?` +
	`(?<ret>[a-zA-Z_][a-zA-Z0-9_\*\s]+?)\s+` +
	`(?<name>[a-zA-Z_][a-zA-Z0-9_]*)\s*` +
	`\([^)]*\)\s*` +
	`\{` +
	`(?:[^{}]*(?:\{[^{}]*\}[^{}]*)*)` +
	`\}` +
	`)`

const functionPatternOptions = regexp2.Multiline | regexp2.Singleline

// RegexParser extracts functions with a backtracking pattern and finds calls
// lexically. It is safe for concurrent use.
type RegexParser struct {
	timeout time.Duration
	pool    sync.Pool // *regexp2.Regexp; MatchTimeout is per instance
	calls   *RegexCallFinder
}

// NewRegexParser creates a RegexParser whose per-file budget is timeout
func NewRegexParser(timeout time.Duration) *RegexParser {
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}
	// Compile once up front so a bad pattern fails at construction
	first := regexp2.MustCompile(functionPattern, functionPatternOptions)

	p := &RegexParser{
		timeout: timeout,
		calls:   NewRegexCallFinder(),
	}
	p.pool.New = func() any {
		return regexp2.MustCompile(functionPattern, functionPatternOptions)
	}
	p.pool.Put(first)
	return p
}

// Timeout returns the per-file extraction budget
func (p *RegexParser) Timeout() time.Duration {
	return p.timeout
}

// ExtractFunctions returns every function definition found in source.
//
// The whole file shares one deadline. Each match call runs with the engine's
// MatchTimeout set to the time left, so runaway backtracking is interrupted
// inside the match. When the deadline passes, nothing is returned for the file.
func (p *RegexParser) ExtractFunctions(source, originFile string) ([]types.SourceFunction, error) {
	re := p.pool.Get().(*regexp2.Regexp)
	defer p.pool.Put(re)

	source = strings.ToValidUTF8(source, "")
	deadline := time.Now().Add(p.timeout)

	funcs := make([]types.SourceFunction, 0)
	seen := make(map[string]struct{})

	re.MatchTimeout = p.timeout
	m, err := re.FindStringMatch(source)
	for {
		if err != nil {
			// the engine error quotes the whole input; keep it out of logs and replies
			return nil, fmt.Errorf("%w: %s: no match within %v", types.ErrExtractionTimeout, originFile, p.timeout)
		}
		if m == nil {
			break
		}

		name := m.GroupByName("name").String()
		if _, dup := seen[name]; !dup {
			seen[name] = struct{}{}
			funcs = append(funcs, types.SourceFunction{
				Name:       name,
				Body:       trimLeadingBlankLines(m.GroupByName("full").String()),
				OriginFile: originFile,
			})
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("%w: %s: budget of %v exhausted", types.ErrExtractionTimeout, originFile, p.timeout)
		}
		re.MatchTimeout = remaining
		m, err = re.FindNextMatch(m)
	}

	return funcs, nil
}

// FindCalls delegates to the lexical call finder
func (p *RegexParser) FindCalls(body string) []string {
	return p.calls.FindCalls(body)
}

// trimLeadingBlankLines drops whole blank lines captured before a definition
// while keeping the indentation of its first line.
func trimLeadingBlankLines(s string) string {
	ws := len(s) - len(strings.TrimLeft(s, " \t\r\n\f\v"))
	if i := strings.LastIndexByte(s[:ws], '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
