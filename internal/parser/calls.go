package parser

import "regexp"

// callPattern matches an identifier followed by an opening parenthesis
var callPattern = regexp.MustCompile(`\b([a-zA-Z_][a-zA-Z0-9_]*)\s*\(`)

// RegexCallFinder finds candidate calls lexically. Macro invocations and
// call-styled casts are reported too; calls through pointers are missed.
type RegexCallFinder struct {
	pattern *regexp.Regexp
}

// NewRegexCallFinder creates a RegexCallFinder
func NewRegexCallFinder() *RegexCallFinder {
	return &RegexCallFinder{pattern: callPattern}
}

// FindCalls returns the distinct candidate callee names in body
func (f *RegexCallFinder) FindCalls(body string) []string {
	matches := f.pattern.FindAllStringSubmatch(body, -1)

	calls := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		name := m[1]
		if IsExcludedCall(name) {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		calls = append(calls, name)
	}
	return calls
}
