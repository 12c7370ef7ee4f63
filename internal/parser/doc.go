// Package parser extracts C function definitions and candidate calls from source text.
//
// Two engines implement the Parser interface. The default regex engine applies a
// heuristic pattern; the tree-sitter engine (cgo builds only) walks a real C
// syntax tree. Callers depend on the Extractor and CallFinder interfaces, so the
// engine can be swapped through configuration.
//
// # Basic Usage
//
//	p, err := parser.New(parser.Options{MatchTimeout: time.Second})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	funcs, err := p.ExtractFunctions(string(content), "/src/util.c")
//	if errors.Is(err, types.ErrExtractionTimeout) {
//	    // the file is skipped, not the scan
//	}
//
//	for _, fn := range funcs {
//	    fmt.Println(fn.Name, p.FindCalls(fn.Body))
//	}
//
// # Regex Engine
//
// A definition is recognised as:
//   - zero or more block or line comments directly above it
//   - optional static and inline qualifiers
//   - a return type, the function name, and a parameter list up to the first ')'
//   - a brace-delimited body with at most one level of nested braces
//
// This is deliberately a heuristic. Macros, preprocessor conditionals and
// deeper nesting are not understood, and false matches are tolerated.
//
// # Time Budget
//
// The pattern backtracks and can blow up on malformed input, such as a long run
// of comments followed by a body that never closes. Every file is therefore
// matched under a wall-clock budget enforced inside the regex engine. When the
// budget runs out the file yields no functions and ErrExtractionTimeout.
//
// # Call Discovery
//
// FindCalls reports identifiers directly followed by '(' except if, for, while,
// switch, return and sizeof. Results are candidates only: callers resolve them
// against the function table and drop the rest.
package parser
