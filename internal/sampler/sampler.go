// Package sampler draws random functions from a table and attaches the
// functions each one calls.
package sampler

import (
	"math/rand/v2"
	"regexp"
	"sync"

	"github.com/dshills/codetree/internal/parser"
	"github.com/dshills/codetree/pkg/types"
)

// Sampler builds specimens from a function table. It is safe for concurrent use.
type Sampler struct {
	finder parser.CallFinder

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Sampler
type Option func(*Sampler)

// WithSeed makes selection reproducible
func WithSeed(seed uint64) Option {
	return func(s *Sampler) {
		s.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithRand uses r as the source of randomness
func WithRand(r *rand.Rand) Option {
	return func(s *Sampler) {
		if r != nil {
			s.rng = r
		}
	}
}

// New creates a Sampler that discovers calls with finder
func New(finder parser.CallFinder, opts ...Option) *Sampler {
	s := &Sampler{finder: finder}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Sample picks count distinct functions uniformly without replacement and
// resolves their calls against table. When count covers the whole table,
// every function is returned in table order. A nil or empty table, or a
// non-positive count, yields an empty slice.
func (s *Sampler) Sample(table *types.FunctionTable, count int) []types.Specimen {
	n := table.Len()
	if n == 0 || count <= 0 {
		return []types.Specimen{}
	}

	funcs := table.Functions()
	if count >= n {
		specimens := make([]types.Specimen, 0, n)
		for _, fn := range funcs {
			specimens = append(specimens, s.specimen(table, fn))
		}
		return specimens
	}

	s.mu.Lock()
	perm := s.rng.Perm(n)
	s.mu.Unlock()

	specimens := make([]types.Specimen, 0, count)
	for _, i := range perm[:count] {
		specimens = append(specimens, s.specimen(table, funcs[i]))
	}
	return specimens
}

// Pick builds the specimen for the named function
func (s *Sampler) Pick(table *types.FunctionTable, name string) (types.Specimen, bool) {
	fn, ok := table.Get(name)
	if !ok {
		return types.Specimen{}, false
	}
	return s.specimen(table, fn), true
}

// Candidates returns the call names found in fn's body, without fn's own
// declarator unless fn is recursive. Names may be absent from any table.
func (s *Sampler) Candidates(fn types.SourceFunction) []string {
	calls := s.finder.FindCalls(fn.Body)
	out := make([]string, 0, len(calls))
	for _, name := range calls {
		if name == fn.Name && !callsItself(fn) {
			continue
		}
		out = append(out, name)
	}
	return out
}

// Callees resolves the calls in fn's body against table, in call order.
// Names that are not in the table are dropped.
func (s *Sampler) Callees(table *types.FunctionTable, fn types.SourceFunction) []types.CalledFunction {
	called := make([]types.CalledFunction, 0)
	for _, name := range s.Candidates(fn) {
		callee, ok := table.Get(name)
		if !ok {
			continue
		}
		called = append(called, types.CalledFunction{
			FunctionName: callee.Name,
			Source:       callee.Body,
			File:         callee.OriginFile,
		})
	}
	return called
}

func (s *Sampler) specimen(table *types.FunctionTable, fn types.SourceFunction) types.Specimen {
	return types.Specimen{
		FunctionName:    fn.Name,
		Source:          fn.Body,
		File:            fn.OriginFile,
		CalledFunctions: s.Callees(table, fn),
	}
}

// commentPattern matches block and line comments
var commentPattern = regexp.MustCompile(`(?s)/\*.*?\*/|//[^\n]*`)

// callsItself reports whether fn's name is called beyond its own declarator.
// A lexical call finder reports the declarator "name(" as a call, so one
// occurrence is the signature and any further one is recursion. Mentions in
// comments do not count.
func callsItself(fn types.SourceFunction) bool {
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(fn.Name) + `\s*\(`)
	if err != nil {
		return false
	}
	code := commentPattern.ReplaceAllString(fn.Body, " ")
	return len(re.FindAllStringIndex(code, 2)) > 1
}
