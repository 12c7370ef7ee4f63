package types

import "errors"

// SourceFunction is a single function definition extracted from a source file.
type SourceFunction struct {
	Name       string // Identifier token of the function
	Body       string // Definition text including any immediately preceding comment block
	OriginFile string // File the definition was extracted from
}

// Validate checks that the function carries a name and a body
func (f *SourceFunction) Validate() error {
	if f.Name == "" {
		return errors.New("function name is required")
	}
	if f.Body == "" {
		return errors.New("function body is required")
	}
	return nil
}

// FunctionTable maps function names to their definitions.
//
// The table remembers insertion order and keeps the first definition seen for
// a name; later definitions with the same name are dropped. A table must not
// be mutated while it is being read.
type FunctionTable struct {
	order []string
	funcs map[string]SourceFunction
}

// NewFunctionTable creates an empty table
func NewFunctionTable() *FunctionTable {
	return &FunctionTable{
		funcs: make(map[string]SourceFunction),
	}
}

// Add inserts fn unless a function with the same name is already present.
// It reports whether fn was inserted.
func (t *FunctionTable) Add(fn SourceFunction) bool {
	if t.funcs == nil {
		t.funcs = make(map[string]SourceFunction)
	}
	if _, exists := t.funcs[fn.Name]; exists {
		return false
	}
	t.funcs[fn.Name] = fn
	t.order = append(t.order, fn.Name)
	return true
}

// Merge adds every function of other in its insertion order and returns the
// number of definitions dropped as duplicates.
func (t *FunctionTable) Merge(other *FunctionTable) int {
	if other == nil {
		return 0
	}
	dropped := 0
	for _, name := range other.order {
		if !t.Add(other.funcs[name]) {
			dropped++
		}
	}
	return dropped
}

// Get returns the function registered under name
func (t *FunctionTable) Get(name string) (SourceFunction, bool) {
	if t == nil {
		return SourceFunction{}, false
	}
	fn, ok := t.funcs[name]
	return fn, ok
}

// Has reports whether name is in the table
func (t *FunctionTable) Has(name string) bool {
	_, ok := t.Get(name)
	return ok
}

// Len returns the number of functions in the table
func (t *FunctionTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Names returns the function names in insertion order
func (t *FunctionTable) Names() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.order))
	copy(names, t.order)
	return names
}

// Functions returns the functions in insertion order
func (t *FunctionTable) Functions() []SourceFunction {
	if t == nil {
		return nil
	}
	funcs := make([]SourceFunction, 0, len(t.order))
	for _, name := range t.order {
		funcs = append(funcs, t.funcs[name])
	}
	return funcs
}

// Equal reports whether both tables hold the same functions in the same order
func (t *FunctionTable) Equal(other *FunctionTable) bool {
	if t.Len() != other.Len() {
		return false
	}
	for i, name := range t.Names() {
		if other.order[i] != name || other.funcs[name] != t.funcs[name] {
			return false
		}
	}
	return true
}
