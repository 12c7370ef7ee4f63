package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codetree/pkg/types"
)

const sampleSource = `#include <stdio.h>

/* Adds two numbers. */
int add(int a, int b) { return a + b; }

// Scales a value.
// Second line of the comment.
static int scale(int x)
{
    if (x > 10) {
        return x;
    }
    return x * 2;
}

void reset(void)
{
    counter = 0;
}
`

// adversarialSource makes the comment run ambiguous and never closes the body
func adversarialSource() string {
	return strings.Repeat("/* a */\n", 40) +
		"int f(void) {\n" +
		strings.Repeat("x = 1;\n", 10)
}

func TestNew(t *testing.T) {
	p, err := New(Options{})
	require.NoError(t, err)

	rp, ok := p.(*RegexParser)
	require.True(t, ok, "default engine should be regex")
	assert.Equal(t, DefaultMatchTimeout, rp.Timeout())
}

func TestNew_UnknownEngine(t *testing.T) {
	_, err := New(Options{Engine: "antlr"})
	assert.ErrorIs(t, err, ErrUnknownEngine)
}

func TestNew_CustomTimeout(t *testing.T) {
	p, err := New(Options{Engine: "REGEX", MatchTimeout: 250 * time.Millisecond})
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, p.(*RegexParser).Timeout())
}

func TestExtractFunctions_WellFormed(t *testing.T) {
	p := NewRegexParser(DefaultMatchTimeout)

	funcs, err := p.ExtractFunctions(sampleSource, "/src/sample.c")
	require.NoError(t, err)
	require.Len(t, funcs, 3)

	assert.Equal(t, "add", funcs[0].Name)
	assert.Equal(t, "/* Adds two numbers. */\nint add(int a, int b) { return a + b; }", funcs[0].Body)

	assert.Equal(t, "scale", funcs[1].Name)
	assert.Equal(t, `// Scales a value.
// Second line of the comment.
static int scale(int x)
{
    if (x > 10) {
        return x;
    }
    return x * 2;
}`, funcs[1].Body)

	assert.Equal(t, "reset", funcs[2].Name)
	assert.Equal(t, "void reset(void)\n{\n    counter = 0;\n}", funcs[2].Body)

	for _, fn := range funcs {
		assert.Equal(t, "/src/sample.c", fn.OriginFile)
		assert.NoError(t, fn.Validate())
	}
}

func TestExtractFunctions_DuplicateInFileFirstWins(t *testing.T) {
	p := NewRegexParser(DefaultMatchTimeout)
	src := "int f(void) { return 1; }\nint f(void) { return 2; }\n"

	funcs, err := p.ExtractFunctions(src, "dup.c")
	require.NoError(t, err)
	require.Len(t, funcs, 1)
	assert.Equal(t, "int f(void) { return 1; }", funcs[0].Body)
}

func TestExtractFunctions_NoFunctions(t *testing.T) {
	p := NewRegexParser(DefaultMatchTimeout)

	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"prototypes only", "int add(int a, int b);\nvoid reset(void);\n"},
		{"nested two levels", "int deep(void) { if (a) { if (b) { x(); } } }"},
		{"macros", "#define MAX(a, b) ((a) > (b) ? (a) : (b))\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			funcs, err := p.ExtractFunctions(tt.src, "x.c")
			require.NoError(t, err)
			assert.Empty(t, funcs)
		})
	}
}

func TestExtractFunctions_InvalidUTF8(t *testing.T) {
	p := NewRegexParser(DefaultMatchTimeout)
	src := "/* caf\xff */\nint f(void) { return 0; }\n"

	funcs, err := p.ExtractFunctions(src, "bad.c")
	require.NoError(t, err)
	require.Len(t, funcs, 1)
	assert.Equal(t, "/* caf */\nint f(void) { return 0; }", funcs[0].Body)
}

func TestExtractFunctions_TimeoutYieldsNothing(t *testing.T) {
	p := NewRegexParser(50 * time.Millisecond)

	start := time.Now()
	funcs, err := p.ExtractFunctions(adversarialSource(), "evil.c")
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrExtractionTimeout))
	assert.Contains(t, err.Error(), "evil.c")
	assert.Nil(t, funcs)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestExtractFunctions_TimeoutErrorOmitsSource(t *testing.T) {
	p := NewRegexParser(50 * time.Millisecond)

	src := strings.Repeat("int pad(void) { return 0; }\n", 2000) + adversarialSource()
	_, err := p.ExtractFunctions(src, "big.c")
	require.ErrorIs(t, err, types.ErrExtractionTimeout)

	msg := err.Error()
	assert.Less(t, len(msg), 256, "error text must not carry the input")
	assert.NotContains(t, msg, "/* a */")
	assert.Contains(t, msg, "big.c")
	assert.Contains(t, msg, "50ms")
}

func TestExtractFunctions_ReusableAfterTimeout(t *testing.T) {
	p := NewRegexParser(50 * time.Millisecond)

	_, err := p.ExtractFunctions(adversarialSource(), "evil.c")
	require.Error(t, err)

	funcs, err := p.ExtractFunctions("int ok(void) { return 0; }", "ok.c")
	require.NoError(t, err)
	require.Len(t, funcs, 1)
	assert.Equal(t, "ok", funcs[0].Name)
}

func TestFindCalls(t *testing.T) {
	f := NewRegexCallFinder()

	tests := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "keywords excluded",
			body: "{ if (a) return add(a, a) * b; while (x) {} for (;;) {} switch (y) {} return (z); }",
			want: []string{"add"},
		},
		{
			name: "sizeof excluded",
			body: "{ n = sizeof(int); m = sizeof (long); }",
			want: []string{},
		},
		{
			name: "distinct in first-appearance order",
			body: "{ foo(1); bar (2); foo(3); baz(\n4); }",
			want: []string{"foo", "bar", "baz"},
		},
		{
			name: "macro and cast-like calls are candidates",
			body: "{ MAX(a, b); (size_t)(x); }",
			want: []string{"MAX"},
		},
		{
			name: "no calls",
			body: "{ return a + b; }",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.FindCalls(tt.body))
		})
	}
}

func TestRegexParser_FindCallsDelegates(t *testing.T) {
	p := NewRegexParser(DefaultMatchTimeout)
	assert.Equal(t, []string{"mul", "add"}, p.FindCalls("int mul(int a, int b) { return add(a,a) * b; }"))
}

func TestTrimLeadingBlankLines(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"int f() {}", "int f() {}"},
		{"\n\nint f() {}", "int f() {}"},
		{"\n  \n    int f() {}", "    int f() {}"},
		{"  int f() {}", "  int f() {}"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, trimLeadingBlankLines(tt.in))
	}
}

func TestIsExcludedCall(t *testing.T) {
	for _, kw := range []string{"if", "for", "while", "switch", "return", "sizeof"} {
		assert.True(t, IsExcludedCall(kw), kw)
	}
	assert.False(t, IsExcludedCall("printf"))
}
