package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/codetree/internal/indexer"
	"github.com/dshills/codetree/internal/parser"
	"github.com/dshills/codetree/internal/storage"
)

// setupTestServer creates a server over a temp cache and a source tree holding add and mul
func setupTestServer(t *testing.T) (*Server, string) {
	t.Helper()

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.c"), []byte("int add(int a, int b) { return a + b; }\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "b.c"), []byte("int mul(int a, int b) { return add(a,a) * b; }\n"), 0644))

	p := parser.NewRegexParser(parser.DefaultMatchTimeout)
	cache, err := storage.NewMemoryCache(storage.NewSQLiteCache(t.TempDir()), 4)
	require.NoError(t, err)

	idx := indexer.New(indexer.NewScanner(p, nil), cache, nil)
	server, err := NewServer(Config{Indexer: idx, Finder: p, Cache: cache})
	require.NoError(t, err)

	t.Cleanup(func() { _ = cache.Close() })
	return server, src
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// decodeResult unmarshals the JSON text content of a tool result
func decodeResult(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)

	var text string
	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		text = c.Text
	case *mcp.TextContent:
		text = c.Text
	default:
		t.Fatalf("unexpected content type %T", c)
	}

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	return out
}

func requireMCPError(t *testing.T, err error, code int) *MCPError {
	t.Helper()
	var mcpErr *MCPError
	require.True(t, errors.As(err, &mcpErr), "expected MCPError, got %v", err)
	assert.Equal(t, code, mcpErr.Code)
	return mcpErr
}

func TestNewServer(t *testing.T) {
	server, _ := setupTestServer(t)

	assert.NotNil(t, server.mcp, "MCP server should be initialized")
	assert.NotNil(t, server.indexer, "Indexer should be initialized")
	assert.NotNil(t, server.sampler, "Sampler should be initialized")
}

func TestNewServer_MissingComponents(t *testing.T) {
	_, err := NewServer(Config{})
	assert.Error(t, err)

	idx := indexer.New(indexer.NewScanner(parser.NewRegexParser(0), nil), nil, nil)
	_, err = NewServer(Config{Indexer: idx})
	assert.Error(t, err)
}

func TestIndexCodebase(t *testing.T) {
	server, src := setupTestServer(t)
	ctx := context.Background()

	result, err := server.handleIndexCodebase(ctx, callRequest("index_codebase", map[string]interface{}{"path": src}))
	require.NoError(t, err)

	resp := decodeResult(t, result)
	assert.Equal(t, true, resp["indexed"])
	assert.Equal(t, float64(2), resp["functions"])
	assert.Equal(t, false, resp["from_cache"])
	assert.Equal(t, float64(2), resp["files_scanned"])

	result, err = server.handleIndexCodebase(ctx, callRequest("index_codebase", map[string]interface{}{"path": src}))
	require.NoError(t, err)
	assert.Equal(t, true, decodeResult(t, result)["from_cache"])

	result, err = server.handleIndexCodebase(ctx, callRequest("index_codebase", map[string]interface{}{"path": src, "force_rescan": true}))
	require.NoError(t, err)
	assert.Equal(t, false, decodeResult(t, result)["from_cache"])
}

func TestIndexCodebase_InProgress(t *testing.T) {
	server, src := setupTestServer(t)

	require.True(t, server.lock.TryAcquire())
	defer server.lock.Release()

	_, err := server.handleIndexCodebase(context.Background(), callRequest("index_codebase", map[string]interface{}{"path": src}))
	requireMCPError(t, err, ErrorCodeIndexingInProgress)
}

func TestIndexCodebase_NoSources(t *testing.T) {
	server, _ := setupTestServer(t)

	_, err := server.handleIndexCodebase(context.Background(), callRequest("index_codebase", map[string]interface{}{"path": t.TempDir()}))
	requireMCPError(t, err, ErrorCodeNoSources)
	assert.False(t, server.lock.Held(), "lock released after failure")
}

func TestToolParameterValidation(t *testing.T) {
	server, _ := setupTestServer(t)
	ctx := context.Background()

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"index_codebase":   server.handleIndexCodebase,
		"sample_specimens": server.handleSampleSpecimens,
		"get_status":       server.handleGetStatus,
	}

	tests := []struct {
		name string
		args interface{}
	}{
		{"arguments not a map", "oops"},
		{"missing path", map[string]interface{}{}},
		{"empty path", map[string]interface{}{"path": ""}},
		{"relative path", map[string]interface{}{"path": "src"}},
		{"nonexistent path", map[string]interface{}{"path": filepath.Join(t.TempDir(), "missing")}},
	}

	for tool, handler := range handlers {
		for _, tt := range tests {
			t.Run(tool+"/"+tt.name, func(t *testing.T) {
				req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: tool, Arguments: tt.args}}
				_, err := handler(ctx, req)
				requireMCPError(t, err, ErrorCodeInvalidParams)
			})
		}
	}
}

func TestSampleSpecimens(t *testing.T) {
	server, src := setupTestServer(t)
	ctx := context.Background()

	_, err := server.handleSampleSpecimens(ctx, callRequest("sample_specimens", map[string]interface{}{"path": src}))
	requireMCPError(t, err, ErrorCodeNotIndexed)

	_, err = server.handleIndexCodebase(ctx, callRequest("index_codebase", map[string]interface{}{"path": src}))
	require.NoError(t, err)

	result, err := server.handleSampleSpecimens(ctx, callRequest("sample_specimens", map[string]interface{}{
		"path":  src,
		"count": float64(10),
	}))
	require.NoError(t, err)

	resp := decodeResult(t, result)
	assert.Equal(t, float64(2), resp["count"])
	assert.Equal(t, float64(10), resp["requested"])

	specimens, ok := resp["specimens"].([]interface{})
	require.True(t, ok)
	require.Len(t, specimens, 2)

	mul := specimens[1].(map[string]interface{})
	assert.Equal(t, "mul", mul["functionName"])
	called := mul["calledFunctions"].([]interface{})
	require.Len(t, called, 1)
	assert.Equal(t, "add", called[0].(map[string]interface{})["functionName"])
}

func TestSampleSpecimens_Seeded(t *testing.T) {
	server, src := setupTestServer(t)
	ctx := context.Background()

	_, err := server.handleIndexCodebase(ctx, callRequest("index_codebase", map[string]interface{}{"path": src}))
	require.NoError(t, err)

	pick := func() string {
		result, err := server.handleSampleSpecimens(ctx, callRequest("sample_specimens", map[string]interface{}{
			"path":  src,
			"count": float64(1),
			"seed":  float64(99),
		}))
		require.NoError(t, err)
		specimens := decodeResult(t, result)["specimens"].([]interface{})
		require.Len(t, specimens, 1)
		return specimens[0].(map[string]interface{})["functionName"].(string)
	}

	assert.Equal(t, pick(), pick())
}

func TestSampleSpecimens_InvalidParams(t *testing.T) {
	server, src := setupTestServer(t)
	ctx := context.Background()

	for _, args := range []map[string]interface{}{
		{"path": src, "count": float64(0)},
		{"path": src, "count": float64(maxSampleCount + 1)},
		{"path": src, "seed": float64(-1)},
		{"path": src, "seed": "abc"},
	} {
		_, err := server.handleSampleSpecimens(ctx, callRequest("sample_specimens", args))
		requireMCPError(t, err, ErrorCodeInvalidParams)
	}
}

func TestGetStatus(t *testing.T) {
	server, src := setupTestServer(t)
	ctx := context.Background()

	result, err := server.handleGetStatus(ctx, callRequest("get_status", map[string]interface{}{"path": src}))
	require.NoError(t, err)
	assert.Equal(t, false, decodeResult(t, result)["indexed"])

	_, err = server.handleIndexCodebase(ctx, callRequest("index_codebase", map[string]interface{}{"path": src}))
	require.NoError(t, err)

	result, err = server.handleGetStatus(ctx, callRequest("get_status", map[string]interface{}{"path": src}))
	require.NoError(t, err)

	resp := decodeResult(t, result)
	assert.Equal(t, true, resp["indexed"])
	assert.Equal(t, float64(2), resp["functions"])
	assert.Equal(t, float64(2), resp["source_files"])
	assert.Equal(t, false, resp["indexing"])
}

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x.c")
	require.NoError(t, os.WriteFile(file, []byte("int x;\n"), 0644))

	assert.NoError(t, validatePath(dir))
	assert.NoError(t, validatePath(file))
	assert.ErrorIs(t, validatePath(""), ErrPathRequired)
	assert.ErrorIs(t, validatePath("relative/dir"), ErrPathNotAbsolute)
	assert.ErrorIs(t, validatePath(filepath.Join(dir, "missing")), ErrPathNotFound)
}

func TestGetIntDefault(t *testing.T) {
	args := map[string]interface{}{"f": float64(3), "i": 4, "s": "5"}
	assert.Equal(t, 3, getIntDefault(args, "f", 0))
	assert.Equal(t, 4, getIntDefault(args, "i", 0))
	assert.Equal(t, 7, getIntDefault(args, "s", 7))
	assert.Equal(t, 7, getIntDefault(args, "missing", 7))
}
