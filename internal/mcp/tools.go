package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/codetree/internal/indexer"
	"github.com/dshills/codetree/internal/sampler"
	"github.com/dshills/codetree/internal/storage"
	"github.com/dshills/codetree/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeNoSources          = -32001 // Path holds no C sources
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed         = -32003 // Path not indexed
)

// maxReportedErrors caps per-file error messages in a response
const maxReportedErrors = 5

// handleIndexCodebase handles the index_codebase tool invocation
func (s *Server) handleIndexCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, path, err := pathArgs(request)
	if err != nil {
		return nil, err
	}

	forceRescan := getBoolDefault(args, "force_rescan", false)

	if !s.lock.TryAcquire() {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "indexing already in progress", map[string]interface{}{
			"path": path,
		})
	}
	defer s.lock.Release()

	result, err := s.indexer.Load(ctx, path, indexer.LoadOptions{ForceRescan: forceRescan})
	if err != nil {
		if errors.Is(err, types.ErrNoSourceFiles) || errors.Is(err, types.ErrInvalidPath) {
			return nil, newMCPError(ErrorCodeNoSources, "no C sources found", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":     true,
		"path":        path,
		"functions":   result.Table.Len(),
		"from_cache":  result.FromCache,
		"cache_key":   result.Key,
		"duration_ms": result.Duration.Milliseconds(),
	}

	if stats := result.Stats; stats != nil {
		response["files_scanned"] = stats.FilesScanned
		response["files_failed"] = stats.FilesFailed
		response["files_timed_out"] = stats.FilesTimedOut
		response["duplicates_dropped"] = stats.DuplicatesDropped

		if errorCount := len(stats.ErrorMessages); errorCount > 0 {
			if errorCount > maxReportedErrors {
				response["errors"] = stats.ErrorMessages[:maxReportedErrors]
				response["error_count"] = errorCount
			} else {
				response["errors"] = stats.ErrorMessages
			}
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSampleSpecimens handles the sample_specimens tool invocation
func (s *Server) handleSampleSpecimens(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, path, err := pathArgs(request)
	if err != nil {
		return nil, err
	}

	count := getIntDefault(args, "count", defaultSampleCount)
	if count < 1 || count > maxSampleCount {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("count must be between 1 and %d", maxSampleCount), map[string]interface{}{
			"param": "count",
			"value": count,
		})
	}

	smp := s.sampler
	if _, ok := args["seed"]; ok {
		seed := getIntDefault(args, "seed", -1)
		if seed < 0 {
			return nil, newMCPError(ErrorCodeInvalidParams, "seed must be a non-negative integer", map[string]interface{}{
				"param": "seed",
				"value": args["seed"],
			})
		}
		smp = sampler.New(s.finder, sampler.WithSeed(uint64(seed)))
	}

	table, err := s.lookup(ctx, path)
	if err != nil {
		return nil, err
	}

	specimens := smp.Sample(table, count)
	response := map[string]interface{}{
		"path":      path,
		"requested": count,
		"count":     len(specimens),
		"specimens": specimens,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, path, err := pathArgs(request)
	if err != nil {
		return nil, err
	}

	table, key, err := s.indexer.Lookup(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		response := map[string]interface{}{
			"indexed": false,
			"path":    path,
			"message": "Path not indexed. Use index_codebase tool to index it.",
		}
		return mcp.NewToolResultText(formatJSON(response)), nil
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read cache", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"indexed":      true,
		"path":         path,
		"cache_key":    key,
		"functions":    table.Len(),
		"indexing":     s.lock.Held(),
		"source_files": countFiles(table),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// lookup returns the cached table for path or a not-indexed error
func (s *Server) lookup(ctx context.Context, path string) (*types.FunctionTable, error) {
	table, _, err := s.indexer.Lookup(ctx, path)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeNotIndexed, "path not indexed", map[string]interface{}{
			"path": path,
			"hint": "call index_codebase first",
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return table, nil
}

// Helper functions

// pathArgs extracts the arguments map and its validated path parameter
func pathArgs(request mcp.CallToolRequest) (map[string]interface{}, string, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, "", newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return nil, "", newMCPError(ErrorCodeInvalidParams, "path parameter is required", map[string]interface{}{
			"param":  "path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(path); err != nil {
		return nil, "", newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
			"param":  "path",
			"reason": err.Error(),
		})
	}

	return args, filepath.Clean(path), nil
}

// countFiles returns the number of distinct files contributing to table
func countFiles(table *types.FunctionTable) int {
	files := make(map[string]struct{})
	for _, fn := range table.Functions() {
		files[fn.OriginFile] = struct{}{}
	}
	return len(files)
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks if a path exists and is accessible
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() && !info.Mode().IsRegular() {
		return ErrNotFileOrDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired       = errors.New("path is required")
	ErrPathNotAbsolute    = errors.New("path must be absolute")
	ErrPathNotFound       = errors.New("path does not exist")
	ErrPathNotReadable    = errors.New("path is not readable")
	ErrNotFileOrDirectory = errors.New("path is neither a file nor a directory")
)
