package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	defaultSampleCount = 5
	maxSampleCount     = 1000
)

// indexCodebaseTool returns the tool definition for index_codebase
func indexCodebaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_codebase",
		Description: "Extract every C function definition under a path and cache the result",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a C source file or a directory of .c/.h files",
				},
				"force_rescan": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, ignore any cached table and scan the sources again",
					"default":     false,
				},
			},
			Required: []string{"path"},
		},
	}
}

// sampleSpecimensTool returns the tool definition for sample_specimens
func sampleSpecimensTool() mcp.Tool {
	return mcp.Tool{
		Name:        "sample_specimens",
		Description: "Pick random functions from an indexed path, each with the source of the functions it calls",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path previously passed to index_codebase",
				},
				"count": map[string]interface{}{
					"type":        "integer",
					"description": "Number of distinct functions to sample",
					"default":     defaultSampleCount,
					"minimum":     1,
					"maximum":     maxSampleCount,
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Optional seed for a reproducible selection",
					"minimum":     0,
				},
			},
			Required: []string{"path"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report whether a path has a cached function table and how many functions it holds",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a C source file or directory",
				},
			},
			Required: []string{"path"},
		},
	}
}
