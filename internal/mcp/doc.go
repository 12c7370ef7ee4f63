// Package mcp implements the Model Context Protocol (MCP) server for codetree.
//
// The server exposes three tools:
//   - index_codebase: Extract and cache the functions under a path
//   - sample_specimens: Draw random functions with their resolved callees
//   - get_status: Report whether a path is cached
//
// # Protocol Overview
//
// MCP is JSON-RPC 2.0 over stdio. Stdout carries protocol messages only, so
// all logging goes to stderr.
//
//	codetree serve
//
// # Tool: index_codebase
//
//	Request:
//	{
//	  "name": "index_codebase",
//	  "arguments": {"path": "/src/project", "force_rescan": false}
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "functions": 1234,
//	  "from_cache": false,
//	  "files_scanned": 87,
//	  "files_timed_out": 1,
//	  "duration_ms": 912
//	}
//
// Only one index_codebase call runs at a time; a concurrent call fails with
// code -32002 instead of waiting.
//
// # Tool: sample_specimens
//
//	Request:
//	{
//	  "name": "sample_specimens",
//	  "arguments": {"path": "/src/project", "count": 3, "seed": 7}
//	}
//
// The response carries a "specimens" array whose entries use the field names
// functionName, source, file and calledFunctions. The path must have been
// indexed first (code -32003 otherwise).
//
// # Error Codes
//
//	-32602  invalid parameters
//	-32603  internal error
//	-32001  no C sources under the path
//	-32002  indexing already in progress
//	-32003  path not indexed
package mcp
