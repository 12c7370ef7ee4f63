package mcp

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/codetree/internal/indexer"
	"github.com/dshills/codetree/internal/logging"
	"github.com/dshills/codetree/internal/parser"
	"github.com/dshills/codetree/internal/sampler"
	"github.com/dshills/codetree/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "codetree"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Config holds the components a Server exposes as tools
type Config struct {
	Indexer *indexer.Indexer
	Finder  parser.CallFinder
	Cache   storage.Cache // Closed when the server stops; may be nil
	Logger  *slog.Logger
}

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	indexer *indexer.Indexer
	finder  parser.CallFinder
	sampler *sampler.Sampler
	cache   storage.Cache
	lock    indexer.IndexLock
	logger  *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(config Config) (*Server, error) {
	if config.Indexer == nil {
		return nil, errors.New("indexer is required")
	}
	if config.Finder == nil {
		return nil, errors.New("call finder is required")
	}

	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion),
		indexer: config.Indexer,
		finder:  config.Finder,
		sampler: sampler.New(config.Finder),
		cache:   config.Cache,
		logger:  logging.OrDiscard(config.Logger),
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		if s.cache != nil {
			_ = s.cache.Close()
		}
	}()

	s.logger.Info("serving MCP over stdio", "name", ServerName, "version", ServerVersion)
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexCodebaseTool(), s.handleIndexCodebase)
	s.mcp.AddTool(sampleSpecimensTool(), s.handleSampleSpecimens)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
