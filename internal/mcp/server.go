package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/cakevars/internal/indexer"
)

// Server exposes view variable lookups over MCP stdio.
type Server struct {
	service VariableLookup
	watcher *indexer.Watcher
	mcp     *server.MCPServer
}

// NewServer registers every cakevars tool against service. watcher is
// optional; when set it keeps the index current while serving.
func NewServer(service VariableLookup, watcher *indexer.Watcher) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("lookup service is required")
	}

	mcpServer := server.NewMCPServer(
		"cakevars-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	AddViewVariablesTool(mcpServer, service)
	AddVariableExistsTool(mcpServer, service)
	AddViewsForVariableTool(mcpServer, service)

	return &Server{
		service: service,
		watcher: watcher,
		mcp:     mcpServer,
	}, nil
}

// Serve starts the MCP server and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if s.watcher != nil {
		s.watcher.Start(ctx)
		defer s.watcher.Stop()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the watcher if one is running.
func (s *Server) Close() {
	if s.watcher != nil {
		s.watcher.Stop()
	}
}
