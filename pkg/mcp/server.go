// Package mcp exposes the cluster operations as MCP tools over stdio.
package mcp

import (
	"context"
	"fmt"
	stdlog "log"
	"os"

	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"

	"github.com/keaz/kcli/pkg/kafka"
)

// NewServer creates a new MCP server with the broker tools registered.
// Read-only mode leaves out the tools that create topics or produce
// messages.
func NewServer(version string, readOnly bool, cfg *kafka.Config, opts ...server.ServerOption) *server.MCPServer {
	// Add default options
	defaultOpts := []server.ServerOption{
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	}
	opts = append(defaultOpts, opts...)

	s := server.NewMCPServer(
		"kcli",
		version,
		opts...,
	)

	s.AddTool(ListTopicsTool(cfg))
	s.AddTool(TopicOffsetsTool(cfg))
	s.AddTool(DescribeClusterTool(cfg))
	s.AddTool(ListConsumerGroupsTool(cfg))
	s.AddTool(ConsumerGroupLagTool(cfg))
	s.AddTool(ConsumeMessagesTool(cfg))
	if !readOnly {
		s.AddTool(ProduceMessagesTool(cfg))
		s.AddTool(CreateTopicTool(cfg))
	}

	return s
}

// ServeStdio runs the server on stdin/stdout until the context is cancelled
// or the stream ends.
func ServeStdio(ctx context.Context, s *server.MCPServer, logger *log.Logger) error {
	stdioServer := server.NewStdioServer(s)
	stdioServer.SetErrorLogger(stdlog.New(logger.Writer(), "stdioserver", 0))

	errC := make(chan error, 1)
	go func() {
		errC <- stdioServer.Listen(ctx, os.Stdin, os.Stdout)
	}()

	_, _ = fmt.Fprintf(os.Stderr, "kcli MCP server running on stdio\n")

	select {
	case <-ctx.Done():
		logger.Infof("shutting down server...")
	case err := <-errC:
		if err != nil {
			return fmt.Errorf("error running server: %w", err)
		}
	}

	return nil
}
