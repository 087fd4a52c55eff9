// Command solitaire-mcp serves solitaire games to an MCP client over stdio.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"demoapps/internal/logger"
	"demoapps/internal/mcptools"
)

func main() {
	level := flag.String("log-level", "warn", "log level (logs go to stderr)")
	flag.Parse()

	// stdout carries the protocol; zap's default sinks write to stderr.
	log, err := logger.New(*level, "json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	s := server.NewMCPServer("demoapps-solitaire", "1.0.0", server.WithToolCapabilities(false))
	mcptools.New(log.Named("mcp")).Register(s)

	if err := server.ServeStdio(s); err != nil {
		log.Error("stdio server stopped", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
