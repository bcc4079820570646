// Command contract-mcp serves the contract tools over the Model Context Protocol.
// stdio is the default transport, so all logs go to stderr.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/ContractIntelAPI/internal/app"
	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/mcpServer"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
)

func main() {
	httpAddr := flag.String("http", "", "serve streamable HTTP on this address instead of stdio")
	flag.Parse()

	settings := config.Load()
	logger_i.InitWithWriter(os.Stderr, settings.IsProd)
	logger := logger_i.NewLogger("mcp_main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := app.Build(ctx, settings)
	if err != nil {
		logger.Error("One or more services failed to initialize. Shutting down.", "error", err)
		os.Exit(1)
	}
	defer services.Close()
	services.Start(ctx)

	srv, err := mcpServer.NewServer(services.MCPPorts())
	if err != nil {
		logger.Error("Could not create MCP server", "error", err)
		os.Exit(1)
	}

	if *httpAddr != "" {
		err = srv.RunHTTP(ctx, *httpAddr)
	} else {
		err = srv.Run(ctx)
	}
	if err != nil && ctx.Err() == nil {
		logger.Error("MCP server stopped", "error", err)
	}

	close(services.WorkerStop())
	services.Workers().Wait()
	logger.Info("MCP server stopped")
}
