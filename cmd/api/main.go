// @title           Contract Intelligence API
// @version         1.0
// @description     Ingests contract PDFs, extracts structured fields, answers questions with citations and audits risky clauses.
// @termsOfService  http://swagger.io/terms/

// @contact.name    API Support
// @contact.url
// @contact.email

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https

// local dependencies:
//   docker run -p 6379:6379 -d redis
//   docker run -p 6333:6333 -p 6334:6334 -v contractVectors:/qdrant/storage qdrant/qdrant

//go:generate swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ../../ --output ./docs
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/akolanti/ContractIntelAPI/internal/adapter/utils"
	"github.com/akolanti/ContractIntelAPI/internal/app"
	"github.com/akolanti/ContractIntelAPI/internal/config"
	"github.com/akolanti/ContractIntelAPI/internal/middleware"
	"github.com/akolanti/ContractIntelAPI/internal/server"
	"github.com/akolanti/ContractIntelAPI/pkg/logger_i"
)

func main() {
	settings := config.Load()
	logger_i.Init(settings.IsProd)
	logger := logger_i.NewLogger("main")

	listenAddr := flag.String("listen-addr", settings.ListenAddr, "server listen address")
	flag.Parse()

	serviceContext, closeExternalServices := context.WithCancel(context.Background())
	defer closeExternalServices()

	services, err := app.Build(serviceContext, settings)
	if err != nil {
		logger.Error("One or more services failed to initialize. Shutting down.", "error", err)
		os.Exit(1)
	}

	services.Start(serviceContext)
	middleware.StartLimiterJanitor(serviceContext, config.IdleWorkerTimeout)

	// swagger stays off in production
	r := utils.NewRouter(utils.RouterOptions{Docs: !settings.IsProd, Metrics: true})
	server.RegisterRoutes(r, services.Handler())
	srv := server.NewHTTPServer(*listenAddr, r)
	go server.Serve(srv)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	err = server.ShutDownHandler(srv, server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		WorkerStop:       services.WorkerStop(),
		Group:            services.Workers(),
		CloseServices:    closeExternalServices,
	})
	services.Close()
	if err != nil {
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
