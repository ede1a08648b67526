package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/davidbz/streambench/internal/app"
	"github.com/davidbz/streambench/internal/config"
	"github.com/davidbz/streambench/internal/http"
	ledger "github.com/davidbz/streambench/internal/ledger/redis"
	"github.com/davidbz/streambench/internal/observability"
)

func main() {
	container, err := app.NewContainer()
	if err != nil {
		log.Fatalf("Failed to build container: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = container.Invoke(func(
		server *http.Server,
		serverConfig *config.ServerConfig,
		logger *zap.Logger,
		usageLedger *ledger.Ledger,
	) error {
		defer func() { _ = logger.Sync() }()

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(serverConfig.ShutdownTimeout)*time.Second)
		defer cancel()

		shutdownErr := server.Shutdown(shutdownCtx)
		if usageLedger != nil {
			if err := usageLedger.Close(); err != nil {
				observability.FromContext(shutdownCtx).Warn("failed to close ledger", observability.Error(err))
			}
		}

		return errors.Join(shutdownErr, <-errCh)
	})
	if err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
