package modules

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"go.uber.org/fx"

	migrations "github.com/threadlinehq/threadline/db"
	"github.com/threadlinehq/threadline/internal/config"
	"github.com/threadlinehq/threadline/internal/contacts"
	"github.com/threadlinehq/threadline/internal/db"
	"github.com/threadlinehq/threadline/internal/handlers"
	"github.com/threadlinehq/threadline/internal/resolve"
	"github.com/threadlinehq/threadline/internal/server"
	"github.com/threadlinehq/threadline/internal/threads"
	"github.com/threadlinehq/threadline/internal/version"
)

// ServerModule provides the HTTP handlers and server, and starts them.
var ServerModule = fx.Module(
	"server",
	fx.Provide(
		provideServerHandler(handlers.NewPingHandler),
		provideServerHandler(provideCommandHandler),
		provideServerHandler(provideIncomingHandler),
		provideServerHandler(provideThreadsHandler),
		provideServer,
	),
	fx.Invoke(startServer),
)

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideCommandHandler(log *slog.Logger, resolver *resolve.Service) *handlers.CommandHandler {
	return handlers.NewCommandHandler(log, resolver)
}

func provideIncomingHandler(log *slog.Logger, resolver *resolve.Service) *handlers.IncomingHandler {
	return handlers.NewIncomingHandler(log, resolver)
}

func provideThreadsHandler(log *slog.Logger, ledger *threads.Service) *handlers.ThreadsHandler {
	return handlers.NewThreadsHandler(log, ledger)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.ServerHandlers...)
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, cfg config.Config, store *contacts.Service) {
	fmt.Printf("Starting Threadline %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := applyMigrations(logger, cfg); err != nil {
				return err
			}
			// Soft outcomes (already populated, source missing) are logged by the store.
			if _, err := store.BulkLoad(ctx); err != nil {
				return fmt.Errorf("contact bulk load: %w", err)
			}

			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

func applyMigrations(logger *slog.Logger, cfg config.Config) error {
	source, err := fs.Sub(migrations.MigrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	return db.RunMigrate(logger, db.DSN(cfg.Postgres), source, "up", nil)
}
