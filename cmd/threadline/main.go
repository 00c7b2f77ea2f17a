package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	migrations "github.com/threadlinehq/threadline/db"
	"github.com/threadlinehq/threadline/cmd/threadline/modules"
	"github.com/threadlinehq/threadline/internal/config"
	"github.com/threadlinehq/threadline/internal/db"
	"github.com/threadlinehq/threadline/internal/logger"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		runMigrate(os.Args[2:])
		return
	}

	fx.New(
		modules.InfraModule,
		modules.DomainModule,
		modules.ServerModule,
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func runMigrate(args []string) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	command := "up"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	source, err := fs.Sub(migrations.MigrationsFS, "migrations")
	if err != nil {
		logger.Error("migration source", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.RunMigrate(logger.L, db.DSN(cfg.Postgres), source, command, args); err != nil {
		logger.Error("migrate failed", slog.Any("error", err))
		os.Exit(1)
	}
}
