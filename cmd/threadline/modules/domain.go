package modules

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"

	"github.com/threadlinehq/threadline/internal/config"
	"github.com/threadlinehq/threadline/internal/contacts"
	"github.com/threadlinehq/threadline/internal/gateway"
	"github.com/threadlinehq/threadline/internal/resolve"
	"github.com/threadlinehq/threadline/internal/threads"
)

// DomainModule provides the contact store, thread ledger, gateway client, and
// resolution service.
var DomainModule = fx.Module(
	"domain",
	fx.Provide(
		provideContactStore,
		threads.NewService,
		provideGatewayClient,
		provideResolver,
	),
)

func provideContactStore(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config) *contacts.Service {
	return contacts.NewService(log, pool, cfg.Contacts.CSVPath)
}

func provideGatewayClient(log *slog.Logger, cfg config.Config) *gateway.Client {
	return gateway.NewClient(log, cfg.Gateway)
}

func provideResolver(log *slog.Logger, store *contacts.Service, ledger *threads.Service, gw *gateway.Client) *resolve.Service {
	return resolve.NewService(log, store, ledger, nil, gw)
}
