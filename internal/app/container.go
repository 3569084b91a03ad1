// Package app is the composition root: it wires configuration, the auth
// backend, the widget store and the HTTP server together.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nfrund/yauth/internal/authevents"
	"github.com/nfrund/yauth/internal/authflow"
	"github.com/nfrund/yauth/internal/config"
	"github.com/nfrund/yauth/internal/database"
	"github.com/nfrund/yauth/internal/domain"
	"github.com/nfrund/yauth/internal/email"
	"github.com/nfrund/yauth/internal/pubsub"
	"github.com/nfrund/yauth/internal/rendering"
	"github.com/nfrund/yauth/internal/server"
	"github.com/nfrund/yauth/internal/transport"
	"github.com/nfrund/yauth/internal/widget"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"
)

// Option customizes the container before services are resolved.
type Option func(i do.Injector)

// WithFs replaces the filesystem used by the file user store.
func WithFs(fs afero.Fs) Option {
	return func(i do.Injector) { do.OverrideValue(i, fs) }
}

// WithTransport replaces the auth backend transport.
func WithTransport(t authflow.Transport) Option {
	return func(i do.Injector) { do.OverrideValue(i, t) }
}

// NewContainer registers every application service. Services are built
// lazily on first use.
func NewContainer(cfg config.Provider, logger *slog.Logger, opts ...Option) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue[afero.Fs](injector, afero.NewOsFs())

	do.Provide(injector, provideBus)
	do.Provide(injector, provideEmailSender)
	do.Provide(injector, provideUserRepository)
	do.Provide(injector, provideTransport)
	do.Provide(injector, provideNotifier)
	do.Provide(injector, provideWidgetStore)
	do.Provide(injector, provideRenderer)
	do.Provide(injector, provideServer)

	for _, opt := range opts {
		opt(injector)
	}
	return injector
}

// Run starts background subscribers and serves HTTP until shutdown.
func Run(ctx context.Context, i do.Injector) error {
	logger := do.MustInvoke[*slog.Logger](i)
	bus, err := do.Invoke[*pubsub.WatermillBridge](i)
	if err != nil {
		return err
	}
	if err := authevents.LogAuthenticated(ctx, bus, logger); err != nil {
		return fmt.Errorf("subscribe to authenticated events: %w", err)
	}

	srv, err := do.Invoke[*server.Server](i)
	if err != nil {
		return err
	}
	return srv.Start()
}

func provideBus(i do.Injector) (*pubsub.WatermillBridge, error) {
	return pubsub.NewWatermillBridge(do.MustInvoke[*slog.Logger](i)), nil
}

func provideEmailSender(i do.Injector) (domain.EmailSender, error) {
	return email.NewEmailService(do.MustInvoke[config.Provider](i), do.MustInvoke[*slog.Logger](i))
}

func provideUserRepository(i do.Injector) (domain.UserRepository, error) {
	cfg := do.MustInvoke[config.Provider](i)
	switch cfg.GetUserStore() {
	case config.UserStoreFile:
		return database.NewFileUserStore(do.MustInvoke[afero.Fs](i), cfg.GetUsersFile()), nil
	case config.UserStoreSurreal:
		db, err := database.NewDB(context.Background(), cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to surrealdb: %w", err)
		}
		return database.NewSurrealUserStore(db, cfg.GetDBNs(), cfg.GetDBDb()), nil
	default:
		return nil, fmt.Errorf("unknown user store %q", cfg.GetUserStore())
	}
}

func provideTransport(i do.Injector) (authflow.Transport, error) {
	cfg := do.MustInvoke[config.Provider](i)
	logger := do.MustInvoke[*slog.Logger](i)
	switch cfg.GetTransport() {
	case config.TransportGraphQL:
		return transport.NewGraphQLClient(cfg.GetGraphQLURL()), nil
	case config.TransportLocal:
		users, err := do.Invoke[domain.UserRepository](i)
		if err != nil {
			return nil, err
		}
		emailer, err := do.Invoke[domain.EmailSender](i)
		if err != nil {
			return nil, err
		}
		return transport.NewLocal(users, emailer, cfg.GetAppBaseURL(), logger), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.GetTransport())
	}
}

func provideNotifier(i do.Injector) (*authevents.Notifier, error) {
	bus, err := do.Invoke[*pubsub.WatermillBridge](i)
	if err != nil {
		return nil, err
	}
	return authevents.NewNotifier(bus, do.MustInvoke[*slog.Logger](i)), nil
}

func provideWidgetStore(i do.Injector) (*widget.Store, error) {
	cfg := do.MustInvoke[config.Provider](i)
	logger := do.MustInvoke[*slog.Logger](i)
	tr, err := do.Invoke[authflow.Transport](i)
	if err != nil {
		return nil, err
	}
	notifier, err := do.Invoke[*authevents.Notifier](i)
	if err != nil {
		return nil, err
	}

	factory := func(id string) *authflow.Coordinator {
		var coord *authflow.Coordinator
		coord = authflow.NewCoordinator(tr,
			authflow.WithLogger(logger.With("widget_id", id)),
			authflow.WithOnAuthenticated(func() {
				notifier.Authenticated(context.Background(), id, coord.View().Fields().Get(authflow.FieldEmail))
			}),
		)
		return coord
	}
	return widget.NewStore(factory,
		widget.WithIdleTTL(cfg.GetWidgetIdleTTL()),
		widget.WithMaxWidgets(cfg.GetWidgetMaxLive()),
		widget.WithLogger(logger.With("service", "widget")),
	), nil
}

func provideRenderer(i do.Injector) (rendering.Renderer, error) {
	return rendering.NewUniversalRenderer(), nil
}

func provideServer(i do.Injector) (*server.Server, error) {
	store, err := do.Invoke[*widget.Store](i)
	if err != nil {
		return nil, err
	}
	return server.New(server.Dependencies{
		Config:   do.MustInvoke[config.Provider](i),
		Widgets:  store,
		Renderer: do.MustInvoke[rendering.Renderer](i),
		Logger:   do.MustInvoke[*slog.Logger](i),
	})
}
