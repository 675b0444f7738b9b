package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/tributary/tribute-ui-api/config"
	"github.com/tributary/tribute-ui-api/internal/adapters/pgwatch"
	redisadapter "github.com/tributary/tribute-ui-api/internal/adapters/redis"
	"github.com/tributary/tribute-ui-api/internal/adapters/tokenstore"
	"github.com/tributary/tribute-ui-api/internal/data"
	"github.com/tributary/tribute-ui-api/internal/ports"
	"github.com/tributary/tribute-ui-api/internal/service"
)

// ServiceContainer holds the application services and the adapters the
// HTTP layer and workers need.
type ServiceContainer struct {
	Bus       *service.Bus
	Sessions  *service.SessionService
	Roster    *service.RosterService
	Admin     *service.AdminService
	Favorites *service.FavoriteService
	Notices   *service.NoticeCenter

	Roles      ports.RoleStore
	Procedures ports.Procedures
	Tokens     *tokenstore.Fanout

	// Watcher is nil when no pgx pool was provided.
	Watcher *pgwatch.Watcher
}

// ServicesConfig contains dependencies for building the service container.
type ServicesConfig struct {
	Config   *config.AppConfig
	DB       *sql.DB
	Pool     *pgxpool.Pool
	Redis    goredis.UniversalClient
	Identity ports.IdentityClient
	Logger   *slog.Logger
}

// BuildServices wires repositories, adapters, and services together.
func BuildServices(cfg ServicesConfig) (*ServiceContainer, error) {
	if cfg.Config == nil {
		return nil, errors.New("app config is required")
	}
	if cfg.DB == nil {
		return nil, errors.New("database handle is required")
	}
	if cfg.Identity == nil {
		return nil, errors.New("identity client is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	roleRepo := data.NewRoleRepo(cfg.DB)
	favoriteRepo := data.NewFavoriteRepo(cfg.DB)
	rosterRepo := data.NewRosterRepo(cfg.DB)
	procedureRepo := data.NewProcedureRepo(cfg.DB)

	notices := service.NewNoticeCenter(logger)
	bus := service.NewBus()

	stores := []ports.TokenStore{tokenstore.NewMemory()}
	if cfg.Config.Session.PersistToRedis && cfg.Redis != nil {
		if key := cfg.Config.Session.RedisKey; key != "" {
			stores = append(stores, redisadapter.NewTokenStoreWithKey(cfg.Redis, key))
		} else {
			stores = append(stores, redisadapter.NewTokenStore(cfg.Redis))
		}
	}
	tokens, err := tokenstore.NewFanout(tokenstore.FanoutOptions{
		Stores: stores,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build token store: %w", err)
	}

	resolver := service.NewRoleResolver(service.RoleResolverOptions{
		Store:  roleRepo,
		Logger: logger,
	})

	sessions, err := service.NewSessionService(service.SessionServiceOptions{
		Identity: cfg.Identity,
		Tokens:   tokens,
		Roles:    resolver,
		Bus:      bus,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build session service: %w", err)
	}

	roster, err := service.NewRosterService(service.RosterServiceOptions{
		Source:    rosterRepo,
		Directory: rosterRepo,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build roster service: %w", err)
	}

	admin, err := service.NewAdminService(service.AdminServiceOptions{
		Roster:     roster,
		Roles:      roleRepo,
		Procedures: procedureRepo,
		Favorites:  favoriteRepo,
		Notifier:   notices,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build admin service: %w", err)
	}

	favorites, err := service.NewFavoriteService(service.FavoriteServiceOptions{
		Store:  favoriteRepo,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build favorite service: %w", err)
	}

	container := &ServiceContainer{
		Bus:        bus,
		Sessions:   sessions,
		Roster:     roster,
		Admin:      admin,
		Favorites:  favorites,
		Notices:    notices,
		Roles:      roleRepo,
		Procedures: procedureRepo,
		Tokens:     tokens,
	}

	if cfg.Pool != nil {
		watcher, watchErr := pgwatch.NewWatcher(pgwatch.WatcherOptions{
			Pool:        cfg.Pool,
			Sink:        bus,
			PrincipalID: sessions.CurrentPrincipalID,
			Logger:      logger,
		})
		if watchErr != nil {
			return nil, fmt.Errorf("build role-change watcher: %w", watchErr)
		}
		container.Watcher = watcher
	}

	return container, nil
}
