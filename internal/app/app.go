package app

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"netclub/internal/config"
	httpserver "netclub/internal/http"
	"netclub/internal/http/handlers"
	"netclub/internal/password"
	redisstore "netclub/internal/redis"
	"netclub/internal/repository"
	"netclub/internal/service"
	libdb "netclub/libs/db"
	libredis "netclub/libs/redis"
)

// App wires the netclub dependency graph.
type App struct {
	server      *httpserver.Server
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph and applies pending migrations.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := libdb.NewPostgresDB(cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, err
	}

	if err := migrate(sqlDB, cfg.Database.MigrationsDir); err != nil {
		sqlDB.Close()
		return nil, err
	}

	// The cache is best effort. A missing or unreachable redis only
	// disables the active session mirror.
	var redisClient *redis.Client
	var activeCache *redisstore.Store
	if cfg.Redis.Addr != "" {
		redisClient, err = libredis.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password)
		if err != nil {
			logger.Warn("redis unavailable, running without active session cache", zap.Error(err))
		} else {
			activeCache = redisstore.NewStore(redisClient, cfg.ActiveSessionTTL())
		}
	}

	memberRepo := repository.NewMemberRepository(sqlDB)
	machineRepo := repository.NewMachineRepository(sqlDB)
	recordRepo := repository.NewUsageRecordRepository(sqlDB)
	userRepo := repository.NewUserRepository(sqlDB)
	statsRepo := repository.NewStatsRepository(sqlDB)
	txManager := repository.NewTxManager(sqlDB)

	hasher := password.NewBcryptHasher(0)
	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.TokenTTL())

	sessionsService := service.NewSessionService(txManager, activeCache, logger)
	membersService := service.NewMemberService(memberRepo, txManager, logger)
	machinesService := service.NewMachineService(machineRepo, txManager, logger)
	recordsService := service.NewRecordService(recordRepo, txManager, logger)
	statsService := service.NewStatsService(statsRepo)
	authService := service.NewAuthService(userRepo, hasher, tokens, logger)
	usersService := service.NewUserService(userRepo, hasher)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Tokens:         tokens,
		Auth:           handlers.NewAuthHandler(authService),
		Sessions:       handlers.NewSessionsHandler(sessionsService, logger),
		Members:        handlers.NewMembersHandler(membersService),
		Machines:       handlers.NewMachinesHandler(machinesService),
		Records:        handlers.NewRecordsHandler(recordsService),
		Stats:          handlers.NewStatsHandler(statsService),
		Users:          handlers.NewUsersHandler(usersService),
		MetricsEnabled: cfg.Metrics.Enabled,
	})
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server:      server,
		db:          sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

func migrate(db *sql.DB, dir string) error {
	if dir == "" {
		return nil
	}
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, dir)
}

// Run starts the HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
