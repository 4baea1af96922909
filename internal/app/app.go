package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"evlogger/internal/auth"
	"evlogger/internal/config"
	"evlogger/internal/db"
	httpserver "evlogger/internal/http"
	"evlogger/internal/http/handlers"
	"evlogger/internal/http/middleware"
	"evlogger/internal/poller"
	"evlogger/internal/redisstore"
	"evlogger/internal/repository"
	"evlogger/internal/scheduler"
	"evlogger/internal/vehicle"
	"evlogger/internal/ws"
)

// App wires evlogger dependencies.
type App struct {
	server      *httpserver.Server
	scheduler   *scheduler.Scheduler
	hub         *ws.Hub
	sqlDB       *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	redisClient, err := db.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	store := repository.NewStore(sqlDB)
	snapshotCache := redisstore.NewSnapshotStore(redisClient, cfg.CachedRefreshInterval())
	hub := ws.NewHub(0, logger)

	apiClient := vehicle.NewClient(cfg.Vehicle.BaseURL, vehicle.Credentials{
		Username: cfg.Vehicle.Username,
		Password: cfg.Vehicle.Password,
		PIN:      cfg.Vehicle.PIN,
	}, nil)

	orchestrator := poller.New(apiClient, store, snapshotCache, hub, poller.Config{
		VehicleID: cfg.Vehicle.VehicleID,
		Intervals: poller.Intervals{
			EngineRunning: seconds(cfg.Poll.EngineRunningSeconds),
			DCCharge:      seconds(cfg.Poll.DCChargeSeconds),
			ACCharge:      seconds(cfg.Poll.ACChargeSeconds),
			CarOff:        seconds(cfg.Poll.CarOffSeconds),
		},
		BatteryCapacityKWh:   cfg.Poll.BatteryCapacityKWh,
		MinAuxBatteryPercent: cfg.Poll.MinAuxBatteryPercent,
	}, logger)

	trigger := scheduler.New(orchestrator,
		cfg.CachedRefreshInterval(), cfg.RateLimitCooldown(),
		cfg.Poll.ActiveStartHour, cfg.Poll.ActiveEndHour, logger)

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.TokenTTL())
	hasher := auth.NewBcryptHasher(0)

	streamServer := ws.NewServer(hub, logger)

	routes := httpserver.Routes{
		Index:        handlers.NewIndexHandler(),
		Status:       handlers.NewStatusHandler(orchestrator),
		Battery:      handlers.NewBatteryHandler(orchestrator),
		ForceRefresh: handlers.NewForceRefreshHandler(orchestrator),
		TripsSync:    handlers.NewTripsSyncHandler(orchestrator),
		Charge:       handlers.NewChargeHandler(orchestrator),
		Login:        handlers.NewLoginHandler(hasher, cfg.Auth.AdminPasswordHash, tokens),
		Stream:       streamServer.HandleWS,
		Health:       handlers.NewHealthHandler(),
		Auth:         middleware.AuthMiddleware(tokens),
	}

	server := httpserver.NewServer(cfg.HTTPAddress(), httpserver.NewRouter(routes), logger)

	return &App{
		server:      server,
		scheduler:   trigger,
		hub:         hub,
		sqlDB:       sqlDB,
		redisClient: redisClient,
		logger:      logger,
	}, nil
}

// Run starts the scheduler, the stream hub and the HTTP server.
func (a *App) Run(ctx context.Context) error {
	go a.scheduler.Start(ctx)
	go a.hub.Start(ctx)
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.sqlDB != nil {
		if err := a.sqlDB.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}

func seconds(v int) time.Duration {
	return time.Duration(v) * time.Second
}
