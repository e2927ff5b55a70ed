// Package main provides the arena server binary: the world tick, autosave
// and a gRPC health endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/account"
	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/action"
	"github.com/cory-johannsen/arena/internal/game/battle"
	"github.com/cory-johannsen/arena/internal/game/clock"
	"github.com/cory-johannsen/arena/internal/game/dice"
	"github.com/cory-johannsen/arena/internal/game/player"
	"github.com/cory-johannsen/arena/internal/game/pvp"
	"github.com/cory-johannsen/arena/internal/game/world"
	"github.com/cory-johannsen/arena/internal/gameserver"
	"github.com/cory-johannsen/arena/internal/observability"
	"github.com/cory-johannsen/arena/internal/server"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	migrateOnStart := flag.Bool("migrate", false, "apply pending migrations before starting (standalone mode)")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging, zap.String("server", cfg.Server.Type))
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting arena server",
		zap.String("mode", cfg.Server.Mode),
		zap.String("grpc_addr", cfg.GameServer.Addr()),
	)

	catalog, err := loadCatalog(cfg.World.ContentDir)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("actions", len(catalog.All())),
		zap.Strings("species", catalog.SpeciesNames()),
	)

	lifecycle := server.NewLifecycle(logger)
	grpcServer, health := gameserver.NewGRPCServer()

	var (
		players  player.Repository
		accounts account.Repository
	)
	switch cfg.Server.Mode {
	case config.ModeMemory:
		players = player.NewMemoryRepository()
		accounts = account.NewMemoryRepository()
		logger.Warn("memory mode: player progress is lost on shutdown")
	default:
		if *migrateOnStart {
			if err := postgres.MigrateUp(cfg.Database.DSN()); err != nil {
				logger.Fatal("migrating database", zap.Error(err))
			}
		}
		dbStart := time.Now()
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		logger.Info("database connected",
			zap.String("host", cfg.Database.Host),
			zap.Duration("elapsed", time.Since(dbStart)),
		)
		players = postgres.NewPlayerRepository(pool.DB())
		accounts = postgres.NewAccountRepository(pool.DB())

		check := func(ctx context.Context) error { return pool.Health(ctx, 5*time.Second) }
		monitor := server.NewContextService(func(ctx context.Context) error {
			t := time.NewTicker(30 * time.Second)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-t.C:
					gameserver.ReportHealth(ctx, health, check, logger)
				}
			}
		})
		lifecycle.Add("postgres", &server.FuncService{
			StartFn: monitor.Start,
			StopFn: func() {
				monitor.Stop()
				pool.Close()
			},
		})
	}

	w := world.New(catalog, world.Config{
		Battle: battle.Config{
			TurnTimeout: cfg.Battle.TurnTimeout,
			Clock:       clock.NewReal(),
			Rand:        dice.NewLoggedSource(dice.NewCryptoSource(), logger),
			Logger:      logger,
		},
		CleanupDelay: cfg.Battle.CleanupDelay,
		PvP: pvp.Config{
			Window:     cfg.PvP.Window,
			MaxRewards: cfg.PvP.MaxRewards,
			GCInterval: cfg.PvP.GCInterval,
		},
		PowerPerDistance: cfg.World.PowerPerDistance,
	})
	svc := gameserver.NewService(w, players, accounts, logger)

	ticker := world.NewTicker(cfg.GameServer.TickInterval)
	ticker.Register("world", w.TimerEvent)
	lifecycle.Add("world", tickerService(ticker))

	if cfg.GameServer.AutosaveInterval > 0 {
		autosave := world.NewTicker(cfg.GameServer.AutosaveInterval)
		autosave.Register("players", func() { _ = svc.SaveAll(ctx) })
		autosaveSvc := tickerService(autosave)
		lifecycle.Add("autosave", &server.FuncService{
			StartFn: autosaveSvc.Start,
			StopFn: func() {
				autosaveSvc.Stop()
				if err := svc.SaveAll(ctx); err != nil {
					logger.Error("final save", zap.Error(err))
				}
			},
		})
	}

	lifecycle.Add("grpc", &server.FuncService{
		StartFn: func() error {
			lis, err := net.Listen("tcp", cfg.GameServer.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", cfg.GameServer.Addr(), err)
			}
			logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
			return grpcServer.Serve(lis)
		},
		StopFn: grpcServer.GracefulStop,
	})

	logger.Info("arena server initialized", zap.Duration("startup", time.Since(start)))

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func loadCatalog(dir string) (*action.Catalog, error) {
	if dir == "" {
		return action.Default()
	}
	return action.LoadDirectory(dir)
}

func tickerService(t *world.Ticker) *server.ContextService {
	return server.NewContextService(func(ctx context.Context) error {
		t.Start(ctx)
		<-ctx.Done()
		return nil
	})
}
