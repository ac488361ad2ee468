package main

import (
	"github.com/stakehall/matchengine/config"
	"github.com/stakehall/matchengine/logger"
	"github.com/stakehall/matchengine/monitor"
	"github.com/stakehall/matchengine/persistence"
	"github.com/stakehall/matchengine/recovery"
	"github.com/stakehall/matchengine/server"
	"github.com/stakehall/matchengine/timer"
)

func main() {
	logger.Init()
	defer logger.Sync()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("failed to load configuration: %v", err)
	}

	var store persistence.Store
	pg := cfg.Database.Postgres
	switch cfg.Database.Driver {
	case "pq":
		store, err = persistence.NewPQStore(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName, cfg.Engine.FeeRateBP)
	default:
		store, err = persistence.NewGormStore(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName, cfg.Engine.FeeRateBP)
	}
	if err != nil {
		logger.Log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()
	logger.Log.Info("database connection successful")

	scheduler := timer.NewManager()
	defer scheduler.Stop()

	mon := monitor.NewMonitor("matchengine")
	if cfg.Server.MetricsAddress != "" {
		mon.StartServer(cfg.Server.MetricsAddress)
	}

	matchServer, err := server.NewMatchServer(cfg, store, scheduler, mon)
	if err != nil {
		logger.Log.Fatalf("failed to build match server: %v", err)
	}

	// Unfinished matches from a previous run are driven to settlement
	// under automated control before new connections are accepted.
	coordinator := recovery.NewCoordinator(recovery.Deps{
		Store:       store,
		Rooms:       matchServer.Rooms(),
		Bots:        matchServer.Bots(),
		Broadcaster: matchServer.Broadcaster(),
		Scheduler:   scheduler,
		RoomConfig:  matchServer.RoomConfig(),
		Options:     matchServer.Options(),
	})
	if _, err := coordinator.Run(); err != nil {
		logger.Log.Fatalf("crash recovery failed: %v", err)
	}

	logger.Log.Infof("starting match server on %s", cfg.Server.HTTPAddress)
	if err := matchServer.Start(); err != nil {
		logger.Log.Fatalf("failed to start server: %v", err)
	}
}
