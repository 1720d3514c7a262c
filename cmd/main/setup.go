package main

import (
	"context"
	"fmt"

	"auction-predictor/src/config"
	datasource "auction-predictor/src/data_source"
	"auction-predictor/src/data_source/marketapi"
	"auction-predictor/src/interfaces"
	"auction-predictor/src/logger"
	"auction-predictor/src/modelstore"
	"auction-predictor/src/network"
	"auction-predictor/src/pipeline"
	"auction-predictor/src/storage"
)

// app holds the components every command shares.
type app struct {
	cfg *config.Config
	log *logger.Logger
	db  interfaces.IDatabase
}

// -----------------------------------------------------------------------------

// setup loads the configuration, then opens and migrates the history store.
func setup() (*app, error) {
	cfg, err := config.NewConfig(configPath, envFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	appLogger := logger.NewLogger(cfg.MConfig, cfg.Name)

	dbName := "SQLiteDB"
	if cfg.Storage.DBType == "postgres" {
		dbName = "PostgresDB"
	}
	db, err := storage.NewDatabase(cfg.MConfig, appLogger.WithName(dbName))
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	if err := initDatabase(db); err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: appLogger, db: db}, nil
}

// -----------------------------------------------------------------------------

// initDatabase migrates db and releases it when migration fails.
func initDatabase(db interfaces.IDatabase) error {
	if err := db.Initialize(); err != nil {
		db.Close()
		return fmt.Errorf("migrate db: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Warning("Failed to close db: %v", err)
	}
}

// -----------------------------------------------------------------------------

// loadModels reads every configured artifact from the models directory.
func (a *app) loadModels(ctx context.Context) (*modelstore.ModelStore, error) {
	store := modelstore.NewModelStore(a.cfg.Models, a.log.WithName("ModelStore"))
	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("loading models: %w", err)
	}
	return store, nil
}

// -----------------------------------------------------------------------------

// newPipeline loads the models and wires the prediction pipeline.
func (a *app) newPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	store, err := a.loadModels(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.New(a.cfg.MConfig, a.db, store, a.log.WithName("Pipeline")), nil
}

// -----------------------------------------------------------------------------

// newMarketSync wires the market API source behind the retrying network manager.
func (a *app) newMarketSync() *datasource.MarketSync {
	netMgr := network.NewNetworkManager(a.cfg.MConfig, a.log.WithName("NetworkManager"))
	source := marketapi.NewMarketAPISource(a.cfg.MConfig, netMgr, a.log.WithName("MarketAPI"))
	return datasource.NewMarketSync(a.cfg.MConfig, a.db, a.log.WithName("MarketSync"), source)
}
