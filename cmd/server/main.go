package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	httpadapter "fiefdom/internal/adapter/http"
	"fiefdom/internal/adapter/lock"
	metricsinmem "fiefdom/internal/adapter/metrics/inmemory"
	gormrepo "fiefdom/internal/adapter/repo/gorm"
	"fiefdom/internal/adapter/repo/memory"
	"fiefdom/internal/adapter/scheduler"
	"fiefdom/internal/app/action"
	"fiefdom/internal/app/journal"
	"fiefdom/internal/app/ports"
	"fiefdom/internal/app/status"
	"fiefdom/internal/app/sweep"
	"fiefdom/internal/config"
	"fiefdom/internal/domain/activity"
	"fiefdom/internal/domain/player"
	"fiefdom/internal/logging"

	"github.com/cloudwego/hertz/pkg/app/server"
)

type repos struct {
	tx     ports.TxManager
	states ports.PlayerStateRepository
	queues ports.ActionQueueRepository
	events ports.EventRepository
}

func main() {
	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	r, err := buildRepos(ctx, cfg, logger)
	if err != nil {
		return err
	}
	registry, err := loadRegistry(cfg.Game.CatalogPath)
	if err != nil {
		return err
	}
	if err := seedPlayer(ctx, r.states, cfg.Game.SeedPlayer, time.Now().UTC()); err != nil {
		return err
	}

	kpiRecorder := metricsinmem.NewRecorder()
	actionUC := action.UseCase{
		TxManager:     r.tx,
		Locker:        lock.NewMutexMap(),
		StateRepo:     r.states,
		QueueRepo:     r.queues,
		EventRepo:     r.events,
		Metrics:       kpiRecorder,
		Activities:    registry,
		Roller:        newRoller(cfg.Game.RNGSeed),
		MaxCatchUp:    cfg.Game.MaxCatchUp,
		FinishedLimit: cfg.Game.FinishedLimit,
		Logger:        logger,
		Now:           func() time.Time { return time.Now().UTC() },
	}

	sched, err := buildScheduler(cfg, logger, sweep.UseCase{
		Queues:      r.queues,
		Advancer:    actionUC,
		BatchSize:   cfg.Sweep.BatchSize,
		Concurrency: cfg.Sweep.Concurrency,
		Logger:      logger.With("component", "sweep"),
	})
	if err != nil {
		return err
	}
	if sched != nil {
		sched.Start()
		defer func() { <-sched.Stop().Done() }()
	}

	h := httpadapter.Handler{
		ActionUC:  actionUC,
		StatusUC:  status.UseCase{StateRepo: r.states},
		JournalUC: journal.UseCase{Events: r.events},
		KPI:       kpiRecorder,
		Logger:    logger,
	}

	s := server.Default(
		server.WithHostPorts(cfg.Server.Addr),
		server.WithExitWaitTime(cfg.Server.ShutdownGrace),
	)
	h.RegisterRoutes(s)

	logger.Info("fiefdom server listening",
		"addr", cfg.Server.Addr,
		"storage", storageName(cfg),
		"seed_player", cfg.Game.SeedPlayer,
	)
	s.Spin()
	return nil
}

func buildRepos(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repos, error) {
	if !cfg.UsesPostgres() {
		store := memory.NewStore()
		return repos{
			tx:     memory.NewTxManager(store),
			states: memory.NewPlayerStateRepo(store),
			queues: memory.NewActionQueueRepo(store),
			events: memory.NewEventRepo(store),
		}, nil
	}

	db, err := gormrepo.OpenPostgres(cfg.Database.DSN)
	if err != nil {
		return repos{}, err
	}
	applied, err := gormrepo.ApplyMigrations(ctx, db, cfg.Database.MigrationsDir)
	if err != nil {
		return repos{}, fmt.Errorf("migrate: %w", err)
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", "versions", applied)
	}
	return repos{
		tx:     gormrepo.NewTxManager(db),
		states: gormrepo.NewPlayerStateRepo(db),
		queues: gormrepo.NewActionQueueRepo(db),
		events: gormrepo.NewEventRepo(db),
	}, nil
}

func loadRegistry(path string) (*activity.Registry, error) {
	if path == "" {
		return activity.MustDefaultRegistry(), nil
	}
	cat, err := activity.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return activity.NewRegistry(cat), nil
}

func newRoller(seed uint64) activity.Roller {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return activity.NewRoller(seed)
}

// seedPlayer creates the demo player in the starting village unless it already exists.
func seedPlayer(ctx context.Context, states ports.PlayerStateRepository, playerID string, now time.Time) error {
	if playerID == "" {
		return nil
	}
	_, err := states.GetByPlayerID(ctx, playerID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		return fmt.Errorf("load seed player %s: %w", playerID, err)
	}
	seed := player.NewState(playerID, player.Location{Type: player.LocationVillage, ID: 1})
	seed.UpdatedAt = now
	if err := states.SaveWithVersion(ctx, seed, 0); err != nil && !errors.Is(err, ports.ErrConflict) {
		return fmt.Errorf("seed player %s: %w", playerID, err)
	}
	return nil
}

func buildScheduler(cfg *config.Config, logger *slog.Logger, sweeper sweep.UseCase) (*scheduler.Scheduler, error) {
	if cfg.Sweep.Schedule == "" {
		logger.Info("idle queue sweep disabled")
		return nil, nil
	}
	sched := scheduler.New(logger.With("component", "scheduler"), cfg.Sweep.Timeout)
	err := sched.Add("sweep_idle_queues", cfg.Sweep.Schedule, func(ctx context.Context) error {
		_, err := sweeper.Run(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("schedule sweep: %w", err)
	}
	return sched, nil
}

func storageName(cfg *config.Config) string {
	if cfg.UsesPostgres() {
		return "postgres"
	}
	return "memory"
}
