package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"tooly/application"
	"tooly/config"
	"tooly/database"
	"tooly/domain/events"
	"tooly/domain/interfaces"
	"tooly/domain/rewards"
	"tooly/domain/services"
	"tooly/infrastructure"
	"tooly/repository"
	"tooly/storage/flatfile"

	log "github.com/sirupsen/logrus"
)

// Services groups every ledger facing service of a running process
type Services struct {
	Ledger     interfaces.LedgerService
	Ranking    interfaces.RankingService
	Economy    interfaces.EconomyService
	Fishing    interfaces.FishingService
	Gambling   interfaces.GamblingService
	Leveling   interfaces.LevelingService
	Moderation interfaces.ModerationService
}

// NewServices builds the service layer over a store, a locker and a publisher
func NewServices(cfg *config.Config, store interfaces.LedgerStore, locker interfaces.KeyLocker, publisher interfaces.EventPublisher) (*Services, error) {
	engine, err := rewards.NewEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to create reward engine: %w", err)
	}

	ledger := services.NewLedgerService(store, locker)
	return &Services{
		Ledger:     ledger,
		Ranking:    services.NewRankingService(ledger),
		Economy:    services.NewEconomyService(ledger, engine, publisher, cfg),
		Fishing:    services.NewFishingService(ledger, engine, publisher, cfg),
		Gambling:   services.NewGamblingService(ledger, engine, publisher, cfg),
		Leveling:   services.NewLevelingService(ledger, engine, publisher, cfg),
		Moderation: services.NewModerationService(ledger, publisher, cfg),
	}, nil
}

// closers runs cleanup functions in reverse registration order
type closers []func()

func (c *closers) add(fn func()) {
	*c = append(*c, fn)
}

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.ConfigureLogging()

	log.WithFields(log.Fields{
		"environment": cfg.Environment,
		"storage":     cfg.StorageBackend,
		"locks":       cfg.LockBackend,
	}).Info("Starting tooly...")

	var cleanup closers
	defer cleanup.run()

	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	cleanup.add(closeStore)

	locker, closeLocker, err := newLocker(ctx, cfg)
	if err != nil {
		return err
	}
	cleanup.add(closeLocker)

	log.Info("Initializing event bus...")
	bus := events.NewBus()
	subscribeAuditLog(bus)

	publisher, closePublisher, err := newEventPublisher(ctx, cfg, bus)
	if err != nil {
		return err
	}
	cleanup.add(closePublisher)

	if cfg.LegacyDataFile != "" && cfg.StorageBackend == config.StoragePostgres {
		if _, err := application.NewMigrationRunner(store, publisher).Run(ctx, cfg.LegacyDataFile); err != nil {
			return fmt.Errorf("failed to migrate legacy data: %w", err)
		}
	}

	svc, err := NewServices(cfg, store, locker, publisher)
	if err != nil {
		return err
	}
	log.Info("Services initialized successfully")

	if cfg.DiscordToken != "" {
		session, err := infrastructure.NewDiscordSession(cfg.DiscordToken)
		if err != nil {
			return err
		}
		reaper := application.NewLeaderboardReaperWorker(
			svc.Ledger,
			infrastructure.NewDiscordMessageChecker(session),
			publisher,
			cfg.LeaderboardReapInterval,
		)
		cleanup.add(reaper.Start(ctx))
		log.Info("Leaderboard reaper worker initialized successfully")
	} else {
		log.Warn("DISCORD_TOKEN not set, leaderboard pointers will not be reaped")
	}

	log.Infof("Ledger is running in %s mode...", cfg.Environment)
	<-ctx.Done()

	log.Info("Shutting down...")
	return nil
}

// ImportLegacy copies a legacy flat-file into the configured store
func ImportLegacy(ctx context.Context, path string) (*application.MigrationResult, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.ConfigureLogging()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open legacy data file: %w", err)
	}

	store, closeStore, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	return application.NewMigrationRunner(store, infrastructure.NewNoopEventPublisher()).Run(ctx, path)
}

// OpenStore opens the configured ledger backend
func OpenStore(ctx context.Context, cfg *config.Config) (interfaces.LedgerStore, func(), error) {
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		databaseURL := cfg.GetDatabaseURL()

		log.Info("Running database migrations...")
		if err := database.RunMigrationsWithURL(databaseURL); err != nil {
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		log.Info("Connecting to database...")
		db, err := database.NewConnection(ctx, databaseURL, cfg.DatabaseMaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Info("Database connection established successfully")

		store := repository.NewStore(db)
		return store, func() {
			log.Info("Closing database connection...")
			if err := store.Close(); err != nil {
				log.WithError(err).Error("Failed to close database")
			}
		}, nil

	default:
		store, err := flatfile.Open(flatfile.Options{
			Path:          cfg.DataFile,
			FlushMode:     flatfile.FlushMode(cfg.FlushMode),
			FlushInterval: cfg.FlushInterval,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open data file: %w", err)
		}
		log.WithFields(log.Fields{
			"path":      cfg.DataFile,
			"flushMode": cfg.FlushMode,
		}).Info("Flat-file store opened")

		return store, func() {
			log.Info("Flushing data file...")
			if err := store.Close(); err != nil {
				log.WithError(err).Error("Failed to close data file")
			}
		}, nil
	}
}

func newLocker(ctx context.Context, cfg *config.Config) (interfaces.KeyLocker, func(), error) {
	if cfg.LockBackend != config.LockRedis {
		return infrastructure.NewMutexLocker(), func() {}, nil
	}

	client, err := infrastructure.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	log.WithField("addr", cfg.RedisAddr).Info("Using Redis record locks")

	return infrastructure.NewRedisLocker(client, "tooly:lock:", cfg.LockTTL), func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Error("Failed to close Redis client")
		}
	}, nil
}

func newEventPublisher(ctx context.Context, cfg *config.Config, bus *events.Bus) (interfaces.EventPublisher, func(), error) {
	if len(cfg.NATSServerList()) == 0 {
		return bus, func() {}, nil
	}

	client := infrastructure.NewNATSClient(cfg.NATSServers, "tooly-ledger")
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		return nil, nil, err
	}

	mapper := infrastructure.NewEventSubjectMapper()
	if err := client.EnsureStream(infrastructure.LedgerEventStream, mapper.GetAllSubjects()); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	return infrastructure.NewNATSEventPublisher(client, mapper, bus, "tooly"), func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Error("Failed to close NATS connection")
		}
	}, nil
}

// subscribeAuditLog records notable ledger events
func subscribeAuditLog(bus *events.Bus) {
	bus.Subscribe(events.EventTypeGuildEconomyReset, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.GuildEconomyResetEvent); ok {
			log.WithField("guildID", e.GuildID).Warn("Guild economy was reset")
		}
	})
	bus.Subscribe(events.EventTypeLeaderboardPointerPruned, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.LeaderboardPointerPrunedEvent); ok {
			log.WithFields(log.Fields{
				"guildID":   e.GuildID,
				"messageID": e.MessageID,
			}).Info("Leaderboard pointer pruned")
		}
	})
	bus.Subscribe(events.EventTypeLegacyMigrationCompleted, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.LegacyMigrationCompletedEvent); ok {
			log.WithFields(log.Fields{
				"runID":     e.RunID,
				"conflicts": e.Conflicts,
				"skipped":   e.Skipped,
			}).Info("Legacy migration event received")
		}
	})
}
