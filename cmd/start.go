package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"policy-agent/core/config"
	"policy-agent/core/database"
	"policy-agent/core/loader"
	"policy-agent/core/locking"
	"policy-agent/core/logger"
	"policy-agent/core/middleware/auth"
	"policy-agent/core/middleware/rayid"
	"policy-agent/core/runner"
	"policy-agent/core/storage"

	"policy-agent/feature/inventory"
	"policy-agent/feature/source"
	"policy-agent/feature/target"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the policy agent",
	Long: `Starts the HTTP surface, the task runner and the periodic
inventory synchronization loop.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)
		logg = logg.With(zap.String("host", cfg.Agent.Host))

		// 3. Connect to the inventory database (source store)
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to the inventory database", zap.Error(err))
		}
		if err := database.VerifySchema(db, source.RequiredTables); err != nil {
			logg.Fatal("Inventory schema verification failed", zap.Error(err))
		}
		repo := source.NewRepository(db)
		logg.Info("Connected to inventory database")

		// 4. Connect to the policy backend (target store)
		client, err := target.NewRestClient(cfg.Target)
		if err != nil {
			logg.Fatal("Failed to create target store client", zap.Error(err))
		}

		// 5. Sync report archive (optional)
		var archive *inventory.ReportArchive
		if cfg.Storage.Enabled {
			store, err := storage.NewClient(cfg.Storage)
			if err != nil {
				logg.Fatal("Failed to create storage client", zap.Error(err))
			}
			archive = inventory.NewReportArchive(store, cfg.Storage.Bucket, logg)
			logg.Info("Report archive enabled", zap.String("bucket", cfg.Storage.Bucket))
		}

		// 6. Task runner and lock manager
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		run := runner.New(cfg.Agent.ConcurrentRequests, logg)
		run.Start(ctx)
		locks := locking.NewManager()

		sync := inventory.NewSynchronizer(cfg.Agent, logg, repo, client, run, locks, archive)

		// 7. Fiber app with the agent's web surface
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
		})

		app.Use(rayid.New())
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		mgr := loader.NewManager()
		mgr.Register(inventory.NewFeature(sync, logg))
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 8. Periodic synchronization loop
		interval := time.Duration(cfg.Agent.PollingIntervalSeconds) * time.Second
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				started := time.Now()
				if err := sync.SyncInventory(ctx); err != nil {
					logg.Error("Inventory synchronization failed", zap.Error(err))
				}
				if elapsed := time.Since(started); elapsed > interval {
					logg.Warn("Synchronization pass exceeded the polling interval",
						zap.Duration("elapsed", elapsed),
						zap.Duration("interval", interval),
					)
				}
				select {
				case <-ticker.C:
				case <-ctx.Done():
					return
				}
			}
		}()

		// 9. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 10. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down...")
		cancel()
		run.Stop()
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
