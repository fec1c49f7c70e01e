package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"sighting-engine/core/loader"
	"sighting-engine/core/logger"
	"sighting-engine/core/middleware/auth"
	"sighting-engine/core/middleware/rayid"
	"sighting-engine/core/storage"
	"sighting-engine/feature/media"
	"sighting-engine/feature/observation"
	"sighting-engine/feature/sync"
	"sighting-engine/feature/taxonomy"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "sighting-engine/docs/swagger"
)

// @title Sighting Engine API
// @version 1.0
// @description Ingestion API for species sightings.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the sighting engine server",
	Long:  `Starts the HTTP server, initializes all features and, when enabled, the periodic iNaturalist sync.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Configuration, logger, database
		rt, err := bootstrap()
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		logg := rt.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := rt.store.Migrate(ctx); err != nil {
			logg.Fatal("Failed to migrate database", zap.Error(err))
		}

		// 2. Storage
		client, err := storage.NewClient(rt.cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}
		mediaStore := storage.NewMediaStore(client, rt.cfg.Storage)
		if err := mediaStore.EnsureBucket(ctx); err != nil {
			logg.Fatal("Failed to prepare media bucket", zap.Error(err))
		}

		// 3. Fiber app
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			BodyLimit:             rt.cfg.Server.BodyLimit(),
		})

		// 4. Features
		locations := rt.locations()
		mgr := loader.NewManager(logg)
		mgr.Register(observation.NewFeature(observation.Dependencies{
			Store:     rt.store,
			Taxonomy:  taxonomy.NewResolver(rt.store, logg),
			Locations: locations,
			Media:     media.NewReconciler(mediaStore, logg),
			IDs:       rt.allocator(),
			Metrics:   rt.metrics,
		}, rt.cfg.Observation, logg))
		syncFeature := sync.NewFeature(rt.syncDependencies(locations), rt.cfg.Sync, logg)
		mgr.Register(syncFeature)

		// RayID first so every log line carries it.
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

		// Public endpoints
		app.Get("/swagger/*", swagger.HandlerDefault)
		app.Get("/metrics", adaptor.HTTPHandler(rt.metrics.Handler()))

		// Authenticated API
		api := app.Group("/api", auth.New(rt.store, auth.Config{
			Secret:         rt.cfg.Server.JWTSecret,
			ModeratorRoles: rt.cfg.Server.Moderators(),
		}, logg))

		if err := mgr.LoadAll(api); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 5. Periodic sync
		if rt.cfg.Sync.Enabled {
			go syncFeature.Scheduler().Start(ctx)
		}

		// 6. Serve
		go func() {
			logg.Info("Starting server", zap.String("port", rt.cfg.Server.Port))
			if err := app.Listen(":" + rt.cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 7. Graceful shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		cancel()
		_ = app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
