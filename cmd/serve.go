package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atdw-sync/core/loader"
	"atdw-sync/core/logger"
	"atdw-sync/core/middleware/auth"
	"atdw-sync/core/middleware/rayid"
	syncfeature "atdw-sync/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// summaryFlushInterval paces the background drain of pending summary
// invalidations while the server is up.
const summaryFlushInterval = 5 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the operational HTTP server",
	Long: `Starts the HTTP server exposing the operator surface: sync status and
run control plus the attribute dictionary. This is not a catalog read API.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, logg, db, err := bootstrap()
		if err != nil {
			log.Fatalf("Failed to start: %v", err)
		}
		defer logg.Sync()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := buildStack(ctx, cfg, db, logg)
		if err != nil {
			logg.Fatal("Failed to build sync pipeline", zap.Error(err))
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// Feature registration
		mgr := loader.NewManager()
		mgr.Register(syncfeature.NewFeature(db, s.runner, s.registry, logg, cfg.Sync))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Logging Middleware (Custom to use Zap + RayID)
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

		// 3. Health check stays public; everything else needs the key.
		app.Get("/healthz", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"status": "ok"})
		})
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// Background summary refresh: drain invalidations queued by
		// change notifications from HTTP-triggered runs.
		go func() {
			ticker := time.NewTicker(summaryFlushInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if s.refresher.Pending() == 0 {
						continue
					}
					if n, err := s.refresher.Flush(context.Background()); err != nil {
						logg.Error("Summary refresh failed", zap.Error(err))
					} else if n > 0 {
						logg.Info("Summaries refreshed", zap.Int("count", n))
					}
				}
			}
		}()

		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		<-ctx.Done()
		logg.Info("Shutting down server...")
		_ = app.Shutdown()

		// Final drain so invalidations from a just-finished run are not
		// lost across restarts.
		if _, err := s.refresher.Flush(context.Background()); err != nil {
			logg.Error("Final summary refresh failed", zap.Error(err))
		}
	},
}

func init() {
	RootCmd.AddCommand(serveCmd)
}
