package main

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-jobboard-auth"
	"github.com/goliatone/go-jobboard-auth/config"
	"github.com/goliatone/go-jobboard-auth/denylist"
	"github.com/goliatone/go-jobboard-auth/persistence"
)

const denylistSweepInterval = time.Minute

// newServeCommand creates the serve command
func newServeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Args:  cobra.NoArgs,
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.bootstrap()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *auth.LogrusLogger) error {
	logger.Info("starting", "config", cfg.String())

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	tokens, err := auth.NewTokenService(cfg, auth.WithTokenLogger(logger))
	if err != nil {
		return err
	}

	list, closeList, err := newDenylist(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeList()

	hasher := auth.NewBcryptHasher(
		auth.WithHashCost(cfg.Auth.HashCost),
		auth.WithHashConcurrency(cfg.Auth.HashConcurrency),
		auth.WithHasherLogger(logger),
	)

	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	service := auth.NewSessionService(repo.Users(), hasher, tokens,
		auth.WithSessionLogger(logger),
		auth.WithDenylist(list),
	)

	app := newApp(cfg, logger)
	gate := auth.ProtectedRoute(cfg, tokens.AccessValidator(service.Denylist()).WithLogger(logger), logger)
	auth.RegisterAuthRoutes(app, service, gate,
		auth.WithControllerLogger(logger),
		auth.WithControllerConfig(cfg),
	)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		errCh <- app.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		logger.Error("shutdown failed", "error", err)
		return err
	}
	return nil
}

func newApp(cfg *config.Config, logger *auth.LogrusLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "jobboard-auth",
		DisableStartupMessage: true,
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
			}
			logger.Error("unhandled error", "path", c.Path(), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
		},
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
		Output: logger.Entry().Logger.Out,
	}))

	return app
}

func openDatabase(ctx context.Context, cfg *config.Config, logger *auth.LogrusLogger) (*bun.DB, error) {
	db, err := persistence.Open(ctx, cfg.Database.Driver, cfg.Database.DSN,
		persistence.WithQueryLogger(logger.WithField("component", "db").Entry()),
		persistence.WithMaxOpenConns(cfg.Database.MaxOpenConns),
	)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := persistence.Migrate(ctx, db, cfg.Database.Driver); err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("migrations applied", "driver", cfg.Database.Driver)
	}

	return db, nil
}

// newDenylist returns nil for the "none" backend, which keeps tokens valid
// until they expire.
func newDenylist(ctx context.Context, cfg *config.Config, logger *auth.LogrusLogger) (auth.TokenDenylist, func(), error) {
	switch cfg.Auth.Denylist {
	case config.DenylistMemory:
		mem := denylist.NewMemory()
		go mem.Run(ctx, denylistSweepInterval)
		logger.Info("token denylist enabled", "backend", config.DenylistMemory)
		return mem, func() {}, nil
	case config.DenylistRedis:
		client, err := denylist.Connect(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("token denylist enabled", "backend", config.DenylistRedis, "addr", cfg.Redis.Addr)
		list := denylist.NewRedis(client, denylist.WithKeyPrefix(cfg.Redis.KeyPrefix))
		return list, func() { _ = client.Close() }, nil
	default:
		return nil, func() {}, nil
	}
}
