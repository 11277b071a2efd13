// @title			Bitácora API
// @version		1.0
// @description	Task request workflow: draft, submit, assign, execute and close requests with full history.
// @BasePath		/api
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/bitacora/internal/config"
	"github.com/mtlprog/bitacora/internal/database"
	"github.com/mtlprog/bitacora/internal/domain"
	"github.com/mtlprog/bitacora/internal/handler"
	"github.com/mtlprog/bitacora/internal/logger"
	"github.com/mtlprog/bitacora/internal/metrics"
	"github.com/mtlprog/bitacora/internal/middleware"
	"github.com/mtlprog/bitacora/internal/notify"
	"github.com/mtlprog/bitacora/internal/repository"
	"github.com/mtlprog/bitacora/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	app := &cli.App{
		Name:  "bitacora",
		Usage: "Task request workflow service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"BITACORA_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (json, text)",
				EnvVars: []string{"LOG_FORMAT"},
			},
			&cli.StringFlag{
				Name:    "database-url",
				Aliases: []string{"d"},
				Value:   config.DefaultDatabaseURL,
				Usage:   "PostgreSQL database URL",
				EnvVars: []string{"DATABASE_URL"},
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger.Setup(logger.ParseLevel(cfg.Log.Level), cfg.Log.Format)
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the web server and the event dispatcher",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{"PORT"},
					},
					jwtSecretFlag(),
					&cli.StringFlag{
						Name:    "nats-url",
						Usage:   "NATS server URL for notifications (empty = log only)",
						EnvVars: []string{"NATS_URL"},
					},
					&cli.DurationFlag{
						Name:    "dispatch-interval",
						Value:   config.DefaultDispatchInterval,
						Usage:   "Outbox polling interval (0 disables the in-process dispatcher)",
						EnvVars: []string{"DISPATCH_INTERVAL"},
					},
				},
				Action: runServe,
			},
			{
				Name:  "migrate",
				Usage: "Manage database migrations",
				Subcommands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "Apply all pending migrations",
						Action: migrateAction(database.RunMigrations),
					},
					{
						Name:   "down",
						Usage:  "Revert the last migration",
						Action: migrateAction(database.RollbackMigration),
					},
					{
						Name:   "status",
						Usage:  "Show migration status",
						Action: migrateAction(database.MigrationStatus),
					},
				},
			},
			{
				Name:  "dispatch-events",
				Usage: "Dispatch pending outbox events once and exit",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "nats-url",
						Usage:   "NATS server URL for notifications (empty = log only)",
						EnvVars: []string{"NATS_URL"},
					},
				},
				Action: runDispatchEvents,
			},
			{
				Name:  "issue-token",
				Usage: "Print a signed bearer token for a user",
				Flags: []cli.Flag{
					jwtSecretFlag(),
					&cli.Int64Flag{
						Name:     "user-id",
						Usage:    "Numeric user ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "role",
						Usage:    "Role (SOLICITANTE, ASIGNADOR, EJECUTOR, ADMIN)",
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Value: config.DefaultTokenTTL,
						Usage: "Token lifetime",
					},
				},
				Action: runIssueToken,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func jwtSecretFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "jwt-secret",
		Usage:   "HS256 secret for bearer tokens",
		EnvVars: []string{"JWT_SECRET"},
	}
}

// loadConfig reads the config file, if any, then applies flags and
// environment variables that were set explicitly.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrides := map[string]*string{
		"log-level":    &cfg.Log.Level,
		"log-format":   &cfg.Log.Format,
		"database-url": &cfg.Database.URL,
		"port":         &cfg.Server.Port,
		"jwt-secret":   &cfg.Auth.JWTSecret,
		"nats-url":     &cfg.NATS.URL,
	}
	for name, target := range overrides {
		if c.IsSet(name) {
			*target = c.String(name)
		}
	}
	if c.IsSet("dispatch-interval") {
		cfg.Dispatch.Interval = c.Duration("dispatch-interval")
	}

	return cfg, nil
}

func connect(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("database URL is required (--database-url, DATABASE_URL or database.url)")
	}

	db, err := database.New(ctx, cfg.Database.URL, database.Options{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// newNotifier publishes to NATS when a URL is configured and logs otherwise.
// The returned func releases the connection.
func newNotifier(cfg *config.Config) (notify.Notifier, func(), error) {
	if cfg.NATS.URL == "" {
		return notify.NewLogNotifier(slog.Default()), func() {}, nil
	}

	n, err := notify.NewNATSNotifier(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
	if err != nil {
		return nil, nil, err
	}
	return n, func() {
		if err := n.Close(); err != nil {
			slog.Error("failed to close NATS connection", "error", err)
		}
	}, nil
}

func newDispatcher(db *database.DB, notifier notify.Notifier, m *metrics.Metrics) *service.Dispatcher {
	pool := db.Pool()
	return service.NewDispatcher(
		pool,
		repository.NewOutboxRepository(pool),
		repository.NewActivityRepository(pool),
		notifier,
		m,
	)
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db.Pool()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	notifier, closeNotifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}
	defer closeNotifier()

	h := handler.New(db.Pool(), handler.Options{
		JWTSecret: []byte(cfg.Auth.JWTSecret),
		Metrics:   m,
		Gatherer:  reg,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	dispatchDone := make(chan struct{})
	if cfg.Dispatch.Interval > 0 {
		go func() {
			defer close(dispatchDone)
			newDispatcher(db, notifier, m).Run(ctx, cfg.Dispatch.Interval)
		}()
	} else {
		close(dispatchDone)
		slog.Info("in-process event dispatcher disabled")
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		stop()
		<-dispatchDone
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	<-dispatchDone

	slog.Info("server stopped")
	return nil
}

func migrateAction(fn func(context.Context, *pgxpool.Pool) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		db, err := connect(c.Context, cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		return fn(c.Context, db.Pool())
	}
}

func runDispatchEvents(c *cli.Context) error {
	ctx := c.Context

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	notifier, closeNotifier, err := newNotifier(cfg)
	if err != nil {
		return err
	}
	defer closeNotifier()

	dispatcher := newDispatcher(db, notifier, nil)

	total := 0
	for {
		n, err := dispatcher.DispatchOnce(ctx)
		if err != nil {
			return fmt.Errorf("dispatch events: %w", err)
		}
		if n == 0 {
			break
		}
		total += n
	}

	slog.Info("outbox drained", "dispatched", total)
	return nil
}

func runIssueToken(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("jwt secret is required (--jwt-secret, JWT_SECRET or auth.jwt_secret)")
	}

	ttl := cfg.Auth.TokenTTL
	if c.IsSet("ttl") {
		ttl = c.Duration("ttl")
	}

	token, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecret), c.Int64("user-id"), domain.Role(c.String("role")), ttl)
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}

	fmt.Fprintln(c.App.Writer, token)
	return nil
}
