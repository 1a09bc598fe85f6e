package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/buildtrack/internal/config"
	"github.com/iliyamo/buildtrack/internal/database"
	"github.com/iliyamo/buildtrack/internal/policy"
	"github.com/iliyamo/buildtrack/internal/queue"
	"github.com/iliyamo/buildtrack/internal/repository"
	"github.com/iliyamo/buildtrack/internal/server"
	"github.com/iliyamo/buildtrack/internal/workflow"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	migrate := pflag.Bool("migrate", false, "apply the embedded schema before serving")
	consume := pflag.Bool("consume", true, "run the activity log consumer alongside the server")
	pflag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		log.Fatalf("load %s: %v", *envFile, err)
	}
	cfg := config.Load()
	log.SetLevel(config.ParseLogLevel(cfg.LogLevel))
	log.SetHeader(`${time_rfc3339} ${level} ${short_file}:${line}`)

	db, err := database.Open(database.Options{
		Driver:     cfg.DBDriver,
		User:       cfg.DBUser,
		Pass:       cfg.DBPass,
		Host:       cfg.DBHost,
		Port:       cfg.DBPort,
		Name:       cfg.DBName,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// An in-memory SQLite database starts empty, so it is always migrated.
	if *migrate || (cfg.DBDriver == database.DriverSQLite && cfg.SQLitePath == "") {
		if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Infof("schema applied (%s)", cfg.DBDriver)
	}

	pol, err := policy.Load(cfg.PolicyFile)
	if err != nil {
		log.Fatalf("policy: %v", err)
	}
	if cfg.AdminProjectAccess != "" {
		a, err := policy.ParseAccess(cfg.AdminProjectAccess)
		if err != nil {
			log.Fatalf("ADMIN_PROJECT_ACCESS: %v", err)
		}
		pol = pol.WithAdminProjectAccess(a)
	}
	log.Infof("admin project access: %s", pol.AdminProjectAccess())

	var events workflow.EventPublisher = queue.Discard{}
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.AMQPURL)
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	e := server.New(server.Options{
		DB:        db,
		Driver:    cfg.DBDriver,
		Isolation: repository.ParseIsolation(cfg.TxIsolation),
		JWTSecret: cfg.JWTSecret,
		Policy:    pol,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Events:    events,
		LogLevel:  config.ParseLogLevel(cfg.LogLevel),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		log.Infof("listening on %s (env=%s, db=%s)", addr, cfg.Env, cfg.DBDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if *consume && cfg.EventsEnabled {
		g.Go(func() error {
			return queue.NewConsumer(cfg.AMQPURL, cfg.ActivityLog).Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		log.Fatalf("server: %v", err)
	}
	log.Info("shut down cleanly")
}
