// board-service
//
// Job board orchestration: postings, applications, favorites and the view
// models a thin client renders. Serves HTTP/JSON and a small gRPC surface on
// one port, refreshes the public directory on a cron schedule and publishes
// application events to Redis for back-office consumers.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"leja/board-service/internal/apply"
	"leja/board-service/internal/auth"
	"leja/board-service/internal/catalog"
	"leja/board-service/internal/config"
	"leja/board-service/internal/db"
	"leja/board-service/internal/favorites"
	"leja/board-service/internal/grpcserver"
	"leja/board-service/internal/httpapi"
	"leja/board-service/internal/jobs"
	"leja/board-service/internal/mux"
	"leja/board-service/internal/prefs"
	"leja/board-service/internal/scheduler"
	"leja/board-service/internal/session"
	"leja/board-service/internal/store/memory"
	"leja/board-service/internal/store/postgres"
	"leja/board-service/internal/store/redisstore"
	"leja/board-service/internal/store/sqlite"
	"leja/board-service/internal/view"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "[board-service] fatal: %v\n", err)
		os.Exit(1)
	}
}

// stores groups the persistence ports the services need.
type stores struct {
	jobs      jobs.Store
	applies   apply.Store
	users     auth.UserStore
	tokens    auth.TokenStore
	prefs     prefs.Store
	favorites favorites.Store
	events    apply.Publisher
}

func run() error {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Document store ──────────────────────────────────────────────────────
	var st stores
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		logger.Info("connecting to PostgreSQL")
		pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			return err
		}
		st.jobs, st.applies, st.users = postgres.NewJobs(pool), postgres.NewApplies(pool), postgres.NewUsers(pool)
	case config.DriverSQLite:
		logger.Info("opening SQLite", "path", cfg.SQLitePath)
		sqldb, err := db.NewSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		defer sqldb.Close()
		if err := sqlite.Migrate(ctx, sqldb); err != nil {
			return err
		}
		st.jobs, st.applies, st.users = sqlite.NewJobs(sqldb), sqlite.NewApplies(sqldb), sqlite.NewUsers(sqldb)
	default:
		logger.Warn("using in-memory document store; data is lost on restart")
		st.jobs, st.applies, st.users = memory.NewJobs(), memory.NewApplies(), memory.NewUsers()
	}

	// ── Redis ───────────────────────────────────────────────────────────────
	if cfg.RedisURL != "" {
		logger.Info("connecting to Redis")
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		st.tokens = redisstore.NewTokens(rdb)
		st.prefs = redisstore.NewPrefs(rdb)
		st.favorites = redisstore.NewFavorites(rdb)
		st.events = redisstore.NewPublisher(rdb)
	} else {
		logger.Warn("REDIS_URL not set; tokens, preferences and favorites kept in memory")
		st.tokens, st.prefs, st.favorites = memory.NewTokens(), memory.NewPrefs(), memory.NewFavorites()
	}

	// ── Services ────────────────────────────────────────────────────────────
	cat := catalog.Load(cfg.CatalogPath, logger)
	logger.Info("catalog loaded", "regions", cat.Len())

	authSvc := auth.NewService(st.users, st.tokens, cfg.TokenTTL)
	dir := jobs.NewDirectory(st.jobs, logger)
	jobSvc := jobs.NewService(st.jobs, dir, cat, logger)
	applySvc := apply.NewService(st.applies, st.events, logger)
	ledger := favorites.NewLedger(st.favorites, logger)

	views := view.NewRegistry(view.Deps{
		Catalog:   cat,
		Directory: dir,
		Jobs:      jobSvc,
		Applies:   applySvc,
		Favorites: ledger,
		Logger:    logger,
	})
	detach := views.Attach(authSvc)
	defer detach()

	if _, err := dir.Refresh(ctx); err != nil {
		logger.Warn("initial directory refresh failed", "err", err)
	}

	// ── Scheduler ───────────────────────────────────────────────────────────
	if cfg.DirectoryRefreshMinutes > 0 {
		sched := scheduler.New(dir, cfg.DirectoryRefreshMinutes, logger)
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		defer sched.Stop()
	}

	// ── HTTP + gRPC ─────────────────────────────────────────────────────────
	resolver := session.NewResolver(authSvc, st.prefs)
	handler := httpapi.NewHandler(httpapi.Deps{
		Auth:              authSvc,
		Prefs:             st.prefs,
		Sessions:          resolver,
		Catalog:           cat,
		Directory:         dir,
		Jobs:              jobSvc,
		Applies:           applySvc,
		Favorites:         ledger,
		Views:             views,
		AuthRatePerMinute: cfg.AuthRatePerMinute,
		Version:           version,
		Logger:            logger,
	})

	gs := grpc.NewServer()
	grpcserver.NewServer(applySvc, resolver).Register(gs)

	m := mux.New(gs, handler.Routes(), logger)
	if err := m.Start(":" + cfg.Port); err != nil {
		return err
	}
	logger.Info("board-service listening", "version", version, "port", cfg.Port, "store", cfg.StoreDriver)

	// ── Graceful shutdown ───────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := m.Stop(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	logger.Info("stopped")
	return nil
}
