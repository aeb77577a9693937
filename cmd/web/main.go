package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/opsdrill/opsdrill/internal/broker"
	"github.com/opsdrill/opsdrill/internal/envstruct"
	"github.com/opsdrill/opsdrill/internal/errors"
	"github.com/opsdrill/opsdrill/internal/logging"
	"github.com/opsdrill/opsdrill/internal/pprofserver"
	"github.com/opsdrill/opsdrill/internal/repositories"
	"github.com/opsdrill/opsdrill/internal/session"
	"github.com/opsdrill/opsdrill/internal/sqlite"
)

type config struct {
	Addr      string `env:"OPSDRILL_ADDR" envDefault:"localhost:4000"`
	PprofPort string `env:"OPSDRILL_PPROF_PORT" envDefault:":6060"`
	SqliteURL string `env:"OPSDRILL_SQLITE_URL" envDefault:"./opsdrill.sqlite"`
}

type application struct {
	logger         *slog.Logger
	cases          *repositories.CaseRepository
	engine         *session.Engine
	events         *broker.Broker[string, session.Event]
	sessionManager *scs.SessionManager
}

func main() {
	logger := slog.New(logging.NewContextHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})))
	ctx := context.Background()

	// A .env file is a development convenience, not a requirement.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.LogAttrs(ctx, slog.LevelError, "load .env", errors.SlogError(err))
		os.Exit(1)
	}

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server exited", errors.SlogError(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "parse configuration")
	}

	// pprof listens on localhost so that it's not open to the world.
	pprofserver.Launch(ctx, cfg.PprofPort, logger)

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "connect to database", slog.String("url", cfg.SqliteURL))
	}
	defer func() { _ = db.Close() }()
	go db.StartOptimizer(ctx)

	events := broker.New[string, session.Event]()
	go events.Start()
	defer events.Stop()

	cases := repositories.NewCaseRepository(db, logger)
	engine := session.NewEngine(cases, session.NewSQLiteStore(db), events, logger)

	sessionManager := scs.New()
	sessionManager.Store = sqlite3store.NewWithCleanupInterval(db.ReadWrite, 24*time.Hour)
	sessionManager.Lifetime = 12 * time.Hour

	app := application{
		logger:         logger,
		cases:          cases,
		engine:         engine,
		events:         events,
		sessionManager: sessionManager,
	}

	return app.configureAndStartServer(ctx, cfg.Addr)
}
