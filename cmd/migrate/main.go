package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/coderr/marketplace-api/internal/config"
	"github.com/coderr/marketplace-api/internal/logger"
	"github.com/coderr/marketplace-api/migrations"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const usage = "usage: migrate [up|up-to VERSION|down|redo|reset|status|version|create NAME]"

// gooseLogger routes goose output through zap
type gooseLogger struct {
	sugar *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) { l.sugar.Infof(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...interface{}) { l.sugar.Fatalf(format, v...) }

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := os.Args[1:]
	if len(args) == 0 {
		return errors.New(usage)
	}
	command, arguments := args[0], args[1:]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	// New migrations are written to disk; everything else runs from the embedded set
	if command == "create" {
		if len(arguments) == 0 {
			return fmt.Errorf("create requires a migration name")
		}
		if err := goose.Create(nil, "./migrations", arguments[0], "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		return nil
	}

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(gooseLogger{sugar: log.Sugar()})
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	const dir = "."
	switch command {
	case "up":
		err = goose.Up(db, dir)
	case "up-to":
		if len(arguments) == 0 {
			return fmt.Errorf("up-to requires a version")
		}
		version, perr := strconv.ParseInt(arguments[0], 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid version %q: %w", arguments[0], perr)
		}
		err = goose.UpTo(db, dir, version)
	case "down":
		err = goose.Down(db, dir)
	case "redo":
		err = goose.Redo(db, dir)
	case "reset":
		err = goose.Reset(db, dir)
	case "status":
		err = goose.Status(db, dir)
	case "version":
		err = goose.Version(db, dir)
	default:
		return fmt.Errorf("unknown command: %s\n%s", command, usage)
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", command, err)
	}
	return nil
}
