package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

const usage = `usage: migrate [-dir path] <command> [arg]

commands:
  up              apply all pending migrations
  down            roll back the latest migration
  redo            roll back and re-apply the latest migration
  status          print applied and pending migrations
  version         print the current schema version
  to <version>    migrate up or down to YYYYMMDDHHMMSS
  create <name>   write a new goose SQL migration
  validate        check migration file names and annotations
`

// dbCommands run against the configured database.
var dbCommands = map[string]func(ctx context.Context, sqlDB *sql.DB, dir, arg string) error{
	"up": func(ctx context.Context, sqlDB *sql.DB, dir, _ string) error {
		return migrate.Run(ctx, sqlDB, dir, "up")
	},
	"down": func(ctx context.Context, sqlDB *sql.DB, dir, _ string) error {
		return migrate.Run(ctx, sqlDB, dir, "down")
	},
	"redo": func(ctx context.Context, sqlDB *sql.DB, dir, _ string) error {
		return migrate.Run(ctx, sqlDB, dir, "redo")
	},
	"status": func(ctx context.Context, sqlDB *sql.DB, dir, _ string) error {
		return migrate.Run(ctx, sqlDB, dir, "status")
	},
	"version": func(ctx context.Context, sqlDB *sql.DB, dir, _ string) error {
		return migrate.Run(ctx, sqlDB, dir, "version")
	},
	"to": func(ctx context.Context, sqlDB *sql.DB, dir, arg string) error {
		if arg == "" {
			return fmt.Errorf("to requires a target version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, dir, arg)
	},
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	dir := flag.String("dir", migrate.DefaultDir, "goose migrations directory")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)
	arg := flag.Arg(1)

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": command,
		"dir": *dir,
	})

	switch command {
	case "create":
		if arg == "" {
			fmt.Fprintln(os.Stderr, "create requires a migration name")
			os.Exit(2)
		}
		path, err := migrate.CreateSQLMigration(*dir, arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create migration: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("created migration:", path)
		return
	case "validate":
		if err := migrate.ValidateDir(*dir); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return
	}

	run, ok := dbCommands[command]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		flag.Usage()
		os.Exit(2)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "running migration command")
	if err := run(ctx, sqlDB, *dir, arg); err != nil {
		logg.Error(ctx, "migration command failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
