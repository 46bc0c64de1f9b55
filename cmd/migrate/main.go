// Command migrate applies the cart slot migrations to the sql storage backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/doneduardo/storefront/pkg/config"
	"github.com/doneduardo/storefront/pkg/db"
	"github.com/doneduardo/storefront/pkg/enums"
	"github.com/doneduardo/storefront/pkg/logger"
	"github.com/doneduardo/storefront/pkg/migrate"
)

var errUsage = errors.New("usage")

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "up|down|status|version|validate")
	target := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	if err := run(context.Background(), *cmd, *target); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", *cmd, err)
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd, target string) error {
	switch cmd {
	case "validate":
		if err := migrate.Validate(); err != nil {
			return err
		}
		fmt.Println("migrations ok")
		return nil
	case "up", "down", "status":
	case "version":
		if target == "" {
			return fmt.Errorf("%w: -version is required", errUsage)
		}
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Storage.Backend != enums.StorageBackendSQL {
		return fmt.Errorf("storage backend is %q, migrations only apply to %q", cfg.Storage.Backend, enums.StorageBackendSQL)
	}

	logg := logger.New(logger.Options{
		ServiceName: "storefront-migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": cmd})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer client.Close()

	sqlDB, err := client.SQL()
	if err != nil {
		return err
	}
	driver := client.DriverName()

	if cmd == "version" {
		err = migrate.MigrateToVersion(ctx, sqlDB, driver, target)
	} else {
		err = migrate.Run(ctx, sqlDB, driver, cmd)
	}
	if err != nil {
		logg.Error(ctx, "migrate.failed", err)
		return err
	}
	logg.Info(ctx, "migrate.done")
	return nil
}
