package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/doneduardo/storefront/pkg/db"
	"github.com/doneduardo/storefront/pkg/logger"
	"github.com/pressly/goose/v3"
)

// MaybeRun applies pending migrations at boot when enabled.
func MaybeRun(ctx context.Context, enabled bool, logg *logger.Logger, client *db.Client) error {
	if !enabled || client == nil {
		return nil
	}
	if logg == nil {
		logg = logger.Nop()
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	driver := client.DriverName()
	ctx = logg.WithFields(ctx, map[string]any{"dir": Dir, "db_driver": driver})
	logg.Info(ctx, "running goose migrations")

	gooseMu.Lock()
	goose.SetLogger(gooseLogger{ctx: ctx, logg: logg})
	gooseMu.Unlock()

	if err := Up(ctx, sqlDB, driver); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "goose migrations completed")
	return nil
}

// gooseLogger routes goose progress lines through the service logger.
type gooseLogger struct {
	ctx  context.Context
	logg *logger.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.logg.Debug(l.ctx, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	l.logg.Error(l.ctx, "goose.fatal", fmt.Errorf("%s", msg))
}
