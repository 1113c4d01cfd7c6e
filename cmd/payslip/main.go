package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"

	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	repo "github.com/joseph-ayodele/payslip-tracker/internal/repository"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(&extractCmd{}, "")
	commander.Register(&ingestCmd{}, "")
	commander.Register(&exportCmd{}, "")
	commander.Register(&dbhealthCmd{}, "")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

// loadConfig reads PAYSLIP_CONFIG and the environment; logs go to stderr so
// stdout stays clean for results.
func loadConfig() (*common.Config, *slog.Logger, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := common.NewLogger(os.Stderr, cfg.Log)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func openStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*repo.Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := repo.Open(ctx, repo.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: cfg.Database.MaxConnLifetime.Std(),
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime.Std(),
		DialTimeout:     cfg.Database.DialTimeout.Std(),
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "error:", err)
	return subcommands.ExitFailure
}
