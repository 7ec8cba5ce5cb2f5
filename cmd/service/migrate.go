package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/leonid6372/paper-trading/pkg/log"
	"go.uber.org/zap"
)

type migrateCmd struct {
	configPath string
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "Apply, roll back or inspect schema migrations." }
func (*migrateCmd) Usage() string {
	return `migrate [-config path] up|down|status:
  up      apply pending migrations
  down    roll back every migration and drop the schema
  status  print applied and pending migrations
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	setConfigFlag(f, &c.configPath)
}

func (c *migrateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	cfg, err := loadConfig(c.configPath)
	if err != nil {
		log.Error("startup failed", zap.Error(err))
		return subcommands.ExitFailure
	}

	migrator := newMigrator(cfg)

	switch direction := f.Arg(0); direction {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down()
	case "status":
		err = migrator.Status()
	default:
		fmt.Fprintf(os.Stderr, "unknown migrate command %q\n", direction)
		return subcommands.ExitUsageError
	}

	if err != nil {
		log.Error("migrate failed", zap.Error(err))
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
