package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	pgRepo "github.com/yourorg/paper-broker/internal/repository/postgres"
)

type migrateCmd struct {
	down int
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply or roll back schema migrations" }
func (*migrateCmd) Usage() string {
	return `migrate [-down <n>]

  Applies every pending migration, or with -down reverts the last n.
`
}

func (c *migrateCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.down, "down", 0, "Number of migrations to roll back")
}

func (c *migrateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.down < 0 {
		fmt.Fprintln(os.Stderr, "Error: -down must not be negative")
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.down > 0 {
		if err := pgRepo.RollbackMigrations(cfg.DatabaseURL, cfg.MigrationsPath, c.down); err != nil {
			fmt.Fprintf(os.Stderr, "Error rolling back migrations: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("rolled back %d migration(s)\n", c.down)
		return subcommands.ExitSuccess
	}

	if err := pgRepo.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error applying migrations: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Println("migrations applied")
	return subcommands.ExitSuccess
}

type versionCmd struct{}

func (*versionCmd) Name() string             { return "version" }
func (*versionCmd) Synopsis() string         { return "print the current schema version" }
func (*versionCmd) Usage() string            { return "version\n" }
func (*versionCmd) SetFlags(f *flag.FlagSet) {}

func (*versionCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return subcommands.ExitFailure
	}
	version, dirty, err := pgRepo.MigrationVersion(cfg.DatabaseURL, cfg.MigrationsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading schema version: %v\n", err)
		return subcommands.ExitFailure
	}
	if dirty {
		fmt.Printf("%d (dirty)\n", version)
		return subcommands.ExitFailure
	}
	fmt.Println(version)
	return subcommands.ExitSuccess
}
