// Command brokerctl runs maintenance tasks against a paper-broker deployment.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/yourorg/paper-broker/internal/config"
)

var configFile = flag.String("config", "", "Path to a YAML config file (defaults to $CONFIG_FILE)")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&migrateCmd{}, "database")
	commander.Register(&versionCmd{}, "database")
	commander.Register(&quoteCmd{}, "market")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

// loadConfig resolves settings the same way the server does.
func loadConfig() (*config.Config, error) {
	config.LoadDotEnv()
	file := *configFile
	if file == "" {
		file = os.Getenv("CONFIG_FILE")
	}
	return config.Load(file)
}
