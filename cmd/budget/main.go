// Command budget records income and expenses and serves the ledger page.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range ledgerCommands {
		commander.Register(c, "ledger")
	}
	commander.Register(&serveCmd{}, "server")
	commander.Register(&watchCmd{}, "server")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
