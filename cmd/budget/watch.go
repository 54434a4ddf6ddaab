package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"budget/internal/amqp"
	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/events"
	"budget/internal/kafka"
	"budget/internal/present"
)

type watchCmd struct {
	asJSON bool
	group  string
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "print ledger events from the configured broker" }
func (*watchCmd) Usage() string {
	return `budget watch [-json] [-group <id>]

  Follows the entry.added and entry.removed events published by serve or
  the ledger commands. Needs EVENTS_BACKEND=amqp or kafka.
`
}

func (c *watchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.asJSON, "json", false, "Print raw event JSON.")
	f.StringVar(&c.group, "group", "budget-watch", "Kafka consumer group.")
}

func (c *watchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, logger, err := cli.Bootstrap(os.Stderr)
	if err != nil {
		cli.Fatal(err)
		return subcommands.ExitFailure
	}
	formatter, err := present.NewFormatter(cfg.Currency)
	if err != nil {
		cli.Fatal(err)
		return subcommands.ExitFailure
	}

	ctx, stop := cli.ShutdownContext(ctx, logger)
	defer stop()

	handle := func(e events.Event) error {
		if c.asJSON {
			return json.NewEncoder(os.Stdout).Encode(e)
		}
		fmt.Printf("%s  %-13s %-8s #%d %s %s  balance %s\n",
			e.OccurredAt.Format("15:04:05"), e.Type, short(e.SessionID),
			e.Entry.ID, e.Entry.Label, formatter.Signed(e.Entry.Amount), formatter.Format(e.Balance))
		return nil
	}

	switch backend.EventsType(cfg.EventsBackend) {
	case backend.AMQPEvents:
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			cli.Fatal(err)
			return subcommands.ExitFailure
		}
		defer client.Close()
		err = client.Consume(ctx, handle)
		return exitStatus(err)
	case backend.KafkaEvents:
		consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, c.group, logger)
		defer consumer.Close()
		return exitStatus(consumer.Consume(ctx, handle))
	default:
		cli.Fatal(fmt.Errorf("watch needs EVENTS_BACKEND=amqp or kafka, got %q", cfg.EventsBackend))
		return subcommands.ExitUsageError
	}
}

func exitStatus(err error) subcommands.ExitStatus {
	if err == nil || errors.Is(err, context.Canceled) {
		return subcommands.ExitSuccess
	}
	cli.Fatal(err)
	return subcommands.ExitFailure
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
