package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/shirogane-dev/handseal/authority"
	"github.com/shirogane-dev/handseal/cli/reader"
	"github.com/shirogane-dev/handseal/cli/render"
	"github.com/shirogane-dev/handseal/log"
	"github.com/shirogane-dev/handseal/outbox"
	"github.com/shirogane-dev/handseal/submit"
)

// ReplayResponse is the response for the outbox replay command.
type ReplayResponse struct {
	Attempted int  `json:"attempted"`
	Recovered int  `json:"recovered"`
	Discarded int  `json:"discarded"`
	Kept      int  `json:"kept"`
	Remaining int  `json:"remaining"`
	Skipped   bool `json:"skipped"`
}

// OutboxCommand returns the outbox command with subcommands.
func OutboxCommand() *cli.Command {
	return &cli.Command{
		Name:  "outbox",
		Usage: "Inspect and drain the pending submission queue",
		Subcommands: []*cli.Command{
			outboxListCommand(),
			outboxInspectCommand(),
			outboxStatsCommand(),
			outboxReplayCommand(),
		},
	}
}

func outboxListCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "List pending submissions, oldest first",
		Flags:  append(ReadOnlyFlags(), ConfigFlag, IdentityFlag),
		Action: outboxListAction,
	}
}

func outboxListAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for outbox list (use outbox inspect or outbox stats)", 1)
	}

	queue, err := openOutbox(c)
	if err != nil {
		return err
	}

	return r.Render(reader.SummarizeRecords(queue.Snapshot()))
}

func outboxInspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Show one pending submission by record ID or fingerprint",
		ArgsUsage: "<record-id | fingerprint>",
		Flags:     append(TUIReadOnlyFlags(), ConfigFlag, IdentityFlag),
		Action:    outboxInspectAction,
	}
}

func outboxInspectAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("outbox inspect requires exactly one record ID or fingerprint", 1)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	queue, err := openOutbox(c)
	if err != nil {
		return err
	}

	resp, err := reader.InspectRecord(queue.Snapshot(), c.Args().First())
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return r.RenderTUI("inspect_record", resp)
	}
	return r.Render(resp)
}

func outboxStatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show aggregate outbox statistics",
		Flags:  append(TUIReadOnlyFlags(), ConfigFlag, IdentityFlag),
		Action: outboxStatsAction,
	}
}

func outboxStatsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	queue, err := openOutbox(c)
	if err != nil {
		return err
	}

	stats := reader.StatsOutbox(queue.Snapshot())
	if c.Bool("tui") {
		return r.RenderTUI("stats_outbox", stats)
	}
	return r.Render(stats)
}

func outboxReplayCommand() *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "Drain one batch of pending submissions through the authority",
		Flags: append(ReadOnlyFlags(), ConfigFlag, IdentityFlag,
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "Authority base URL (overrides config)",
			},
		),
		Action: outboxReplayAction,
	}
}

func outboxReplayAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for outbox replay", 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	identity, err := resolveIdentity(c, cfg)
	if err != nil {
		return err
	}
	invoker, err := buildInvoker(c, cfg)
	if err != nil {
		return err
	}
	store, err := buildStore(c.Context, cfg)
	if err != nil {
		return err
	}
	adapters, err := buildAdapters(cfg)
	if err != nil {
		return err
	}

	queue, err := outbox.New(c.Context, outbox.Config{
		Identity: identity,
		Store:    store,
		Capacity: cfg.Replay.Capacity,
		Batch:    cfg.Replay.Batch,
		Logger:   log.Nop(),
	})
	if err != nil {
		return err
	}

	router, err := authority.NewRouter(invoker, nil, nil)
	if err != nil {
		return err
	}
	coordinator, err := submit.New(submit.Config{
		Identity: identity,
		Router:   router,
		Hasher:   buildHasher(cfg),
		Adapters: adapters,
		Logger:   log.Nop(),
	})
	if err != nil {
		return err
	}

	stats := queue.Replay(c.Context, coordinator)
	return r.Render(ReplayResponse{
		Attempted: stats.Attempted,
		Recovered: stats.Recovered,
		Discarded: stats.Discarded,
		Kept:      stats.Kept,
		Remaining: queue.Len(),
		Skipped:   stats.Skipped,
	})
}

// openOutbox loads the persisted queue for read-only views.
func openOutbox(c *cli.Context) (*outbox.Outbox, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	identity, err := resolveIdentity(c, cfg)
	if err != nil {
		return nil, err
	}
	store, err := buildStore(c.Context, cfg)
	if err != nil {
		return nil, err
	}

	return outbox.New(c.Context, outbox.Config{
		Identity: identity,
		Store:    store,
		Capacity: cfg.Replay.Capacity,
		Batch:    cfg.Replay.Batch,
		Logger:   log.Nop(),
	})
}
