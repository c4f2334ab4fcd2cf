package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/shirogane-dev/handseal/cli/reader"
	"github.com/shirogane-dev/handseal/cli/render"
	"github.com/shirogane-dev/handseal/session"
)

// SubmitResponse is the response for the submit command.
type SubmitResponse struct {
	OK          bool   `json:"ok"`
	Queued      bool   `json:"queued"`
	Reason      string `json:"reason,omitempty"`
	StatusText  string `json:"status_text,omitempty"`
	DetailText  string `json:"detail_text,omitempty"`
	RankText    string `json:"rank_text,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

// SubmitCommand returns the submit command. It opens a session against
// the configured authority, which also drains any queued submissions
// left over from earlier invocations, then submits the given run.
//
// Exit codes: 0 accepted (or duplicate), 1 rejected, 2 queued for
// replay.
func SubmitCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "Submit a run result to the authority",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"i"},
				Usage:    "Run result JSON file (\"-\" reads stdin)",
				Required: true,
			},
			ConfigFlag,
			IdentityFlag,
			&cli.StringFlag{
				Name:  "endpoint",
				Usage: "Authority base URL (overrides config)",
			},
		),
		Action: submitAction,
	}
}

func submitAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for submit command", 1)
	}

	result, err := reader.ReadRunResult(c.String("file"))
	if err != nil {
		return err
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

	s, err := session.New(c.Context, session.Config{
		Identity:       identity,
		Invoker:        invoker,
		Store:          store,
		Adapters:       adapters,
		Hasher:         buildHasher(cfg),
		ReplayInterval: cfg.Replay.Interval.Duration,
		OutboxCapacity: cfg.Replay.Capacity,
		ReplayBatch:    cfg.Replay.Batch,
	})
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	outcome := s.SubmitRun(c.Context, result)
	resp := SubmitResponse{
		OK:          outcome.OK,
		Queued:      !outcome.OK && outcome.Retryable,
		Reason:      outcome.Reason,
		StatusText:  outcome.StatusText,
		DetailText:  outcome.DetailText,
		RankText:    outcome.RankText,
		Fingerprint: result.Fingerprint(),
	}

	if err := r.Render(resp); err != nil {
		return err
	}

	switch {
	case resp.OK:
		return nil
	case resp.Queued:
		return cli.Exit("", exitQueued)
	default:
		return cli.Exit("", exitRejected)
	}
}
