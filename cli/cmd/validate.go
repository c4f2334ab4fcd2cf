package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/shirogane-dev/handseal/cli/reader"
	"github.com/shirogane-dev/handseal/cli/render"
	"github.com/shirogane-dev/handseal/validate"
)

// Exit codes shared by validate and submit.
const (
	exitAccepted = 0
	exitRejected = 1
	exitQueued   = 2
)

// ValidateResponse is the response for the validate command.
type ValidateResponse struct {
	OK          bool   `json:"ok"`
	Reason      string `json:"reason,omitempty"`
	Detail      string `json:"detail,omitempty"`
	Events      int    `json:"events"`
	SignOKCount int    `json:"sign_ok_count"`
}

// ValidateCommand returns the validate command. It runs the full proof
// check offline, without contacting the authority, and exits 1 when the
// proof would be rejected.
func ValidateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Check a run result's proof offline",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"i"},
				Usage:    "Run result JSON file (\"-\" reads stdin)",
				Required: true,
			},
		),
		Action: validateAction,
	}
}

func validateAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for validate command", 1)
	}

	result, err := reader.ReadRunResult(c.String("file"))
	if err != nil {
		return err
	}

	vr := validate.New().Validate(result)
	resp := ValidateResponse{
		OK:          vr.OK,
		Reason:      string(vr.Reason),
		Detail:      vr.Detail,
		Events:      vr.Events,
		SignOKCount: vr.SignOKCount,
	}

	if err := r.Render(resp); err != nil {
		return err
	}
	if !vr.OK {
		return cli.Exit("", exitRejected)
	}
	return nil
}
