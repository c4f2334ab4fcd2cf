package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/shirogane-dev/handseal/cli/render"
	"github.com/shirogane-dev/handseal/types"
)

// VersionResponse is the response for the version command.
type VersionResponse struct {
	Version  string `json:"version"`
	Contract string `json:"contract"`
	Commit   string `json:"commit"`
}

// VersionCommand returns the version command. It reports the client
// version and the proof contract version without contacting the
// authority.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show version information",
		Flags:  ReadOnlyFlags(),
		Action: versionAction(commit),
	}
}

func versionAction(commit string) cli.ActionFunc {
	return func(c *cli.Context) error {
		r, err := render.NewRenderer(c)
		if err != nil {
			return err
		}

		// TUI not supported for version command
		if c.Bool("tui") {
			return cli.Exit("--tui is not supported for version command", 1)
		}

		resp := VersionResponse{
			Version:  types.Version,
			Contract: types.ProofContractVersion,
			Commit:   commit,
		}

		return r.Render(resp)
	}
}
