package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/shirogane-dev/handseal/cli/reader"
	"github.com/shirogane-dev/handseal/cli/render"
	"github.com/shirogane-dev/handseal/integrity"
)

// HashResponse is the response for the hash command.
type HashResponse struct {
	RunHash   string `json:"run_hash"`
	HashChain string `json:"hash_chain"`
	Algorithm string `json:"algorithm"`
}

// HashCommand returns the hash command. It computes the integrity
// digests the coordinator would attach to a submission, for comparing
// against authority-side records.
func HashCommand() *cli.Command {
	return &cli.Command{
		Name:  "hash",
		Usage: "Compute integrity digests for a run result",
		Flags: append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"i"},
				Usage:    "Run result JSON file (\"-\" reads stdin)",
				Required: true,
			},
			IdentityFlag,
			&cli.StringFlag{
				Name:  "algorithm",
				Usage: "Hash algorithm: sha256 or fnv32",
				Value: "sha256",
			},
		),
		Action: hashAction,
	}
}

func hashAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for hash command", 1)
	}

	result, err := reader.ReadRunResult(c.String("file"))
	if err != nil {
		return err
	}
	if result.Proof == nil {
		return fmt.Errorf("run result has no proof to hash")
	}

	hasher := integrity.NewWithAlgorithm(integrity.Algorithm(c.String("algorithm")))
	resp := HashResponse{
		RunHash:   hasher.RunHash(result.Proof.Events),
		HashChain: hasher.Chain(c.String("identity"), result.Mode, result.Proof.ClientStartedAt, result.Proof.Events),
		Algorithm: string(hasher.Algorithm()),
	}

	return r.Render(resp)
}
