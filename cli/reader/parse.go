package reader

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/shirogane-dev/handseal/schemas"
	"github.com/shirogane-dev/handseal/types"
)

// ReadRunResult loads a run result document from a JSON file ("-" reads
// stdin), checks it against the embedded schema, and decodes it. Schema
// failures are reported before decode errors so malformed documents get
// a field-level message instead of a type mismatch.
func ReadRunResult(path string) (*types.RunResult, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read run result: %w", err)
	}

	if err := schemas.ValidateBytes(schemas.RunResultSchema, data); err != nil {
		return nil, fmt.Errorf("run result does not match schema: %w", err)
	}

	var result types.RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("invalid run result JSON: %w", err)
	}
	return &result, nil
}
