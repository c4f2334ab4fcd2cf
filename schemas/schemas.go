// Package schemas embeds the persisted-record JSON Schemas and compiles
// them for runtime sanitization. Records read back from a store pass
// through schema validation before being re-typed; anything that fails
// is dropped rather than replayed.
package schemas

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed *.schema.json
var fs embed.FS

// Schema file names, relative to the package root.
const (
	RunResultSchema         = "run_result.schema.json"
	PendingSubmissionSchema = "pending_submission.schema.json"
)

const schemaURLBase = "https://handseal.shirogane.dev/schemas/"

var (
	compileOnce sync.Once
	compiled    map[string]*jsonschema.Schema
	compileErr  error
)

func compile() {
	files := []string{RunResultSchema, PendingSubmissionSchema}

	compiler := jsonschema.NewCompiler()
	for _, name := range files {
		payload, err := fs.ReadFile(name)
		if err != nil {
			compileErr = fmt.Errorf("read schema %s: %w", name, err)
			return
		}
		if err := compiler.AddResource(schemaURLBase+name, bytes.NewReader(payload)); err != nil {
			compileErr = fmt.Errorf("add schema resource %s: %w", name, err)
			return
		}
	}

	compiled = make(map[string]*jsonschema.Schema, len(files))
	for _, name := range files {
		schema, err := compiler.Compile(schemaURLBase + name)
		if err != nil {
			compileErr = fmt.Errorf("compile schema %s: %w", name, err)
			return
		}
		compiled[name] = schema
	}
}

// Compile returns the compiled schema for the given file name.
func Compile(name string) (*jsonschema.Schema, error) {
	compileOnce.Do(compile)
	if compileErr != nil {
		return nil, compileErr
	}
	schema, ok := compiled[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema: %s", name)
	}
	return schema, nil
}

// ValidateBytes validates raw JSON against the named schema.
func ValidateBytes(name string, data []byte) error {
	schema, err := Compile(name)
	if err != nil {
		return err
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("decode json for %s: %w", name, err)
	}

	if err := schema.Validate(value); err != nil {
		return fmt.Errorf("validate %s: %w", name, err)
	}
	return nil
}

// ValidateValue validates a decoded value against the named schema. The
// value is round-tripped through JSON so typed structs can be checked the
// same way raw documents are.
func ValidateValue(name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value for %s: %w", name, err)
	}
	return ValidateBytes(name, data)
}
