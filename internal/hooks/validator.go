package hooks

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Hook names, matching the embedded schema files.
const (
	HookGameEvent   = "game_event"
	HookKarmaChange = "karma_change"
	HookPlayerJoin  = "player_join"
	HookVote        = "vote"
)

// Validator checks inbound hook payloads against the embedded JSON Schemas
// before they reach the dispatcher.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator compiles the embedded schemas.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	names := []string{HookGameEvent, HookKarmaChange, HookPlayerJoin, HookVote}

	for _, name := range names {
		file := "schemas/" + name + ".schema.json"
		raw, err := schemaFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("missing embedded schema %s: %w", file, err)
		}
		if err := compiler.AddResource(file, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("failed to add schema %s: %w", file, err)
		}
	}

	v := &Validator{schemas: make(map[string]*jsonschema.Schema, len(names))}
	for _, name := range names {
		sch, err := compiler.Compile("schemas/" + name + ".schema.json")
		if err != nil {
			return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
		}
		v.schemas[name] = sch
	}
	return v, nil
}

// Validate checks body against the named hook schema.
func (v *Validator) Validate(name string, body []byte) error {
	sch, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown hook %q", name)
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("hook %s: %w", name, err)
	}
	return nil
}
