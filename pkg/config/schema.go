package config

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// getinfoSchema and showConfigSchema constrain the shape of the two
// read-only CLI projections of spec §6 (`getinfo`, `show-config`),
// grounded on the compileSchema/AddResource pattern in
// _examples/githubnext-gh-aw/pkg/parser/schema.go.
//
//go:embed schemas/getinfo.json
var getinfoSchema string

//go:embed schemas/show_config.json
var showConfigSchema string

const (
	getinfoSchemaURL    = "https://hopic-ci.example/schemas/getinfo.json"
	showConfigSchemaURL = "https://hopic-ci.example/schemas/show-config.json"
)

var (
	compiledGetinfo    *jsonschema.Schema
	compiledShowConfig *jsonschema.Schema
)

func compileEmbedded(schemaJSON, url string) (*jsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal([]byte(schemaJSON), &doc); err != nil {
		return nil, fmt.Errorf("config: parsing embedded schema %s: %w", url, err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("config: registering schema resource %s: %w", url, err)
	}
	return compiler.Compile(url)
}

// ValidateGetinfoProjection checks the map produced for the `getinfo`
// subcommand against its fixed shape.
func ValidateGetinfoProjection(projection map[string]any) error {
	if compiledGetinfo == nil {
		schema, err := compileEmbedded(getinfoSchema, getinfoSchemaURL)
		if err != nil {
			return err
		}
		compiledGetinfo = schema
	}
	return compiledGetinfo.Validate(projection)
}

// ValidateShowConfigProjection checks the map produced for the
// `show-config` subcommand against its fixed shape.
func ValidateShowConfigProjection(projection map[string]any) error {
	if compiledShowConfig == nil {
		schema, err := compileEmbedded(showConfigSchema, showConfigSchemaURL)
		if err != nil {
			return err
		}
		compiledShowConfig = schema
	}
	return compiledShowConfig.Validate(projection)
}
