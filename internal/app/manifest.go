package app

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// manifest is the on-disk shape of a run manifest. All fields are optional;
// values given on the command line win over manifest values.
type manifest struct {
	Model  *string   `hcl:"model,optional"`
	Data   *[]string `hcl:"data,optional"`
	Output *string   `hcl:"output,optional"`
	Name   *string   `hcl:"name,optional"`
}

// loadManifest parses an HCL run manifest and merges it into cfg. Fields
// already set on cfg are kept.
func loadManifest(path string, cfg *Config) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("parsing run manifest %q: %w", path, diags)
	}
	var m manifest
	if diags := gohcl.DecodeBody(file.Body, nil, &m); diags.HasErrors() {
		return fmt.Errorf("decoding run manifest %q: %w", path, diags)
	}
	if cfg.ModelPath == "" && m.Model != nil {
		cfg.ModelPath = *m.Model
	}
	if len(cfg.DataPaths) == 0 && m.Data != nil {
		cfg.DataPaths = *m.Data
	}
	if cfg.OutputPath == "" && m.Output != nil {
		cfg.OutputPath = *m.Output
	}
	if cfg.Name == "" && m.Name != nil {
		cfg.Name = *m.Name
	}
	return nil
}
