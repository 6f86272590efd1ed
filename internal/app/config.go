package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModelPath   string   // model source file
	DataPaths   []string // data files, or directories searched for .dat files
	OutputPath  string   // MPS destination; empty writes to the app's output writer
	RunManifest string   // optional HCL manifest supplying the fields above
	Name        string   // model name used in the MPS header

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ModelPath == "" && cfg.RunManifest == "" {
		return nil, errors.New("a model path or a run manifest is required")
	}

	return &cfg, nil
}
