package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vk/optlang/internal/ctxlog"
	"github.com/vk/optlang/internal/data"
	"github.com/vk/optlang/internal/diag"
	"github.com/vk/optlang/internal/expand"
	"github.com/vk/optlang/internal/export"
	"github.com/vk/optlang/internal/fsutil"
	"github.com/vk/optlang/internal/parse"
)

// App encapsulates one model run: configuration, logger and the workspace
// the pipeline stages share.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	cfg    *Config
	ws     *expand.Workspace
	rep    *diag.Reporter
}

// New constructs an App with its own isolated logger and an empty workspace.
func New(outW io.Writer, cfg *Config) *App {
	return &App{
		outW:   outW,
		logger: newLogger(cfg.LogLevel, cfg.LogFormat, outW),
		cfg:    cfg,
		ws:     expand.NewWorkspace(),
		rep:    diag.NewReporter(),
	}
}

// Workspace returns the session workspace. This is primarily for testing.
func (a *App) Workspace() *expand.Workspace {
	return a.ws
}

// Reporter returns the session reporter. This is primarily for testing.
func (a *App) Reporter() *diag.Reporter {
	return a.rep
}

// Run drives the full pipeline: parse the model file, load data files,
// expand every template, write the MPS output.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.cfg.RunManifest != "" {
		if err := loadManifest(a.cfg.RunManifest, a.cfg); err != nil {
			return err
		}
		a.logger.Debug("Run manifest applied.", "path", a.cfg.RunManifest)
	}
	if a.cfg.ModelPath == "" {
		return fmt.Errorf("no model path given on the command line or in the manifest")
	}

	if err := a.LoadModel(ctx, a.cfg.ModelPath); err != nil {
		return err
	}
	dataFiles, err := resolveDataFiles(a.cfg.DataPaths)
	if err != nil {
		return err
	}
	for _, path := range dataFiles {
		if err := a.LoadData(ctx, path); err != nil {
			return err
		}
	}
	if a.failOnRecords() {
		return fmt.Errorf("model has %d error(s), see log", len(a.rep.Records()))
	}

	if err := a.Expand(ctx); err != nil {
		return err
	}
	if a.failOnRecords() {
		return fmt.Errorf("expansion reported %d error(s), see log", len(a.rep.Records()))
	}

	return a.Export(ctx)
}

// LoadModel parses one model source file into the workspace.
func (a *App) LoadModel(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading model file: %w", err)
	}
	a.logger.Info("Loading model.", "path", path)
	parser := parse.NewParser(a.ws, a.rep)
	return parser.ParseSource(ctx, string(src))
}

// LoadData applies one data file to the parsed model.
func (a *App) LoadData(ctx context.Context, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading data file: %w", err)
	}
	a.logger.Info("Loading data.", "path", path)
	return data.Load(ctx, a.ws.Model, string(src), a.rep)
}

// Expand runs the expansion engine over every parsed template.
func (a *App) Expand(ctx context.Context) error {
	engine := expand.NewEngine(a.ws, a.rep)
	return engine.ExpandAll(ctx)
}

// Export writes the expanded model as MPS to the configured output.
func (a *App) Export(ctx context.Context) error {
	name := a.cfg.Name
	if name == "" {
		name = modelName(a.cfg.ModelPath)
	}
	out := a.outW
	if a.cfg.OutputPath != "" {
		f, err := os.Create(a.cfg.OutputPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return export.WriteMPS(ctx, out, a.ws, name)
}

// failOnRecords logs every accumulated diagnostic and reports whether any
// exist.
func (a *App) failOnRecords() bool {
	if !a.rep.HasErrors() {
		return false
	}
	for _, rec := range a.rep.Records() {
		a.logger.Error("Model error.", "line", rec.Line, "message", rec.Message)
	}
	return true
}

// resolveDataFiles expands directory entries into the .dat files they
// contain, keeping explicit file paths as given.
func resolveDataFiles(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("data path %q: %w", p, err)
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		found, err := fsutil.FindFilesByExtension(p, ".dat")
		if err != nil {
			return nil, fmt.Errorf("scanning data directory %q: %w", p, err)
		}
		out = append(out, found...)
	}
	return out, nil
}

func modelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
