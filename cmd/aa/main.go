package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bkyoung/automaton-auditor/internal/adapter/cli"
	docdetective "github.com/bkyoung/automaton-auditor/internal/adapter/detective/doc"
	repodetective "github.com/bkyoung/automaton-auditor/internal/adapter/detective/repo"
	staticjudge "github.com/bkyoung/automaton-auditor/internal/adapter/judge/static"
	"github.com/bkyoung/automaton-auditor/internal/adapter/observability"
	jsonout "github.com/bkyoung/automaton-auditor/internal/adapter/output/json"
	"github.com/bkyoung/automaton-auditor/internal/adapter/output/markdown"
	"github.com/bkyoung/automaton-auditor/internal/adapter/output/sarif"
	"github.com/bkyoung/automaton-auditor/internal/adapter/store/sqlite"
	"github.com/bkyoung/automaton-auditor/internal/config"
	"github.com/bkyoung/automaton-auditor/internal/determinism"
	"github.com/bkyoung/automaton-auditor/internal/redaction"
	"github.com/bkyoung/automaton-auditor/internal/usecase/audit"
	"github.com/bkyoung/automaton-auditor/internal/version"
)

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	// Create cancellable context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(config.LoaderOptions{
		ConfigPaths: defaultConfigPaths(),
		FileName:    "aa",
		EnvPrefix:   "AA",
	})
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger := buildLogger(cfg.Observability)

	deps := audit.Deps{
		Detectives: []audit.Detective{
			repodetective.NewInvestigator(),
			docdetective.NewAnalyst(),
		},
		Judges: staticjudge.Bench(),
		Rubric: config.NewRubricLoader(cfg.Rubric.Path),
		Report: markdown.NewWriter(cfg.Output.Directory),
		RunID:  determinism.RunID,
	}
	if logger != nil {
		deps.Logger = logger
	}
	if cfg.Evidence.Enabled {
		deps.Evidence = jsonout.NewWriter(cfg.Output.Directory, nil)
	}
	if cfg.Output.SARIF {
		deps.SARIF = sarif.NewWriter(cfg.Output.Directory)
	}
	if cfg.Redaction.Enabled {
		deps.Redactor = redaction.NewEngine()
	}

	if cfg.Store.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
			log.Printf("warning: failed to create store directory: %v", err)
		} else if store, err := sqlite.NewStore(cfg.Store.Path); err != nil {
			log.Printf("warning: failed to initialize store: %v", err)
		} else {
			deps.Store = store
			defer store.Close()
		}
	}

	orchestrator := audit.NewOrchestrator(deps)

	root := cli.NewRootCommand(cli.Dependencies{
		Auditor: orchestrator,
		ModelMetadata: map[string]string{
			"detective": cfg.Models.Detective,
			"judge":     cfg.Models.Judge,
		},
		Version: version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func defaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "aa"))
	}
	return paths
}

// buildLogger translates logging configuration into the observability
// adapter. A disabled config returns nil and the orchestrator falls
// back to the standard logger.
func buildLogger(cfg config.ObservabilityConfig) *observability.Logger {
	if !cfg.Logging.Enabled {
		return nil
	}

	level := observability.LogLevelInfo
	switch strings.ToLower(cfg.Logging.Level) {
	case "debug":
		level = observability.LogLevelDebug
	case "error":
		level = observability.LogLevelError
	}

	format := observability.LogFormatHuman
	if strings.EqualFold(cfg.Logging.Format, "json") {
		format = observability.LogFormatJSON
	}

	return observability.NewLogger(level, format)
}

// Compile-time interface compliance checks
var _ audit.Detective = (*repodetective.Investigator)(nil)
var _ audit.Detective = (*docdetective.Analyst)(nil)
var _ audit.RubricLoader = (*config.RubricLoader)(nil)
var _ audit.ReportWriter = (*markdown.Writer)(nil)
var _ audit.EvidenceWriter = (*jsonout.Writer)(nil)
var _ audit.SARIFWriter = (*sarif.Writer)(nil)
var _ audit.Redactor = (*redaction.Engine)(nil)
var _ audit.Store = (*sqlite.Store)(nil)
var _ audit.Logger = (*observability.Logger)(nil)
var _ cli.Auditor = (*audit.Orchestrator)(nil)
