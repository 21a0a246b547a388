package config

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bkyoung/automaton-auditor/internal/domain"
)

// DefaultRubric returns the built-in evaluation rubric. It mirrors the
// dimensions the audit was designed around: forensic history, state and
// graph construction, tool safety, output discipline, and report honesty.
func DefaultRubric() domain.Rubric {
	return domain.Rubric{
		Dimensions: []domain.Dimension{
			{ID: "git_forensic_analysis", Name: "Git Forensic Analysis", TargetArtifact: domain.ArtifactRepo},
			{ID: "state_management_rigor", Name: "State Management Rigor", TargetArtifact: domain.ArtifactRepo},
			{ID: domain.DimensionGraphOrchestration, Name: "Graph Orchestration", TargetArtifact: domain.ArtifactRepo},
			{ID: domain.DimensionSafeToolEngineering, Name: "Safe Tool Engineering", TargetArtifact: domain.ArtifactRepo},
			{ID: "structured_output_enforcement", Name: "Structured Output Enforcement", TargetArtifact: domain.ArtifactRepo},
			{ID: "judicial_nuance", Name: "Judicial Nuance", TargetArtifact: domain.ArtifactRepo},
			{ID: "chief_justice_synthesis", Name: "Chief Justice Synthesis", TargetArtifact: domain.ArtifactRepo},
			{ID: "theoretical_depth", Name: "Theoretical Depth", TargetArtifact: domain.ArtifactReport},
			{ID: domain.DimensionReportAccuracy, Name: "Report Accuracy", TargetArtifact: domain.ArtifactReport},
		},
		Synthesis: domain.SynthesisConfig{
			ViolationPhrases: domain.DefaultViolationPhrases(),
		},
	}
}

// RubricLoader loads the rubric from an optional YAML file, falling back
// to the built-in rubric when no path is configured.
type RubricLoader struct {
	path string
}

// NewRubricLoader constructs a loader for the given path. An empty path
// selects the built-in rubric.
func NewRubricLoader(path string) *RubricLoader {
	return &RubricLoader{path: path}
}

// Load reads and validates the rubric.
func (l *RubricLoader) Load(ctx context.Context) (domain.Rubric, error) {
	if l.path == "" {
		return DefaultRubric(), nil
	}

	raw, err := os.ReadFile(l.path)
	if err != nil {
		return domain.Rubric{}, domain.NewError(domain.KindConfiguration, "read rubric %s: %v", l.path, err)
	}

	var rubric domain.Rubric
	if err := yaml.Unmarshal(raw, &rubric); err != nil {
		return domain.Rubric{}, domain.NewError(domain.KindConfiguration, "parse rubric %s: %v", l.path, err)
	}

	// A custom rubric without its own phrase list keeps the curated default.
	if len(rubric.Synthesis.ViolationPhrases) == 0 {
		rubric.Synthesis.ViolationPhrases = domain.DefaultViolationPhrases()
	}

	if err := rubric.Validate(); err != nil {
		return domain.Rubric{}, fmt.Errorf("rubric %s: %w", l.path, err)
	}

	return rubric, nil
}
