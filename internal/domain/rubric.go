package domain

// Artifact targets tell detectives which dimensions they own.
const (
	ArtifactRepo   = "github_repo"
	ArtifactReport = "design_report"
)

// Well-known dimension identifiers with special synthesis or
// cross-referencing behavior.
const (
	DimensionSafeToolEngineering = "safe_tool_engineering"
	DimensionGraphOrchestration  = "graph_orchestration"
	DimensionReportAccuracy      = "report_accuracy"
)

// Dimension is one scored evaluation axis from the rubric.
type Dimension struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	TargetArtifact string `json:"targetArtifact" yaml:"targetArtifact"`
}

// SynthesisConfig parameterizes the synthesis engine. The rule set
// itself is fixed; only curated phrase lists are configuration data.
type SynthesisConfig struct {
	// ViolationPhrases trigger the security override when found in the
	// Prosecutor's argument. This is a narrow, curated list: matching on
	// a bare "security" keyword previously capped scores whenever a
	// lenient judge praised security favorably.
	ViolationPhrases []string `json:"violationPhrases,omitempty" yaml:"violationPhrases,omitempty"`
}

// DefaultViolationPhrases returns the curated security-violation phrases.
func DefaultViolationPhrases() []string {
	return []string{
		"os.system() detected",
		"eval() call",
		"exec() call",
		"injection risk",
		"arbitrary command",
		"unsanitized input",
		"fundamentally unsafe",
	}
}

// Rubric is the ordered list of dimensions the audit scores against,
// plus the synthesis configuration block.
type Rubric struct {
	Dimensions []Dimension     `json:"dimensions" yaml:"dimensions"`
	Synthesis  SynthesisConfig `json:"synthesis,omitempty" yaml:"synthesis,omitempty"`
}

// Validate checks rubric shape: at least one dimension, safe unique IDs.
func (r Rubric) Validate() error {
	if len(r.Dimensions) == 0 {
		return NewError(KindConfiguration, "rubric must declare at least one dimension")
	}
	seen := make(map[string]bool, len(r.Dimensions))
	for _, dim := range r.Dimensions {
		if err := ValidateCriterionID(dim.ID); err != nil {
			return err
		}
		if dim.Name == "" {
			return NewError(KindConfiguration, "rubric dimension %s has no name", dim.ID)
		}
		if seen[dim.ID] {
			return NewError(KindConfiguration, "rubric dimension %s declared twice", dim.ID)
		}
		seen[dim.ID] = true
	}
	return nil
}
