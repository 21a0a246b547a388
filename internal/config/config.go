package config

// Config represents the full application configuration.
type Config struct {
	Output        OutputConfig        `yaml:"output"`
	Rubric        RubricConfig        `yaml:"rubric"`
	Evidence      EvidenceConfig      `yaml:"evidence"`
	Models        ModelsConfig        `yaml:"models"`
	Redaction     RedactionConfig     `yaml:"redaction"`
	Store         StoreConfig         `yaml:"store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// RedactionConfig toggles secret scrubbing of evidence snippets.
type RedactionConfig struct {
	Enabled bool `yaml:"enabled"`
}

// OutputConfig configures where audit artifacts are written.
type OutputConfig struct {
	Directory string `yaml:"directory"`

	// SARIF toggles the additional SARIF export next to the markdown verdict.
	SARIF bool `yaml:"sarif"`
}

// RubricConfig points at an external rubric definition. When Path is empty
// the built-in rubric is used.
type RubricConfig struct {
	Path string `yaml:"path"`
}

// EvidenceConfig configures the raw evidence dump.
type EvidenceConfig struct {
	Enabled bool `yaml:"enabled"`
}

// ModelsConfig names the analysis engines recorded in the report metadata.
type ModelsConfig struct {
	Detective string `yaml:"detective"`
	Judge     string `yaml:"judge"`
}

// StoreConfig configures the persistence layer.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures pipeline logging.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`  // debug, info, error
	Format  string `yaml:"format"` // json, human
}

// Merge combines multiple configuration instances, prioritising the latter ones.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	result.Output = chooseOutput(base.Output, overlay.Output)
	result.Rubric = chooseRubric(base.Rubric, overlay.Rubric)
	result.Evidence = chooseEvidence(base.Evidence, overlay.Evidence)
	result.Models = chooseModels(base.Models, overlay.Models)
	result.Redaction = chooseRedaction(base.Redaction, overlay.Redaction)
	result.Store = chooseStore(base.Store, overlay.Store)
	result.Observability = chooseObservability(base.Observability, overlay.Observability)

	return result
}

func chooseOutput(base, overlay OutputConfig) OutputConfig {
	if overlay.Directory != "" || overlay.SARIF {
		return overlay
	}
	return base
}

func chooseRubric(base, overlay RubricConfig) RubricConfig {
	if overlay.Path != "" {
		return overlay
	}
	return base
}

func chooseEvidence(base, overlay EvidenceConfig) EvidenceConfig {
	if overlay.Enabled {
		return overlay
	}
	return base
}

func chooseModels(base, overlay ModelsConfig) ModelsConfig {
	result := base
	if overlay.Detective != "" {
		result.Detective = overlay.Detective
	}
	if overlay.Judge != "" {
		result.Judge = overlay.Judge
	}
	return result
}

func chooseRedaction(base, overlay RedactionConfig) RedactionConfig {
	if overlay.Enabled {
		return overlay
	}
	return base
}

func chooseStore(base, overlay StoreConfig) StoreConfig {
	if overlay.Enabled || overlay.Path != "" {
		return overlay
	}
	return base
}

func chooseObservability(base, overlay ObservabilityConfig) ObservabilityConfig {
	result := base
	if overlay.Logging.Enabled || overlay.Logging.Level != "" || overlay.Logging.Format != "" {
		result.Logging = overlay.Logging
	}
	return result
}
