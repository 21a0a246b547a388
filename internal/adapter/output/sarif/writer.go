package sarif

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bkyoung/automaton-auditor/internal/domain"
	"github.com/bkyoung/automaton-auditor/internal/usecase/audit"
	"github.com/bkyoung/automaton-auditor/internal/usecase/gather"
)

// Writer exports audit findings as a SARIF 2.1.0 document so CI systems
// can surface failing rubric dimensions as code-scanning results.
type Writer struct {
	root string
}

// NewWriter creates a SARIF writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{root: dir}
}

// Write persists the audit findings to disk as a SARIF file.
func (w *Writer) Write(ctx context.Context, artifact audit.SARIFArtifact) (string, error) {
	if err := os.MkdirAll(w.root, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filePath := filepath.Join(w.root, fmt.Sprintf("audit-%s.sarif", artifact.RunID))

	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create sarif file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(w.convertToSARIF(artifact)); err != nil {
		return "", fmt.Errorf("failed to encode audit to sarif: %w", err)
	}

	return filePath, nil
}

// convertToSARIF maps failing rubric dimensions to SARIF results. A result
// is emitted per criterion that scored below the passing band, with evidence
// locations attached where the detectives recorded file references.
func (w *Writer) convertToSARIF(artifact audit.SARIFArtifact) map[string]interface{} {
	results := make([]map[string]interface{}, 0, len(artifact.Criteria))
	rules := make([]map[string]interface{}, 0, len(artifact.Criteria))

	for _, criterion := range artifact.Criteria {
		rules = append(rules, map[string]interface{}{
			"id":               criterion.DimensionID,
			"name":             criterion.DimensionName,
			"shortDescription": map[string]interface{}{"text": criterion.DimensionName},
		})

		if criterion.FinalScore >= 4 {
			continue
		}

		messageText := criterion.Remediation
		if messageText == "" {
			messageText = fmt.Sprintf("%s scored %d/5", criterion.DimensionName, criterion.FinalScore)
		}

		result := map[string]interface{}{
			"ruleId": criterion.DimensionID,
			"level":  convertScore(criterion.FinalScore),
			"message": map[string]interface{}{
				"text": messageText,
			},
		}

		if locations := evidenceLocations(artifact.Evidence, criterion.DimensionID); len(locations) > 0 {
			result["locations"] = locations
		}
		if criterion.DissentSummary != "" {
			result["properties"] = map[string]interface{}{
				"dissent": criterion.DissentSummary,
			}
		}

		results = append(results, result)
	}

	return map[string]interface{}{
		"version": "2.1.0",
		"$schema": "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		"runs": []map[string]interface{}{
			{
				"tool": map[string]interface{}{
					"driver": map[string]interface{}{
						"name":            "automaton-auditor",
						"informationUri":  "https://github.com/bkyoung/automaton-auditor",
						"version":         "1.0.0",
						"semanticVersion": "1.0.0",
						"rules":           rules,
					},
				},
				"results": results,
				"properties": map[string]interface{}{
					"runId":   artifact.RunID,
					"repoUrl": artifact.RepoURL,
				},
			},
		},
	}
}

// evidenceLocations extracts file-backed locations recorded against a
// dimension. Synthetic locations like "not_found" or cross-reference keys
// are skipped; SARIF consumers expect real artifact URIs.
func evidenceLocations(evidence gather.EvidenceSet, dimensionID string) []map[string]interface{} {
	locations := make([]map[string]interface{}, 0, 4)
	seen := map[string]bool{}

	for _, ev := range gather.CollectEvidence(evidence, dimensionID) {
		if !ev.Found || ev.Location == domain.LocationNotFound {
			continue
		}
		uri, line := splitLocation(ev.Location)
		if uri == "" || !strings.Contains(uri, ".") || seen[ev.Location] {
			continue
		}
		seen[ev.Location] = true

		physicalLocation := map[string]interface{}{
			"artifactLocation": map[string]interface{}{
				"uri": uri,
			},
		}
		if line >= 1 {
			physicalLocation["region"] = map[string]interface{}{
				"startLine": line,
				"endLine":   line,
			}
		}
		locations = append(locations, map[string]interface{}{
			"physicalLocation": physicalLocation,
		})
		if len(locations) == 4 {
			break
		}
	}

	return locations
}

// splitLocation parses "path/to/file.py:12" into its path and line parts.
func splitLocation(location string) (string, int) {
	idx := strings.LastIndex(location, ":")
	if idx < 0 {
		return location, 0
	}
	line, err := strconv.Atoi(location[idx+1:])
	if err != nil {
		return location, 0
	}
	return location[:idx], line
}

// convertScore maps rubric scores to SARIF levels.
func convertScore(score int) string {
	switch {
	case score <= 2:
		return "error"
	case score == 3:
		return "warning"
	default:
		return "note"
	}
}
