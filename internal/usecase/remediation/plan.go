package remediation

import (
	"fmt"
	"strings"

	"github.com/bkyoung/automaton-auditor/internal/domain"
)

// BuildPlan groups every criterion into three fixed severity buckets
// and concatenates their remediation text under priority headers.
// Criteria keep their rubric order within each bucket.
func BuildPlan(criteria []domain.CriterionResult) string {
	parts := []string{
		"# Comprehensive Remediation Plan",
		"",
		"## Priority 1: Critical Issues (Score <= 2)",
	}

	for _, cr := range criteria {
		if cr.FinalScore <= 2 {
			parts = append(parts, fmt.Sprintf("### %s", cr.DimensionName), cr.Remediation, "")
		}
	}

	parts = append(parts, "## Priority 2: Improvements (Score 2-3)")
	for _, cr := range criteria {
		if cr.FinalScore > 2 && cr.FinalScore < 4 {
			parts = append(parts, fmt.Sprintf("### %s", cr.DimensionName), cr.Remediation, "")
		}
	}

	parts = append(parts, "## Priority 3: Enhancements (Score >= 4)")
	var high []domain.CriterionResult
	for _, cr := range criteria {
		if cr.FinalScore >= 4 {
			high = append(high, cr)
		}
	}
	if len(high) > 0 {
		parts = append(parts, "These areas meet requirements but could be enhanced:")
		for _, cr := range high {
			parts = append(parts, fmt.Sprintf("- %s: %s", cr.DimensionName, cr.Remediation))
		}
	}

	return strings.Join(parts, "\n")
}
