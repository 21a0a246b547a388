// Package report computes the overall verdict and serializes the
// audit into the markdown contract downstream graders parse.
package report

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bkyoung/automaton-auditor/internal/domain"
	"github.com/bkyoung/automaton-auditor/internal/usecase/remediation"
)

type clock func() time.Time

// Assembler validates and composes the final AuditReport.
type Assembler struct {
	now clock
}

// NewAssembler constructs an Assembler with a timestamp supplier.
func NewAssembler(now clock) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{now: now}
}

// AssembleInput carries everything the assembler needs beyond the
// scored criteria themselves.
type AssembleInput struct {
	RepoURL       string
	CommitHash    string
	ModelMetadata map[string]string
	Criteria      []domain.CriterionResult
}

// Assemble computes the overall score as the arithmetic mean of the
// criterion scores, builds the executive summary and remediation
// plan, and returns the validated report.
func (a *Assembler) Assemble(input AssembleInput) (domain.AuditReport, error) {
	overall := meanScore(input.Criteria)
	summary := a.buildExecutiveSummary(input, overall)
	plan := remediation.BuildPlan(input.Criteria)

	return domain.NewAuditReport(domain.AuditReportInput{
		RepoURL:          input.RepoURL,
		CommitHash:       input.CommitHash,
		ModelMetadata:    input.ModelMetadata,
		OverallScore:     overall,
		ExecutiveSummary: summary,
		Criteria:         input.Criteria,
		RemediationPlan:  plan,
	})
}

func (a *Assembler) buildExecutiveSummary(input AssembleInput, overall float64) string {
	commit := input.CommitHash
	if commit == "" {
		commit = "N/A"
	}

	parts := []string{
		"# Automaton Auditor — Final Verdict",
		"",
		"## Audit Metadata",
		"| Field | Value |",
		"|-------|-------|",
		fmt.Sprintf("| Repository | %s |", input.RepoURL),
		fmt.Sprintf("| Git Commit | %s |", commit),
		fmt.Sprintf("| Audit Date | %s |", a.now().Format(time.RFC3339)),
	}

	if len(input.ModelMetadata) > 0 {
		parts = append(parts,
			fmt.Sprintf("| Detective Model | %s |", metadataValue(input.ModelMetadata, "detective")),
			fmt.Sprintf("| Judge Model | %s |", metadataValue(input.ModelMetadata, "judge")),
			"| Synthesis | deterministic |",
		)
	}

	parts = append(parts,
		"",
		"## Executive Summary",
		"",
		fmt.Sprintf("**Overall Score:** %.2f/5.0", overall),
		"",
	)

	var high, medium, low int
	for _, cr := range input.Criteria {
		switch {
		case cr.FinalScore >= 4:
			high++
		case cr.FinalScore >= 2:
			medium++
		default:
			low++
		}
	}
	parts = append(parts,
		fmt.Sprintf("**Score Distribution:** %d high (4-5), %d medium (2-3), %d low (1)", high, medium, low),
		"",
	)

	var critical []domain.CriterionResult
	for _, cr := range input.Criteria {
		if cr.FinalScore <= 2 && strings.Contains(strings.ToLower(displayName(cr)), "security") {
			critical = append(critical, cr)
		}
	}
	if len(critical) > 0 {
		parts = append(parts, "**Critical Issues:**")
		for _, cr := range critical {
			parts = append(parts, fmt.Sprintf("- %s: Score %d", displayName(cr), cr.FinalScore))
		}
		parts = append(parts, "")
	}

	var strengths []domain.CriterionResult
	for _, cr := range input.Criteria {
		if cr.FinalScore >= 4 {
			strengths = append(strengths, cr)
		}
	}
	if len(strengths) > 3 {
		strengths = strengths[:3]
	}
	if len(strengths) > 0 {
		parts = append(parts, "**Strengths:**")
		for _, cr := range strengths {
			parts = append(parts, fmt.Sprintf("- %s: Score %d", displayName(cr), cr.FinalScore))
		}
	}

	return strings.Join(parts, "\n")
}

// RenderMarkdown serializes the report in the fixed structural order
// graders depend on: summary, per-criterion sections, remediation plan.
func RenderMarkdown(report domain.AuditReport) string {
	lines := []string{
		report.ExecutiveSummary,
		"",
	}

	for _, cr := range report.Criteria {
		lines = append(lines,
			fmt.Sprintf("## %s — Score: %d/5", displayName(cr), cr.FinalScore),
			"",
			"### Judicial Opinions",
		)
		for _, op := range cr.JudgeOpinions {
			lines = append(lines, fmt.Sprintf("- **%s** (Score: %d/5): %s", op.Judge, op.Score, op.Argument))
		}
		lines = append(lines, "")

		if len(cr.RulesFired) > 0 {
			lines = append(lines, fmt.Sprintf("### Rules Applied: %s", strings.Join(cr.RulesFired, ", ")), "")
		}
		if cr.DissentSummary != "" {
			lines = append(lines, "### Dissent", cr.DissentSummary, "")
		}
		if cr.Remediation != "" {
			lines = append(lines, "### Remediation", cr.Remediation, "")
		}
		lines = append(lines, "---", "")
	}

	lines = append(lines, report.RemediationPlan)

	return strings.Join(lines, "\n")
}

// displayName falls back to a humanized dimension ID when the rubric
// carried no display name.
func displayName(cr domain.CriterionResult) string {
	if cr.DimensionName != "" {
		return cr.DimensionName
	}
	caser := cases.Title(language.English)
	return caser.String(strings.ReplaceAll(cr.DimensionID, "_", " "))
}

func metadataValue(metadata map[string]string, key string) string {
	if v, ok := metadata[key]; ok && v != "" {
		return v
	}
	return "N/A"
}

func meanScore(criteria []domain.CriterionResult) float64 {
	if len(criteria) == 0 {
		return 0
	}
	total := 0
	for _, cr := range criteria {
		total += cr.FinalScore
	}
	return float64(total) / float64(len(criteria))
}
