// Package doc implements the paperwork detective: it ingests the
// design report and extracts the claims the cross-reference step
// verifies against the repository.
package doc

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/bkyoung/automaton-auditor/internal/domain"
	"github.com/bkyoung/automaton-auditor/internal/usecase/audit"
	"github.com/bkyoung/automaton-auditor/internal/usecase/gather"
)

// depthKeywords are the architectural terms whose presence signals the
// report goes beyond surface description.
var depthKeywords = []string{
	"dialectical synthesis",
	"fan-in",
	"fan-out",
	"metacognition",
	"state synchronization",
	"trade-off",
	"rationale",
	"architectural",
}

// filePathClaim matches source-file references such as src/graph.py or
// lib/tools/runner.py inside prose.
var filePathClaim = regexp.MustCompile(`\b[\w./-]+/[\w-]+\.(?:py|go|md|yaml|yml|toml|json)\b`)

// Analyst collects design-report evidence under the "doc" source key.
type Analyst struct{}

func NewAnalyst() *Analyst {
	return &Analyst{}
}

func (a *Analyst) Source() string { return gather.SourceDoc }

// Investigate reads the report named by the request and runs one
// protocol per report-targeted rubric dimension.
func (a *Analyst) Investigate(_ context.Context, req audit.Request, rubric domain.Rubric) (audit.DetectiveResult, error) {
	if req.ReportPath == "" {
		return audit.DetectiveResult{}, fmt.Errorf("no design report path provided")
	}
	data, err := os.ReadFile(req.ReportPath)
	if err != nil {
		return audit.DetectiveResult{}, fmt.Errorf("read report: %w", err)
	}
	body := string(data)

	var evidence []domain.Evidence
	for _, dim := range rubric.Dimensions {
		if dim.TargetArtifact != domain.ArtifactReport {
			continue
		}
		switch dim.ID {
		case "theoretical_depth":
			evidence = append(evidence, checkDepth(dim.ID, req.ReportPath, body))
		case domain.DimensionReportAccuracy:
			evidence = append(evidence, extractClaims(dim.ID, req.ReportPath, body))
		default:
			evidence = append(evidence, domain.NewErrorEvidence(
				dim.ID,
				fmt.Sprintf("report protocol for %s", dim.ID),
				req.ReportPath,
				fmt.Errorf("no report protocol implemented"),
			))
		}
	}

	return audit.DetectiveResult{Source: gather.SourceDoc, Evidence: evidence}, nil
}

// checkDepth counts architectural-keyword occurrences. A keyword only
// counts as substantive when its surrounding sentence is longer than a
// bare heading.
func checkDepth(dimID, location, body string) domain.Evidence {
	lower := strings.ToLower(body)

	total := 0
	substantive := 0
	matched := make([]string, 0, len(depthKeywords))
	for _, keyword := range depthKeywords {
		count := strings.Count(lower, keyword)
		if count == 0 {
			continue
		}
		total += count
		matched = append(matched, keyword)
		for idx := strings.Index(lower, keyword); idx >= 0; {
			if len(surroundingLine(lower, idx)) > len(keyword)+40 {
				substantive++
			}
			next := strings.Index(lower[idx+len(keyword):], keyword)
			if next < 0 {
				break
			}
			idx += len(keyword) + next
		}
	}

	confidence := 0.3
	if substantive > 0 {
		confidence = 0.9
	} else if total > 0 {
		confidence = 0.7
	}

	content, _ := json.Marshal(map[string]any{
		"totalOccurrences":       total,
		"substantiveOccurrences": substantive,
		"matchedKeywords":        matched,
	})

	ev, err := domain.NewEvidence(domain.EvidenceInput{
		CriterionID: dimID,
		Goal:        "Search the report for architectural depth indicators",
		Found:       total > 0,
		Content:     string(content),
		Location:    location,
		Rationale:   fmt.Sprintf("Found %d keyword occurrences, %d substantive.", total, substantive),
		Confidence:  confidence,
	})
	if err != nil {
		return domain.NewErrorEvidence(dimID, "search report for depth indicators", location, err)
	}
	return ev
}

// extractClaims publishes every file path the report asserts exists.
// The content is the ClaimPayload schema the cross-reference step
// consumes.
func extractClaims(dimID, location, body string) domain.Evidence {
	seen := make(map[string]bool)
	var claims []string
	for _, match := range filePathClaim.FindAllString(body, -1) {
		if seen[match] {
			continue
		}
		seen[match] = true
		claims = append(claims, match)
	}

	content, _ := json.Marshal(gather.ClaimPayload{ClaimedPaths: claims})
	confidence := 0.0
	if len(claims) > 0 {
		confidence = 0.9
	}

	ev, err := domain.NewEvidence(domain.EvidenceInput{
		CriterionID: dimID,
		Goal:        "Extract file path claims for cross-referencing",
		Found:       len(claims) > 0,
		Content:     string(content),
		Location:    location,
		Rationale:   fmt.Sprintf("Extracted %d file path claims. Awaiting cross-reference.", len(claims)),
		Confidence:  confidence,
	})
	if err != nil {
		return domain.NewErrorEvidence(dimID, "extract file path claims", location, err)
	}
	return ev
}

func surroundingLine(body string, idx int) string {
	start := strings.LastIndexByte(body[:idx], '\n') + 1
	end := strings.IndexByte(body[idx:], '\n')
	if end < 0 {
		return body[start:]
	}
	return body[start : idx+end]
}
