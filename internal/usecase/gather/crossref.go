package gather

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/bkyoung/automaton-auditor/internal/domain"
)

// ClaimPayload is the content schema the doc detective uses to publish
// file-path claims extracted from the design report.
type ClaimPayload struct {
	ClaimedPaths []string `json:"claimedPaths"`
}

// CrossReference detects hallucinated file claims: paths the design
// report asserts exist but the repository investigation never saw.
//
// actualFiles is the repo detective's filesystem walk; when it is empty
// the check falls back to filenames harvested from evidence location
// strings, and the synthesized records say so with lower confidence.
func CrossReference(evidences EvidenceSet, actualFiles []string) []domain.Evidence {
	walked := len(actualFiles) > 0

	known := make(map[string]bool, len(actualFiles))
	for _, file := range actualFiles {
		known[path.Base(normalize(file))] = true
	}
	if !walked {
		for _, ev := range evidences[SourceRepo] {
			if name, ok := filenameFromLocation(ev.Location); ok {
				known[name] = true
			}
		}
	}

	method := "evidence location strings"
	claimConfidence := 0.6
	summaryConfidence := 0.7
	if walked {
		method = "full filesystem walk"
		claimConfidence = 0.85
		summaryConfidence = 0.9
	}

	var crossRef []domain.Evidence
	for _, ev := range evidences[SourceDoc] {
		if ev.CriterionID != domain.DimensionReportAccuracy || ev.Content == "" {
			continue
		}
		var payload ClaimPayload
		if err := json.Unmarshal([]byte(ev.Content), &payload); err != nil {
			continue
		}
		for _, claimed := range payload.ClaimedPaths {
			name := path.Base(normalize(claimed))
			if known[name] {
				continue
			}
			crossRef = append(crossRef, domain.Evidence{
				CriterionID: domain.DimensionReportAccuracy,
				Goal:        fmt.Sprintf("HALLUCINATION: report claims %q exists", claimed),
				Found:       false,
				Content:     claimed,
				Location:    "cross_ref:" + claimed,
				Rationale: fmt.Sprintf(
					"Filename %q was not found among %d known repository files (verified via %s).",
					name, len(known), method),
				Confidence: claimConfidence,
			})
		}
	}

	if len(crossRef) > 0 {
		summary, _ := json.Marshal(map[string]any{
			"hallucinatedCount":  len(crossRef),
			"totalKnownFiles":    len(known),
			"verificationMethod": method,
		})
		crossRef = append(crossRef, domain.Evidence{
			CriterionID: domain.DimensionReportAccuracy,
			Goal:        "Cross-reference summary",
			Found:       true,
			Content:     string(summary),
			Location:    "cross_ref:summary",
			Rationale: fmt.Sprintf(
				"Found %d file paths claimed by the design report that do not match any of %d files in the repository (verified via %s).",
				len(crossRef), len(known), method),
			Confidence: summaryConfidence,
		})
	}

	return crossRef
}

func normalize(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// filenameFromLocation extracts a plausible filename from an evidence
// location such as "src/state.py:42". URLs and sentinels are skipped.
func filenameFromLocation(location string) (string, bool) {
	if location == "" || location == domain.LocationNotFound ||
		strings.HasPrefix(location, "http") || strings.HasPrefix(location, "cross_ref") {
		return "", false
	}
	name := path.Base(normalize(location))
	if idx := strings.Index(name, ":"); idx > 0 {
		name = name[:idx]
	}
	if name == "" || !strings.Contains(name, ".") {
		return "", false
	}
	return name, true
}
