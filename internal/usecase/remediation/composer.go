// Package remediation turns scored criteria into actionable fix
// guidance: file-addressable items for weak dimensions and a
// prioritized whole-report plan.
package remediation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bkyoung/automaton-auditor/internal/domain"
)

const excerptLimit = 160

// dimensionAdvice is boilerplate guidance appended per dimension for
// any score below the passing threshold.
var dimensionAdvice = map[string]string{
	"state_management_rigor":            "Ensure state uses validated models with merge-safe reducers for parallel writes",
	domain.DimensionGraphOrchestration:  "Implement parallel fan-out/fan-in patterns for detectives and judges",
	"structured_output_enforcement":     "Enforce a structured output schema on every judge call",
	domain.DimensionSafeToolEngineering: "Route all shell interactions through argument-list subprocess calls inside a sandbox",
}

// Composer derives per-dimension remediation text from the critical
// persona's cited evidence and the pragmatic persona's guidance.
type Composer struct{}

func NewComposer() *Composer {
	return &Composer{}
}

// Compose returns remediation text for one dimension. Scores at or
// above 4 get a single sentence; lower scores get a de-duplicated,
// file-addressable item list.
func (c *Composer) Compose(dim domain.Dimension, finalScore int, opinions []domain.JudicialOpinion) string {
	if finalScore >= 4 {
		return fmt.Sprintf("%s meets requirements. Minor improvements may be possible.", dim.Name)
	}

	var prosecutor, techLead *domain.JudicialOpinion
	for i := range opinions {
		switch opinions[i].Judge {
		case domain.PersonaProsecutor:
			prosecutor = &opinions[i]
		case domain.PersonaTechLead:
			techLead = &opinions[i]
		}
	}

	lines := []string{fmt.Sprintf("To improve %s:", dim.Name)}

	if prosecutor != nil {
		refs := extractFileRefs(prosecutor.CitedEvidence)
		if len(refs) > 0 {
			excerpt := firstSentence(prosecutor.Argument)
			for _, ref := range refs {
				lines = append(lines, fmt.Sprintf("- Fix %s: %s", ref.String(), excerpt))
			}
		} else {
			arg := strings.ToLower(prosecutor.Argument)
			if strings.Contains(arg, "missing") || strings.Contains(arg, "absent") {
				lines = append(lines, fmt.Sprintf(
					"- Address missing elements identified by the Prosecutor: %s",
					firstSentence(prosecutor.Argument)))
			}
			if strings.Contains(arg, "security") {
				lines = append(lines, "- Implement proper security sandboxing for all system operations")
			}
		}
	}

	if techLead != nil {
		lines = append(lines, fmt.Sprintf("- Follow technical guidance: %s", firstSentence(techLead.Argument)))
	}

	if advice, ok := dimensionAdvice[dim.ID]; ok {
		lines = append(lines, "- "+advice)
	}

	return strings.Join(lines, "\n")
}

// fileRef is a repo-relative path with an optional 1-based line.
type fileRef struct {
	Path string
	Line int
}

func (r fileRef) String() string {
	if r.Line > 0 {
		return r.Path + ":" + strconv.Itoa(r.Line)
	}
	return r.Path
}

// extractFileRefs pulls file references out of cited-evidence
// locations, normalizing separators, stripping clone-sandbox prefixes
// and de-duplicating by (file, line).
func extractFileRefs(locations []string) []fileRef {
	var refs []fileRef
	seen := make(map[fileRef]bool)
	for _, loc := range locations {
		ref, ok := parseLocation(loc)
		if !ok || seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs
}

func parseLocation(loc string) (fileRef, bool) {
	loc = strings.TrimSpace(loc)
	if loc == "" || loc == domain.LocationNotFound {
		return fileRef{}, false
	}
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") ||
		strings.HasPrefix(loc, "cross_ref:") {
		return fileRef{}, false
	}

	path := strings.ReplaceAll(loc, "\\", "/")

	line := 0
	if idx := strings.LastIndex(path, ":"); idx > 0 {
		if n, err := strconv.Atoi(path[idx+1:]); err == nil && n > 0 {
			line = n
			path = path[:idx]
		}
	}

	path = stripSandboxPrefix(path)
	if path == "" || !strings.Contains(path, ".") {
		return fileRef{}, false
	}
	return fileRef{Path: path, Line: line}, true
}

// stripSandboxPrefix reduces an absolute clone path to a
// repo-relative one. Clone directories are created with the
// auditor_repo_ prefix, so everything up to and including that
// component is discarded.
func stripSandboxPrefix(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if strings.HasPrefix(part, "auditor_repo_") {
			return strings.Join(parts[i+1:], "/")
		}
	}
	return strings.TrimPrefix(path, "/")
}

// firstSentence returns the argument up to its first sentence break,
// capped so remediation items stay scannable.
func firstSentence(argument string) string {
	s := strings.TrimSpace(argument)
	if idx := strings.Index(s, ". "); idx >= 0 {
		s = s[:idx+1]
	}
	if len(s) > excerptLimit {
		s = s[:excerptLimit] + "..."
	}
	return s
}
