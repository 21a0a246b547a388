// Package gather holds the evidence and opinion accumulators that
// detectives and judges write into across the audit's two barriers.
//
// Both merge operators are commutative and associative across distinct
// writers, which is what lets concurrent collectors share the
// accumulators without coordination: merge order never changes the
// final value.
package gather

import (
	"sort"

	"github.com/bkyoung/automaton-auditor/internal/domain"
)

// Well-known evidence source keys. Each detective writes under its own
// key, so the dict-union merge never collides in practice.
const (
	SourceRepo     = "repo"
	SourceDoc      = "doc"
	SourceCrossRef = "cross_ref"
)

// EvidenceSet accumulates evidence keyed by collection-source name.
type EvidenceSet map[string][]domain.Evidence

// MergeEvidence unions src into dst keyed by source name and returns
// the result. Within the same key the incoming value wins, but sources
// own their keys exclusively so that path is effectively dead.
func MergeEvidence(dst, src EvidenceSet) EvidenceSet {
	if dst == nil {
		dst = make(EvidenceSet, len(src))
	}
	for source, list := range src {
		dst[source] = list
	}
	return dst
}

// MergeOpinions concatenates opinion lists. Synthesis looks opinions up
// by persona tag, never by position, so order is irrelevant.
func MergeOpinions(dst, src []domain.JudicialOpinion) []domain.JudicialOpinion {
	return append(dst, src...)
}

// CollectEvidence returns every evidence record for the dimension,
// ordered by source name and then insertion order within a source.
// An empty result means absence of evidence, not an error.
func CollectEvidence(set EvidenceSet, dimensionID string) []domain.Evidence {
	sources := make([]string, 0, len(set))
	for source := range set {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	var result []domain.Evidence
	for _, source := range sources {
		for _, ev := range set[source] {
			if ev.CriterionID == dimensionID {
				result = append(result, ev)
			}
		}
	}
	return result
}

// CollectOpinions returns every opinion rendered for the dimension.
func CollectOpinions(opinions []domain.JudicialOpinion, dimensionID string) []domain.JudicialOpinion {
	var result []domain.JudicialOpinion
	for _, op := range opinions {
		if op.CriterionID == dimensionID {
			result = append(result, op)
		}
	}
	return result
}

// OpinionByPersona finds the first opinion from the given persona.
func OpinionByPersona(opinions []domain.JudicialOpinion, persona domain.Persona) (domain.JudicialOpinion, bool) {
	for _, op := range opinions {
		if op.Judge == persona {
			return op, true
		}
	}
	return domain.JudicialOpinion{}, false
}
