package gather_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/automaton-auditor/internal/domain"
	"github.com/bkyoung/automaton-auditor/internal/usecase/gather"
)

func evidence(dim, location string, found bool) domain.Evidence {
	return domain.Evidence{
		CriterionID: dim,
		Goal:        "goal for " + dim,
		Found:       found,
		Location:    location,
		Rationale:   "checked " + location,
		Confidence:  0.8,
	}
}

func TestMergeEvidence_CommutativeAcrossSources(t *testing.T) {
	// Given three sets, one per detective, as produced at barrier 1.
	repo := gather.EvidenceSet{gather.SourceRepo: {evidence("graph_orchestration", "internal/graph.go", true)}}
	doc := gather.EvidenceSet{gather.SourceDoc: {evidence("theoretical_depth", "report.md", true)}}
	cross := gather.EvidenceSet{gather.SourceCrossRef: {evidence("report_accuracy", "cross_ref:ghost.py", false)}}

	permutations := [][]gather.EvidenceSet{
		{repo, doc, cross},
		{repo, cross, doc},
		{doc, repo, cross},
		{doc, cross, repo},
		{cross, repo, doc},
		{cross, doc, repo},
	}

	// When merging in every order, the aggregated set is identical.
	var reference gather.EvidenceSet
	for i, perm := range permutations {
		merged := gather.EvidenceSet{}
		for _, set := range perm {
			merged = gather.MergeEvidence(merged, set)
		}
		if i == 0 {
			reference = merged
			continue
		}
		if diff := cmp.Diff(reference, merged); diff != "" {
			t.Fatalf("merge order changed the result (-reference +merged):\n%s", diff)
		}
	}
}

func TestMergeOpinions_CommutativeAsMultiset(t *testing.T) {
	a := []domain.JudicialOpinion{{Judge: domain.PersonaProsecutor, CriterionID: "x_y", Score: 1, Argument: "a"}}
	b := []domain.JudicialOpinion{{Judge: domain.PersonaDefense, CriterionID: "x_y", Score: 5, Argument: "b"}}
	c := []domain.JudicialOpinion{{Judge: domain.PersonaTechLead, CriterionID: "x_y", Score: 3, Argument: "c"}}

	abc := gather.MergeOpinions(gather.MergeOpinions(nil, a), gather.MergeOpinions(b, c))
	cba := gather.MergeOpinions(gather.MergeOpinions(nil, c), gather.MergeOpinions(b, a))

	sortOpinions := cmpopts.SortSlices(func(x, y domain.JudicialOpinion) bool {
		return x.Judge < y.Judge
	})
	if diff := cmp.Diff(abc, cba, sortOpinions); diff != "" {
		t.Fatalf("opinion merge is not a multiset union (-abc +cba):\n%s", diff)
	}
}

func TestCollectEvidence_OrderedAndFiltered(t *testing.T) {
	set := gather.EvidenceSet{
		"repo": {
			evidence("graph_orchestration", "graph.go", true),
			evidence("state_management_rigor", "state.go", true),
		},
		"doc": {evidence("graph_orchestration", "report.md", true)},
	}

	collected := gather.CollectEvidence(set, "graph_orchestration")

	require.Len(t, collected, 2)
	// Sources are visited in sorted order: doc before repo.
	assert.Equal(t, "report.md", collected[0].Location)
	assert.Equal(t, "graph.go", collected[1].Location)

	assert.Empty(t, gather.CollectEvidence(set, "unknown_dimension"),
		"absence of evidence is a valid empty result")
}

func TestCollectOpinions_And_OpinionByPersona(t *testing.T) {
	opinions := []domain.JudicialOpinion{
		{Judge: domain.PersonaProsecutor, CriterionID: "a_b", Score: 2, Argument: "x"},
		{Judge: domain.PersonaDefense, CriterionID: "c_d", Score: 4, Argument: "y"},
		{Judge: domain.PersonaTechLead, CriterionID: "a_b", Score: 3, Argument: "z"},
	}

	forAB := gather.CollectOpinions(opinions, "a_b")
	assert.Len(t, forAB, 2)

	techLead, ok := gather.OpinionByPersona(forAB, domain.PersonaTechLead)
	require.True(t, ok)
	assert.Equal(t, 3, techLead.Score)

	_, ok = gather.OpinionByPersona(forAB, domain.PersonaDefense)
	assert.False(t, ok)
}
