package static_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/automaton-auditor/internal/adapter/judge/static"
	"github.com/bkyoung/automaton-auditor/internal/domain"
	"github.com/bkyoung/automaton-auditor/internal/usecase/gather"
)

func benchRubric() domain.Rubric {
	return domain.Rubric{Dimensions: []domain.Dimension{
		{ID: domain.DimensionSafeToolEngineering, Name: "Safe Tool Engineering", TargetArtifact: domain.ArtifactRepo},
		{ID: domain.DimensionGraphOrchestration, Name: "Graph Orchestration", TargetArtifact: domain.ArtifactRepo},
	}}
}

func TestBench_CoversAllPersonas(t *testing.T) {
	bench := static.Bench()

	require.Len(t, bench, 3)
	personas := map[domain.Persona]bool{}
	for _, j := range bench {
		personas[j.Persona()] = true
	}
	assert.True(t, personas[domain.PersonaProsecutor])
	assert.True(t, personas[domain.PersonaDefense])
	assert.True(t, personas[domain.PersonaTechLead])
}

func TestNewJudge_UnknownPersonaRejected(t *testing.T) {
	_, err := static.NewJudge(domain.Persona("Bailiff"))

	require.Error(t, err)
	assert.Equal(t, domain.KindConfiguration, domain.KindOf(err))
}

func TestDeliberate_OneOpinionPerDimension(t *testing.T) {
	judge, err := static.NewJudge(domain.PersonaTechLead)
	require.NoError(t, err)

	evidence := gather.EvidenceSet{
		gather.SourceRepo: []domain.Evidence{
			{CriterionID: domain.DimensionGraphOrchestration, Goal: "check wiring", Found: true, Location: "src/graph.py:4", Rationale: "Parallel edges detected.", Confidence: 0.7},
		},
	}

	opinions, err := judge.Deliberate(context.Background(), benchRubric(), evidence)
	require.NoError(t, err)

	require.Len(t, opinions, 2)
	for _, op := range opinions {
		assert.Equal(t, domain.PersonaTechLead, op.Judge)
		assert.GreaterOrEqual(t, op.Score, domain.MinScore)
		assert.LessOrEqual(t, op.Score, domain.MaxScore)
		assert.NotEmpty(t, op.Argument)
	}
}

func TestDeliberate_NoEvidenceDefaultsDiverge(t *testing.T) {
	// The personas disagree by design when nothing was collected.
	rubric := domain.Rubric{Dimensions: []domain.Dimension{
		{ID: "theoretical_depth", Name: "Theoretical Depth", TargetArtifact: domain.ArtifactReport},
	}}

	scores := map[domain.Persona]int{}
	for _, j := range static.Bench() {
		opinions, err := j.Deliberate(context.Background(), rubric, gather.EvidenceSet{})
		require.NoError(t, err)
		require.Len(t, opinions, 1)
		scores[j.Persona()] = opinions[0].Score
	}

	assert.Equal(t, 1, scores[domain.PersonaProsecutor])
	assert.Equal(t, 3, scores[domain.PersonaDefense])
	assert.Equal(t, 1, scores[domain.PersonaTechLead])
}

func TestDeliberate_ProsecutorQuotesViolationLanguage(t *testing.T) {
	judge, err := static.NewJudge(domain.PersonaProsecutor)
	require.NoError(t, err)

	evidence := gather.EvidenceSet{
		gather.SourceRepo: []domain.Evidence{
			{
				CriterionID: domain.DimensionSafeToolEngineering,
				Goal:        "check anti-patterns",
				Found:       true,
				Location:    "src/tools.py:2",
				Rationale:   "1 issues: src/tools.py:2 os.system() detected",
				Confidence:  0.5,
			},
		},
	}

	opinions, err := judge.Deliberate(context.Background(), benchRubric(), evidence)
	require.NoError(t, err)

	var safety domain.JudicialOpinion
	for _, op := range opinions {
		if op.CriterionID == domain.DimensionSafeToolEngineering {
			safety = op
		}
	}
	assert.Equal(t, domain.MinScore, safety.Score)
	assert.Contains(t, safety.Argument, "os.system() detected")
	assert.Contains(t, safety.CitedEvidence, "src/tools.py:2")
}

func TestDeliberate_PersonaBiasOrdersScores(t *testing.T) {
	// Strong positive evidence: Defense >= TechLead >= Prosecutor.
	evidence := gather.EvidenceSet{
		gather.SourceRepo: []domain.Evidence{
			{CriterionID: domain.DimensionGraphOrchestration, Goal: "check wiring", Found: true, Location: "src/graph.py", Rationale: "Graph builder detected.", Confidence: 0.9},
			{CriterionID: domain.DimensionGraphOrchestration, Goal: "check fan-out", Found: true, Location: "src/graph.py:12", Rationale: "Parallel edges detected.", Confidence: 0.7},
		},
	}
	rubric := domain.Rubric{Dimensions: []domain.Dimension{
		{ID: domain.DimensionGraphOrchestration, Name: "Graph Orchestration", TargetArtifact: domain.ArtifactRepo},
	}}

	scores := map[domain.Persona]int{}
	for _, j := range static.Bench() {
		opinions, err := j.Deliberate(context.Background(), rubric, evidence)
		require.NoError(t, err)
		scores[j.Persona()] = opinions[0].Score
	}

	assert.GreaterOrEqual(t, scores[domain.PersonaDefense], scores[domain.PersonaTechLead])
	assert.GreaterOrEqual(t, scores[domain.PersonaTechLead], scores[domain.PersonaProsecutor])
	assert.Equal(t, 5, scores[domain.PersonaTechLead], "full coverage maps to the top score")
}

func TestDeliberate_ZeroConfidenceUsesErrorDefaults(t *testing.T) {
	evidence := gather.EvidenceSet{
		gather.SourceRepo: []domain.Evidence{
			domain.NewErrorEvidence(domain.DimensionGraphOrchestration, "investigation by repo", domain.LocationNotFound, assert.AnError),
		},
	}
	rubric := domain.Rubric{Dimensions: []domain.Dimension{
		{ID: domain.DimensionGraphOrchestration, Name: "Graph Orchestration", TargetArtifact: domain.ArtifactRepo},
	}}

	scores := map[domain.Persona]int{}
	for _, j := range static.Bench() {
		opinions, err := j.Deliberate(context.Background(), rubric, evidence)
		require.NoError(t, err)
		scores[j.Persona()] = opinions[0].Score
	}

	assert.Equal(t, 1, scores[domain.PersonaProsecutor])
	assert.Equal(t, 3, scores[domain.PersonaDefense])
	assert.Equal(t, 2, scores[domain.PersonaTechLead])
}
