package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/automaton-auditor/internal/adapter/store/sqlite"
	"github.com/bkyoung/automaton-auditor/internal/domain"
	"github.com/bkyoung/automaton-auditor/internal/usecase/audit"
)

func setupTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	// Use in-memory database for testing
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err, "failed to create test store")

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func sampleAudit(runID string, createdAt time.Time) audit.StoreAudit {
	return audit.StoreAudit{
		RunID:        runID,
		RepoURL:      "https://github.com/acme/widgets",
		CommitHash:   "deadbeef",
		OverallScore: 3.5,
		CreatedAt:    createdAt,
		Criteria: []domain.CriterionResult{
			{
				DimensionID:   domain.DimensionSafeToolEngineering,
				DimensionName: "Safe Tool Engineering",
				FinalScore:    2,
				RulesFired:    []string{"security_override"},
				DissentSummary: "Prosecutor (1/5) diverged from Defense (4/5): " +
					"shell execution detected in tool code.",
				Remediation: "To improve safe_tool_engineering:\n- Fix src/tools.py:2",
				JudgeOpinions: []domain.JudicialOpinion{
					{Judge: domain.PersonaProsecutor, CriterionID: domain.DimensionSafeToolEngineering, Score: 1, Argument: "Security negligence: os.system() detected"},
					{Judge: domain.PersonaDefense, CriterionID: domain.DimensionSafeToolEngineering, Score: 4, Argument: "Sandboxing was attempted."},
					{Judge: domain.PersonaTechLead, CriterionID: domain.DimensionSafeToolEngineering, Score: 2, Argument: "Shell execution outweighs the sandbox."},
				},
			},
			{
				DimensionID:   domain.DimensionGraphOrchestration,
				DimensionName: "Graph Orchestration",
				FinalScore:    5,
				RulesFired:    []string{"functionality_weight"},
				Remediation:   "Graph Orchestration meets requirements. Minor improvements may be possible.",
				JudgeOpinions: []domain.JudicialOpinion{
					{Judge: domain.PersonaTechLead, CriterionID: domain.DimensionGraphOrchestration, Score: 5, Argument: "Parallel fan-out verified."},
				},
			},
		},
	}
}

func TestSaveAudit_GetAudit_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	createdAt := time.Now().Truncate(time.Second)

	require.NoError(t, s.SaveAudit(ctx, sampleAudit("run-123", createdAt)))

	got, err := s.GetAudit(ctx, "run-123")
	require.NoError(t, err)

	assert.Equal(t, "run-123", got.RunID)
	assert.Equal(t, "https://github.com/acme/widgets", got.RepoURL)
	assert.Equal(t, "deadbeef", got.CommitHash)
	assert.InDelta(t, 3.5, got.OverallScore, 0.001)
	assert.True(t, got.CreatedAt.Equal(createdAt))

	require.Len(t, got.Criteria, 2)
	safety := got.Criteria[0]
	assert.Equal(t, domain.DimensionSafeToolEngineering, safety.DimensionID)
	assert.Equal(t, 2, safety.FinalScore)
	assert.Equal(t, []string{"security_override"}, safety.RulesFired)
	assert.Contains(t, safety.DissentSummary, "diverged")

	require.Len(t, safety.JudgeOpinions, 3)
	assert.Equal(t, domain.PersonaProsecutor, safety.JudgeOpinions[0].Judge)
	assert.Equal(t, 1, safety.JudgeOpinions[0].Score)
	assert.Equal(t, domain.DimensionSafeToolEngineering, safety.JudgeOpinions[0].CriterionID)

	graph := got.Criteria[1]
	assert.Equal(t, 5, graph.FinalScore)
	assert.Empty(t, graph.DissentSummary)
	require.Len(t, graph.JudgeOpinions, 1)
}

func TestGetAudit_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetAudit(context.Background(), "missing")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "audit not found")
}

func TestSaveAudit_DuplicateRunIDRejected(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	record := sampleAudit("run-dup", time.Now())

	require.NoError(t, s.SaveAudit(ctx, record))

	err := s.SaveAudit(ctx, record)
	assert.Error(t, err)
}

func TestListAudits_MostRecentFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Now().Truncate(time.Second)

	require.NoError(t, s.SaveAudit(ctx, sampleAudit("run-old", base.Add(-2*time.Hour))))
	require.NoError(t, s.SaveAudit(ctx, sampleAudit("run-new", base)))
	require.NoError(t, s.SaveAudit(ctx, sampleAudit("run-mid", base.Add(-time.Hour))))

	summaries, err := s.ListAudits(ctx, 2)
	require.NoError(t, err)

	require.Len(t, summaries, 2)
	assert.Equal(t, "run-new", summaries[0].RunID)
	assert.Equal(t, "run-mid", summaries[1].RunID)
	assert.InDelta(t, 3.5, summaries[0].OverallScore, 0.001)
}
