package json_test

import (
	"context"
	stdjson "encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bkyoung/automaton-auditor/internal/adapter/output/json"
	"github.com/bkyoung/automaton-auditor/internal/domain"
	"github.com/bkyoung/automaton-auditor/internal/usecase/audit"
	"github.com/bkyoung/automaton-auditor/internal/usecase/gather"
)

func TestWrite_DumpsEvidenceWithMetadata(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	fixed := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	writer := json.NewWriter(root, func() time.Time { return fixed })

	artifact := audit.EvidenceArtifact{
		RunID:      "run-abc123",
		RepoURL:    "https://github.com/acme/widgets",
		CommitHash: "deadbeef",
		Evidence: gather.EvidenceSet{
			gather.SourceRepo: []domain.Evidence{
				{
					CriterionID: domain.DimensionGraphOrchestration,
					Goal:        "check wiring",
					Found:       true,
					Location:    "src/graph.py:4",
					Rationale:   "Graph builder detected.",
					Confidence:  0.9,
				},
			},
		},
	}

	path, err := writer.Write(ctx, artifact)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "evidence", "run-abc123.json"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var dump map[string]interface{}
	require.NoError(t, stdjson.Unmarshal(raw, &dump))
	assert.Equal(t, "run-abc123", dump["runId"])
	assert.Equal(t, "https://github.com/acme/widgets", dump["repoUrl"])
	assert.Equal(t, "deadbeef", dump["commitHash"])
	assert.Equal(t, "2026-03-14T09:26:53Z", dump["generatedAt"])

	evidence, ok := dump["evidence"].(map[string]interface{})
	require.True(t, ok)
	require.Contains(t, evidence, gather.SourceRepo)
}

func TestWrite_EmptyEvidenceStillWritten(t *testing.T) {
	ctx := context.Background()
	writer := json.NewWriter(t.TempDir(), nil)

	path, err := writer.Write(ctx, audit.EvidenceArtifact{
		RunID:    "run-empty",
		RepoURL:  "https://github.com/acme/widgets",
		Evidence: gather.EvidenceSet{},
	})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var dump map[string]interface{}
	require.NoError(t, stdjson.Unmarshal(raw, &dump))
	assert.NotContains(t, dump, "commitHash")
}
