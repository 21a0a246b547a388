package json

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bkyoung/automaton-auditor/internal/usecase/audit"
	"github.com/bkyoung/automaton-auditor/internal/usecase/gather"
)

// Writer dumps the aggregated evidence locker to disk as indented JSON.
// The dump exists for debugging disputed verdicts without rerunning the audit.
type Writer struct {
	root string
	now  func() time.Time
}

// NewWriter creates an evidence writer rooted at dir. A nil clock defaults
// to time.Now.
func NewWriter(dir string, now func() time.Time) *Writer {
	if now == nil {
		now = time.Now
	}
	return &Writer{root: dir, now: now}
}

type evidenceDump struct {
	RunID       string             `json:"runId"`
	RepoURL     string             `json:"repoUrl"`
	CommitHash  string             `json:"commitHash,omitempty"`
	GeneratedAt string             `json:"generatedAt"`
	Evidence    gather.EvidenceSet `json:"evidence"`
}

// Write persists the evidence set at <root>/evidence/<runID>.json.
func (w *Writer) Write(ctx context.Context, artifact audit.EvidenceArtifact) (string, error) {
	dir := filepath.Join(w.root, "evidence")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create evidence dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.json", artifact.RunID))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create evidence file: %w", err)
	}
	defer file.Close()

	dump := evidenceDump{
		RunID:       artifact.RunID,
		RepoURL:     artifact.RepoURL,
		CommitHash:  artifact.CommitHash,
		GeneratedAt: w.now().UTC().Format(time.RFC3339),
		Evidence:    artifact.Evidence,
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(dump); err != nil {
		return "", fmt.Errorf("encode evidence: %w", err)
	}

	return path, nil
}
