package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bkyoung/automaton-auditor/internal/usecase/audit"
)

// ReportFileName is the fixed name of the rendered verdict inside the run directory.
const ReportFileName = "audit_report.md"

// Writer persists rendered audit verdicts under a root output directory.
type Writer struct {
	root string
}

// NewWriter constructs a markdown writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{root: dir}
}

// Write stores the markdown verdict at <root>/<owner>/<repo>/audit_report.md
// when the repository URL is a recognisable hosting URL, or under a
// sanitised slug directory otherwise. It returns the written path.
func (w *Writer) Write(ctx context.Context, artifact audit.ReportArtifact) (string, error) {
	dir := filepath.Join(w.root, repoDir(artifact.RepoURL))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, ReportFileName)
	if err := os.WriteFile(path, []byte(artifact.Markdown), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}

	return path, nil
}

// repoDir derives the per-repository directory from the repo URL.
// "https://github.com/acme/widgets.git" becomes "acme/widgets".
func repoDir(repoURL string) string {
	trimmed := strings.TrimSuffix(repoURL, "/")
	trimmed = strings.TrimSuffix(trimmed, ".git")

	// SSH remotes use "git@host:owner/repo".
	if at := strings.Index(trimmed, "@"); at >= 0 && !strings.Contains(trimmed, "://") {
		if colon := strings.Index(trimmed[at:], ":"); colon >= 0 {
			trimmed = trimmed[at+colon+1:]
		}
	}
	if scheme := strings.Index(trimmed, "://"); scheme >= 0 {
		trimmed = trimmed[scheme+3:]
		if slash := strings.Index(trimmed, "/"); slash >= 0 {
			trimmed = trimmed[slash+1:]
		}
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) >= 2 {
		owner := sanitise(parts[len(parts)-2])
		repo := sanitise(parts[len(parts)-1])
		if owner != "" && repo != "" {
			return filepath.Join(owner, repo)
		}
	}

	return sanitise(trimmed)
}

func sanitise(value string) string {
	var builder strings.Builder
	for _, r := range strings.ToLower(value) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			builder.WriteRune(r)
		default:
			builder.WriteRune('-')
		}
	}
	slug := strings.Trim(builder.String(), "-.")
	if slug == "" {
		return "unknown"
	}
	return slug
}
