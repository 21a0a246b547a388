// Package repo implements the code detective: it clones or opens the
// audited repository and runs static forensic protocols against it.
package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/bkyoung/automaton-auditor/internal/domain"
	"github.com/bkyoung/automaton-auditor/internal/usecase/audit"
	"github.com/bkyoung/automaton-auditor/internal/usecase/gather"
)

const (
	maxScanFileSize = 512 * 1024
	maxLogMessages  = 10
)

var textExtensions = map[string]bool{
	".py": true, ".go": true, ".md": true, ".txt": true,
	".yaml": true, ".yml": true, ".toml": true, ".json": true,
	".js": true, ".ts": true,
}

// Investigator collects repository evidence. It writes under the
// "repo" source key and supplies the commit hash and file inventory
// the rest of the pipeline depends on.
type Investigator struct{}

func NewInvestigator() *Investigator {
	return &Investigator{}
}

func (inv *Investigator) Source() string { return gather.SourceRepo }

// Investigate opens a local repository or clones a remote one into a
// sandboxed temp directory, then runs one forensic protocol per
// repo-targeted rubric dimension. A failed protocol degrades to
// zero-confidence evidence instead of aborting the investigation.
func (inv *Investigator) Investigate(ctx context.Context, req audit.Request, rubric domain.Rubric) (audit.DetectiveResult, error) {
	repoPath, repo, err := open(ctx, req.RepoURL)
	if err != nil {
		return audit.DetectiveResult{}, fmt.Errorf("open repository: %w", err)
	}

	commitHash := ""
	if head, err := repo.Head(); err == nil {
		commitHash = head.Hash().String()
	}

	scan, err := scanWorktree(repoPath)
	if err != nil {
		return audit.DetectiveResult{}, fmt.Errorf("scan worktree: %w", err)
	}

	var evidence []domain.Evidence
	for _, dim := range rubric.Dimensions {
		if dim.TargetArtifact != domain.ArtifactRepo {
			continue
		}
		collected, err := runProtocol(dim, repo, scan)
		if err != nil {
			evidence = append(evidence, domain.NewErrorEvidence(
				dim.ID,
				fmt.Sprintf("forensic protocol for %s", dim.ID),
				req.RepoURL,
				err,
			))
			continue
		}
		evidence = append(evidence, collected...)
	}

	return audit.DetectiveResult{
		Source:        gather.SourceRepo,
		Evidence:      evidence,
		CommitHash:    commitHash,
		FileInventory: scan.files,
	}, nil
}

// open treats an existing directory as a local checkout, anything
// else as a clone URL. Clones land in a fresh sandbox directory.
func open(ctx context.Context, repoURL string) (string, *goGit.Repository, error) {
	if info, err := os.Stat(repoURL); err == nil && info.IsDir() {
		repo, err := goGit.PlainOpenWithOptions(repoURL, &goGit.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			return "", nil, err
		}
		return repoURL, repo, nil
	}

	dir, err := os.MkdirTemp("", "auditor_repo_*")
	if err != nil {
		return "", nil, err
	}
	repo, err := goGit.PlainCloneContext(ctx, dir, false, &goGit.CloneOptions{URL: repoURL})
	if err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	return dir, repo, nil
}

// worktreeScan is a one-pass snapshot of the checkout: the full file
// inventory plus the contents of small text files for pattern checks.
type worktreeScan struct {
	root     string
	files    []string
	contents map[string]string
}

func scanWorktree(root string) (*worktreeScan, error) {
	scan := &worktreeScan{root: root, contents: make(map[string]string)}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		scan.files = append(scan.files, rel)

		if !textExtensions[filepath.Ext(rel)] {
			return nil
		}
		if info, err := d.Info(); err != nil || info.Size() > maxScanFileSize {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		scan.contents[rel] = string(data)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(scan.files)
	return scan, nil
}

// grep returns "file:line" references for every content line matching
// the pattern, in file order.
func (s *worktreeScan) grep(re *regexp.Regexp) []string {
	files := make([]string, 0, len(s.contents))
	for file := range s.contents {
		files = append(files, file)
	}
	sort.Strings(files)

	var refs []string
	for _, file := range files {
		for i, line := range strings.Split(s.contents[file], "\n") {
			if re.MatchString(line) {
				refs = append(refs, fmt.Sprintf("%s:%d", file, i+1))
			}
		}
	}
	return refs
}

func (s *worktreeScan) findFile(name string) (string, bool) {
	for _, file := range s.files {
		if filepath.Base(file) == name {
			return file, true
		}
	}
	return "", false
}

func runProtocol(dim domain.Dimension, repo *goGit.Repository, scan *worktreeScan) ([]domain.Evidence, error) {
	switch dim.ID {
	case "git_forensic_analysis":
		ev, err := gitForensics(dim.ID, repo, scan)
		if err != nil {
			return nil, err
		}
		return []domain.Evidence{ev}, nil
	case "state_management_rigor":
		return []domain.Evidence{checkStateModels(dim.ID, scan)}, nil
	case domain.DimensionGraphOrchestration:
		return checkGraph(dim.ID, scan), nil
	case domain.DimensionSafeToolEngineering:
		return checkSafety(dim.ID, scan), nil
	case "structured_output_enforcement":
		return []domain.Evidence{checkStructuredOutput(dim.ID, scan)}, nil
	default:
		return []domain.Evidence{keywordPresence(dim, scan)}, nil
	}
}

// gitForensics reads the full commit log: count, span, and a sample of
// messages for the judges to reason over.
func gitForensics(dimID string, repo *goGit.Repository, scan *worktreeScan) (domain.Evidence, error) {
	iter, err := repo.Log(&goGit.LogOptions{})
	if err != nil {
		return domain.Evidence{}, fmt.Errorf("read log: %w", err)
	}

	total := 0
	var messages []string
	err = iter.ForEach(func(c *object.Commit) error {
		total++
		if len(messages) < maxLogMessages {
			msg := strings.TrimSpace(c.Message)
			if len(msg) > 100 {
				msg = msg[:100]
			}
			messages = append(messages, msg)
		}
		return nil
	})
	if err != nil {
		return domain.Evidence{}, fmt.Errorf("iterate log: %w", err)
	}

	content, _ := json.Marshal(map[string]any{
		"totalCommits": total,
		"messages":     messages,
	})

	rationale := "Git history analyzed successfully."
	confidence := 0.7
	if total <= 1 {
		rationale = fmt.Sprintf("Git history shows %d commit(s): no iterative development signal.", total)
		confidence = 0.4
	} else if total >= 5 {
		confidence = 0.85
	}

	return domain.NewEvidence(domain.EvidenceInput{
		CriterionID: dimID,
		Goal:        "Analyze git commit history for development progression",
		Found:       total > 0,
		Content:     string(content),
		Location:    scan.root,
		Rationale:   rationale,
		Confidence:  confidence,
	})
}

func checkStateModels(dimID string, scan *worktreeScan) domain.Evidence {
	stateFile, located := scan.findFile("state.py")
	if !located {
		return mustEvidence(domain.EvidenceInput{
			CriterionID: dimID,
			Goal:        "Check validated state models and reducers",
			Found:       false,
			Location:    domain.LocationNotFound,
			Rationale:   "Could not locate state.py. State management may live in a non-standard location.",
			Confidence:  0.2,
		})
	}

	body := scan.contents[stateFile]
	hasModels := strings.Contains(body, "BaseModel") || strings.Contains(body, "TypedDict")
	hasReducers := strings.Contains(body, "operator.ior") || strings.Contains(body, "operator.add")

	var details []string
	if strings.Contains(body, "BaseModel") {
		details = append(details, "validated models detected")
	}
	if strings.Contains(body, "TypedDict") {
		details = append(details, "TypedDict state detected")
	}
	if hasReducers {
		details = append(details, "merge-safe reducers for parallel writes")
	}
	rationale := "State analysis complete."
	if len(details) > 0 {
		rationale = strings.Join(details, "; ")
	}

	confidence := 0.4
	if hasModels && hasReducers {
		confidence = 0.9
	} else if hasModels {
		confidence = 0.6
	}

	content, _ := json.Marshal(map[string]any{
		"hasModels":   hasModels,
		"hasReducers": hasReducers,
	})

	return mustEvidence(domain.EvidenceInput{
		CriterionID: dimID,
		Goal:        "Check validated state models and reducers",
		Found:       hasModels && hasReducers,
		Content:     string(content),
		Location:    stateFile,
		Rationale:   rationale,
		Confidence:  confidence,
	})
}

var addEdgePattern = regexp.MustCompile(`add_edge\(\s*"?([\w.]+)"?`)

func checkGraph(dimID string, scan *worktreeScan) []domain.Evidence {
	graphFile, located := scan.findFile("graph.py")
	if !located {
		return []domain.Evidence{mustEvidence(domain.EvidenceInput{
			CriterionID: dimID,
			Goal:        "Check graph orchestration wiring",
			Found:       false,
			Location:    domain.LocationNotFound,
			Rationale:   "Could not locate graph.py. Orchestration may live in a non-standard location.",
			Confidence:  0.2,
		})}
	}

	body := scan.contents[graphFile]
	hasGraph := strings.Contains(body, "StateGraph")

	// Fan-out detection: a node with two or more outgoing edges.
	outgoing := make(map[string]int)
	for _, match := range addEdgePattern.FindAllStringSubmatch(body, -1) {
		outgoing[match[1]]++
	}
	hasParallel := false
	for _, count := range outgoing {
		if count >= 2 {
			hasParallel = true
			break
		}
	}

	graphEv := mustEvidence(domain.EvidenceInput{
		CriterionID: dimID,
		Goal:        "Check graph builder orchestration",
		Found:       hasGraph,
		Location:    graphFile,
		Rationale:   ternary(hasGraph, "Graph builder detected.", "No graph builder found."),
		Confidence:  ternary(hasGraph, 0.7, 0.4),
	})

	parallelEv := mustEvidence(domain.EvidenceInput{
		CriterionID: dimID,
		Goal:        "Check parallel fan-out/fan-in edges",
		Found:       hasParallel,
		Location:    graphFile,
		Rationale:   ternary(hasParallel, "Parallel edges detected.", "No parallel edges found: flow appears sequential."),
		Confidence:  ternary(hasParallel, 0.7, 0.4),
	})

	return []domain.Evidence{graphEv, parallelEv}
}

var securityPatterns = []struct {
	pattern *regexp.Regexp
	issue   string
}{
	{regexp.MustCompile(`os\.system\(`), "os.system() detected"},
	{regexp.MustCompile(`\beval\(`), "eval() call"},
	{regexp.MustCompile(`\bexec\(`), "exec() call"},
	{regexp.MustCompile(`shell\s*=\s*True`), "subprocess with shell=True"},
}

func checkSafety(dimID string, scan *worktreeScan) []domain.Evidence {
	type issue struct {
		Location string `json:"location"`
		Issue    string `json:"issue"`
	}
	var issues []issue
	for _, sp := range securityPatterns {
		for _, ref := range scan.grep(sp.pattern) {
			issues = append(issues, issue{Location: ref, Issue: sp.issue})
		}
	}

	hasSandbox := len(scan.grep(regexp.MustCompile(`tempfile\.|MkdirTemp|TemporaryDirectory`))) > 0
	usesSubprocess := len(scan.grep(regexp.MustCompile(`subprocess\.(run|check_output|Popen)`))) > 0

	sandboxDetails := []string{}
	if hasSandbox {
		sandboxDetails = append(sandboxDetails, "temp-directory sandboxing detected")
	}
	if usesSubprocess {
		sandboxDetails = append(sandboxDetails, "subprocess usage detected")
	}
	if len(issues) == 0 {
		sandboxDetails = append(sandboxDetails, "no shell execution anti-patterns")
	}
	sandboxRationale := "Sandboxing check complete."
	if len(sandboxDetails) > 0 {
		sandboxRationale = strings.Join(sandboxDetails, "; ")
	}

	sandboxEv := mustEvidence(domain.EvidenceInput{
		CriterionID: dimID,
		Goal:        "Check sandboxing and subprocess usage",
		Found:       hasSandbox || usesSubprocess,
		Location:    scan.root,
		Rationale:   sandboxRationale,
		Confidence:  ternary(hasSandbox && len(issues) == 0, 0.9, 0.5),
	})

	var secRationale string
	var secConfidence float64
	var secLocation string
	if len(issues) == 0 {
		secRationale = "Static scan found 0 security anti-patterns (no os.system, eval, or exec calls)."
		secConfidence = 0.95
		secLocation = scan.root
	} else {
		summaries := make([]string, 0, 3)
		for i, is := range issues {
			if i == 3 {
				break
			}
			summaries = append(summaries, fmt.Sprintf("%s %s", is.Location, is.Issue))
		}
		secRationale = fmt.Sprintf("%d issues: %s", len(issues), strings.Join(summaries, "; "))
		secConfidence = 0.5
		secLocation = issues[0].Location
	}

	content, _ := json.Marshal(map[string]any{"securityIssues": issues})
	securityEv := mustEvidence(domain.EvidenceInput{
		CriterionID: dimID,
		Goal:        "Check for shell-execution anti-patterns",
		Found:       len(issues) > 0,
		Content:     string(content),
		Location:    secLocation,
		Rationale:   secRationale,
		Confidence:  secConfidence,
	})

	return []domain.Evidence{sandboxEv, securityEv}
}

func checkStructuredOutput(dimID string, scan *worktreeScan) domain.Evidence {
	structured := scan.grep(regexp.MustCompile(`\.with_structured_output\(`))
	boundTools := scan.grep(regexp.MustCompile(`\.bind_tools\(`))

	var details []string
	if len(structured) > 0 {
		details = append(details, ".with_structured_output() found")
	}
	if len(boundTools) > 0 {
		details = append(details, ".bind_tools() found")
	}
	rationale := "No structured output methods found."
	if len(details) > 0 {
		rationale = strings.Join(details, "; ")
	}

	location := domain.LocationNotFound
	if len(structured) > 0 {
		location = structured[0]
	} else if len(boundTools) > 0 {
		location = boundTools[0]
	}

	found := len(structured) > 0 || len(boundTools) > 0
	return mustEvidence(domain.EvidenceInput{
		CriterionID: dimID,
		Goal:        "Check structured output enforcement on judge calls",
		Found:       found,
		Location:    location,
		Rationale:   rationale,
		Confidence:  ternary(found, 0.8, 0.4),
	})
}

// keywordPresence is the fallback protocol for dimensions without a
// dedicated check: scan file contents for the dimension's ID tokens.
func keywordPresence(dim domain.Dimension, scan *worktreeScan) domain.Evidence {
	tokens := strings.Split(dim.ID, "_")
	hits := 0
	location := domain.LocationNotFound
	for file, body := range scan.contents {
		lower := strings.ToLower(body)
		for _, token := range tokens {
			if len(token) > 3 && strings.Contains(lower, token) {
				hits++
				if location == domain.LocationNotFound {
					location = file
				}
				break
			}
		}
	}

	return mustEvidence(domain.EvidenceInput{
		CriterionID: dim.ID,
		Goal:        fmt.Sprintf("Scan repository for %s indicators", strings.Join(tokens, " ")),
		Found:       hits > 0,
		Location:    location,
		Rationale:   fmt.Sprintf("Keyword scan matched %d file(s). No dedicated forensic protocol for this dimension.", hits),
		Confidence:  ternary(hits > 0, 0.4, 0.2),
	})
}

// mustEvidence is for protocol-internal construction where the inputs
// are known valid.
func mustEvidence(input domain.EvidenceInput) domain.Evidence {
	ev, err := domain.NewEvidence(input)
	if err != nil {
		return domain.NewErrorEvidence(input.CriterionID, input.Goal, input.Location, err)
	}
	return ev
}

func ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
