package audit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bkyoung/automaton-auditor/internal/domain"
	"github.com/bkyoung/automaton-auditor/internal/usecase/gather"
	"github.com/bkyoung/automaton-auditor/internal/usecase/remediation"
	"github.com/bkyoung/automaton-auditor/internal/usecase/report"
	"github.com/bkyoung/automaton-auditor/internal/usecase/synthesis"
)

// Detective defines the outbound port for evidence collection. Each
// detective investigates one artifact and writes evidence under its
// own source name.
type Detective interface {
	// Source returns the evidence-set key this detective writes under.
	Source() string

	// Investigate collects evidence for every rubric dimension the
	// detective's artifact covers.
	Investigate(ctx context.Context, req Request, rubric domain.Rubric) (DetectiveResult, error)
}

// DetectiveResult is one detective's contribution to the shared
// evidence set.
type DetectiveResult struct {
	Source   string
	Evidence []domain.Evidence

	// CommitHash is set by detectives that resolve the repository HEAD.
	CommitHash string

	// FileInventory lists repo-relative file paths from an actual
	// repository walk. Used to cross-reference documented claims.
	FileInventory []string
}

// Judge defines the outbound port for persona deliberation over the
// aggregated evidence.
type Judge interface {
	Persona() domain.Persona

	// Deliberate renders one opinion per rubric dimension.
	Deliberate(ctx context.Context, rubric domain.Rubric, evidence gather.EvidenceSet) ([]domain.JudicialOpinion, error)
}

// RubricLoader supplies the evaluation rubric.
type RubricLoader interface {
	Load(ctx context.Context) (domain.Rubric, error)
}

// ReportWriter persists the rendered markdown verdict to disk.
type ReportWriter interface {
	Write(ctx context.Context, artifact ReportArtifact) (string, error)
}

// ReportArtifact encapsulates the report-persistence inputs.
type ReportArtifact struct {
	RepoURL  string
	Markdown string
}

// EvidenceWriter persists the raw aggregated evidence for inspection.
type EvidenceWriter interface {
	Write(ctx context.Context, artifact EvidenceArtifact) (string, error)
}

// EvidenceArtifact encapsulates the evidence-dump inputs.
type EvidenceArtifact struct {
	RunID      string
	RepoURL    string
	CommitHash string
	Evidence   gather.EvidenceSet
}

// SARIFWriter exports failing criteria as code-scanning results for CI
// surfaces.
type SARIFWriter interface {
	Write(ctx context.Context, artifact SARIFArtifact) (string, error)
}

// SARIFArtifact encapsulates the SARIF-export inputs.
type SARIFArtifact struct {
	RunID    string
	RepoURL  string
	Criteria []domain.CriterionResult
	Evidence gather.EvidenceSet
}

// Redactor scrubs secrets from evidence snippets before they reach
// judges, reports, or disk. Audited repositories routinely contain
// committed credentials and the verdict must not republish them.
type Redactor interface {
	Redact(input string) (string, error)
}

// Store defines the outbound port for persisting audit history.
type Store interface {
	SaveAudit(ctx context.Context, record StoreAudit) error
	Close() error
}

// StoreAudit represents an audit run for persistence.
type StoreAudit struct {
	RunID        string
	RepoURL      string
	CommitHash   string
	OverallScore float64
	CreatedAt    time.Time
	Criteria     []domain.CriterionResult
}

// RunIDFunc generates deterministic run identifiers per audit scope.
type RunIDFunc func(repoURL, commitHash string) string

// Deps captures the inbound dependencies for the orchestrator.
type Deps struct {
	Detectives []Detective
	Judges     []Judge
	Rubric     RubricLoader
	Report     ReportWriter
	RunID      RunIDFunc
	Evidence   EvidenceWriter   // Optional: raw evidence dump for debugging
	SARIF      SARIFWriter      // Optional: SARIF export for CI code scanning
	Redactor   Redactor         // Optional: secret scrubbing for evidence snippets
	Store      Store            // Optional: persistence layer for audit history
	Logger     Logger           // Optional: structured logging for warnings and info
	Clock      func() time.Time // Optional: timestamp supplier, defaults to time.Now
}

// Request represents an inbound CLI request.
type Request struct {
	RepoURL       string
	ReportPath    string // Optional: local path to the design report document
	ModelMetadata map[string]string
}

// Result captures the orchestrator outcome.
type Result struct {
	RunID        string
	Report       domain.AuditReport
	Markdown     string
	ReportPath   string // Empty when report persistence failed
	EvidencePath string
	SARIFPath    string
}

// InterimResult captures a detectives-only run: collected evidence
// without judgment or synthesis.
type InterimResult struct {
	RunID         string
	CommitHash    string
	Evidence      gather.EvidenceSet
	EvidencePath  string
	EvidenceCount int
}

// Orchestrator implements the two-barrier audit flow: detectives fan
// out, evidence aggregates, judges fan out, synthesis resolves.
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator wires the orchestrator dependencies.
func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &Orchestrator{deps: deps}
}

// validateDependencies checks that all required dependencies are present.
func (o *Orchestrator) validateDependencies() error {
	if len(o.deps.Detectives) == 0 {
		return errors.New("at least one detective is required")
	}
	if len(o.deps.Judges) == 0 {
		return errors.New("at least one judge is required")
	}
	if o.deps.Rubric == nil {
		return errors.New("rubric loader is required")
	}
	if o.deps.Report == nil {
		return errors.New("report writer is required")
	}
	if o.deps.RunID == nil {
		return errors.New("run ID generator is required")
	}
	// Evidence writer is optional
	// Store is optional
	// Logger is optional
	return nil
}

// Run executes a full audit for one repository.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Result, error) {
	if err := o.validateDependencies(); err != nil {
		return Result{}, err
	}
	if strings.TrimSpace(req.RepoURL) == "" {
		return Result{}, errors.New("repository URL is required")
	}

	rubric, err := o.deps.Rubric.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load rubric: %w", err)
	}
	if err := rubric.Validate(); err != nil {
		return Result{}, fmt.Errorf("validate rubric: %w", err)
	}

	evidence, commitHash, inventory := o.runDetectives(ctx, req, rubric)

	// Cross-reference documented claims against the artifacts the
	// detectives actually observed. Hallucination records land under
	// their own source so later merges stay commutative.
	if crossed := gather.CrossReference(evidence, inventory); len(crossed) > 0 {
		evidence = gather.MergeEvidence(evidence, gather.EvidenceSet{gather.SourceCrossRef: crossed})
	}

	evidence = o.redactEvidence(ctx, evidence)

	runID := o.deps.RunID(req.RepoURL, commitHash)

	var evidencePath string
	if o.deps.Evidence != nil {
		path, err := o.deps.Evidence.Write(ctx, EvidenceArtifact{
			RunID:      runID,
			RepoURL:    req.RepoURL,
			CommitHash: commitHash,
			Evidence:   evidence,
		})
		if err != nil {
			o.warn(ctx, "failed to write evidence dump", map[string]interface{}{
				"runID": runID,
				"error": err.Error(),
			})
		} else {
			evidencePath = path
		}
	}

	opinions := o.runJudges(ctx, rubric, evidence)

	engine := synthesis.NewEngine(rubric.Synthesis)
	composer := remediation.NewComposer()

	criteria := make([]domain.CriterionResult, 0, len(rubric.Dimensions))
	for _, dim := range rubric.Dimensions {
		dimOpinions := gather.CollectOpinions(opinions, dim.ID)
		dimEvidence := gather.CollectEvidence(evidence, dim.ID)

		outcome := engine.Synthesize(dim, dimOpinions, dimEvidence)
		cr, err := domain.NewCriterionResult(domain.CriterionResultInput{
			DimensionID:    dim.ID,
			DimensionName:  dim.Name,
			FinalScore:     outcome.FinalScore,
			JudgeOpinions:  dimOpinions,
			RulesFired:     outcome.RulesFired,
			DissentSummary: outcome.DissentSummary,
			Remediation:    composer.Compose(dim, outcome.FinalScore, dimOpinions),
		})
		if err != nil {
			// Unreachable when the rubric validated: synthesis clamps
			// scores and emits dissent exactly when required.
			return Result{}, fmt.Errorf("synthesize %s: %w", dim.ID, err)
		}
		criteria = append(criteria, cr)
	}

	assembler := report.NewAssembler(o.deps.Clock)
	rep, err := assembler.Assemble(report.AssembleInput{
		RepoURL:       req.RepoURL,
		CommitHash:    commitHash,
		ModelMetadata: req.ModelMetadata,
		Criteria:      criteria,
	})
	if err != nil {
		return Result{}, fmt.Errorf("assemble report: %w", err)
	}

	markdown := report.RenderMarkdown(rep)

	// Persistence is best effort: the in-memory report is returned
	// even when every writer fails.
	var reportPath string
	if path, err := o.deps.Report.Write(ctx, ReportArtifact{RepoURL: req.RepoURL, Markdown: markdown}); err != nil {
		o.warn(ctx, "failed to write report", map[string]interface{}{
			"runID": runID,
			"error": err.Error(),
		})
	} else {
		reportPath = path
	}

	var sarifPath string
	if o.deps.SARIF != nil {
		path, err := o.deps.SARIF.Write(ctx, SARIFArtifact{
			RunID:    runID,
			RepoURL:  req.RepoURL,
			Criteria: criteria,
			Evidence: evidence,
		})
		if err != nil {
			o.warn(ctx, "failed to write sarif export", map[string]interface{}{
				"runID": runID,
				"error": err.Error(),
			})
		} else {
			sarifPath = path
		}
	}

	if o.deps.Store != nil {
		record := StoreAudit{
			RunID:        runID,
			RepoURL:      req.RepoURL,
			CommitHash:   commitHash,
			OverallScore: rep.OverallScore,
			CreatedAt:    o.deps.Clock(),
			Criteria:     criteria,
		}
		if err := o.deps.Store.SaveAudit(ctx, record); err != nil {
			o.warn(ctx, "failed to save audit record", map[string]interface{}{
				"runID": runID,
				"error": err.Error(),
			})
		}
	}

	return Result{
		RunID:        runID,
		Report:       rep,
		Markdown:     markdown,
		ReportPath:   reportPath,
		EvidencePath: evidencePath,
		SARIFPath:    sarifPath,
	}, nil
}

// RunInterim executes barrier 1 only: detectives investigate, claims
// are cross-referenced, and the aggregated evidence is dumped for
// inspection. No judges deliberate and no verdict is rendered; the
// dump exists so a disputed audit can be re-litigated from its facts.
func (o *Orchestrator) RunInterim(ctx context.Context, req Request) (InterimResult, error) {
	if len(o.deps.Detectives) == 0 {
		return InterimResult{}, errors.New("at least one detective is required")
	}
	if o.deps.Rubric == nil {
		return InterimResult{}, errors.New("rubric loader is required")
	}
	if o.deps.RunID == nil {
		return InterimResult{}, errors.New("run ID generator is required")
	}
	if o.deps.Evidence == nil {
		return InterimResult{}, errors.New("evidence writer is required for interim runs")
	}
	if strings.TrimSpace(req.RepoURL) == "" {
		return InterimResult{}, errors.New("repository URL is required")
	}

	rubric, err := o.deps.Rubric.Load(ctx)
	if err != nil {
		return InterimResult{}, fmt.Errorf("load rubric: %w", err)
	}
	if err := rubric.Validate(); err != nil {
		return InterimResult{}, fmt.Errorf("validate rubric: %w", err)
	}

	evidence, commitHash, inventory := o.runDetectives(ctx, req, rubric)
	if crossed := gather.CrossReference(evidence, inventory); len(crossed) > 0 {
		evidence = gather.MergeEvidence(evidence, gather.EvidenceSet{gather.SourceCrossRef: crossed})
	}
	evidence = o.redactEvidence(ctx, evidence)

	runID := o.deps.RunID(req.RepoURL, commitHash)
	path, err := o.deps.Evidence.Write(ctx, EvidenceArtifact{
		RunID:      runID,
		RepoURL:    req.RepoURL,
		CommitHash: commitHash,
		Evidence:   evidence,
	})
	if err != nil {
		return InterimResult{}, fmt.Errorf("write evidence dump: %w", err)
	}

	count := 0
	for _, list := range evidence {
		count += len(list)
	}

	return InterimResult{
		RunID:         runID,
		CommitHash:    commitHash,
		Evidence:      evidence,
		EvidencePath:  path,
		EvidenceCount: count,
	}, nil
}

// redactEvidence scrubs secrets out of every snippet field. A failed
// scrub drops the snippet rather than risking a leaked credential in
// the verdict.
func (o *Orchestrator) redactEvidence(ctx context.Context, evidence gather.EvidenceSet) gather.EvidenceSet {
	if o.deps.Redactor == nil {
		return evidence
	}
	for source, list := range evidence {
		for i, ev := range list {
			if ev.Content == "" {
				continue
			}
			scrubbed, err := o.deps.Redactor.Redact(ev.Content)
			if err != nil {
				o.warn(ctx, "failed to redact evidence snippet", map[string]interface{}{
					"source":    source,
					"criterion": ev.CriterionID,
					"error":     err.Error(),
				})
				scrubbed = ""
			}
			list[i].Content = scrubbed
		}
	}
	return evidence
}

// runDetectives is barrier 1: every detective runs concurrently and
// the barrier holds until each has reported success or failure. A
// failed detective degrades into zero-confidence error evidence so
// the judges still see why an artifact is missing.
func (o *Orchestrator) runDetectives(ctx context.Context, req Request, rubric domain.Rubric) (gather.EvidenceSet, string, []string) {
	type detectiveOutcome struct {
		source string
		result DetectiveResult
		err    error
	}

	var wg sync.WaitGroup
	results := make(chan detectiveOutcome, len(o.deps.Detectives))

	for _, det := range o.deps.Detectives {
		wg.Add(1)
		go func(det Detective) {
			defer func() {
				if r := recover(); r != nil {
					results <- detectiveOutcome{
						source: det.Source(),
						err:    fmt.Errorf("detective %s panicked: %v", det.Source(), r),
					}
				}
				wg.Done()
			}()

			result, err := det.Investigate(ctx, req, rubric)
			if err != nil {
				results <- detectiveOutcome{source: det.Source(), err: err}
				return
			}
			if result.Source == "" {
				result.Source = det.Source()
			}
			results <- detectiveOutcome{source: result.Source, result: result}
		}(det)
	}

	wg.Wait()
	close(results)

	evidence := gather.EvidenceSet{}
	var commitHash string
	var inventory []string

	for outcome := range results {
		if outcome.err != nil {
			o.warn(ctx, "detective failed", map[string]interface{}{
				"source": outcome.source,
				"error":  outcome.err.Error(),
			})
			failed := make([]domain.Evidence, 0, len(rubric.Dimensions))
			for _, dim := range rubric.Dimensions {
				failed = append(failed, domain.NewErrorEvidence(
					dim.ID,
					fmt.Sprintf("investigation by %s", outcome.source),
					domain.LocationNotFound,
					outcome.err,
				))
			}
			evidence = gather.MergeEvidence(evidence, gather.EvidenceSet{outcome.source: failed})
			continue
		}

		evidence = gather.MergeEvidence(evidence, gather.EvidenceSet{outcome.source: outcome.result.Evidence})
		if commitHash == "" && outcome.result.CommitHash != "" {
			commitHash = outcome.result.CommitHash
		}
		if len(inventory) == 0 && len(outcome.result.FileInventory) > 0 {
			inventory = outcome.result.FileInventory
		}
	}

	return evidence, commitHash, inventory
}

// runJudges is barrier 2: persona deliberations run concurrently over
// the aggregated evidence. A failed judge contributes nothing; the
// synthesis defaults absorb the gap.
func (o *Orchestrator) runJudges(ctx context.Context, rubric domain.Rubric, evidence gather.EvidenceSet) []domain.JudicialOpinion {
	type judgeOutcome struct {
		persona  domain.Persona
		opinions []domain.JudicialOpinion
		err      error
	}

	var wg sync.WaitGroup
	results := make(chan judgeOutcome, len(o.deps.Judges))

	for _, j := range o.deps.Judges {
		wg.Add(1)
		go func(j Judge) {
			defer func() {
				if r := recover(); r != nil {
					results <- judgeOutcome{
						persona: j.Persona(),
						err:     fmt.Errorf("judge %s panicked: %v", j.Persona(), r),
					}
				}
				wg.Done()
			}()

			opinions, err := j.Deliberate(ctx, rubric, evidence)
			results <- judgeOutcome{persona: j.Persona(), opinions: opinions, err: err}
		}(j)
	}

	wg.Wait()
	close(results)

	var merged []domain.JudicialOpinion
	for outcome := range results {
		if outcome.err != nil {
			o.warn(ctx, "judge failed", map[string]interface{}{
				"persona": string(outcome.persona),
				"error":   outcome.err.Error(),
			})
			continue
		}
		merged = gather.MergeOpinions(merged, outcome.opinions)
	}

	return o.dedupeOpinions(ctx, merged)
}

// dedupeOpinions keeps the first opinion per (persona, dimension)
// pair. Duplicates indicate a misbehaving judge and are logged.
func (o *Orchestrator) dedupeOpinions(ctx context.Context, opinions []domain.JudicialOpinion) []domain.JudicialOpinion {
	type key struct {
		persona   domain.Persona
		dimension string
	}

	seen := make(map[key]bool, len(opinions))
	deduped := make([]domain.JudicialOpinion, 0, len(opinions))
	for _, op := range opinions {
		k := key{persona: op.Judge, dimension: op.CriterionID}
		if seen[k] {
			o.warn(ctx, "duplicate opinion discarded", map[string]interface{}{
				"persona":   string(op.Judge),
				"dimension": op.CriterionID,
			})
			continue
		}
		seen[k] = true
		deduped = append(deduped, op)
	}
	return deduped
}

func (o *Orchestrator) warn(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogWarning(ctx, message, fields)
		return
	}
	log.Printf("warning: %s: %v\n", message, fields)
}
