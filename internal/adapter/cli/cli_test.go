package cli_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/bkyoung/automaton-auditor/internal/adapter/cli"
	"github.com/bkyoung/automaton-auditor/internal/domain"
	"github.com/bkyoung/automaton-auditor/internal/usecase/audit"
	"github.com/bkyoung/automaton-auditor/internal/usecase/gather"
)

type auditorStub struct {
	request        audit.Request
	interimRequest audit.Request
	result         audit.Result
	interim        audit.InterimResult
	err            error
}

func (a *auditorStub) Run(ctx context.Context, req audit.Request) (audit.Result, error) {
	a.request = req
	return a.result, a.err
}

func (a *auditorStub) RunInterim(ctx context.Context, req audit.Request) (audit.InterimResult, error) {
	a.interimRequest = req
	return a.interim, a.err
}

func stubResult() audit.Result {
	return audit.Result{
		RunID: "run-abc123",
		Report: domain.AuditReport{
			RepoURL:      "https://github.com/acme/widgets",
			OverallScore: 3.5,
			Criteria: []domain.CriterionResult{
				{DimensionID: "graph_orchestration", DimensionName: "Graph Orchestration", FinalScore: 4},
				{DimensionID: "report_accuracy", FinalScore: 3},
			},
		},
		Markdown:   "# Verdict",
		ReportPath: "audits/acme/widgets/audit_report.md",
	}
}

func TestAuditCommandInvokesUseCase(t *testing.T) {
	stub := &auditorStub{result: stubResult()}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Auditor:           stub,
		Args:              cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		DefaultReportPath: "report.md",
		ModelMetadata:     map[string]string{"detective": "static-analysis"},
		Version:           "v1.2.3",
	})

	root.SetArgs([]string{"audit", "https://github.com/acme/widgets"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.request.RepoURL != "https://github.com/acme/widgets" {
		t.Fatalf("expected repo URL to be forwarded, got %s", stub.request.RepoURL)
	}
	if stub.request.ReportPath != "report.md" {
		t.Fatalf("expected default report path, got %s", stub.request.ReportPath)
	}
	if stub.request.ModelMetadata["detective"] != "static-analysis" {
		t.Fatalf("expected model metadata to be forwarded")
	}

	output := buf.String()
	if !strings.Contains(output, "Overall score: 3.50/5.0") {
		t.Fatalf("expected overall score in output, got %q", output)
	}
	if !strings.Contains(output, "Graph Orchestration") {
		t.Fatalf("expected criterion names in output, got %q", output)
	}
	if !strings.Contains(output, "audits/acme/widgets/audit_report.md") {
		t.Fatalf("expected report path in output, got %q", output)
	}
}

func TestAuditCommandReportFlagOverridesDefault(t *testing.T) {
	stub := &auditorStub{result: stubResult()}
	root := cli.NewRootCommand(cli.Dependencies{
		Auditor:           stub,
		Args:              cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
		DefaultReportPath: "default.md",
	})

	root.SetArgs([]string{"audit", "https://github.com/acme/widgets", "--report", "docs/design.md"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.request.ReportPath != "docs/design.md" {
		t.Fatalf("expected flag to win over default, got %s", stub.request.ReportPath)
	}
}

func TestAuditCommandPrintsVerdictWhenPersistenceFailed(t *testing.T) {
	result := stubResult()
	result.ReportPath = ""
	stub := &auditorStub{result: result}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Auditor: stub,
		Args:    cli.Arguments{OutWriter: out, ErrWriter: errOut},
	})

	root.SetArgs([]string{"audit", "https://github.com/acme/widgets"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if !strings.Contains(out.String(), "# Verdict") {
		t.Fatalf("expected in-memory verdict on stdout, got %q", out.String())
	}
	if !strings.Contains(errOut.String(), "persistence failed") {
		t.Fatalf("expected persistence warning on stderr, got %q", errOut.String())
	}
}

func TestAuditCommandPropagatesError(t *testing.T) {
	stub := &auditorStub{err: errors.New("boom")}
	root := cli.NewRootCommand(cli.Dependencies{
		Auditor: stub,
		Args:    cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"audit", "https://github.com/acme/widgets"})
	if err := root.Execute(); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected wrapped use case error, got %v", err)
	}
}

func TestInterimCommandInvokesUseCase(t *testing.T) {
	stub := &auditorStub{interim: audit.InterimResult{
		RunID:         "run-def456",
		Evidence:      gather.EvidenceSet{gather.SourceRepo: nil, gather.SourceDoc: nil},
		EvidencePath:  "audits/evidence/run-def456.json",
		EvidenceCount: 12,
	}}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Auditor: stub,
		Args:    cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{"interim", "https://github.com/acme/widgets", "--report", "docs/design.md"})
	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}

	if stub.interimRequest.RepoURL != "https://github.com/acme/widgets" {
		t.Fatalf("expected repo URL to be forwarded, got %s", stub.interimRequest.RepoURL)
	}
	if stub.interimRequest.ReportPath != "docs/design.md" {
		t.Fatalf("expected report flag to be forwarded, got %s", stub.interimRequest.ReportPath)
	}
	if !strings.Contains(buf.String(), "12 evidence records from 2 sources") {
		t.Fatalf("expected evidence summary in output, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "run-def456.json") {
		t.Fatalf("expected dump path in output, got %q", buf.String())
	}
}

func TestVersionFlagEmitsVersion(t *testing.T) {
	stub := &auditorStub{}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Auditor: stub,
		Args:    cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version: "v9.9.9",
	})

	root.SetArgs([]string{"--version"})
	err := root.Execute()
	if !errors.Is(err, cli.ErrVersionRequested) {
		t.Fatalf("expected ErrVersionRequested, got %v", err)
	}
	if !strings.Contains(buf.String(), "v9.9.9") {
		t.Fatalf("expected version output, got %q", buf.String())
	}
}

func TestRootWithoutArgsShowsHelp(t *testing.T) {
	stub := &auditorStub{}
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Auditor: stub,
		Args:    cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
	})

	root.SetArgs([]string{})
	if err := root.Execute(); err != nil {
		t.Fatalf("help execution failed: %v", err)
	}
	if !strings.Contains(buf.String(), "audit") {
		t.Fatalf("expected help text listing commands, got %q", buf.String())
	}
}
