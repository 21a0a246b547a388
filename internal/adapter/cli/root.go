package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bkyoung/automaton-auditor/internal/usecase/audit"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Auditor defines the dependency required to run the audit commands.
type Auditor interface {
	Run(ctx context.Context, req audit.Request) (audit.Result, error)
	RunInterim(ctx context.Context, req audit.Request) (audit.InterimResult, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Auditor           Auditor
	Args              Arguments
	DefaultReportPath string // From config, overridden by --report
	ModelMetadata     map[string]string
	Version           string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "aa",
		Short: "Courtroom-style repository audit CLI",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(auditCommand(deps.Auditor, deps.DefaultReportPath, deps.ModelMetadata))
	root.AddCommand(interimCommand(deps.Auditor, deps.DefaultReportPath))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

func auditCommand(auditor Auditor, defaultReportPath string, metadata map[string]string) *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "audit <repository>",
		Short: "Audit a repository and its design report, rendering a final verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoURL := args[0]
			if reportPath == "" {
				reportPath = defaultReportPath
			}

			if isInteractive() {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Auditing %s...\n", repoURL)
			}

			result, err := auditor.Run(cmd.Context(), audit.Request{
				RepoURL:       repoURL,
				ReportPath:    reportPath,
				ModelMetadata: metadata,
			})
			if err != nil {
				return fmt.Errorf("audit failed: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Audit %s complete.\n", result.RunID)
			_, _ = fmt.Fprintf(out, "Overall score: %.2f/5.0\n", result.Report.OverallScore)
			for _, cr := range result.Report.Criteria {
				name := cr.DimensionName
				if name == "" {
					name = cr.DimensionID
				}
				_, _ = fmt.Fprintf(out, "  %-35s %d/5\n", name, cr.FinalScore)
			}

			if result.ReportPath != "" {
				_, _ = fmt.Fprintf(out, "Report written to %s\n", result.ReportPath)
			} else {
				// Persistence is best effort; the verdict still exists in memory.
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "warning: report persistence failed; printing verdict")
				_, _ = fmt.Fprintln(out, result.Markdown)
			}
			if result.EvidencePath != "" {
				_, _ = fmt.Fprintf(out, "Evidence dump written to %s\n", result.EvidencePath)
			}
			if result.SARIFPath != "" {
				_, _ = fmt.Fprintf(out, "SARIF export written to %s\n", result.SARIFPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "Path to the design report document")
	return cmd
}

func interimCommand(auditor Auditor, defaultReportPath string) *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "interim <repository>",
		Short: "Run detectives only and dump the collected evidence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repoURL := args[0]
			if reportPath == "" {
				reportPath = defaultReportPath
			}

			if isInteractive() {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Collecting evidence for %s...\n", repoURL)
			}

			result, err := auditor.RunInterim(cmd.Context(), audit.Request{
				RepoURL:    repoURL,
				ReportPath: reportPath,
			})
			if err != nil {
				return fmt.Errorf("interim audit failed: %w", err)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Interim run %s collected %d evidence records from %d sources.\n",
				result.RunID, result.EvidenceCount, len(result.Evidence))
			_, _ = fmt.Fprintf(out, "Evidence dump written to %s\n", result.EvidencePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "Path to the design report document")
	return cmd
}
