package domain

import "math"

// OverallScoreTolerance bounds the allowed drift between the report's
// overall score and the mean of its criterion scores.
const OverallScoreTolerance = 0.5

// AuditReport is the whole-repository outcome.
type AuditReport struct {
	RepoURL          string            `json:"repoUrl"`
	CommitHash       string            `json:"commitHash,omitempty"`
	ModelMetadata    map[string]string `json:"modelMetadata,omitempty"`
	OverallScore     float64           `json:"overallScore"`
	ExecutiveSummary string            `json:"executiveSummary"`
	Criteria         []CriterionResult `json:"criteria"`
	RemediationPlan  string            `json:"remediationPlan"`
}

// AuditReportInput captures the inputs for an AuditReport.
type AuditReportInput struct {
	RepoURL          string
	CommitHash       string
	ModelMetadata    map[string]string
	OverallScore     float64
	ExecutiveSummary string
	Criteria         []CriterionResult
	RemediationPlan  string
}

// NewAuditReport validates and constructs an AuditReport. The
// overall-score consistency check guards against summary/detail drift:
// the overall must stay within OverallScoreTolerance of the criteria mean.
func NewAuditReport(input AuditReportInput) (AuditReport, error) {
	if input.RepoURL == "" {
		return AuditReport{}, NewError(KindValidation, "report repo URL must not be empty")
	}
	if len(input.Criteria) == 0 {
		return AuditReport{}, NewError(KindValidation, "report must have at least one criterion result")
	}
	if input.OverallScore < float64(MinScore) || input.OverallScore > float64(MaxScore) {
		return AuditReport{}, NewError(KindValidation, "overall score %v outside [%d,%d]", input.OverallScore, MinScore, MaxScore)
	}
	if input.ExecutiveSummary == "" {
		return AuditReport{}, NewError(KindValidation, "report executive summary must not be empty")
	}

	mean := meanFinalScore(input.Criteria)
	if math.Abs(input.OverallScore-mean) > OverallScoreTolerance {
		return AuditReport{}, NewError(KindValidation,
			"overall score %.2f drifts more than %.2f from criteria mean %.2f",
			input.OverallScore, OverallScoreTolerance, mean)
	}

	return AuditReport{
		RepoURL:          input.RepoURL,
		CommitHash:       input.CommitHash,
		ModelMetadata:    input.ModelMetadata,
		OverallScore:     input.OverallScore,
		ExecutiveSummary: input.ExecutiveSummary,
		Criteria:         input.Criteria,
		RemediationPlan:  input.RemediationPlan,
	}, nil
}

// MeanCriterionScore returns the arithmetic mean of the final scores.
func (r AuditReport) MeanCriterionScore() float64 {
	return meanFinalScore(r.Criteria)
}

func meanFinalScore(criteria []CriterionResult) float64 {
	if len(criteria) == 0 {
		return 0
	}
	total := 0
	for _, c := range criteria {
		total += c.FinalScore
	}
	return float64(total) / float64(len(criteria))
}
