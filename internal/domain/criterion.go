package domain

// DissentThreshold is the opinion-score spread above which dissent
// documentation becomes mandatory.
const DissentThreshold = 2

// CriterionResult is the synthesized outcome for one rubric dimension.
type CriterionResult struct {
	DimensionID    string            `json:"dimensionId"`
	DimensionName  string            `json:"dimensionName"`
	FinalScore     int               `json:"finalScore"`
	JudgeOpinions  []JudicialOpinion `json:"judgeOpinions"`
	RulesFired     []string          `json:"rulesFired,omitempty"`
	DissentSummary string            `json:"dissentSummary,omitempty"`
	Remediation    string            `json:"remediation"`
}

// CriterionResultInput captures the inputs for a CriterionResult.
type CriterionResultInput struct {
	DimensionID    string
	DimensionName  string
	FinalScore     int
	JudgeOpinions  []JudicialOpinion
	RulesFired     []string
	DissentSummary string
	Remediation    string
}

// NewCriterionResult validates and constructs a CriterionResult.
//
// The dissent invariant is structural: a spread above DissentThreshold
// without a dissent summary is a construction error, as is a dissent
// summary attached to agreeing opinions. The zero-opinion case also
// requires dissent text (the standard "no opinions" explanation).
func NewCriterionResult(input CriterionResultInput) (CriterionResult, error) {
	if err := ValidateCriterionID(input.DimensionID); err != nil {
		return CriterionResult{}, err
	}
	if input.FinalScore < MinScore || input.FinalScore > MaxScore {
		return CriterionResult{}, NewError(KindValidation, "final score %d outside [%d,%d]", input.FinalScore, MinScore, MaxScore)
	}

	seen := make(map[Persona]bool, len(input.JudgeOpinions))
	for _, op := range input.JudgeOpinions {
		if !op.Judge.Valid() {
			return CriterionResult{}, NewError(KindValidation, "unknown judge persona %q", op.Judge)
		}
		if op.CriterionID != input.DimensionID {
			return CriterionResult{}, NewError(KindValidation,
				"opinion for %q attached to result for %q", op.CriterionID, input.DimensionID)
		}
		if seen[op.Judge] {
			return CriterionResult{}, NewError(KindValidation, "duplicate opinion from %s for %s", op.Judge, input.DimensionID)
		}
		seen[op.Judge] = true
	}

	spread := ScoreSpread(input.JudgeOpinions)
	switch {
	case len(input.JudgeOpinions) == 0 && input.DissentSummary == "":
		return CriterionResult{}, NewError(KindValidation,
			"result for %s has no opinions and no dissent explanation", input.DimensionID)
	case spread > DissentThreshold && input.DissentSummary == "":
		return CriterionResult{}, NewError(KindValidation,
			"score spread %d > %d for %s requires a dissent summary", spread, DissentThreshold, input.DimensionID)
	case len(input.JudgeOpinions) >= 2 && spread <= DissentThreshold && input.DissentSummary != "":
		return CriterionResult{}, NewError(KindValidation,
			"score spread %d <= %d for %s forbids a dissent summary", spread, DissentThreshold, input.DimensionID)
	}

	return CriterionResult{
		DimensionID:    input.DimensionID,
		DimensionName:  input.DimensionName,
		FinalScore:     input.FinalScore,
		JudgeOpinions:  input.JudgeOpinions,
		RulesFired:     input.RulesFired,
		DissentSummary: input.DissentSummary,
		Remediation:    input.Remediation,
	}, nil
}

// ScoreSpread returns max(score) - min(score) over the opinions.
// Fewer than two opinions yield a spread of zero.
func ScoreSpread(opinions []JudicialOpinion) int {
	if len(opinions) < 2 {
		return 0
	}
	minScore, maxScore := opinions[0].Score, opinions[0].Score
	for _, op := range opinions[1:] {
		if op.Score < minScore {
			minScore = op.Score
		}
		if op.Score > maxScore {
			maxScore = op.Score
		}
	}
	return maxScore - minScore
}
