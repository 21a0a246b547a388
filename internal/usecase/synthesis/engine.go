// Package synthesis implements the deterministic conflict-resolution
// cascade that reduces three persona opinions into one final score.
package synthesis

import (
	"math"
	"strings"

	"github.com/bkyoung/automaton-auditor/internal/domain"
	"github.com/bkyoung/automaton-auditor/internal/usecase/gather"
)

// Rule names recorded in the audit trail.
const (
	RuleNoOpinionsDefault    = "no_opinions_default"
	RuleSecurityOverride     = "security_override"
	RuleFunctionalityWeight  = "functionality_weight"
	RuleVarianceReevaluation = "variance_reevaluation"
	RuleWeightedAverage      = "weighted_average"
)

// NoOpinionsDissent is the fixed explanation attached when no judge
// rendered an opinion for a criterion.
const NoOpinionsDissent = "No judicial opinions were rendered for this criterion."

// Outcome is the synthesis result for one dimension.
type Outcome struct {
	FinalScore     int
	RulesFired     []string
	DissentSummary string
}

// Engine applies the fixed rule cascade. It is pure computation over
// already-materialized inputs: no I/O, no suspension, same inputs in,
// same outcome out.
type Engine struct {
	violationPhrases []string
	weights          map[domain.Persona]float64
}

// NewEngine builds an engine from the rubric's synthesis configuration.
// An empty phrase list selects the curated defaults.
func NewEngine(cfg domain.SynthesisConfig) *Engine {
	phrases := cfg.ViolationPhrases
	if len(phrases) == 0 {
		phrases = domain.DefaultViolationPhrases()
	}
	lowered := make([]string, len(phrases))
	for i, p := range phrases {
		lowered[i] = strings.ToLower(p)
	}
	return &Engine{
		violationPhrases: lowered,
		weights: map[domain.Persona]float64{
			domain.PersonaTechLead:   0.4,
			domain.PersonaProsecutor: 0.3,
			domain.PersonaDefense:    0.3,
		},
	}
}

// Synthesize resolves the dimension's opinions into a final score plus
// the audit trail of the rule that produced it. Missing personas are
// tolerated: every rule operates over whichever scores are present.
func (e *Engine) Synthesize(dim domain.Dimension, opinions []domain.JudicialOpinion, evidence []domain.Evidence) Outcome {
	if len(opinions) == 0 {
		return Outcome{
			FinalScore:     domain.MinScore,
			RulesFired:     []string{RuleNoOpinionsDefault},
			DissentSummary: NoOpinionsDissent,
		}
	}

	scores := make([]int, 0, len(opinions))
	for _, op := range opinions {
		scores = append(scores, op.Score)
	}
	spread := domain.ScoreSpread(opinions)

	dissent := ""
	if spread > domain.DissentThreshold {
		dissent = buildDissent(opinions)
	}

	// Rule: security override. Only the tool-safety dimension, and only
	// on actual violation language from the Prosecutor. Praise that
	// happens to mention security must not trip this.
	if dim.ID == domain.DimensionSafeToolEngineering {
		if prosecutor, ok := gather.OpinionByPersona(opinions, domain.PersonaProsecutor); ok {
			if prosecutor.Score <= 2 && e.containsViolationPhrase(prosecutor.Argument) {
				capped := minInt(3, maxOf(scores))
				return Outcome{FinalScore: capped, RulesFired: []string{RuleSecurityOverride}, DissentSummary: dissent}
			}
		}
	}

	// Rule: functionality weight. The TechLead dominates structural
	// scoring because that persona is bound to artifacts, not vibe.
	if dim.ID == domain.DimensionGraphOrchestration {
		if techLead, ok := gather.OpinionByPersona(opinions, domain.PersonaTechLead); ok {
			if techLead.Score >= 4 {
				return Outcome{FinalScore: maxOf(scores), RulesFired: []string{RuleFunctionalityWeight}, DissentSummary: dissent}
			}
			if techLead.Score <= 2 {
				return Outcome{FinalScore: minOf(scores), RulesFired: []string{RuleFunctionalityWeight}, DissentSummary: dissent}
			}
		}
	}

	// Rule: variance re-evaluation. High disagreement is never rewarded
	// with a generous score; the TechLead breaks ties only from strictly
	// inside the disputed range.
	if spread > domain.DissentThreshold {
		low, high := minOf(scores), maxOf(scores)
		if techLead, ok := gather.OpinionByPersona(opinions, domain.PersonaTechLead); ok {
			if techLead.Score > low && techLead.Score < high {
				return Outcome{FinalScore: techLead.Score, RulesFired: []string{RuleVarianceReevaluation}, DissentSummary: dissent}
			}
		}
		conservative := low
		if low < 3 {
			conservative = low + 1
		}
		return Outcome{FinalScore: conservative, RulesFired: []string{RuleVarianceReevaluation}, DissentSummary: dissent}
	}

	// Default: weighted average, renormalized over present personas,
	// rounded half away from zero, clamped into the score range.
	var weightedSum, weightTotal float64
	for _, op := range opinions {
		weight, ok := e.weights[op.Judge]
		if !ok {
			continue
		}
		weightedSum += float64(op.Score) * weight
		weightTotal += weight
	}
	final := clampScore(int(math.Round(weightedSum / weightTotal)))
	return Outcome{FinalScore: final, RulesFired: []string{RuleWeightedAverage}, DissentSummary: dissent}
}

func (e *Engine) containsViolationPhrase(argument string) bool {
	lowered := strings.ToLower(argument)
	for _, phrase := range e.violationPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

func clampScore(score int) int {
	if score < domain.MinScore {
		return domain.MinScore
	}
	if score > domain.MaxScore {
		return domain.MaxScore
	}
	return score
}

func minOf(scores []int) int {
	m := scores[0]
	for _, s := range scores[1:] {
		if s < m {
			m = s
		}
	}
	return m
}

func maxOf(scores []int) int {
	m := scores[0]
	for _, s := range scores[1:] {
		if s > m {
			m = s
		}
	}
	return m
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
