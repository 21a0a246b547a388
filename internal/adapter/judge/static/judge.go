// Package static implements the judicial bench as deterministic
// persona scorers over collected evidence. Each persona reads the
// same evidence and reaches a different verdict by design.
package static

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/bkyoung/automaton-auditor/internal/domain"
	"github.com/bkyoung/automaton-auditor/internal/usecase/audit"
	"github.com/bkyoung/automaton-auditor/internal/usecase/gather"
)

const maxCitations = 5

// profile captures a persona's judicial disposition.
type profile struct {
	philosophy string

	// bias shifts the evidence-derived score before rounding. The
	// Prosecutor discounts, the Defense credits, the TechLead reads
	// the artifacts as they are.
	bias float64

	noEvidenceScore    int
	noEvidenceArgument string
	errorScore         int
	errorArgument      string
}

var profiles = map[domain.Persona]profile{
	domain.PersonaProsecutor: {
		philosophy:         "Trust no one. Assume shortcuts.",
		bias:               -0.75,
		noEvidenceScore:    1,
		noEvidenceArgument: "No evidence collected for %s. This indicates a fundamental failure in the forensic process.",
		errorScore:         1,
		errorArgument:      "Every collection protocol for %s failed. Absence of verifiable facts is treated as absence of the work.",
	},
	domain.PersonaDefense: {
		philosophy:         "Reward effort and intent.",
		bias:               0.75,
		noEvidenceScore:    3,
		noEvidenceArgument: "Evidence collection may have failed, but that does not prove %s is absent. The implementation may simply be in progress.",
		errorScore:         3,
		errorArgument:      "Collection errors for %s say more about the tooling than the work. Benefit of the doubt applies.",
	},
	domain.PersonaTechLead: {
		philosophy: "Does it actually work?",
		bias:       0,
		noEvidenceScore:    1,
		noEvidenceArgument: "No evidence available for %s. Cannot verify functionality without evidence.",
		errorScore:         2,
		errorArgument:      "Collection errors for %s leave functionality unverified. Scoring conservatively.",
	},
}

// Judge renders one persona's opinions across the whole rubric.
type Judge struct {
	persona domain.Persona
	profile profile
}

// NewJudge constructs the scorer for one persona.
func NewJudge(persona domain.Persona) (*Judge, error) {
	p, ok := profiles[persona]
	if !ok {
		return nil, domain.NewError(domain.KindConfiguration, "no judicial profile for persona %q", persona)
	}
	return &Judge{persona: persona, profile: p}, nil
}

// Bench returns the full three-persona bench.
func Bench() []audit.Judge {
	bench := make([]audit.Judge, 0, len(domain.Personas()))
	for _, persona := range domain.Personas() {
		j, err := NewJudge(persona)
		if err != nil {
			continue
		}
		bench = append(bench, j)
	}
	return bench
}

func (j *Judge) Persona() domain.Persona { return j.persona }

// Deliberate renders one opinion per rubric dimension.
func (j *Judge) Deliberate(_ context.Context, rubric domain.Rubric, evidence gather.EvidenceSet) ([]domain.JudicialOpinion, error) {
	opinions := make([]domain.JudicialOpinion, 0, len(rubric.Dimensions))
	for _, dim := range rubric.Dimensions {
		evs := gather.CollectEvidence(evidence, dim.ID)
		opinion, err := j.deliberateOne(dim, evs)
		if err != nil {
			return nil, err
		}
		opinions = append(opinions, opinion)
	}
	return opinions, nil
}

func (j *Judge) deliberateOne(dim domain.Dimension, evs []domain.Evidence) (domain.JudicialOpinion, error) {
	name := dim.Name
	if name == "" {
		name = dim.ID
	}

	if len(evs) == 0 {
		return domain.NewOpinion(domain.OpinionInput{
			Judge:       j.persona,
			CriterionID: dim.ID,
			Score:       j.profile.noEvidenceScore,
			Argument:    fmt.Sprintf(j.profile.noEvidenceArgument, name),
		})
	}

	totalConfidence := 0.0
	foundConfidence := 0.0
	for _, ev := range evs {
		totalConfidence += ev.Confidence
		if ev.Found {
			foundConfidence += ev.Confidence
		}
	}

	if totalConfidence == 0 {
		return domain.NewOpinion(domain.OpinionInput{
			Judge:         j.persona,
			CriterionID:   dim.ID,
			Score:         j.profile.errorScore,
			Argument:      fmt.Sprintf(j.profile.errorArgument, name),
			CitedEvidence: citations(evs),
		})
	}

	// Confidence-weighted presence ratio mapped onto the score range,
	// then shifted by the persona's disposition.
	ratio := foundConfidence / totalConfidence
	score := int(math.Round(1 + ratio*4 + j.profile.bias))
	if score < domain.MinScore {
		score = domain.MinScore
	}
	if score > domain.MaxScore {
		score = domain.MaxScore
	}

	argument := j.buildArgument(name, evs, ratio)

	if j.persona == domain.PersonaProsecutor {
		if violation := findViolation(evs); violation != "" {
			score = domain.MinScore
			argument = fmt.Sprintf("Security negligence in %s: %s", name, violation)
		} else if hallucinated(evs) {
			if score > 2 {
				score = 2
			}
			argument += " The report also claims files the repository does not contain."
		}
	}

	return domain.NewOpinion(domain.OpinionInput{
		Judge:         j.persona,
		CriterionID:   dim.ID,
		Score:         score,
		Argument:      argument,
		CitedEvidence: citations(evs),
	})
}

func (j *Judge) buildArgument(name string, evs []domain.Evidence, ratio float64) string {
	strongest := evs[0]
	for _, ev := range evs {
		if ev.Confidence > strongest.Confidence {
			strongest = ev
		}
	}

	var missing []string
	for _, ev := range evs {
		if !ev.Found {
			missing = append(missing, strings.ToLower(ev.Goal))
		}
	}

	switch j.persona {
	case domain.PersonaProsecutor:
		if len(missing) > 0 {
			return fmt.Sprintf("Evidence for %s shows missing elements: %s. %s",
				name, strings.Join(missing, "; "), strongest.Rationale)
		}
		return fmt.Sprintf("%s is present, but presence alone is not rigor. %s", name, strongest.Rationale)
	case domain.PersonaDefense:
		if ratio >= 0.5 {
			return fmt.Sprintf("The work on %s demonstrates genuine engineering intent. %s", name, strongest.Rationale)
		}
		return fmt.Sprintf("%s is incomplete, but the groundwork shows understanding. %s", name, strongest.Rationale)
	default:
		return fmt.Sprintf("Verified artifacts for %s at %.0f%% confidence-weighted coverage. %s",
			name, ratio*100, strongest.Rationale)
	}
}

// findViolation returns the first evidence rationale containing
// violation language. Quoting it verbatim lets the downstream
// security rules see the exact phrase.
func findViolation(evs []domain.Evidence) string {
	for _, ev := range evs {
		if !ev.Found {
			continue
		}
		lower := strings.ToLower(ev.Rationale)
		for _, phrase := range domain.DefaultViolationPhrases() {
			if strings.Contains(lower, phrase) {
				return ev.Rationale
			}
		}
	}
	return ""
}

func hallucinated(evs []domain.Evidence) bool {
	for _, ev := range evs {
		if strings.HasPrefix(ev.Goal, "HALLUCINATION") {
			return true
		}
	}
	return false
}

func citations(evs []domain.Evidence) []string {
	seen := make(map[string]bool)
	var cited []string
	for _, ev := range evs {
		loc := ev.Location
		if loc == "" || loc == domain.LocationNotFound || seen[loc] {
			continue
		}
		seen[loc] = true
		cited = append(cited, loc)
	}
	sort.Strings(cited)
	if len(cited) > maxCitations {
		cited = cited[:maxCitations]
	}
	return cited
}
