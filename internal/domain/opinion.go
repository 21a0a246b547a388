package domain

import "strings"

// Persona identifies one of the three fixed evaluative viewpoints.
type Persona string

const (
	// PersonaProsecutor is the critical viewpoint: assume gaps, hunt flaws.
	PersonaProsecutor Persona = "Prosecutor"
	// PersonaDefense is the lenient viewpoint: reward effort and intent.
	PersonaDefense Persona = "Defense"
	// PersonaTechLead is the pragmatic viewpoint: artifacts over vibe.
	PersonaTechLead Persona = "TechLead"
)

// Personas returns the closed persona set in canonical order.
func Personas() []Persona {
	return []Persona{PersonaProsecutor, PersonaDefense, PersonaTechLead}
}

// Valid reports whether p belongs to the closed persona set.
func (p Persona) Valid() bool {
	switch p {
	case PersonaProsecutor, PersonaDefense, PersonaTechLead:
		return true
	}
	return false
}

const (
	MinScore = 1
	MaxScore = 5
)

// JudicialOpinion is a scored judgment from one persona on one dimension.
type JudicialOpinion struct {
	Judge         Persona  `json:"judge"`
	CriterionID   string   `json:"criterionId"`
	Score         int      `json:"score"`
	Argument      string   `json:"argument"`
	CitedEvidence []string `json:"citedEvidence,omitempty"`
}

// OpinionInput captures the information required to create a JudicialOpinion.
type OpinionInput struct {
	Judge         Persona
	CriterionID   string
	Score         int
	Argument      string
	CitedEvidence []string
}

// NewOpinion validates and constructs a JudicialOpinion. Malformed
// opinions (unknown persona, out-of-range score) are rejected at this
// boundary so the synthesis engine can trust its inputs.
func NewOpinion(input OpinionInput) (JudicialOpinion, error) {
	if !input.Judge.Valid() {
		return JudicialOpinion{}, NewError(KindValidation, "unknown judge persona %q", input.Judge)
	}
	if err := ValidateCriterionID(input.CriterionID); err != nil {
		return JudicialOpinion{}, err
	}
	if input.Score < MinScore || input.Score > MaxScore {
		return JudicialOpinion{}, NewError(KindValidation, "opinion score %d outside [%d,%d]", input.Score, MinScore, MaxScore)
	}
	if strings.TrimSpace(input.Argument) == "" {
		return JudicialOpinion{}, NewError(KindValidation, "opinion argument must not be empty")
	}

	return JudicialOpinion{
		Judge:         input.Judge,
		CriterionID:   input.CriterionID,
		Score:         input.Score,
		Argument:      input.Argument,
		CitedEvidence: input.CitedEvidence,
	}, nil
}
