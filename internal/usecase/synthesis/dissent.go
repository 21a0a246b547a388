package synthesis

import (
	"fmt"
	"strings"

	"github.com/bkyoung/automaton-auditor/internal/domain"
	"github.com/bkyoung/automaton-auditor/internal/usecase/gather"
)

const argumentExcerptLength = 200

// buildDissent documents judicial disagreement by contrasting the
// critical and lenient arguments, then noting the pragmatic take when
// it differs.
func buildDissent(opinions []domain.JudicialOpinion) string {
	prosecutor, hasProsecutor := gather.OpinionByPersona(opinions, domain.PersonaProsecutor)
	defense, hasDefense := gather.OpinionByPersona(opinions, domain.PersonaDefense)
	techLead, hasTechLead := gather.OpinionByPersona(opinions, domain.PersonaTechLead)

	var parts []string

	if hasProsecutor && hasDefense && prosecutor.Score != defense.Score {
		parts = append(parts, fmt.Sprintf(
			"The Prosecutor (score: %d) argued: %s However, the Defense (score: %d) countered: %s",
			prosecutor.Score, excerpt(prosecutor.Argument),
			defense.Score, excerpt(defense.Argument)))
	}

	if hasTechLead && hasProsecutor && techLead.Score != prosecutor.Score {
		parts = append(parts, fmt.Sprintf(
			"The Tech Lead (score: %d) provided a pragmatic assessment focusing on: %s",
			techLead.Score, excerpt(techLead.Argument)))
	}

	if len(parts) == 0 {
		return "The judges diverged by more than the dissent threshold; see the individual opinions."
	}
	return strings.Join(parts, " ")
}

// excerpt bounds an argument to a scannable length, ending mid-word
// with an ellipsis when cut.
func excerpt(argument string) string {
	argument = strings.TrimSpace(argument)
	if len(argument) <= argumentExcerptLength {
		return argument
	}
	return argument[:argumentExcerptLength] + "..."
}
