package domain

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MaxContentLength caps serialized evidence snippets so downstream
	// documents stay bounded.
	MaxContentLength = 10000

	// LocationNotFound is the sentinel location for absent artifacts.
	LocationNotFound = "not_found"
)

var criterionIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Evidence is an immutable fact record collected by a detective.
// Detectives record artifact presence and provenance, never quality
// judgments; scoring is the judges' job.
type Evidence struct {
	CriterionID string  `json:"criterionId"`
	Goal        string  `json:"goal"`
	Found       bool    `json:"found"`
	Content     string  `json:"content,omitempty"`
	Location    string  `json:"location"`
	Rationale   string  `json:"rationale"`
	Confidence  float64 `json:"confidence"`
}

// EvidenceInput captures the information required to create an Evidence.
type EvidenceInput struct {
	CriterionID string
	Goal        string
	Found       bool
	Content     string
	Location    string
	Rationale   string
	Confidence  float64
}

// NewEvidence validates and constructs an Evidence record.
// Content longer than MaxContentLength is truncated with a marker
// rather than rejected, because oversized collector output is routine.
func NewEvidence(input EvidenceInput) (Evidence, error) {
	if err := ValidateCriterionID(input.CriterionID); err != nil {
		return Evidence{}, err
	}
	if strings.TrimSpace(input.Goal) == "" {
		return Evidence{}, NewError(KindValidation, "evidence goal must not be empty")
	}
	if strings.TrimSpace(input.Location) == "" {
		return Evidence{}, NewError(KindValidation, "evidence location must not be empty")
	}
	if strings.TrimSpace(input.Rationale) == "" {
		return Evidence{}, NewError(KindValidation, "evidence rationale must not be empty")
	}
	if input.Confidence < 0.0 || input.Confidence > 1.0 {
		return Evidence{}, NewError(KindValidation, "evidence confidence %v outside [0,1]", input.Confidence)
	}

	return Evidence{
		CriterionID: input.CriterionID,
		Goal:        input.Goal,
		Found:       input.Found,
		Content:     TruncateContent(input.Content),
		Location:    input.Location,
		Rationale:   input.Rationale,
		Confidence:  input.Confidence,
	}, nil
}

// NewErrorEvidence converts a collector failure into a zero-confidence
// fact record so one broken check never aborts its siblings.
func NewErrorEvidence(criterionID, goal, location string, err error) Evidence {
	if location == "" {
		location = LocationNotFound
	}
	return Evidence{
		CriterionID: criterionID,
		Goal:        goal,
		Found:       false,
		Content:     TruncateContent(err.Error()),
		Location:    location,
		Rationale:   fmt.Sprintf("protocol failed (%s): %s", KindOf(err), err.Error()),
		Confidence:  0.0,
	}
}

// ValidateCriterionID restricts dimension identifiers to lowercase
// alphanumerics and underscores so they are safe lookup keys.
func ValidateCriterionID(id string) error {
	if !criterionIDPattern.MatchString(id) {
		return NewError(KindValidation, "criterion id %q must match [a-z0-9_]+", id)
	}
	return nil
}

// TruncateContent bounds a snippet to MaxContentLength, appending a
// marker when data was dropped.
func TruncateContent(content string) string {
	if len(content) <= MaxContentLength {
		return content
	}
	marker := fmt.Sprintf("... [truncated, original %d bytes]", len(content))
	return content[:MaxContentLength-len(marker)] + marker
}
