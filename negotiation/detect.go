package negotiation

import "strings"

// Outcome is the explicit accept/reject signal detected in a message.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeAccept
	OutcomeReject
)

// Deterministic marker phrases gating the Agreed and Failed transitions.
// Rejection wins when both kinds match ("no deal" must not read as a deal).
var (
	rejectMarkers = []string{
		"reject",
		"no deal",
		"not acceptable",
		"cannot accept",
		"can't accept",
		"decline",
		"final offer stands",
		"walk away",
	}
	acceptMarkers = []string{
		"accept",
		"agreed",
		"we have a deal",
		"it's a deal",
		"deal!",
		"sounds good",
		"confirmed",
	}
)

// DetectOutcome scans a message for explicit acceptance or rejection
// language. The scan is a lowercase substring match over fixed phrase
// lists, checked rejection-first.
func DetectOutcome(text string) Outcome {
	lower := strings.ToLower(text)

	for _, marker := range rejectMarkers {
		if strings.Contains(lower, marker) {
			return OutcomeReject
		}
	}
	for _, marker := range acceptMarkers {
		if strings.Contains(lower, marker) {
			return OutcomeAccept
		}
	}
	return OutcomeNone
}
