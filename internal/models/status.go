package models

import "strings"

// QuoteStatus is the workflow state of a quote or order.
type QuoteStatus string

const (
	StatusNew        QuoteStatus = "New"
	StatusContacted  QuoteStatus = "Contacted"
	StatusInProgress QuoteStatus = "In Progress"
	StatusCompleted  QuoteStatus = "Completed"
	StatusCancelled  QuoteStatus = "Cancelled"
)

// CancelledStep is the step index reported for cancelled quotes: no step is highlighted.
const CancelledStep = -1

var workflowSteps = []QuoteStatus{StatusNew, StatusContacted, StatusInProgress, StatusCompleted}

// Statuses returns every valid status, workflow steps first.
func Statuses() []QuoteStatus {
	return append(append([]QuoteStatus{}, workflowSteps...), StatusCancelled)
}

// ParseStatus maps a requested status onto the fixed enumeration.
// Matching ignores case, spaces, dashes and underscores so "InProgress" and "in_progress" resolve too.
func ParseStatus(s string) (QuoteStatus, bool) {
	want := normalizeStatus(s)
	if want == "" {
		return "", false
	}
	for _, status := range Statuses() {
		if normalizeStatus(string(status)) == want {
			return status, true
		}
	}
	return "", false
}

func normalizeStatus(s string) string {
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}

// IsTerminal reports whether no further transitions are expected.
func (s QuoteStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// StepIndex maps a status onto the progress display. Unknown values show as the first step.
func StepIndex(s QuoteStatus) int {
	if s == StatusCancelled {
		return CancelledStep
	}
	for i, step := range workflowSteps {
		if step == s {
			return i
		}
	}
	return 0
}
