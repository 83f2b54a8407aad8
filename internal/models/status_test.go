package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]QuoteStatus{
		"New":         StatusNew,
		"contacted":   StatusContacted,
		"In Progress": StatusInProgress,
		"InProgress":  StatusInProgress,
		"in_progress": StatusInProgress,
		"in-progress": StatusInProgress,
		" COMPLETED ": StatusCompleted,
		"Cancelled":   StatusCancelled,
	}
	for in, want := range cases {
		got, ok := ParseStatus(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "Shipped", "Canceled!", "New York"} {
		_, ok := ParseStatus(bad)
		assert.False(t, ok, bad)
	}
}

func TestStepIndex(t *testing.T) {
	assert.Equal(t, 0, StepIndex(StatusNew))
	assert.Equal(t, 1, StepIndex(StatusContacted))
	assert.Equal(t, 2, StepIndex(StatusInProgress))
	assert.Equal(t, 3, StepIndex(StatusCompleted))
	assert.Equal(t, CancelledStep, StepIndex(StatusCancelled))
	assert.Equal(t, 0, StepIndex("mystery"))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusNew.IsTerminal())
	assert.False(t, StatusInProgress.IsTerminal())
}

func TestQuotePublic(t *testing.T) {
	submitted := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	q := Quote{
		ID:             "QT-1",
		SubmissionDate: submitted,
		Status:         StatusCancelled,
		Contact:        Contact{Name: "Ana Cruz", Email: "a@x.com", Phone: "123"},
		ItemSummary:    "Jersey (x2), Cap (x1)",
		TotalAmount:    1000,
	}

	p := q.Public()

	assert.Equal(t, PublicQuote{
		ID:             "QT-1",
		SubmissionDate: submitted,
		Status:         StatusCancelled,
		CustomerName:   "Ana Cruz",
		Items:          []string{"Jersey (x2)", "Cap (x1)"},
		CurrentStep:    CancelledStep,
	}, p)
}

func TestItemNames_Empty(t *testing.T) {
	assert.Equal(t, []string{}, Quote{}.ItemNames())
}

func TestSummaryRoundTrip(t *testing.T) {
	entries := []string{"Polo, Navy (x2)", `Back\slash (x1)`, "Jersey (x3)"}

	joined := JoinSummary(entries)

	assert.Equal(t, `Polo\, Navy (x2), Back\\slash (x1), Jersey (x3)`, joined)
	assert.Equal(t, entries, SplitSummary(joined))
	assert.Equal(t, entries, Quote{ItemSummary: joined}.ItemNames())
}

func TestSplitSummary_PlainCell(t *testing.T) {
	assert.Equal(t, []string{"Jersey (x2)", "Cap (x1)"}, SplitSummary("Jersey (x2), Cap (x1)"))
}
