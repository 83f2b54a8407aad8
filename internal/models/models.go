package models

import (
	"strings"
	"time"
)

// Admin credentials. Password holds a bcrypt hash, never the plain text.
type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Contact details captured on a quote request
type Contact struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Message string `json:"message"`
}

// Quote is one ledger row. Only Status changes after the row is appended.
type Quote struct {
	ID                  string      `json:"id"`
	SubmissionDate      time.Time   `json:"submissionDate"`
	Status              QuoteStatus `json:"status"`
	Contact             Contact     `json:"contact"`
	ItemSummary         string      `json:"itemSummary"`
	ColorSummary        string      `json:"colorSummary"`
	TotalQuantity       int         `json:"totalQuantity"`
	TotalAmount         float64     `json:"totalAmount"`
	HasLogoAttachment   bool        `json:"hasLogoAttachment"`
	HasDesignAttachment bool        `json:"hasDesignAttachment"`
}

// SummarySeparator joins line items and colors inside the summary cells.
const SummarySeparator = ", "

const summaryEscape = '\\'

// JoinSummary renders entries into a summary cell. Commas and backslashes inside an
// entry are backslash-escaped so SplitSummary can recover the exact entries.
func JoinSummary(entries []string) string {
	escaped := make([]string, len(entries))
	for i, e := range entries {
		e = strings.ReplaceAll(e, `\`, `\\`)
		escaped[i] = strings.ReplaceAll(e, ",", `\,`)
	}
	return strings.Join(escaped, SummarySeparator)
}

// SplitSummary is the inverse of JoinSummary. Only unescaped commas separate entries.
func SplitSummary(summary string) []string {
	entries := make([]string, 0)
	var b strings.Builder
	flush := func() {
		if part := strings.TrimSpace(b.String()); part != "" {
			entries = append(entries, part)
		}
		b.Reset()
	}
	for i := 0; i < len(summary); i++ {
		switch ch := summary[i]; {
		case ch == summaryEscape && i+1 < len(summary):
			i++
			b.WriteByte(summary[i])
		case ch == ',':
			flush()
		default:
			b.WriteByte(ch)
		}
	}
	flush()
	return entries
}

// ItemNames splits the item summary back into its line entries.
func (q Quote) ItemNames() []string {
	return SplitSummary(q.ItemSummary)
}

// Public returns the projection served by the order tracking endpoint.
// Email, phone, company, message, amounts and attachment flags are left out.
func (q Quote) Public() PublicQuote {
	return PublicQuote{
		ID:             q.ID,
		SubmissionDate: q.SubmissionDate,
		Status:         q.Status,
		CustomerName:   q.Contact.Name,
		Items:          q.ItemNames(),
		CurrentStep:    StepIndex(q.Status),
	}
}

// PublicQuote is the restricted read-model for customers tracking an order
type PublicQuote struct {
	ID             string      `json:"id"`
	SubmissionDate time.Time   `json:"submissionDate"`
	Status         QuoteStatus `json:"status"`
	CustomerName   string      `json:"customerName"`
	Items          []string    `json:"items"`
	CurrentStep    int         `json:"currentStep"`
}

// Quote events fanned out to the admin live feed
const (
	EventQuoteSubmitted = "quote_submitted"
	EventStatusUpdated  = "status_updated"
)

type QuoteEvent struct {
	Type      string      `json:"type"`
	QuoteID   string      `json:"quote_id"`
	Status    QuoteStatus `json:"status"`
	Timestamp int64       `json:"timestamp"`
}

// SQL ledger table, used when the ledger backend is a database instead of the spreadsheet
type LedgerRecord struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	QuoteID        string    `gorm:"type:varchar(64);uniqueIndex;not null"`
	SubmittedAt    time.Time `gorm:"index:idx_submitted_at;not null"`
	Status         string    `gorm:"type:varchar(32);index;not null"`
	ContactName    string    `gorm:"type:varchar(255);not null"`
	ContactEmail   string    `gorm:"type:varchar(255);not null"`
	ContactPhone   string    `gorm:"type:varchar(64)"`
	ContactCompany string    `gorm:"type:varchar(255)"`
	ContactMessage string    `gorm:"type:text"`
	ItemSummary    string    `gorm:"type:text"`
	ColorSummary   string    `gorm:"type:text"`
	TotalQuantity  int       `gorm:"not null;default:0"`
	TotalAmount    float64   `gorm:"type:decimal(12,2);not null;default:0"`
	HasLogo        bool      `gorm:"not null;default:false"`
	HasDesign      bool      `gorm:"not null;default:false"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (LedgerRecord) TableName() string {
	return "quote_ledger"
}
