package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"apparel-backoffice/internal/models"
)

// Ledger columns, in sheet order. Readers locate fields by position.
const (
	colID = iota
	colSubmissionDate
	colStatus
	colName
	colEmail
	colPhone
	colCompany
	colMessage
	colItemSummary
	colColorSummary
	colTotalQuantity
	colTotalAmount
	colHasLogo
	colHasDesign
	columnCount
)

const (
	firstColumn  = "A"
	lastColumn   = "N"
	statusColumn = "C"
)

// HeaderRow is the expected first row of the ledger sheet.
var HeaderRow = []any{
	"ID", "Submission Date", "Status", "Name", "Email", "Phone", "Company", "Message",
	"Items", "Colors", "Total Quantity", "Total Amount", "Has Logo", "Has Design",
}

// isHeader reports whether the first sheet row holds the column titles. A sheet whose header
// was never written starts with data in row 1.
func isHeader(cells []any) bool {
	return cellString(cells, colID) == HeaderRow[colID]
}

func encodeRow(q models.Quote) []any {
	row := make([]any, columnCount)
	row[colID] = q.ID
	row[colSubmissionDate] = q.SubmissionDate.UTC().Format(time.RFC3339)
	row[colStatus] = string(q.Status)
	row[colName] = q.Contact.Name
	row[colEmail] = q.Contact.Email
	row[colPhone] = q.Contact.Phone
	row[colCompany] = q.Contact.Company
	row[colMessage] = q.Contact.Message
	row[colItemSummary] = q.ItemSummary
	row[colColorSummary] = q.ColorSummary
	row[colTotalQuantity] = q.TotalQuantity
	row[colTotalAmount] = q.TotalAmount
	row[colHasLogo] = q.HasLogoAttachment
	row[colHasDesign] = q.HasDesignAttachment
	return row
}

// decodeRow reads a row returned by the values API. Trailing empty cells are omitted
// by the API, so short rows are padded.
func decodeRow(cells []any) (models.Quote, error) {
	if len(cells) == 0 || cellString(cells, colID) == "" {
		return models.Quote{}, fmt.Errorf("row has no id")
	}

	q := models.Quote{
		ID:     cellString(cells, colID),
		Status: models.QuoteStatus(cellString(cells, colStatus)),
		Contact: models.Contact{
			Name:    cellString(cells, colName),
			Email:   cellString(cells, colEmail),
			Phone:   cellString(cells, colPhone),
			Company: cellString(cells, colCompany),
			Message: cellString(cells, colMessage),
		},
		ItemSummary:         cellString(cells, colItemSummary),
		ColorSummary:        cellString(cells, colColorSummary),
		TotalQuantity:       int(cellFloat(cells, colTotalQuantity)),
		TotalAmount:         cellFloat(cells, colTotalAmount),
		HasLogoAttachment:   cellBool(cells, colHasLogo),
		HasDesignAttachment: cellBool(cells, colHasDesign),
	}
	if status, ok := models.ParseStatus(string(q.Status)); ok {
		q.Status = status
	}
	if raw := cellString(cells, colSubmissionDate); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return models.Quote{}, fmt.Errorf("row %s: submission date %q: %w", q.ID, raw, err)
		}
		q.SubmissionDate = t
	}
	return q, nil
}

func cellString(cells []any, i int) string {
	if i >= len(cells) || cells[i] == nil {
		return ""
	}
	switch v := cells[i].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

func cellFloat(cells []any, i int) float64 {
	if i >= len(cells) {
		return 0
	}
	switch v := cells[i].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", ""), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func cellBool(cells []any, i int) bool {
	if i >= len(cells) {
		return false
	}
	switch v := cells[i].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "1":
			return true
		}
	case float64:
		return v != 0
	}
	return false
}

// quoteSheet quotes a sheet name for A1 notation when it is not a plain identifier.
func quoteSheet(name string) string {
	plain := name != ""
	for _, r := range name {
		if !(r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			plain = false
			break
		}
	}
	if plain {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
