package database

import (
	"context"
	"errors"
	"fmt"

	"apparel-backoffice/internal/models"

	"gorm.io/gorm"
)

// LedgerRepository stores ledger rows in the quote_ledger table.
type LedgerRepository struct {
	db *DBManager
}

func NewLedgerRepository(db *DBManager) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Append(ctx context.Context, quote models.Quote) error {
	record := toRecord(quote)
	if err := r.db.WriteDB.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("insert %s: %w", quote.ID, err)
	}
	return nil
}

func (r *LedgerRepository) FindByID(ctx context.Context, id string) (*models.Quote, error) {
	var record models.LedgerRecord
	err := r.db.GetReadDB().WithContext(ctx).Where("quote_id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("find %s: %w", id, err)
	}
	quote := fromRecord(record)
	return &quote, nil
}

// SetStatus looks the row up on the writer before updating, so an unchanged status still
// counts as found.
func (r *LedgerRepository) SetStatus(ctx context.Context, id string, status models.QuoteStatus) (bool, error) {
	db := r.db.WriteDB.WithContext(ctx)

	var record models.LedgerRecord
	err := db.Select("id").Where("quote_id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("find %s: %w", id, err)
	}

	if err := db.Model(&record).Update("status", string(status)).Error; err != nil {
		return false, fmt.Errorf("update status of %s: %w", id, err)
	}
	return true, nil
}

func (r *LedgerRepository) ListAll(ctx context.Context) ([]models.Quote, error) {
	var records []models.LedgerRecord
	if err := r.db.GetReadDB().WithContext(ctx).Order("submitted_at DESC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	quotes := make([]models.Quote, 0, len(records))
	for _, rec := range records {
		quotes = append(quotes, fromRecord(rec))
	}
	return quotes, nil
}

func (r *LedgerRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func toRecord(q models.Quote) models.LedgerRecord {
	return models.LedgerRecord{
		QuoteID:        q.ID,
		SubmittedAt:    q.SubmissionDate.UTC(),
		Status:         string(q.Status),
		ContactName:    q.Contact.Name,
		ContactEmail:   q.Contact.Email,
		ContactPhone:   q.Contact.Phone,
		ContactCompany: q.Contact.Company,
		ContactMessage: q.Contact.Message,
		ItemSummary:    q.ItemSummary,
		ColorSummary:   q.ColorSummary,
		TotalQuantity:  q.TotalQuantity,
		TotalAmount:    q.TotalAmount,
		HasLogo:        q.HasLogoAttachment,
		HasDesign:      q.HasDesignAttachment,
	}
}

func fromRecord(rec models.LedgerRecord) models.Quote {
	return models.Quote{
		ID:             rec.QuoteID,
		SubmissionDate: rec.SubmittedAt.UTC(),
		Status:         models.QuoteStatus(rec.Status),
		Contact: models.Contact{
			Name:    rec.ContactName,
			Email:   rec.ContactEmail,
			Phone:   rec.ContactPhone,
			Company: rec.ContactCompany,
			Message: rec.ContactMessage,
		},
		ItemSummary:         rec.ItemSummary,
		ColorSummary:        rec.ColorSummary,
		TotalQuantity:       rec.TotalQuantity,
		TotalAmount:         rec.TotalAmount,
		HasLogoAttachment:   rec.HasLogo,
		HasDesignAttachment: rec.HasDesign,
	}
}
