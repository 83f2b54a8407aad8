package services

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"apparel-backoffice/internal/logging"
	"apparel-backoffice/internal/models"

	"go.uber.org/zap"
)

// LedgerGateway is the storage engine behind the quote ledger.
// FindByID returns (nil, nil) and SetStatus returns false when the id is unknown.
type LedgerGateway interface {
	Append(ctx context.Context, quote models.Quote) error
	FindByID(ctx context.Context, id string) (*models.Quote, error)
	SetStatus(ctx context.Context, id string, status models.QuoteStatus) (bool, error)
	ListAll(ctx context.Context) ([]models.Quote, error)
}

// EventPublisher fans quote events out to the admin live feed.
type EventPublisher interface {
	PublishQuoteEvent(ctx context.Context, event models.QuoteEvent) error
}

const (
	RequestTypeQuote = "quote"
	RequestTypeOrder = "order"

	// Per-size and per-request caps keep quantity sums far from int overflow.
	MaxSizeQuantity  = 100000
	MaxTotalQuantity = 1000000

	quotePrefix = "QT-"
	orderPrefix = "ORD-"
)

type ProductRef struct {
	Name string `json:"name"`
}

type ColorRef struct {
	Name string `json:"name"`
}

// LineItem is one product configuration in a submission.
type LineItem struct {
	Product        ProductRef     `json:"product"`
	SizeQuantities map[string]int `json:"sizeQuantities"`
	UnitPrice      float64        `json:"unitPrice"`
	SelectedColor  ColorRef       `json:"selectedColor"`
	LogoImage      string         `json:"logoImage,omitempty"`
	DesignImage    string         `json:"designImage,omitempty"`
}

// Quantity sums the requested sizes. Negative entries count as zero.
func (li LineItem) Quantity() int {
	total := 0
	for _, qty := range li.SizeQuantities {
		if qty > 0 {
			total += qty
		}
	}
	return total
}

type SubmitRequest struct {
	Contact models.Contact `json:"contact"`
	Items   []LineItem     `json:"items"`
	Type    string         `json:"type,omitempty"`
}

// IDGenerator issues ledger ids from the millisecond clock. Within one process ids are
// strictly increasing; separate instances may still collide in the same millisecond.
type IDGenerator struct {
	last atomic.Int64
	now  func() time.Time
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

func (g *IDGenerator) Next(prefix string) string {
	for {
		last := g.last.Load()
		ms := g.now().UnixMilli()
		if ms <= last {
			ms = last + 1
		}
		if g.last.CompareAndSwap(last, ms) {
			return fmt.Sprintf("%s%d", prefix, ms)
		}
	}
}

type QuoteService struct {
	ledger LedgerGateway
	events EventPublisher
	ids    *IDGenerator
	now    func() time.Time
	logger *zap.Logger
}

// NewQuoteService wires the lifecycle to a ledger. events may be nil.
func NewQuoteService(ledger LedgerGateway, events EventPublisher, logger *zap.Logger) *QuoteService {
	return &QuoteService{
		ledger: ledger,
		events: events,
		ids:    NewIDGenerator(time.Now),
		now:    time.Now,
		logger: logging.OrNop(logger),
	}
}

// WithClock replaces the time source for ids and submission dates.
func (s *QuoteService) WithClock(now func() time.Time) *QuoteService {
	s.now = now
	s.ids = NewIDGenerator(now)
	return s
}

// Submit validates a request, appends it to the ledger as New and returns its id.
func (s *QuoteService) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if err := validateSubmission(&req); err != nil {
		return "", err
	}

	prefix := quotePrefix
	if strings.EqualFold(req.Type, RequestTypeOrder) {
		prefix = orderPrefix
	}

	quote := BuildQuote(req)
	quote.ID = s.ids.Next(prefix)
	quote.SubmissionDate = s.now().UTC().Truncate(time.Second)
	quote.Status = models.StatusNew

	if err := s.ledger.Append(ctx, quote); err != nil {
		return "", fmt.Errorf("%w: append %s: %w", ErrUpstream, quote.ID, err)
	}

	s.logger.Info("quote submitted",
		zap.String("quote_id", quote.ID),
		zap.Int("total_quantity", quote.TotalQuantity),
		zap.Float64("total_amount", quote.TotalAmount),
	)
	s.publish(ctx, models.EventQuoteSubmitted, quote.ID, quote.Status)
	return quote.ID, nil
}

func validateSubmission(req *SubmitRequest) error {
	req.Contact.Name = strings.TrimSpace(req.Contact.Name)
	req.Contact.Email = strings.TrimSpace(req.Contact.Email)

	if req.Contact.Name == "" {
		return invalid("contact.name", "is required")
	}
	if req.Contact.Email == "" {
		return invalid("contact.email", "is required")
	}
	if addr, err := mail.ParseAddress(req.Contact.Email); err != nil || addr.Address != req.Contact.Email {
		return invalid("contact.email", "is not a valid email address")
	}
	if req.Type != "" && !strings.EqualFold(req.Type, RequestTypeQuote) && !strings.EqualFold(req.Type, RequestTypeOrder) {
		return invalid("type", fmt.Sprintf("must be %q or %q", RequestTypeQuote, RequestTypeOrder))
	}
	total := 0
	for i, item := range req.Items {
		if item.UnitPrice < 0 {
			return invalid(fmt.Sprintf("items[%d].unitPrice", i), "must not be negative")
		}
		for size, qty := range item.SizeQuantities {
			if qty > MaxSizeQuantity {
				return invalid(fmt.Sprintf("items[%d].sizeQuantities.%s", i, size),
					fmt.Sprintf("must not exceed %d", MaxSizeQuantity))
			}
		}
		total += item.Quantity()
		if total > MaxTotalQuantity {
			return invalid("items", fmt.Sprintf("total quantity must not exceed %d", MaxTotalQuantity))
		}
	}
	return nil
}

// BuildQuote aggregates the line items into the ledger row fields.
// Items whose sizes add up to zero are left out of the summaries and totals.
func BuildQuote(req SubmitRequest) models.Quote {
	quote := models.Quote{Contact: req.Contact}

	var (
		items  []string
		colors []string
		seen   = make(map[string]bool)
	)
	for _, item := range req.Items {
		if strings.TrimSpace(item.LogoImage) != "" {
			quote.HasLogoAttachment = true
		}
		if strings.TrimSpace(item.DesignImage) != "" {
			quote.HasDesignAttachment = true
		}

		qty := item.Quantity()
		if qty == 0 {
			continue
		}

		name := strings.TrimSpace(item.Product.Name)
		if name == "" {
			name = "Item"
		}
		items = append(items, fmt.Sprintf("%s (x%d)", name, qty))

		if color := strings.TrimSpace(item.SelectedColor.Name); color != "" && !seen[color] {
			seen[color] = true
			colors = append(colors, color)
		}

		quote.TotalQuantity += qty
		quote.TotalAmount += float64(qty) * item.UnitPrice
	}

	quote.ItemSummary = models.JoinSummary(items)
	quote.ColorSummary = models.JoinSummary(colors)
	return quote
}

// Track returns the public projection of a quote.
func (s *QuoteService) Track(ctx context.Context, id string) (models.PublicQuote, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.PublicQuote{}, ErrNotFound
	}

	quote, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		return models.PublicQuote{}, fmt.Errorf("%w: find %s: %w", ErrUpstream, id, err)
	}
	if quote == nil {
		return models.PublicQuote{}, ErrNotFound
	}
	return quote.Public(), nil
}

// List returns every ledger row, newest first.
func (s *QuoteService) List(ctx context.Context) ([]models.Quote, error) {
	quotes, err := s.ledger.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrUpstream, err)
	}
	sort.SliceStable(quotes, func(i, j int) bool {
		return quotes[i].SubmissionDate.After(quotes[j].SubmissionDate)
	})
	return quotes, nil
}

// UpdateStatus moves a quote to the requested status.
func (s *QuoteService) UpdateStatus(ctx context.Context, id, requested string) (models.QuoteStatus, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", invalid("quoteId", "is required")
	}
	status, ok := models.ParseStatus(requested)
	if !ok {
		return "", invalid("status", fmt.Sprintf("unknown status %q", requested))
	}

	found, err := s.ledger.SetStatus(ctx, id, status)
	if err != nil {
		return "", fmt.Errorf("%w: set status %s: %w", ErrUpstream, id, err)
	}
	if !found {
		return "", ErrNotFound
	}

	s.logger.Info("quote status updated", zap.String("quote_id", id), zap.String("status", string(status)))
	s.publish(ctx, models.EventStatusUpdated, id, status)
	return status, nil
}

func (s *QuoteService) publish(ctx context.Context, eventType, id string, status models.QuoteStatus) {
	if s.events == nil {
		return
	}
	event := models.QuoteEvent{
		Type:      eventType,
		QuoteID:   id,
		Status:    status,
		Timestamp: s.now().Unix(),
	}
	if err := s.events.PublishQuoteEvent(ctx, event); err != nil {
		s.logger.Warn("quote event not published", zap.String("quote_id", id), zap.Error(err))
	}
}
