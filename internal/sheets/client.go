package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"apparel-backoffice/internal/logging"
	"apparel-backoffice/internal/models"

	"go.uber.org/zap"
)

// APIError is a non-2xx answer from the spreadsheet API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sheets api: status=%d body=%s", e.Status, e.Body)
}

type Config struct {
	SpreadsheetID string
	SheetName     string
	APIBase       string
}

// Client is the ledger gateway over a single sheet. Row 1 holds the header.
type Client struct {
	cfg        Config
	tokens     *TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg Config, tokens *TokenSource, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	return &Client{
		cfg:        cfg,
		tokens:     tokens,
		httpClient: httpClient,
		logger:     logging.OrNop(logger),
	}
}

type valueRange struct {
	Range          string  `json:"range,omitempty"`
	MajorDimension string  `json:"majorDimension,omitempty"`
	Values         [][]any `json:"values"`
}

// Append writes the quote as a new row at the end of the sheet.
func (c *Client) Append(ctx context.Context, quote models.Quote) error {
	query := url.Values{}
	query.Set("valueInputOption", "RAW")
	query.Set("insertDataOption", "INSERT_ROWS")

	body := valueRange{MajorDimension: "ROWS", Values: [][]any{encodeRow(quote)}}
	rng := c.a1(firstColumn + ":" + lastColumn)
	if err := c.do(ctx, http.MethodPost, c.valuesURL(rng, ":append", query), body, nil); err != nil {
		return fmt.Errorf("append %s: %w", quote.ID, err)
	}
	c.logger.Debug("ledger row appended", zap.String("quote_id", quote.ID))
	return nil
}

// FindByID returns the first row whose id cell equals id, or nil.
func (c *Client) FindByID(ctx context.Context, id string) (*models.Quote, error) {
	rowNum, err := c.locate(ctx, id)
	if err != nil || rowNum == 0 {
		return nil, err
	}

	var vr valueRange
	rng := c.a1(fmt.Sprintf("%s%d:%s%d", firstColumn, rowNum, lastColumn, rowNum))
	if err := c.do(ctx, http.MethodGet, c.valuesURL(rng, "", unformatted()), nil, &vr); err != nil {
		return nil, fmt.Errorf("read row %d: %w", rowNum, err)
	}
	if len(vr.Values) == 0 {
		return nil, nil
	}
	quote, err := decodeRow(vr.Values[0])
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// SetStatus overwrites the status cell of the row holding id. Unknown ids write nothing.
func (c *Client) SetStatus(ctx context.Context, id string, status models.QuoteStatus) (bool, error) {
	rowNum, err := c.locate(ctx, id)
	if err != nil || rowNum == 0 {
		return false, err
	}

	query := url.Values{}
	query.Set("valueInputOption", "RAW")

	rng := c.a1(fmt.Sprintf("%s%d", statusColumn, rowNum))
	body := valueRange{MajorDimension: "ROWS", Values: [][]any{{string(status)}}}
	if err := c.do(ctx, http.MethodPut, c.valuesURL(rng, "", query), body, nil); err != nil {
		return false, fmt.Errorf("update status of %s: %w", id, err)
	}
	return true, nil
}

// ListAll reads every data row. Rows that cannot be decoded are skipped.
func (c *Client) ListAll(ctx context.Context) ([]models.Quote, error) {
	var vr valueRange
	rng := c.a1(fmt.Sprintf("%s:%s", firstColumn, lastColumn))
	if err := c.do(ctx, http.MethodGet, c.valuesURL(rng, "", unformatted()), nil, &vr); err != nil {
		return nil, fmt.Errorf("list rows: %w", err)
	}

	quotes := make([]models.Quote, 0, len(vr.Values))
	for i, cells := range vr.Values {
		if len(cells) == 0 || (i == 0 && isHeader(cells)) {
			continue
		}
		quote, err := decodeRow(cells)
		if err != nil {
			c.logger.Warn("skipping malformed ledger row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// EnsureHeader writes HeaderRow into row 1 when the sheet is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	var vr valueRange
	rng := c.a1(fmt.Sprintf("%s1:%s1", firstColumn, lastColumn))
	if err := c.do(ctx, http.MethodGet, c.valuesURL(rng, "", nil), nil, &vr); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(vr.Values) > 0 && len(vr.Values[0]) > 0 {
		return nil
	}

	query := url.Values{}
	query.Set("valueInputOption", "RAW")
	body := valueRange{MajorDimension: "ROWS", Values: [][]any{HeaderRow}}
	if err := c.do(ctx, http.MethodPut, c.valuesURL(rng, "", query), body, nil); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	c.logger.Info("ledger header row written", zap.String("sheet", c.cfg.SheetName))
	return nil
}

// Ping checks that the service account can obtain a token.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.tokens.Token(ctx)
	return err
}

// locate returns the 1-based sheet row of id, or 0 when absent.
func (c *Client) locate(ctx context.Context, id string) (int, error) {
	var vr valueRange
	rng := c.a1(firstColumn + ":" + firstColumn)
	if err := c.do(ctx, http.MethodGet, c.valuesURL(rng, "", nil), nil, &vr); err != nil {
		return 0, fmt.Errorf("scan ids: %w", err)
	}
	for i, cells := range vr.Values {
		if i == 0 && isHeader(cells) {
			continue
		}
		if cellString(cells, colID) == id {
			return i + 1, nil
		}
	}
	return 0, nil
}

func (c *Client) a1(cells string) string {
	return quoteSheet(c.cfg.SheetName) + "!" + cells
}

func (c *Client) valuesURL(rng, suffix string, query url.Values) string {
	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s%s",
		c.cfg.APIBase, url.PathEscape(c.cfg.SpreadsheetID), url.PathEscape(rng), suffix)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func unformatted() url.Values {
	query := url.Values{}
	query.Set("valueRenderOption", "UNFORMATTED_VALUE")
	return query
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sheets request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes*8))
	if err != nil {
		return fmt.Errorf("read sheets response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("sheets api error",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(data)),
		)
		return &APIError{Status: resp.StatusCode, Body: string(data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode sheets response: %w", err)
	}
	return nil
}
