package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/babyregistry/registry/internal/adapter"
)

// DefaultBaseURL is the Sheets API v4 endpoint
const DefaultBaseURL = "https://sheets.googleapis.com/v4"

// ValueRange is a block of cell values addressed by an A1 range
type ValueRange struct {
	Range          string     `json:"range,omitempty"`
	MajorDimension string     `json:"majorDimension,omitempty"`
	Values         [][]string `json:"values,omitempty"`
}

// Client is a minimal Sheets values API client for one spreadsheet
type Client struct {
	http          adapter.HTTPClient
	tokens        TokenSource
	baseURL       string
	spreadsheetID string
}

// NewClient creates a new Sheets values client
func NewClient(httpClient adapter.HTTPClient, tokens TokenSource, baseURL string, spreadsheetID string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:          httpClient,
		tokens:        tokens,
		baseURL:       strings.TrimRight(baseURL, "/"),
		spreadsheetID: spreadsheetID,
	}
}

// ReadRange returns the values of an A1 range. Values is nil when the range holds no data.
func (c *Client) ReadRange(ctx context.Context, a1 string) (*ValueRange, error) {
	body, err := c.do(ctx, http.MethodGet, c.valuesURL(a1, nil), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", a1, err)
	}

	var vr ValueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("failed to decode range %s: %w", a1, err)
	}
	return &vr, nil
}

// UpdateRange overwrites an A1 range with values
func (c *Client) UpdateRange(ctx context.Context, a1 string, values [][]string) error {
	query := url.Values{"valueInputOption": {"RAW"}}
	payload, err := json.Marshal(ValueRange{Range: a1, MajorDimension: "ROWS", Values: values})
	if err != nil {
		return fmt.Errorf("failed to encode range %s: %w", a1, err)
	}

	if _, err := c.do(ctx, http.MethodPut, c.valuesURL(a1, query), payload); err != nil {
		return fmt.Errorf("failed to update range %s: %w", a1, err)
	}
	return nil
}

// AppendRows appends rows after the last row of the table found in an A1 range
func (c *Client) AppendRows(ctx context.Context, a1 string, values [][]string) error {
	query := url.Values{
		"valueInputOption": {"RAW"},
		"insertDataOption": {"INSERT_ROWS"},
	}
	payload, err := json.Marshal(ValueRange{MajorDimension: "ROWS", Values: values})
	if err != nil {
		return fmt.Errorf("failed to encode rows for %s: %w", a1, err)
	}

	target := c.valuesURL(a1+":append", query)
	if _, err := c.do(ctx, http.MethodPost, target, payload); err != nil {
		return fmt.Errorf("failed to append rows to %s: %w", a1, err)
	}
	return nil
}

func (c *Client) valuesURL(a1 string, query url.Values) string {
	u := fmt.Sprintf("%s/spreadsheets/%s/values/%s", c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(a1))
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do authenticates and performs a request. Token failures keep their *domain.AuthError type.
func (c *Client) do(ctx context.Context, method string, target string, body []byte) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	if body != nil {
		header.Set("Content-Type", "application/json")
	}

	return c.http.Do(ctx, method, target, header, body)
}
