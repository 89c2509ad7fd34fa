package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the production quote API endpoint.
const DefaultBaseURL = "https://cloud.iexapis.com/stable"

// Client fetches quotes over HTTP from an IEX-style quote API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a quote API client. An empty baseURL selects
// DefaultBaseURL.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiQuote is the subset of the quote endpoint response we consume.
type apiQuote struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	LatestPrice float64 `json:"latestPrice"`
}

// Lookup fetches the current quote for symbol. A 404 from the API means
// the symbol does not exist and maps to ErrUnknownSymbol; any other
// non-200 status or transport failure is returned as an opaque error.
func (c *Client) Lookup(ctx context.Context, symbol string) (Quote, error) {
	if symbol == "" {
		return Quote{}, ErrUnknownSymbol
	}
	symbol = strings.ToUpper(symbol)

	params := url.Values{}
	params.Set("token", c.token)

	apiURL := fmt.Sprintf("%s/stock/%s/quote?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return Quote{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Quote{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Quote{}, ErrUnknownSymbol
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Quote{}, fmt.Errorf("quote API error (status %d): %s", resp.StatusCode, string(body))
	}

	var aq apiQuote
	if err := json.NewDecoder(resp.Body).Decode(&aq); err != nil {
		return Quote{}, fmt.Errorf("decode response: %w", err)
	}

	price := decimal.NewFromFloat(aq.LatestPrice)
	if price.Sign() <= 0 {
		return Quote{}, fmt.Errorf("quote API returned non-positive price %s for %s", price, symbol)
	}

	return Quote{
		Symbol: aq.Symbol,
		Name:   aq.CompanyName,
		Price:  price,
	}, nil
}
