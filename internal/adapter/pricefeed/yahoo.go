// Package pricefeed resolves live market prices for asset identifiers.
// It is an adapter over the Yahoo Finance chart API; the core only ever sees
// the domain.PriceSource interface.
package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mfbatista/carteira-backend/internal/domain"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// b3TickerPattern matches bare B3 tickers such as PETR4, VALE3 or BOVA11,
// which Yahoo expects with a ".SA" suffix.
var b3TickerPattern = regexp.MustCompile(`^[A-Z]{4}[0-9]{1,2}$`)

// Config holds Yahoo client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// SymbolMap maps canonical asset ids to Yahoo tickers for assets whose
	// identifier is not itself a ticker (e.g. fund names from a spreadsheet).
	SymbolMap map[string]string
}

// YahooClient implements domain.PriceSource using the Yahoo Finance chart API.
type YahooClient struct {
	client  *http.Client
	baseURL string
	symbols map[string]string
	log     zerolog.Logger
}

// NewYahooClient creates a new Yahoo Finance price source.
func NewYahooClient(cfg Config, log zerolog.Logger) *YahooClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &YahooClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		symbols: cfg.SymbolMap,
		log:     log.With().Str("component", "pricefeed").Logger(),
	}
}

// LoadSymbolMap reads a YAML file mapping asset ids to Yahoo tickers.
// A missing path yields an empty map; ticker resolution then relies on the
// B3 suffix rule alone.
func LoadSymbolMap(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read symbol map: %w", err)
	}

	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse symbol map: %w", err)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[domain.CanonicalAssetID(k)] = v
	}
	return out, nil
}

// ticker resolves an asset id to the Yahoo symbol to query.
// Order: explicit symbol map entry, then the B3 ".SA" suffix rule, then the
// id as-is.
func (c *YahooClient) ticker(assetID string) string {
	id := domain.CanonicalAssetID(assetID)
	if mapped, ok := c.symbols[id]; ok {
		return mapped
	}
	if b3TickerPattern.MatchString(id) {
		return id + ".SA"
	}
	return id
}

// yahooChart is the response structure from the Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote returns the current market price for an asset.
// Any failure mode (transport error, non-200, API error, empty result) maps
// to domain.ErrQuoteUnavailable so callers can treat it uniformly as
// "price absent".
func (c *YahooClient) Quote(ctx context.Context, assetID string) (*domain.Quote, error) {
	symbol := c.ticker(assetID)
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", c.baseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Str("symbol", symbol).Msg("Quote fetch failed")
		return nil, domain.ErrQuoteUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.ErrQuoteUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Debug().Int("status", resp.StatusCode).Str("symbol", symbol).Msg("Quote fetch non-200")
		return nil, domain.ErrQuoteUnavailable
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, domain.ErrQuoteUnavailable
	}
	if chart.Chart.Error != nil || len(chart.Chart.Result) == 0 {
		return nil, domain.ErrQuoteUnavailable
	}

	price := chart.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return nil, domain.ErrQuoteUnavailable
	}

	return &domain.Quote{
		AssetID: domain.CanonicalAssetID(assetID),
		Price:   decimal.NewFromFloat(price),
		At:      time.Now(),
	}, nil
}
