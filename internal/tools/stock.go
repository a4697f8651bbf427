package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/koopa0/parley/internal/log"
)

// ToolStock is the wire name of the stock quote tool.
const ToolStock = "get_stock"

// symbolPattern is the accepted ticker shape: 1-10 upper-case letters or
// dots after normalization.
var symbolPattern = regexp.MustCompile(`^[A-Z.]{1,10}$`)

// StockInput defines input for the get_stock tool.
type StockInput struct {
	Symbol string `json:"symbol" jsonschema_description:"Ticker symbol, e.g. AAPL"`
}

// StockConfig holds the stock collaborator settings.
type StockConfig struct {
	// APIKey authenticates against the quote service. Empty means the
	// tool reports itself unavailable instead of failing hard.
	APIKey string

	// BaseURL of the quote service.
	BaseURL string
}

// NewStock creates the stock quote tool.
func NewStock(cfg StockConfig, httpVal httpValidator, logger log.Logger) (*ExecutableTool, error) {
	if httpVal == nil {
		return nil, fmt.Errorf("http validator is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.alphavantage.co/query"
	}

	handler := func(ctx context.Context, input StockInput) Result {
		symbol := strings.ToUpper(strings.TrimSpace(input.Symbol))
		if !symbolPattern.MatchString(symbol) {
			return Errorf(ErrCodeInvalidInput, fmt.Sprintf("invalid ticker symbol %q", input.Symbol))
		}

		if cfg.APIKey == "" {
			return Result{
				Status:  StatusError,
				Message: fmt.Sprintf("stock quote for %s is unavailable (no API key configured)", symbol),
				Error: &Error{
					Code:    ErrCodeUnavailable,
					Message: "stock service credentials are not configured",
				},
			}
		}

		q := url.Values{}
		q.Set("function", "GLOBAL_QUOTE")
		q.Set("symbol", symbol)
		q.Set("apikey", cfg.APIKey)
		reqURL := cfg.BaseURL + "?" + q.Encode()

		if err := httpVal.ValidateURL(reqURL); err != nil {
			return Errorf(ErrCodeSecurity, fmt.Sprintf("stock endpoint rejected: %v", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return Errorf(ErrCodeExecution, fmt.Sprintf("building request: %v", err))
		}

		resp, err := httpVal.Client().Do(req)
		if err != nil {
			logger.Warn("stock request failed", "symbol", symbol, "error", err)
			return Errorf(ErrCodeExecution, fmt.Sprintf("stock service unreachable: %v", err))
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return Errorf(ErrCodeExecution, fmt.Sprintf("stock service returned status %d", resp.StatusCode))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, httpVal.MaxResponseSize()))
		if err != nil {
			return Errorf(ErrCodeExecution, fmt.Sprintf("reading stock response: %v", err))
		}

		var payload struct {
			GlobalQuote struct {
				Price         string `json:"05. price"`
				Change        string `json:"09. change"`
				ChangePercent string `json:"10. change percent"`
			} `json:"Global Quote"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return Errorf(ErrCodeExecution, fmt.Sprintf("decoding stock response: %v", err))
		}
		if payload.GlobalQuote.Price == "" {
			return Errorf(ErrCodeExecution, fmt.Sprintf("no quote data for %s", symbol))
		}

		summary := fmt.Sprintf("%s: %s (%s, %s)",
			symbol, payload.GlobalQuote.Price, payload.GlobalQuote.Change, payload.GlobalQuote.ChangePercent)

		logger.Info("stock lookup succeeded", "symbol", symbol)
		return Result{
			Status:  StatusSuccess,
			Message: summary,
			Data: map[string]any{
				"symbol":         symbol,
				"price":          payload.GlobalQuote.Price,
				"change":         payload.GlobalQuote.Change,
				"change_percent": payload.GlobalQuote.ChangePercent,
			},
		}
	}

	return NewTool(ToolStock,
		"Look up the latest stock quote for a ticker symbol.",
		handler)
}
