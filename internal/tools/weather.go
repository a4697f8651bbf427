package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/koopa0/parley/internal/log"
)

// ToolWeather is the wire name of the weather lookup tool.
const ToolWeather = "get_weather"

// httpValidator defines the HTTP validation behavior collaborator-facing
// tools require. Unexported consumer-side interface; security.HTTP
// satisfies it.
type httpValidator interface {
	ValidateURL(url string) error
	Client() *http.Client
	MaxResponseSize() int64
}

// WeatherInput defines input for the get_weather tool.
type WeatherInput struct {
	Location string `json:"location" jsonschema_description:"City or place name, e.g. Tokyo"`
}

// WeatherConfig holds the weather collaborator settings.
type WeatherConfig struct {
	// APIKey authenticates against the weather service. Empty means the
	// tool reports itself unavailable instead of failing hard.
	APIKey string

	// BaseURL of the weather service. Defaults to the Open-Meteo style
	// endpoint used in deployments.
	BaseURL string
}

// NewWeather creates the weather lookup tool.
func NewWeather(cfg WeatherConfig, httpVal httpValidator, logger log.Logger) (*ExecutableTool, error) {
	if httpVal == nil {
		return nil, fmt.Errorf("http validator is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.weatherapi.com/v1/current.json"
	}

	handler := func(ctx context.Context, input WeatherInput) Result {
		location := strings.TrimSpace(input.Location)
		if location == "" {
			return Errorf(ErrCodeInvalidInput, "location is empty")
		}

		// Absent credentials mean unavailable, not broken: the caller
		// gets a usable sentence to splice into the response.
		if cfg.APIKey == "" {
			return Result{
				Status:  StatusError,
				Message: fmt.Sprintf("weather lookup for %s is unavailable (no API key configured)", location),
				Error: &Error{
					Code:    ErrCodeUnavailable,
					Message: "weather service credentials are not configured",
				},
			}
		}

		reqURL := fmt.Sprintf("%s?key=%s&q=%s", cfg.BaseURL, url.QueryEscape(cfg.APIKey), url.QueryEscape(location))
		if err := httpVal.ValidateURL(reqURL); err != nil {
			return Errorf(ErrCodeSecurity, fmt.Sprintf("weather endpoint rejected: %v", err))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return Errorf(ErrCodeExecution, fmt.Sprintf("building request: %v", err))
		}

		resp, err := httpVal.Client().Do(req)
		if err != nil {
			logger.Warn("weather request failed", "location", location, "error", err)
			return Errorf(ErrCodeExecution, fmt.Sprintf("weather service unreachable: %v", err))
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			return Errorf(ErrCodeExecution, fmt.Sprintf("weather service returned status %d", resp.StatusCode))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, httpVal.MaxResponseSize()))
		if err != nil {
			return Errorf(ErrCodeExecution, fmt.Sprintf("reading weather response: %v", err))
		}

		var payload struct {
			Current struct {
				TempC     float64 `json:"temp_c"`
				Condition struct {
					Text string `json:"text"`
				} `json:"condition"`
				Humidity int `json:"humidity"`
			} `json:"current"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return Errorf(ErrCodeExecution, fmt.Sprintf("decoding weather response: %v", err))
		}

		summary := fmt.Sprintf("Weather in %s: %s, %.1f°C, humidity %d%%",
			location, payload.Current.Condition.Text, payload.Current.TempC, payload.Current.Humidity)

		logger.Info("weather lookup succeeded", "location", location)
		return Result{
			Status:  StatusSuccess,
			Message: summary,
			Data: map[string]any{
				"location":  location,
				"temp_c":    payload.Current.TempC,
				"condition": payload.Current.Condition.Text,
				"humidity":  payload.Current.Humidity,
			},
		}
	}

	return NewTool(ToolWeather,
		"Look up current weather conditions for a location.",
		handler)
}
