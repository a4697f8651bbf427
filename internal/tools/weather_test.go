package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/koopa0/parley/internal/log"
	"github.com/koopa0/parley/internal/security"
)

func TestWeatherUnavailableWithoutKey(t *testing.T) {
	tool, err := NewWeather(WeatherConfig{}, security.NewHTTP(), log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	payload, _ := json.Marshal(WeatherInput{Location: "Tokyo"})
	res := tool.Call(context.Background(), payload)

	if res.Status != StatusError {
		t.Fatalf("Call without API key = %+v, want error", res)
	}
	if res.Error.Code != ErrCodeUnavailable {
		t.Errorf("code = %s, want %s", res.Error.Code, ErrCodeUnavailable)
	}
	// The message must remain usable for splicing into a reply.
	if !strings.Contains(res.Message, "Tokyo") {
		t.Errorf("message %q does not mention the location", res.Message)
	}
}

func TestWeatherEmptyLocation(t *testing.T) {
	tool, err := NewWeather(WeatherConfig{APIKey: "k"}, security.NewHTTP(), log.NewNop())
	if err != nil {
		t.Fatal(err)
	}

	payload, _ := json.Marshal(WeatherInput{Location: "  "})
	res := tool.Call(context.Background(), payload)
	if res.Status != StatusError || res.Error.Code != ErrCodeInvalidInput {
		t.Errorf("empty location = %+v, want %s", res, ErrCodeInvalidInput)
	}
}

func TestWeatherRequiresCollaborators(t *testing.T) {
	if _, err := NewWeather(WeatherConfig{}, nil, log.NewNop()); err == nil {
		t.Error("nil http validator accepted")
	}
	if _, err := NewWeather(WeatherConfig{}, security.NewHTTP(), nil); err == nil {
		t.Error("nil logger accepted")
	}
}
