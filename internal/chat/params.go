package chat

import (
	"encoding/json"
	"regexp"
	"strings"
)

// toolPayload derives a tool's input from the raw message with light
// heuristics. The tools validate their own inputs, so a bad guess
// surfaces as an invalid_input result, not a crash.
func toolPayload(name, msg string) json.RawMessage {
	switch name {
	case "calculator":
		return marshalPayload(map[string]string{"expression": extractExpression(msg)})
	case "get_weather":
		return marshalPayload(map[string]string{"location": extractLocation(msg)})
	case "get_stock":
		return marshalPayload(map[string]string{"symbol": extractSymbol(msg)})
	case "web_search":
		return marshalPayload(map[string]string{"query": extractQuery(msg)})
	case "file_reader":
		return marshalPayload(map[string]string{"path": extractPath(msg)})
	case "query_data":
		return marshalPayload(map[string]string{"query": msg})
	default:
		return marshalPayload(map[string]string{"query": msg})
	}
}

func marshalPayload(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}

var expressionPattern = regexp.MustCompile(`[\d+\-*/(). ]*\d[\d+\-*/(). ]*`)

// extractExpression pulls the longest arithmetic-looking run out of the
// message.
func extractExpression(msg string) string {
	var best string
	for _, m := range expressionPattern.FindAllString(msg, -1) {
		m = strings.TrimSpace(m)
		if len(m) > len(best) {
			best = m
		}
	}
	return best
}

// extractLocation takes the word after "in", "at", or "for".
func extractLocation(msg string) string {
	words := strings.Fields(msg)
	for i, w := range words {
		switch strings.ToLower(w) {
		case "in", "at", "for":
			if i+1 < len(words) {
				return strings.Trim(words[i+1], ".,!?")
			}
		}
	}
	return ""
}

var symbolWord = regexp.MustCompile(`^[A-Z]{1,5}$`)

// extractSymbol takes the first short all-caps word as a ticker symbol.
func extractSymbol(msg string) string {
	for _, w := range strings.Fields(msg) {
		w = strings.Trim(w, ".,!?")
		if symbolWord.MatchString(w) {
			return w
		}
	}
	return ""
}

var queryStopWords = map[string]bool{
	"what": true, "is": true, "the": true, "search": true,
	"for": true, "about": true, "tell": true, "me": true,
	"please": true, "look": true, "up": true,
}

// extractQuery drops filler words so the search engine sees the topic.
func extractQuery(msg string) string {
	var kept []string
	for _, w := range strings.Fields(msg) {
		if !queryStopWords[strings.ToLower(strings.Trim(w, ".,!?"))] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return msg
	}
	return strings.Join(kept, " ")
}

// extractPath takes the first word that looks like a relative file path.
func extractPath(msg string) string {
	for _, w := range strings.Fields(msg) {
		w = strings.Trim(w, ".,!?\"'")
		if strings.ContainsRune(w, '.') && strings.ContainsRune(w, '/') {
			return w
		}
	}
	return ""
}
