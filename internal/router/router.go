// Package router classifies an incoming message into an execution mode,
// a persona, and an ordered list of candidate tools. Classification is
// pure keyword matching over one message; the router holds no state and
// never fails.
package router

import (
	"regexp"
	"strings"
)

// Mode selects how the orchestrator handles a message.
type Mode string

const (
	ModeChat      Mode = "chat"
	ModeKnowledge Mode = "knowledge"
	ModeTools     Mode = "tools"
	ModeAgent     Mode = "agent"
)

// Persona names for the agent executor. Ordered by matching priority.
const (
	PersonaCustomerSupport = "customer_support"
	PersonaDataAnalyst     = "data_analyst"
	PersonaResearchAgent   = "research_agent"
	PersonaProjectManager  = "project_manager"
	PersonaTaskPlanner     = "task_planner"
)

// ParseMode maps a wire string onto a Mode. Unknown or empty strings
// yield the zero Mode, which means "infer".
func ParseMode(s string) Mode {
	switch m := Mode(strings.ToLower(s)); m {
	case ModeChat, ModeKnowledge, ModeTools, ModeAgent:
		return m
	default:
		return ""
	}
}

// Request carries the caller's explicit preferences. Zero values mean
// "infer from the message".
type Request struct {
	Mode    Mode
	Persona string
	Tools   []string
}

// Decision is the routing outcome.
type Decision struct {
	Mode    Mode
	Persona string
	Tools   []string
}

type personaRule struct {
	persona  string
	keywords []string
}

type toolRule struct {
	tool     string
	keywords []string
}

// personaRules are evaluated in order; the first rule with a keyword hit
// wins. Anything unmatched falls back to task_planner.
var personaRules = []personaRule{
	{PersonaCustomerSupport, []string{"customer", "support", "complaint", "refund"}},
	{PersonaDataAnalyst, []string{"analyze", "analysis", "data", "metrics", "statistics"}},
	{PersonaResearchAgent, []string{"research", "investigate", "compare", "competitor"}},
	{PersonaProjectManager, []string{"project", "plan", "timeline", "milestone"}},
}

// toolRules map trigger keywords to tool wire names. Unlike personas,
// candidate order follows where each tool's earliest keyword appears in
// the message, so "weather in Tokyo and calculate 5*5" tries get_weather
// before calculator.
var toolRules = []toolRule{
	{"get_weather", []string{"weather", "temperature", "forecast", "rain"}},
	{"calculator", []string{"calculate", "compute", "math"}},
	{"file_reader", []string{"read file", "open file", "document"}},
	{"web_search", []string{"search", "latest", "news", "look up"}},
	{"get_stock", []string{"stock", "ticker", "share price"}},
	{"query_data", []string{"database", "query data", "records"}},
}

// agentKeywords push a message into agent mode when no mode is requested.
var agentKeywords = []string{
	"step by step", "break down", "act as", "agent",
	"help me plan", "work through",
}

// arithmeticPattern triggers the calculator even without a keyword:
// two numbers joined by an operator.
var arithmeticPattern = regexp.MustCompile(`\d\s*[-+*/]\s*\d`)

// Route classifies msg. Explicit preferences in req override inference
// entirely: a requested mode skips mode detection, a requested persona
// skips persona matching, and a non-empty tool list is taken as-is.
func Route(msg string, req Request) Decision {
	lower := strings.ToLower(msg)

	d := Decision{
		Mode:    req.Mode,
		Persona: req.Persona,
		Tools:   req.Tools,
	}

	if len(d.Tools) == 0 {
		d.Tools = matchTools(lower)
	}
	if d.Persona == "" {
		d.Persona = matchPersona(lower)
	}
	if d.Mode == "" {
		d.Mode = inferMode(lower, d.Tools)
	}
	return d
}

func inferMode(lower string, tools []string) Mode {
	for _, kw := range agentKeywords {
		if strings.Contains(lower, kw) {
			return ModeAgent
		}
	}
	if len(tools) > 0 {
		return ModeTools
	}
	return ModeChat
}

func matchPersona(lower string) string {
	for _, rule := range personaRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.persona
			}
		}
	}
	return PersonaTaskPlanner
}

// matchTools returns candidate tools ordered by the position of their
// earliest keyword hit in the message.
func matchTools(lower string) []string {
	type hit struct {
		tool string
		pos  int
	}
	var hits []hit

	for _, rule := range toolRules {
		pos := -1
		for _, kw := range rule.keywords {
			if i := strings.Index(lower, kw); i >= 0 && (pos == -1 || i < pos) {
				pos = i
			}
		}
		if rule.tool == "calculator" {
			if loc := arithmeticPattern.FindStringIndex(lower); loc != nil && (pos == -1 || loc[0] < pos) {
				pos = loc[0]
			}
		}
		if pos >= 0 {
			hits = append(hits, hit{tool: rule.tool, pos: pos})
		}
	}

	if len(hits) == 0 {
		return nil
	}

	// Insertion sort keeps table order for equal positions.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].pos < hits[j-1].pos; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}

	tools := make([]string, len(hits))
	for i, h := range hits {
		tools[i] = h.tool
	}
	return tools
}
