package agent

import (
	"encoding/json"
	"fmt"

	"github.com/koopa0/parley/internal/router"
)

// Status of a plan step.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Step is one unit of work in a plan. Tool is empty for reasoning-only
// steps; otherwise Input is the JSON payload handed to the registry.
type Step struct {
	Description string          `json:"description"`
	Tool        string          `json:"tool,omitempty"`
	Input       json.RawMessage `json:"input,omitempty"`
	Status      Status          `json:"status"`
	Output      string          `json:"output,omitempty"`
}

// Plan is a concrete, goal-bound sequence of steps.
type Plan struct {
	Goal    string `json:"goal"`
	Persona string `json:"persona"`
	Steps   []Step `json:"steps"`
}

// stepTemplate builds a Step for a given goal. describe receives the goal
// and returns the step text; input, when set, builds the tool payload.
type stepTemplate struct {
	describe func(goal string) string
	tool     string
	input    func(goal string) json.RawMessage
}

func fixed(text string) func(string) string {
	return func(string) string { return text }
}

func withGoal(format string) func(string) string {
	return func(goal string) string { return fmt.Sprintf(format, goal) }
}

func toolInput(v any) func(string) json.RawMessage {
	payload, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("agent: marshaling step input: %v", err))
	}
	return func(string) json.RawMessage { return payload }
}

func goalInput(build func(goal string) any) func(string) json.RawMessage {
	return func(goal string) json.RawMessage {
		payload, err := json.Marshal(build(goal))
		if err != nil {
			panic(fmt.Sprintf("agent: marshaling step input: %v", err))
		}
		return payload
	}
}

// dataAnalystQuery is the canned statement for the analyst's data pull.
// Columns must exist in the knowledge_documents schema (migration 0001).
const dataAnalystQuery = "SELECT name, language, created_at FROM knowledge_documents ORDER BY created_at DESC"

// planTemplates holds one template per persona, built once at package
// init. Every template has between three and six steps.
var planTemplates = map[string][]stepTemplate{
	router.PersonaCustomerSupport: {
		{describe: withGoal("Acknowledge the issue: %s")},
		{describe: fixed("Diagnose the likely root cause from the description")},
		{
			describe: fixed("Calculate a goodwill compensation (15% of a standard order)"),
			tool:     "calculator",
			input:    toolInput(map[string]string{"expression": "99.99*0.15"}),
		},
		{describe: fixed("Draft an empathetic response with the resolution")},
		{describe: fixed("Schedule a follow-up check within 48 hours")},
	},
	router.PersonaDataAnalyst: {
		{describe: withGoal("Clarify the analysis question: %s")},
		{
			describe: fixed("Pull recent records from the knowledge base"),
			tool:     "query_data",
			input:    toolInput(map[string]string{"query": dataAnalystQuery}),
		},
		{describe: fixed("Summarize trends and outliers in the data")},
		{describe: fixed("State limitations and suggest a follow-up metric")},
	},
	router.PersonaResearchAgent: {
		{describe: withGoal("Define the research scope: %s")},
		{
			describe: fixed("Search the web for current sources"),
			tool:     "web_search",
			input: goalInput(func(goal string) any {
				return map[string]any{"query": goal, "limit": 5}
			}),
		},
		{describe: fixed("Cross-check findings against each other")},
		{describe: fixed("Write a short brief with cited sources")},
	},
	router.PersonaProjectManager: {
		{describe: withGoal("Restate the project objective: %s")},
		{describe: fixed("Break the objective into workstreams")},
		{
			describe: fixed("Estimate the timeline (3 workstreams x 2 weeks, in days)"),
			tool:     "calculator",
			input:    toolInput(map[string]string{"expression": "3*2*7"}),
		},
		{describe: fixed("Assign owners and define milestones")},
		{describe: fixed("List the top risks and mitigations")},
	},
	router.PersonaTaskPlanner: {
		{describe: withGoal("Understand the goal: %s")},
		{describe: fixed("Split the goal into ordered, checkable tasks")},
		{describe: fixed("Flag dependencies between tasks")},
		{describe: fixed("Propose a first concrete action")},
	},
}

// Personas lists the supported persona names in matching priority order.
func Personas() []string {
	return []string{
		router.PersonaCustomerSupport,
		router.PersonaDataAnalyst,
		router.PersonaResearchAgent,
		router.PersonaProjectManager,
		router.PersonaTaskPlanner,
	}
}

// buildPlan instantiates a persona template for a goal. Unknown personas
// fall back to the task planner.
func buildPlan(persona, goal string) Plan {
	tmpl, ok := planTemplates[persona]
	if !ok {
		persona = router.PersonaTaskPlanner
		tmpl = planTemplates[persona]
	}

	steps := make([]Step, len(tmpl))
	for i, st := range tmpl {
		steps[i] = Step{
			Description: st.describe(goal),
			Tool:        st.tool,
			Status:      StatusPending,
		}
		if st.input != nil {
			steps[i].Input = st.input(goal)
		}
	}
	return Plan{Goal: goal, Persona: persona, Steps: steps}
}
