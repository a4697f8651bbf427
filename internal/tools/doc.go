// Package tools provides the tool registry and the built-in tools the
// assistant can invoke: calculator, file reader, weather lookup, stock
// lookup, web search, and read-only database queries.
//
// Tools are registered once at process start; the set is immutable at
// runtime. Invocation failures are values, not Go errors: every call yields
// a Result whose Error field carries a machine-readable code (unknown_tool,
// invalid_input, execution_error, unavailable, security). Callers splice
// degraded results into responses instead of failing the request.
package tools
