package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koopa0/parley/internal/log"
)

// ToolDataQuery is the wire name of the database query tool.
const ToolDataQuery = "query_data"

// maxQueryRows caps result sets spliced into responses.
const maxQueryRows = 50

// DataQueryInput defines input for the query_data tool.
type DataQueryInput struct {
	Query string `json:"query" jsonschema_description:"A single read-only SELECT statement"`
}

// NewDataQuery creates the read-only database query tool.
//
// The statement must be a single SELECT: anything else, and anything
// containing a statement separator, is rejected before reaching the
// database. pool may be nil, in which case the tool reports itself
// unavailable.
func NewDataQuery(pool *pgxpool.Pool, logger log.Logger) (*ExecutableTool, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	handler := func(ctx context.Context, input DataQueryInput) Result {
		stmt := strings.TrimSpace(input.Query)
		if stmt == "" {
			return Errorf(ErrCodeInvalidInput, "query is empty")
		}

		if pool == nil {
			return Result{
				Status:  StatusError,
				Message: "database queries are unavailable (no database configured)",
				Error: &Error{
					Code:    ErrCodeUnavailable,
					Message: "no database connection configured",
				},
			}
		}

		if err := validateReadOnly(stmt); err != nil {
			logger.Warn("query_data statement rejected", "error", err)
			return Errorf(ErrCodeInvalidInput, err.Error())
		}

		rows, err := pool.Query(ctx, stmt)
		if err != nil {
			return Errorf(ErrCodeExecution, fmt.Sprintf("query failed: %v", err))
		}
		defer rows.Close()

		records, columns, err := collectRows(rows)
		if err != nil {
			return Errorf(ErrCodeExecution, fmt.Sprintf("reading rows: %v", err))
		}

		logger.Info("query_data succeeded", "rows", len(records))
		return Result{
			Status:  StatusSuccess,
			Message: fmt.Sprintf("query returned %d rows", len(records)),
			Data: map[string]any{
				"columns": columns,
				"rows":    records,
			},
		}
	}

	return NewTool(ToolDataQuery,
		"Run a read-only SELECT query against the application database and return the rows.",
		handler)
}

// validateReadOnly enforces the single-SELECT contract.
func validateReadOnly(stmt string) error {
	upper := strings.ToUpper(stmt)
	if !strings.HasPrefix(upper, "SELECT") {
		return fmt.Errorf("only SELECT statements are allowed")
	}
	if strings.Contains(stmt, ";") {
		return fmt.Errorf("statement separators are not allowed")
	}
	return nil
}

// collectRows serializes up to maxQueryRows rows into column/value maps.
func collectRows(rows pgx.Rows) ([]map[string]any, []string, error) {
	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}

	var records []map[string]any
	for rows.Next() {
		if len(records) >= maxQueryRows {
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("scanning row: %w", err)
		}
		record := make(map[string]any, len(columns))
		for i, col := range columns {
			record[col] = values[i]
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating rows: %w", err)
	}

	return records, columns, nil
}
