package api

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/danielgtaylor/huma/v2"
)

// DBHandler exposes read-only introspection of the DuckDB map store.
type DBHandler struct {
	db *sql.DB
}

// NewDBHandler creates a new database handler. db may be nil when maps are
// kept in the JSON file store.
func NewDBHandler(db *sql.DB) *DBHandler {
	return &DBHandler{db: db}
}

// RegisterRoutes registers database routes with Huma.
func (h *DBHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/tables", h.ListTables, huma.OperationTags("db"))
	huma.Post(api, "/api/v1/query", h.Query, huma.OperationTags("db"))
}

// TableInfo names a table and its size.
type TableInfo struct {
	Name string `json:"name" doc:"Table name" example:"maps"`
	Rows int64  `json:"rows" doc:"Row count"`
}

// TablesOutput is the response for listing tables.
type TablesOutput struct {
	Body struct {
		Tables []TableInfo `json:"tables" doc:"Tables of the database"`
	}
}

// ListTables returns all DuckDB tables with their row counts.
func (h *DBHandler) ListTables(ctx context.Context, input *struct{}) (*TablesOutput, error) {
	if h.db == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}

	rows, err := h.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, huma.Error500InternalServerError("Failed to read table name", err)
		}
		names = append(names, name)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to list tables", err)
	}

	out := &TablesOutput{}
	out.Body.Tables = []TableInfo{}
	for _, name := range names {
		info := TableInfo{Name: name}
		// names come from SHOW TABLES, quoting keeps odd ones valid
		q := fmt.Sprintf(`SELECT count(*) FROM "%s"`, strings.ReplaceAll(name, `"`, `""`))
		if err := h.db.QueryRowContext(ctx, q).Scan(&info.Rows); err != nil {
			return nil, huma.Error500InternalServerError("Failed to count rows", err)
		}
		out.Body.Tables = append(out.Body.Tables, info)
	}
	return out, nil
}

// QueryInput is the input for SQL queries.
type QueryInput struct {
	Body struct {
		Query string `json:"query" required:"true" minLength:"1" doc:"Read-only SQL query" example:"SELECT uid, title FROM maps"`
		Limit int    `json:"limit,omitempty" minimum:"0" maximum:"10000" default:"1000" doc:"Maximum rows returned"`
	}
}

// QueryOutput is the response for SQL queries.
type QueryOutput struct {
	Body struct {
		Columns   []string         `json:"columns" doc:"Column names"`
		Rows      []map[string]any `json:"rows" doc:"Query results"`
		Count     int              `json:"count" doc:"Number of rows returned"`
		Truncated bool             `json:"truncated" doc:"Whether rows were cut at the limit"`
	}
}

// readOnly lists the statements the query endpoint accepts.
var readOnly = []string{"select", "with", "show", "describe", "summarize", "explain", "from"}

// mutating lists keywords rejected anywhere in a query. EXPLAIN ANALYZE runs
// its statement, and a CTE can front a write.
var mutating = map[string]bool{
	"analyze": true, "insert": true, "update": true, "delete": true, "merge": true,
	"drop": true, "create": true, "alter": true, "truncate": true, "copy": true,
	"attach": true, "detach": true, "install": true, "load": true, "pragma": true,
	"set": true, "reset": true, "call": true, "checkpoint": true, "vacuum": true,
	"export": true, "import": true, "begin": true, "commit": true, "rollback": true,
}

// Query executes a read-only SQL query against DuckDB.
func (h *DBHandler) Query(ctx context.Context, input *QueryInput) (*QueryOutput, error) {
	if h.db == nil {
		return nil, huma.Error503ServiceUnavailable("Database not available")
	}
	if !isReadOnly(input.Body.Query) {
		return nil, huma.Error422UnprocessableEntity("Only read-only statements are allowed")
	}
	limit := input.Body.Limit
	if limit <= 0 {
		limit = 1000
	}

	// never committed
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to begin transaction", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, input.Body.Query)
	if err != nil {
		return nil, huma.Error400BadRequest("Query failed: " + err.Error())
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get columns", err)
	}

	out := &QueryOutput{}
	out.Body.Columns = columns
	out.Body.Rows = []map[string]any{}
	for rows.Next() {
		if len(out.Body.Rows) == limit {
			out.Body.Truncated = true
			break
		}
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, huma.Error500InternalServerError("Failed to read row", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		out.Body.Rows = append(out.Body.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, huma.Error500InternalServerError("Failed to read rows", err)
	}
	out.Body.Count = len(out.Body.Rows)
	return out, nil
}

func isReadOnly(query string) bool {
	q := strings.TrimSpace(query)
	if strings.Contains(strings.TrimRight(q, "; \n\t"), ";") {
		return false
	}
	fields := strings.Fields(strings.ToLower(q))
	if len(fields) == 0 {
		return false
	}
	for _, word := range strings.FieldsFunc(strings.ToLower(q), notWord) {
		if mutating[word] {
			return false
		}
	}
	first := fields[0]
	for _, kw := range readOnly {
		if first == kw {
			return true
		}
	}
	return false
}

func notWord(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
}
