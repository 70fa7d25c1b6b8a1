package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Schema is a named JSON schema sent as the structured-output target and
// used to validate what comes back.
type Schema struct {
	Name       string
	Definition map[string]any

	once     sync.Once
	compiled *jsonschema.Schema
	err      error
}

// NewSchema creates a schema. Compilation is deferred to first use.
func NewSchema(name string, definition map[string]any) *Schema {
	return &Schema{Name: name, Definition: definition}
}

func (s *Schema) compile() (*jsonschema.Schema, error) {
	s.once.Do(func() {
		b, err := json.Marshal(s.Definition)
		if err != nil {
			s.err = fmt.Errorf("marshal schema %s: %w", s.Name, err)
			return
		}
		url := s.Name + ".json"
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
			s.err = fmt.Errorf("add schema %s: %w", s.Name, err)
			return
		}
		s.compiled, s.err = compiler.Compile(url)
		if s.err != nil {
			s.err = fmt.Errorf("compile schema %s: %w", s.Name, s.err)
		}
	})
	return s.compiled, s.err
}

// Validate checks raw JSON data against the schema.
func (s *Schema) Validate(data []byte) error {
	schema, err := s.compile()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema %s: %w", s.Name, err)
	}
	return nil
}

func object(properties map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

func str(description string) map[string]any {
	m := map[string]any{"type": "string"}
	if description != "" {
		m["description"] = description
	}
	return m
}

func num(description string) map[string]any {
	m := map[string]any{"type": "number"}
	if description != "" {
		m["description"] = description
	}
	return m
}

func array(items map[string]any, description string) map[string]any {
	m := map[string]any{"type": "array", "items": items}
	if description != "" {
		m["description"] = description
	}
	return m
}

var tableDefinition = object(map[string]any{
	"full_heading": str("the heading of the table prefixed with the heading of the tables parent sections"),
	"rows": array(object(map[string]any{
		"data": array(object(map[string]any{
			"column_name": str(""),
			"value":       str(""),
		}, "column_name", "value"), ""),
		"is_total": map[string]any{
			"type":        "boolean",
			"description": "whether the row is a total or summary row",
		},
	}, "data", "is_total"), "the rows of the table with the column names included on each datum"),
}, "full_heading", "rows")

// TablesSchema describes one page's tables.
var TablesSchema = NewSchema("tables", object(map[string]any{
	"tables": array(tableDefinition, ""),
}, "tables"))

// HoldingsSchema describes the individual holdings found in one page's tables.
var HoldingsSchema = NewSchema("holdings", object(map[string]any{
	"holdings": array(object(map[string]any{
		"name":       str(""),
		"cost_basis": num("the cost basis of the holding, only match columns that are explicitly labeled as cost basis"),
	}, "name", "cost_basis"),
		"the holdings in the account described by these tables, include individual holdings, do not include total or aggregate values, do not include holdings with incomplete data, only include tables that explicitly contain holdings"),
}, "holdings"))

// SummarySchema describes the account-level investment information.
var SummarySchema = NewSchema("investment_data", object(map[string]any{
	"account_owner_name": str(""),
	"portfolio_value":    num(""),
}, "account_owner_name", "portfolio_value"))
