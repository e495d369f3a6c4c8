// Package graphql exposes the query facade as a GraphQL schema.
package graphql

import (
	"context"
	_ "embed"
	"fmt"

	graphqlgo "github.com/graph-gophers/graphql-go"

	"github.com/populare/dbproxy/internal/facade"
)

//go:embed schema.graphql
var schemaSDL string

// maxQueryDepth bounds nesting. The schema is flat, so anything deeper is
// malformed.
const maxQueryDepth = 4

// Request is a GraphQL request as sent over HTTP.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// Schema executes GraphQL requests against a facade.
type Schema struct {
	schema *graphqlgo.Schema
}

// NewSchema parses the schema and binds its resolvers to f.
func NewSchema(f *facade.Facade) (*Schema, error) {
	s, err := graphqlgo.ParseSchema(schemaSDL, &resolver{facade: f},
		graphqlgo.MaxDepth(maxQueryDepth),
	)
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// Exec runs req. Failures, including invalid queries, are reported in the
// response's Errors rather than as a Go error.
func (s *Schema) Exec(ctx context.Context, req Request) *graphqlgo.Response {
	return s.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)
}
