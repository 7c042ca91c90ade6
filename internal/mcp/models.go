package mcp

import (
	"context"

	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
	"github.com/mvp-joe/cakevars/internal/lookup"
)

// VariableLookup is the subset of lookup.Service the tools need.
type VariableLookup interface {
	Variables(ctx context.Context, key extraction.CanonicalKey) ([]lookup.Variable, error)
	VariablesForView(ctx context.Context, viewPath string) ([]lookup.Variable, error)
	VariableExists(ctx context.Context, viewPath, name string) (bool, error)
	ActionsForVariable(ctx context.Context, name string) ([]extraction.CanonicalKey, error)
}

// ViewVariablesRequest selects an action either by template path or by key.
type ViewVariablesRequest struct {
	ViewPath string `json:"view_path,omitempty"`
	Key      string `json:"key,omitempty"`
}

// ViewVariablesResponse lists the variables an action hands to its template.
type ViewVariablesResponse struct {
	Key       string            `json:"key"`
	Variables []lookup.Variable `json:"variables"`
	Total     int               `json:"total"`
}

// VariableExistsRequest names a template and a variable.
type VariableExistsRequest struct {
	ViewPath string `json:"view_path"`
	Name     string `json:"name"`
}

// ViewsForVariableRequest names a variable.
type ViewsForVariableRequest struct {
	Name string `json:"name"`
}

// VariableExistsResponse answers cakevars_variable_exists.
type VariableExistsResponse struct {
	ViewPath string `json:"view_path"`
	Name     string `json:"name"`
	Exists   bool   `json:"exists"`
}

// ViewsForVariableResponse answers cakevars_views_for_variable.
type ViewsForVariableResponse struct {
	Name    string   `json:"name"`
	Actions []string `json:"actions"`
	Total   int      `json:"total"`
}
