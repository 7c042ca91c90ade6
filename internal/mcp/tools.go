package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/cakevars/internal/indexer/extraction"
	"github.com/mvp-joe/cakevars/internal/lookup"
)

type toolHandler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// AddViewVariablesTool registers the cakevars_view_variables tool.
func AddViewVariablesTool(s *server.MCPServer, service VariableLookup) {
	tool := mcp.NewTool(
		"cakevars_view_variables",
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDescription("List the variables a CakePHP controller action passes to its template via $this->set(). Select the action by template path or by canonical key (e.g. 'Admin/Reports:Movie:view')."),
		mcp.WithString("view_path",
			mcp.Description("Template path relative to the project root (e.g. 'templates/Movie/view.php')")),
		mcp.WithString("key",
			mcp.Description("Canonical action key 'Prefix:Controller:action'. Used when view_path is empty.")),
	)

	s.AddTool(tool, createViewVariablesHandler(service))
}

func createViewVariablesHandler(service VariableLookup) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ViewVariablesRequest
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var (
			key  extraction.CanonicalKey
			vars []lookup.Variable
			err  error
		)
		switch {
		case args.ViewPath != "":
			var isAction bool
			key, isAction = lookup.ControllerKeyForView(args.ViewPath)
			if !isAction {
				return mcp.NewToolResultError(fmt.Sprintf("%s is not an action template", args.ViewPath)), nil
			}
			vars, err = service.VariablesForView(ctx, args.ViewPath)
		case args.Key != "":
			key = extraction.CanonicalKey(args.Key)
			vars, err = service.Variables(ctx, key)
		default:
			return mcp.NewToolResultError("view_path or key parameter is required"), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
		}

		if vars == nil {
			vars = []lookup.Variable{}
		}
		return jsonResult(ViewVariablesResponse{Key: string(key), Variables: vars, Total: len(vars)})
	}
}

// AddVariableExistsTool registers the cakevars_variable_exists tool.
func AddVariableExistsTool(s *server.MCPServer, service VariableLookup) {
	tool := mcp.NewTool(
		"cakevars_variable_exists",
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDescription("Check whether a template receives a variable with the given name from its controller action."),
		mcp.WithString("view_path",
			mcp.Required(),
			mcp.Description("Template path relative to the project root")),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Variable name without the leading '$'")),
	)

	s.AddTool(tool, createVariableExistsHandler(service))
}

func createVariableExistsHandler(service VariableLookup) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args VariableExistsRequest
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		args.Name = variableName(args.Name)
		if args.ViewPath == "" {
			return mcp.NewToolResultError("view_path parameter is required"), nil
		}
		if args.Name == "" {
			return mcp.NewToolResultError("name parameter is required"), nil
		}

		exists, err := service.VariableExists(ctx, args.ViewPath, args.Name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
		}

		return jsonResult(VariableExistsResponse{ViewPath: args.ViewPath, Name: args.Name, Exists: exists})
	}
}

// AddViewsForVariableTool registers the cakevars_views_for_variable tool.
func AddViewsForVariableTool(s *server.MCPServer, service VariableLookup) {
	tool := mcp.NewTool(
		"cakevars_views_for_variable",
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDescription("Find every controller action that passes a variable with the given name to its template."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Variable name without the leading '$'")),
	)

	s.AddTool(tool, createViewsForVariableHandler(service))
}

func createViewsForVariableHandler(service VariableLookup) toolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args ViewsForVariableRequest
		if err := bindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		name := variableName(args.Name)
		if name == "" {
			return mcp.NewToolResultError("name parameter is required"), nil
		}

		keys, err := service.ActionsForVariable(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err)), nil
		}

		actions := make([]string, len(keys))
		for i, k := range keys {
			actions[i] = string(k)
		}
		return jsonResult(ViewsForVariableResponse{Name: name, Actions: actions, Total: len(actions)})
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}
