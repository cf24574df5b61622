// Package mcp serves the tool registry over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/matiasleandrokruk/jiraagent/internal/domain/tool"
	"github.com/matiasleandrokruk/jiraagent/internal/version"
)

// ServerName is the implementation name announced during the handshake.
const ServerName = "Jira Integration MCP Server"

// NewServer exposes every registered tool. Tool failures come back as
// error results rather than protocol errors.
func NewServer(registry *tool.Registry, logger zerolog.Logger) *sdk.Server {
	server := sdk.NewServer(&sdk.Implementation{Name: ServerName, Version: version.Version}, nil)
	for _, d := range registry.Catalog() {
		server.AddTool(&sdk.Tool{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: d.InputSchema,
		}, handler(registry, d.Name, logger))
	}
	return server
}

// Serve runs the server on stdin/stdout until ctx ends or the client hangs up.
func Serve(ctx context.Context, registry *tool.Registry, logger zerolog.Logger) error {
	logger.Info().Strs("tools", registry.Names()).Msg("mcp server listening on stdio")
	return NewServer(registry, logger).Run(ctx, &sdk.StdioTransport{})
}

func handler(registry *tool.Registry, name string, logger zerolog.Logger) sdk.ToolHandler {
	return func(ctx context.Context, req *sdk.CallToolRequest) (*sdk.CallToolResult, error) {
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		res := registry.Invoke(ctx, name, args)
		if !res.OK {
			logger.Warn().Str("tool", name).Str("error", res.Message).Msg("mcp tool call failed")
			return &sdk.CallToolResult{
				Content: []sdk.Content{&sdk.TextContent{Text: res.Message}},
				IsError: true,
			}, nil
		}

		text, err := json.Marshal(res.Data)
		if err != nil {
			return nil, err
		}
		return &sdk.CallToolResult{Content: []sdk.Content{&sdk.TextContent{Text: string(text)}}}, nil
	}
}
