package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mediar-ai/mcp-stdio-go/internal/config"
	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/mcpservice"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

// newServerCapabilities assembles what the binary serves: a demo tool,
// resource and prompt, plus runtime log level control. A configured
// resources directory replaces the demo resource with a live view of that
// directory.
func newServerCapabilities(cfg config.Config, lv *slog.LevelVar, log *slog.Logger) mcpservice.ServerCapabilities {
	opts := []mcpservice.ServerOption{
		mcpservice.WithServerInfo(mcpservice.StaticServerInfo(cfg.ServerName, cfg.ServerVersion)),
		mcpservice.WithToolsCapability(mcpservice.NewToolsContainer(dummyTool())),
		mcpservice.WithPromptsCapability(mcpservice.NewPromptsContainer(dummyPrompt())),
		mcpservice.WithLoggingCapability(mcpservice.StaticLogging(mcpservice.NewSlogLevelVarLogging(lv))),
	}

	if cfg.Instructions != "" {
		opts = append(opts, mcpservice.WithInstructions(mcpservice.StaticInstructions(cfg.Instructions)))
	}

	if cfg.ResourcesDir != "" {
		opts = append(opts, mcpservice.WithResourcesCapability(mcpservice.NewFSResources(
			mcpservice.WithOSDir(cfg.ResourcesDir),
			mcpservice.WithBaseURI("file://mcp-stdio"),
			mcpservice.WithFSLogger(log),
		)))
	} else {
		opts = append(opts, mcpservice.WithResourcesCapability(demoResources()))
	}

	return mcpservice.NewServer(opts...)
}

// dummyTool accepts any argument object and echoes it back. The descriptor
// is spelled out rather than reflected so the advertised schema stays a bare
// empty object.
func dummyTool() mcpservice.StaticTool {
	desc := mcp.Tool{
		Name:        "dummy_tool_from_rust",
		Description: "A simple test tool.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]mcp.SchemaProperty{},
		},
	}
	return mcpservice.TypedTool(desc, func(ctx context.Context, session sessions.Session, args json.RawMessage) (*mcp.CallToolResult, error) {
		received := "null"
		if len(args) > 0 {
			received = string(args)
		}
		return mcpservice.TextResult(fmt.Sprintf("dummy_tool_from_rust executed successfully. Received args: %s", received)), nil
	})
}

// demoResources holds one readable in-memory resource.
func demoResources() *mcpservice.ResourcesContainer {
	const uri = "mcp://dummy/resource/1"
	return mcpservice.NewResourcesContainer(
		[]mcp.Resource{{
			URI:         uri,
			Name:        "Dummy Resource",
			Description: "A test resource.",
			MimeType:    "text/plain",
		}},
		nil,
		map[string][]mcp.ResourceContents{
			uri: {{URI: uri, MimeType: "text/plain", Text: "This is the dummy resource content.\n"}},
		},
	)
}

// dummyPrompt renders a single user message, optionally themed by a topic
// argument.
func dummyPrompt() mcpservice.StaticPrompt {
	return mcpservice.StaticPrompt{
		Descriptor: mcp.Prompt{
			Name:        "dummy_prompt",
			Description: "A test prompt.",
			Arguments: []mcp.PromptArgument{{
				Name:        "topic",
				Description: "Subject the prompt should ask about.",
			}},
		},
		Handler: func(ctx context.Context, session sessions.Session, req *mcp.GetPromptRequestReceived) (*mcp.GetPromptResult, error) {
			topic := "anything"
			if raw, ok := req.Arguments["topic"]; ok {
				var s string
				if err := json.Unmarshal(raw, &s); err == nil && s != "" {
					topic = s
				}
			}
			return &mcp.GetPromptResult{
				Description: "A test prompt.",
				Messages: []mcp.PromptMessage{{
					Role:    mcp.RoleUser,
					Content: mcp.ContentBlock{Type: "text", Text: fmt.Sprintf("Tell me something interesting about %s.", topic)},
				}},
			}, nil
		},
	}
}
