// Package mcpservice provides building blocks for implementing MCP server
// capabilities in a composable way. It exposes the capability interfaces
// consumed by the stdio handler, plus containers for static tools, resources,
// and prompts, a filesystem-backed resource capability, and change
// notifications.
//
// Quick start (static):
//
//	staticRes := mcpservice.NewResourcesContainer(
//	    []mcp.Resource{{URI: "res://hello.txt", Name: "hello.txt"}},
//	    nil,
//	    map[string][]mcp.ResourceContents{
//	        "res://hello.txt": {{URI: "res://hello.txt", Text: "hello"}},
//	    },
//	)
//	type EchoArgs struct {
//	    Message string `json:"message"`
//	}
//	staticTools := mcpservice.NewToolsContainer(
//	    mcpservice.NewTool[EchoArgs]("echo",
//	        func(ctx context.Context, s sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[EchoArgs]) error {
//	            w.AppendText("you said: " + r.Args().Message)
//	            return nil
//	        },
//	        mcpservice.WithToolDescription("Echo a message back to the caller"),
//	    ),
//	)
//
//	srv := mcpservice.NewServer(
//	    mcpservice.WithServerInfo(mcpservice.StaticServerInfo("example", "1.0.0")),
//	    mcpservice.WithResourcesCapability(staticRes),
//	    mcpservice.WithToolsCapability(staticTools),
//	)
//
// Dynamic per-session capabilities:
//
//	srv := mcpservice.NewServer(
//	    mcpservice.WithToolsCapability(mcpservice.ToolsCapabilityProviderFunc(
//	        func(ctx context.Context, s sessions.Session) (mcpservice.ToolsCapability, bool, error) {
//	            if s.UserID() == "guest" {
//	                return nil, false, nil
//	            }
//	            return userTools(s.UserID()), true, nil
//	        },
//	    )),
//	)
//
// See server.go and the capability files for full API details.
package mcpservice
