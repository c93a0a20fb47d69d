package mcpservice

import (
	"context"

	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

// ServerCapabilities is the root interface the stdio handler consumes. The
// handler discovers capabilities once per session and translates JSON-RPC
// method calls into calls on these interfaces.
//
// Capability getters follow a common shape: they return the capability, a
// boolean indicating whether the capability is supported for the given
// session, and an error for failures while determining support.
// Implementations may be static (same capabilities for every session) or
// dynamic (vary by session) but must be safe for concurrent use and respect
// the provided context for cancellation.
type ServerCapabilities interface {
	// GetServerInfo returns the implementation info advertised during
	// initialization.
	GetServerInfo(ctx context.Context, session sessions.Session) (mcp.ImplementationInfo, error)

	// GetPreferredProtocolVersion reports the protocol revision the server
	// advertises during initialization. When ok is false the handler falls
	// back to the latest revision it knows.
	GetPreferredProtocolVersion(ctx context.Context) (version string, ok bool, err error)

	// GetInstructions returns optional usage instructions surfaced to the
	// client in the initialize result. ok is false when there are none.
	GetInstructions(ctx context.Context, session sessions.Session) (instructions string, ok bool, err error)

	// GetToolsCapability returns the tools capability, if supported for this
	// session.
	GetToolsCapability(ctx context.Context, session sessions.Session) (cap ToolsCapability, ok bool, err error)

	// GetResourcesCapability returns the resources capability, if supported
	// for this session.
	GetResourcesCapability(ctx context.Context, session sessions.Session) (cap ResourcesCapability, ok bool, err error)

	// GetPromptsCapability returns the prompts capability, if supported for
	// this session.
	GetPromptsCapability(ctx context.Context, session sessions.Session) (cap PromptsCapability, ok bool, err error)

	// GetLoggingCapability returns the logging capability, if supported for
	// this session.
	GetLoggingCapability(ctx context.Context, session sessions.Session) (cap LoggingCapability, ok bool, err error)
}

// ToolsCapability serves tools/list and tools/call.
type ToolsCapability interface {
	// ListTools returns one page of tool descriptors. cursor is nil for the
	// first page. Implementations built on the shared containers return
	// ErrInvalidCursor for cursors they never issued.
	ListTools(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Tool], error)

	// CallTool executes a tool by name. Tool-level failures are reported
	// in-band via CallToolResult.IsError; a non-nil error is reserved for
	// protocol-level failures.
	CallTool(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error)
}

// ResourcesCapability serves resources/list, resources/templates/list, and
// resources/read.
type ResourcesCapability interface {
	ListResources(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Resource], error)
	ListResourceTemplates(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.ResourceTemplate], error)

	// ReadResource returns the contents for uri. Unknown URIs are reported
	// with an error wrapping ErrResourceNotFound.
	ReadResource(ctx context.Context, session sessions.Session, uri string) ([]mcp.ResourceContents, error)
}

// PromptsCapability serves prompts/list and prompts/get.
type PromptsCapability interface {
	ListPrompts(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Prompt], error)
	GetPrompt(ctx context.Context, session sessions.Session, req *mcp.GetPromptRequestReceived) (*mcp.GetPromptResult, error)
}

// LoggingCapability serves logging/setLevel.
type LoggingCapability interface {
	// SetLevel adjusts the minimum level of log messages the server retains
	// for the session. Unknown levels are reported with an error wrapping
	// ErrInvalidLoggingLevel.
	SetLevel(ctx context.Context, session sessions.Session, level mcp.LoggingLevel) error
}
