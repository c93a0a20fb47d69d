package mcpservice

import (
	"context"
	"fmt"

	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

// Dynamic constructor / option set for the tools capability. Static tool sets
// implement ToolsCapability directly (see static_tools.go).

// ListToolsFunc returns a (possibly paginated) page of tools for the session.
// The function must honor the context for cancellation.
type ListToolsFunc func(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Tool], error)

// CallToolFunc executes a tool invocation.
type CallToolFunc func(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error)

// DynamicToolsOption configures a dynamically implemented tools capability.
type DynamicToolsOption func(*dynamicTools)

// dynamicTools is the function-backed implementation of ToolsCapability. It
// does no paging itself beyond returning whatever listFn supplies; callers
// that want internal paging should implement it inside listFn.
type dynamicTools struct {
	listFn ListToolsFunc
	callFn CallToolFunc
}

// NewDynamicTools builds a dynamic tools capability from option functions. If
// listFn is nil, ListTools returns an empty page. If callFn is nil, every
// call reports an unimplemented tool in-band.
func NewDynamicTools(opts ...DynamicToolsOption) ToolsCapability {
	dt := &dynamicTools{}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// WithToolsListFn sets the listing function for a dynamic tools capability.
func WithToolsListFn(fn ListToolsFunc) DynamicToolsOption {
	return func(d *dynamicTools) { d.listFn = fn }
}

// WithToolsCallFn sets the call function for a dynamic tools capability.
func WithToolsCallFn(fn CallToolFunc) DynamicToolsOption {
	return func(d *dynamicTools) { d.callFn = fn }
}

// ListTools implements ToolsCapability for dynamic tools.
func (d *dynamicTools) ListTools(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Tool], error) {
	if d.listFn == nil {
		return NewPage[mcp.Tool](nil), nil
	}
	return d.listFn(ctx, session, cursor)
}

// CallTool implements ToolsCapability for dynamic tools.
func (d *dynamicTools) CallTool(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
	if req == nil || req.Name == "" {
		return nil, fmt.Errorf("invalid tool request: missing name")
	}
	if d.callFn == nil {
		return UnimplementedToolResult(req.Name), nil
	}
	return d.callFn(ctx, session, req)
}
