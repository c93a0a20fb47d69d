package mcpservice

import (
	"context"
	"fmt"

	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

// Dynamic (function-backed) prompts implementation.

type (
	ListPromptsFunc func(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Prompt], error)
	GetPromptFunc   func(ctx context.Context, session sessions.Session, req *mcp.GetPromptRequestReceived) (*mcp.GetPromptResult, error)
)

// DynamicPromptsOption configures a dynamically implemented prompts
// capability.
type DynamicPromptsOption func(*dynamicPrompts)

type dynamicPrompts struct {
	listFn ListPromptsFunc
	getFn  GetPromptFunc
}

// NewDynamicPrompts builds a prompts capability from option functions. If
// listFn is nil, ListPrompts returns an empty page. If getFn is nil, every
// get reports the prompt as unknown.
func NewDynamicPrompts(opts ...DynamicPromptsOption) PromptsCapability {
	dp := &dynamicPrompts{}
	for _, opt := range opts {
		opt(dp)
	}
	return dp
}

// WithPromptsListFn sets the listing function for a dynamic prompts
// capability.
func WithPromptsListFn(fn ListPromptsFunc) DynamicPromptsOption {
	return func(d *dynamicPrompts) { d.listFn = fn }
}

// WithPromptsGetFn sets the get function for a dynamic prompts capability.
func WithPromptsGetFn(fn GetPromptFunc) DynamicPromptsOption {
	return func(d *dynamicPrompts) { d.getFn = fn }
}

// ListPrompts implements PromptsCapability for dynamic prompts.
func (d *dynamicPrompts) ListPrompts(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Prompt], error) {
	if d.listFn == nil {
		return NewPage[mcp.Prompt](nil), nil
	}
	return d.listFn(ctx, session, cursor)
}

// GetPrompt implements PromptsCapability for dynamic prompts.
func (d *dynamicPrompts) GetPrompt(ctx context.Context, session sessions.Session, req *mcp.GetPromptRequestReceived) (*mcp.GetPromptResult, error) {
	if req == nil || req.Name == "" {
		return nil, fmt.Errorf("invalid prompt request: missing name")
	}
	if d.getFn == nil {
		return nil, fmt.Errorf("%w: %s", ErrPromptNotFound, req.Name)
	}
	return d.getFn(ctx, session, req)
}
