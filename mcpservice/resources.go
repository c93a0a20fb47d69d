package mcpservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

// ErrResourceNotFound reports a read against a URI the capability does not
// serve. The stdio handler surfaces it to clients as an invalid-params error
// naming the URI.
var ErrResourceNotFound = errors.New("resource not found")

// Dynamic (function-backed) resources implementation.

type (
	ListResourcesFunc         func(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Resource], error)
	ListResourceTemplatesFunc func(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.ResourceTemplate], error)
	ReadResourceFunc          func(ctx context.Context, session sessions.Session, uri string) ([]mcp.ResourceContents, error)
)

// DynamicResourcesOption configures a dynamically implemented resources
// capability.
type DynamicResourcesOption func(*dynamicResources)

type dynamicResources struct {
	listFn    ListResourcesFunc
	listTplFn ListResourceTemplatesFunc
	readFn    ReadResourceFunc
}

// NewDynamicResources builds a resources capability from option functions.
// Absent functions degrade gracefully: listings come back empty and reads
// report the URI as not found.
func NewDynamicResources(opts ...DynamicResourcesOption) ResourcesCapability {
	dr := &dynamicResources{}
	for _, opt := range opts {
		opt(dr)
	}
	return dr
}

// WithResourcesListFunc sets the resource listing function.
func WithResourcesListFunc(fn ListResourcesFunc) DynamicResourcesOption {
	return func(d *dynamicResources) { d.listFn = fn }
}

// WithResourcesListTemplatesFunc sets the template listing function.
func WithResourcesListTemplatesFunc(fn ListResourceTemplatesFunc) DynamicResourcesOption {
	return func(d *dynamicResources) { d.listTplFn = fn }
}

// WithResourcesReadFunc sets the read function.
func WithResourcesReadFunc(fn ReadResourceFunc) DynamicResourcesOption {
	return func(d *dynamicResources) { d.readFn = fn }
}

func (d *dynamicResources) ListResources(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Resource], error) {
	if d.listFn == nil {
		return NewPage[mcp.Resource](nil), nil
	}
	return d.listFn(ctx, session, cursor)
}

func (d *dynamicResources) ListResourceTemplates(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.ResourceTemplate], error) {
	if d.listTplFn == nil {
		return NewPage[mcp.ResourceTemplate](nil), nil
	}
	return d.listTplFn(ctx, session, cursor)
}

func (d *dynamicResources) ReadResource(ctx context.Context, session sessions.Session, uri string) ([]mcp.ResourceContents, error) {
	if d.readFn == nil {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
	}
	return d.readFn(ctx, session, uri)
}
