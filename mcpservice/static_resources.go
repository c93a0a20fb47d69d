package mcpservice

import (
	"context"
	"fmt"
	"sync"

	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

// ResourcesContainer owns a mutable, threadsafe set of resources, templates,
// and their contents. The embedded ChangeNotifier ticks whenever the visible
// set mutates.
type ResourcesContainer struct {
	mu sync.RWMutex

	resources []mcp.Resource
	templates []mcp.ResourceTemplate
	contents  map[string][]mcp.ResourceContents

	// URI membership index for quick existence checks
	uriSet map[string]struct{}

	notifier ChangeNotifier

	pageSize int
}

// NewResourcesContainer constructs a ResourcesContainer with initial
// resources, templates and contents. Slices and maps are copied so callers
// may retain ownership of their inputs.
func NewResourcesContainer(resources []mcp.Resource, templates []mcp.ResourceTemplate, contents map[string][]mcp.ResourceContents) *ResourcesContainer {
	sr := &ResourcesContainer{
		contents: make(map[string][]mcp.ResourceContents),
		uriSet:   make(map[string]struct{}),
		pageSize: defaultPageSize,
	}
	sr.ReplaceResources(context.Background(), resources)
	sr.ReplaceTemplates(context.Background(), templates)
	sr.ReplaceAllContents(context.Background(), contents)
	return sr
}

// ProvideResources implements ResourcesCapabilityProvider for the container.
// It always returns itself as present (ok=true) even if empty.
func (sr *ResourcesContainer) ProvideResources(ctx context.Context, session sessions.Session) (ResourcesCapability, bool, error) {
	return sr, true, nil
}

// SetPageSize configures the maximum number of items returned per page when
// listing resources or templates. Values < 1 are ignored.
func (sr *ResourcesContainer) SetPageSize(n int) {
	if n < 1 {
		return
	}
	sr.mu.Lock()
	sr.pageSize = n
	sr.mu.Unlock()
}

// SnapshotResources returns a copy of the current resources slice.
func (sr *ResourcesContainer) SnapshotResources() []mcp.Resource {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	out := make([]mcp.Resource, len(sr.resources))
	copy(out, sr.resources)
	return out
}

// SnapshotTemplates returns a copy of the current templates slice.
func (sr *ResourcesContainer) SnapshotTemplates() []mcp.ResourceTemplate {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	out := make([]mcp.ResourceTemplate, len(sr.templates))
	copy(out, sr.templates)
	return out
}

// ReadContents returns a copy of the contents for a URI if present.
func (sr *ResourcesContainer) ReadContents(uri string) ([]mcp.ResourceContents, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	c, ok := sr.contents[uri]
	if !ok {
		return nil, false
	}
	out := make([]mcp.ResourceContents, len(c))
	copy(out, c)
	return out, true
}

// HasResource reports whether a URI exists in the current set.
func (sr *ResourcesContainer) HasResource(uri string) bool {
	sr.mu.RLock()
	defer sr.mu.RUnlock()
	_, ok := sr.uriSet[uri]
	return ok
}

// ReplaceResources atomically replaces the resource set and returns the URIs
// that dropped out of it.
func (sr *ResourcesContainer) ReplaceResources(ctx context.Context, resources []mcp.Resource) (removedURIs []string) {
	sr.mu.Lock()
	newURIs := make(map[string]struct{}, len(resources))
	for _, r := range resources {
		newURIs[r.URI] = struct{}{}
	}
	for uri := range sr.uriSet {
		if _, ok := newURIs[uri]; !ok {
			removedURIs = append(removedURIs, uri)
		}
	}
	sr.resources = make([]mcp.Resource, len(resources))
	copy(sr.resources, resources)
	sr.uriSet = newURIs
	sr.mu.Unlock()
	_ = sr.notifier.Notify(ctx)
	return removedURIs
}

// ReplaceTemplates atomically replaces the template set.
func (sr *ResourcesContainer) ReplaceTemplates(ctx context.Context, templates []mcp.ResourceTemplate) {
	sr.mu.Lock()
	sr.templates = make([]mcp.ResourceTemplate, len(templates))
	copy(sr.templates, templates)
	sr.mu.Unlock()
	_ = sr.notifier.Notify(ctx)
}

// ReplaceAllContents atomically replaces the contents map.
func (sr *ResourcesContainer) ReplaceAllContents(ctx context.Context, contents map[string][]mcp.ResourceContents) {
	sr.mu.Lock()
	sr.contents = make(map[string][]mcp.ResourceContents, len(contents))
	for k, v := range contents {
		vv := make([]mcp.ResourceContents, len(v))
		copy(vv, v)
		sr.contents[k] = vv
	}
	sr.mu.Unlock()
}

// UpsertResource adds or replaces a resource along with its contents.
// Returns true if the URI was newly added.
func (sr *ResourcesContainer) UpsertResource(ctx context.Context, res mcp.Resource, contents ...mcp.ResourceContents) bool {
	sr.mu.Lock()
	_, existed := sr.uriSet[res.URI]
	if existed {
		for i, r := range sr.resources {
			if r.URI == res.URI {
				sr.resources[i] = res
				break
			}
		}
	} else {
		sr.resources = append(sr.resources, res)
		sr.uriSet[res.URI] = struct{}{}
	}
	if len(contents) > 0 {
		vv := make([]mcp.ResourceContents, len(contents))
		copy(vv, contents)
		sr.contents[res.URI] = vv
	}
	sr.mu.Unlock()
	_ = sr.notifier.Notify(ctx)
	return !existed
}

// RemoveResource removes a resource and its contents by URI. Returns true if
// removed.
func (sr *ResourcesContainer) RemoveResource(ctx context.Context, uri string) bool {
	sr.mu.Lock()
	if _, exists := sr.uriSet[uri]; !exists {
		sr.mu.Unlock()
		return false
	}
	n := 0
	for _, r := range sr.resources {
		if r.URI != uri {
			sr.resources[n] = r
			n++
		}
	}
	sr.resources = sr.resources[:n]
	delete(sr.uriSet, uri)
	delete(sr.contents, uri)
	sr.mu.Unlock()
	_ = sr.notifier.Notify(ctx)
	return true
}

// Subscriber returns a channel that ticks whenever the resource list or
// templates change.
func (sr *ResourcesContainer) Subscriber() <-chan struct{} {
	return sr.notifier.Subscriber()
}

// ListResources implements ResourcesCapability.
func (sr *ResourcesContainer) ListResources(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Resource], error) {
	sr.mu.RLock()
	all := make([]mcp.Resource, len(sr.resources))
	copy(all, sr.resources)
	pageSize := sr.pageSize
	sr.mu.RUnlock()
	return pageSlice(all, pageSize, cursor)
}

// ListResourceTemplates implements ResourcesCapability.
func (sr *ResourcesContainer) ListResourceTemplates(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.ResourceTemplate], error) {
	sr.mu.RLock()
	all := make([]mcp.ResourceTemplate, len(sr.templates))
	copy(all, sr.templates)
	pageSize := sr.pageSize
	sr.mu.RUnlock()
	return pageSlice(all, pageSize, cursor)
}

// ReadResource implements ResourcesCapability.
func (sr *ResourcesContainer) ReadResource(ctx context.Context, session sessions.Session, uri string) ([]mcp.ResourceContents, error) {
	if c, ok := sr.ReadContents(uri); ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
}
