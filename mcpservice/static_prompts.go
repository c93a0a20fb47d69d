package mcpservice

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

// PromptHandler handles a prompt get request to produce messages.
type PromptHandler func(ctx context.Context, session sessions.Session, req *mcp.GetPromptRequestReceived) (*mcp.GetPromptResult, error)

// StaticPrompt pairs a prompt descriptor with a handler that can materialize
// it.
type StaticPrompt struct {
	Descriptor mcp.Prompt
	Handler    PromptHandler
}

// ErrPromptNotFound reports a get naming a prompt the container does not
// hold. The stdio handler surfaces it to clients as an invalid-params error.
var ErrPromptNotFound = errors.New("prompt not found")

// PromptsContainer owns a mutable, threadsafe set of prompt descriptors and
// handlers. It lets servers advertise a fixed (but updatable) set of prompts
// and have the handler dispatch get requests automatically. The embedded
// ChangeNotifier ticks whenever the set mutates.
type PromptsContainer struct {
	mu       sync.RWMutex
	prompts  []mcp.Prompt
	handlers map[string]PromptHandler // name -> handler

	notifier ChangeNotifier

	pageSize int
}

// NewPromptsContainer constructs a PromptsContainer holding the given
// definitions.
func NewPromptsContainer(defs ...StaticPrompt) *PromptsContainer {
	sp := &PromptsContainer{pageSize: defaultPageSize}
	sp.Replace(context.Background(), defs...)
	return sp
}

// ProvidePrompts makes *PromptsContainer satisfy PromptsCapabilityProvider.
// An empty container is a present-but-empty capability.
func (sp *PromptsContainer) ProvidePrompts(ctx context.Context, session sessions.Session) (PromptsCapability, bool, error) {
	return sp, true, nil
}

// SetPageSize sets the pagination size used by ListPrompts. Non-positive
// values are ignored.
func (sp *PromptsContainer) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	sp.mu.Lock()
	sp.pageSize = n
	sp.mu.Unlock()
}

// Snapshot returns a copy of the current prompt descriptors.
func (sp *PromptsContainer) Snapshot() []mcp.Prompt {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	out := make([]mcp.Prompt, len(sp.prompts))
	copy(out, sp.prompts)
	return out
}

// Replace atomically replaces the entire prompt set.
func (sp *PromptsContainer) Replace(ctx context.Context, defs ...StaticPrompt) {
	sp.mu.Lock()
	sp.prompts = make([]mcp.Prompt, 0, len(defs))
	sp.handlers = make(map[string]PromptHandler, len(defs))
	for _, d := range defs {
		sp.prompts = append(sp.prompts, d.Descriptor)
		if d.Handler != nil {
			sp.handlers[d.Descriptor.Name] = d.Handler
		}
	}
	sp.mu.Unlock()
	_ = sp.notifier.Notify(ctx)
}

// Add registers a new prompt unless the name is empty or already taken.
// Returns true if added.
func (sp *PromptsContainer) Add(ctx context.Context, def StaticPrompt) bool {
	name := def.Descriptor.Name
	if name == "" {
		return false
	}
	sp.mu.Lock()
	if sp.handlers == nil {
		sp.handlers = make(map[string]PromptHandler)
	}
	for _, p := range sp.prompts {
		if p.Name == name {
			sp.mu.Unlock()
			return false
		}
	}
	sp.prompts = append(sp.prompts, def.Descriptor)
	if def.Handler != nil {
		sp.handlers[name] = def.Handler
	}
	sp.mu.Unlock()
	_ = sp.notifier.Notify(ctx)
	return true
}

// Remove removes a prompt by name. Returns true if removed.
func (sp *PromptsContainer) Remove(ctx context.Context, name string) bool {
	sp.mu.Lock()
	n := 0
	removed := false
	for _, p := range sp.prompts {
		if p.Name == name {
			removed = true
			continue
		}
		sp.prompts[n] = p
		n++
	}
	sp.prompts = sp.prompts[:n]
	if removed {
		delete(sp.handlers, name)
	}
	sp.mu.Unlock()
	if removed {
		_ = sp.notifier.Notify(ctx)
	}
	return removed
}

// Get dispatches a prompt get to the named handler if present. Unknown names
// return an error wrapping ErrPromptNotFound.
func (sp *PromptsContainer) Get(ctx context.Context, session sessions.Session, req *mcp.GetPromptRequestReceived) (*mcp.GetPromptResult, error) {
	if req == nil || req.Name == "" {
		return nil, fmt.Errorf("invalid prompt request: missing name")
	}
	sp.mu.RLock()
	h := sp.handlers[req.Name]
	sp.mu.RUnlock()
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrPromptNotFound, req.Name)
	}
	return h(ctx, session, req)
}

// Subscriber returns a channel that ticks whenever the prompt set changes.
func (sp *PromptsContainer) Subscriber() <-chan struct{} { return sp.notifier.Subscriber() }

// ListPrompts implements PromptsCapability with internal pagination over a
// stable snapshot.
func (sp *PromptsContainer) ListPrompts(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Prompt], error) {
	sp.mu.RLock()
	all := make([]mcp.Prompt, len(sp.prompts))
	copy(all, sp.prompts)
	pageSize := sp.pageSize
	sp.mu.RUnlock()
	return pageSlice(all, pageSize, cursor)
}

// GetPrompt implements PromptsCapability.
func (sp *PromptsContainer) GetPrompt(ctx context.Context, session sessions.Session, req *mcp.GetPromptRequestReceived) (*mcp.GetPromptResult, error) {
	return sp.Get(ctx, session, req)
}
