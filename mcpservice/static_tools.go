package mcpservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

// ToolHandler is the function signature used to handle a tool invocation.
type ToolHandler func(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error)

// StaticTool pairs an MCP tool descriptor with its handler.
type StaticTool struct {
	Descriptor mcp.Tool
	Handler    ToolHandler
}

// ErrToolNotFound reports a call naming a tool the container does not hold.
// Call returns it wrapped; CallTool converts it to an in-band error result.
var ErrToolNotFound = errors.New("tool not found")

// ToolRequest carries tool call input and request metadata. It is generic
// over the typed argument struct A.
type ToolRequest[A any] struct {
	name string
	raw  json.RawMessage
	args A
}

// Name returns the invoked tool's name.
func (r *ToolRequest[A]) Name() string { return r.name }

// RawArguments returns the argument bytes exactly as received.
func (r *ToolRequest[A]) RawArguments() json.RawMessage { return r.raw }

// Args returns the decoded argument struct.
func (r *ToolRequest[A]) Args() A { return r.args }

// ToolResponseWriterTyped extends ToolResponseWriter for typed output tools.
// It allows setting a structuredContent value of type O.
type ToolResponseWriterTyped[O any] interface {
	ToolResponseWriter
	SetStructured(v O)
}

type toolResponseWriterTyped[O any] struct {
	ToolResponseWriter
	structured any
}

func (tw *toolResponseWriterTyped[O]) SetStructured(v O) { tw.structured = v }

// NewTool constructs a writer-based tool with typed input A. The input schema
// is reflected from A via invopop/jsonschema and down-converted to the
// simplified MCP shape. At call time the arguments are decoded into A,
// rejecting unknown fields unless WithToolAllowAdditionalProperties(true) was
// given; decode failures surface as in-band error results, never protocol
// errors.
func NewTool[A any](name string, fn func(ctx context.Context, session sessions.Session, w ToolResponseWriter, r *ToolRequest[A]) error, opts ...ToolOption) StaticTool {
	cfg := toolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	input := reflectToMCPInputSchema[A](cfg.allowAdditionalProperties)
	desc := mcp.Tool{
		Name:         name,
		Description:  cfg.description,
		InputSchema:  input,
		BaseMetadata: mcp.BaseMetadata{Meta: cfg.meta},
	}

	handler := func(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
		a, result := decodeToolArgs[A](req.Arguments, cfg.allowAdditionalProperties)
		if result != nil {
			return result, nil
		}
		w := newToolResponseWriter(ctx)
		r := &ToolRequest[A]{name: req.Name, raw: req.Arguments, args: a}
		if err := fn(ctx, session, w, r); err != nil {
			return nil, err
		}
		return w.Result(), nil
	}

	return StaticTool{Descriptor: desc, Handler: handler}
}

// NewToolWithOutput constructs a typed-input, typed-output tool. In addition
// to NewTool's behavior, it reflects O into the tool's outputSchema and
// attaches any SetStructured value as structuredContent on the result.
func NewToolWithOutput[A, O any](name string, fn func(ctx context.Context, session sessions.Session, w ToolResponseWriterTyped[O], r *ToolRequest[A]) error, opts ...ToolOption) StaticTool {
	cfg := toolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	input := reflectToMCPInputSchema[A](cfg.allowAdditionalProperties)
	outSchema := reflectToMCPOutputSchema[O]()
	desc := mcp.Tool{
		Name:         name,
		Description:  cfg.description,
		InputSchema:  input,
		OutputSchema: &outSchema,
		BaseMetadata: mcp.BaseMetadata{Meta: cfg.meta},
	}
	handler := func(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
		a, result := decodeToolArgs[A](req.Arguments, cfg.allowAdditionalProperties)
		if result != nil {
			return result, nil
		}
		baseWriter := newToolResponseWriter(ctx)
		tw := &toolResponseWriterTyped[O]{ToolResponseWriter: baseWriter}
		r := &ToolRequest[A]{name: req.Name, raw: req.Arguments, args: a}
		if err := fn(ctx, session, tw, r); err != nil {
			return nil, err
		}
		res := baseWriter.Result()
		if tw.structured != nil {
			// structuredContent is a JSON object on the wire; round-trip the
			// concrete value through a map to guarantee that shape.
			b, err := json.Marshal(tw.structured)
			if err == nil {
				var m map[string]any
				if err2 := json.Unmarshal(b, &m); err2 == nil {
					res.StructuredContent = m
				}
			}
		}
		return res, nil
	}
	return StaticTool{Descriptor: desc, Handler: handler}
}

// TypedTool wraps a strongly typed args function into a StaticTool, keeping
// the caller in control of the descriptor. Decoding is lenient; use NewTool
// for strict unknown-field rejection.
func TypedTool[A any](desc mcp.Tool, fn func(ctx context.Context, session sessions.Session, args A) (*mcp.CallToolResult, error)) StaticTool {
	return StaticTool{
		Descriptor: desc,
		Handler: func(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
			var a A
			if len(req.Arguments) > 0 {
				if err := json.Unmarshal(req.Arguments, &a); err != nil {
					return Errorf("invalid arguments: %v", err), nil
				}
			}
			return fn(ctx, session, a)
		},
	}
}

// decodeToolArgs decodes raw arguments into A. On failure it returns a
// non-nil in-band error result instead of an error.
func decodeToolArgs[A any](raw json.RawMessage, allowAdditional bool) (A, *mcp.CallToolResult) {
	var a A
	if len(raw) == 0 {
		return a, nil
	}
	if allowAdditional {
		if err := json.Unmarshal(raw, &a); err != nil {
			return a, Errorf("invalid arguments: %v", err)
		}
		return a, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return a, Errorf("invalid arguments: %v", err)
	}
	return a, nil
}

// ToolOption configures NewTool behavior.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description               string
	meta                      map[string]any
	allowAdditionalProperties bool // default false (strict)
}

// WithToolDescription sets the tool description used in listings.
func WithToolDescription(desc string) ToolOption {
	return func(c *toolConfig) { c.description = desc }
}

// WithToolMeta attaches _meta to the tool descriptor surfaced in listings.
func WithToolMeta(meta map[string]any) ToolOption {
	return func(c *toolConfig) { c.meta = meta }
}

// WithToolAllowAdditionalProperties controls whether unknown fields are
// allowed. When false (default), the generated schema sets
// additionalProperties=false and runtime decoding rejects unknown fields.
func WithToolAllowAdditionalProperties(allow bool) ToolOption {
	return func(c *toolConfig) { c.allowAdditionalProperties = allow }
}

// reflectToMCPInputSchema reflects a Go type A into a jsonschema.Schema and
// converts it to the simplified mcp.ToolInputSchema. The unknown-field policy
// surfaces via the AdditionalProperties flag on the returned schema.
func reflectToMCPInputSchema[A any](allowAdditional bool) mcp.ToolInputSchema {
	r := &jsonschema.Reflector{
		DoNotReference:            true, // inline defs
		ExpandedStruct:            true, // put struct at root
		AllowAdditionalProperties: allowAdditional,
	}
	s := r.Reflect(new(A))

	// Only object schemas map cleanly to the MCP shape. Anything else is
	// exposed as an empty object with the configured policy.
	if s == nil || s.Type != "object" {
		return mcp.ToolInputSchema{
			Type:                 "object",
			Properties:           map[string]mcp.SchemaProperty{},
			AdditionalProperties: allowAdditional,
		}
	}

	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toMCPProperty(el.Value)
		}
	}
	var required []string
	if len(s.Required) > 0 {
		required = append(required, s.Required...)
	}

	return mcp.ToolInputSchema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: allowAdditional,
	}
}

// reflectToMCPOutputSchema reflects a Go type O into an mcp.ToolOutputSchema.
func reflectToMCPOutputSchema[O any]() mcp.ToolOutputSchema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	s := r.Reflect(new(O))
	if s == nil || s.Type != "object" {
		return mcp.ToolOutputSchema{Type: "object", Properties: map[string]mcp.SchemaProperty{}}
	}
	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toMCPProperty(el.Value)
		}
	}
	var required []string
	if len(s.Required) > 0 {
		required = append(required, s.Required...)
	}
	return mcp.ToolOutputSchema{Type: "object", Properties: props, Required: required}
}

// toMCPProperty recursively maps a jsonschema.Schema to the simplified MCP
// SchemaProperty.
func toMCPProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Type == "array" && s.Items != nil {
		item := toMCPProperty(s.Items)
		p.Items = &item
	}
	if s.Type == "object" && s.Properties != nil {
		m := make(map[string]mcp.SchemaProperty, s.Properties.Len())
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			m[el.Key] = toMCPProperty(el.Value)
		}
		p.Properties = m
	}
	return p
}

// ToolsContainer owns a mutable, threadsafe set of tool descriptors and
// handlers. It is intended for servers that want to advertise a collection of
// tools and have the handler dispatch calls automatically. The embedded
// ChangeNotifier ticks whenever the set mutates.
type ToolsContainer struct {
	mu       sync.RWMutex
	tools    []mcp.Tool             // descriptors for listing
	handlers map[string]ToolHandler // name -> handler

	notifier ChangeNotifier

	pageSize int
}

// NewToolsContainer constructs a ToolsContainer holding the given tools.
func NewToolsContainer(defs ...StaticTool) *ToolsContainer {
	st := &ToolsContainer{pageSize: defaultPageSize}
	st.Replace(context.Background(), defs...)
	return st
}

// ProvideTools makes *ToolsContainer satisfy ToolsCapabilityProvider. It
// always returns itself with ok=true even when it holds zero tools; an empty
// container is a present-but-empty capability rather than an absent one.
func (st *ToolsContainer) ProvideTools(ctx context.Context, session sessions.Session) (ToolsCapability, bool, error) {
	return st, true, nil
}

// SetPageSize sets the pagination size used by ListTools. Non-positive values
// are ignored.
func (st *ToolsContainer) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	st.mu.Lock()
	st.pageSize = n
	st.mu.Unlock()
}

// Snapshot returns a copy of the current tool descriptors.
func (st *ToolsContainer) Snapshot() []mcp.Tool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]mcp.Tool, len(st.tools))
	copy(out, st.tools)
	return out
}

// Replace atomically replaces the entire tool set.
func (st *ToolsContainer) Replace(ctx context.Context, defs ...StaticTool) {
	st.mu.Lock()
	st.tools = make([]mcp.Tool, 0, len(defs))
	st.handlers = make(map[string]ToolHandler, len(defs))
	for _, d := range defs {
		// last write wins on duplicate names
		st.tools = append(st.tools, d.Descriptor)
		if d.Handler != nil {
			st.handlers[d.Descriptor.Name] = d.Handler
		}
	}
	st.mu.Unlock()
	_ = st.notifier.Notify(ctx)
}

// Add registers a new tool unless the name is already taken. Returns true if
// added.
func (st *ToolsContainer) Add(ctx context.Context, def StaticTool) bool {
	st.mu.Lock()
	if st.handlers == nil {
		st.handlers = make(map[string]ToolHandler)
	}
	name := def.Descriptor.Name
	for _, t := range st.tools {
		if t.Name == name {
			st.mu.Unlock()
			return false
		}
	}
	st.tools = append(st.tools, def.Descriptor)
	if def.Handler != nil {
		st.handlers[name] = def.Handler
	}
	st.mu.Unlock()
	_ = st.notifier.Notify(ctx)
	return true
}

// Remove removes a tool by name. Returns true if removed.
func (st *ToolsContainer) Remove(ctx context.Context, name string) bool {
	st.mu.Lock()
	n := 0
	removed := false
	for _, t := range st.tools {
		if t.Name == name {
			removed = true
			continue
		}
		st.tools[n] = t
		n++
	}
	if removed {
		st.tools = st.tools[:n]
		delete(st.handlers, name)
	}
	st.mu.Unlock()
	if removed {
		_ = st.notifier.Notify(ctx)
	}
	return removed
}

// Call dispatches a request to the named tool if present. Unknown names
// return an error wrapping ErrToolNotFound; use CallTool for the in-band
// conversion.
func (st *ToolsContainer) Call(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
	if req == nil || req.Name == "" {
		return nil, fmt.Errorf("invalid tool request: missing name")
	}
	st.mu.RLock()
	h := st.handlers[req.Name]
	st.mu.RUnlock()
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, req.Name)
	}
	return h(ctx, session, req)
}

// Subscriber returns a channel that ticks whenever the tool set changes.
func (st *ToolsContainer) Subscriber() <-chan struct{} {
	return st.notifier.Subscriber()
}

// ListTools implements ToolsCapability with internal pagination over a
// stable snapshot.
func (st *ToolsContainer) ListTools(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Tool], error) {
	st.mu.RLock()
	all := make([]mcp.Tool, len(st.tools))
	copy(all, st.tools)
	pageSize := st.pageSize
	st.mu.RUnlock()

	return pageSlice(all, pageSize, cursor)
}

// CallTool implements ToolsCapability. A call naming an unknown tool is a
// tool-level failure, not a protocol one: the result carries isError with an
// explanatory text block and the request still succeeds at the JSON-RPC
// layer.
func (st *ToolsContainer) CallTool(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
	res, err := st.Call(ctx, session, req)
	if errors.Is(err, ErrToolNotFound) {
		return UnimplementedToolResult(req.Name), nil
	}
	return res, err
}

// TextResult builds a success CallToolResult holding a single text block.
func TextResult(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: s}}}
}

// Errorf returns an error CallToolResult with a single text block and
// IsError=true.
func Errorf(format string, a ...any) *mcp.CallToolResult {
	msg := fmt.Sprintf(format, a...)
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: msg}}, IsError: true}
}

// UnimplementedToolResult is the in-band result reported when a client calls
// a tool name the server does not implement.
func UnimplementedToolResult(name string) *mcp.CallToolResult {
	return Errorf("Error: Tool '%s' not implemented by this server.", name)
}
