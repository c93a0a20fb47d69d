package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mediar-ai/mcp-stdio-go/internal/jsonrpc"
	"github.com/mediar-ai/mcp-stdio-go/internal/logctx"
	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/mcpservice"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

// errCapabilityUnsupported is returned by capability lookups when the server
// does not expose the capability a method needs. It surfaces on the wire as
// a method-not-found error.
var errCapabilityUnsupported = errors.New("capability not supported")

// clientParamErrs are capability failures caused by the arguments the client
// sent rather than by the server. They map to an invalid-params error
// instead of an internal one.
var clientParamErrs = []error{
	mcpservice.ErrInvalidCursor,
	mcpservice.ErrToolNotFound,
	mcpservice.ErrResourceNotFound,
	mcpservice.ErrPromptNotFound,
	mcpservice.ErrInvalidLoggingLevel,
}

// paramsError marks a failure to extract or validate a request's params
// member. The detail becomes the suffix of the wire error message.
type paramsError struct{ detail string }

func (e *paramsError) Error() string { return e.detail }

const (
	paramsRequired = true
	paramsOptional = false
)

// requestHandler produces the result payload for one JSON-RPC method. A
// returned error is translated into a wire error by HandleRequest; handlers
// never write anything themselves.
type requestHandler func(ctx context.Context, sess sessions.Session, rawParams json.RawMessage) (any, error)

type notificationHandler func(ctx context.Context, sess sessions.Session, note *jsonrpc.Request)

// InitializeRecorder is implemented by session handles that track the
// initialize handshake. The engine records negotiated state on sessions that
// support it; sessions without it are served statelessly.
type InitializeRecorder interface {
	RecordInitialize(protocolVersion string, info sessions.ClientInfo)
	MarkInitialized()
}

// Engine routes JSON-RPC requests and notifications to the configured
// ServerCapabilities. It is transport-agnostic: the stdio handler feeds it
// one classified message at a time and writes whatever response it returns.
// The method tables are built once at construction, so adding a method is a
// registration rather than a new branch in a dispatch chain.
type Engine struct {
	srv mcpservice.ServerCapabilities
	log *slog.Logger

	requests      map[string]requestHandler
	notifications map[string]notificationHandler
}

func NewEngine(srv mcpservice.ServerCapabilities, opts ...EngineOption) *Engine {
	e := &Engine{
		srv: srv,
		log: slog.Default(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	e.requests = map[string]requestHandler{
		string(mcp.InitializeMethod):             e.handleInitialize,
		string(mcp.PingMethod):                   e.handlePing,
		string(mcp.ToolsListMethod):              e.handleToolsList,
		string(mcp.ToolsCallMethod):              e.handleToolsCall,
		string(mcp.ResourcesListMethod):          e.handleResourcesList,
		string(mcp.ResourcesTemplatesListMethod): e.handleResourcesTemplatesList,
		string(mcp.ResourcesReadMethod):          e.handleResourcesRead,
		string(mcp.PromptsListMethod):            e.handlePromptsList,
		string(mcp.PromptsGetMethod):             e.handlePromptsGet,
		string(mcp.LoggingSetLevelMethod):        e.handleSetLoggingLevel,
	}
	e.notifications = map[string]notificationHandler{
		string(mcp.InitializedNotificationMethod):         e.handleInitialized,
		string(mcp.LegacyInitializedNotificationMethod):   e.handleInitialized,
		string(mcp.CancelledNotificationMethod):           e.handleCancelled,
		string(mcp.LegacyCancelRequestNotificationMethod): e.handleCancelled,
	}

	return e
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger for the Engine.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// HandleRequest serves one JSON-RPC request and always produces a response.
// Failures of every kind fold into an error response so the transport keeps
// its one-request, one-response contract.
func (e *Engine) HandleRequest(ctx context.Context, sess sessions.Session, req *jsonrpc.Request) *jsonrpc.Response {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	h, ok := e.requests[req.Method]
	if !ok {
		log.InfoContext(ctx, "engine.handle_request.unsupported", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}

	result, err := h(ctx, sess, req.Params)
	if err != nil {
		return e.errorResponse(ctx, log, start, req, err)
	}

	res, err := jsonrpc.NewResultResponse(req.ID, result)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, fmt.Sprintf("Internal error during %s: %s", req.Method, err), nil)
	}

	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	return res
}

// errorResponse translates a handler error into the wire error taxonomy.
// Handlers control the exact code by returning a *jsonrpc.Error; otherwise
// the error class decides between method-not-found, invalid-params, and
// internal.
func (e *Engine) errorResponse(ctx context.Context, log *slog.Logger, start time.Time, req *jsonrpc.Request, err error) *jsonrpc.Response {
	durMS := slog.Int64("dur_ms", time.Since(start).Milliseconds())

	var rpcErr *jsonrpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case jsonrpc.ErrorCodeInvalidParams:
			log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", rpcErr.Message), durMS)
		case jsonrpc.ErrorCodeMethodNotFound:
			log.InfoContext(ctx, "engine.handle_request.unsupported", durMS)
		default:
			log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", rpcErr.Message), durMS)
		}
		return jsonrpc.NewErrorResponse(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}

	if errors.Is(err, errCapabilityUnsupported) {
		log.InfoContext(ctx, "engine.handle_request.unsupported", durMS)
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil)
	}

	if detail, ok := invalidParamsDetail(err); ok {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", detail), durMS)
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, fmt.Sprintf("Invalid params for %s: %s", req.Method, detail), nil)
	}

	log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()), durMS)
	return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, fmt.Sprintf("Internal error during %s: %s", req.Method, err), nil)
}

func invalidParamsDetail(err error) (string, bool) {
	var pe *paramsError
	if errors.As(err, &pe) {
		return pe.detail, true
	}
	for _, sentinel := range clientParamErrs {
		if errors.Is(err, sentinel) {
			return err.Error(), true
		}
	}
	return "", false
}

// HandleNotification processes a client notification. Notifications never
// produce output; unknown methods and handler failures are logged only.
func (e *Engine) HandleNotification(ctx context.Context, sess sessions.Session, note *jsonrpc.Request) {
	log := e.log.With(slog.String("method", note.Method))

	h, ok := e.notifications[note.Method]
	if !ok {
		log.InfoContext(ctx, "engine.handle_notification.unsupported")
		return
	}

	h(ctx, sess, note)
	log.InfoContext(ctx, "engine.handle_notification.ok")
}

// decodeParams extracts the params member into T. A missing or null params
// member is an error when required and decodes to the zero value otherwise.
func decodeParams[T any](rawParams json.RawMessage, required bool) (*T, error) {
	var v T
	if len(rawParams) == 0 || string(rawParams) == "null" {
		if required {
			return nil, &paramsError{detail: "missing params field"}
		}
		return &v, nil
	}
	if err := json.Unmarshal(rawParams, &v); err != nil {
		return nil, &paramsError{detail: err.Error()}
	}
	return &v, nil
}

// cursorPtr maps the wire cursor ("" means first page) to the capability
// representation (nil means first page).
func cursorPtr(cursor string) *string {
	if cursor == "" {
		return nil
	}
	return &cursor
}

func (e *Engine) toolsCapability(ctx context.Context, sess sessions.Session) (mcpservice.ToolsCapability, error) {
	cap, ok, err := e.srv.GetToolsCapability(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("get tools capability: %w", err)
	}
	if !ok || cap == nil {
		return nil, errCapabilityUnsupported
	}
	return cap, nil
}

func (e *Engine) resourcesCapability(ctx context.Context, sess sessions.Session) (mcpservice.ResourcesCapability, error) {
	cap, ok, err := e.srv.GetResourcesCapability(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("get resources capability: %w", err)
	}
	if !ok || cap == nil {
		return nil, errCapabilityUnsupported
	}
	return cap, nil
}

func (e *Engine) promptsCapability(ctx context.Context, sess sessions.Session) (mcpservice.PromptsCapability, error) {
	cap, ok, err := e.srv.GetPromptsCapability(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("get prompts capability: %w", err)
	}
	if !ok || cap == nil {
		return nil, errCapabilityUnsupported
	}
	return cap, nil
}

func (e *Engine) loggingCapability(ctx context.Context, sess sessions.Session) (mcpservice.LoggingCapability, error) {
	cap, ok, err := e.srv.GetLoggingCapability(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("get logging capability: %w", err)
	}
	if !ok || cap == nil {
		return nil, errCapabilityUnsupported
	}
	return cap, nil
}

func (e *Engine) handleInitialize(ctx context.Context, sess sessions.Session, rawParams json.RawMessage) (any, error) {
	params, err := decodeParams[mcp.InitializeRequest](rawParams, paramsRequired)
	if err != nil {
		return nil, err
	}

	version := params.ProtocolVersion
	if v, ok, err := e.srv.GetPreferredProtocolVersion(ctx); err != nil {
		return nil, fmt.Errorf("get preferred protocol version: %w", err)
	} else if ok && v != "" {
		version = v
	} else if !mcp.IsSupportedProtocolVersion(version) {
		version = mcp.LatestProtocolVersion
	}
	if version != params.ProtocolVersion {
		e.log.WarnContext(ctx, "engine.initialize.version_fallback",
			slog.String("requested", params.ProtocolVersion),
			slog.String("negotiated", version),
		)
	}

	if rec, ok := sess.(InitializeRecorder); ok {
		rec.RecordInitialize(version, sessions.ClientInfo{
			Name:    params.ClientInfo.Name,
			Version: params.ClientInfo.Version,
		})
	}

	serverInfo, err := e.srv.GetServerInfo(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("get server info: %w", err)
	}

	res := &mcp.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    mcp.ServerCapabilities{},
		ServerInfo:      serverInfo,
	}

	if instr, ok, err := e.srv.GetInstructions(ctx, sess); err != nil {
		return nil, fmt.Errorf("get instructions: %w", err)
	} else if ok {
		res.Instructions = instr
	}

	if _, ok, err := e.srv.GetToolsCapability(ctx, sess); err != nil {
		return nil, fmt.Errorf("get tools capability: %w", err)
	} else if ok {
		res.Capabilities.Tools = &struct {
			ListChanged bool `json:"listChanged,omitzero"`
		}{}
	}

	if _, ok, err := e.srv.GetResourcesCapability(ctx, sess); err != nil {
		return nil, fmt.Errorf("get resources capability: %w", err)
	} else if ok {
		res.Capabilities.Resources = &struct {
			ListChanged bool `json:"listChanged,omitzero"`
			Subscribe   bool `json:"subscribe,omitzero"`
		}{}
	}

	if _, ok, err := e.srv.GetPromptsCapability(ctx, sess); err != nil {
		return nil, fmt.Errorf("get prompts capability: %w", err)
	} else if ok {
		res.Capabilities.Prompts = &struct {
			ListChanged bool `json:"listChanged,omitzero"`
		}{}
	}

	if _, ok, err := e.srv.GetLoggingCapability(ctx, sess); err != nil {
		return nil, fmt.Errorf("get logging capability: %w", err)
	} else if ok {
		res.Capabilities.Logging = &struct{}{}
	}

	e.log.InfoContext(ctx, "engine.initialize.ok",
		slog.String("client_name", params.ClientInfo.Name),
		slog.String("client_version", params.ClientInfo.Version),
		slog.String("protocol_version", version),
	)

	return res, nil
}

func (e *Engine) handlePing(ctx context.Context, sess sessions.Session, rawParams json.RawMessage) (any, error) {
	// Params, when present, are ignored.
	return &mcp.EmptyResult{}, nil
}

func (e *Engine) handleToolsList(ctx context.Context, sess sessions.Session, rawParams json.RawMessage) (any, error) {
	params, err := decodeParams[mcp.ListToolsRequest](rawParams, paramsOptional)
	if err != nil {
		return nil, err
	}

	cap, err := e.toolsCapability(ctx, sess)
	if err != nil {
		return nil, err
	}

	page, err := cap.ListTools(ctx, sess, cursorPtr(params.Cursor))
	if err != nil {
		return nil, err
	}

	res := &mcp.ListToolsResult{Tools: page.Items}
	if res.Tools == nil {
		res.Tools = make([]mcp.Tool, 0)
	}
	if page.NextCursor != nil {
		res.NextCursor = *page.NextCursor
	}
	return res, nil
}

func (e *Engine) handleToolsCall(ctx context.Context, sess sessions.Session, rawParams json.RawMessage) (any, error) {
	params, err := decodeParams[mcp.CallToolRequestReceived](rawParams, paramsRequired)
	if err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, &paramsError{detail: "missing tool name"}
	}

	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: params.Name})

	cap, err := e.toolsCapability(ctx, sess)
	if err != nil {
		return nil, err
	}

	res, err := cap.CallTool(ctx, sess, params)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("tools capability returned no result")
	}
	return res, nil
}

func (e *Engine) handleResourcesList(ctx context.Context, sess sessions.Session, rawParams json.RawMessage) (any, error) {
	params, err := decodeParams[mcp.ListResourcesRequest](rawParams, paramsOptional)
	if err != nil {
		return nil, err
	}

	cap, err := e.resourcesCapability(ctx, sess)
	if err != nil {
		return nil, err
	}

	page, err := cap.ListResources(ctx, sess, cursorPtr(params.Cursor))
	if err != nil {
		return nil, err
	}

	res := &mcp.ListResourcesResult{Resources: page.Items}
	if res.Resources == nil {
		res.Resources = make([]mcp.Resource, 0)
	}
	if page.NextCursor != nil {
		res.NextCursor = *page.NextCursor
	}
	return res, nil
}

func (e *Engine) handleResourcesTemplatesList(ctx context.Context, sess sessions.Session, rawParams json.RawMessage) (any, error) {
	params, err := decodeParams[mcp.ListResourceTemplatesRequest](rawParams, paramsOptional)
	if err != nil {
		return nil, err
	}

	cap, err := e.resourcesCapability(ctx, sess)
	if err != nil {
		return nil, err
	}

	page, err := cap.ListResourceTemplates(ctx, sess, cursorPtr(params.Cursor))
	if err != nil {
		return nil, err
	}

	res := &mcp.ListResourceTemplatesResult{ResourceTemplates: page.Items}
	if res.ResourceTemplates == nil {
		res.ResourceTemplates = make([]mcp.ResourceTemplate, 0)
	}
	if page.NextCursor != nil {
		res.NextCursor = *page.NextCursor
	}
	return res, nil
}

func (e *Engine) handleResourcesRead(ctx context.Context, sess sessions.Session, rawParams json.RawMessage) (any, error) {
	params, err := decodeParams[mcp.ReadResourceRequest](rawParams, paramsRequired)
	if err != nil {
		return nil, err
	}
	if params.URI == "" {
		return nil, &paramsError{detail: "missing uri"}
	}

	cap, err := e.resourcesCapability(ctx, sess)
	if err != nil {
		return nil, err
	}

	contents, err := cap.ReadResource(ctx, sess, params.URI)
	if err != nil {
		return nil, err
	}

	res := &mcp.ReadResourceResult{Contents: contents}
	if res.Contents == nil {
		res.Contents = make([]mcp.ResourceContents, 0)
	}
	return res, nil
}

func (e *Engine) handlePromptsList(ctx context.Context, sess sessions.Session, rawParams json.RawMessage) (any, error) {
	params, err := decodeParams[mcp.ListPromptsRequest](rawParams, paramsOptional)
	if err != nil {
		return nil, err
	}

	cap, err := e.promptsCapability(ctx, sess)
	if err != nil {
		return nil, err
	}

	page, err := cap.ListPrompts(ctx, sess, cursorPtr(params.Cursor))
	if err != nil {
		return nil, err
	}

	res := &mcp.ListPromptsResult{Prompts: page.Items}
	if res.Prompts == nil {
		res.Prompts = make([]mcp.Prompt, 0)
	}
	if page.NextCursor != nil {
		res.NextCursor = *page.NextCursor
	}
	return res, nil
}

func (e *Engine) handlePromptsGet(ctx context.Context, sess sessions.Session, rawParams json.RawMessage) (any, error) {
	params, err := decodeParams[mcp.GetPromptRequestReceived](rawParams, paramsRequired)
	if err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, &paramsError{detail: "missing name"}
	}

	cap, err := e.promptsCapability(ctx, sess)
	if err != nil {
		return nil, err
	}

	res, err := cap.GetPrompt(ctx, sess, params)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, fmt.Errorf("prompts capability returned no result")
	}
	if res.Messages == nil {
		res.Messages = make([]mcp.PromptMessage, 0)
	}
	return res, nil
}

func (e *Engine) handleSetLoggingLevel(ctx context.Context, sess sessions.Session, rawParams json.RawMessage) (any, error) {
	params, err := decodeParams[mcp.SetLevelRequest](rawParams, paramsRequired)
	if err != nil {
		return nil, err
	}
	if params.Level == "" {
		return nil, &paramsError{detail: "missing level"}
	}

	cap, err := e.loggingCapability(ctx, sess)
	if err != nil {
		return nil, err
	}

	if err := cap.SetLevel(ctx, sess, params.Level); err != nil {
		return nil, err
	}
	return &mcp.EmptyResult{}, nil
}

func (e *Engine) handleInitialized(ctx context.Context, sess sessions.Session, note *jsonrpc.Request) {
	if rec, ok := sess.(InitializeRecorder); ok {
		rec.MarkInitialized()
	}
	e.log.InfoContext(ctx, "engine.session.initialized")
}

func (e *Engine) handleCancelled(ctx context.Context, sess sessions.Session, note *jsonrpc.Request) {
	var params mcp.CancelledNotification
	if len(note.Params) > 0 {
		if err := json.Unmarshal(note.Params, &params); err != nil {
			e.log.DebugContext(ctx, "engine.cancel.unparseable", slog.String("err", err.Error()))
			return
		}
	}

	// Messages are served to completion one at a time, so by the time a
	// cancellation arrives the request it names has already been answered.
	e.log.InfoContext(ctx, "engine.cancel.ignored",
		slog.String("request_id", params.RequestID),
		slog.String("reason", params.Reason),
	)
}
