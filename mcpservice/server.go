package mcpservice

import (
	"context"

	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

// ServerOption configures a concrete ServerCapabilities implementation.
type ServerOption func(*server)

type server struct {
	info         ServerInfoProvider
	protocol     ProtocolVersionProvider
	instructions InstructionsProvider
	tools        ToolsCapabilityProvider
	resources    ResourcesCapabilityProvider
	prompts      PromptsCapabilityProvider
	logging      LoggingCapabilityProvider
}

// NewServer builds a ServerCapabilities from providers. Every option accepts
// a provider; pass containers directly (they provide themselves) or lift
// fixed values with the StaticX helpers. Capabilities with no provider are
// absent.
func NewServer(opts ...ServerOption) ServerCapabilities {
	s := &server{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithServerInfo sets the provider for implementation info.
func WithServerInfo(p ServerInfoProvider) ServerOption {
	return func(s *server) { s.info = p }
}

// WithProtocolVersion sets the provider for the advertised protocol revision.
func WithProtocolVersion(p ProtocolVersionProvider) ServerOption {
	return func(s *server) { s.protocol = p }
}

// WithInstructions sets the provider for initialize instructions.
func WithInstructions(p InstructionsProvider) ServerOption {
	return func(s *server) { s.instructions = p }
}

// WithToolsCapability wires the tools capability provider.
func WithToolsCapability(p ToolsCapabilityProvider) ServerOption {
	return func(s *server) { s.tools = p }
}

// WithResourcesCapability wires the resources capability provider.
func WithResourcesCapability(p ResourcesCapabilityProvider) ServerOption {
	return func(s *server) { s.resources = p }
}

// WithPromptsCapability wires the prompts capability provider.
func WithPromptsCapability(p PromptsCapabilityProvider) ServerOption {
	return func(s *server) { s.prompts = p }
}

// WithLoggingCapability wires the logging capability provider.
func WithLoggingCapability(p LoggingCapabilityProvider) ServerOption {
	return func(s *server) { s.logging = p }
}

// GetServerInfo implements ServerCapabilities.
func (s *server) GetServerInfo(ctx context.Context, session sessions.Session) (mcp.ImplementationInfo, error) {
	if s.info == nil {
		// Zero value if not configured; the handler may still proceed.
		return mcp.ImplementationInfo{}, nil
	}
	info, ok, err := s.info.ProvideServerInfo(ctx, session)
	if err != nil || !ok {
		return mcp.ImplementationInfo{}, err
	}
	return info, nil
}

// GetPreferredProtocolVersion implements ServerCapabilities.
func (s *server) GetPreferredProtocolVersion(ctx context.Context) (string, bool, error) {
	if s.protocol == nil {
		return "", false, nil
	}
	return s.protocol.ProvidePreferredProtocolVersion(ctx)
}

// GetInstructions implements ServerCapabilities.
func (s *server) GetInstructions(ctx context.Context, session sessions.Session) (string, bool, error) {
	if s.instructions == nil {
		return "", false, nil
	}
	return s.instructions.ProvideInstructions(ctx, session)
}

// GetToolsCapability implements ServerCapabilities.
func (s *server) GetToolsCapability(ctx context.Context, session sessions.Session) (ToolsCapability, bool, error) {
	if s.tools == nil {
		return nil, false, nil
	}
	return s.tools.ProvideTools(ctx, session)
}

// GetResourcesCapability implements ServerCapabilities.
func (s *server) GetResourcesCapability(ctx context.Context, session sessions.Session) (ResourcesCapability, bool, error) {
	if s.resources == nil {
		return nil, false, nil
	}
	return s.resources.ProvideResources(ctx, session)
}

// GetPromptsCapability implements ServerCapabilities.
func (s *server) GetPromptsCapability(ctx context.Context, session sessions.Session) (PromptsCapability, bool, error) {
	if s.prompts == nil {
		return nil, false, nil
	}
	return s.prompts.ProvidePrompts(ctx, session)
}

// GetLoggingCapability implements ServerCapabilities.
func (s *server) GetLoggingCapability(ctx context.Context, session sessions.Session) (LoggingCapability, bool, error) {
	if s.logging == nil {
		return nil, false, nil
	}
	return s.logging.ProvideLogging(ctx, session)
}
