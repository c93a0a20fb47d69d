package mcpservice

import (
	"context"
	"fmt"

	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

// Provider interfaces and adapter function types. Each returns (value, ok,
// error) where ok distinguishes absence (false) from presence (true) even if
// the underlying value may be empty. Containers in this package act as their
// own providers, so they can be passed to the server options directly; the
// StaticX helpers lift plain values into providers for everything else.

// ServerInfoProvider yields implementation metadata. Typically static; use a
// function provider only if you need session-specific branding.
type ServerInfoProvider interface {
	ProvideServerInfo(ctx context.Context, session sessions.Session) (mcp.ImplementationInfo, bool, error)
}

// ServerInfoProviderFunc adapts a function to a ServerInfoProvider.
type ServerInfoProviderFunc func(ctx context.Context, session sessions.Session) (mcp.ImplementationInfo, bool, error)

func (f ServerInfoProviderFunc) ProvideServerInfo(ctx context.Context, s sessions.Session) (mcp.ImplementationInfo, bool, error) {
	return f(ctx, s)
}

// ProtocolVersionProvider yields the protocol revision the server advertises
// during initialize. The server states its own revision regardless of what
// the client requested; a mismatch is the client's to resolve.
type ProtocolVersionProvider interface {
	ProvidePreferredProtocolVersion(ctx context.Context) (string, bool, error)
}

// ProtocolVersionProviderFunc adapts a function to a ProtocolVersionProvider.
type ProtocolVersionProviderFunc func(ctx context.Context) (string, bool, error)

func (f ProtocolVersionProviderFunc) ProvidePreferredProtocolVersion(ctx context.Context) (string, bool, error) {
	return f(ctx)
}

// InstructionsProvider supplies optional human-readable instructions returned
// in initialize. Return ok=false to omit the field.
type InstructionsProvider interface {
	ProvideInstructions(ctx context.Context, session sessions.Session) (string, bool, error)
}

// InstructionsProviderFunc adapts a function to an InstructionsProvider.
type InstructionsProviderFunc func(ctx context.Context, session sessions.Session) (string, bool, error)

func (f InstructionsProviderFunc) ProvideInstructions(ctx context.Context, s sessions.Session) (string, bool, error) {
	return f(ctx, s)
}

// ToolsCapabilityProvider yields a ToolsCapability (list + invoke). ok=false
// suppresses the entire capability.
type ToolsCapabilityProvider interface {
	ProvideTools(ctx context.Context, session sessions.Session) (ToolsCapability, bool, error)
}

// ToolsCapabilityProviderFunc adapts a function to a ToolsCapabilityProvider.
type ToolsCapabilityProviderFunc func(ctx context.Context, session sessions.Session) (ToolsCapability, bool, error)

func (f ToolsCapabilityProviderFunc) ProvideTools(ctx context.Context, s sessions.Session) (ToolsCapability, bool, error) {
	return f(ctx, s)
}

// ResourcesCapabilityProvider yields a ResourcesCapability (list/read). Use a
// provider func for per-session ACL or tenant scoping.
type ResourcesCapabilityProvider interface {
	ProvideResources(ctx context.Context, session sessions.Session) (ResourcesCapability, bool, error)
}

// ResourcesCapabilityProviderFunc adapts a function to a
// ResourcesCapabilityProvider.
type ResourcesCapabilityProviderFunc func(ctx context.Context, session sessions.Session) (ResourcesCapability, bool, error)

func (f ResourcesCapabilityProviderFunc) ProvideResources(ctx context.Context, s sessions.Session) (ResourcesCapability, bool, error) {
	return f(ctx, s)
}

// PromptsCapabilityProvider yields a PromptsCapability (named prompt
// templates).
type PromptsCapabilityProvider interface {
	ProvidePrompts(ctx context.Context, session sessions.Session) (PromptsCapability, bool, error)
}

// PromptsCapabilityProviderFunc adapts a function to a
// PromptsCapabilityProvider.
type PromptsCapabilityProviderFunc func(ctx context.Context, session sessions.Session) (PromptsCapability, bool, error)

func (f PromptsCapabilityProviderFunc) ProvidePrompts(ctx context.Context, s sessions.Session) (PromptsCapability, bool, error) {
	return f(ctx, s)
}

// LoggingCapabilityProvider yields logging/setLevel support.
type LoggingCapabilityProvider interface {
	ProvideLogging(ctx context.Context, session sessions.Session) (LoggingCapability, bool, error)
}

// LoggingCapabilityProviderFunc adapts a function to a
// LoggingCapabilityProvider.
type LoggingCapabilityProviderFunc func(ctx context.Context, session sessions.Session) (LoggingCapability, bool, error)

func (f LoggingCapabilityProviderFunc) ProvideLogging(ctx context.Context, s sessions.Session) (LoggingCapability, bool, error) {
	return f(ctx, s)
}

// ServerInfoOption configures optional fields on the server's implementation
// info.
type ServerInfoOption func(*mcp.ImplementationInfo)

// WithServerInfoTitle sets the optional human friendly title.
func WithServerInfoTitle(title string) ServerInfoOption {
	return func(info *mcp.ImplementationInfo) { info.Title = title }
}

// StaticServerInfo returns a provider that always supplies the same
// implementation info.
func StaticServerInfo(name, version string, opts ...ServerInfoOption) ServerInfoProvider {
	info := mcp.ImplementationInfo{Name: name, Version: version}
	for _, opt := range opts {
		if opt != nil {
			opt(&info)
		}
	}
	return ServerInfoProviderFunc(func(context.Context, sessions.Session) (mcp.ImplementationInfo, bool, error) {
		return info, true, nil
	})
}

// StaticProtocolVersion pins the advertised protocol revision. Revisions this
// implementation does not know are reported as an error at initialize time
// rather than surfacing an impossible advertisement to clients.
func StaticProtocolVersion(v string) ProtocolVersionProvider {
	if v == "" {
		return ProtocolVersionProviderFunc(func(context.Context) (string, bool, error) { return "", false, nil })
	}
	if !mcp.IsSupportedProtocolVersion(v) {
		return ProtocolVersionProviderFunc(func(context.Context) (string, bool, error) {
			return "", false, fmt.Errorf("unsupported protocol version %q", v)
		})
	}
	return ProtocolVersionProviderFunc(func(context.Context) (string, bool, error) { return v, true, nil })
}

// StaticInstructions returns a provider for fixed instructions text. An empty
// string omits the field.
func StaticInstructions(s string) InstructionsProvider {
	return InstructionsProviderFunc(func(context.Context, sessions.Session) (string, bool, error) { return s, s != "", nil })
}

// StaticTools lifts a fixed ToolsCapability into a provider.
func StaticTools(cap ToolsCapability) ToolsCapabilityProvider {
	if cap == nil {
		return ToolsCapabilityProviderFunc(func(context.Context, sessions.Session) (ToolsCapability, bool, error) { return nil, false, nil })
	}
	return ToolsCapabilityProviderFunc(func(context.Context, sessions.Session) (ToolsCapability, bool, error) { return cap, true, nil })
}

// StaticResources lifts a fixed ResourcesCapability into a provider.
func StaticResources(cap ResourcesCapability) ResourcesCapabilityProvider {
	if cap == nil {
		return ResourcesCapabilityProviderFunc(func(context.Context, sessions.Session) (ResourcesCapability, bool, error) { return nil, false, nil })
	}
	return ResourcesCapabilityProviderFunc(func(context.Context, sessions.Session) (ResourcesCapability, bool, error) { return cap, true, nil })
}

// StaticPrompts lifts a fixed PromptsCapability into a provider.
func StaticPrompts(cap PromptsCapability) PromptsCapabilityProvider {
	if cap == nil {
		return PromptsCapabilityProviderFunc(func(context.Context, sessions.Session) (PromptsCapability, bool, error) { return nil, false, nil })
	}
	return PromptsCapabilityProviderFunc(func(context.Context, sessions.Session) (PromptsCapability, bool, error) { return cap, true, nil })
}

// StaticLogging lifts a fixed LoggingCapability into a provider.
func StaticLogging(cap LoggingCapability) LoggingCapabilityProvider {
	if cap == nil {
		return LoggingCapabilityProviderFunc(func(context.Context, sessions.Session) (LoggingCapability, bool, error) { return nil, false, nil })
	}
	return LoggingCapabilityProviderFunc(func(context.Context, sessions.Session) (LoggingCapability, bool, error) { return cap, true, nil })
}
