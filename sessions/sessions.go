// Package sessions defines the session abstraction shared by the transport
// and server capability code. A session represents one connected client: its
// identity, the negotiated protocol version, and the client implementation
// info exchanged during initialize.
//
// The stdio transport owns exactly one session per process. Capability code
// receives the session on every call and SHOULD treat it as the boundary for
// tenancy and resource visibility; that keeps the same capability
// implementations usable behind transports that host many sessions.
package sessions

// Session represents a negotiated MCP session. Implementations MUST be safe
// for concurrent use.
type Session interface {
	SessionID() string
	UserID() string
	// ProtocolVersion is the protocol version the server advertised for this
	// session. It is empty until the initialize exchange completes.
	ProtocolVersion() string
	// ClientInfo reports the client implementation details from initialize.
	// ok is false before the client has identified itself.
	ClientInfo() (info ClientInfo, ok bool)
}

// ClientInfo identifies the client connecting to the server.
type ClientInfo struct {
	Name    string
	Version string
}
