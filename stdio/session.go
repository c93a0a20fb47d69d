package stdio

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

// stdioSession is the single ephemeral session backing one stdio connection.
// It is created when Serve starts and lives until the process exits; the
// initialize handshake fills in the negotiated protocol version and client
// info after the fact.
type stdioSession struct {
	sessionID string
	userID    string

	mu              sync.RWMutex
	protocolVersion string
	clientInfo      *sessions.ClientInfo
	initialized     bool
}

func newStdioSession(userID string) *stdioSession {
	return &stdioSession{
		sessionID:       uuid.NewString(),
		userID:          userID,
		protocolVersion: mcp.LatestProtocolVersion,
	}
}

func (s *stdioSession) SessionID() string { return s.sessionID }
func (s *stdioSession) UserID() string    { return s.userID }

func (s *stdioSession) ProtocolVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.protocolVersion
}

func (s *stdioSession) ClientInfo() (sessions.ClientInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.clientInfo == nil {
		return sessions.ClientInfo{}, false
	}
	return *s.clientInfo, true
}

// RecordInitialize stores the negotiated protocol version and the client's
// implementation info from the initialize request.
func (s *stdioSession) RecordInitialize(protocolVersion string, info sessions.ClientInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.protocolVersion = protocolVersion
	s.clientInfo = &info
}

// MarkInitialized records receipt of the initialized notification. The
// handshake is advisory: requests are served either way, the flag only
// feeds the per-message log.
func (s *stdioSession) MarkInitialized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initialized = true
}

func (s *stdioSession) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}
