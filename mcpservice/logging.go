package mcpservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

// ErrInvalidLoggingLevel indicates the provided level is not one of the
// protocol-defined LoggingLevel values. The stdio handler surfaces it to
// clients as an invalid-params error.
var ErrInvalidLoggingLevel = errors.New("invalid logging level")

// NewSlogLevelVarLogging returns a LoggingCapability that maps MCP
// LoggingLevel values onto a slog.LevelVar. Paired with handlers created from
// the same LevelVar, logging/setLevel adjusts the process log level.
func NewSlogLevelVarLogging(lv *slog.LevelVar) LoggingCapability {
	return &slogLevelVarLogging{lv: lv}
}

type slogLevelVarLogging struct{ lv *slog.LevelVar }

// ProvideLogging implements LoggingCapabilityProvider.
func (l *slogLevelVarLogging) ProvideLogging(ctx context.Context, session sessions.Session) (LoggingCapability, bool, error) {
	if l == nil {
		return nil, false, nil
	}
	return l, true, nil
}

func (l *slogLevelVarLogging) SetLevel(ctx context.Context, _ sessions.Session, level mcp.LoggingLevel) error {
	if l == nil || l.lv == nil {
		return nil
	}
	if !mcp.IsValidLoggingLevel(level) {
		return ErrInvalidLoggingLevel
	}
	var slogLevel slog.Level
	switch level {
	case mcp.LoggingLevelDebug:
		slogLevel = slog.LevelDebug
	case mcp.LoggingLevelInfo, mcp.LoggingLevelNotice:
		// slog has no notice level
		slogLevel = slog.LevelInfo
	case mcp.LoggingLevelWarning:
		slogLevel = slog.LevelWarn
	case mcp.LoggingLevelError, mcp.LoggingLevelCritical, mcp.LoggingLevelAlert, mcp.LoggingLevelEmergency:
		slogLevel = slog.LevelError
	default:
		return ErrInvalidLoggingLevel
	}
	l.lv.Set(slogLevel)
	return nil
}
