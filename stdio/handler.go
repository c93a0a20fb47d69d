package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mediar-ai/mcp-stdio-go/internal/engine"
	"github.com/mediar-ai/mcp-stdio-go/internal/jsonrpc"
	"github.com/mediar-ai/mcp-stdio-go/internal/logctx"
	"github.com/mediar-ai/mcp-stdio-go/mcpservice"
)

const (
	// initialScanBuffer is the starting size of the line scanner's buffer.
	initialScanBuffer = 64 * 1024
	// maxLineBytes caps one inbound line. Beyond it line framing cannot be
	// recovered, so the loop terminates.
	maxLineBytes = 1024 * 1024
)

// Handler is a single-connection stdio transport that reads newline-delimited
// JSON-RPC messages from an io.Reader and writes responses to an io.Writer.
// By default it uses os.Stdin and os.Stdout. The peer is identified through a
// UserProvider, which defaults to the current OS user.
//
// The handler is transport-only; all protocol semantics live in the engine
// and the mcpservice.ServerCapabilities behind it.
type Handler struct {
	eng          *engine.Engine
	r            io.Reader
	w            io.Writer
	l            *slog.Logger
	userProvider UserProvider

	served atomic.Bool
}

// NewHandler constructs a stdio Handler with defaults and applies options.
func NewHandler(srv mcpservice.ServerCapabilities, opts ...Option) *Handler {
	h := &Handler{
		r:            os.Stdin,
		w:            os.Stdout,
		l:            slog.Default(),
		userProvider: OSUserProvider{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}

	h.eng = engine.NewEngine(srv, engine.WithLogger(h.l))

	return h
}

// Serve runs the stdio loop until EOF on the reader, a transport failure, or
// context cancellation. It may be called at most once per Handler.
//
// One message is dispatched to completion before the next line is read, and
// each request produces exactly one output line. EOF is a clean shutdown and
// returns nil; a read or write failure returns the underlying error.
func (h *Handler) Serve(ctx context.Context) error {
	if !h.served.CompareAndSwap(false, true) {
		return errors.New("serve may only be called once")
	}

	userID, err := h.userProvider.CurrentUserID()
	if err != nil {
		h.l.WarnContext(ctx, "stdio.user.unresolved", slog.String("err", err.Error()))
		userID = "unknown"
	}

	sess := newStdioSession(userID)
	out := bufio.NewWriter(h.w)

	h.l.InfoContext(ctx, "stdio.serve.start",
		slog.String("session_id", sess.SessionID()),
		slog.String("user_id", sess.UserID()),
	)

	lines := make(chan []byte)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(lines)
		sc := bufio.NewScanner(h.r)
		sc.Buffer(make([]byte, initialScanBuffer), maxLineBytes)
		for sc.Scan() {
			line := make([]byte, len(sc.Bytes()))
			copy(line, sc.Bytes())
			select {
			case lines <- line:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				if err := h.handleLine(gctx, sess, out, line); err != nil {
					return err
				}
			}
		}
	})

	err = g.Wait()
	if err != nil {
		h.l.InfoContext(ctx, "stdio.serve.stop", slog.String("reason", err.Error()))
		return err
	}
	h.l.InfoContext(ctx, "stdio.serve.stop", slog.String("reason", "eof"))
	return nil
}

// handleLine classifies one inbound line and dispatches it. The returned
// error is non-nil only for write failures, which are fatal to the loop;
// everything else is contained in the message's own response or log line.
func (h *Handler) handleLine(ctx context.Context, sess *stdioSession, out *bufio.Writer, line []byte) error {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return nil
	}

	cls := jsonrpc.Classify(trimmed)

	ctx = logctx.WithSessionData(ctx, &logctx.SessionData{
		SessionID:       sess.SessionID(),
		UserID:          sess.UserID(),
		ProtocolVersion: sess.ProtocolVersion(),
	})
	msg := &logctx.RPCMessage{Type: cls.Kind.String()}
	if cls.Req != nil {
		msg.Method = cls.Req.Method
		msg.ID = cls.Req.ID.String()
	}
	ctx = logctx.WithRPCMessage(ctx, msg)

	h.l.DebugContext(ctx, "stdio.recv",
		slog.Int("bytes", len(trimmed)),
		slog.Bool("initialized", sess.Initialized()),
	)

	switch cls.Kind {
	case jsonrpc.KindRequest:
		if cls.Err != nil {
			// The line carried an id but did not decode as a request. Answer
			// it correlated to that id so the caller's pending call resolves.
			h.l.InfoContext(ctx, "stdio.classify.request_invalid", slog.String("err", cls.Err.Error()))
			res := jsonrpc.NewErrorResponse(cls.Req.ID, jsonrpc.ErrorCodeInvalidParams, fmt.Sprintf("Invalid params: %s", cls.Err), nil)
			return h.writeResponse(ctx, out, res)
		}
		res := h.eng.HandleRequest(ctx, sess, cls.Req)
		return h.writeResponse(ctx, out, res)

	case jsonrpc.KindNotification:
		if cls.Err != nil {
			h.l.InfoContext(ctx, "stdio.classify.notification_invalid", slog.String("err", cls.Err.Error()))
			return nil
		}
		h.eng.HandleNotification(ctx, sess, cls.Req)
		return nil

	default:
		if cls.Unparseable {
			h.l.InfoContext(ctx, "stdio.classify.unparseable", slog.String("err", cls.Err.Error()))
			res := jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, fmt.Sprintf("Parse error: %s", cls.Err), nil)
			return h.writeResponse(ctx, out, res)
		}
		// Valid JSON with neither id nor method: nothing to correlate an
		// answer to.
		h.l.InfoContext(ctx, "stdio.classify.dropped", slog.String("err", cls.Err.Error()))
		return nil
	}
}

// writeResponse emits one response as a single line and flushes it before
// returning. Write and flush failures are fatal: the stream is the only
// channel to the peer, so once it breaks no further exchange is possible.
func (h *Handler) writeResponse(ctx context.Context, out *bufio.Writer, res *jsonrpc.Response) error {
	b, err := json.Marshal(res)
	if err != nil {
		h.l.ErrorContext(ctx, "stdio.write.encode_fail", slog.String("err", err.Error()))
		fallback := jsonrpc.NewErrorResponse(res.ID, jsonrpc.ErrorCodeInternalError, "response encoding failed", nil)
		if b, err = json.Marshal(fallback); err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
	}
	b = append(b, '\n')

	if _, err := out.Write(b); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("flush response: %w", err)
	}

	h.l.DebugContext(ctx, "stdio.send", slog.Int("bytes", len(b)))
	return nil
}
