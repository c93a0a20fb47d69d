// Package stdio implements a single-connection MCP transport over
// stdin/stdout. It is intended for embedding servers as subprocesses, local
// development, and environments where spawning a child process and piping JSON
// is simpler than running a network server.
//
// Characteristics
//
//	Connection model : 1 process <-> 1 client
//	Auth             : OS user (lightweight implicit principal)
//	Sessions         : One ephemeral in-memory session per Serve call
//	Transport        : Newline-delimited JSON-RPC 2.0
//
// Messages are processed one at a time in arrival order. Each request line
// produces exactly one response line; notifications produce none. Unparseable
// input is answered with a JSON-RPC parse error and a null id, and a line
// that carries an id but fails request decoding is answered with an
// invalid-params error, so the peer always learns the fate of an id-bearing
// line.
//
// Options allow supplying alternate io.Reader / io.Writer, a custom logger, or
// a custom user provider. The logger must never write to the same stream as
// the protocol output.
//
// Example:
//
//	srv := mcpservice.NewServer(
//	    mcpservice.WithServerInfo(mcpservice.StaticServerInfo("my-stdio-server", "0.1.0")),
//	    // mcpservice.WithToolsCapability(...), etc.
//	)
//	h := stdio.NewHandler(srv)
//	if err := h.Serve(context.Background()); err != nil { log.Fatal(err) }
package stdio
