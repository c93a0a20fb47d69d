// Package mcp contains protocol data types and constants shared across the
// transport and server capability implementations. It mirrors the wire
// representation specified by the Model Context Protocol while keeping the
// surface Go-friendly (exported structs with json tags, string constants for
// method names and enumerations, helper validation functions).
//
// The package is intentionally free of transport logic: the stdio transport
// and any future transports import these types but implement their own
// framing and session handling. Likewise higher-level server packages
// (e.g. mcpservice) construct responses using these concrete types and hand
// them to the dispatch engine for JSON-RPC serialization.
//
// # Method Names
//
// JSON-RPC method and notification names are enumerated as Method constants
// (e.g. ToolsListMethod). Using the constants avoids typographical mistakes
// and ensures a single point of truth as the protocol evolves. The unprefixed
// notification spellings ("initialized", "$/cancelRequest") predate the
// notifications/ namespace and remain accepted for older clients.
//
// # Capabilities
//
// ClientCapabilities and ServerCapabilities capture negotiated feature sets.
// They are thin structs shaped to match the JSON spec. Capability
// advertising happens during the initialize exchange; transports simply
// marshal these types.
//
// # Pagination
//
// List operations use cursor-based pagination. PaginatedRequest and
// PaginatedResult are embedded in request / result envelopes to keep the
// core list types clean while offering forward-compatible metadata via
// BaseMetadata.
//
// # Logging Levels
//
// LoggingLevel values mirror the protocol's syslog-derived severities. Use
// IsValidLoggingLevel to validate client-provided values in capability code.
//
// # Compatibility
//
// The LatestProtocolVersion constant reflects the most recent protocol date
// this implementation targets. Initialize answers with a version the server
// supports: a supported requested revision is echoed back, anything else
// falls back to the latest revision and is logged, not rejected.
package mcp
