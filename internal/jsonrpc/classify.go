package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind discriminates the classification of one inbound line.
type Kind int

const (
	// KindRequest is a message carrying an id. A request always produces
	// exactly one response, even when its body fails to decode.
	KindRequest Kind = iota + 1
	// KindNotification is a message carrying a method but no id. A
	// notification never produces a response.
	KindNotification
	// KindMalformed is input that is neither a request nor a notification.
	KindMalformed
)

func (k Kind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindNotification:
		return "notification"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Classified is the outcome of classifying one line of input. Kind selects
// which fields are meaningful:
//
//   - KindRequest: Req is set. A non-nil Err means the line carried an id
//     but did not decode as a well-formed request; the caller answers it
//     with an invalid-params error correlated to Req.ID (which is nil when
//     the id itself could not be recovered).
//   - KindNotification: Req is set unless Err is non-nil. Failures here are
//     logged and dropped; there is no id to correlate an answer to.
//   - KindMalformed: Err describes the problem. Unparseable marks input
//     that was not valid JSON at all, which is answered with a parse error
//     and a null id. Valid JSON carrying neither id nor method is logged
//     and dropped.
type Classified struct {
	Kind        Kind
	Req         *Request
	Err         error
	Unparseable bool
}

// Classify parses one non-empty line and decides how the serve loop must
// treat it. An id wins over a method: input carrying both is a request.
// This is the only place inbound classification happens.
func Classify(line []byte) Classified {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		if !json.Valid(line) {
			return Classified{Kind: KindMalformed, Err: err, Unparseable: true}
		}
		// Valid JSON that is not an object carries neither id nor method.
		return Classified{Kind: KindMalformed, Err: errors.New("message is not a JSON object")}
	}

	idRaw, hasID := fields["id"]
	_, hasMethod := fields["method"]

	switch {
	case hasID:
		req, err := decodeRequest(line)
		if err != nil {
			return Classified{
				Kind: KindRequest,
				Req:  &Request{JSONRPCVersion: ProtocolVersion, ID: recoverRequestID(idRaw)},
				Err:  err,
			}
		}
		return Classified{Kind: KindRequest, Req: req}
	case hasMethod:
		req, err := decodeRequest(line)
		if err != nil {
			return Classified{Kind: KindNotification, Err: err}
		}
		return Classified{Kind: KindNotification, Req: req}
	default:
		return Classified{Kind: KindMalformed, Err: errors.New("message has neither id nor method")}
	}
}

func decodeRequest(line []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, err
	}
	if req.JSONRPCVersion != ProtocolVersion {
		return nil, fmt.Errorf("invalid JSON-RPC version: expected %q, got %q", ProtocolVersion, req.JSONRPCVersion)
	}
	if req.Method == "" {
		return nil, errors.New("missing method")
	}
	return &req, nil
}

// recoverRequestID salvages whatever id it can from a request that failed to
// decode so the answer still correlates. Ids that are not a string or number
// come back nil and the answer carries a null id.
func recoverRequestID(raw json.RawMessage) *RequestID {
	var id RequestID
	if err := id.UnmarshalJSON(raw); err != nil {
		return nil
	}
	return &id
}
