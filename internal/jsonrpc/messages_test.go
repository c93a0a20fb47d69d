package jsonrpc

import (
	"encoding/json"
	"testing"
)

func TestResultResponse_KeySet(t *testing.T) {
	resp, err := NewResultResponse(NewRequestID(1), map[string]any{"ok": true})
	if err != nil {
		t.Fatalf("NewResultResponse: %v", err)
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("got %d keys in %s, want exactly jsonrpc/id/result", len(keys), raw)
	}
	for _, k := range []string{"jsonrpc", "id", "result"} {
		if _, ok := keys[k]; !ok {
			t.Fatalf("missing key %q in %s", k, raw)
		}
	}
}

func TestErrorResponse_NullID(t *testing.T) {
	resp := NewErrorResponse(nil, ErrorCodeParseError, "Parse error: bad input", nil)
	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded struct {
		ID    json.RawMessage `json:"id"`
		Error *Error          `json:"error"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if string(decoded.ID) != "null" {
		t.Fatalf("id = %s, want null", decoded.ID)
	}
	if decoded.Error == nil || decoded.Error.Code != ErrorCodeParseError {
		t.Fatalf("error = %+v", decoded.Error)
	}
}

func TestRequestID_NumberRoundTrip(t *testing.T) {
	var req Request
	if err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":42,"method":"ping"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	raw, err := json.Marshal(req.ID)
	if err != nil {
		t.Fatalf("marshal id: %v", err)
	}
	if string(raw) != "42" {
		t.Fatalf("id round trips as %s, want 42", raw)
	}
}

func TestRequestID_StringValue(t *testing.T) {
	id := NewRequestID("abc")
	if id.IsNil() {
		t.Fatal("expected non-nil id")
	}
	if id.String() != "abc" {
		t.Fatalf("String() = %q", id.String())
	}
}
