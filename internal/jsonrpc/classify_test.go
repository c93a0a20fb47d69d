package jsonrpc

import (
	"strings"
	"testing"
)

func TestClassify_Request(t *testing.T) {
	c := Classify([]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	if c.Kind != KindRequest {
		t.Fatalf("kind = %v, want request", c.Kind)
	}
	if c.Err != nil {
		t.Fatalf("unexpected err: %v", c.Err)
	}
	if got := c.Req.ID.Value(); got != int64(1) {
		t.Fatalf("id = %v (%T), want 1", got, got)
	}
	if c.Req.Method != "tools/list" {
		t.Fatalf("method = %q", c.Req.Method)
	}
}

func TestClassify_IDWinsOverMethod(t *testing.T) {
	// Carrying both fields classifies as a request, never a notification.
	c := Classify([]byte(`{"jsonrpc":"2.0","id":"a","method":"initialized"}`))
	if c.Kind != KindRequest {
		t.Fatalf("kind = %v, want request", c.Kind)
	}
}

func TestClassify_Notification(t *testing.T) {
	c := Classify([]byte(`{"jsonrpc":"2.0","method":"initialized"}`))
	if c.Kind != KindNotification {
		t.Fatalf("kind = %v, want notification", c.Kind)
	}
	if c.Err != nil {
		t.Fatalf("unexpected err: %v", c.Err)
	}
	if c.Req.ID != nil {
		t.Fatal("notification should carry no id")
	}
}

func TestClassify_Unparseable(t *testing.T) {
	c := Classify([]byte(`not json at all`))
	if c.Kind != KindMalformed || !c.Unparseable {
		t.Fatalf("kind = %v unparseable = %v, want malformed/unparseable", c.Kind, c.Unparseable)
	}
	if c.Err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestClassify_ValidJSONWithoutKeys(t *testing.T) {
	for _, line := range []string{`{}`, `{"jsonrpc":"2.0"}`, `42`, `[1,2,3]`, `"hello"`} {
		c := Classify([]byte(line))
		if c.Kind != KindMalformed {
			t.Fatalf("Classify(%s) kind = %v, want malformed", line, c.Kind)
		}
		if c.Unparseable {
			t.Fatalf("Classify(%s) flagged unparseable; it is valid JSON", line)
		}
	}
}

func TestClassify_RequestMissingMethod(t *testing.T) {
	c := Classify([]byte(`{"jsonrpc":"2.0","id":7}`))
	if c.Kind != KindRequest {
		t.Fatalf("kind = %v, want request", c.Kind)
	}
	if c.Err == nil {
		t.Fatal("expected a decode error for the missing method")
	}
	if got := c.Req.ID.Value(); got != int64(7) {
		t.Fatalf("recovered id = %v, want 7", got)
	}
}

func TestClassify_RequestBadVersion(t *testing.T) {
	c := Classify([]byte(`{"jsonrpc":"1.0","id":3,"method":"ping"}`))
	if c.Kind != KindRequest || c.Err == nil {
		t.Fatalf("kind = %v err = %v, want request with decode error", c.Kind, c.Err)
	}
	if !strings.Contains(c.Err.Error(), "version") {
		t.Fatalf("err = %v, want version complaint", c.Err)
	}
}

func TestClassify_UnrecoverableID(t *testing.T) {
	c := Classify([]byte(`{"jsonrpc":"2.0","id":{"nested":true},"method":"ping"}`))
	if c.Kind != KindRequest || c.Err == nil {
		t.Fatalf("kind = %v err = %v, want request with decode error", c.Kind, c.Err)
	}
	if c.Req.ID != nil {
		t.Fatalf("id should be unrecoverable, got %v", c.Req.ID.Value())
	}
}

func TestClassify_NotificationDecodeFailure(t *testing.T) {
	c := Classify([]byte(`{"jsonrpc":"2.0","method":42}`))
	if c.Kind != KindNotification {
		t.Fatalf("kind = %v, want notification", c.Kind)
	}
	if c.Err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestClassify_StringID(t *testing.T) {
	c := Classify([]byte(`{"jsonrpc":"2.0","id":"req-9","method":"ping"}`))
	if c.Kind != KindRequest || c.Err != nil {
		t.Fatalf("kind = %v err = %v", c.Kind, c.Err)
	}
	if got := c.Req.ID.Value(); got != "req-9" {
		t.Fatalf("id = %v, want req-9", got)
	}
}
