package mcpservice

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

// nopSession satisfies sessions.Session for handlers that never touch it.
type nopSession struct{ sessions.Session }

type weatherArgs struct {
	Location string `json:"location" jsonschema:"description=City or place name"`
	Days     int    `json:"days,omitempty" jsonschema:"description=Forecast window in days"`
}

func TestNewToolReflectsInputSchema(t *testing.T) {
	tool := NewTool[weatherArgs]("get_weather", func(ctx context.Context, s sessions.Session, w ToolResponseWriter, r *ToolRequest[weatherArgs]) error {
		w.AppendText("sunny in " + r.Args().Location)
		return nil
	}, WithToolDescription("Get a weather forecast"))

	schema := tool.Descriptor.InputSchema
	if schema.Type != "object" {
		t.Fatalf("schema type = %q, want object", schema.Type)
	}
	if _, ok := schema.Properties["location"]; !ok {
		t.Fatalf("schema missing location property: %+v", schema.Properties)
	}
	if _, ok := schema.Properties["days"]; !ok {
		t.Fatalf("schema missing days property: %+v", schema.Properties)
	}
	var hasLocation bool
	for _, req := range schema.Required {
		if req == "location" {
			hasLocation = true
		}
		if req == "days" {
			t.Fatalf("days should be optional, required=%v", schema.Required)
		}
	}
	if !hasLocation {
		t.Fatalf("location should be required, required=%v", schema.Required)
	}
}

func TestEmptyArgsSchemaSerializesWithProperties(t *testing.T) {
	type noArgs struct{}
	tool := NewTool[noArgs]("noop", func(ctx context.Context, s sessions.Session, w ToolResponseWriter, r *ToolRequest[noArgs]) error {
		return nil
	})
	b, err := json.Marshal(tool.Descriptor.InputSchema)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}
	props, ok := raw["properties"]
	if !ok {
		t.Fatalf("schema must always carry properties, got %s", b)
	}
	if string(props) != "{}" {
		t.Fatalf("empty-arg schema properties = %s, want {}", props)
	}
}

func TestNewToolStrictArgumentDecoding(t *testing.T) {
	tool := NewTool[weatherArgs]("get_weather", func(ctx context.Context, s sessions.Session, w ToolResponseWriter, r *ToolRequest[weatherArgs]) error {
		w.AppendText("ok")
		return nil
	})
	c := NewToolsContainer(tool)

	res, err := c.CallTool(context.Background(), nopSession{}, &mcp.CallToolRequestReceived{
		Name:      "get_weather",
		Arguments: json.RawMessage(`{"location":"Berlin","bogus":true}`),
	})
	if err != nil {
		t.Fatalf("CallTool error: %v", err)
	}
	if !res.IsError {
		t.Fatalf("unknown argument field should produce an in-band error, got %+v", res)
	}
	if len(res.Content) != 1 || !strings.Contains(res.Content[0].Text, "invalid arguments") {
		t.Fatalf("unexpected error content: %+v", res.Content)
	}
}

func TestNewToolAllowAdditionalProperties(t *testing.T) {
	tool := NewTool[weatherArgs]("get_weather", func(ctx context.Context, s sessions.Session, w ToolResponseWriter, r *ToolRequest[weatherArgs]) error {
		w.AppendText("forecast for " + r.Args().Location)
		return nil
	}, WithToolAllowAdditionalProperties(true))
	c := NewToolsContainer(tool)

	res, err := c.CallTool(context.Background(), nopSession{}, &mcp.CallToolRequestReceived{
		Name:      "get_weather",
		Arguments: json.RawMessage(`{"location":"Berlin","bogus":true}`),
	})
	if err != nil {
		t.Fatalf("CallTool error: %v", err)
	}
	if res.IsError {
		t.Fatalf("additional properties should be tolerated, got %+v", res.Content)
	}
}

func TestCallToolUnknownNameReportsInBand(t *testing.T) {
	c := NewToolsContainer()

	res, err := c.CallTool(context.Background(), nopSession{}, &mcp.CallToolRequestReceived{Name: "unknown_tool"})
	if err != nil {
		t.Fatalf("unknown tool must not be a protocol error, got %v", err)
	}
	if !res.IsError {
		t.Fatalf("unknown tool result should set isError, got %+v", res)
	}
	want := "Error: Tool 'unknown_tool' not implemented by this server."
	if len(res.Content) != 1 || res.Content[0].Text != want {
		t.Fatalf("content = %+v, want single text block %q", res.Content, want)
	}
}

func TestCallUnknownNameReturnsSentinel(t *testing.T) {
	c := NewToolsContainer()
	_, err := c.Call(context.Background(), nopSession{}, &mcp.CallToolRequestReceived{Name: "missing"})
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("err = %v, want ErrToolNotFound", err)
	}
}

func TestListToolsPagination(t *testing.T) {
	mk := func(name string) StaticTool {
		return NewTool[struct{}](name, func(ctx context.Context, s sessions.Session, w ToolResponseWriter, r *ToolRequest[struct{}]) error {
			return nil
		})
	}
	c := NewToolsContainer(mk("a"), mk("b"), mk("c"))
	c.SetPageSize(2)

	page, err := c.ListTools(context.Background(), nopSession{}, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	if len(page.Items) != 2 || page.NextCursor == nil {
		t.Fatalf("first page = %d items cursor=%v, want 2 items with cursor", len(page.Items), page.NextCursor)
	}
	page2, err := c.ListTools(context.Background(), nopSession{}, page.NextCursor)
	if err != nil {
		t.Fatalf("ListTools page 2: %v", err)
	}
	if len(page2.Items) != 1 || page2.NextCursor != nil {
		t.Fatalf("second page = %d items cursor=%v, want 1 item and no cursor", len(page2.Items), page2.NextCursor)
	}
	if page2.Items[0].Name != "c" {
		t.Fatalf("second page item = %q, want c", page2.Items[0].Name)
	}

	bogus := "not-a-cursor"
	if _, err := c.ListTools(context.Background(), nopSession{}, &bogus); !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("bogus cursor err = %v, want ErrInvalidCursor", err)
	}
}

func TestContainerMutationTicksSubscriber(t *testing.T) {
	c := NewToolsContainer()
	ch := c.Subscriber()

	ok := c.Add(context.Background(), NewTool[struct{}]("late", func(ctx context.Context, s sessions.Session, w ToolResponseWriter, r *ToolRequest[struct{}]) error {
		return nil
	}))
	if !ok {
		t.Fatal("Add returned false for a fresh name")
	}
	select {
	case <-ch:
	default:
		t.Fatal("expected a change tick after Add")
	}

	dup := NewTool[struct{}]("late", func(ctx context.Context, s sessions.Session, w ToolResponseWriter, r *ToolRequest[struct{}]) error {
		return nil
	})
	if c.Add(context.Background(), dup) {
		t.Fatal("duplicate Add should return false")
	}
	if !c.Remove(context.Background(), "late") {
		t.Fatal("Remove returned false for an existing name")
	}
}

func TestToolDescriptorMeta(t *testing.T) {
	tool := NewTool[struct{}]("tagged", func(ctx context.Context, s sessions.Session, w ToolResponseWriter, r *ToolRequest[struct{}]) error {
		w.AppendText("hello")
		return nil
	}, WithToolMeta(map[string]any{"category": "test"}))
	c := NewToolsContainer(tool)

	list := c.Snapshot()
	if len(list) != 1 || list[0].Meta["category"] != "test" {
		t.Fatalf("descriptor meta missing: %+v", list)
	}

	// Descriptor meta must not leak into call results.
	res, err := c.Call(context.Background(), nopSession{}, &mcp.CallToolRequestReceived{Name: "tagged"})
	if err != nil {
		t.Fatalf("call error: %v", err)
	}
	if res.Meta != nil {
		t.Fatalf("result meta should be empty unless the handler sets it, got %+v", res.Meta)
	}
}

func TestToolDescriptorOmitsEmptyMeta(t *testing.T) {
	tool := NewTool[struct{}]("plain", func(ctx context.Context, s sessions.Session, w ToolResponseWriter, r *ToolRequest[struct{}]) error {
		return nil
	})
	b, err := json.Marshal(tool.Descriptor)
	if err != nil {
		t.Fatalf("marshal descriptor: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal descriptor: %v", err)
	}
	if _, ok := raw["_meta"]; ok {
		t.Fatalf("_meta should be omitted when empty: %s", b)
	}
}

func TestNewToolWithOutputAttachesStructuredContent(t *testing.T) {
	type produced struct {
		Value string `json:"value"`
	}
	tool := NewToolWithOutput[struct{}, produced]("produce", func(ctx context.Context, s sessions.Session, w ToolResponseWriterTyped[produced], r *ToolRequest[struct{}]) error {
		w.SetStructured(produced{Value: "hi"})
		return nil
	})
	if tool.Descriptor.OutputSchema == nil || tool.Descriptor.OutputSchema.Type != "object" {
		t.Fatalf("output schema not reflected: %+v", tool.Descriptor.OutputSchema)
	}

	c := NewToolsContainer(tool)
	res, err := c.CallTool(context.Background(), nopSession{}, &mcp.CallToolRequestReceived{Name: "produce"})
	if err != nil {
		t.Fatalf("CallTool error: %v", err)
	}
	if res.StructuredContent == nil || res.StructuredContent["value"] != "hi" {
		t.Fatalf("structuredContent = %+v, want value=hi", res.StructuredContent)
	}
}

func TestToolWriterFinalization(t *testing.T) {
	w := newToolResponseWriter(context.Background())
	if err := w.AppendText("one"); err != nil {
		t.Fatalf("AppendText: %v", err)
	}
	res := w.Result()
	if len(res.Content) != 1 || res.Content[0].Text != "one" {
		t.Fatalf("result content = %+v", res.Content)
	}
	if err := w.AppendText("two"); !errors.Is(err, ErrFinalized) {
		t.Fatalf("write after Result err = %v, want ErrFinalized", err)
	}
}

func TestToolWriterEmptyContentSerializesAsArray(t *testing.T) {
	w := newToolResponseWriter(context.Background())
	b, err := json.Marshal(w.Result())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(raw["content"]) != "[]" {
		t.Fatalf("content = %s, want []", raw["content"])
	}
}
