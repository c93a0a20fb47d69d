package mcpservice

import (
	"context"
	"errors"
	"testing"

	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

func greetingPrompt() StaticPrompt {
	return StaticPrompt{
		Descriptor: mcp.Prompt{
			Name:        "greeting",
			Description: "Compose a greeting",
			Arguments:   []mcp.PromptArgument{{Name: "name", Required: true}},
		},
		Handler: func(ctx context.Context, s sessions.Session, req *mcp.GetPromptRequestReceived) (*mcp.GetPromptResult, error) {
			return &mcp.GetPromptResult{
				Description: "A friendly greeting",
				Messages: []mcp.PromptMessage{{
					Role:    mcp.RoleUser,
					Content: mcp.ContentBlock{Type: mcp.ContentTypeText, Text: "Say hello."},
				}},
			}, nil
		},
	}
}

func TestPromptsContainerListAndGet(t *testing.T) {
	ctx := context.Background()
	c := NewPromptsContainer(greetingPrompt())

	page, err := c.ListPrompts(ctx, fakeSession("s"), nil)
	if err != nil {
		t.Fatalf("ListPrompts: %v", err)
	}
	if len(page.Items) != 1 || page.Items[0].Name != "greeting" {
		t.Fatalf("page = %+v", page)
	}

	res, err := c.GetPrompt(ctx, fakeSession("s"), &mcp.GetPromptRequestReceived{Name: "greeting"})
	if err != nil {
		t.Fatalf("GetPrompt: %v", err)
	}
	if len(res.Messages) != 1 || res.Messages[0].Content.Text != "Say hello." {
		t.Fatalf("result = %+v", res)
	}
}

func TestPromptsContainerUnknownName(t *testing.T) {
	c := NewPromptsContainer()
	_, err := c.GetPrompt(context.Background(), fakeSession("s"), &mcp.GetPromptRequestReceived{Name: "missing"})
	if !errors.Is(err, ErrPromptNotFound) {
		t.Fatalf("err = %v, want ErrPromptNotFound", err)
	}
}

func TestPromptsContainerAddRemove(t *testing.T) {
	ctx := context.Background()
	c := NewPromptsContainer()

	if !c.Add(ctx, greetingPrompt()) {
		t.Fatal("Add returned false for fresh name")
	}
	if c.Add(ctx, greetingPrompt()) {
		t.Fatal("duplicate Add should return false")
	}
	if c.Add(ctx, StaticPrompt{}) {
		t.Fatal("Add should reject an empty name")
	}
	if !c.Remove(ctx, "greeting") {
		t.Fatal("Remove returned false for existing name")
	}
	if c.Remove(ctx, "greeting") {
		t.Fatal("second Remove should return false")
	}
}

func TestDynamicPromptsFallbacks(t *testing.T) {
	ctx := context.Background()
	p := NewDynamicPrompts()

	page, err := p.ListPrompts(ctx, fakeSession("s"), nil)
	if err != nil || len(page.Items) != 0 {
		t.Fatalf("empty dynamic list = %+v %v", page, err)
	}
	if _, err := p.GetPrompt(ctx, fakeSession("s"), &mcp.GetPromptRequestReceived{Name: "x"}); !errors.Is(err, ErrPromptNotFound) {
		t.Fatalf("err = %v, want ErrPromptNotFound", err)
	}
}
