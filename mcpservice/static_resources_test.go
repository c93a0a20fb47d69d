package mcpservice

import (
	"context"
	"errors"
	"testing"

	"github.com/mediar-ai/mcp-stdio-go/mcp"
)

func strptr(s string) *string { return &s }

func TestResourcesContainerListReadRemove(t *testing.T) {
	ctx := context.Background()
	c := NewResourcesContainer(
		[]mcp.Resource{
			{URI: "res://hello.txt", Name: "hello.txt", MimeType: "text/plain"},
			{URI: "res://data.bin", Name: "data.bin"},
		},
		[]mcp.ResourceTemplate{{URITemplate: "res://{name}", Name: "by-name"}},
		map[string][]mcp.ResourceContents{
			"res://hello.txt": {{URI: "res://hello.txt", MimeType: "text/plain", Text: "hello"}},
		},
	)

	page, err := c.ListResources(ctx, fakeSession("s"), nil)
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(page.Items) != 2 || page.NextCursor != nil {
		t.Fatalf("page = %+v", page)
	}

	tpls, err := c.ListResourceTemplates(ctx, fakeSession("s"), nil)
	if err != nil || len(tpls.Items) != 1 {
		t.Fatalf("templates = %+v %v", tpls, err)
	}

	contents, err := c.ReadResource(ctx, fakeSession("s"), "res://hello.txt")
	if err != nil {
		t.Fatalf("ReadResource: %v", err)
	}
	if len(contents) != 1 || contents[0].Text != "hello" {
		t.Fatalf("contents = %+v", contents)
	}

	// data.bin is listed but has no contents registered.
	if _, err := c.ReadResource(ctx, fakeSession("s"), "res://data.bin"); !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("err = %v, want ErrResourceNotFound", err)
	}

	if !c.RemoveResource(ctx, "res://hello.txt") {
		t.Fatal("RemoveResource returned false")
	}
	if c.HasResource("res://hello.txt") {
		t.Fatal("resource still present after removal")
	}
	if _, err := c.ReadResource(ctx, fakeSession("s"), "res://hello.txt"); !errors.Is(err, ErrResourceNotFound) {
		t.Fatalf("read after removal err = %v, want ErrResourceNotFound", err)
	}
}

func TestResourcesContainerUpsert(t *testing.T) {
	ctx := context.Background()
	c := NewResourcesContainer(nil, nil, nil)
	ch := c.Subscriber()

	added := c.UpsertResource(ctx, mcp.Resource{URI: "res://a", Name: "a"},
		mcp.ResourceContents{URI: "res://a", Text: "v1"})
	if !added {
		t.Fatal("first upsert should report newly added")
	}
	select {
	case <-ch:
	default:
		t.Fatal("expected a change tick after upsert")
	}

	if c.UpsertResource(ctx, mcp.Resource{URI: "res://a", Name: "a2"},
		mcp.ResourceContents{URI: "res://a", Text: "v2"}) {
		t.Fatal("second upsert should report replacement")
	}
	contents, err := c.ReadResource(ctx, fakeSession("s"), "res://a")
	if err != nil || contents[0].Text != "v2" {
		t.Fatalf("contents after upsert = %+v %v", contents, err)
	}
	snap := c.SnapshotResources()
	if len(snap) != 1 || snap[0].Name != "a2" {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestResourcesContainerReplaceReportsRemoved(t *testing.T) {
	ctx := context.Background()
	c := NewResourcesContainer([]mcp.Resource{
		{URI: "res://a"}, {URI: "res://b"},
	}, nil, nil)

	removed := c.ReplaceResources(ctx, []mcp.Resource{{URI: "res://b"}, {URI: "res://c"}})
	if len(removed) != 1 || removed[0] != "res://a" {
		t.Fatalf("removed = %v, want [res://a]", removed)
	}
}

func TestResourcesContainerPagination(t *testing.T) {
	ctx := context.Background()
	c := NewResourcesContainer([]mcp.Resource{
		{URI: "res://1"}, {URI: "res://2"}, {URI: "res://3"},
	}, nil, nil)
	c.SetPageSize(2)

	page, err := c.ListResources(ctx, fakeSession("s"), nil)
	if err != nil || len(page.Items) != 2 || page.NextCursor == nil {
		t.Fatalf("first page = %+v %v", page, err)
	}
	page2, err := c.ListResources(ctx, fakeSession("s"), page.NextCursor)
	if err != nil || len(page2.Items) != 1 || page2.NextCursor != nil {
		t.Fatalf("second page = %+v %v", page2, err)
	}
	if _, err := c.ListResources(ctx, fakeSession("s"), strptr("nope")); !errors.Is(err, ErrInvalidCursor) {
		t.Fatalf("bogus cursor err = %v, want ErrInvalidCursor", err)
	}
	// A cursor past the end yields an empty final page, not an error.
	tail, err := c.ListResources(ctx, fakeSession("s"), strptr("99"))
	if err != nil || len(tail.Items) != 0 || tail.NextCursor != nil {
		t.Fatalf("tail page = %+v %v", tail, err)
	}
}
