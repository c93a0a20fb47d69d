package mcpservice

import (
	"context"
	"testing"

	"github.com/mediar-ai/mcp-stdio-go/mcp"
	"github.com/mediar-ai/mcp-stdio-go/sessions"
)

func TestServerStaticProviders(t *testing.T) {
	ctx := context.Background()
	srv := NewServer(
		WithServerInfo(StaticServerInfo("test-server", "1.2.3", WithServerInfoTitle("Test Server"))),
		WithProtocolVersion(StaticProtocolVersion(mcp.LatestProtocolVersion)),
		WithInstructions(StaticInstructions("be gentle")),
		WithToolsCapability(NewToolsContainer()),
		WithLoggingCapability(StaticLogging(NewSlogLevelVarLogging(nil))),
	)

	info, err := srv.GetServerInfo(ctx, fakeSession("s"))
	if err != nil {
		t.Fatalf("GetServerInfo: %v", err)
	}
	if info.Name != "test-server" || info.Version != "1.2.3" || info.Title != "Test Server" {
		t.Fatalf("unexpected info: %+v", info)
	}

	v, ok, err := srv.GetPreferredProtocolVersion(ctx)
	if err != nil || !ok || v != mcp.LatestProtocolVersion {
		t.Fatalf("GetPreferredProtocolVersion = %q %v %v", v, ok, err)
	}

	instr, ok, err := srv.GetInstructions(ctx, fakeSession("s"))
	if err != nil || !ok || instr != "be gentle" {
		t.Fatalf("GetInstructions = %q %v %v", instr, ok, err)
	}

	if _, ok, err := srv.GetToolsCapability(ctx, fakeSession("s")); err != nil || !ok {
		t.Fatalf("tools capability should be present: %v %v", ok, err)
	}
	if _, ok, err := srv.GetLoggingCapability(ctx, fakeSession("s")); err != nil || !ok {
		t.Fatalf("logging capability should be present: %v %v", ok, err)
	}
	if _, ok, _ := srv.GetResourcesCapability(ctx, fakeSession("s")); ok {
		t.Fatal("resources capability should be absent when unconfigured")
	}
	if _, ok, _ := srv.GetPromptsCapability(ctx, fakeSession("s")); ok {
		t.Fatal("prompts capability should be absent when unconfigured")
	}
}

func TestServerUnconfiguredDefaults(t *testing.T) {
	ctx := context.Background()
	srv := NewServer()

	info, err := srv.GetServerInfo(ctx, fakeSession("s"))
	if err != nil || info.Name != "" {
		t.Fatalf("unconfigured info = %+v %v", info, err)
	}
	if _, ok, _ := srv.GetPreferredProtocolVersion(ctx); ok {
		t.Fatal("unconfigured protocol version should report absent")
	}
	if _, ok, _ := srv.GetInstructions(ctx, fakeSession("s")); ok {
		t.Fatal("unconfigured instructions should report absent")
	}
}

func TestStaticProtocolVersionRejectsUnknownRevision(t *testing.T) {
	p := StaticProtocolVersion("1999-01-01")
	if _, _, err := p.ProvidePreferredProtocolVersion(context.Background()); err == nil {
		t.Fatal("expected an error for an unknown protocol revision")
	}
}

func TestStaticInstructionsEmptyOmits(t *testing.T) {
	p := StaticInstructions("")
	if _, ok, _ := p.ProvideInstructions(context.Background(), fakeSession("s")); ok {
		t.Fatal("empty instructions should be absent")
	}
}

func TestDynamicProviderPerSession(t *testing.T) {
	ctx := context.Background()
	admin := NewToolsContainer()
	srv := NewServer(
		WithToolsCapability(ToolsCapabilityProviderFunc(func(ctx context.Context, s sessions.Session) (ToolsCapability, bool, error) {
			if s.UserID() == "admin" {
				return admin, true, nil
			}
			return nil, false, nil
		})),
	)

	if _, ok, _ := srv.GetToolsCapability(ctx, fakeSession("admin")); !ok {
		t.Fatal("admin session should see the tools capability")
	}
	if _, ok, _ := srv.GetToolsCapability(ctx, fakeSession("guest")); ok {
		t.Fatal("guest session should not see the tools capability")
	}
}
