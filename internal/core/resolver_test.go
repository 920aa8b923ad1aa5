package core

import (
	"context"
	"testing"

	"github.com/mikey-austin/songtag/pkg/songtag"
)

type fakePresence struct {
	presence []songtag.Presence
}

func (f fakePresence) ListPresence(ctx context.Context) ([]songtag.Presence, error) {
	return f.presence, nil
}

func TestResolverAlias(t *testing.T) {
	presence := []songtag.Presence{{NodeID: "songtag:lookup:one", Kind: "songtag", Name: "Den"}}
	resolver := Resolver{
		Presence: fakePresence{presence: presence},
		Config: Config{
			Aliases: map[string]string{"den": "songtag:lookup:one"},
		},
	}
	got, err := resolver.ResolveLookupNode(context.Background(), "den")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got.NodeID != "songtag:lookup:one" {
		t.Fatalf("expected alias resolution")
	}
}

func TestResolverAmbiguous(t *testing.T) {
	presence := []songtag.Presence{
		{NodeID: "songtag:lookup:one", Kind: "songtag", Name: "Lookup"},
		{NodeID: "songtag:lookup:two", Kind: "songtag", Name: "Lookup"},
	}
	resolver := Resolver{Presence: fakePresence{presence: presence}}
	_, err := resolver.ResolveLookupNode(context.Background(), "Lookup")
	if err == nil {
		t.Fatalf("expected ambiguous error")
	}
	if _, err := resolver.ResolveLookupNode(context.Background(), ""); ExitCode(err) != ExitUsage {
		t.Fatalf("expected usage error without selector, got %v", err)
	}
}

func TestResolverDefaults(t *testing.T) {
	presence := []songtag.Presence{
		{NodeID: "songtag:lookup:one", Kind: "songtag", Name: "Only"},
		{NodeID: "other:node", Kind: "broker", Name: "Broker"},
	}
	resolver := Resolver{Presence: fakePresence{presence: presence}}
	got, err := resolver.ResolveLookupNode(context.Background(), "")
	if err != nil || got.Name != "Only" {
		t.Fatalf("expected single node default, got %+v %v", got, err)
	}

	empty := Resolver{Presence: fakePresence{}}
	if _, err := empty.ResolveLookupNode(context.Background(), ""); ExitCode(err) != ExitUnavailable {
		t.Fatalf("expected unavailable, got %v", err)
	}
	if _, err := resolver.ResolveLookupNode(context.Background(), "songtag:lookup:missing"); ExitCode(err) != ExitNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
