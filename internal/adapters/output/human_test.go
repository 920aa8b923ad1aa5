package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pterm/pterm"

	"github.com/mikey-austin/songtag/internal/core"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

func TestHumanSearchTable(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var buf bytes.Buffer
	result := core.SearchResult{Query: "q", Tags: []songtag.SongTag{
		{SongID: "h1", Title: "Song A", Artist: songtag.Unknown, ServiceProvider: songtag.Kugou, URL: songtag.URLCopyrightProtected},
		{SongID: "9", Title: "Song B", Artist: "B", ServiceProvider: songtag.Kuwo, URL: songtag.URLDownloadable},
	}}
	if err := (HumanPrinter{Writer: &buf}).Print(result); err != nil {
		t.Fatalf("print: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"PROVIDER", "Song A", "未知", "kuwo", "protected", "free"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestHumanEmptySearch(t *testing.T) {
	var buf bytes.Buffer
	if err := (HumanPrinter{Writer: &buf}).Print(core.SearchResult{Query: "nothing"}); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(buf.String(), `no results for "nothing"`) {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestHumanTextAndNodes(t *testing.T) {
	var buf bytes.Buffer
	printer := HumanPrinter{Writer: &buf}
	if err := printer.Print(core.TextResult{Kind: core.TextLyric, Text: "[00:00.00]x"}); err != nil {
		t.Fatalf("print: %v", err)
	}
	if buf.String() != "[00:00.00]x\n" {
		t.Fatalf("unexpected text output %q", buf.String())
	}

	buf.Reset()
	nodes := core.NodesResult{Nodes: []songtag.Presence{{
		NodeID: "songtag:lookup:den", Kind: "songtag", Name: "Den",
		Caps: map[string]any{"providers": []any{"kugou", "kuwo"}},
	}}}
	if err := printer.Print(nodes); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(buf.String(), "kugou,kuwo") {
		t.Fatalf("expected providers column, got %q", buf.String())
	}
}

func TestJSONPrinter(t *testing.T) {
	var buf bytes.Buffer
	err := (JSONPrinter{Writer: &buf}).Print(core.SearchResult{Query: "q", Tags: []songtag.SongTag{{SongID: "1", ServiceProvider: songtag.Netease}}})
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(buf.String(), `"serviceProvider": "netease"`) {
		t.Fatalf("unexpected json %s", buf.String())
	}
}
