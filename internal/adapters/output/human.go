package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/pterm/pterm"

	"github.com/mikey-austin/songtag/internal/core"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

// HumanPrinter prints human-readable output.
type HumanPrinter struct {
	Writer io.Writer
}

// Print renders human output.
func (p HumanPrinter) Print(v any) error {
	w := writerOrStdout(p.Writer)
	switch data := v.(type) {
	case core.SearchResult:
		return printSearch(w, data)
	case core.TextResult:
		return printText(w, data)
	case core.NodesResult:
		return printNodes(w, data)
	case core.EmbedResult:
		return printEmbed(w, data)
	default:
		_, err := fmt.Fprintln(w, "ok")
		return err
	}
}

func printSearch(w io.Writer, result core.SearchResult) error {
	if len(result.Tags) == 0 {
		_, err := fmt.Fprintf(w, "no results for %q\n", result.Query)
		return err
	}
	data := pterm.TableData{{"#", "PROVIDER", "TITLE", "ARTIST", "ALBUM", "ID", "STATUS"}}
	for i, tag := range result.Tags {
		data = append(data, []string{
			fmt.Sprintf("%d", i+1),
			tag.ServiceProvider.String(),
			tag.Title,
			tag.Artist,
			tag.Album,
			tag.SongID,
			tagStatus(tag),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render()
}

func tagStatus(tag songtag.SongTag) string {
	switch tag.URL {
	case songtag.URLDownloadable:
		return "free"
	case songtag.URLCopyrightProtected:
		return "protected"
	default:
		return tag.URL
	}
}

func printText(w io.Writer, result core.TextResult) error {
	text := result.Text
	if text == "" {
		text = "(empty)"
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(w, text)
	return err
}

func printNodes(w io.Writer, result core.NodesResult) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "NAME\tKIND\tNODE_ID\tPROVIDERS"); err != nil {
		return err
	}
	for _, node := range result.Nodes {
		_, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", node.Name, node.Kind, node.NodeID, providersCap(node))
		if err != nil {
			return err
		}
	}
	return tw.Flush()
}

func providersCap(node songtag.Presence) string {
	raw, ok := node.Caps["providers"].([]any)
	if !ok {
		return ""
	}
	names := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			names = append(names, s)
		}
	}
	return strings.Join(names, ",")
}

func printEmbed(w io.Writer, result core.EmbedResult) error {
	var parts []string
	if result.Title != "" {
		parts = append(parts, "tags")
	}
	if result.Lyric {
		parts = append(parts, "lyric")
	}
	if result.Picture {
		parts = append(parts, "cover")
	}
	_, err := fmt.Fprintf(w, "%s: wrote %s\n", result.Path, strings.Join(parts, ", "))
	return err
}
