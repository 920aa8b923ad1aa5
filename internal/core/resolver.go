package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mikey-austin/songtag/internal/ports"
	"github.com/mikey-austin/songtag/pkg/songtag"
)

// nodeIDPrefix marks a selector as an exact node id.
const nodeIDPrefix = "songtag:"

// Resolver resolves selectors to node presence.
type Resolver struct {
	Presence ports.Presence
	Config   Config
}

// ResolveLookupNode resolves a lookup node selector using the configured default.
func (r Resolver) ResolveLookupNode(ctx context.Context, selector string) (songtag.Presence, error) {
	return r.resolveByKind(ctx, selector, songtag.PresenceKind, r.Config.Node)
}

func (r Resolver) resolveByKind(ctx context.Context, selector string, kind string, def string) (songtag.Presence, error) {
	if selector == "" {
		selector = def
	}

	presence, err := r.Presence.ListPresence(ctx)
	if err != nil {
		return songtag.Presence{}, WrapError(ExitRuntime, "list presence", err)
	}

	filtered := filterPresenceByKind(presence, kind)
	if selector == "" {
		switch len(filtered) {
		case 1:
			return filtered[0], nil
		case 0:
			return songtag.Presence{}, &CLIError{Code: ExitUnavailable, Msg: "no lookup nodes online"}
		}
		return songtag.Presence{}, &CLIError{Code: ExitUsage, Msg: "node selector required: " + suggestionList(filtered)}
	}
	return resolveSelector(selector, filtered, r.Config.Aliases)
}

func filterPresenceByKind(presence []songtag.Presence, kind string) []songtag.Presence {
	if kind == "" {
		return presence
	}
	out := make([]songtag.Presence, 0, len(presence))
	for _, p := range presence {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

func resolveSelector(selector string, presence []songtag.Presence, aliases map[string]string) (songtag.Presence, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return songtag.Presence{}, &CLIError{Code: ExitUsage, Msg: "selector required"}
	}

	if strings.HasPrefix(selector, nodeIDPrefix) {
		return resolveExact(selector, presence)
	}

	if alias, ok := aliases[selector]; ok {
		if strings.HasPrefix(alias, nodeIDPrefix) {
			return resolveExact(alias, presence)
		}
		selector = alias
	}

	matches := make([]songtag.Presence, 0)
	for _, p := range presence {
		if strings.EqualFold(p.Name, selector) || strings.EqualFold(p.NodeID, selector) {
			matches = append(matches, p)
		}
	}

	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) == 0 {
		return songtag.Presence{}, &CLIError{Code: ExitNotFound, Msg: fmt.Sprintf("no match for %q", selector)}
	}
	return songtag.Presence{}, &CLIError{Code: ExitUsage, Msg: fmt.Sprintf("ambiguous selector %q: %s", selector, suggestionList(matches))}
}

func resolveExact(nodeID string, presence []songtag.Presence) (songtag.Presence, error) {
	for _, p := range presence {
		if p.NodeID == nodeID {
			return p, nil
		}
	}
	return songtag.Presence{}, &CLIError{Code: ExitNotFound, Msg: fmt.Sprintf("node not found: %s", nodeID)}
}

func suggestionList(matches []songtag.Presence) string {
	names := make([]string, 0, len(matches))
	for _, p := range matches {
		names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.NodeID))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
