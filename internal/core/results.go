package core

import "github.com/mikey-austin/songtag/pkg/songtag"

// NodesResult holds a list of presence records.
type NodesResult struct {
	Nodes []songtag.Presence
}

// SearchResult holds tags found for a query.
type SearchResult struct {
	Query string
	Tags  []songtag.SongTag
}

// TextKind names what a TextResult carries.
type TextKind string

// Text result kinds.
const (
	TextLyric   TextKind = "lyric"
	TextURL     TextKind = "url"
	TextPicture TextKind = "picture"
)

// TextResult holds a lyric or url resolved for a tag.
type TextResult struct {
	Kind     TextKind
	Provider songtag.Provider
	ID       string
	Text     string
}

// EmbedResult reports what was written into a local file.
type EmbedResult struct {
	Path    string
	Title   string
	Lyric   bool
	Picture bool
}
